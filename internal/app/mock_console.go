// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

func RunMockConsole() error {
	src := mag.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.ReadSample()
		if err != nil {
			return err
		}

		bx := float64(s.Mx) * lis2mdl.Sensitivity
		by := float64(s.My) * lis2mdl.Sensitivity
		bz := float64(s.Mz) * lis2mdl.Sensitivity
		norm := math.Sqrt(bx*bx + by*by + bz*bz)

		fmt.Printf(
			"mx=%6d  my=%6d  mz=%6d  |B|=%7.4f G\n",
			s.Mx,
			s.My,
			s.Mz,
			norm,
		)
	}
	return nil
}
