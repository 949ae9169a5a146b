// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mag

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time

	// Hard-iron offset and per-axis radius baked into the synthetic
	// field, in counts, so calibration tools have something to find.
	bias   [3]float64
	radius [3]float64
}

// NewMockSource creates a mock magnetometer source that sweeps a
// distorted field ellipsoid over time, as if the device were being
// rotated by hand.
func NewMockSource() Source {
	return &mockSource{
		start:  time.Now(),
		bias:   [3]float64{120, -80, 40},
		radius: [3]float64{300, 270, 330},
	}
}

func (m *mockSource) ReadSample() (Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	theta := elapsed * 2.1
	phi := elapsed * 0.9

	return Sample{
		Mx: int16(m.bias[0] + m.radius[0]*math.Cos(theta)*math.Cos(phi)),
		My: int16(m.bias[1] + m.radius[1]*math.Sin(theta)*math.Cos(phi)),
		Mz: int16(m.bias[2] + m.radius[2]*math.Sin(phi)),
	}, nil
}
