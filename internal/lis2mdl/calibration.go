// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/mag_computer/internal/mag"
)

// ErrInsufficientMotion reports that at least one axis never varied
// during calibration (device left still, or a stuck sensor), so no
// soft-iron scale can be computed for it.
var ErrInsufficientMotion = errors.New("lis2mdl: insufficient motion during calibration")

// Default calibration run: 4000 samples, 12 ms apart, roughly 48 s of
// hand rotation.
const (
	DefaultCalibrationSamples  = 4000
	DefaultCalibrationInterval = 12 * time.Millisecond
)

// CalibrationOpts configures a calibration run. The zero value uses
// the defaults above. Progress, if set, is invoked after every sample.
type CalibrationOpts struct {
	Samples  int
	Interval time.Duration
	Progress func(done, total int)

	sleep func(time.Duration)
}

// Calibration holds hard-iron bias (gauss) and soft-iron scale
// (dimensionless, near 1.0) per axis, plus the raw extrema they were
// derived from. The caller owns the result: apply it to subsequent
// samples and persist it if needed. The engine keeps no state.
type Calibration struct {
	Bias  [3]float64 `json:"bias_gauss"`
	Scale [3]float64 `json:"scale"`

	Min     [3]int16 `json:"min_counts"`
	Max     [3]int16 `json:"max_counts"`
	Samples int      `json:"samples"`
}

// Apply corrects one raw sample using the calibration, returning the
// field per axis in gauss: (raw·sensitivity − bias) · scale.
func (c Calibration) Apply(s mag.Sample) [3]float64 {
	raw := [3]int16{s.Mx, s.My, s.Mz}
	var out [3]float64
	for i := range raw {
		out[i] = (float64(raw[i])*Sensitivity - c.Bias[i]) * c.Scale[i]
	}
	return out
}

// Calibrate estimates hard-iron bias and soft-iron scale by tracking
// the per-axis min/max over a fixed-count sampling run. The operator
// must rotate the device through all orientations while it runs
// (prompting is the caller's job). Any read failure aborts the run
// immediately; partial data is never used.
func Calibrate(src mag.Source, opts CalibrationOpts) (Calibration, error) {
	if opts.Samples == 0 {
		opts.Samples = DefaultCalibrationSamples
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultCalibrationInterval
	}
	if opts.sleep == nil {
		opts.sleep = time.Sleep
	}

	min := [3]int16{math.MaxInt16, math.MaxInt16, math.MaxInt16}
	max := [3]int16{math.MinInt16, math.MinInt16, math.MinInt16}

	for i := 0; i < opts.Samples; i++ {
		s, err := src.ReadSample()
		if err != nil {
			return Calibration{}, fmt.Errorf("calibration sample %d/%d: %w", i+1, opts.Samples, err)
		}
		for j, v := range [3]int16{s.Mx, s.My, s.Mz} {
			if v > max[j] {
				max[j] = v
			}
			if v < min[j] {
				min[j] = v
			}
		}
		if opts.Progress != nil {
			opts.Progress(i+1, opts.Samples)
		}
		opts.sleep(opts.Interval)
	}

	cal := Calibration{Min: min, Max: max, Samples: opts.Samples}

	// Hard iron: midpoint of the observed range, in gauss.
	var halfRange [3]float64
	for i := range cal.Bias {
		cal.Bias[i] = float64(int32(max[i])+int32(min[i])) / 2 * Sensitivity
		halfRange[i] = float64(int32(max[i])-int32(min[i])) / 2
		if halfRange[i] == 0 {
			return Calibration{}, fmt.Errorf("%w: axis %d never varied", ErrInsufficientMotion, i)
		}
	}

	// Soft iron: normalize each axis's half-range to the average,
	// pulling the ellipsoid response toward a sphere.
	avg := (halfRange[0] + halfRange[1] + halfRange[2]) / 3
	for i := range cal.Scale {
		cal.Scale[i] = avg / halfRange[i]
	}
	return cal, nil
}
