// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/mag_computer/internal/mag"
)

// sliceSource feeds a fixed sample stream, then an error if drained.
type sliceSource struct {
	samples []mag.Sample
	next    int
	err     error
}

func (s *sliceSource) ReadSample() (mag.Sample, error) {
	if s.next >= len(s.samples) {
		if s.err != nil {
			return mag.Sample{}, s.err
		}
		// Wrap around so long runs keep the same extrema.
		s.next = 0
	}
	out := s.samples[s.next]
	s.next++
	return out, nil
}

func noSleep(time.Duration) {}

func TestCalibrate(t *testing.T) {
	// Per-axis extrema chosen so every expected value is hand-checkable:
	//   x: [-300, 500] -> mid 100, half-range 400
	//   y: [-150, 250] -> mid  50, half-range 200
	//   z: [-350, 250] -> mid -50, half-range 300
	// avg half-range = 300 -> scale = {0.75, 1.5, 1.0}
	src := &sliceSource{samples: []mag.Sample{
		{Mx: 500, My: 250, Mz: -350},
		{Mx: -300, My: -150, Mz: 250},
		{Mx: 0, My: 0, Mz: 0},
	}}

	cal, err := Calibrate(src, CalibrationOpts{Samples: 3, sleep: noSleep})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	wantBias := [3]float64{100 * Sensitivity, 50 * Sensitivity, -50 * Sensitivity}
	wantScale := [3]float64{0.75, 1.5, 1.0}
	for i := 0; i < 3; i++ {
		if cal.Bias[i] != wantBias[i] {
			t.Errorf("bias[%d] = %v, want %v", i, cal.Bias[i], wantBias[i])
		}
		if cal.Scale[i] != wantScale[i] {
			t.Errorf("scale[%d] = %v, want %v", i, cal.Scale[i], wantScale[i])
		}
	}
	if cal.Min != [3]int16{-300, -150, -350} || cal.Max != [3]int16{500, 250, 250} {
		t.Errorf("extrema = min %v max %v", cal.Min, cal.Max)
	}
}

func TestCalibrateDegenerateAxis(t *testing.T) {
	// The y axis never varies: must fail explicitly, not divide by zero.
	src := &sliceSource{samples: []mag.Sample{
		{Mx: 500, My: 42, Mz: -350},
		{Mx: -300, My: 42, Mz: 250},
	}}

	_, err := Calibrate(src, CalibrationOpts{Samples: 2, sleep: noSleep})
	if !errors.Is(err, ErrInsufficientMotion) {
		t.Fatalf("error = %v, want ErrInsufficientMotion", err)
	}
}

func TestCalibrateAbortsOnReadFailure(t *testing.T) {
	// Source yields one sample then fails; the second read must abort
	// the run rather than continue with partial data.
	readErr := errors.New("bus gone")
	src := &failAfter{
		src:   &sliceSource{samples: []mag.Sample{{Mx: 1, My: 2, Mz: 3}}},
		after: 1,
		err:   readErr,
	}

	_, err := Calibrate(src, CalibrationOpts{Samples: 10, sleep: noSleep})
	if !errors.Is(err, readErr) {
		t.Fatalf("error = %v, want wrapped %v", err, readErr)
	}
}

// failAfter passes through n reads then fails permanently.
type failAfter struct {
	src   mag.Source
	after int
	count int
	err   error
}

func (f *failAfter) ReadSample() (mag.Sample, error) {
	if f.count >= f.after {
		return mag.Sample{}, f.err
	}
	f.count++
	return f.src.ReadSample()
}

func TestCalibrateProgress(t *testing.T) {
	src := &sliceSource{samples: []mag.Sample{
		{Mx: 10, My: 20, Mz: 30},
		{Mx: -10, My: -20, Mz: -30},
	}}

	var calls int
	_, err := Calibrate(src, CalibrationOpts{
		Samples: 6,
		sleep:   noSleep,
		Progress: func(done, total int) {
			calls++
			if total != 6 {
				t.Errorf("progress total = %d, want 6", total)
			}
			if done != calls {
				t.Errorf("progress done = %d, want %d", done, calls)
			}
		},
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if calls != 6 {
		t.Errorf("progress called %d times, want 6", calls)
	}
}

func TestCalibrationApply(t *testing.T) {
	cal := Calibration{
		Bias:  [3]float64{0.15, 0.075, -0.075},
		Scale: [3]float64{0.75, 1.5, 1.0},
	}
	got := cal.Apply(mag.Sample{Mx: 500, My: 250, Mz: -350})
	want := [3]float64{
		(500*Sensitivity - 0.15) * 0.75,
		(250*Sensitivity - 0.075) * 1.5,
		(-350*Sensitivity + 0.075) * 1.0,
	}
	// The arithmetic carries float rounding; compare within an epsilon
	// rather than bit-exactly.
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Apply[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
