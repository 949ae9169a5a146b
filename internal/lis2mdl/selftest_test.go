// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func sampleOp(x, y, z int16) i2ctest.IO {
	xl, xh := le(x)
	yl, yh := le(y)
	zl, zh := le(z)
	return i2ctest.IO{
		Addr: DefaultAddr,
		W:    []byte{regOutXL | burstFlag},
		R:    []byte{xl, xh, yl, yh, zl, zh},
	}
}

func TestSelfTest(t *testing.T) {
	const cfgC = 0x11 // BDU + DRDY, as left by Init
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			// Baseline phase: averages to (150, 250, -200).
			sampleOp(100, 200, -100),
			sampleOp(200, 300, -300),
			// Enable the self-test bit.
			{Addr: DefaultAddr, W: []byte{regCfgC}, R: []byte{cfgC}},
			{Addr: DefaultAddr, W: []byte{regCfgC, cfgC | 0x02}},
			// Stimulated phase: averages to (250, 450, -50).
			sampleOp(300, 500, 0),
			sampleOp(200, 400, -100),
			// Restore the original configuration byte exactly.
			{Addr: DefaultAddr, W: []byte{regCfgC, cfgC}},
		},
	}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	res, err := d.SelfTest(SelfTestOpts{Samples: 2, Interval: time.Millisecond, Settle: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("unconsumed bus ops: %v", err)
	}

	if res.Baseline != [3]float64{150, 250, -200} {
		t.Errorf("baseline = %v, want {150 250 -200}", res.Baseline)
	}
	if res.Test != [3]float64{250, 450, -50} {
		t.Errorf("test = %v, want {250 450 -50}", res.Test)
	}

	// Differential in milligauss, each axis computed independently.
	want := [3]float64{
		100 * Sensitivity * 1000.0,
		200 * Sensitivity * 1000.0,
		150 * Sensitivity * 1000.0,
	}
	if res.Delta != want {
		t.Errorf("delta = %v, want %v", res.Delta, want)
	}

	// Per-sample intervals (4) plus the settle after enable and after
	// restore (2).
	var settles int
	for _, dl := range delays {
		if dl == 5*time.Millisecond {
			settles++
		}
	}
	if settles != 2 {
		t.Errorf("settle delays = %d, want 2 (all delays: %v)", settles, delays)
	}
}

func TestSelfTestAbortsOnReadFailure(t *testing.T) {
	// Baseline read fails immediately; the error must propagate and no
	// configuration write may have been issued.
	pb := i2ctest.Playback{DontPanic: true}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	if _, err := d.SelfTest(SelfTestOpts{Samples: 1}); err == nil {
		t.Fatal("SelfTest returned no error on transport failure")
	}
}
