// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"fmt"
	"time"
)

// Default self-test run: two 50-sample averaging phases, 50 ms between
// reads, 100 ms settle after each CFG_REG_C write.
const (
	DefaultSelfTestSamples  = 50
	DefaultSelfTestInterval = 50 * time.Millisecond
	DefaultSelfTestSettle   = 100 * time.Millisecond
)

// The datasheet band a healthy part's differential response should
// fall inside, per axis, in milligauss.
const (
	SelfTestMinMG = 15.0
	SelfTestMaxMG = 500.0
)

// SelfTestOpts configures a self-test run. The zero value uses the
// defaults above.
type SelfTestOpts struct {
	Samples  int
	Interval time.Duration
	Settle   time.Duration
}

// SelfTestResult reports the per-axis averaged responses in counts and
// their differential in milligauss. The procedure is advisory only: it
// makes no pass/fail judgment, the operator compares Delta against the
// SelfTestMinMG..SelfTestMaxMG band.
type SelfTestResult struct {
	Baseline [3]float64 `json:"baseline_counts"`
	Test     [3]float64 `json:"test_counts"`
	Delta    [3]float64 `json:"delta_mg"`
}

// SelfTest runs the built-in diagnostic: average a baseline phase,
// enable the self-test bit and average a stimulated phase, then
// restore the original CFG_REG_C value. Phases are strictly
// sequential. Any read failure aborts the run after restoring the
// configuration.
func (d *Dev) SelfTest(opts SelfTestOpts) (SelfTestResult, error) {
	if opts.Samples == 0 {
		opts.Samples = DefaultSelfTestSamples
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultSelfTestInterval
	}
	if opts.Settle == 0 {
		opts.Settle = DefaultSelfTestSettle
	}

	var res SelfTestResult

	baseline, err := d.averageSamples(opts.Samples, opts.Interval)
	if err != nil {
		return res, fmt.Errorf("self-test baseline phase: %w", err)
	}
	res.Baseline = baseline

	cfgC, err := d.readReg(regCfgC)
	if err != nil {
		return res, err
	}
	if err := d.writeReg(regCfgC, cfgC|bitSelfTest); err != nil {
		return res, err
	}
	d.sleep(opts.Settle)

	test, stErr := d.averageSamples(opts.Samples, opts.Interval)

	// Restore the original configuration before reporting anything,
	// including a sampling failure.
	if err := d.writeReg(regCfgC, cfgC); err != nil {
		return res, err
	}
	d.sleep(opts.Settle)

	if stErr != nil {
		return res, fmt.Errorf("self-test stimulated phase: %w", stErr)
	}
	res.Test = test

	for i := range res.Delta {
		res.Delta[i] = (test[i] - baseline[i]) * Sensitivity * 1000.0
	}
	return res, nil
}

func (d *Dev) averageSamples(n int, interval time.Duration) ([3]float64, error) {
	var sum [3]int64
	for i := 0; i < n; i++ {
		s, err := d.ReadSample()
		if err != nil {
			return [3]float64{}, fmt.Errorf("sample %d/%d: %w", i+1, n, err)
		}
		sum[0] += int64(s.Mx)
		sum[1] += int64(s.My)
		sum[2] += int64(s.Mz)
		d.sleep(interval)
	}
	return [3]float64{
		float64(sum[0]) / float64(n),
		float64(sum[1]) / float64(n),
		float64(sum[2]) / float64(n),
	}, nil
}
