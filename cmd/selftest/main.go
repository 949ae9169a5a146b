// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// ./cmd/selftest/main.go
//
// Runs the LIS2MDL built-in self-test: averages the ambient field,
// enables the test stimulus, averages again and reports the per-axis
// delta. ST datasheet gives 15-500 mgauss as the expected excursion;
// the verdict here is advisory, the deltas are the real output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

func main() {
	configPath := flag.String("config", "mag_config.txt", "Path to configuration file")
	flag.Parse()

	log.Println("starting LIS2MDL self-test")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	src, err := sensors.NewMagSource()
	if err != nil {
		log.Fatalf("failed to open magnetometer: %v", err)
	}
	defer src.Close()

	opts := lis2mdl.SelfTestOpts{
		Samples:  cfg.SelfTestSamples,
		Interval: time.Duration(cfg.SelfTestSampleInterval) * time.Millisecond,
		Settle:   time.Duration(cfg.SelfTestSettle) * time.Millisecond,
	}

	fmt.Println("Keep the device still; the test takes a few seconds.")
	res, err := src.Dev.SelfTest(opts)
	if err != nil {
		log.Fatalf("self-test failed: %v", err)
	}

	fmt.Printf("\nBaseline (counts): X=%8.1f Y=%8.1f Z=%8.1f\n", res.Baseline[0], res.Baseline[1], res.Baseline[2])
	fmt.Printf("Stimulus (counts): X=%8.1f Y=%8.1f Z=%8.1f\n", res.Test[0], res.Test[1], res.Test[2])
	fmt.Println()

	pass := true
	axes := [3]string{"X", "Y", "Z"}
	for i, name := range axes {
		d := res.Delta[i]
		verdict := "OK"
		if d < lis2mdl.SelfTestMinMG || d > lis2mdl.SelfTestMaxMG {
			verdict = "OUT OF BAND"
			pass = false
		}
		fmt.Printf("Axis %s: delta=%8.2f mgauss  (band %.0f-%.0f)  %s\n",
			name, d, lis2mdl.SelfTestMinMG, lis2mdl.SelfTestMaxMG, verdict)
	}

	fmt.Println()
	if pass {
		fmt.Println("Self-test PASSED on all axes.")
		return
	}
	fmt.Println("Self-test reported out-of-band axes. Check mounting, nearby magnets and supply noise.")
	os.Exit(1)
}
