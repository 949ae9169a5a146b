// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// ./cmd/calibration/main.go
//
// Guided calibration for the LIS2MDL magnetometer in this project.
// The device is rotated slowly through all orientations while raw
// samples are captured; per-axis extrema give a hard-iron offset and
// a diagonal soft-iron scale (min/max method).
//
// Output:
//
//	Writes a JSON file in the working directory including calibration
//	date/time and quality/confidence.
//
// Run:
//
//	go run ./cmd/calibration
//
// Notes / assumptions:
//   - The min/max ellipsoid approximation (offset + diagonal scale) is
//     robust and easy, though not as accurate as a full 3x3 ellipsoid fit.
//   - Bias is stored in gauss, scale is dimensionless; apply as
//     corrected = (raw * sensitivity - bias) * scale.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

const (
	// Confidence floor (we never want hard zero unless we error out)
	confFloor = 0.05
)

// ---------- Data model (JSON output) ----------

type CalibrationResult struct {
	SchemaVersion int    `json:"schema_version"`
	CalibrationAt string `json:"calibration_at"` // RFC3339

	Calibration lis2mdl.Calibration `json:"calibration"`

	// Confidence components and overall
	Confidence struct {
		Coverage   float64 `json:"coverage"`
		Sphericity float64 `json:"sphericity"`
		Overall    float64 `json:"overall"`
	} `json:"confidence"`

	Notes []string `json:"notes,omitempty"`
}

// recordingSource keeps every sample it hands out so quality metrics
// can be computed after the capture.
type recordingSource struct {
	src     mag.Source
	samples []mag.Sample
}

func (r *recordingSource) ReadSample() (mag.Sample, error) {
	s, err := r.src.ReadSample()
	if err != nil {
		return mag.Sample{}, err
	}
	r.samples = append(r.samples, s)
	return s, nil
}

// ---------- Main ----------

func main() {
	in := bufio.NewReader(os.Stdin)

	// Parse command-line flags
	configPath := flag.String("config", "mag_config.txt", "Path to configuration file")
	mock := flag.Bool("mock", false, "Use a synthetic magnetometer instead of hardware")
	samples := flag.Int("samples", 0, "Sample count override (0 = use config / default)")
	flag.Parse()

	fmt.Println("=== Guided Magnetometer Calibration ===")
	fmt.Println("This workflow will prompt you in the console and store results in a JSON file.")
	fmt.Println()

	// Initialize configuration
	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := config.Get()

	var src mag.Source
	if *mock {
		fmt.Println("Using synthetic magnetometer (no hardware access).")
		src = mag.NewMockSource()
	} else {
		hw, err := sensors.NewMagSource()
		if err != nil {
			fatal(err)
		}
		defer hw.Close()
		src = hw
	}

	opts := lis2mdl.CalibrationOpts{
		Samples:  *samples,
		Interval: time.Duration(cfg.CalSampleInterval) * time.Millisecond,
	}
	if opts.Samples == 0 {
		opts.Samples = cfg.CalSamples
	}
	if opts.Samples == 0 {
		opts.Samples = lis2mdl.DefaultCalibrationSamples
	}
	if opts.Interval == 0 {
		opts.Interval = lis2mdl.DefaultCalibrationInterval
	}

	total := time.Duration(opts.Samples) * opts.Interval
	fmt.Printf("Capture: %d samples, one every %v (about %v total).\n", opts.Samples, opts.Interval, total.Round(time.Second))
	fmt.Println("Rotate the device slowly through all orientations (3D).")
	fmt.Println("Move away from large metal objects and power cables if possible.")
	fmt.Println()
	waitEnter(in, "Press ENTER to start the capture...")

	rec := &recordingSource{src: src}
	lastPct := -1
	opts.Progress = func(done, totalN int) {
		pct := done * 100 / totalN
		if pct != lastPct && pct%10 == 0 {
			lastPct = pct
			fmt.Printf("  ... %3d%% (%d/%d samples)\n", pct, done, totalN)
		}
	}

	cal, err := lis2mdl.Calibrate(rec, opts)
	if errors.Is(err, lis2mdl.ErrInsufficientMotion) {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		fmt.Fprintln(os.Stderr, "Rotate more in 3D and move away from metal, then retry.")
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}

	res := CalibrationResult{
		SchemaVersion: 1,
		CalibrationAt: time.Now().Format(time.RFC3339),
		Calibration:   cal,
	}
	res.Confidence.Coverage = coverageConfidence(cal)
	res.Confidence.Sphericity = sphericityConfidence(rec.samples, cal)
	res.Confidence.Overall = clamp01(0.55*res.Confidence.Coverage + 0.45*res.Confidence.Sphericity)
	if res.Confidence.Overall < confFloor {
		res.Confidence.Overall = confFloor
	}

	fmt.Printf("\nBias (gauss):  X=%.5f Y=%.5f Z=%.5f\n", cal.Bias[0], cal.Bias[1], cal.Bias[2])
	fmt.Printf("Scale:         X=%.3f Y=%.3f Z=%.3f\n", cal.Scale[0], cal.Scale[1], cal.Scale[2])
	fmt.Printf("Confidence:    coverage=%.2f sphericity=%.2f overall=%.2f\n",
		res.Confidence.Coverage, res.Confidence.Sphericity, res.Confidence.Overall)

	if err := writeResult(res); err != nil {
		fatal(err)
	}

	fmt.Println("\nCalibration complete.")
}

// ---------- Confidence heuristics ----------

// coverageConfidence encourages balanced excitation across axes.
func coverageConfidence(cal lis2mdl.Calibration) float64 {
	var halves [3]float64
	for i := range halves {
		halves[i] = float64(int32(cal.Max[i])-int32(cal.Min[i])) / 2
	}
	m := (halves[0] + halves[1] + halves[2]) / 3
	if m <= 0 {
		return confFloor
	}
	cv := std3(halves[0], halves[1], halves[2]) / m
	return clamp01(1.0 - (cv / 0.7))
}

// sphericityConfidence applies the correction to the captured samples
// and checks how constant the resulting field norm is. Full 3D
// coverage with a good fit gives near-constant norms.
func sphericityConfidence(samples []mag.Sample, cal lis2mdl.Calibration) float64 {
	if len(samples) < 50 {
		return confFloor
	}
	norms := make([]float64, 0, len(samples))
	for _, s := range samples {
		v := cal.Apply(s)
		norms = append(norms, math.Sqrt(v[0]*v[0]+v[1]*v[1]+v[2]*v[2]))
	}
	mean, sd := meanStd(norms)
	if mean <= 0 {
		return confFloor
	}
	cv := sd / mean
	// map: cv 0.05 -> ~0.9, cv 0.15 -> ~0.7, cv 0.35 -> ~0.3
	return clamp01(1.0 - (cv / 0.5))
}

// ---------- Output ----------

func writeResult(res CalibrationResult) error {
	ts := time.Now().Format("2006-01-02T15-04-05Z07-00")
	name := fmt.Sprintf("mag_%s_calibration.json", ts)

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return err
	}
	fmt.Printf("\nWrote: %s\n", name)
	return nil
}

// ---------- Console helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}

// ---------- Small math helpers ----------

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func meanStd(xs []float64) (mean float64, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	var s float64
	for _, v := range xs {
		d := v - mean
		s += d * d
	}
	sd = math.Sqrt(s / float64(len(xs)))
	return mean, sd
}

func std3(a, b, c float64) float64 {
	m := (a + b + c) / 3
	return math.Sqrt(((a-m)*(a-m) + (b-m)*(b-m) + (c-m)*(c-m)) / 3)
}
