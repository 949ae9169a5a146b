// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// CalibrationSession holds the state of an active guided calibration.
type CalibrationSession struct {
	Conn *websocket.Conn
	src  *sensors.MagSource
}

// CalibrationFile is the JSON document written when a run completes.
// The caller owns these coefficients; the driver itself keeps nothing.
type CalibrationFile struct {
	Version     int                 `json:"version"`
	Timestamp   time.Time           `json:"timestamp"`
	Calibration lis2mdl.Calibration `json:"calibration"`
	Confidence  float64             `json:"confidence"`
}

// WebSocket message types
type WSMessage struct {
	Action  string `json:"action"` // start, selftest, cancel
	Samples int    `json:"samples,omitempty"`
}

type WSResponse struct {
	Type     string      `json:"type"` // phase, progress, complete, selftest, error
	Phase    string      `json:"phase,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Results  interface{} `json:"results,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// HandleCalibrationWS handles the WebSocket connection for guided
// magnetometer calibration and self-test.
func HandleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &CalibrationSession{Conn: conn}
	defer session.closeSource()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("calibration: websocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "start":
			if err := session.runCalibration(msg.Samples); err != nil {
				session.sendError(err.Error())
			}

		case "selftest":
			if err := session.runSelfTest(); err != nil {
				session.sendError(err.Error())
			}

		case "cancel":
			log.Printf("calibration: cancelled by user")
			return

		default:
			session.sendError(fmt.Sprintf("unknown action %q", msg.Action))
		}
	}
}

func (s *CalibrationSession) source() (*sensors.MagSource, error) {
	if s.src != nil {
		return s.src, nil
	}
	src, err := sensors.NewMagSource()
	if err != nil {
		return nil, err
	}
	s.src = src
	return src, nil
}

func (s *CalibrationSession) closeSource() {
	if s.src != nil {
		s.src.Close()
		s.src = nil
	}
}

func (s *CalibrationSession) runCalibration(samples int) error {
	src, err := s.source()
	if err != nil {
		return err
	}

	cfg := config.Get()
	opts := lis2mdl.CalibrationOpts{
		Samples:  samples,
		Interval: time.Duration(cfg.CalSampleInterval) * time.Millisecond,
	}
	if opts.Samples == 0 {
		opts.Samples = cfg.CalSamples
	}

	s.sendPhase("capture")
	log.Printf("calibration: starting capture, rotate the device through all orientations")

	lastPct := -1
	opts.Progress = func(done, total int) {
		pct := done * 100 / total
		if pct != lastPct {
			lastPct = pct
			s.Conn.WriteJSON(WSResponse{Type: "progress", Progress: float64(pct)})
		}
	}

	cal, err := lis2mdl.Calibrate(src, opts)
	if err != nil {
		return err
	}

	result := CalibrationFile{
		Version:     1,
		Timestamp:   time.Now(),
		Calibration: cal,
		Confidence:  rangeConfidence(cal),
	}
	filename, err := writeCalibrationFile(result)
	if err != nil {
		return err
	}

	s.sendPhase("done")
	return s.Conn.WriteJSON(WSResponse{
		Type: "complete",
		Results: map[string]interface{}{
			"filename":    filename,
			"calibration": cal,
			"confidence":  result.Confidence,
		},
	})
}

func (s *CalibrationSession) runSelfTest() error {
	src, err := s.source()
	if err != nil {
		return err
	}

	cfg := config.Get()
	opts := lis2mdl.SelfTestOpts{
		Samples:  cfg.SelfTestSamples,
		Interval: time.Duration(cfg.SelfTestSampleInterval) * time.Millisecond,
		Settle:   time.Duration(cfg.SelfTestSettle) * time.Millisecond,
	}

	s.sendPhase("selftest")
	res, err := src.Dev.SelfTest(opts)
	if err != nil {
		return err
	}

	return s.Conn.WriteJSON(WSResponse{
		Type: "selftest",
		Results: map[string]interface{}{
			"delta_mg": res.Delta,
			"band_mg":  [2]float64{lis2mdl.SelfTestMinMG, lis2mdl.SelfTestMaxMG},
		},
	})
}

// rangeConfidence scores coverage balance across axes: 100 when all
// three half-ranges are equal, dropping toward 0 as one axis lags.
func rangeConfidence(cal lis2mdl.Calibration) float64 {
	var ranges [3]float64
	for i := range ranges {
		ranges[i] = float64(int32(cal.Max[i]) - int32(cal.Min[i]))
	}
	minR := math.Min(ranges[0], math.Min(ranges[1], ranges[2]))
	maxR := math.Max(ranges[0], math.Max(ranges[1], ranges[2]))
	if maxR <= 0 {
		return 0
	}
	return minR / maxR * 100.0
}

func writeCalibrationFile(result CalibrationFile) (string, error) {
	filename := fmt.Sprintf("mag_%d_calibration.json", time.Now().Unix())

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal calibration results: %w", err)
	}

	path := filepath.Join(cwd, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write calibration file: %w", err)
	}

	log.Printf("calibration: saved results to %s", path)
	return filename, nil
}

func (s *CalibrationSession) sendPhase(phase string) {
	s.Conn.WriteJSON(WSResponse{
		Type:  "phase",
		Phase: phase,
	})
}

func (s *CalibrationSession) sendError(message string) {
	s.Conn.WriteJSON(WSResponse{
		Type:    "error",
		Message: message,
	})
}
