// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

// magPayload is the JSON schema we publish on the mag topic. mx,my,mz
// are raw counts; bx,by,bz and norm are in gauss via the fixed
// sensitivity. time is RFC3339.
type magPayload struct {
	Mx   int16   `json:"mx"`
	My   int16   `json:"my"`
	Mz   int16   `json:"mz"`
	Bx   float64 `json:"bx"`
	By   float64 `json:"by"`
	Bz   float64 `json:"bz"`
	Norm float64 `json:"norm"`
	Time string  `json:"time"`
}

type tempPayload struct {
	Raw  int16  `json:"raw"`
	Time string `json:"time"`
}

func RunMagProducer() error {
	log.Println("starting mag-channel producer")

	cfg := config.Get()

	src, err := sensors.NewMagSource()
	if err != nil {
		return err
	}
	defer src.Close()

	clientID := cfg.MQTTClientIDProducer
	if clientID == "" {
		clientID = "mag-producer"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	topic := cfg.TopicMag
	if topic == "" {
		topic = "mag/raw"
	}
	tempTopic := cfg.TopicMagTemp
	if tempTopic == "" {
		tempTopic = "mag/temp"
	}

	log.Printf("mag: connected to MQTT at %s, publishing on %s", cfg.MQTTBroker, topic)

	ticker := time.NewTicker(time.Duration(cfg.MagSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	tickCount := 0
	for t := range ticker.C {
		tickCount++

		// Readiness stays our responsibility: poll the status register
		// and skip the tick if no fresh sample is available.
		st, err := src.Dev.Status()
		if err != nil {
			log.Printf("mag: status read error: %v", err)
			continue
		}
		if st&lis2mdl.StatusDataReady == 0 {
			continue
		}
		if st&lis2mdl.StatusOverrun != 0 {
			log.Printf("mag: overrun, samples were dropped between reads")
		}

		s, err := src.ReadSample()
		if err != nil {
			log.Printf("mag: read error: %v", err)
			continue
		}

		bx := float64(s.Mx) * lis2mdl.Sensitivity
		by := float64(s.My) * lis2mdl.Sensitivity
		bz := float64(s.Mz) * lis2mdl.Sensitivity
		payload := magPayload{
			Mx:   s.Mx,
			My:   s.My,
			Mz:   s.Mz,
			Bx:   bx,
			By:   by,
			Bz:   bz,
			Norm: math.Sqrt(bx*bx + by*by + bz*bz),
			Time: t.UTC().Format(time.RFC3339),
		}
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("mag: marshal error: %v", err)
			continue
		}
		if token := client.Publish(topic, 0, true, b); token.Wait() && token.Error() != nil {
			log.Printf("mag: MQTT publish error: %v", token.Error())
			continue
		}

		// Temperature every 10th sample is plenty.
		if tickCount%10 == 0 {
			temp, err := src.Dev.ReadTemperature()
			if err != nil {
				log.Printf("mag: temperature read error: %v", err)
			} else if tb, err := json.Marshal(tempPayload{Raw: temp, Time: t.UTC().Format(time.RFC3339)}); err == nil {
				client.Publish(tempTopic, 0, true, tb)
			}

			log.Printf("%s tick: mag mx=%d my=%d mz=%d | |B|=%.3f G | temp=%d",
				t.Format(time.RFC3339), s.Mx, s.My, s.Mz, payload.Norm, temp)
		}
	}
	return nil
}
