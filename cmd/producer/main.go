package main

import (
	"encoding/json"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

// Mock producer: publishes synthetic magnetometer samples so the
// consumers (console, display, web) can run without hardware.
func main() {
	log.Println("starting mag-computer MQTT producer (mock)")

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://localhost:1883").
		SetClientID("mag-producer-mock")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
	}
	defer client.Disconnect(250)

	src := mag.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		s, err := src.ReadSample()
		if err != nil {
			log.Printf("error from mock source: %v", err)
			continue
		}

		bx := float64(s.Mx) * lis2mdl.Sensitivity
		by := float64(s.My) * lis2mdl.Sensitivity
		bz := float64(s.Mz) * lis2mdl.Sensitivity

		payload, err := json.Marshal(map[string]interface{}{
			"mx":   s.Mx,
			"my":   s.My,
			"mz":   s.Mz,
			"bx":   bx,
			"by":   by,
			"bz":   bz,
			"norm": math.Sqrt(bx*bx + by*by + bz*bz),
			"time": t.Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("json marshal error: %v", err)
			continue
		}

		token := client.Publish("mag/raw", 0, true, payload)
		token.Wait()

		log.Printf("%s published sample: %+v", t.Format(time.RFC3339), s)
	}
}
