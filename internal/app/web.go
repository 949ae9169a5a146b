package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mag_computer/internal/config"
)

func RunWeb() error {
	cfg := config.Get()

	var (
		mu       sync.RWMutex
		lastMag  magPayload
		haveMag  bool
		lastTemp tempPayload
		haveTemp bool
	)

	// 1) Connect to MQTT broker on the Pi
	clientID := cfg.MQTTClientIDWeb
	if clientID == "" {
		clientID = "mag-web-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	topicMag := cfg.TopicMag
	if topicMag == "" {
		topicMag = "mag/raw"
	}
	topicTemp := cfg.TopicMagTemp
	if topicTemp == "" {
		topicTemp = "mag/temp"
	}

	// 2) Subscribe and keep the latest reading for the API
	magToken := client.Subscribe(topicMag, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p magPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastMag = p
		haveMag = true
		mu.Unlock()
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("subscribed to MQTT topic %s", topicMag)

	tempToken := client.Subscribe(topicTemp, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p tempPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastTemp = p
		haveTemp = true
		mu.Unlock()
	})
	tempToken.Wait()
	if tempToken.Error() != nil {
		return tempToken.Error()
	}
	log.Printf("subscribed to MQTT topic %s", topicTemp)

	// 3) JSON API endpoints: latest readings
	http.HandleFunc("/api/mag", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveMag {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastMag); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/temperature", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveTemp {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastTemp); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) WebSocket endpoints for guided calibration and register debug
	http.HandleFunc("/ws/calibration", HandleCalibrationWS)
	http.HandleFunc("/ws/register-debug", HandleRegisterDebugWS)

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
