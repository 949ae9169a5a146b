package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mag_computer/internal/config"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDConsole
	if clientID == "" {
		clientID = "mag-console-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicMag := cfg.TopicMag
	if topicMag == "" {
		topicMag = "mag/raw"
	}
	topicTemp := cfg.TopicMagTemp
	if topicTemp == "" {
		topicTemp = "mag/temp"
	}

	// Subscribe to magnetometer readings
	magToken := client.Subscribe(topicMag, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p magPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: mag unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[MAG ]  mx=%6d my=%6d mz=%6d  bx=%8.4f by=%8.4f bz=%8.4f  |B|=%7.4f G\n",
			p.Mx, p.My, p.Mz, p.Bx, p.By, p.Bz, p.Norm,
		)
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("console: subscribed to %s", topicMag)

	// Subscribe to temperature
	tempToken := client.Subscribe(topicTemp, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p tempPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: temp unmarshal error: %v", err)
			return
		}

		// LIS2MDL temperature output is relative to 25 degC at 8 LSB/degC.
		fmt.Printf(
			"[TEMP]  raw=%6d  t=%5.1f°C\n",
			p.Raw, 25.0+float64(p.Raw)/8.0,
		)
	})
	tempToken.Wait()
	if tempToken.Error() != nil {
		return tempToken.Error()
	}
	log.Printf("console: subscribed to %s", topicTemp)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
