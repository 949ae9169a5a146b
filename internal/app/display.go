package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/mag_computer/internal/config"
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	mag      magPayload
	haveMag  bool
	temp     tempPayload
	haveTemp bool
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// Initialize display. The ssd1306 driver owns the bus address
	// (0x3C); only the update cadence is configurable.
	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	// Show splash screen
	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicMag := cfg.TopicMag
	if topicMag == "" {
		topicMag = "mag/raw"
	}
	topicTemp := cfg.TopicMagTemp
	if topicTemp == "" {
		topicTemp = "mag/temp"
	}

	magToken := client.Subscribe(topicMag, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p magPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("display: mag unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.mag = p
		data.haveMag = true
		data.mu.Unlock()
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("display: subscribed to %s", topicMag)

	tempToken := client.Subscribe(topicTemp, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p tempPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("display: temp unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.temp = p
		data.haveTemp = true
		data.mu.Unlock()
	})
	tempToken.Wait()
	if tempToken.Error() != nil {
		return tempToken.Error()
	}
	log.Printf("display: subscribed to %s", topicTemp)

	// Display update loop
	updateMs := cfg.DisplayUpdateInterval
	if updateMs == 0 {
		updateMs = 200
	}
	ticker := time.NewTicker(time.Duration(updateMs) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		// Read data without copying the mutex
		data.mu.RLock()
		snapshot := DisplayData{
			mag:      data.mag,
			haveMag:  data.haveMag,
			temp:     data.temp,
			haveTemp: data.haveTemp,
		}
		data.mu.RUnlock()

		if err := updateMagDisplay(display, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateMagDisplay(dev *ssd1306.Dev, data *DisplayData) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !data.haveMag {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Magnetometer"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("X:%6d", data.mag.Mx)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y:%6d", data.mag.My)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z:%6d", data.mag.Mz)))

		drawer.Dot = fixed.P(0, 52)
		if data.haveTemp {
			drawer.DrawBytes([]byte(fmt.Sprintf("|B|%5.3fG %4.1fC",
				data.mag.Norm, 25.0+float64(data.temp.Raw)/8.0)))
		} else {
			drawer.DrawBytes([]byte(fmt.Sprintf("|B| %.4f G", data.mag.Norm)))
		}
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Mag Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("field"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
