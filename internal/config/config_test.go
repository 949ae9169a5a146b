package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mag_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# magnetometer channel config
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=mag-producer
TOPIC_MAG=mag/raw
MAG_I2C_BUS=1
MAG_I2C_ADDR=0x1E
MAG_ODR=3
MAG_DRDY_PIN=GPIO17
MAG_SAMPLE_INTERVAL=100
CAL_SAMPLES=4000
CAL_SAMPLE_INTERVAL=12
SELFTEST_SAMPLES=50
WEB_SERVER_PORT=8080
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", cfg.MQTTBroker)
	}
	if cfg.MagI2CAddr != 0x1E {
		t.Errorf("MagI2CAddr = 0x%X, want 0x1E", cfg.MagI2CAddr)
	}
	if cfg.MagODR != 3 {
		t.Errorf("MagODR = %d, want 3", cfg.MagODR)
	}
	if cfg.MagDRDYPin != "GPIO17" {
		t.Errorf("MagDRDYPin = %q", cfg.MagDRDYPin)
	}
	if cfg.CalSamples != 4000 || cfg.CalSampleInterval != 12 {
		t.Errorf("calibration params = %d/%d", cfg.CalSamples, cfg.CalSampleInterval)
	}
	if cfg.WebServerPort != 8080 {
		t.Errorf("WebServerPort = %d", cfg.WebServerPort)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://x\nMAG_SAMPLE_INTERVAL=100\nBOGUS_KEY=1\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "BOGUS_KEY") {
		t.Fatalf("Load error = %v, want unknown key error", err)
	}
}

func TestLoadRejectsBadODR(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://x\nMAG_SAMPLE_INTERVAL=100\nMAG_ODR=7\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "MAG_ODR") {
		t.Fatalf("Load error = %v, want MAG_ODR range error", err)
	}
}

func TestLoadRequiresBroker(t *testing.T) {
	path := writeConfig(t, "MAG_SAMPLE_INTERVAL=100\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "MQTT_BROKER") {
		t.Fatalf("Load error = %v, want MQTT_BROKER required", err)
	}
}

func TestLoadRequiresSampleInterval(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://x\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "MAG_SAMPLE_INTERVAL") {
		t.Fatalf("Load error = %v, want MAG_SAMPLE_INTERVAL required", err)
	}
}

func TestLoadRejectsNegativeSampleInterval(t *testing.T) {
	// A negative interval would panic the producer's ticker.
	path := writeConfig(t, "MQTT_BROKER=tcp://x\nMAG_SAMPLE_INTERVAL=-5\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "MAG_SAMPLE_INTERVAL") {
		t.Fatalf("Load error = %v, want MAG_SAMPLE_INTERVAL rejection", err)
	}
}
