package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string
	MQTTClientIDWeb      string

	// Topics
	TopicMag     string
	TopicMagTemp string

	// Magnetometer hardware
	MagI2CBus  string // periph bus name, e.g. "1" or "/dev/i2c-1"
	MagI2CAddr uint16
	// Output data rate code: 0=10Hz, 1=20Hz, 2=50Hz, 3=100Hz
	MagODR     byte
	MagDRDYPin string // optional GPIO name for the DRDY interrupt line

	// Timing
	MagSampleInterval int // milliseconds

	// Calibration run parameters (zero means driver defaults)
	CalSamples        int
	CalSampleInterval int // milliseconds

	// Self-test run parameters (zero means driver defaults)
	SelfTestSamples        int
	SelfTestSampleInterval int // milliseconds
	SelfTestSettle         int // milliseconds

	// Display
	DisplayUpdateInterval int // milliseconds

	// Web server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_MAG_TEMP":
		c.TopicMagTemp = value

	// Magnetometer hardware
	case "MAG_I2C_BUS":
		c.MagI2CBus = value
	case "MAG_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid MAG_I2C_ADDR %q: %w", value, err)
		}
		c.MagI2CAddr = uint16(addr)
	case "MAG_ODR":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_ODR %q: %w", value, err)
		}
		if val < 0 || val > 3 {
			return fmt.Errorf("MAG_ODR must be 0-3 (0=10Hz, 1=20Hz, 2=50Hz, 3=100Hz), got %d", val)
		}
		c.MagODR = byte(val)
	case "MAG_DRDY_PIN":
		c.MagDRDYPin = value

	// Timing
	case "MAG_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.MagSampleInterval = interval

	// Calibration
	case "CAL_SAMPLES":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAL_SAMPLES %q: %w", value, err)
		}
		if val < 0 {
			return fmt.Errorf("CAL_SAMPLES must be positive, got %d", val)
		}
		c.CalSamples = val
	case "CAL_SAMPLE_INTERVAL":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAL_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.CalSampleInterval = val

	// Self-test
	case "SELFTEST_SAMPLES":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SELFTEST_SAMPLES %q: %w", value, err)
		}
		c.SelfTestSamples = val
	case "SELFTEST_SAMPLE_INTERVAL":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SELFTEST_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SelfTestSampleInterval = val
	case "SELFTEST_SETTLE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SELFTEST_SETTLE %q: %w", value, err)
		}
		c.SelfTestSettle = val

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MagSampleInterval <= 0 {
		return fmt.Errorf("MAG_SAMPLE_INTERVAL is required and must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
