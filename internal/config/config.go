package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Serial link
	SerialPort     string
	SerialBaudRate int
	SerialDataBits int
	SerialStopBits int
	SerialParity   string
	SerialDriver   string // "jacobsa" or "bugst"

	// Session
	ResponseTimeout time.Duration // 0 waits forever
	Handshake       string        // sent once at start, empty disables
	HandshakeReply  bool          // read one reply line after the handshake
	Prompt          string

	// MQTT transcript mirror, disabled when MQTTBroker is empty
	MQTTBroker           string
	MQTTClientIDTerminal string
	MQTTClientIDMonitor  string
	TopicTranscript      string
}

// Package-level config shared by the cmd tools once loaded:
//   - globalConfig: set only through InitGlobal.
//   - configOnce: InitGlobal runs once even if called repeatedly.
//   - configMu: guards globalConfig for readers on other goroutines.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SerialBaudRate:       115200,
		SerialDataBits:       8,
		SerialStopBits:       1,
		SerialParity:         "N",
		SerialDriver:         "jacobsa",
		Handshake:            "$CS",
		Prompt:               "Command: ",
		MQTTClientIDTerminal: "swarm-terminal",
		MQTTClientIDMonitor:  "swarm-transcript-monitor",
		TopicTranscript:      "swarm/transcript",
	}
}

// Load reads the configuration file on top of Default. An empty path
// returns the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

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
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate
	case "SERIAL_DATA_BITS":
		bits, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_DATA_BITS %q: %w", value, err)
		}
		if bits < 5 || bits > 8 {
			return fmt.Errorf("SERIAL_DATA_BITS must be 5-8, got %d", bits)
		}
		c.SerialDataBits = bits
	case "SERIAL_STOP_BITS":
		bits, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_STOP_BITS %q: %w", value, err)
		}
		if bits != 1 && bits != 2 {
			return fmt.Errorf("SERIAL_STOP_BITS must be 1 or 2, got %d", bits)
		}
		c.SerialStopBits = bits
	case "SERIAL_PARITY":
		c.SerialParity = value
	case "SERIAL_DRIVER":
		c.SerialDriver = value

	// Session
	case "RESPONSE_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RESPONSE_TIMEOUT_MS %q: %w", value, err)
		}
		if ms < 0 {
			return fmt.Errorf("RESPONSE_TIMEOUT_MS must not be negative, got %d", ms)
		}
		c.ResponseTimeout = time.Duration(ms) * time.Millisecond
	case "HANDSHAKE":
		c.Handshake = value
	case "HANDSHAKE_READ_REPLY":
		read, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid HANDSHAKE_READ_REPLY %q: %w", value, err)
		}
		c.HandshakeReply = read
	case "PROMPT":
		c.Prompt = strings.Trim(value, `"`)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TERMINAL":
		c.MQTTClientIDTerminal = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "TOPIC_TRANSCRIPT":
		c.TopicTranscript = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.MQTTBroker != "" && c.TopicTranscript == "" {
		return errors.New("TOPIC_TRANSCRIPT is required when MQTT_BROKER is set")
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
