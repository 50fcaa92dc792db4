package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm_terminal.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, "$CS", cfg.Handshake)
	assert.Zero(t, cfg.ResponseTimeout)
	assert.Empty(t, cfg.MQTTBroker)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
# Swarm M138 on the recovery board
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD_RATE = 9600
SERIAL_DATA_BITS=7
SERIAL_STOP_BITS=2
SERIAL_PARITY=E
SERIAL_DRIVER=bugst

RESPONSE_TIMEOUT_MS=1500
HANDSHAKE=$CS
HANDSHAKE_READ_REPLY=true
PROMPT="swarm> "

MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_TERMINAL=bench-terminal
MQTT_CLIENT_ID_MONITOR=bench-monitor
TOPIC_TRANSCRIPT=bench/swarm
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		SerialPort:           "/dev/ttyUSB0",
		SerialBaudRate:       9600,
		SerialDataBits:       7,
		SerialStopBits:       2,
		SerialParity:         "E",
		SerialDriver:         "bugst",
		ResponseTimeout:      1500 * time.Millisecond,
		Handshake:            "$CS",
		HandshakeReply:       true,
		Prompt:               "swarm> ",
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDTerminal: "bench-terminal",
		MQTTClientIDMonitor:  "bench-monitor",
		TopicTranscript:      "bench/swarm",
	}, cfg)
}

func TestLoad_EmptyHandshakeDisablesIt(t *testing.T) {
	cfg, err := Load(writeConfig(t, "HANDSHAKE=\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Handshake)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing equals", "SERIAL_PORT\n", `invalid config line 1: "SERIAL_PORT"`},
		{"unknown key", "# c\nGPS_BAUD_RATE=9600\n", `config line 2: unknown config key: "GPS_BAUD_RATE"`},
		{"bad baud", "SERIAL_BAUD_RATE=fast\n", "invalid SERIAL_BAUD_RATE"},
		{"zero baud", "SERIAL_BAUD_RATE=0\n", "SERIAL_BAUD_RATE must be positive"},
		{"data bits", "SERIAL_DATA_BITS=9\n", "SERIAL_DATA_BITS must be 5-8"},
		{"stop bits", "SERIAL_STOP_BITS=3\n", "SERIAL_STOP_BITS must be 1 or 2"},
		{"timeout", "RESPONSE_TIMEOUT_MS=-1\n", "must not be negative"},
		{"handshake reply", "HANDSHAKE_READ_REPLY=maybe\n", "invalid HANDSHAKE_READ_REPLY"},
		{"topic", "MQTT_BROKER=tcp://localhost:1883\nTOPIC_TRANSCRIPT=\n", "TOPIC_TRANSCRIPT is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to open config file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitGlobal(t *testing.T) {
	path := writeConfig(t, "SERIAL_PORT=/dev/ttyAMA0\n")
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "/dev/ttyAMA0", Get().SerialPort)

	// later calls do not reload
	require.NoError(t, InitGlobal(""))
	assert.Equal(t, "/dev/ttyAMA0", Get().SerialPort)
}
