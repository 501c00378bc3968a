package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTopic           = "thing/product/+/osd"
	defaultClientID        = "skywatch-ingestd"
	defaultConnectAttempts = 30
	defaultConnectBackoff  = 1.0 // seconds
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
	Limits   LimitsConfig  `yaml:"limits"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SlogLevel maps the configured level name onto slog levels,
// defaulting to info.
func (s Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MQTTConfig represents broker connection settings
type MQTTConfig struct {
	Host                  string  `yaml:"host"`
	Port                  int     `yaml:"port"`
	Topic                 string  `yaml:"topic"`
	ClientID              string  `yaml:"clientId"`
	QoS                   int     `yaml:"qos"`
	ConnectAttempts       int     `yaml:"connectAttempts"`
	ConnectBackoffSeconds float64 `yaml:"connectBackoffSeconds"`
}

// ConnectBackoff returns the configured backoff as a duration.
func (c MQTTConfig) ConnectBackoff() time.Duration {
	return time.Duration(c.ConnectBackoffSeconds * float64(time.Second))
}

// LimitsConfig represents the danger thresholds
type LimitsConfig struct {
	MaxHeightM float64 `yaml:"maxHeightM"`
	MaxSpeedMs float64 `yaml:"maxSpeedMs"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if config.MQTT.Host == "" {
		return nil, fmt.Errorf("mqtt.host is required")
	}
	if config.MQTT.Port <= 0 {
		return nil, fmt.Errorf("mqtt.port is required")
	}
	if config.Storage.DBPath == "" {
		return nil, fmt.Errorf("storage.dbPath is required")
	}
	if config.Limits.MaxHeightM <= 0 {
		return nil, fmt.Errorf("limits.maxHeightM is required")
	}
	if config.Limits.MaxSpeedMs <= 0 {
		return nil, fmt.Errorf("limits.maxSpeedMs is required")
	}
	if config.MQTT.QoS < 0 || config.MQTT.QoS > 2 {
		return nil, fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}

	if config.MQTT.Topic == "" {
		config.MQTT.Topic = defaultTopic
	}
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = defaultClientID
	}
	if config.MQTT.ConnectAttempts <= 0 {
		config.MQTT.ConnectAttempts = defaultConnectAttempts
	}
	if config.MQTT.ConnectBackoffSeconds <= 0 {
		config.MQTT.ConnectBackoffSeconds = defaultConnectBackoff
	}

	return &config, nil
}
