package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
mqtt:
  host: broker.local
  port: 1883
limits:
  maxHeightM: 500
  maxSpeedMs: 10
storage:
  dbPath: /var/lib/skywatch/skywatch.sqlite
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Settings.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", config.Settings.SlogLevel())
	}
	if config.MQTT.Topic != defaultTopic {
		t.Errorf("topic = %q, want default %q", config.MQTT.Topic, defaultTopic)
	}
	if config.MQTT.ConnectAttempts != defaultConnectAttempts {
		t.Errorf("connectAttempts = %d, want %d", config.MQTT.ConnectAttempts, defaultConnectAttempts)
	}
	if config.MQTT.ConnectBackoff() != time.Second {
		t.Errorf("connectBackoff = %v, want 1s", config.MQTT.ConnectBackoff())
	}
	if config.Limits.MaxHeightM != 500 {
		t.Errorf("maxHeightM = %v", config.Limits.MaxHeightM)
	}
}

func TestLoadConfig_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing host", "mqtt:\n  port: 1883\nlimits:\n  maxHeightM: 500\n  maxSpeedMs: 10\nstorage:\n  dbPath: x\n"},
		{"missing limits", "mqtt:\n  host: h\n  port: 1883\nstorage:\n  dbPath: x\n"},
		{"missing storage", "mqtt:\n  host: h\n  port: 1883\nlimits:\n  maxHeightM: 500\n  maxSpeedMs: 10\n"},
		{"bad qos", "mqtt:\n  host: h\n  port: 1883\n  qos: 3\nlimits:\n  maxHeightM: 500\n  maxSpeedMs: 10\nstorage:\n  dbPath: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfig() = nil, want error")
			}
		})
	}
}

func TestLoadConfig_SlogLevelDefault(t *testing.T) {
	s := Settings{LogLevel: "nonsense"}
	if s.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info", s.SlogLevel())
	}
}
