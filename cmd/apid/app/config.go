package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skywatch/skywatch/internal/api"
)

const (
	defaultListenAddr     = ":8080"
	defaultTokenTTL       = 24 * time.Hour
	defaultOnlineWindow   = 60 // seconds
	defaultNearbyRadiusKm = 5.0
	defaultRateBurst      = 20
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Server   ServerConfig  `yaml:"server"`
	Auth     AuthConfig    `yaml:"auth"`
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

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	ListenAddr          string   `yaml:"listenAddr"`
	OnlineWindowSeconds int      `yaml:"onlineWindowSeconds"`
	NearbyRadiusKm      float64  `yaml:"nearbyRadiusKm"`
	RateLimitPerSecond  float64  `yaml:"rateLimitPerSecond"`
	RateBurst           int      `yaml:"rateBurst"`
	CORSOrigins         []string `yaml:"corsOrigins"`
}

// AuthConfig represents token signing settings and the static user set
type AuthConfig struct {
	JWTSecret       string       `yaml:"jwtSecret"`
	TokenTTLMinutes int          `yaml:"tokenTTLMinutes"`
	Users           []UserConfig `yaml:"users"`
}

// UserConfig is one static API account. PasswordHash is a bcrypt hash;
// `seed -hash` generates one.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"passwordHash"`
	Role         string `yaml:"role"`
}

// TokenTTL returns the configured token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLMinutes <= 0 {
		return defaultTokenTTL
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// APIConfig converts the server settings into the api package's Config.
func (c ServerConfig) APIConfig() api.Config {
	return api.Config{
		OnlineWindow:   time.Duration(c.OnlineWindowSeconds) * time.Second,
		NearbyRadiusKm: c.NearbyRadiusKm,
		RateLimit:      c.RateLimitPerSecond,
		RateBurst:      c.RateBurst,
		CORSOrigins:    c.CORSOrigins,
	}
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

	if config.Storage.DBPath == "" {
		return nil, fmt.Errorf("storage.dbPath is required")
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}
	for i, u := range config.Auth.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("auth.users[%d]: username and passwordHash are required", i)
		}
		if u.Role != api.RoleAdmin && u.Role != api.RoleViewer {
			return nil, fmt.Errorf("auth.users[%d]: unknown role %q", i, u.Role)
		}
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = defaultListenAddr
	}
	if config.Server.OnlineWindowSeconds <= 0 {
		config.Server.OnlineWindowSeconds = defaultOnlineWindow
	}
	if config.Server.NearbyRadiusKm <= 0 {
		config.Server.NearbyRadiusKm = defaultNearbyRadiusKm
	}
	if config.Server.RateLimitPerSecond > 0 && config.Server.RateBurst <= 0 {
		config.Server.RateBurst = defaultRateBurst
	}

	return &config, nil
}
