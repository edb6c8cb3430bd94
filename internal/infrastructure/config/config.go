package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Display   DisplayConfig
	Bus       BusConfig
	Apps      AppsConfig
	Logging   LogConfig
	Debug     DebugConfig
	RateLimit RateLimitConfig
}

// DisplayConfig describes the e-ink framebuffer.
type DisplayConfig struct {
	Device           string `envconfig:"FB_DEVICE" default:"/dev/fb0"`
	Width            int    `envconfig:"FB_WIDTH" default:"1404"`
	Height           int    `envconfig:"FB_HEIGHT" default:"1872"`
	Temperature      int    `envconfig:"FB_TEMP" default:"24"`
	CompressionLevel int    `envconfig:"FB_COMPRESSION" default:"6"`
	// FailureThreshold consecutive open failures suspend device access for Cooldown.
	FailureThreshold int           `envconfig:"FB_FAILURE_THRESHOLD" default:"3"`
	Cooldown         time.Duration `envconfig:"FB_COOLDOWN" default:"30s"`
}

// BusConfig holds IPC bus configuration.
type BusConfig struct {
	// Kind is "system", "session" or "none".
	Kind       string `envconfig:"BUS" default:"system"`
	Service    string `envconfig:"BUS_SERVICE" default:"org.appswitch"`
	Interface  string `envconfig:"BUS_INTERFACE" default:"org.appswitch.Application1"`
	PathPrefix string `envconfig:"BUS_PATH_PREFIX" default:"/org/appswitch/apps"`
}

// AppsConfig holds application registration settings.
type AppsConfig struct {
	ManifestDir   string        `envconfig:"APPS_DIR" default:"/opt/etc/appswitch.d"`
	Autostart     bool          `envconfig:"APPS_AUTOSTART" default:"true"`
	ShutdownGrace time.Duration `envconfig:"APPS_SHUTDOWN_GRACE" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// DebugConfig holds the debug HTTP surface configuration.
type DebugConfig struct {
	Addr        string   `envconfig:"DEBUG_ADDR" default:"127.0.0.1:8090"`
	Enabled     bool     `envconfig:"DEBUG_ENABLED" default:"false"`
	CORSOrigins []string `envconfig:"DEBUG_CORS_ORIGINS"`
}

// RateLimitConfig holds rate limiting configuration for the debug surface.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Device:           "/dev/fb0",
			Width:            1404,
			Height:           1872,
			Temperature:      24,
			CompressionLevel: 6,
			FailureThreshold: 3,
			Cooldown:         30 * time.Second,
		},
		Bus: BusConfig{
			Kind:       "system",
			Service:    "org.appswitch",
			Interface:  "org.appswitch.Application1",
			PathPrefix: "/org/appswitch/apps",
		},
		Apps: AppsConfig{
			ManifestDir:   "/opt/etc/appswitch.d",
			Autostart:     true,
			ShutdownGrace: 5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Debug: DebugConfig{
			Addr:    "127.0.0.1:8090",
			Enabled: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
