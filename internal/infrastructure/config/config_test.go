package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Display config
	assert.Equal(t, "/dev/fb0", cfg.Display.Device)
	assert.Equal(t, 1404, cfg.Display.Width)
	assert.Equal(t, 1872, cfg.Display.Height)
	assert.Equal(t, 0x18, cfg.Display.Temperature)

	// Bus config
	assert.Equal(t, "system", cfg.Bus.Kind)
	assert.Equal(t, "org.appswitch.Application1", cfg.Bus.Interface)
	assert.Equal(t, "/org/appswitch/apps", cfg.Bus.PathPrefix)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Debug surface is opt-in
	assert.False(t, cfg.Debug.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	for _, key := range []string{"FB_DEVICE", "FB_WIDTH", "FB_HEIGHT", "BUS", "LOG_LEVEL", "DEBUG_ENABLED"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"FB_DEVICE":           "/dev/fb1",
		"FB_WIDTH":            "1620",
		"FB_HEIGHT":           "2160",
		"FB_TEMP":             "32",
		"BUS":                 "session",
		"BUS_INTERFACE":       "org.example.App",
		"APPS_DIR":            "/etc/apps",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"DEBUG_ENABLED":       "true",
		"DEBUG_ADDR":          "0.0.0.0:9000",
		"DEBUG_CORS_ORIGINS":  "http://a.local,http://b.local",
		"APPS_SHUTDOWN_GRACE": "2s",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/dev/fb1", cfg.Display.Device)
	assert.Equal(t, 1620, cfg.Display.Width)
	assert.Equal(t, 2160, cfg.Display.Height)
	assert.Equal(t, 32, cfg.Display.Temperature)

	assert.Equal(t, "session", cfg.Bus.Kind)
	assert.Equal(t, "org.example.App", cfg.Bus.Interface)

	assert.Equal(t, "/etc/apps", cfg.Apps.ManifestDir)
	assert.Equal(t, 2*time.Second, cfg.Apps.ShutdownGrace)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.Debug.Addr)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Debug.CORSOrigins)
}

func TestLoadInvalidValue(t *testing.T) {
	require.NoError(t, os.Setenv("FB_WIDTH", "wide"))
	defer os.Unsetenv("FB_WIDTH")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 1404, cfg.Display.Width)
}

func TestBusConfig(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		prefix     string
		wantKind   string
		wantPrefix string
	}{
		{
			name:       "default values",
			wantKind:   "system",
			wantPrefix: "/org/appswitch/apps",
		},
		{
			name:       "session bus",
			kind:       "session",
			wantKind:   "session",
			wantPrefix: "/org/appswitch/apps",
		},
		{
			name:       "no bus with custom prefix",
			kind:       "none",
			prefix:     "/apps",
			wantKind:   "none",
			wantPrefix: "/apps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("BUS")
			os.Unsetenv("BUS_PATH_PREFIX")

			if tt.kind != "" {
				require.NoError(t, os.Setenv("BUS", tt.kind))
				defer os.Unsetenv("BUS")
			}
			if tt.prefix != "" {
				require.NoError(t, os.Setenv("BUS_PATH_PREFIX", tt.prefix))
				defer os.Unsetenv("BUS_PATH_PREFIX")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantKind, cfg.Bus.Kind)
			assert.Equal(t, tt.wantPrefix, cfg.Bus.PathPrefix)
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{
			name:      "default values",
			wantLevel: "info",
			wantDev:   false,
		},
		{
			name:      "debug level",
			level:     "debug",
			wantLevel: "debug",
			wantDev:   false,
		},
		{
			name:      "development mode",
			dev:       "true",
			wantLevel: "info",
			wantDev:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("LOG_LEVEL")
			os.Unsetenv("LOG_DEV")

			if tt.level != "" {
				require.NoError(t, os.Setenv("LOG_LEVEL", tt.level))
				defer os.Unsetenv("LOG_LEVEL")
			}
			if tt.dev != "" {
				require.NoError(t, os.Setenv("LOG_DEV", tt.dev))
				defer os.Unsetenv("LOG_DEV")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}
