// Package config provides 12-factor configuration management for appswitchd.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Display: framebuffer device node, panel geometry, refresh temperature,
//     device guard threshold and cooldown
//   - Bus: IPC bus kind, service name, interface name, object path prefix
//   - Apps: manifest directory, autostart toggle, shutdown grace period
//   - Logging: Log level and output format
//   - Debug: optional read-only HTTP status surface
//   - RateLimit: Per-IP rate limiting for the debug surface
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Panel %dx%d on %s\n", cfg.Display.Width, cfg.Display.Height, cfg.Display.Device)
//
// Environment Variables:
//   - FB_DEVICE, FB_WIDTH, FB_HEIGHT, FB_TEMP, FB_COMPRESSION
//   - FB_FAILURE_THRESHOLD, FB_COOLDOWN
//   - BUS, BUS_SERVICE, BUS_INTERFACE, BUS_PATH_PREFIX
//   - APPS_DIR, APPS_AUTOSTART, APPS_SHUTDOWN_GRACE
//   - LOG_LEVEL, LOG_DEV
//   - DEBUG_ADDR, DEBUG_ENABLED, DEBUG_CORS_ORIGINS
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
