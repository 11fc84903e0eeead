// Package config provides configuration management for liveserve.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority, applied by the caller)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("serving %s on %s:%d\n", cfg.Root, cfg.Server.Host, cfg.Server.Port)
package config

import "strings"

// Config represents the complete application configuration.
//
// Invariants:
// - Root must be non-empty
// - Server.Port must be a valid TCP port
// - Server.NotifyPort must be 0 (auto) or a valid TCP port distinct from Server.Port
// - Watch.DebounceWindow must be > 0
// - Watch.Extensions must have at least one entry, each starting with ".".
type Config struct {
	// Directory to serve and watch
	Root string `yaml:"root"`

	// HTTP and notification server settings
	Server ServerConfig `yaml:"server"`

	// File watching settings
	Watch WatchConfig `yaml:"watch"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains network binding settings.
type ServerConfig struct {
	// Host to bind the HTTP server to
	Host string `yaml:"host"`

	// HTTP server port
	Port int `yaml:"port"`

	// Notification (WebSocket) server port.
	// 0 means "HTTP port + 1".
	NotifyPort int `yaml:"notify_port"`
}

// WatchConfig contains file watching settings.
type WatchConfig struct {
	// Quiet interval after the last change before a reload is broadcast.
	// Multiple changes within this window coalesce into one reload.
	DebounceWindow Duration `yaml:"debounce_window"`

	// File extensions that trigger a reload (with leading dot).
	Extensions []string `yaml:"extensions"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// NotificationPort returns the effective notification server port:
// Server.NotifyPort when set, otherwise Server.Port + 1.
func (c *Config) NotificationPort() int {
	if c.Server.NotifyPort != 0 {
		return c.Server.NotifyPort
	}
	return c.Server.Port + 1
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrMissingRoot
	}

	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidHTTPPort
	}
	if c.Server.NotifyPort != 0 {
		if c.Server.NotifyPort < 1 || c.Server.NotifyPort > 65535 {
			return ErrInvalidNotifyPort
		}
	}
	if c.NotificationPort() == c.Server.Port {
		return ErrPortConflict
	}

	// Validate watch config
	if c.Watch.DebounceWindow <= 0 {
		return ErrInvalidDebounceWindow
	}
	if len(c.Watch.Extensions) == 0 {
		return ErrNoExtensions
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return ErrInvalidExtension
		}
	}

	// Validate logging config
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}
