package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrMissingRoot is returned when no serve root directory is specified.
	ErrMissingRoot = errors.New("no serve root directory specified")

	// ErrInvalidHTTPPort is returned when the HTTP port is out of range.
	ErrInvalidHTTPPort = errors.New("invalid http port: must be 1-65535")

	// ErrInvalidNotifyPort is returned when the notification port is out of range.
	ErrInvalidNotifyPort = errors.New("invalid notification port: must be 1-65535")

	// ErrPortConflict is returned when the notification port equals the HTTP port.
	ErrPortConflict = errors.New("notification port must differ from http port")

	// ErrInvalidDebounceWindow is returned when the debounce window is <= 0.
	ErrInvalidDebounceWindow = errors.New("invalid debounce window: must be > 0")

	// ErrNoExtensions is returned when no watched extensions are configured.
	ErrNoExtensions = errors.New("no watched extensions configured")

	// ErrInvalidExtension is returned when an extension lacks a leading dot.
	ErrInvalidExtension = errors.New("invalid extension: must start with '.'")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML in config file")
)
