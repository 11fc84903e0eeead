package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultExtensions is the set of file extensions that trigger a reload
// when no explicit configuration is provided.
var DefaultExtensions = []string{".html", ".htm", ".css", ".js", ".json"}

// Default returns a configuration with sensible default values.
//
// Defaults match the conventional local-development setup: serve the
// current directory on localhost:8000 with the notification channel on
// the next port up.
func Default() *Config {
	return &Config{
		Root: ".",
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8000,
			NotifyPort: 0, // auto: HTTP port + 1
		},
		Watch: WatchConfig{
			DebounceWindow: Duration(100 * time.Millisecond),
			Extensions:     append([]string(nil), DefaultExtensions...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/liveserve/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./liveserve.yaml"
	}

	return filepath.Join(homeDir, ".config", "liveserve", "config.yaml")
}
