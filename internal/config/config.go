// Package config handles configuration loading and management for Clerk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openclerk/clerk/internal/appdir"
)

// Default endpoints for a locally running storefront backend.
const (
	DefaultServerURL = "http://localhost:8000/v1"
	DefaultWSURL     = "ws://localhost:8000/ws"
)

// DefaultHistoryLimit is the number of chat history entries requested on load.
const DefaultHistoryLimit = 60

// ServerConfig holds backend endpoint configuration.
type ServerConfig struct {
	// URL is the versioned HTTP API base (e.g. "http://localhost:8000/v1")
	URL string
	// WSURL is the realtime chat endpoint (e.g. "ws://localhost:8000/ws")
	WSURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// ChatConfig holds assistant chat configuration.
type ChatConfig struct {
	// HistoryLimit is the number of history entries fetched on (re)connect
	HistoryLimit int
	// Stream requests streamed assistant responses
	Stream bool
	// Typing requests typing indicator frames while the assistant works
	Typing bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// File is an optional log file path (rotation applies)
	File string
}

// Config represents the complete Clerk configuration.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Log    LogConfig
}

// rawConfig is used for YAML unmarshaling.
type rawConfig struct {
	Server struct {
		URL            string `yaml:"url"`
		WSURL          string `yaml:"ws_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"server"`
	Chat struct {
		HistoryLimit int   `yaml:"history_limit"`
		Stream       *bool `yaml:"stream"`
		Typing       *bool `yaml:"typing"`
	} `yaml:"chat"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			WSURL:   DefaultWSURL,
			Timeout: 30 * time.Second,
		},
		Chat: ChatConfig{
			HistoryLimit: DefaultHistoryLimit,
			Stream:       true,
			Typing:       true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the default configuration file path for the current platform.
func DefaultConfigPath() string {
	// Check for environment variable override first
	if envPath := os.Getenv("CLERKRC"); envPath != "" {
		return envPath
	}

	// Use platform-specific config directory
	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			if profile := os.Getenv("USERPROFILE"); profile != "" {
				configDir = filepath.Join(profile, "AppData", "Roaming")
			}
		}
	case "darwin":
		configDir, _ = os.UserHomeDir() // macOS traditionally uses ~/.clerkrc
	default: // linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = xdgConfig
		} else {
			configDir, _ = os.UserHomeDir()
		}
	}

	// Without a resolvable home there is no rc file location; use the
	// settings file in the data directory rather than a relative path.
	if configDir == "" {
		if settingsPath, err := appdir.SettingsPath(); err == nil {
			return settingsPath
		}
	}

	return filepath.Join(configDir, ".clerkrc")
}

// Load reads and parses the configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// LoadOrDefault loads the configuration from the first path that exists,
// in order: explicit path (if non-empty), CLERKRC / platform rc file, the
// settings file in the Clerk data directory. If none exists the built-in
// defaults are returned.
func LoadOrDefault(explicit string) (*Config, string, error) {
	candidates := []string{}
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, DefaultConfigPath())
	if settingsPath, err := appdir.SettingsPath(); err == nil {
		candidates = append(candidates, settingsPath)
	}

	for i, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			// An explicit path must exist; fallbacks may not.
			if i == 0 && explicit != "" {
				return nil, "", fmt.Errorf("config file %s: %w", path, err)
			}
			continue
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	return Default(), "", nil
}

// Parse parses YAML configuration data into a Config struct.
// Unset fields fall back to the built-in defaults.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()

	if raw.Server.URL != "" {
		cfg.Server.URL = raw.Server.URL
	}
	if raw.Server.WSURL != "" {
		cfg.Server.WSURL = raw.Server.WSURL
	}
	if raw.Server.TimeoutSeconds > 0 {
		cfg.Server.Timeout = time.Duration(raw.Server.TimeoutSeconds) * time.Second
	}
	if raw.Chat.HistoryLimit > 0 {
		cfg.Chat.HistoryLimit = raw.Chat.HistoryLimit
	}
	if raw.Chat.Stream != nil {
		cfg.Chat.Stream = *raw.Chat.Stream
	}
	if raw.Chat.Typing != nil {
		cfg.Chat.Typing = *raw.Chat.Typing
	}
	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}
	if raw.Log.File != "" {
		cfg.Log.File = raw.Log.File
	}

	return cfg, nil
}
