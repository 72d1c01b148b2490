// Package config provides configuration management for the sparqlchat CLI.
package config

import (
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sparqlchat/internal/settings"
)

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultOutput     = "auto"
	DefaultUIPort     = 8501
	DefaultConfigName = "sparqlchat.yaml"
	AltConfigName     = "sparqlchat.yml"
	EnvPrefix         = "SPARQLCHAT_"
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port" yaml:"port"`
	AutoOpen      bool   `koanf:"auto_open" yaml:"auto_open"`
	Watch         bool   `koanf:"watch" yaml:"watch"`
	Dev           bool   `koanf:"dev" yaml:"dev"`
	SessionSecret string `koanf:"session_secret" yaml:"session_secret,omitempty"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultUIPort,
		AutoOpen: true,
		Watch:    true,
	}
}

// Config holds all CLI configuration options.
type Config struct {
	SettingsPath string    `koanf:"settings_path" yaml:"settings_path"`
	HistoryPath  string    `koanf:"history_path" yaml:"history_path"`
	LogLevel     string    `koanf:"log_level" yaml:"log_level"`
	OutputFormat string    `koanf:"output" yaml:"output"`
	Verbose      bool      `koanf:"verbose" yaml:"verbose"`
	ExamplesFile string    `koanf:"examples_file" yaml:"examples_file,omitempty"`
	SchemaLimit  int       `koanf:"schema_limit" yaml:"schema_limit,omitempty"`
	UI           *UIConfig `koanf:"ui" yaml:"ui"`
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := *c.UI
	if ui.Port == 0 {
		ui.Port = DefaultUIPort
	}
	return &ui
}

// HistoryEnabled reports whether query history should be persisted.
func (c *Config) HistoryEnabled() bool {
	return c.HistoryPath != "" && c.HistoryPath != "none"
}

// DefaultHistoryPath returns the history database next to the default
// settings file.
func DefaultHistoryPath() string {
	return filepath.Join(filepath.Dir(settings.DefaultPath()), "history.db")
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		SettingsPath: settings.DefaultPath(),
		HistoryPath:  DefaultHistoryPath(),
		LogLevel:     DefaultLogLevel,
		OutputFormat: DefaultOutput,
		UI:           DefaultUIConfig(),
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
