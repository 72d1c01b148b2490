// Package settings persists the Neptune and Bedrock connection settings.
//
// Settings live in a small INI file with a single [default] section. Reading
// never fails: a missing file, a missing key or an unparsable value falls back
// to the documented default for that field.
package settings

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

// Section is the INI section all settings are stored under.
const Section = "default"

// Keys recognised in the settings file.
const (
	KeyHost    = "host"
	KeyPort    = "port"
	KeyRegion  = "region"
	KeyModelID = "model_id"
)

// Default values.
const (
	DefaultHost    = ""
	DefaultPort    = 8182
	DefaultRegion  = "us-east-1"
	DefaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
)

// Settings holds the connection settings for the QA pipeline.
type Settings struct {
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`
	Region  string `json:"region" yaml:"region"`
	ModelID string `json:"model_id" yaml:"model_id"`
}

// Defaults returns the settings used when nothing has been persisted.
func Defaults() Settings {
	return Settings{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Region:  DefaultRegion,
		ModelID: DefaultModelID,
	}
}

// Address returns host:port for the Neptune endpoint.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate checks the settings are usable for a connection.
func (s Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Region == "" {
		return fmt.Errorf("region is required")
	}
	if s.ModelID == "" {
		return fmt.Errorf("model_id is required")
	}
	return nil
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, "sparqlchat", "settings.cfg")
}

// Load reads settings from path, substituting defaults for anything missing.
func Load(path string) Settings {
	s := Defaults()

	f, err := ini.Load(path)
	if err != nil {
		return s
	}
	sec, err := f.GetSection(Section)
	if err != nil {
		return s
	}

	if sec.HasKey(KeyHost) {
		s.Host = sec.Key(KeyHost).String()
	}
	if sec.HasKey(KeyPort) {
		if port, err := sec.Key(KeyPort).Int(); err == nil {
			s.Port = port
		}
	}
	if sec.HasKey(KeyRegion) {
		s.Region = sec.Key(KeyRegion).String()
	}
	if sec.HasKey(KeyModelID) {
		s.ModelID = sec.Key(KeyModelID).String()
	}

	return s
}

// Save writes all four settings to path, replacing any existing content.
func Save(path string, s Settings) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	f := ini.Empty()
	sec := f.Section(Section)
	sec.Key(KeyHost).SetValue(s.Host)
	sec.Key(KeyPort).SetValue(strconv.Itoa(s.Port))
	sec.Key(KeyRegion).SetValue(s.Region)
	sec.Key(KeyModelID).SetValue(s.ModelID)

	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}
