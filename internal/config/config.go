// Package config provides the .ragview.yaml project-level configuration
// loader for the viewer CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. Load references them and no
// other code should duplicate them.
const (
	DefaultResultsPath = "results/"
	DefaultSessionFile = ".ragview-session.json"

	DefaultServerPort   = 3000
	DefaultPollInterval = time.Second
)

// ConfigFileName is the project configuration file looked up in the
// working directory.
const ConfigFileName = ".ragview.yaml"

// Config is the project-level configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths"`
	Server ServerConfig `yaml:"server"`

	// PollIntervalSeconds controls the session-file fallback poll used for
	// cross-process consistency. Zero keeps the default.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

type PathsConfig struct {
	Results string `yaml:"results"`
	Session string `yaml:"session"`
}

type ServerConfig struct {
	Port      int      `yaml:"port"`
	Origins   []string `yaml:"origins"`
	NoBrowser bool     `yaml:"no_browser"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Paths: PathsConfig{
			Results: DefaultResultsPath,
			Session: DefaultSessionFile,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// PollInterval returns the configured poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load reads the project configuration from dir, overlaying any values
// found in .ragview.yaml on the defaults. A missing file returns the
// defaults without error.
func Load(dir string) (*Config, error) {
	cfg := New()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	merge(cfg, &overlay)
	return cfg, nil
}

// merge overlays non-zero values from src onto dst.
func merge(dst, src *Config) {
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Session != "" {
		dst.Paths.Session = src.Paths.Session
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.Origins != nil {
		dst.Server.Origins = src.Server.Origins
	}
	if src.Server.NoBrowser {
		dst.Server.NoBrowser = true
	}
	if src.PollIntervalSeconds != 0 {
		dst.PollIntervalSeconds = src.PollIntervalSeconds
	}
}
