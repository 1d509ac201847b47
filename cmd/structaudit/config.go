package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structaudit configuration.
type Config struct {
	Listen   string      `yaml:"listen"`
	Database string      `yaml:"database"`
	Fetch    FetchConfig `yaml:"fetch"`
}

// FetchConfig controls how page markup is acquired.
type FetchConfig struct {
	// Mode selects the acquisition path: "http" (plain GET) or "browser"
	// (rendered via headless Chrome).
	Mode string `yaml:"mode"`

	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBody   int64         `yaml:"max_body"`

	// Sanitize strips scripts and unknown markup before analysis.
	Sanitize bool `yaml:"sanitize"`

	// RemoteBrowser is the DevTools WebSocket URL of an external Chrome.
	// Empty means launch a local one (browser mode only).
	RemoteBrowser string `yaml:"remote_browser"`
}

// LoadConfig reads a YAML configuration file. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8090"
	}
	if c.Database == "" {
		c.Database = "db/scans.db"
	}
	if c.Fetch.Mode == "" {
		c.Fetch.Mode = "http"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBody <= 0 {
		c.Fetch.MaxBody = 10 << 20
	}
}
