package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":8090" {
		t.Errorf("listen: got %q", cfg.Listen)
	}
	if cfg.Database != "db/scans.db" {
		t.Errorf("database: got %q", cfg.Database)
	}
	if cfg.Fetch.Mode != "http" {
		t.Errorf("fetch mode: got %q", cfg.Fetch.Mode)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("timeout: got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxBody != 10<<20 {
		t.Errorf("max body: got %d", cfg.Fetch.MaxBody)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9000"
database: /tmp/audit.db
fetch:
  mode: browser
  user_agent: custom/1.0
  timeout: 5s
  sanitize: true
  remote_browser: ws://localhost:9222
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen: got %q", cfg.Listen)
	}
	if cfg.Database != "/tmp/audit.db" {
		t.Errorf("database: got %q", cfg.Database)
	}
	if cfg.Fetch.Mode != "browser" {
		t.Errorf("fetch mode: got %q", cfg.Fetch.Mode)
	}
	if cfg.Fetch.UserAgent != "custom/1.0" {
		t.Errorf("user agent: got %q", cfg.Fetch.UserAgent)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", cfg.Fetch.Timeout)
	}
	if !cfg.Fetch.Sanitize {
		t.Error("sanitize: got false")
	}
	if cfg.Fetch.RemoteBrowser != "ws://localhost:9222" {
		t.Errorf("remote browser: got %q", cfg.Fetch.RemoteBrowser)
	}
	// Unset fields still fall back.
	if cfg.Fetch.MaxBody != 10<<20 {
		t.Errorf("max body default: got %d", cfg.Fetch.MaxBody)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig: want error for missing file")
	}
}
