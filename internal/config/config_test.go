package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultFileWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected path: %s", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Endpoint != Default().Endpoint || cfg.ReconnectMax != Default().ReconnectMax {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := "endpoint: wss://chat.example.com/ws\nusername: alice\nreconnect_max: 1m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIRECHAT_LOG_LEVEL", "debug")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "wss://chat.example.com/ws" || cfg.Username != "alice" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ReconnectMax != time.Minute {
		t.Fatalf("unexpected reconnect_max: %v", cfg.ReconnectMax)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("env override not applied: %q", cfg.LogLevel)
	}
	if cfg.DialTimeout != Default().DialTimeout {
		t.Fatalf("default lost: %v", cfg.DialTimeout)
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Username: "bob", ViewAddr: ":9090"})

	if cfg.Username != "bob" || cfg.ViewAddr != ":9090" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Endpoint != Default().Endpoint {
		t.Fatalf("zero override clobbered endpoint: %q", cfg.Endpoint)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cases := map[string]func(*Config){
		"empty endpoint":   func(c *Config) { c.Endpoint = "" },
		"bad scheme":       func(c *Config) { c.Endpoint = "ftp://chat.example.com" },
		"zero dial":        func(c *Config) { c.DialTimeout = 0 },
		"max below start":  func(c *Config) { c.ReconnectMax = c.ReconnectInitial / 2 },
		"multiplier below": func(c *Config) { c.ReconnectMultiplier = 0.5 },
		"no buffer":        func(c *Config) { c.EventBuffer = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
