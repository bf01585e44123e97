package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 7271 {
		t.Errorf("expected default port 7271, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Agent.DefaultModel != "claude-sonnet" {
		t.Errorf("expected default model claude-sonnet, got %s", cfg.Agent.DefaultModel)
	}
	if cfg.Agent.MaxSubAgents != 4 {
		t.Errorf("expected default sub-agent limit 4, got %d", cfg.Agent.MaxSubAgents)
	}
	if cfg.Agent.DefaultTimeout != 300 {
		t.Errorf("expected default timeout 300, got %d", cfg.Agent.DefaultTimeout)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}
	if cfg.Server.Port != 7271 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("server:\n  port: 9999\nagent:\n  defaultModel: claude-opus\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected overridden port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Agent.DefaultModel != "claude-opus" {
		t.Errorf("expected overridden model, got %s", cfg.Agent.DefaultModel)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected default host to survive, got %s", cfg.Server.Host)
	}
	if cfg.Agent.MaxSubAgents != 4 {
		t.Errorf("expected default sub-agent limit to survive, got %d", cfg.Agent.MaxSubAgents)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 8181
	cfg.Agent.SystemPrompt = "be terse"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error on Load: %v", err)
	}
	if loaded.Server.Port != 8181 {
		t.Errorf("expected port to round-trip, got %d", loaded.Server.Port)
	}
	if loaded.Agent.SystemPrompt != "be terse" {
		t.Errorf("expected system prompt to round-trip, got %q", loaded.Agent.SystemPrompt)
	}
}

func TestServerAddress(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ServerAddress(); got != "127.0.0.1:7271" {
		t.Errorf("expected 127.0.0.1:7271, got %s", got)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Dir = "/var/lib/minicc"
	if got := cfg.HistoryPath(); got != "/var/lib/minicc/history.db" {
		t.Errorf("expected history path under data dir, got %s", got)
	}
}
