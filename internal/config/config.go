// Package config holds the minicc session configuration: defaults,
// the YAML config file under the user's home directory, and derived
// paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Agent  AgentConfig  `yaml:"agent"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"` // default 7271
	Host string `yaml:"host"` // default "127.0.0.1"
}

type DataConfig struct {
	Dir string `yaml:"dir"` // default "~/.minicc/data"
}

type AgentConfig struct {
	ClaudeCLI        string `yaml:"claudeCli"`        // path to claude binary (default: "claude", resolved via PATH)
	DefaultModel     string `yaml:"defaultModel"`     // default "claude-sonnet"
	SystemPrompt     string `yaml:"systemPrompt"`     // optional system prompt override
	DefaultMaxTokens int    `yaml:"defaultMaxTokens"` // default 8192
	DefaultTimeout   int    `yaml:"defaultTimeout"`   // per-conversation timeout in seconds (default 300)
	MaxSubAgents     int    `yaml:"maxSubAgents"`     // concurrent sub-agent limit (default 4)
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "info"
	Format string `yaml:"format"` // default "console"
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7271,
			Host: "127.0.0.1",
		},
		Data: DataConfig{
			Dir: defaultDataDir(),
		},
		Agent: AgentConfig{
			ClaudeCLI:        "claude",
			DefaultModel:     "claude-sonnet",
			DefaultMaxTokens: 8192,
			DefaultTimeout:   300,
			MaxSubAgents:     4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML config file at path and merges it over the
// defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ServerAddress returns the status API listen address in "host:port"
// format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// HistoryPath returns the full path to the BoltDB history file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Data.Dir, "history.db")
}

// DefaultPath resolves the default config file location
// (~/.minicc/config.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "minicc", "config.yaml")
	}
	return filepath.Join(home, ".minicc", "config.yaml")
}

// defaultDataDir resolves the default data directory, falling back to
// /tmp when the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "minicc", "data")
	}
	return filepath.Join(home, ".minicc", "data")
}
