// Package config loads deck configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = "3001"
	DefaultOpenCodePort = "4096"
	DefaultDBPath       = "deck.db"
	DefaultLogFile      = "deck.log"
	DefaultCommand      = "opencode"
)

// OpenCode describes how to reach (or start) the OpenCode server.
type OpenCode struct {
	// URL overrides autostart entirely: when set, deck attaches to an
	// already-running server instead of spawning one.
	URL       string `yaml:"url"`
	Command   string `yaml:"command"`
	Hostname  string `yaml:"hostname"`
	Port      string `yaml:"port"`
	Autostart *bool  `yaml:"autostart"`
}

// Config holds the full deck configuration.
type Config struct {
	Host     string   `yaml:"host"`
	Port     string   `yaml:"port"`
	DBPath   string   `yaml:"db_path"`
	LogFile  string   `yaml:"log_file"`
	OpenCode OpenCode `yaml:"opencode"`
}

// Load reads the YAML file at path (missing file is not an error), applies
// environment overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is fine, env + defaults cover everything.
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DECK_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("DECK_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DECK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DECK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("OPENCODE_URL"); v != "" {
		cfg.OpenCode.URL = v
	}
	if v := os.Getenv("OPENCODE_COMMAND"); v != "" {
		cfg.OpenCode.Command = v
	}
	if v := os.Getenv("OPENCODE_PORT"); v != "" {
		cfg.OpenCode.Port = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.OpenCode.Command == "" {
		cfg.OpenCode.Command = DefaultCommand
	}
	if cfg.OpenCode.Hostname == "" {
		cfg.OpenCode.Hostname = "127.0.0.1"
	}
	if cfg.OpenCode.Port == "" {
		cfg.OpenCode.Port = DefaultOpenCodePort
	}
}

// Addr returns the listen address for the relay.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// OpenCodeURL returns the base URL of the OpenCode server, derived from the
// hostname/port pair unless an explicit URL was configured.
func (c *Config) OpenCodeURL() string {
	if c.OpenCode.URL != "" {
		return c.OpenCode.URL
	}
	return fmt.Sprintf("http://%s:%s", c.OpenCode.Hostname, c.OpenCode.Port)
}

// AutostartEnabled reports whether deck should spawn its own OpenCode server.
// An explicit URL disables autostart unless the config forces it on.
func (c *Config) AutostartEnabled() bool {
	if c.OpenCode.Autostart != nil {
		return *c.OpenCode.Autostart
	}
	return c.OpenCode.URL == ""
}
