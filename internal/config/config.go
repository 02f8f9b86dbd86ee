// Package config implements the layered configuration for the archiver:
// built-in defaults, overridden by an optional YAML file, overridden in
// turn by environment variables and (from internal/cmd) CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the CLI exposes as a flag or environment
// variable.
type Config struct {
	RefreshPeriod time.Duration `yaml:"refresh_period"`
	OutDir        string        `yaml:"out_dir"`
	OutDirAbs     string        `yaml:"out_dir_abs"`
	GlobalLimit   int64         `yaml:"global_limit"`
	PerHostLimit  int64         `yaml:"per_host_limit"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	SiteName      string        `yaml:"site_name"`
	FrontPageURL  string        `yaml:"front_page_url"`
}

func DefaultConfig() *Config {
	return &Config{
		RefreshPeriod: 600 * time.Second,
		OutDir:        "ycombinator",
		GlobalLimit:   100,
		PerHostLimit:  1,
		Timeout:       30 * time.Second,
		Retries:       3,
		FrontPageURL:  "https://news.ycombinator.com/",
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function, so tests can inject an isolated environment.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := configPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := getenv("HN_ARCHIVER_REFRESH_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshPeriod = d
		}
	}
	if v := getenv("HN_ARCHIVER_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := getenv("HN_ARCHIVER_OUT_DIR_ABS"); v != "" {
		cfg.OutDirAbs = v
	}
	if v := getenv("HN_ARCHIVER_GLOBAL_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.GlobalLimit = n
		}
	}
	if v := getenv("HN_ARCHIVER_PER_HOST_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.PerHostLimit = n
		}
	}
	if v := getenv("HN_ARCHIVER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := getenv("HN_ARCHIVER_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retries = n
		}
	}
	if v := getenv("HN_ARCHIVER_SITE_NAME"); v != "" {
		cfg.SiteName = v
	}

	return cfg, nil
}

// ResolvedOutDir returns the absolute output directory: OutDirAbs if set,
// otherwise OutDir joined with cwd.
func (c *Config) ResolvedOutDir(cwd string) string {
	if c.OutDirAbs != "" {
		return c.OutDirAbs
	}
	return filepath.Join(cwd, c.OutDir)
}

func configPath() string {
	return configPathWithEnv(os.Getenv)
}

func configPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hn-archiver", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hn-archiver", "config.yaml")
}
