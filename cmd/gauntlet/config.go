package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full server configuration. Values come from the yaml
// config file, with environment variables taking precedence for deployment
// overrides.
type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	Game struct {
		Stages         int `yaml:"stages"`
		StageCutoffSec int `yaml:"stage_cutoff_sec"`
		GracePeriodSec int `yaml:"grace_period_sec"`
	} `yaml:"game"`

	Results struct {
		Backend string `yaml:"backend"` // "file" or "sqlite"
		Path    string `yaml:"path"`
	} `yaml:"results"`

	Answers map[int]string `yaml:"answers"`

	LogLevel string `yaml:"log_level"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "3000"
	cfg.Server.StaticDir = "public"
	cfg.Game.Stages = 3
	cfg.Game.StageCutoffSec = 600
	cfg.Game.GracePeriodSec = 300
	cfg.Results.Backend = "file"
	cfg.Results.Path = "results.json"
	cfg.Answers = map[int]string{
		1: "escape",
		2: "room",
		3: "puzzle",
	}
	cfg.LogLevel = "info"
	return cfg
}

// loadConfig reads the yaml config file and applies environment overrides.
// A missing file is not an error; defaults apply.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.StaticDir = getEnv("STATIC_DIR", cfg.Server.StaticDir)
	cfg.Results.Backend = getEnv("RESULTS_BACKEND", cfg.Results.Backend)
	cfg.Results.Path = getEnv("RESULTS_PATH", cfg.Results.Path)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Game.GracePeriodSec = getEnvAsInt("GRACE_PERIOD_SEC", cfg.Game.GracePeriodSec)

	return cfg, nil
}

// StageCutoff returns the per-stage cutoff as a duration.
func (c *Config) StageCutoff() time.Duration {
	return time.Duration(c.Game.StageCutoffSec) * time.Second
}

// GracePeriod returns the disconnect grace period as a duration.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Game.GracePeriodSec) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
