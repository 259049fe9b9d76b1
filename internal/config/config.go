// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration from an optional YAML file
// with environment variable overrides. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	DataDir    string `yaml:"dataDir"`
	LogLevel   string `yaml:"logLevel"`

	MediaAPIBase  string `yaml:"mediaApiBase"`
	MediaAPIToken string `yaml:"mediaApiToken"`

	TelemetryInterval time.Duration `yaml:"telemetryInterval"`

	// RedisAddr selects the redis cache backend; empty uses the in-process
	// memory cache.
	RedisAddr string `yaml:"redisAddr"`

	RateLimit  int           `yaml:"rateLimit"`
	RateWindow time.Duration `yaml:"rateWindow"`

	MetricsEnabled bool `yaml:"metricsEnabled"`

	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:        ":8090",
		DataDir:           "/var/lib/playd",
		LogLevel:          "info",
		TelemetryInterval: 3 * time.Second,
		RateLimit:         600,
		RateWindow:        time.Minute,
		MetricsEnabled:    true,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = ParseString("PLAYD_LISTEN", c.ListenAddr)
	c.DataDir = ParseString("PLAYD_DATA_DIR", c.DataDir)
	c.LogLevel = ParseString("PLAYD_LOG_LEVEL", c.LogLevel)
	c.MediaAPIBase = ParseString("PLAYD_MEDIA_API", c.MediaAPIBase)
	c.MediaAPIToken = ParseString("PLAYD_MEDIA_API_TOKEN", c.MediaAPIToken)
	c.TelemetryInterval = ParseDuration("PLAYD_TELEMETRY_INTERVAL", c.TelemetryInterval)
	c.RedisAddr = ParseString("PLAYD_REDIS_ADDR", c.RedisAddr)
	c.RateLimit = ParseInt("PLAYD_RATE_LIMIT", c.RateLimit)
	c.RateWindow = ParseDuration("PLAYD_RATE_WINDOW", c.RateWindow)
	c.MetricsEnabled = ParseBool("PLAYD_METRICS_ENABLED", c.MetricsEnabled)
	c.ShutdownTimeout = ParseDuration("PLAYD_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("config: listenAddr must not be empty")
	}
	if c.MediaAPIBase == "" {
		return errors.New("config: mediaApiBase is required")
	}
	u, err := url.Parse(c.MediaAPIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: mediaApiBase %q is not a valid http(s) URL", c.MediaAPIBase)
	}
	if c.TelemetryInterval < time.Second {
		return fmt.Errorf("config: telemetryInterval %s is below the 1s floor", c.TelemetryInterval)
	}
	if c.RateLimit <= 0 {
		return errors.New("config: rateLimit must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: shutdownTimeout must be positive")
	}
	return nil
}
