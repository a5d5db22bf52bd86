// Package config loads the settings consumed by the revtail CLI and
// by applications embedding the client.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Gateway GatewayConfig `mapstructure:"gateway"`
	API     APIConfig     `mapstructure:"api"`
	Capture CaptureConfig `mapstructure:"capture"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type GatewayConfig struct {
	URL                 string `mapstructure:"url"`
	Token               string `mapstructure:"token"`
	HandshakeTimeoutSec int    `mapstructure:"handshake_timeout_sec"`
	HeartbeatSec        int    `mapstructure:"heartbeat_sec"`
	BackoffMinSec       int    `mapstructure:"backoff_min_sec"`
	BackoffMaxSec       int    `mapstructure:"backoff_max_sec"`
}

type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type CaptureConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("gateway.url", "wss://ws.revolt.chat")
	v.SetDefault("gateway.handshake_timeout_sec", 10)
	v.SetDefault("gateway.heartbeat_sec", 30)
	v.SetDefault("gateway.backoff_min_sec", 1)
	v.SetDefault("gateway.backoff_max_sec", 60)
	v.SetDefault("api.base_url", "https://api.revolt.chat")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.retry_count", 3)
	v.SetDefault("api.retry_delay_sec", 1)
	v.SetDefault("api.rate_per_second", 5)
	v.SetDefault("capture.enabled", false)
	v.SetDefault("capture.path", "capture.jsonl.zst")
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("REVOLTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("gateway.token", "REVOLTKIT_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Gateway.Token == "" {
		return fmt.Errorf("gateway token is required (set REVOLTKIT_TOKEN env var)")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway url is required")
	}
	if c.Gateway.BackoffMinSec < 1 {
		return fmt.Errorf("backoff_min_sec must be >= 1")
	}
	if c.Gateway.BackoffMaxSec < c.Gateway.BackoffMinSec {
		return fmt.Errorf("backoff_max_sec must be >= backoff_min_sec")
	}
	return nil
}
