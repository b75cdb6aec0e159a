// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Provider settings shared by the weather, marine, and bathymetry
	// clients.
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
	ProviderRetries   int           `env:"PROVIDER_RETRIES" envDefault:"2"`
	ProviderRateLimit float64       `env:"PROVIDER_RATE_LIMIT" envDefault:"4"` // requests per second per provider

	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"4096"`

	// Optional Kafka scenario sink; disabled when no brokers are set.
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC" envDefault:"scored-scenarios"`
}

// KafkaEnabled reports whether the scenario sink should be wired.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults
// where unset, and validates it eagerly so misconfiguration fails at boot.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}
	if c.ProviderRetries < 0 {
		return errors.New("PROVIDER_RETRIES must not be negative")
	}
	if c.ProviderRateLimit <= 0 {
		return errors.New("PROVIDER_RATE_LIMIT must be positive")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	if c.CacheSize <= 0 {
		return errors.New("CACHE_SIZE must be positive")
	}
	if c.KafkaEnabled() && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
