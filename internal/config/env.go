package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return Parse()
}

// parses and validates configuration from the current environment
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checks cross-field requirements that struct tags cannot express
func (c *Config) Validate() error {
	c.ClassifierProvider = strings.ToLower(strings.TrimSpace(c.ClassifierProvider))

	switch c.ClassifierProvider {
	case "", ProviderNone:
		c.ClassifierProvider = ProviderNone
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	case ProviderArk:
		if c.ArkAPIKey == "" {
			return fmt.Errorf("ARK_API_KEY environment variable is required")
		}

		if c.ArkModel == "" {
			return fmt.Errorf("ARK_MODEL environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported CLASSIFIER_PROVIDER: %s", c.ClassifierProvider)
	}

	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	if c.InactiveTimeout <= 0 {
		return fmt.Errorf("INACTIVE_TIMEOUT must be positive")
	}

	if c.PersistInterval <= 0 {
		return fmt.Errorf("PERSIST_INTERVAL must be positive")
	}

	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return fmt.Errorf("DATABASE_URL and SQLITE_PATH are mutually exclusive")
	}

	return nil
}
