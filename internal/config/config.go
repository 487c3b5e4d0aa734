// Package config loads dendrited configuration from config.yaml, an
// optional .env file, and environment variable overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the daemon configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	SchemaFile  string            `mapstructure:"schema_file"` // optional override of the built-in tree schema
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ProviderConfig struct {
	// Kind selects the backend: "llamacpp", "openai", or "anthropic".
	Kind      string `mapstructure:"kind"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	MaxTokens int    `mapstructure:"max_tokens"`

	Timeout time.Duration `mapstructure:"timeout"`
}

type InterpreterConfig struct {
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float32 `mapstructure:"temperature"`
	Grammar     bool    `mapstructure:"grammar"` // constrained decoding for capable providers
	Seed        int64   `mapstructure:"seed"`    // 0 means provider default
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case "llamacpp":
		// The local-server default applies to llamacpp only.
		if c.Provider.BaseURL == "" {
			c.Provider.BaseURL = "http://localhost:8080"
		}
	case "openai", "anthropic":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key required for %s", c.Provider.Kind)
		}
	default:
		return fmt.Errorf("unknown provider.kind %q", c.Provider.Kind)
	}
	if c.Interpreter.MaxRetries < 0 {
		return fmt.Errorf("interpreter.max_retries must be >= 0")
	}
	if c.Cache.Enabled && c.Cache.Address == "" {
		return fmt.Errorf("cache.address required when cache is enabled")
	}
	return nil
}
