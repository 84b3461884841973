package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/doc-triage/")
	v.AddConfigPath("$HOME/.doc-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("DOC_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("DOC_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.filter_type", "smtp")
	v.SetDefault("server.listen_address", "0.0.0.0:2525")
	v.SetDefault("server.relay_address", "127.0.0.1:10025")
	v.SetDefault("server.process_timeout", "90s")
	v.SetDefault("server.headers.class", "X-Document-Class")
	v.SetDefault("server.headers.score", "X-Document-Score")
	v.SetDefault("server.headers.level", "X-Document-Level")
	v.SetDefault("server.headers.detector", "X-Document-Detector")

	// Classification defaults
	v.SetDefault("classification.max_body_size", 8192)
	v.SetDefault("classification.fuzzy_matching", true)
	v.SetDefault("classification.memoize_senders", true)
	v.SetDefault("classification.min_level", "HIGH")

	// Router defaults
	v.SetDefault("router.order", []string{"marketing", "legal", "bank_statement", "subscription", "receipt"})
	v.SetDefault("router.thresholds.marketing", 25.0)
	v.SetDefault("router.thresholds.legal", 70.0)
	v.SetDefault("router.thresholds.bank_statement", 70.0)
	v.SetDefault("router.thresholds.subscription", 75.0)
	v.SetDefault("router.thresholds.receipt", 20.0)

	// Sender trust defaults; empty slices fall back to the built-in lists
	v.SetDefault("trust.marketing_domains", []string{})
	v.SetDefault("trust.known_services", []string{})
	v.SetDefault("trust.payment_processors", []string{})

	// Pattern table defaults
	v.SetDefault("patterns.path", "")
	v.SetDefault("patterns.watch", true)

	// Evidence store defaults
	v.SetDefault("evidence.type", "memory")
	v.SetDefault("evidence.ttl", "720h")
	v.SetDefault("evidence.cleanup_frequency", "1h")
	v.SetDefault("evidence.sqlite_path", "/data/doc_triage_evidence.db")
	v.SetDefault("evidence.mysql_dsn", "user:password@tcp(localhost:3306)/doc_triage")

	// LLM defaults
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.min_confidence", 40.0)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stdout"})
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
