package llm

import (
	"time"

	"github.com/kbukum/verbatim/resilience"
)

const defaultTimeout = 120 * time.Second

// Config holds configuration for an LLM adapter.
type Config struct {
	// Dialect selects the provider mapping, e.g. "gemini" or "ollama".
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
	// BaseURL overrides the dialect's default endpoint.
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// APIKey is resolved at startup and never read from the config file.
	APIKey string `yaml:"-" mapstructure:"-"`

	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry retries transient HTTP failures. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
	// CircuitBreaker fails fast after repeated errors. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// DefaultBaseURLer is implemented by dialects with a well-known endpoint.
type DefaultBaseURLer interface {
	DefaultBaseURL() string
}

func (c *Config) applyDefaults(d Dialect) {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.BaseURL == "" {
		if b, ok := d.(DefaultBaseURLer); ok {
			c.BaseURL = b.DefaultBaseURL()
		}
	}
}
