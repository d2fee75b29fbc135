package refine

import (
	"fmt"
	"time"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/llm"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/resilience"
	"github.com/kbukum/verbatim/util"

	_ "github.com/kbukum/verbatim/llm/gemini"
	_ "github.com/kbukum/verbatim/llm/ollama"
)

// Config configures the refinement stage and its model.
type Config struct {
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`
	// APIKeySecret names the credential resolved through the secret chain.
	APIKeySecret string     `yaml:"api_key_secret" mapstructure:"api_key_secret"`
	LLM          llm.Config `yaml:",inline" mapstructure:",squash"`
	// BreakerFailures opens the circuit after this many consecutive errors.
	BreakerFailures int           `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Enabled == nil {
		c.Enabled = util.Ptr(true)
	}
	if c.APIKeySecret == "" {
		c.APIKeySecret = "GEMINI_API_KEY"
	}
	if c.LLM.Dialect == "" {
		c.LLM.Dialect = "gemini"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = time.Minute
	}
}

// Validate checks the temperature range.
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("refinement: temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	return nil
}

// IsEnabled reports whether refinement should run.
func (c *Config) IsEnabled() bool { return util.Deref(c.Enabled, true) }

// AdapterConfig returns the llm config with the resolved key and the
// resilience settings applied.
func (c *Config) AdapterConfig(apiKey string) llm.Config {
	cfg := c.LLM
	cfg.APIKey = apiKey
	retry := httpclient.DefaultRetryConfig()
	retry.MaxAttempts = 2
	cfg.Retry = retry
	cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{
		Name:        "refine-" + cfg.Dialect,
		MaxFailures: c.BreakerFailures,
		Timeout:     c.BreakerCooldown,
	}
	return cfg
}

// NewFromConfig builds a Refiner from cfg. A disabled stage, or a dialect
// that needs a key when none was resolved, yields a pass-through Refiner.
func NewFromConfig(cfg Config, apiKey string, log *logger.Logger, opts ...Option) (*Refiner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]Option{WithTemperature(cfg.LLM.Temperature)}, opts...)
	if !cfg.IsEnabled() {
		return New(nil, log, opts...), nil
	}
	if apiKey == "" && cfg.LLM.Dialect == "gemini" {
		log.Warn("No refinement API key resolved, refinement disabled", logger.Fields("secret", cfg.APIKeySecret))
		return New(nil, log, opts...), nil
	}

	adapter, err := llm.New(cfg.AdapterConfig(apiKey))
	if err != nil {
		return nil, fmt.Errorf("refinement: %w", err)
	}
	return New(adapter, log, opts...), nil
}
