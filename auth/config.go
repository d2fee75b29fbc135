package auth

import (
	"fmt"
	"time"
)

// Config enables bearer-token protection of the job API.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Secret is the HS256 key. When empty it is resolved through the
	// secret chain under SecretName.
	Secret     string        `yaml:"secret" mapstructure:"secret"`
	SecretName string        `yaml:"secret_name" mapstructure:"secret_name"`
	Issuer     string        `yaml:"issuer" mapstructure:"issuer"`
	Audience   string        `yaml:"audience" mapstructure:"audience"`
	TokenTTL   time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.SecretName == "" {
		c.SecretName = "VERBATIM_JWT_SECRET"
	}
	if c.Issuer == "" {
		c.Issuer = "verbatim"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// Validate checks the config. The secret itself is checked by NewService
// because it may only be known after secret resolution.
func (c *Config) Validate() error {
	if c.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must be positive (got: %s)", c.TokenTTL)
	}
	return nil
}

// Describe is the startup summary line.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("JWT(HS256) issuer=%s ttl=%s", c.Issuer, c.TokenTTL)
}
