package secret

import (
	"fmt"

	"github.com/kbukum/verbatim/logger"
)

const (
	ProviderEnv           = "env"
	ProviderFile          = "file"
	ProviderSecretManager = "secretmanager"
)

// Config lists the providers to consult, in order.
type Config struct {
	Providers []string `yaml:"providers" mapstructure:"providers"`
	// Dir is read by the file provider.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Project and BaseURL configure the secret manager provider.
	Project string `yaml:"project" mapstructure:"project"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// AccessToken authenticates the secret manager provider.
	AccessToken string `yaml:"-" mapstructure:"access_token"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Providers) == 0 {
		c.Providers = []string{ProviderEnv}
	}
	if c.Dir == "" {
		c.Dir = "/run/secrets"
	}
}

// Build creates the chain described by c.
func (c Config) Build(log *logger.Logger) (*Chain, error) {
	c.ApplyDefaults()
	providers := make([]Provider, 0, len(c.Providers))
	for _, name := range c.Providers {
		switch name {
		case ProviderEnv:
			providers = append(providers, Env{})
		case ProviderFile:
			providers = append(providers, File{Dir: c.Dir})
		case ProviderSecretManager:
			sm, err := NewSecretManager(c.Project, c.AccessToken, c.BaseURL)
			if err != nil {
				return nil, err
			}
			providers = append(providers, sm)
		default:
			return nil, fmt.Errorf("secret: unknown provider %q", name)
		}
	}
	return NewChain(log, providers...), nil
}
