package app

import (
	"github.com/kbukum/verbatim/audio"
	"github.com/kbukum/verbatim/auth"
	"github.com/kbukum/verbatim/config"
	"github.com/kbukum/verbatim/job"
	"github.com/kbukum/verbatim/llm"
	"github.com/kbukum/verbatim/observability"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/refine"
	"github.com/kbukum/verbatim/secret"
	"github.com/kbukum/verbatim/server"
	"github.com/kbukum/verbatim/storage"
	"github.com/kbukum/verbatim/validation"
)

// ServiceName is the config and binary name.
const ServiceName = "verbatim"

// Config is the full service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Audio         audio.Config         `yaml:"audio" mapstructure:"audio"`
	Recognition   recognition.Config   `yaml:"recognition" mapstructure:"recognition"`
	Refinement    refine.Config        `yaml:"refinement" mapstructure:"refinement"`
	Jobs          job.Config           `yaml:"jobs" mapstructure:"jobs"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Secrets       secret.Config        `yaml:"secrets" mapstructure:"secrets"`
}

// Load reads configuration for the service. path and envFile may be empty
// to use discovery.
func Load(path, envFile string) (*Config, error) {
	var cfg Config
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	if err := config.LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Recognition.ApplyDefaults()
	c.Refinement.ApplyDefaults()
	c.Jobs.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Secrets.ApplyDefaults()
}

// Validate runs the struct tags and every section's own checks, and
// reports all failures together.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("config", validation.Validate(c))
	v.Merge("service", c.ServiceConfig.Validate())
	v.Merge("server", c.Server.Validate())
	v.Merge("storage", c.Storage.Validate())
	v.Merge("audio", c.Audio.Validate())
	v.Merge("recognition", c.Recognition.Validate())
	v.Merge("refinement", c.Refinement.Validate())
	v.Merge("jobs", c.Jobs.Validate())
	v.Merge("auth", c.Auth.Validate())
	v.Merge("observability", c.Observability.Validate())

	v.OneOf("refinement.dialect", c.Refinement.LLM.Dialect, llm.Dialects())
	v.URL("refinement.base_url", c.Refinement.LLM.BaseURL)
	if c.Recognition.Backend == recognition.BackendSidecar {
		v.Required("recognition.sidecar.whisper_url", c.Recognition.Sidecar.WhisperURL)
		v.URL("recognition.sidecar.whisper_url", c.Recognition.Sidecar.WhisperURL)
		v.URL("recognition.sidecar.pyannote_url", c.Recognition.Sidecar.PyannoteURL)
	}
	for _, p := range c.Secrets.Providers {
		v.OneOf("secrets.providers", p, []string{secret.ProviderEnv, secret.ProviderFile, secret.ProviderSecretManager})
	}
	return v.Err()
}
