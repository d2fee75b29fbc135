package job

import (
	"fmt"
	"time"
)

// Config tunes the orchestrator.
type Config struct {
	// MaxConcurrent bounds running jobs. Submissions beyond it are rejected.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=1"`
	// Retention is how long terminal jobs stay queryable. Zero keeps them.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
	// KeepNormalized keeps the normalized audio after the job finishes.
	KeepNormalized bool `yaml:"keep_normalized" mapstructure:"keep_normalized"`
	// ScratchDir holds uploads while their digest is computed.
	ScratchDir string `yaml:"scratch_dir" mapstructure:"scratch_dir"`
	// NormalizedExt names normalized objects. It follows the audio codec
	// and is set at wiring time.
	NormalizedExt string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 8
	}
	if c.NormalizedExt == "" {
		c.NormalizedExt = ".flac"
	}
}

// Validate checks the bounds.
func (c *Config) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("jobs: max_concurrent must be at least 1")
	}
	if c.Retention < 0 {
		return fmt.Errorf("jobs: retention must not be negative")
	}
	return nil
}
