package recognition

import (
	"fmt"
	"time"

	"github.com/kbukum/verbatim/security"
	"github.com/kbukum/verbatim/util"
)

const (
	BackendGoogle  = "google"
	BackendSidecar = "sidecar"
)

// Config selects and tunes the recognition back end.
type Config struct {
	Backend     string        `yaml:"backend" mapstructure:"backend" validate:"oneof=google sidecar"`
	Locale      string        `yaml:"locale" mapstructure:"locale"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MinSpeakers int           `yaml:"min_speakers" mapstructure:"min_speakers" validate:"gte=1"`
	MaxSpeakers int           `yaml:"max_speakers" mapstructure:"max_speakers" validate:"gtefield=MinSpeakers"`
	Diarize     *bool         `yaml:"diarize" mapstructure:"diarize"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// PollInterval is how often a long-running operation is checked.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Sidecar SidecarConfig `yaml:"sidecar" mapstructure:"sidecar"`
}

// GoogleConfig configures the Speech-to-Text REST back end.
type GoogleConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey and AccessToken are static alternatives to a token source.
	APIKey      string `yaml:"-" mapstructure:"-"`
	AccessToken string `yaml:"-" mapstructure:"-"`
	// TokenTTL is how long a resolved access token is reused before it is
	// resolved again.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// MaxInlineBytes caps the base64 audio sent in the request body. Larger
	// audio must be stored where it has a gs:// reference.
	MaxInlineBytes int64 `yaml:"max_inline_bytes" mapstructure:"max_inline_bytes"`
}

// DefaultMaxInlineBytes is the request content limit of the REST API.
const DefaultMaxInlineBytes = 10 << 20

// SidecarConfig configures the whisper and pyannote HTTP services.
type SidecarConfig struct {
	WhisperURL  string `yaml:"whisper_url" mapstructure:"whisper_url"`
	PyannoteURL string `yaml:"pyannote_url" mapstructure:"pyannote_url"`
	// TLS applies to both services.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGoogle
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.Model == "" {
		c.Model = "latest_long"
	}
	if c.MinSpeakers == 0 {
		c.MinSpeakers = 2
	}
	if c.MaxSpeakers == 0 {
		c.MaxSpeakers = 6
	}
	if c.Diarize == nil {
		c.Diarize = util.Ptr(true)
	}
	if c.Timeout == 0 {
		c.Timeout = 3 * time.Hour
	}
	if c.PollInterval == 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.Google.BaseURL == "" {
		c.Google.BaseURL = "https://speech.googleapis.com"
	}
	if c.Google.TokenTTL == 0 {
		c.Google.TokenTTL = 30 * time.Minute
	}
	if c.Google.MaxInlineBytes == 0 {
		c.Google.MaxInlineBytes = DefaultMaxInlineBytes
	}
	if c.Sidecar.WhisperURL == "" {
		c.Sidecar.WhisperURL = "http://localhost:9000"
	}
	if c.Sidecar.PyannoteURL == "" {
		c.Sidecar.PyannoteURL = "http://localhost:9001"
	}
}

// Validate checks ranges the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Timeout <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("recognition: timeout and poll_interval must be positive")
	}
	if c.PollInterval > c.Timeout {
		return fmt.Errorf("recognition: poll_interval %s exceeds timeout %s", c.PollInterval, c.Timeout)
	}
	if c.Google.TokenTTL < 0 || c.Google.MaxInlineBytes < 0 {
		return fmt.Errorf("recognition.google: token_ttl and max_inline_bytes must not be negative")
	}
	if err := c.Sidecar.TLS.Validate(); err != nil {
		return fmt.Errorf("recognition.sidecar: %w", err)
	}
	return nil
}

// Options derives the per-call options.
func (c *Config) Options() Options {
	return Options{
		Locale:      c.Locale,
		Model:       c.Model,
		MinSpeakers: c.MinSpeakers,
		MaxSpeakers: c.MaxSpeakers,
		Diarize:     util.Deref(c.Diarize, true),
	}
}
