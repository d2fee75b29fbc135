package audio

import (
	"fmt"
	"strings"
	"time"
)

// Config controls normalization.
type Config struct {
	FFmpegPath  string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
	SampleRate  int    `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=8000,lte=48000"`
	Channels    int    `yaml:"channels" mapstructure:"channels" validate:"gte=1,lte=2"`
	// Codec is the ffmpeg audio encoder; the output container follows it.
	Codec string `yaml:"codec" mapstructure:"codec" validate:"oneof=flac pcm_s16le"`
	// DenyExtensions are rejected before any conversion is attempted.
	DenyExtensions []string `yaml:"deny_extensions" mapstructure:"deny_extensions"`
	// AllowExtensions, when non-empty, is the only set accepted.
	AllowExtensions []string `yaml:"allow_extensions" mapstructure:"allow_extensions"`
	// TempDir holds per-job scratch directories. Empty means os.TempDir.
	TempDir string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.Codec == "" {
		c.Codec = "flac"
	}
	if c.DenyExtensions == nil {
		c.DenyExtensions = []string{".wma"}
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Minute
	}
	c.DenyExtensions = normalizeExts(c.DenyExtensions)
	c.AllowExtensions = normalizeExts(c.AllowExtensions)
}

// Validate rejects an extension that is both allowed and denied.
func (c *Config) Validate() error {
	for _, a := range c.AllowExtensions {
		for _, d := range c.DenyExtensions {
			if a == d {
				return fmt.Errorf("audio: extension %s is both allowed and denied", a)
			}
		}
	}
	return nil
}

// Extension is the container extension of normalized output.
func (c *Config) Extension() string {
	if c.Codec == "pcm_s16le" {
		return ".wav"
	}
	return ".flac"
}

// Encoding names the normalized sample encoding the way speech APIs do:
// FLAC or LINEAR16.
func (c *Config) Encoding() string {
	if c.Codec == "pcm_s16le" {
		return "LINEAR16"
	}
	return "FLAC"
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
