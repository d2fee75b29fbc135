package recognition

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	opts := cfg.Options()
	if opts.Locale != "en-US" || opts.MinSpeakers != 2 || opts.MaxSpeakers != 6 || !opts.Diarize {
		t.Errorf("options = %+v", opts)
	}
	if cfg.Timeout != 3*time.Hour || cfg.PollInterval != 15*time.Second {
		t.Errorf("timing = %s / %s", cfg.Timeout, cfg.PollInterval)
	}
	if cfg.Google.TokenTTL != 30*time.Minute || cfg.Google.MaxInlineBytes != DefaultMaxInlineBytes {
		t.Errorf("google = %+v", cfg.Google)
	}
}

func TestConfigDiarizeOff(t *testing.T) {
	off := false
	cfg := Config{Diarize: &off}
	cfg.ApplyDefaults()
	if cfg.Options().Diarize {
		t.Error("explicit false must survive defaults")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"poll longer than timeout", Config{Timeout: time.Second, PollInterval: time.Minute}, "exceeds timeout"},
		{"negative timeout", Config{Timeout: -1, PollInterval: time.Second}, "must be positive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("503")
	err := error(&Error{Backend: "google", Message: "service unavailable", Err: cause})
	if err.Error() != "recognition failed (google): service unavailable" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}

	te := &TimeoutError{Backend: "sidecar", After: 90 * time.Minute}
	if !strings.Contains(te.Error(), "1h30m0s") {
		t.Errorf("timeout message = %q", te.Error())
	}
}

func TestTag(t *testing.T) {
	a, b := Tag(1), Tag(1)
	if a == b || *a != *b {
		t.Error("Tag should return distinct pointers to equal values")
	}
}
