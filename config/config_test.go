package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Jobs          struct {
		MaxConcurrent int    `mapstructure:"max_concurrent"`
		Locale        string `mapstructure:"locale"`
	} `mapstructure:"jobs"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "verbatim"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "verbatim" {
			t.Errorf("logging service name = %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "verbatim", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: verbatim
environment: staging
jobs:
  max_concurrent: 3
  locale: en-GB
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := LoadConfig("verbatim", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "verbatim" || cfg.Environment != "staging" {
		t.Errorf("base = %+v", cfg.ServiceConfig)
	}
	if cfg.Jobs.MaxConcurrent != 3 || cfg.Jobs.Locale != "en-GB" {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("name: verbatim\njobs:\n  max_concurrent: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBS_MAX_CONCURRENT", "11")

	var cfg testConfig
	if err := LoadConfig("verbatim", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Jobs.MaxConcurrent != 11 {
		t.Errorf("max_concurrent = %d, want 11", cfg.Jobs.MaxConcurrent)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("JOBS_LOCALE=fr-FR\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("JOBS_LOCALE") })

	var cfg testConfig
	if err := LoadConfig("verbatim", &cfg, WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Jobs.Locale != "fr-FR" {
		t.Errorf("locale = %q, want fr-FR", cfg.Jobs.Locale)
	}
}

type fakeFS struct {
	files map[string]bool
}

func (f fakeFS) Exists(path string) bool  { return f.files[path] }
func (f fakeFS) LoadEnv(path string) error { return nil }

func TestFirstExisting(t *testing.T) {
	fs := fakeFS{files: map[string]bool{"config.yml": true, filepath.Join("config", "config.yml"): true}}
	got := firstExisting(fs, configSearchPaths("verbatim"))
	if got != filepath.Join("config", "config.yml") {
		t.Errorf("firstExisting = %q", got)
	}
	if firstExisting(fakeFS{}, configSearchPaths("verbatim")) != "" {
		t.Error("expected no match")
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"PORT", []string{"port"}},
		{"JOBS_MAX_CONCURRENT", []string{"jobs_max_concurrent", "jobs.max.concurrent", "jobs.max_concurrent", "jobs_max.concurrent"}},
		{"STORAGE_BUCKET", []string{"storage_bucket", "storage.bucket"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := envKeyVariants(tt.key)
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("variants %v missing %q", got, w)
				}
			}
		})
	}
}
