package storage

import (
	"errors"
	"fmt"
)

const (
	ProviderLocal  = "local"
	ProviderS3     = "s3"
	ProviderGCS    = "gcs"
	ProviderMemory = "memory"
)

// GCSEndpoint is the S3 interoperability endpoint of Google Cloud Storage.
const GCSEndpoint = "https://storage.googleapis.com"

const (
	DefaultProvider    = ProviderLocal
	DefaultBasePath    = "./data"
	DefaultRegion      = "us-east-1"
	DefaultMaxFileSize = int64(512 * 1024 * 1024)
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the backend: "local", "s3", "gcs" or "memory". gcs
	// talks to Cloud Storage through its S3 API with HMAC keys, so objects
	// get gs:// references that Google Speech can read directly.
	Provider string `yaml:"provider" mapstructure:"provider" validate:"oneof=local s3 gcs memory"`

	// BasePath is the root directory for local storage.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Region string `yaml:"region" mapstructure:"region"`
	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	// RefScheme is the scheme of object references: "s3" for s3, "gs" for
	// gcs. Set it to "gs" for an s3 provider pointed at a Cloud Storage
	// endpoint.
	RefScheme string `yaml:"ref_scheme" mapstructure:"ref_scheme"`

	// MaxFileSize is the largest upload accepted, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Provider == ProviderGCS {
		if c.Endpoint == "" {
			c.Endpoint = GCSEndpoint
		}
		if c.RefScheme == "" {
			c.RefScheme = "gs"
		}
		if c.Region == DefaultRegion {
			c.Region = "auto"
		}
	}
	if c.RefScheme == "" {
		c.RefScheme = "s3"
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3, ProviderGCS:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("region is required"))
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			errs = append(errs, errors.New("access_key and secret_key must be set together"))
		}
		if c.Provider == ProviderGCS && c.AccessKey == "" {
			errs = append(errs, errors.New("access_key and secret_key (HMAC) are required for gcs"))
		}
		if c.RefScheme != "s3" && c.RefScheme != "gs" {
			errs = append(errs, fmt.Errorf("ref_scheme %q must be s3 or gs", c.RefScheme))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid %s config: %w", c.Provider, errors.Join(errs...))
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
