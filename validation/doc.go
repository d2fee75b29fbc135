// Package validation checks configuration and request input.
//
// Struct tags are checked with go-playground/validator. Field paths in
// messages use the mapstructure key, so an error on
// Config.Recognition.MaxSpeakers reads "recognition.max_speakers".
//
//	type Config struct {
//	    MaxConcurrent int    `mapstructure:"max_concurrent" validate:"gte=1"`
//	    MaxBodySize   string `mapstructure:"max_body_size" validate:"omitempty,bytesize"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules that tags cannot express use the collecting Validator:
//
//	v := validation.New()
//	v.OneOf("storage.provider", cfg.Provider, []string{"local", "s3"})
//	err := v.Err()
package validation
