// Package app wires the verbatim service from its configuration: storage,
// the pipeline stages, the job orchestrator, the event hub and the HTTP
// routes.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/api"
	"github.com/kbukum/verbatim/audio"
	"github.com/kbukum/verbatim/auth"
	"github.com/kbukum/verbatim/component"
	"github.com/kbukum/verbatim/job"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/observability"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/recognition/google"
	"github.com/kbukum/verbatim/recognition/sidecar"
	"github.com/kbukum/verbatim/refine"
	"github.com/kbukum/verbatim/secret"
	"github.com/kbukum/verbatim/server"
	"github.com/kbukum/verbatim/server/middleware"
	"github.com/kbukum/verbatim/sse"
	"github.com/kbukum/verbatim/storage"
	"github.com/kbukum/verbatim/version"

	_ "github.com/kbukum/verbatim/storage/local"
	_ "github.com/kbukum/verbatim/storage/s3"
)

// Secret names consulted for Google Speech credentials. A token wins over
// a key.
const (
	SecretGoogleAccessToken = "GOOGLE_ACCESS_TOKEN"
	SecretGoogleAPIKey      = "GOOGLE_API_KEY"
)

// EventsPath is the job event stream route.
const EventsPath = "/api/v1/jobs/:id/events"

// Service holds the wired collaborators.
type Service struct {
	Config     *Config
	Storage    storage.Storage
	Normalizer *audio.Normalizer
	Recognizer recognition.Recognizer
	Refiner    *refine.Refiner
	Jobs       *job.Orchestrator
	// Events is nil unless WithEvents was given.
	Events *sse.Component
	// Auth is nil when auth is disabled.
	Auth    *auth.Service
	Metrics *observability.Metrics

	log *logger.Logger
}

type options struct {
	events     bool
	chain      *secret.Chain
	normalizer job.Normalizer
	recognizer recognition.Recognizer
	refiner    *refine.Refiner
}

// Option configures Wire.
type Option func(*options)

// WithEvents adds the SSE hub and publishes job events to it.
func WithEvents() Option { return func(o *options) { o.events = true } }

// WithSecretChain replaces the chain built from the secrets section.
func WithSecretChain(c *secret.Chain) Option { return func(o *options) { o.chain = c } }

// WithNormalizer replaces the ffmpeg normalizer in the job pipeline.
// Service.Normalizer stays available for probing.
func WithNormalizer(n job.Normalizer) Option { return func(o *options) { o.normalizer = n } }

// WithRecognizer replaces the configured recognition back end.
func WithRecognizer(r recognition.Recognizer) Option {
	return func(o *options) { o.recognizer = r }
}

// WithRefiner replaces the configured refiner.
func WithRefiner(r *refine.Refiner) Option { return func(o *options) { o.refiner = r } }

// Wire builds the service and registers its components on reg in start
// order: telemetry, storage, events, jobs. Secrets are resolved here, once.
func Wire(ctx context.Context, cfg *Config, reg *component.Registry, log *logger.Logger, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &Service{Config: cfg, log: log}

	telemetry := observability.NewComponent(cfg.Observability, observability.Service{
		Name:        cfg.Name,
		Version:     serviceVersion(cfg),
		Environment: cfg.Environment,
	}, log)
	if err := reg.Register(telemetry); err != nil {
		return nil, err
	}
	s.Metrics = observability.MustMetrics()

	chain := o.chain
	if chain == nil {
		var err error
		if chain, err = cfg.Secrets.Build(log); err != nil {
			return nil, err
		}
	}

	storeComp := storage.NewComponent(cfg.Storage, log)
	store, err := storeComp.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(storeComp); err != nil {
		return nil, err
	}
	s.Storage = store
	s.Normalizer = audio.NewNormalizer(cfg.Audio, store, log)

	s.Recognizer = o.recognizer
	if s.Recognizer == nil {
		if s.Recognizer, err = newRecognizer(ctx, cfg.Recognition, store, chain, log); err != nil {
			return nil, err
		}
	}

	s.Refiner = o.refiner
	if s.Refiner == nil {
		key := resolve(ctx, chain, cfg.Refinement.APIKeySecret)
		metrics := s.Metrics
		s.Refiner, err = refine.NewFromConfig(cfg.Refinement, key, log,
			refine.WithFallbackHook(func(error) { metrics.RefineFallback(context.Background()) }))
		if err != nil {
			return nil, err
		}
	}

	var publisher job.Publisher
	if o.events {
		s.Events = sse.NewComponent(EventsPath, log)
		if err := reg.Register(s.Events); err != nil {
			return nil, err
		}
		publisher = sse.NewJobPublisher(s.Events.Hub())
	}

	var normalizer job.Normalizer = s.Normalizer
	if o.normalizer != nil {
		normalizer = o.normalizer
	}
	jobsCfg := cfg.Jobs
	jobsCfg.NormalizedExt = cfg.Audio.Extension()
	s.Jobs = job.New(jobsCfg, job.Deps{
		Store:      store,
		Normalizer: normalizer,
		Recognizer: s.Recognizer,
		Refiner:    s.Refiner,
		Options:    recognitionOptions(cfg),
		Publisher:  publisher,
		Metrics:    s.Metrics,
	}, log)
	if err := reg.Register(s.Jobs); err != nil {
		return nil, err
	}

	if cfg.Auth.Enabled {
		key := cfg.Auth.Secret
		if key == "" {
			key = resolve(ctx, chain, cfg.Auth.SecretName)
		}
		if s.Auth, err = auth.NewService(cfg.Auth, key); err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
	}

	log.Info("Pipeline wired", logger.Fields(
		"recognizer", s.Recognizer.Name(),
		"refinement", s.Refiner.Enabled(),
		"storage", cfg.Storage.Provider,
		"auth", cfg.Auth.Describe(),
	))
	return s, nil
}

// HTTP builds the server with the job routes and the operational
// endpoints, and registers it last so it stops first.
func (s *Service) HTTP(reg *component.Registry) (*server.Server, error) {
	srv := server.New(s.Config.Server, s.log)

	var guard []gin.HandlerFunc
	if s.Auth != nil {
		guard = append(guard, middleware.Auth(s.Auth))
	}
	var hub *sse.Hub
	if s.Events != nil {
		hub = s.Events.Hub()
	}
	api.NewHandler(s.Jobs, hub, s.log).Register(srv.Engine(), guard...)

	srv.RegisterDefaultEndpoints(s.Config.Name, reg.HealthAll, map[string]any{
		"recognizer": s.Recognizer.Name(),
		"refinement": s.Refiner.Enabled(),
		"storage":    s.Config.Storage.Provider,
		"auth":       s.Config.Auth.Describe(),
	})
	if err := reg.Register(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	return srv, nil
}

func newRecognizer(ctx context.Context, cfg recognition.Config, store storage.Storage, chain *secret.Chain, log *logger.Logger) (recognition.Recognizer, error) {
	switch cfg.Backend {
	case recognition.BackendSidecar:
		return sidecar.New(cfg, store, log)
	case recognition.BackendGoogle, "":
		cfg.ApplyDefaults()
		var opts []google.Option
		tokens := secret.NewTokenSource(chain, SecretGoogleAccessToken, cfg.Google.TokenTTL)
		if _, err := tokens.Token(ctx); err == nil {
			opts = append(opts, google.WithTokenSource(tokens))
		} else {
			cfg.Google.APIKey = resolve(ctx, chain, SecretGoogleAPIKey)
			if cfg.Google.APIKey == "" {
				log.Warn("No Google Speech credentials resolved, requests will be unauthenticated")
			}
		}
		if !strings.HasPrefix(store.Ref(""), "gs://") {
			log.Warn("Storage has no gs:// references, audio is sent inline and long recordings will be rejected",
				logger.Fields("max_inline_bytes", cfg.Google.MaxInlineBytes))
		}
		return google.New(cfg, store, log, opts...)
	default:
		return nil, fmt.Errorf("recognition: unknown backend %q", cfg.Backend)
	}
}

// recognitionOptions adds the normalized audio format to the recognition
// settings.
func recognitionOptions(cfg *Config) recognition.Options {
	opts := cfg.Recognition.Options()
	opts.Encoding = cfg.Audio.Encoding()
	opts.SampleRate = cfg.Audio.SampleRate
	opts.Channels = cfg.Audio.Channels
	return opts
}

// resolve returns the secret or "" when no provider has it. Provider
// failures are logged by the chain.
func resolve(ctx context.Context, chain *secret.Chain, name string) string {
	if name == "" {
		return ""
	}
	v, err := chain.Resolve(ctx, name)
	if err != nil {
		return ""
	}
	return v
}

func serviceVersion(cfg *Config) string {
	if cfg.Version != "" {
		return cfg.Version
	}
	return version.Get().Version
}
