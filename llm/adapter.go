package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/httpclient/rest"
	"github.com/kbukum/verbatim/resilience"
)

var (
	ErrNoDialect = errors.New("llm: dialect is required")
	// ErrEmptyCompletion is returned when the provider answered without text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Adapter sends completion requests through a Dialect.
type Adapter struct {
	rest    *rest.Client
	dialect Dialect
	cfg     Config
	breaker *resilience.CircuitBreaker
}

// New creates an adapter for the registered dialect named in cfg.
func New(cfg Config) (*Adapter, error) {
	d, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg)
}

// NewWithDialect creates an adapter with an explicit dialect.
func NewWithDialect(d Dialect, cfg Config) (*Adapter, error) {
	if d == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults(d)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm: base_url is required for dialect %s", d.Name())
	}

	client, err := rest.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: cfg.Headers,
		Auth:    d.Auth(cfg.APIKey),
		Retry:   cfg.Retry,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create rest client: %w", err)
	}

	a := &Adapter{rest: client, dialect: d, cfg: cfg}
	if cfg.CircuitBreaker != nil {
		a.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return a, nil
}

// Name returns the dialect name.
func (a *Adapter) Name() string { return a.dialect.Name() }

// Model returns the default model.
func (a *Adapter) Model() string { return a.cfg.Model }

// IsAvailable probes the dialect's health endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := rest.Get[json.RawMessage](ctx, a.rest, hp)
	return err == nil
}

// Execute sends req and returns the completion. Empty completions are
// reported as ErrEmptyCompletion.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.Model == "" {
		req.Model = a.cfg.Model
	}
	if req.Temperature == 0 {
		req.Temperature = a.cfg.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.cfg.MaxTokens
	}

	var out CompletionResponse
	call := func() error {
		var err error
		out, err = a.execute(ctx, req)
		return err
	}
	var err error
	if a.breaker != nil {
		err = a.breaker.Execute(call)
	} else {
		err = call()
	}
	return out, err
}

func (a *Adapter) execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	resp, err := rest.Post[json.RawMessage](ctx, a.rest, a.dialect.ChatPath(req.Model), body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: %s: %w", a.dialect.Name(), err)
	}

	result, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	if result.Content == "" {
		if result.FinishReason != "" {
			return *result, fmt.Errorf("%w (finish reason %s)", ErrEmptyCompletion, result.FinishReason)
		}
		return *result, ErrEmptyCompletion
	}
	return *result, nil
}
