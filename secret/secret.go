// Package secret resolves credentials through an ordered chain of
// providers. Services resolve once at startup and hand the value to the
// component that needs it.
package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/util"
)

// ErrNotFound means a provider has no value for the name.
var ErrNotFound = errors.New("secret: not found")

// Provider looks up one secret by name.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, name string) (string, error)
}

// Env reads secrets from environment variables.
type Env struct{}

func (Env) Name() string { return "env" }

func (Env) Lookup(_ context.Context, name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// File reads secrets from files named after the secret in Dir, the layout
// used by mounted secret volumes.
type File struct {
	Dir string
}

func (File) Name() string { return "file" }

func (f File) Lookup(_ context.Context, name string) (string, error) {
	if f.Dir == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", name, err)
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Chain asks each provider in order. Provider failures are logged and the
// next provider is tried.
type Chain struct {
	providers []Provider
	log       *logger.Logger
}

// NewChain creates a chain over providers.
func NewChain(log *logger.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log.WithComponent("secret")}
}

// Resolve returns the first non-empty value, or ErrNotFound.
func (c *Chain) Resolve(ctx context.Context, name string) (string, error) {
	for _, p := range c.providers {
		v, err := p.Lookup(ctx, name)
		switch {
		case err == nil && v != "":
			c.log.Debug("Secret resolved", logger.Fields(
				"secret", name, "provider", p.Name(), "value", util.MaskSecret(v, 4)))
			return v, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			c.log.Warn("Secret provider failed, trying next", logger.Fields(
				"secret", name, "provider", p.Name(), logger.FieldError, err.Error(),
			))
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
