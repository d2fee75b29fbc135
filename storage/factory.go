package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/verbatim/logger"
)

// Factory creates a Storage backend from configuration.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderMemory: func(context.Context, Config, *logger.Logger) (Storage, error) {
			return NewMemory(), nil
		},
	}
)

// RegisterFactory makes a backend available to New. Backend packages call
// it from init, so import them for side effects:
//
//	import _ "github.com/kbukum/verbatim/storage/s3"
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New validates cfg and builds the backend it selects.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q is not registered", cfg.Provider)
	}

	log.Info("Initializing storage", logger.Fields("provider", cfg.Provider))
	return f(ctx, cfg, log)
}
