package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/verbatim/component"
	"github.com/kbukum/verbatim/logger"
)

const healthProbeKey = ".health"

// Component wraps a Storage backend for the component registry.
type Component struct {
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component; the backend is built by Open
// or Start, whichever runs first.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

// Open builds the backend once. Collaborators constructed before the
// registry starts call it to get their handle.
func (c *Component) Open(ctx context.Context) (Storage, error) {
	if c.storage != nil {
		return c.storage, nil
	}
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return nil, fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return s, nil
}

func (c *Component) Start(ctx context.Context) error {
	_, err := c.Open(ctx)
	return err
}

func (c *Component) Stop(context.Context) error { return nil }

// Health probes the backend with an existence check on a fixed key.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.Exists(ctx, healthProbeKey); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("health probe failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	switch c.cfg.Provider {
	case ProviderS3:
		details += " bucket=" + c.cfg.Bucket
	case ProviderLocal:
		details += " path=" + c.cfg.BasePath
	}
	return component.Description{Type: "storage", Details: details}
}
