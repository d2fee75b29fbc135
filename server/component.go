package server

import (
	"context"
	"strconv"

	"github.com/kbukum/verbatim/component"
)

// Component runs a Server under the component lifecycle.
type Component struct {
	server  *Server
	started bool
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps s.
func NewComponent(s *Server) *Component { return &Component{server: s} }

func (c *Component) Name() string { return "http-server" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}
	return c.server.Stop(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	cfg := c.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr() + " max_body=" + cfg.MaxBodySize + " h2c=" + strconv.FormatBool(true),
	}
}
