package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/verbatim/component"
	"github.com/kbukum/verbatim/logger"
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop. A disabled config leaves the no-op providers in place.
type Component struct {
	cfg Config
	svc Service
	log *logger.Logger
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, svc Service, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, svc: svc, log: log.WithComponent("observability")}
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg, c.svc)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg, c.svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.tp, c.mp = tp, mp
	c.log.Info("Telemetry export enabled", logger.Fields("endpoint", c.cfg.Endpoint, "sample_rate", c.cfg.SampleRate))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (c *Component) Health(context.Context) component.Health {
	msg := "disabled"
	if c.cfg.Enabled {
		msg = "exporting to " + c.cfg.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("OTLP %s (sample %.2f)", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "otel", Details: details}
}
