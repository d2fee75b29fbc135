package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
func InitMeter(ctx context.Context, cfg Config, svc Service) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the pipeline instruments.
type Metrics struct {
	submitted     metric.Int64Counter
	completed     metric.Int64Counter
	failed        metric.Int64Counter
	rejected      metric.Int64Counter
	fallback      metric.Int64Counter
	active        metric.Int64UpDownCounter
	stageDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.submitted, "jobs.submitted", "Jobs accepted for processing"},
		{&m.completed, "jobs.completed", "Jobs that reached completed"},
		{&m.failed, "jobs.failed", "Jobs that reached failed, by stage"},
		{&m.rejected, "jobs.rejected", "Submissions refused by admission control"},
		{&m.fallback, "refine.fallback", "Refinements that fell back to the unrefined transcript"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	if m.active, err = meter.Int64UpDownCounter("jobs.active",
		metric.WithDescription("Jobs currently running"),
	); err != nil {
		return nil, fmt.Errorf("creating jobs.active counter: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram("stage.duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}
	return &m, nil
}

// MustMetrics is NewMetrics on the global meter. It returns nil if the
// instruments cannot be created; a nil *Metrics records nothing.
func MustMetrics() *Metrics {
	m, err := NewMetrics(Meter())
	if err != nil {
		return nil
	}
	return m
}

func (m *Metrics) JobSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

func (m *Metrics) JobCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.completed.Add(ctx, 1)
	m.active.Add(ctx, -1)
}

func (m *Metrics) JobFailed(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
	m.active.Add(ctx, -1)
}

func (m *Metrics) JobRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1)
}

func (m *Metrics) RefineFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.fallback.Add(ctx, 1)
}

func (m *Metrics) recordStage(ctx context.Context, stage, status string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrStatus, status),
	))
}
