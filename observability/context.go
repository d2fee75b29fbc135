package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stage tracks one pipeline stage: a span named "job.<stage>" and a
// stage.duration sample.
type Stage struct {
	ctx     context.Context
	name    string
	span    trace.Span
	metrics *Metrics
	start   time.Time
}

// StartStage opens a stage for jobID. metrics may be nil.
func StartStage(ctx context.Context, metrics *Metrics, jobID, name string) (context.Context, *Stage) {
	ctx, span := StartSpan(ctx, "job."+name, trace.WithAttributes(
		attribute.String(AttrJobID, jobID),
		attribute.String(AttrStage, name),
	))
	return ctx, &Stage{ctx: ctx, name: name, span: span, metrics: metrics, start: time.Now()}
}

// Name returns the stage name.
func (s *Stage) Name() string { return s.name }

// End closes the stage, recording err when non-nil.
func (s *Stage) End(err error) time.Duration {
	elapsed := time.Since(s.start)
	status := "ok"
	if err != nil {
		status = "error"
		SetSpanError(s.ctx, err)
	}
	s.span.SetAttributes(attribute.String(AttrStatus, status))
	s.span.End()
	s.metrics.recordStage(s.ctx, s.name, status, elapsed.Seconds())
	return elapsed
}
