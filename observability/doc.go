// Package observability wires OpenTelemetry tracing and metrics for the
// transcription pipeline.
//
// When disabled, the global no-op providers stay in place and every helper
// here is safe to call:
//
//	ctx, stage := observability.StartStage(ctx, metrics, jobID, "normalize")
//	ref, err := normalizer.Normalize(ctx, key, dest)
//	stage.End(err)
package observability
