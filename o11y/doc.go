// Package o11y provides structured logging for policyopt, carried over
// from the Beluga AI framework's slog-based logging layer. Tracing,
// metrics, health checks, and LLM trace-exporting backends are not part
// of this package -- a synchronous, single-process batch CLI has no
// distributed spans or HTTP health endpoints to serve (SPEC_FULL.md §9
// Non-goals).
//
// [Logger] wraps slog.Logger with context-aware convenience methods and
// functional options for configuration:
//
//	logger := o11y.NewLogger(
//	    o11y.WithLogLevel("debug"),
//	    o11y.WithJSON(),
//	)
//	logger.Info(ctx, "run started", "run_id", runID, "name", cfg.Name)
//
// Loggers propagate through context via [WithLogger] and [FromContext].
package o11y
