// Package observability provides structured logging, metrics and
// distributed tracing for stategraph runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id, node_id, and step fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "grade", 3)
//	enriched.Info("grading documents") // includes run_id, node_id, step
func EnrichLogger(logger *slog.Logger, runID, nodeID string, step int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, graphName, runID string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("graph", graphName),
		slog.String("run_id", runID),
	)
}

// LogRunComplete logs successful graph run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunCancelled logs a run stopped by its context.
func LogRunCancelled(logger *slog.Logger, runID string, nodeID string, steps int) {
	if logger == nil {
		return
	}
	logger.Warn("graph run cancelled",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.Int("steps", steps),
	)
}

// LogRunError logs graph run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogNodeComplete logs successful node completion with the fields it wrote.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64, fields []string) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
		slog.Any("fields", fields),
	)
}

// LogNodeError logs node execution error.
// Recoverable errors are logged at warn level since the run continues.
func LogNodeError(logger *slog.Logger, nodeID string, err error, recoverable bool) {
	if logger == nil {
		return
	}
	level := slog.LevelError
	if recoverable {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
		slog.Bool("recoverable", recoverable),
	)
}

// LogRoute logs a routing decision.
// key is the router's return value; it is empty for static edges.
func LogRoute(logger *slog.Logger, from, key, to string) {
	if logger == nil {
		return
	}
	logger.Debug("route selected",
		slog.String("from", from),
		slog.String("key", key),
		slog.String("to", to),
	)
}

// TimedOperation starts a timer. The returned function reports the time
// elapsed since TimedOperation was called.
//
// Example:
//
//	elapsed := TimedOperation()
//	// ... do work ...
//	metrics.RecordNodeExecution(ctx, nodeID, elapsed(), err)
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
