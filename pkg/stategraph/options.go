package stategraph

import (
	"log/slog"

	"github.com/randalmurphal/stategraph/pkg/stategraph/observability"
)

// DefaultMaxSteps is the step budget used when WithMaxSteps is not given.
const DefaultMaxSteps = 1000

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxSteps    int
	runID       string
	graphName   string
	concurrency int

	// Observability
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxSteps: DefaultMaxSteps,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxSteps sets the maximum number of node invocations.
// Default: 1000
//
// This prevents cyclic graphs from running forever. A run that needs
// invocation n+1 stops with a *StepLimitError.
//
// Example:
//
//	result, err := compiled.Run(ctx, input, stategraph.WithMaxSteps(100))
func WithMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithRunID overrides the run identifier taken from the Context.
// Batch derives per-input identifiers from it ("<id>-<index>").
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithGraphName overrides the graph name reported in logs, metrics and traces.
func WithGraphName(name string) RunOption {
	return func(c *runConfig) {
		c.graphName = name
	}
}

// WithObservabilityLogger enables run and node lifecycle logging.
// A nil logger disables it.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder records metrics through rec, such as a
// *observability.PrometheusMetrics. A nil rec disables metrics.
func WithMetricsRecorder(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec == nil {
			c.metricsEnabled = false
			c.metrics = observability.NoopMetrics{}
			return
		}
		c.metricsEnabled = true
		c.metrics = rec
	}
}

// WithTracing enables OpenTelemetry tracing through the global tracer provider.
// Each run gets a "stategraph.run" span with one child span per node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager traces runs through spans, such as one bound to a
// dedicated tracer provider. A nil spans disables tracing.
func WithSpanManager(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans == nil {
			c.tracingEnabled = false
			c.spans = observability.NoopSpanManager{}
			return
		}
		c.tracingEnabled = true
		c.spans = spans
	}
}

// WithConcurrency bounds how many runs Batch executes at once.
// Zero or negative means no limit.
func WithConcurrency(n int) RunOption {
	return func(c *runConfig) {
		c.concurrency = n
	}
}
