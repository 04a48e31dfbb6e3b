package stategraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/stategraph/pkg/stategraph/observability"
)

// Context provides execution context to nodes and routers.
// It extends context.Context with run metadata and a logger.
//
// Context is immutable after creation. The executor derives a context for
// each node with the node ID, step number and an enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string before execution starts.
	NodeID() string

	// Step returns the 1-based invocation number of the current node.
	Step() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
	step   int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// Step returns the current step number.
func (c *executionContext) Step() int {
	return c.step
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id, node_id, and step during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := stategraph.NewContext(context.Background(),
//	    stategraph.WithLogger(myLogger),
//	    stategraph.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// newRunContext returns the context for one run. parent carries
// cancellation and, when tracing is enabled, the run span.
func newRunContext(parent context.Context, logger *slog.Logger, runID string) *executionContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &executionContext{
		Context: parent,
		logger:  logger,
		runID:   runID,
	}
}

// withNode returns a new context for one node invocation.
// parent is normally the run context or a node span derived from it.
func (c *executionContext) withNode(parent context.Context, nodeID string, step int) *executionContext {
	return &executionContext{
		Context: parent,
		logger:  observability.EnrichLogger(c.logger, c.runID, nodeID, step),
		runID:   c.runID,
		nodeID:  nodeID,
		step:    step,
	}
}
