package stategraph

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/randalmurphal/stategraph/pkg/stategraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// stepHook observes each completed step. Returning false stops the run.
type stepHook func(StepEvent) bool

// Run executes the graph from START until a route reaches END.
//
// input seeds the state: every schema field takes its default and input
// values are merged in through the field reducers. An input key the schema
// does not declare is a *ConfigurationError and nothing runs.
//
// Execution flow:
//  1. Resolve the edge leaving the current node (START at first); a node
//     without an outgoing edge finishes the run
//  2. If the destination is END, the run completes
//  3. Check the step budget and cancellation
//  4. Invoke the destination with a snapshot of the state
//  5. Merge the returned update through the reducers and repeat
//
// Once execution has started Run always returns a non-nil *Result. On
// failure or cancellation Result.State is the last fully merged state.
//
// Example:
//
//	ctx := stategraph.NewContext(context.Background())
//	result, err := compiled.Run(ctx, map[string]any{"question": "what is X?"})
//	if err != nil {
//	    // result.State holds the state at the point of failure
//	}
func (cg *CompiledGraph) Run(ctx Context, input map[string]any, opts ...RunOption) (*Result, error) {
	return cg.run(ctx, input, newRunConfig(opts), nil)
}

func (cg *CompiledGraph) run(ctx Context, input map[string]any, cfg runConfig, hook stepHook) (result *Result, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	state, err := cg.schema.Initialize(input)
	if err != nil {
		return nil, err
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}
	graphName := cfg.graphName
	if graphName == "" {
		graphName = cg.name
	}

	elapsed := observability.TimedOperation()
	observability.LogRunStart(cfg.logger, graphName, runID)

	var parent context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		parent, runSpan = cfg.spans.StartRunSpan(ctx, graphName, runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	rc := newRunContext(parent, ctx.Logger(), runID)
	result = &Result{RunID: runID, State: state, Status: StatusPending}

	runErr = cg.execute(rc, result, &cfg, hook)

	duration := elapsed()
	durationMs := float64(duration.Milliseconds())

	cfg.metrics.RecordGraphRun(ctx, graphName, result.Status.String(), result.Steps, duration)

	switch result.Status {
	case StatusCompleted:
		observability.LogRunComplete(cfg.logger, runID, durationMs, result.Steps)
	case StatusCancelled:
		observability.LogRunCancelled(cfg.logger, runID, result.LastNode(), result.Steps)
	default:
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, result.LastNode())
	}

	return result, runErr
}

// execute drives the step loop, updating res in place.
func (cg *CompiledGraph) execute(rc *executionContext, res *Result, cfg *runConfig, hook stepHook) error {
	res.Status = StatusRouting
	next, err := cg.route(rc, START, res.State, 0, cfg)
	if err != nil {
		res.Status = StatusFailed
		return err
	}

	for {
		if next == END {
			res.Status = StatusCompleted
			return nil
		}

		if res.Steps >= cfg.maxSteps {
			res.Status = StatusFailed
			return &StepLimitError{
				Limit:    cfg.maxSteps,
				Steps:    res.Steps,
				LastNode: res.LastNode(),
				NextNode: next,
				State:    res.State,
			}
		}

		// Check for cancellation before executing node
		if err := rc.Err(); err != nil {
			res.Status = StatusCancelled
			return &CancellationError{
				NodeID: next,
				State:  res.State,
				Cause:  err,
			}
		}

		current := next
		res.Steps++
		res.Path = append(res.Path, current)
		res.Status = StatusRunning

		update, nodeErr := cg.executeNode(rc, current, res.Steps, res.State, cfg)

		var recovered error
		if nodeErr != nil {
			if err := rc.Err(); err != nil {
				res.Status = StatusCancelled
				return &CancellationError{
					NodeID:       current,
					State:        res.State,
					Cause:        err,
					WasExecuting: true,
				}
			}
			if !cg.canRecover(current, nodeErr) {
				res.Status = StatusFailed
				return cg.fatal(current, nodeErr)
			}
			recovered = nodeErr
			observability.LogNodeError(cfg.logger, current, nodeErr, true)
		}

		merged, err := cg.schema.Merge(res.State, update)
		if err == nil && recovered != nil && cg.errorField != "" {
			merged, err = cg.schema.Merge(merged, Update{cg.errorField: recovered.Error()})
		}
		if err != nil {
			res.Status = StatusFailed
			return &NodeError{NodeID: current, Op: "merge", Err: err}
		}
		res.State = merged

		res.Status = StatusRouting
		if fallback, ok := cg.fallbacks[current]; ok && recovered != nil {
			next = fallback
			cg.recordRoute(rc, cfg, current, "error", next)
		} else {
			next, err = cg.route(rc, current, res.State, res.Steps, cfg)
			if err != nil {
				res.Status = StatusFailed
				return err
			}
		}

		if hook != nil {
			event := StepEvent{
				Step:   res.Steps,
				Node:   current,
				Update: update,
				State:  res.State.Clone(),
				Next:   next,
				Err:    recovered,
			}
			if !hook(event) {
				res.Status = StatusCancelled
				return nil
			}
		}
	}
}

// executeNode runs one node with panic recovery, tracing and metrics.
// The node receives a snapshot, so nothing it does to its argument reaches
// the run's state.
func (cg *CompiledGraph) executeNode(rc *executionContext, nodeID string, step int, state State, cfg *runConfig) (Update, error) {
	observability.LogNodeStart(cfg.logger, nodeID, step)

	spanCtx := rc.Context
	var nodeSpan trace.Span
	if cfg.tracingEnabled {
		spanCtx, nodeSpan = cfg.spans.StartNodeSpan(rc.Context, nodeID, step)
	}

	elapsed := observability.TimedOperation()
	update, err := cg.invoke(rc.withNode(spanCtx, nodeID, step), nodeID, state.Clone())
	nodeDuration := elapsed()

	cfg.metrics.RecordNodeExecution(spanCtx, nodeID, nodeDuration, err)
	if cfg.tracingEnabled {
		cfg.spans.EndSpanWithError(nodeSpan, err)
	}

	if err == nil {
		observability.LogNodeComplete(cfg.logger, nodeID, float64(nodeDuration.Milliseconds()), sortedKeys(update))
	}
	return update, err
}

// invoke calls the node function, converting a panic into a *PanicError.
func (cg *CompiledGraph) invoke(ctx Context, nodeID string, snapshot State) (update Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	return cg.nodes[nodeID](ctx, snapshot)
}

// canRecover reports whether err can be recorded in state instead of
// aborting the run.
func (cg *CompiledGraph) canRecover(nodeID string, err error) bool {
	if !IsRecoverable(err) {
		return false
	}
	if cg.errorField != "" {
		return true
	}
	_, ok := cg.fallbacks[nodeID]
	return ok
}

// fatal wraps a node failure for return from Run.
func (cg *CompiledGraph) fatal(nodeID string, err error) error {
	if _, ok := err.(*PanicError); ok {
		return err
	}
	return &NodeError{
		NodeID:      nodeID,
		Op:          "execute",
		Err:         err,
		Recoverable: IsRecoverable(err),
	}
}

// route resolves the destination of the edge leaving from.
// A source without an outgoing edge routes to END.
func (cg *CompiledGraph) route(rc *executionContext, from string, state State, step int, cfg *runConfig) (string, error) {
	if to, ok := cg.edges[from]; ok {
		cg.recordRoute(rc, cfg, from, "", to)
		return to, nil
	}

	cond, ok := cg.conditionals[from]
	if !ok {
		cg.recordRoute(rc, cfg, from, "", END)
		return END, nil
	}

	key, err := cg.callRouter(rc.withNode(rc.Context, from, step), from, cond.router, state.Clone())
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", &RoutingError{From: from, Key: key, Err: ErrEmptyRoute}
	}

	if to, ok := cond.routes[key]; ok {
		cg.recordRoute(rc, cfg, from, key, to)
		return to, nil
	}
	if key == END || cg.HasNode(key) {
		cg.recordRoute(rc, cfg, from, key, key)
		return key, nil
	}

	return "", &RoutingError{From: from, Key: key, Err: ErrUnmappedRoute}
}

// callRouter invokes a router, converting a panic into a *PanicError.
func (cg *CompiledGraph) callRouter(ctx Context, from string, router RouterFunc, snapshot State) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				NodeID: from,
				Value:  fmt.Sprintf("router: %v", r),
				Stack:  string(debug.Stack()),
			}
		}
	}()

	return router(ctx, snapshot), nil
}

func (cg *CompiledGraph) recordRoute(rc *executionContext, cfg *runConfig, from, key, to string) {
	observability.LogRoute(cfg.logger, from, key, to)
	cfg.metrics.RecordRoute(rc, from, to)
	if cfg.tracingEnabled {
		cfg.spans.AddSpanEvent(rc.Context, "route", observability.RouteEvent(from, key, to)...)
	}
}
