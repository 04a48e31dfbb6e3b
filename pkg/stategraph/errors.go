package stategraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for schema and graph construction.
var (
	// ErrEmptyName indicates a node or field was declared without a name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrReservedName indicates a node name collides with START or END.
	ErrReservedName = errors.New("name is reserved")

	// ErrDuplicateNode indicates a node name was registered twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrDuplicateField indicates a schema field was declared twice.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrNilFunc indicates a nil node or router function.
	ErrNilFunc = errors.New("function cannot be nil")

	// ErrUnknownField indicates a write to a field the schema does not declare.
	ErrUnknownField = errors.New("unknown state field")

	// ErrUnknownReducer indicates a reducer name missing from a ReducerRegistry.
	ErrUnknownReducer = errors.New("unknown reducer")
)

// Sentinel errors reported by Compile.
var (
	// ErrNoSchema indicates the graph was created without a state schema.
	ErrNoSchema = errors.New("state schema not set")

	// ErrNoEntryPoint indicates no edge originates at START.
	ErrNoEntryPoint = errors.New("no edge from START")

	// ErrNodeNotFound indicates an edge references a node that is not registered.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidEdge indicates an edge leaving END or entering START.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrAmbiguousEdges indicates a source with more than one applicable edge.
	ErrAmbiguousEdges = errors.New("ambiguous outgoing edges")

	// ErrInvalidRoute indicates a route map value that is neither a node nor END.
	ErrInvalidRoute = errors.New("route target not found")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyRoute indicates a router returned an empty key.
	ErrEmptyRoute = errors.New("router returned empty key")

	// ErrUnmappedRoute indicates a router returned a key that is neither
	// in the route map nor a destination name.
	ErrUnmappedRoute = errors.New("router returned unmapped key")

	// ErrStepLimitExceeded indicates the run exhausted its step budget.
	ErrStepLimitExceeded = errors.New("step limit exceeded")
)

// ConfigurationError reports an invalid build-time declaration such as a
// duplicate node name or an override for an undeclared field.
type ConfigurationError struct {
	// Op is the declaration that failed ("add_node", "new_schema", "initialize").
	Op string
	// Name is the node or field name involved.
	Name string
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// GraphValidationError aggregates every problem found by Compile.
type GraphValidationError struct {
	Issues []error
}

// Error implements the error interface.
func (e *GraphValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("graph validation failed (%d issues): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Unwrap exposes every issue to errors.Is and errors.As.
func (e *GraphValidationError) Unwrap() []error {
	return e.Issues
}

// ReducerError wraps a reducer failure with the field it was merging.
type ReducerError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ReducerError) Error() string {
	return fmt.Sprintf("reduce field %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ReducerError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error with node context.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Op is the operation that failed ("execute" or "merge").
	Op string
	// Err is the underlying error from the node.
	Err error
	// Recoverable reports whether the node classified the error as recoverable.
	Recoverable bool
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from node execution.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError reports a run stopped by its context.
// State is the last fully merged state, never a partial one.
type CancellationError struct {
	// NodeID is the node that was about to execute or was executing.
	NodeID string
	// State is the last fully merged state.
	State State
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
	// WasExecuting is true if the node was in flight when the context ended.
	WasExecuting bool
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.WasExecuting {
		return fmt.Sprintf("cancelled during node %s: %v", e.NodeID, e.Cause)
	}
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// RoutingError reports a conditional edge that could not be resolved.
type RoutingError struct {
	// From is the node owning the conditional edge.
	From string
	// Key is the value the router returned.
	Key string
	// Err is ErrEmptyRoute or ErrUnmappedRoute.
	Err error
}

// Error implements the error interface.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.From, e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RoutingError) Unwrap() error {
	return e.Err
}

// StepLimitError reports a run that exhausted its step budget.
type StepLimitError struct {
	// Limit is the configured step budget.
	Limit int
	// Steps is the number of node invocations performed.
	Steps int
	// LastNode is the last node that executed.
	LastNode string
	// NextNode is the node that would have executed next.
	NextNode string
	// State is the state at termination.
	State State
}

// Error implements the error interface.
func (e *StepLimitError) Error() string {
	return fmt.Sprintf("step limit %d exceeded after %d steps (last node %s, next %s)",
		e.Limit, e.Steps, e.LastNode, e.NextNode)
}

// Unwrap returns ErrStepLimitExceeded for errors.Is support.
func (e *StepLimitError) Unwrap() error {
	return ErrStepLimitExceeded
}

// recoverableError marks a node error as recoverable.
type recoverableError struct {
	err error
}

func (e *recoverableError) Error() string { return e.err.Error() }
func (e *recoverableError) Unwrap() error { return e.err }

// Recoverable marks err as a recoverable node failure. When the graph declares
// an error field or a fallback for the node, the executor records the failure
// in state instead of aborting the run.
// Returns nil if err is nil.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	if IsRecoverable(err) {
		return err
	}
	return &recoverableError{err: err}
}

// IsRecoverable reports whether err was marked with Recoverable.
func IsRecoverable(err error) bool {
	var re *recoverableError
	return errors.As(err, &re)
}
