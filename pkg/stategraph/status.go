package stategraph

// Status is the lifecycle state of a run.
type Status int

const (
	// StatusPending means the run has not started.
	StatusPending Status = iota
	// StatusRunning means a node is executing.
	StatusRunning
	// StatusRouting means the executor is choosing the next node.
	StatusRouting
	// StatusCompleted means the run reached END.
	StatusCompleted
	// StatusFailed means a fatal error aborted the run.
	StatusFailed
	// StatusCancelled means the run's context ended before it completed.
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusRouting:
		return "routing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Result is the outcome of a run.
type Result struct {
	// RunID identifies the run.
	RunID string
	// State is the final state. On failure or cancellation it is the last
	// fully merged state.
	State State
	// Status is the terminal status.
	Status Status
	// Steps is the number of node invocations performed.
	Steps int
	// Path lists the invoked nodes in order.
	Path []string
}

// LastNode returns the last invoked node, or "" if none ran.
func (r *Result) LastNode() string {
	if r == nil || len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}
