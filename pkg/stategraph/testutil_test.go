package stategraph

import (
	"context"
	"sync"
)

// testSchema declares the fields used across tests.
func testSchema() *Schema {
	return MustSchema(
		Sequence("path"),
		Scalar("decision"),
		Scalar("score"),
		Scalar("count"),
		Mapping("meta"),
		Sequence("errors"),
	)
}

// visits counts node invocations; safe for concurrent runs.
type visits struct {
	mu     sync.Mutex
	counts map[string]int
	order  []string
}

func newVisits() *visits {
	return &visits{counts: make(map[string]int)}
}

func (v *visits) record(name string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counts[name]++
	v.order = append(v.order, name)
	return v.counts[name]
}

func (v *visits) count(name string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts[name]
}

func (v *visits) total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.order)
}

// tracking returns a node that appends its name to "path".
func tracking(name string, v *visits) NodeFunc {
	return func(_ Context, _ State) (Update, error) {
		if v != nil {
			v.record(name)
		}
		return Update{"path": name}, nil
	}
}

// failing returns a node that returns err.
func failing(err error) NodeFunc {
	return func(_ Context, _ State) (Update, error) {
		return nil, err
	}
}

// panicking returns a node that panics with value.
func panicking(value any) NodeFunc {
	return func(_ Context, _ State) (Update, error) {
		panic(value)
	}
}

// byField routes on the string value of field.
func byField(field string) RouterFunc {
	return func(_ Context, s State) string {
		v, _ := Get[string](s, field)
		return v
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background(), WithContextRunID("test-run"))
}

// mustCompile compiles g or panics.
func mustCompile(g *Graph) *CompiledGraph {
	cg, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return cg
}
