package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_NodeExecutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg, "rag")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNodeExecution(ctx, "agent", 10*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "agent", 10*time.Millisecond, errors.New("boom"))
	m.RecordNodeExecution(ctx, "grade", 10*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.nodeExecutions.WithLabelValues("agent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodeExecutions.WithLabelValues("grade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodeErrors.WithLabelValues("agent")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.nodeDuration))
}

func TestPrometheusMetrics_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg, "")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRoute(ctx, "grade", "rewrite")
	m.RecordRoute(ctx, "grade", "rewrite")
	m.RecordRoute(ctx, "grade", "generate")

	expected := `
# HELP stategraph_route_decisions_total Total number of routing decisions
# TYPE stategraph_route_decisions_total counter
stategraph_route_decisions_total{from="grade",to="generate"} 1
stategraph_route_decisions_total{from="grade",to="rewrite"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stategraph_route_decisions_total"))
}

func TestPrometheusMetrics_GraphRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg, "")
	require.NoError(t, err)

	m.RecordGraphRun(context.Background(), "rag", "completed", 7, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphRuns.WithLabelValues("rag", "completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.graphSteps))
	assert.Equal(t, 1, testutil.CollectAndCount(m.graphDuration))
}

func TestPrometheusMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetrics(reg, "svc")
	require.NoError(t, err)

	_, err = NewPrometheusMetrics(reg, "svc")
	assert.ErrorContains(t, err, "register prometheus collector")

	_, err = NewPrometheusMetrics(reg, "other")
	assert.NoError(t, err, "a different namespace does not collide")
}
