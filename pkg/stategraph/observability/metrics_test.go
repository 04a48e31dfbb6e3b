package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})

	return provider, reader
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValue totals an int64 counter over data points matching filter.
func sumValue(t *testing.T, rm *metricdata.ResourceMetrics, name string, filter ...attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", name, m.Data)

	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range filter {
			if v, ok := dp.Attributes.Value(kv.Key); !ok || v.Emit() != kv.Value.Emit() {
				match = false
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	provider, _ := setupMetricsTest(t)

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(original) })

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordNodeExecution(t *testing.T) {
	provider, reader := setupMetricsTest(t)

	m, err := NewMeterRecorder(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNodeExecution(ctx, "agent", 10*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "agent", 20*time.Millisecond, errors.New("boom"))
	m.RecordNodeExecution(ctx, "grade", 5*time.Millisecond, nil)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumValue(t, rm, "stategraph.node.executions", attribute.String("node_id", "agent")))
	assert.Equal(t, int64(1), sumValue(t, rm, "stategraph.node.executions", attribute.String("node_id", "grade")))
	assert.Equal(t, int64(1), sumValue(t, rm, "stategraph.node.errors"))

	latency := findMetric(rm, "stategraph.node.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestRecordRoute(t *testing.T) {
	provider, reader := setupMetricsTest(t)

	m, err := NewMeterRecorder(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRoute(ctx, "grade", "generate")
	m.RecordRoute(ctx, "grade", "rewrite")
	m.RecordRoute(ctx, "grade", "rewrite")

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(3), sumValue(t, rm, "stategraph.route.decisions"))
	assert.Equal(t, int64(2), sumValue(t, rm, "stategraph.route.decisions",
		attribute.String("from", "grade"), attribute.String("to", "rewrite")))
}

func TestRecordGraphRun(t *testing.T) {
	provider, reader := setupMetricsTest(t)

	m, err := NewMeterRecorder(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordGraphRun(ctx, "rag", "completed", 7, 100*time.Millisecond)
	m.RecordGraphRun(ctx, "rag", "failed", 2, 10*time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumValue(t, rm, "stategraph.graph.runs", attribute.String("status", "completed")))
	assert.Equal(t, int64(1), sumValue(t, rm, "stategraph.graph.runs", attribute.String("status", "failed")))

	steps := findMetric(rm, "stategraph.graph.steps")
	require.NotNil(t, steps)
	hist, ok := steps.Data.(metricdata.Histogram[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range hist.DataPoints {
		total += dp.Sum
	}
	assert.Equal(t, int64(9), total)
}
