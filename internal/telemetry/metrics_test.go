package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestProbeMetrics(t *testing.T) {
	t.Parallel()

	t.Run("nil provider yields nil metrics", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewProbeMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)

		// Recording on nil metrics must not panic
		metrics.RecordProbe(context.Background(), "success", time.Second)
		metrics.RecordCycle(context.Background(), 10, time.Minute, true)
	})

	t.Run("records probes and cycles", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewProbeMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordProbe(ctx, "success", 200*time.Millisecond)
		metrics.RecordProbe(ctx, "success", 300*time.Millisecond)
		metrics.RecordProbe(ctx, "timeout", 10*time.Second)
		metrics.RecordCycle(ctx, 3, 12*time.Second, true)

		got := collect(t, reader)

		total, ok := got["agentdir_probes_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		counts := map[string]int64{}
		for _, dp := range total.DataPoints {
			outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
			counts[outcome.AsString()] = dp.Value
		}
		assert.Equal(t, map[string]int64{"success": 2, "timeout": 1}, counts)

		entries, ok := got["agentdir_probe_cycle_entries"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, entries.DataPoints, 1)
		assert.Equal(t, int64(3), entries.DataPoints[0].Value)

		cycle, ok := got["agentdir_probe_cycle_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, cycle.DataPoints, 1)
		assert.Equal(t, uint64(1), cycle.DataPoints[0].Count)
	})
}

func TestRegistrationMetrics(t *testing.T) {
	t.Parallel()

	var nilMetrics *RegistrationMetrics
	nilMetrics.RecordRegistration(context.Background(), "created")

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewRegistrationMetrics(mp)
	require.NoError(t, err)

	metrics.RecordRegistration(context.Background(), "created")
	metrics.RecordRegistration(context.Background(), "existing")
	metrics.RecordRegistration(context.Background(), "created")

	got := collect(t, reader)
	sum, ok := got["agentdir_registrations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}
