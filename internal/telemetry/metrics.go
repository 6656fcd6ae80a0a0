package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// MonitorMetricsMeterName is the name used for the health check worker meter
	MonitorMetricsMeterName = "github.com/stacklok/agent-directory/monitor"

	// RegistrationMetricsMeterName is the name used for the registration meter
	RegistrationMetricsMeterName = "github.com/stacklok/agent-directory/registration"
)

// ProbeMetrics holds the instruments recorded by the health check worker
type ProbeMetrics struct {
	probeDuration metric.Float64Histogram
	probesTotal   metric.Int64Counter
	cycleDuration metric.Float64Histogram
	cycleEntries  metric.Int64Gauge
}

// NewProbeMetrics creates the worker instruments. A nil provider yields nil metrics.
func NewProbeMetrics(provider metric.MeterProvider) (*ProbeMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(MonitorMetricsMeterName)

	probeDuration, err := meter.Float64Histogram(
		"agentdir_probe_duration_seconds",
		metric.WithDescription("Duration of a single agent card probe"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15),
	)
	if err != nil {
		return nil, err
	}

	probesTotal, err := meter.Int64Counter(
		"agentdir_probes_total",
		metric.WithDescription("Number of probes by outcome"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"agentdir_probe_cycle_duration_seconds",
		metric.WithDescription("Duration of a complete health check cycle"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800),
	)
	if err != nil {
		return nil, err
	}

	cycleEntries, err := meter.Int64Gauge(
		"agentdir_probe_cycle_entries",
		metric.WithDescription("Number of entries probed in the last cycle"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProbeMetrics{
		probeDuration: probeDuration,
		probesTotal:   probesTotal,
		cycleDuration: cycleDuration,
		cycleEntries:  cycleEntries,
	}, nil
}

// RecordProbe records one probe. outcome is "success", "non-conformant" or a fetch error kind.
func (m *ProbeMetrics) RecordProbe(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.probeDuration.Record(ctx, duration.Seconds(), attrs)
	m.probesTotal.Add(ctx, 1, attrs)
}

// RecordCycle records the duration and size of a completed cycle
func (m *ProbeMetrics) RecordCycle(ctx context.Context, entries int64, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
	m.cycleEntries.Record(ctx, entries)
}

// RegistrationMetrics holds the instruments recorded by the registration service
type RegistrationMetrics struct {
	registrationsTotal metric.Int64Counter
}

// NewRegistrationMetrics creates the registration instruments. A nil provider yields nil metrics.
func NewRegistrationMetrics(provider metric.MeterProvider) (*RegistrationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	registrationsTotal, err := provider.Meter(RegistrationMetricsMeterName).Int64Counter(
		"agentdir_registrations_total",
		metric.WithDescription("Number of registration attempts by outcome"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistrationMetrics{registrationsTotal: registrationsTotal}, nil
}

// RecordRegistration records a registration outcome: "created", "existing", "warning" or an error kind
func (m *RegistrationMetrics) RecordRegistration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}

	m.registrationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
