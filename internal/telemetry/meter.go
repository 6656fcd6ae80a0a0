package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// DefaultMetricsInterval is the default interval for pushing metrics over OTLP
const DefaultMetricsInterval = 60 * time.Second

// newMeterProvider returns a provider with an OTLP push reader, a Prometheus
// pull reader registered on registry, or both. Metrics off yields a no-op provider.
func newMeterProvider(
	ctx context.Context,
	cfg *Config,
	res *resource.Resource,
	registry prometheus.Registerer,
) (metric.MeterProvider, error) {
	mc := cfg.Metrics
	if mc == nil || !mc.Enabled {
		slog.Debug("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if mc.OTLPEnabled() {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.GetEndpoint())}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricsInterval)),
		))
	}

	if mc.Prometheus {
		if registry == nil {
			return nil, fmt.Errorf("prometheus metrics enabled without a registry")
		}
		reader, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"otlp", mc.OTLPEnabled(),
		"prometheus", mc.Prometheus,
		"endpoint", cfg.GetEndpoint(),
	)

	return mp, nil
}
