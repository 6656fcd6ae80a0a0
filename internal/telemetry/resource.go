package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Role identifies which process emits the telemetry
type Role string

const (
	// RoleServer is the API server, optionally with the embedded monitor
	RoleServer Role = "server"
	// RoleWorker is the standalone health check worker
	RoleWorker Role = "worker"
)

// RoleAttributeKey is the resource attribute carrying the process Role
const RoleAttributeKey = attribute.Key("agentdir.role")

// newResource describes this process to the collector. Traces and metrics
// share it so both can be filtered by role.
func newResource(ctx context.Context, cfg *Config, role Role) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
	}
	if role != "" {
		attrs = append(attrs, RoleAttributeKey.String(string(role)))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
