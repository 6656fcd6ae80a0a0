package database

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceTracerName is the name used for the database service tracer
	ServiceTracerName = "github.com/stacklok/agent-directory/service/db"
)

// DBSystemPostgres is the database system attribute for PostgreSQL
var DBSystemPostgres = semconv.DBSystemPostgreSQL

// startSpan starts a span for a service operation. Every span carries the
// db.system attribute. A nil tracer yields the span already in ctx.
func (s *dbService) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	opts = append([]trace.SpanStartOption{trace.WithAttributes(DBSystemPostgres)}, opts...)
	return s.tracer.Start(ctx, name, opts...)
}
