// Package otel holds the span helpers and attribute keys shared by the
// directory's service, store and monitor layers.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on directory spans
const (
	AttrAgentID      = attribute.Key("agent.id")
	AttrAgentURL     = attribute.Key("agent.url")
	AttrPageSize     = attribute.Key("pagination.limit")
	AttrPageOffset   = attribute.Key("pagination.offset")
	AttrResultCount  = attribute.Key("result.count")
	AttrProbeOutcome = attribute.Key("probe.outcome")
	AttrFetchKind    = attribute.Key("fetch.error_kind")
	AttrConformance  = attribute.Key("agent.conformance")
	AttrFlagReason   = attribute.Key("flag.reason")
	AttrCycleEntries = attribute.Key("monitor.cycle.entries")
	AttrCreated      = attribute.Key("registration.created")
)

// StartSpan starts a span on tracer. A nil tracer yields the span already in ctx,
// which is a no-op span when tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. The status message is
// kept generic so that SQL or fetched URLs do not leak into span status.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// AgentAttributes returns the identifying attributes of a directory entry.
// Empty values are omitted.
func AgentAttributes(id, url string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if id != "" {
		attrs = append(attrs, AttrAgentID.String(id))
	}
	if url != "" {
		attrs = append(attrs, AttrAgentURL.String(url))
	}
	return attrs
}
