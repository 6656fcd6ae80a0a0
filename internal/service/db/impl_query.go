package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/health"
	"github.com/stacklok/agent-directory/internal/otel"
	"github.com/stacklok/agent-directory/internal/service"
)

// GetEntry implements DirectoryService.GetEntry
func (s *dbService) GetEntry(ctx context.Context, id uuid.UUID) (*service.EntryDetail, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetEntry")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	querier := sqlc.New(s.pool)
	agent, err := getVisibleAgent(ctx, querier, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	summary, err := s.summarize(ctx, querier, id, s.now(), health.DefaultWindow, summaryProbeLimit)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	return &service.EntryDetail{
		Entry:  agentToEntry(agent),
		Health: summary,
	}, nil
}

// GetHealth implements DirectoryService.GetHealth
func (s *dbService) GetHealth(ctx context.Context, id uuid.UUID) (health.Summary, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetHealth")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	summary, err := s.summarize(ctx, sqlc.New(s.pool), id, s.now(), health.DefaultWindow, summaryProbeLimit)
	if err != nil {
		otel.RecordError(span, err)
		return health.Summary{}, err
	}
	return summary, nil
}

// ListEntries implements DirectoryService.ListEntries
func (s *dbService) ListEntries(
	ctx context.Context,
	opts ...service.Option[service.ListEntriesOptions],
) (*service.ListEntriesResult, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListEntries")
	defer span.End()

	options := &service.ListEntriesOptions{
		Limit:       service.DefaultPageSize,
		Conformance: service.FilterAll,
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	// Cap the limit at service.MaxPageSize to prevent potential DoS
	if options.Limit > service.MaxPageSize {
		options.Limit = service.MaxPageSize
	}

	span.SetAttributes(
		otel.AttrPageSize.Int(options.Limit),
		otel.AttrPageOffset.Int(options.Offset),
	)

	slog.DebugContext(ctx, "ListEntries query",
		"limit", options.Limit,
		"offset", options.Offset,
		"search", options.Search,
		"skill", options.Skill,
		"capability", options.Capability,
		"conformance", options.Conformance,
		"request_id", middleware.GetReqID(ctx))

	params := sqlc.ListAgentsParams{
		Search:     nullable(options.Search),
		Skill:      nullable(options.Skill),
		Capability: nullable(options.Capability),
		Author:     nullable(options.Author),
		Size:       int32(options.Limit),  // #nosec G115 -- bounded by MaxPageSize
		Skip:       int32(options.Offset), // #nosec G115 -- bounded by service.MaxOffset
	}
	if options.Conformance != service.FilterAll {
		params.Conformance = nullable(string(options.Conformance))
	}

	querier := sqlc.New(s.pool)
	agents, err := querier.ListAgents(ctx, params)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	total, err := querier.CountAgents(ctx, sqlc.CountAgentsParams{
		Search:      params.Search,
		Skill:       params.Skill,
		Capability:  params.Capability,
		Author:      params.Author,
		Conformance: params.Conformance,
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	entries := make([]*service.Entry, 0, len(agents))
	for _, agent := range agents {
		entries = append(entries, agentToEntry(agent))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(entries)))
	slog.DebugContext(ctx, "ListEntries completed",
		"count", len(entries),
		"total", total,
		"request_id", middleware.GetReqID(ctx))

	return &service.ListEntriesResult{
		Entries: entries,
		Total:   int(total),
		Limit:   options.Limit,
		Offset:  options.Offset,
	}, nil
}

// ListProbes implements DirectoryService.ListProbes
func (s *dbService) ListProbes(
	ctx context.Context,
	id uuid.UUID,
	opts ...service.Option[service.ListProbesOptions],
) ([]*service.ProbeRecord, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListProbes")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	options := &service.ListProbesOptions{Hours: service.DefaultProbeHours}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	querier := sqlc.New(s.pool)
	if _, err := getVisibleAgent(ctx, querier, id); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	probes, err := querier.ListProbesSince(ctx, sqlc.ListProbesSinceParams{
		AgentID: id,
		Since:   s.now().Add(-time.Duration(options.Hours) * time.Hour),
		Size:    service.MaxProbeRecords,
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}

	records := make([]*service.ProbeRecord, 0, len(probes))
	for _, probe := range probes {
		records = append(records, probeToRecord(probe))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(records)))
	return records, nil
}

// GetUptime implements DirectoryService.GetUptime
func (s *dbService) GetUptime(
	ctx context.Context,
	id uuid.UUID,
	opts ...service.Option[service.UptimeOptions],
) (*service.UptimeReport, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetUptime")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	options := &service.UptimeOptions{PeriodDays: service.DefaultUptimeDays}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	querier := sqlc.New(s.pool)
	if _, err := getVisibleAgent(ctx, querier, id); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	window := time.Duration(options.PeriodDays) * 24 * time.Hour
	summary, err := s.summarize(ctx, querier, id, s.now(), window, uptimeProbeLimit)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	return &service.UptimeReport{
		AgentID:    id,
		PeriodDays: options.PeriodDays,
		Summary:    summary,
	}, nil
}

// GetStats implements DirectoryService.GetStats
func (s *dbService) GetStats(ctx context.Context) (*service.Stats, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetStats")
	defer span.End()

	now := s.now()
	querier := sqlc.New(s.pool)

	counts, err := querier.GetAgentStats(ctx, sqlc.GetAgentStatsParams{
		WeekStart:  now.Add(-7 * 24 * time.Hour),
		MonthStart: now.Add(-30 * 24 * time.Hour),
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	skills, err := querier.CountDistinctSkills(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to count skills: %w", err)
	}

	latency, err := querier.GetAverageProbeLatencySince(ctx, now.Add(-health.DefaultWindow))
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to average probe latency: %w", err)
	}

	return &service.Stats{
		TotalAgents:         counts.Total,
		ConformantAgents:    counts.Conformant,
		NonConformantAgents: counts.NonConformant,
		UnknownAgents:       counts.Unknown,
		CreatedLastWeek:     counts.CreatedLastWeek,
		CreatedLastMonth:    counts.CreatedLastMonth,
		DistinctSkills:      skills,
		AvgLatencyMsLast24h: roundLatency(latency),
		GeneratedAt:         now.UTC(),
	}, nil
}

func (*dbService) summarize(
	ctx context.Context,
	querier sqlc.Querier,
	id uuid.UUID,
	now time.Time,
	window time.Duration,
	limit int32,
) (health.Summary, error) {
	probes, err := querier.ListProbesSince(ctx, sqlc.ListProbesSinceParams{
		AgentID: id,
		Since:   now.Add(-window),
		Size:    limit,
	})
	if err != nil {
		return health.Summary{}, fmt.Errorf("failed to load probes: %w", err)
	}

	samples := make([]health.Probe, 0, len(probes))
	for _, probe := range probes {
		samples = append(samples, probeToRecord(probe).HealthProbe())
	}
	return health.Summarize(samples, now, window), nil
}

func roundLatency(v float64) float64 {
	return math.Round(v*100) / 100
}
