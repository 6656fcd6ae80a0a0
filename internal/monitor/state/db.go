package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/service"
)

// DefaultOutcomeWindow is the number of recent outcomes handed to DecideFunc
const DefaultOutcomeWindow = 10

type dbStateService struct {
	pool          *pgxpool.Pool
	outcomeWindow int
}

// NewDBStateService creates a database-backed probe state service. The
// window sets how many recent outcomes are loaded for each decision and
// must cover the failure threshold.
func NewDBStateService(pool *pgxpool.Pool, outcomeWindow int) ProbeStateService {
	if outcomeWindow <= 0 {
		outcomeWindow = DefaultOutcomeWindow
	}
	return &dbStateService{
		pool:          pool,
		outcomeWindow: outcomeWindow,
	}
}

func (d *dbStateService) ListProbeTargets(ctx context.Context, after uuid.UUID, size int) ([]Target, error) {
	rows, err := sqlc.New(d.pool).ListProbeTargets(ctx, sqlc.ListProbeTargetsParams{
		AfterID: after,
		Size:    int32(size), //nolint:gosec // page size is bounded by configuration
	})
	if err != nil {
		return nil, err
	}

	targets := make([]Target, 0, len(rows))
	for _, row := range rows {
		targets = append(targets, Target{
			ID:          row.ID,
			URL:         row.PublishedUrl,
			Conformance: service.ConformanceFromPtr(row.Conformance),
		})
	}
	return targets, nil
}

func (d *dbStateService) RecordProbeAtomically(
	ctx context.Context,
	entryID uuid.UUID,
	probe *Probe,
	decide DecideFunc,
) (Transition, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Transition{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	current, err := queries.GetAgentConformanceForUpdate(ctx, entryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transition{}, ErrEntryGone
	}
	if err != nil {
		return Transition{}, fmt.Errorf("failed to lock entry: %w", err)
	}

	if _, err := queries.InsertProbe(ctx, probeParams(entryID, probe)); err != nil {
		return Transition{}, fmt.Errorf("failed to insert probe: %w", err)
	}

	recent, err := queries.ListRecentProbeOutcomes(ctx, sqlc.ListRecentProbeOutcomesParams{
		AgentID: entryID,
		Size:    int32(d.outcomeWindow), //nolint:gosec // window is small
	})
	if err != nil {
		return Transition{}, fmt.Errorf("failed to load recent outcomes: %w", err)
	}

	transition := Transition{Previous: service.ConformanceFromPtr(current)}
	transition.Current = decide(transition.Previous, recent)

	if transition.Changed() {
		err := queries.UpdateAgentConformance(ctx, sqlc.UpdateAgentConformanceParams{
			Conformance: transition.Current.Ptr(),
			ID:          entryID,
		})
		if err != nil {
			return Transition{}, fmt.Errorf("failed to update conformance: %w", err)
		}
	}

	if probe.Card != nil {
		params, err := descriptorParams(entryID, probe.Card)
		if err != nil {
			return Transition{}, err
		}
		rows, err := queries.SyncAgentDescriptor(ctx, params)
		if err != nil {
			return Transition{}, fmt.Errorf("failed to update entry fields: %w", err)
		}
		transition.Described = rows > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return Transition{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return transition, nil
}

func (d *dbStateService) PruneProbes(ctx context.Context, cutoff time.Time) (int64, error) {
	return sqlc.New(d.pool).DeleteProbesBefore(ctx, cutoff)
}

func probeParams(entryID uuid.UUID, probe *Probe) sqlc.InsertProbeParams {
	params := sqlc.InsertProbeParams{
		AgentID:  entryID,
		ProbedAt: probe.ProbedAt,
		Success:  probe.Success,
	}
	if probe.StatusCode != nil {
		v := int32(*probe.StatusCode) //nolint:gosec // HTTP status codes fit
		params.StatusCode = &v
	}
	if probe.LatencyMs != nil {
		v := int32(*probe.LatencyMs) //nolint:gosec // latency is bounded by the fetch timeout
		params.LatencyMs = &v
	}
	if probe.ErrorKind != "" {
		params.ErrorKind = &probe.ErrorKind
	}
	if probe.ErrorDetail != "" {
		params.ErrorDetail = &probe.ErrorDetail
	}
	return params
}

// descriptorParams maps a validated card onto the entry columns. The stored
// author is kept unless it is blank.
func descriptorParams(entryID uuid.UUID, c *card.Card) (sqlc.SyncAgentDescriptorParams, error) {
	capabilities, err := json.Marshal(c.Capabilities)
	if err != nil {
		return sqlc.SyncAgentDescriptorParams{}, fmt.Errorf("failed to marshal capabilities: %w", err)
	}
	skills := c.Skills
	if skills == nil {
		skills = []card.Skill{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return sqlc.SyncAgentDescriptorParams{}, fmt.Errorf("failed to marshal skills: %w", err)
	}

	params := sqlc.SyncAgentDescriptorParams{
		ID:                 entryID,
		Name:               c.Name,
		Description:        c.Description,
		FallbackAuthor:     c.ProviderOrganization(),
		Version:            c.Version,
		ProtocolVersion:    c.ProtocolVersion,
		Capabilities:       capabilities,
		Skills:             skillsJSON,
		DefaultInputModes:  orEmpty(c.DefaultInputModes),
		DefaultOutputModes: orEmpty(c.DefaultOutputModes),
		DocumentationUrl:   optional(c.DocumentationURL),
		IconUrl:            optional(c.IconURL),
	}
	if c.Provider != nil {
		params.ProviderOrganization = optional(c.Provider.Organization)
		params.ProviderUrl = optional(c.Provider.URL)
	}
	return params, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
