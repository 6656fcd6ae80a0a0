package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/agent-directory/database"
	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/service"
)

func setupStateService(t *testing.T) (ProbeStateService, *pgxpool.Pool) {
	t.Helper()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	return NewDBStateService(pool, 5), pool
}

func createAgent(t *testing.T, pool *pgxpool.Pool, url string) uuid.UUID {
	t.Helper()

	agent, err := sqlc.New(pool).InsertAgent(context.Background(), sqlc.InsertAgentParams{
		PublishedUrl:       url,
		Capabilities:       []byte(`{}`),
		Skills:             []byte(`[]`),
		DefaultInputModes:  []string{},
		DefaultOutputModes: []string{},
	})
	require.NoError(t, err)
	return agent.ID
}

func TestListProbeTargets(t *testing.T) {
	t.Parallel()

	svc, pool := setupStateService(t)
	ctx := context.Background()

	ids := map[uuid.UUID]bool{}
	for _, url := range []string{
		"https://a.example.com/card.json",
		"https://b.example.com/card.json",
		"https://c.example.com/card.json",
	} {
		ids[createAgent(t, pool, url)] = true
	}
	hidden := createAgent(t, pool, "https://hidden.example.com/card.json")
	_, err := pool.Exec(ctx, "UPDATE agents SET hidden = true WHERE id = $1", hidden)
	require.NoError(t, err)

	var seen []Target
	after := uuid.Nil
	for {
		page, err := svc.ListProbeTargets(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page), 2)
		seen = append(seen, page...)
		after = page[len(page)-1].ID
	}

	require.Len(t, seen, 3)
	for i, target := range seen {
		assert.True(t, ids[target.ID])
		assert.NotEmpty(t, target.URL)
		assert.Equal(t, service.ConformanceUnknown, target.Conformance)
		if i > 0 {
			assert.Negative(t, compareUUID(seen[i-1].ID, target.ID))
		}
	}
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return 0
}

func TestRecordProbeAtomically(t *testing.T) {
	t.Parallel()

	svc, pool := setupStateService(t)
	ctx := context.Background()
	id := createAgent(t, pool, "https://probe.example.com/card.json")

	status, latency := 200, 42
	var gotRecent []bool
	transition, err := svc.RecordProbeAtomically(ctx, id, &Probe{
		ProbedAt:   time.Now().UTC(),
		StatusCode: &status,
		LatencyMs:  &latency,
		Success:    true,
	}, func(current service.Conformance, recent []bool) service.Conformance {
		assert.Equal(t, service.ConformanceUnknown, current)
		gotRecent = recent
		return service.ConformanceStandard
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, gotRecent)
	assert.True(t, transition.Changed())
	assert.Equal(t, service.ConformanceStandard, transition.Current)

	// A failed probe that keeps conformance does not count as a change
	transition, err = svc.RecordProbeAtomically(ctx, id, &Probe{
		ProbedAt:    time.Now().UTC(),
		ErrorKind:   "timeout",
		ErrorDetail: "deadline exceeded",
	}, func(current service.Conformance, recent []bool) service.Conformance {
		gotRecent = recent
		return current
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, gotRecent)
	assert.False(t, transition.Changed())
	assert.Equal(t, service.ConformanceStandard, transition.Previous)

	queries := sqlc.New(pool)
	agent, err := queries.GetAgent(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, agent.Conformance)
	assert.True(t, *agent.Conformance)

	probes, err := queries.ListProbesSince(ctx, sqlc.ListProbesSinceParams{
		AgentID: id,
		Since:   time.Now().Add(-time.Hour),
		Size:    10,
	})
	require.NoError(t, err)
	require.Len(t, probes, 2)
	assert.False(t, probes[0].Success)
	assert.Nil(t, probes[0].StatusCode)
	require.NotNil(t, probes[0].ErrorKind)
	assert.Equal(t, "timeout", *probes[0].ErrorKind)
	require.NotNil(t, probes[1].LatencyMs)
	assert.Equal(t, int32(42), *probes[1].LatencyMs)
}

func TestRecordProbeStoresCardFields(t *testing.T) {
	t.Parallel()

	svc, pool := setupStateService(t)
	ctx := context.Background()
	queries := sqlc.New(pool)
	id := createAgent(t, pool, "https://late.example.com/card.json")

	c := card.FromDocument(card.Document{
		"protocolVersion": "0.3.0",
		"name":            "Late Agent",
		"description":     "Came up after registration",
		"version":         "2.0.0",
		"provider":        map[string]any{"organization": "Acme", "url": "https://acme.example.com"},
		"capabilities":    map[string]any{"streaming": true},
		"skills": []any{
			map[string]any{"id": "summarize", "name": "Summarize", "description": "d", "tags": []any{"text"}},
		},
		"defaultInputModes":  []any{"text/plain"},
		"defaultOutputModes": []any{"text/plain"},
	})
	standard := func(service.Conformance, []bool) service.Conformance { return service.ConformanceStandard }

	status, latency := 200, 12
	transition, err := svc.RecordProbeAtomically(ctx, id, &Probe{
		ProbedAt:   time.Now().UTC(),
		StatusCode: &status,
		LatencyMs:  &latency,
		Success:    true,
		Card:       c,
	}, standard)
	require.NoError(t, err)
	assert.True(t, transition.Changed())
	assert.True(t, transition.Described)

	agent, err := queries.GetAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Late Agent", agent.Name)
	assert.Equal(t, "Came up after registration", agent.Description)
	assert.Equal(t, "Acme", agent.Author)
	assert.Equal(t, "2.0.0", agent.Version)
	assert.Equal(t, []string{"text/plain"}, agent.DefaultInputModes)
	assert.JSONEq(t, `[{"id":"summarize","name":"Summarize","description":"d","tags":["text"]}]`, string(agent.Skills))
	require.NotNil(t, agent.Conformance)
	assert.True(t, *agent.Conformance)

	// The entry is now found by skill and search
	byskill, err := queries.ListAgents(ctx, sqlc.ListAgentsParams{Skill: &c.Skills[0].ID, Size: 10})
	require.NoError(t, err)
	require.Len(t, byskill, 1)
	assert.Equal(t, id, byskill[0].ID)

	// The same card again leaves the row untouched
	transition, err = svc.RecordProbeAtomically(ctx, id, &Probe{
		ProbedAt: time.Now().UTC(),
		Success:  true,
		Card:     c,
	}, standard)
	require.NoError(t, err)
	assert.False(t, transition.Changed())
	assert.False(t, transition.Described)

	// A stored author is kept when the card changes
	_, err = pool.Exec(ctx, "UPDATE agents SET author = 'Registrant' WHERE id = $1", id)
	require.NoError(t, err)
	changed := *c
	changed.Version = "2.1.0"
	transition, err = svc.RecordProbeAtomically(ctx, id, &Probe{
		ProbedAt: time.Now().UTC(),
		Success:  true,
		Card:     &changed,
	}, standard)
	require.NoError(t, err)
	assert.True(t, transition.Described)

	agent, err = queries.GetAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", agent.Version)
	assert.Equal(t, "Registrant", agent.Author)
}

func TestRecordProbeOutcomeWindow(t *testing.T) {
	t.Parallel()

	svc, pool := setupStateService(t)
	ctx := context.Background()
	id := createAgent(t, pool, "https://window.example.com/card.json")

	var gotRecent []bool
	base := time.Now().UTC().Add(-time.Hour)
	for i := range 8 {
		_, err := svc.RecordProbeAtomically(ctx, id, &Probe{ProbedAt: base.Add(time.Duration(i) * time.Minute)},
			func(current service.Conformance, recent []bool) service.Conformance {
				gotRecent = recent
				return current
			})
		require.NoError(t, err)
	}
	assert.Len(t, gotRecent, 5)
}

func TestRecordProbeForDeletedEntry(t *testing.T) {
	t.Parallel()

	svc, _ := setupStateService(t)

	_, err := svc.RecordProbeAtomically(context.Background(), uuid.New(), &Probe{ProbedAt: time.Now()},
		func(current service.Conformance, _ []bool) service.Conformance {
			t.Fatal("decide must not run for a missing entry")
			return current
		})
	require.ErrorIs(t, err, ErrEntryGone)
}

func TestPruneProbes(t *testing.T) {
	t.Parallel()

	svc, pool := setupStateService(t)
	ctx := context.Background()
	id := createAgent(t, pool, "https://prune.example.com/card.json")

	now := time.Now().UTC()
	keep := func(current service.Conformance, _ []bool) service.Conformance { return current }
	for _, at := range []time.Time{now.Add(-100 * 24 * time.Hour), now.Add(-95 * 24 * time.Hour), now.Add(-time.Hour)} {
		_, err := svc.RecordProbeAtomically(ctx, id, &Probe{ProbedAt: at}, keep)
		require.NoError(t, err)
	}

	deleted, err := svc.PruneProbes(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = svc.PruneProbes(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
