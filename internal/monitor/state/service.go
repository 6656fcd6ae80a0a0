// Package state contains the persistence the health check worker relies on.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/service"
)

// ErrEntryGone is returned when an entry was deleted while it was being probed.
var ErrEntryGone = errors.New("entry no longer exists")

// Target is an entry scheduled for probing
type Target struct {
	ID          uuid.UUID
	URL         string
	Conformance service.Conformance
}

// Probe is the outcome of probing a single entry
type Probe struct {
	ProbedAt    time.Time
	StatusCode  *int
	LatencyMs   *int
	Success     bool
	ErrorKind   string
	ErrorDetail string

	// Card is set when the fetched card validated. Its descriptive fields
	// replace the stored ones.
	Card *card.Card
}

// DecideFunc computes the next conformance of an entry from its current value
// and its most recent probe outcomes, newest first. The probe being recorded
// is the first outcome.
type DecideFunc func(current service.Conformance, recent []bool) service.Conformance

// Transition describes the conformance change caused by recording a probe
type Transition struct {
	Previous service.Conformance
	Current  service.Conformance

	// Described is true when the probe's card changed the stored fields
	Described bool
}

// Changed reports whether the conformance moved
func (t Transition) Changed() bool {
	return t.Previous != t.Current
}

// ProbeStateService provides the reads and writes made by the health check worker.
//
//go:generate mockgen -destination=mocks/mock_probe_state_service.go -package=mocks -source=service.go ProbeStateService
type ProbeStateService interface {
	// ListProbeTargets returns up to size non-hidden entries whose id sorts
	// after the given one. Pass uuid.Nil for the first page.
	ListProbeTargets(ctx context.Context, after uuid.UUID, size int) ([]Target, error)
	// RecordProbeAtomically appends the probe for the entry, applies the
	// conformance computed by decide and stores the probe's card, all in one
	// transaction. The entry row
	// is locked for the duration so concurrent refreshes serialize with it.
	RecordProbeAtomically(ctx context.Context, entryID uuid.UUID, probe *Probe, decide DecideFunc) (Transition, error)
	// PruneProbes deletes probes recorded before cutoff and returns how many were removed.
	PruneProbes(ctx context.Context, cutoff time.Time) (int64, error)
}
