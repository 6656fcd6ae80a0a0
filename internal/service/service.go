// Package service provides the business contract of the agent directory
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stacklok/agent-directory/internal/health"
)

var (
	// ErrNotFound is returned when an entry does not exist or is hidden
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidURL is returned when a published URL is malformed, not https or not publicly routable
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidRequest is returned when request parameters are out of range or unknown
	ErrInvalidRequest = errors.New("invalid request")
	// ErrOwnershipUnverified is returned when the published card does not match the stored entry
	ErrOwnershipUnverified = errors.New("ownership could not be verified")
)

// ValidationError is returned when a submitted card is not conformant
type ValidationError struct {
	Violations []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("card is not conformant: %s", strings.Join(e.Violations, "; "))
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go DirectoryService

// DirectoryService defines the operations of the agent directory
type DirectoryService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// Register adds the agent published at a URL. Registering a known URL
	// returns the existing entry with Created=false.
	Register(ctx context.Context, opts ...Option[RegisterOptions]) (*RegistrationResult, error)

	// CreateEntry registers an agent from a submitted card instead of fetching it
	CreateEntry(ctx context.Context, opts ...Option[CreateEntryOptions]) (*RegistrationResult, error)

	// RefreshEntry re-fetches the card of an entry and resets its conformance
	RefreshEntry(ctx context.Context, id uuid.UUID) (*RegistrationResult, error)

	// DeleteEntry removes an entry after re-verifying ownership
	DeleteEntry(ctx context.Context, id uuid.UUID) error

	// GetEntry returns one entry with its 24h health summary
	GetEntry(ctx context.Context, id uuid.UUID) (*EntryDetail, error)

	// GetHealth computes the 24h health summary of an entry from its probes
	// without reading the entry itself
	GetHealth(ctx context.Context, id uuid.UUID) (health.Summary, error)

	// ListEntries returns a filtered page of entries
	ListEntries(ctx context.Context, opts ...Option[ListEntriesOptions]) (*ListEntriesResult, error)

	// ListProbes returns the probe records of an entry, newest first
	ListProbes(ctx context.Context, id uuid.UUID, opts ...Option[ListProbesOptions]) ([]*ProbeRecord, error)

	// GetUptime aggregates the probes of an entry over a number of days
	GetUptime(ctx context.Context, id uuid.UUID, opts ...Option[UptimeOptions]) (*UptimeReport, error)

	// FlagEntry records a moderation report and increments the flag counter
	FlagEntry(ctx context.Context, id uuid.UUID, opts ...Option[FlagOptions]) (*FlagRecord, error)

	// GetStats returns directory-wide counters
	GetStats(ctx context.Context) (*Stats, error)
}
