// Package events carries change notifications about directory entries
// between the API servers and the health check worker. Events are hints for
// cache invalidation, never a source of state.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reason describes what changed
type Reason string

// Change reasons
const (
	ReasonRegistered  Reason = "registered"
	ReasonRefreshed   Reason = "refreshed"
	ReasonDeleted     Reason = "deleted"
	ReasonFlagged     Reason = "flagged"
	ReasonConformance Reason = "conformance"
	ReasonUpdated     Reason = "updated"
)

// Change is one notification
type Change struct {
	EntryID    uuid.UUID `json:"entry_id"`
	Reason     Reason    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChange creates a change stamped with the current time
func NewChange(id uuid.UUID, reason Reason) Change {
	return Change{
		EntryID:    id,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler is invoked for each received change
type Handler func(ctx context.Context, change Change)

//go:generate mockgen -destination=mocks/mock_events.go -package=mocks -source=events.go Publisher

// Publisher emits changes
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Bus publishes changes and delivers them to subscribers
type Bus interface {
	Publisher

	// Subscribe registers handler for every change. The returned function
	// removes the subscription.
	Subscribe(handler Handler) (func() error, error)

	// Close flushes pending messages and releases the connection
	Close() error
}

// Noop is a Bus that drops every change. It is used when no broker is configured.
type Noop struct{}

var _ Bus = Noop{}

// Publish implements Publisher
func (Noop) Publish(context.Context, Change) error { return nil }

// Subscribe implements Bus
func (Noop) Subscribe(Handler) (func() error, error) {
	return func() error { return nil }, nil
}

// Close implements Bus
func (Noop) Close() error { return nil }
