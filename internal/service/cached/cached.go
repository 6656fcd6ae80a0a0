// Package cached provides a DirectoryService decorator that keeps recently
// read entries in an expirable LRU. Health summaries are never cached.
package cached

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/service"
)

const (
	// DefaultSize is the number of entries kept when no size is configured
	DefaultSize = 1024
	// DefaultTTL bounds how long an entry may be served without invalidation
	DefaultTTL = 30 * time.Minute
)

// Service wraps a DirectoryService and caches the entries returned by
// GetEntry. Every write made through it evicts the affected entry.
type Service struct {
	service.DirectoryService

	entries *expirable.LRU[uuid.UUID, *service.Entry]

	// generation is bumped by every eviction. A load that started before an
	// eviction is not stored.
	mu         sync.Mutex
	generation uint64
}

var _ service.DirectoryService = (*Service)(nil)

// New returns a caching decorator around next. A non-positive size or ttl
// falls back to the defaults.
func New(next service.DirectoryService, size int, ttl time.Duration) *Service {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		DirectoryService: next,
		entries:          expirable.NewLRU[uuid.UUID, *service.Entry](size, nil, ttl),
	}
}

// GetEntry returns the entry from the cache or the wrapped service. The
// health summary is computed on every call.
func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*service.EntryDetail, error) {
	if entry, ok := s.entries.Get(id); ok {
		summary, err := s.GetHealth(ctx, id)
		if err != nil {
			return nil, err
		}
		return &service.EntryDetail{Entry: entry, Health: summary}, nil
	}

	generation := s.currentGeneration()
	detail, err := s.DirectoryService.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(id, detail.Entry, generation)
	return detail, nil
}

func (s *Service) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// store caches entry unless an eviction happened since generation was read
func (s *Service) store(id uuid.UUID, entry *service.Entry, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return
	}
	s.entries.Add(id, entry)
}

// evict drops id and invalidates loads in flight
func (s *Service) evict(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.entries.Remove(id)
}

// CreateEntry implements DirectoryService.CreateEntry
func (s *Service) CreateEntry(
	ctx context.Context,
	opts ...service.Option[service.CreateEntryOptions],
) (*service.RegistrationResult, error) {
	result, err := s.DirectoryService.CreateEntry(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s.evict(result.Entry.ID)
	return result, nil
}

// RefreshEntry implements DirectoryService.RefreshEntry
func (s *Service) RefreshEntry(ctx context.Context, id uuid.UUID) (*service.RegistrationResult, error) {
	// Refresh resets conformance even when the fetch fails
	defer s.evict(id)
	return s.DirectoryService.RefreshEntry(ctx, id)
}

// DeleteEntry implements DirectoryService.DeleteEntry
func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if err := s.DirectoryService.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.evict(id)
	return nil
}

// FlagEntry implements DirectoryService.FlagEntry
func (s *Service) FlagEntry(
	ctx context.Context,
	id uuid.UUID,
	opts ...service.Option[service.FlagOptions],
) (*service.FlagRecord, error) {
	record, err := s.DirectoryService.FlagEntry(ctx, id, opts...)
	if err != nil {
		return nil, err
	}
	s.evict(id)
	return record, nil
}

// HandleChange evicts the entry named by a change event. It is meant to be
// subscribed to the event bus so writes made by other processes are seen.
func (s *Service) HandleChange(ctx context.Context, change events.Change) {
	if s.evict(change.EntryID) {
		slog.DebugContext(ctx, "Evicted cached entry",
			"entry_id", change.EntryID,
			"reason", change.Reason)
	}
}

// Len reports the number of cached entries
func (s *Service) Len() int {
	return s.entries.Len()
}
