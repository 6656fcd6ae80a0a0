// Package database provides a database-backed implementation of the DirectoryService interface
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/telemetry"
	"github.com/stacklok/agent-directory/internal/validators"
)

const (
	// summaryProbeLimit bounds the probe rows loaded for a health summary
	summaryProbeLimit = 10_000
	// uptimeProbeLimit bounds the probe rows loaded for an uptime report
	uptimeProbeLimit = 100_000
)

// URLChecker runs the outbound request guard on a URL without fetching it
type URLChecker interface {
	CheckURL(ctx context.Context, url string) error
}

// options holds configuration options for the database service
type options struct {
	pool      *pgxpool.Pool
	tracer    trace.Tracer
	fetcher   card.Fetcher
	validator validators.Validator
	verifier  service.OwnershipVerifier
	checker   URLChecker
	publisher events.Publisher
	metrics   *telemetry.RegistrationMetrics
	now       func() time.Time
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The caller is responsible for closing
// the pool when it is done.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithFetcher sets the card fetcher used by registration and refresh
func WithFetcher(fetcher card.Fetcher) Option {
	return func(o *options) error {
		if fetcher == nil {
			return fmt.Errorf("card fetcher is required")
		}
		o.fetcher = fetcher
		return nil
	}
}

// WithValidator overrides the card validator
func WithValidator(validator validators.Validator) Option {
	return func(o *options) error {
		o.validator = validator
		return nil
	}
}

// WithOwnershipVerifier overrides the verifier consulted before deletes.
// The default re-fetches the card through the configured fetcher.
func WithOwnershipVerifier(verifier service.OwnershipVerifier) Option {
	return func(o *options) error {
		o.verifier = verifier
		return nil
	}
}

// WithURLChecker sets the guard consulted when a URL is registered
func WithURLChecker(checker URLChecker) Option {
	return func(o *options) error {
		o.checker = checker
		return nil
	}
}

// WithPublisher sets the change event publisher
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) error {
		o.publisher = publisher
		return nil
	}
}

// WithRegistrationMetrics sets the registration instruments
func WithRegistrationMetrics(metrics *telemetry.RegistrationMetrics) Option {
	return func(o *options) error {
		o.metrics = metrics
		return nil
	}
}

// WithClock overrides the time source used for windows and stats
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// dbService implements the DirectoryService interface using a database backend
type dbService struct {
	pool      *pgxpool.Pool
	tracer    trace.Tracer
	fetcher   card.Fetcher
	validator validators.Validator
	verifier  service.OwnershipVerifier
	checker   URLChecker
	publisher events.Publisher
	metrics   *telemetry.RegistrationMetrics
	now       func() time.Time

	refreshes singleflight.Group
}

var _ service.DirectoryService = (*dbService)(nil)

// New creates a new database-backed directory service with the given options
func New(opts ...Option) (service.DirectoryService, error) {
	o := &options{
		validator: validators.CardValidator{},
		publisher: events.Noop{},
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if o.fetcher == nil {
		return nil, fmt.Errorf("card fetcher is required")
	}
	if o.verifier == nil {
		o.verifier = service.NewCardOwnershipVerifier(o.fetcher)
	}

	return &dbService{
		pool:      o.pool,
		tracer:    o.tracer,
		fetcher:   o.fetcher,
		validator: o.validator,
		verifier:  o.verifier,
		checker:   o.checker,
		publisher: o.publisher,
		metrics:   o.metrics,
		now:       o.now,
	}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// withTx runs fn in a read-committed transaction and commits when fn succeeds
func (s *dbService) withTx(ctx context.Context, fn func(querier *sqlc.Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		err := tx.Rollback(ctx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.WarnContext(ctx, "Failed to roll back transaction", "error", err)
		}
	}()

	if err := fn(sqlc.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// getVisibleAgent loads an entry, treating hidden entries as missing
func getVisibleAgent(ctx context.Context, querier sqlc.Querier, id uuid.UUID) (sqlc.Agent, error) {
	agent, err := querier.GetAgent(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return sqlc.Agent{}, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}
	if err != nil {
		return sqlc.Agent{}, fmt.Errorf("failed to get entry: %w", err)
	}
	if agent.Hidden {
		return sqlc.Agent{}, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}
	return agent, nil
}

// publish emits a change event. Failures are logged and never fail the caller.
func (s *dbService) publish(ctx context.Context, change events.Change) {
	if err := s.publisher.Publish(ctx, change); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"entry_id", change.EntryID,
			"reason", change.Reason,
			"error", err)
	}
}
