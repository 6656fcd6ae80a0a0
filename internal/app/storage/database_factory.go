package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/agent-directory/internal/config"
	"github.com/stacklok/agent-directory/internal/db"
	"github.com/stacklok/agent-directory/internal/monitor/state"
	"github.com/stacklok/agent-directory/internal/service"
	database "github.com/stacklok/agent-directory/internal/service/db"
)

// DatabaseFactory creates PostgreSQL-backed storage components.
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.tracer = tracer
	}
}

// WithPool uses an existing pool instead of connecting from the configuration.
// The factory takes ownership and closes it on Cleanup.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := &DatabaseFactory{
		config: cfg,
	}

	for _, opt := range opts {
		opt(factory)
	}

	if factory.pool == nil {
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required")
		}

		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		factory.pool = pool
	}

	slog.Info("Database-backed storage factory created")
	return factory, nil
}

// CreateStateService creates the probe state service. Its outcome window
// always covers the failure threshold.
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.ProbeStateService, error) {
	window := max(d.config.GetFailureThreshold(), state.DefaultOutcomeWindow)
	slog.Debug("Creating database-backed probe state service", "outcome_window", window)
	return state.NewDBStateService(d.pool, window), nil
}

// CreateDirectoryService creates the database-backed directory service.
func (d *DatabaseFactory) CreateDirectoryService(
	_ context.Context,
	opts ...database.Option,
) (service.DirectoryService, error) {
	slog.Debug("Creating database-backed directory service")

	serviceOpts := []database.Option{
		database.WithConnectionPool(d.pool),
	}
	if d.tracer != nil {
		serviceOpts = append(serviceOpts, database.WithTracer(d.tracer))
		slog.Debug("Database service tracing enabled")
	}

	return database.New(append(serviceOpts, opts...)...)
}

// Pool returns the connection pool owned by the factory
func (d *DatabaseFactory) Pool() *pgxpool.Pool {
	return d.pool
}

// Cleanup closes the connection pool.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
