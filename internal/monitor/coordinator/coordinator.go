package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/monitor/state"
	"github.com/stacklok/agent-directory/internal/telemetry"
	"github.com/stacklok/agent-directory/internal/validators"
)

// storeRetries is the number of attempts made for a probe write
const storeRetries = 3

// Coordinator manages the health check cycles
type Coordinator interface {
	// Start runs cycles until the context is cancelled or Stop is called.
	// The first cycle runs immediately.
	Start(ctx context.Context) error

	// Stop cancels the running cycle and waits for Start to return
	Stop() error
}

// CycleResult summarizes one cycle
type CycleResult struct {
	Probed   int64
	Failed   int64
	Changed  int64
	Errors   int64
	Complete bool
}

type defaultCoordinator struct {
	fetcher   card.Fetcher
	validator validators.Validator
	stateSvc  state.ProbeStateService
	config    Config

	publisher  events.Publisher
	metrics    *telemetry.ProbeMetrics
	now        func() time.Time
	newBackOff func() backoff.BackOff

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithProbeMetrics sets the probe metrics for the coordinator
func WithProbeMetrics(metrics *telemetry.ProbeMetrics) Option {
	return func(c *defaultCoordinator) {
		c.metrics = metrics
	}
}

// WithPublisher sets where conformance changes are announced
func WithPublisher(publisher events.Publisher) Option {
	return func(c *defaultCoordinator) {
		if publisher != nil {
			c.publisher = publisher
		}
	}
}

// WithValidator overrides the card validator
func WithValidator(validator validators.Validator) Option {
	return func(c *defaultCoordinator) {
		if validator != nil {
			c.validator = validator
		}
	}
}

// WithClock overrides the time source used for probe timestamps and retention
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// WithBackOff overrides the retry policy for store operations
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *defaultCoordinator) {
		c.newBackOff = newBackOff
	}
}

// New creates a new coordinator with injected dependencies
func New(
	fetcher card.Fetcher,
	stateSvc state.ProbeStateService,
	cfg Config,
	opts ...Option,
) Coordinator {
	return newCoordinator(fetcher, stateSvc, cfg, opts...)
}

func newCoordinator(
	fetcher card.Fetcher,
	stateSvc state.ProbeStateService,
	cfg Config,
	opts ...Option,
) *defaultCoordinator {
	c := &defaultCoordinator{
		fetcher:   fetcher,
		validator: validators.CardValidator{},
		stateSvc:  stateSvc,
		config:    cfg.withDefaults(),
		publisher: events.Noop{},
		now:       time.Now,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		done: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins the health check loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting health check coordinator",
		"interval", c.config.Interval,
		"concurrency", c.config.Concurrency,
		"failure_threshold", c.config.FailureThreshold)

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Health check coordinator shutting down")
	}()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	c.runCycle(coordCtx)

	for {
		// Ticks that fired while the cycle ran are dropped
		select {
		case <-ticker.C:
		default:
		}

		select {
		case <-ticker.C:
			c.runCycle(coordCtx)
		case <-coordCtx.Done():
			slog.Info("Health check coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping health check coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// runCycle probes every entry once and prunes expired probes
func (c *defaultCoordinator) runCycle(ctx context.Context) CycleResult {
	start := time.Now()
	slog.InfoContext(ctx, "Starting health check cycle")

	result, err := c.probeAll(ctx)
	duration := time.Since(start)
	c.metrics.RecordCycle(ctx, result.Probed, duration, result.Complete)

	if err != nil {
		slog.ErrorContext(ctx, "Health check cycle abandoned",
			"probed", result.Probed,
			"duration", duration,
			"error", err)
		return result
	}

	slog.InfoContext(ctx, "Health check cycle completed",
		"probed", result.Probed,
		"failed", result.Failed,
		"conformance_changes", result.Changed,
		"store_errors", result.Errors,
		"duration", duration)

	c.prune(ctx)
	return result
}

func (c *defaultCoordinator) probeAll(ctx context.Context) (CycleResult, error) {
	var probed, failed, changed, storeErrors atomic.Int64
	collect := func(complete bool) CycleResult {
		return CycleResult{
			Probed:   probed.Load(),
			Failed:   failed.Load(),
			Changed:  changed.Load(),
			Errors:   storeErrors.Load(),
			Complete: complete,
		}
	}

	after := uuid.Nil
	for {
		page, err := c.loadPage(ctx, after)
		if err != nil {
			return collect(false), err
		}
		if len(page) == 0 {
			return collect(true), nil
		}

		var g errgroup.Group
		g.SetLimit(c.config.Concurrency)
		for _, target := range page {
			g.Go(func() error {
				outcome, err := c.probeEntry(ctx, target)
				probed.Add(1)
				if !outcome.success {
					failed.Add(1)
				}
				if outcome.changed {
					changed.Add(1)
				}
				if err != nil {
					storeErrors.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return collect(false), err
		}
		after = page[len(page)-1].ID
	}
}

// loadPage loads the next page of targets, retrying for at most half the interval
func (c *defaultCoordinator) loadPage(ctx context.Context, after uuid.UUID) ([]state.Target, error) {
	page, err := backoff.Retry(ctx,
		func() ([]state.Target, error) {
			return c.stateSvc.ListProbeTargets(ctx, after, c.config.PageSize)
		},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxElapsedTime(c.config.Interval/2),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.WarnContext(ctx, "Failed to load probe targets, retrying",
				"error", err,
				"retry_in", wait)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load probe targets: %w", err)
	}
	return page, nil
}

func (c *defaultCoordinator) prune(ctx context.Context) {
	if c.config.Retention <= 0 {
		return
	}

	cutoff := c.now().Add(-c.config.Retention)
	deleted, err := c.stateSvc.PruneProbes(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to prune probes", "cutoff", cutoff, "error", err)
		return
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Pruned expired probes", "deleted", deleted, "cutoff", cutoff)
	}
}

// record stores the probe, retrying transient store failures
func (c *defaultCoordinator) record(
	ctx context.Context,
	target state.Target,
	probe *state.Probe,
	decide state.DecideFunc,
) (state.Transition, error) {
	return backoff.Retry(ctx,
		func() (state.Transition, error) {
			transition, err := c.stateSvc.RecordProbeAtomically(ctx, target.ID, probe, decide)
			if errors.Is(err, state.ErrEntryGone) {
				return transition, backoff.Permanent(err)
			}
			return transition, err
		},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(storeRetries),
	)
}
