package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/agent-directory/internal/monitor/coordinator"
)

// MonitorWorker runs the health monitor without the API server, so probing
// can be scaled separately from request handling
type MonitorWorker struct {
	monitor coordinator.Coordinator
	cleanup func()
}

// NewMonitorWorker builds a standalone health monitor. HTTP options are ignored.
func NewMonitorWorker(ctx context.Context, opts ...DirectoryAppOptions) (*MonitorWorker, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	deps, err := buildSharedComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	monitor, err := buildMonitorComponents(ctx, cfg, deps)
	if err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to build monitor components: %w", err)
	}

	return &MonitorWorker{
		monitor: monitor,
		cleanup: deps.cleanup,
	}, nil
}

// Run blocks until ctx is cancelled, then releases the worker resources
func (w *MonitorWorker) Run(ctx context.Context) error {
	defer w.cleanup()

	slog.Info("Starting standalone health monitor")
	if err := w.monitor.Start(ctx); err != nil {
		return fmt.Errorf("health monitor failed: %w", err)
	}
	return nil
}
