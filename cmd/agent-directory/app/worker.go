package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/agent-directory/internal/app"
	"github.com/stacklok/agent-directory/internal/telemetry"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the health check worker",
		Long: `Run the health check worker without the API server.

The worker probes every listed agent on the configured interval, records
the outcomes, updates availability and hides agents that fail repeatedly.
It shares the database with 'agent-directory serve'.`,
		RunE: runWorker,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Bool("migrate", false, "Apply pending database migrations before starting")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, tel, err := loadTelemetry(ctx, cmd, telemetry.RoleWorker)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	if err := migrateOnStartup(cmd, cfg); err != nil {
		return err
	}

	worker, err := app.NewMonitorWorker(ctx, app.WithConfig(cfg), app.WithTelemetry(tel))
	if err != nil {
		return fmt.Errorf("failed to build monitor: %w", err)
	}

	return worker.Run(ctx)
}
