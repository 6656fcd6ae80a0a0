package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/agent-directory/database"
	"github.com/stacklok/agent-directory/internal/app"
	"github.com/stacklok/agent-directory/internal/config"
	"github.com/stacklok/agent-directory/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent directory API server",
		Long: `Start the agent directory API server.

The server requires a configuration file (--config) that specifies the
database connection and, optionally, fetcher limits, the availability
monitor, the read cache, NATS events and telemetry.

With monitor.embedded set the availability monitor runs in this process;
otherwise run 'agent-directory worker' alongside it.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Bool("migrate", false, "Apply pending database migrations before starting")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

// loadTelemetry loads the config at the --config path and initializes telemetry for it.
func loadTelemetry(ctx context.Context, cmd *cobra.Command, role telemetry.Role) (*config.Config, *telemetry.Telemetry, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration", "path", configPath)

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry), telemetry.WithRole(role))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return cfg, tel, nil
}

// migrateOnStartup applies pending migrations when --migrate is set
func migrateOnStartup(cmd *cobra.Command, cfg *config.Config) error {
	if enabled, _ := cmd.Flags().GetBool("migrate"); !enabled {
		return nil
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}
	slog.Info("Applying pending database migrations")
	if err := database.MigrateUp(connString); err != nil {
		return err
	}
	return nil
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown telemetry", "error", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, tel, err := loadTelemetry(ctx, cmd, telemetry.RoleServer)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	if err := migrateOnStartup(cmd, cfg); err != nil {
		return err
	}

	opts := []app.DirectoryAppOptions{
		app.WithConfig(cfg),
		app.WithTelemetry(tel),
	}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	directoryApp, err := app.NewDirectoryApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- directoryApp.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = directoryApp.Stop(defaultGracefulTimeout)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if err := directoryApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}
