// Package app provides application lifecycle management for the agent directory.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/agent-directory/internal/config"
)

// DirectoryApp encapsulates all components needed to run the directory API server
// It provides lifecycle management and graceful shutdown capabilities
type DirectoryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	stopOnce   sync.Once
}

// Start starts the HTTP server and, when embedded, the health monitor.
// This method blocks until the HTTP server stops or encounters an error
func (app *DirectoryApp) Start() error {
	if app.components.Monitor != nil {
		go func() {
			if err := app.components.Monitor.Start(app.ctx); err != nil {
				slog.Error("Health monitor failed", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// The HTTP server drains first, then the monitor stops and the shared
// resources are released. Calls after the first are no-ops.
func (app *DirectoryApp) Stop(timeout time.Duration) error {
	var err error
	app.stopOnce.Do(func() {
		err = app.stop(timeout)
	})
	return err
}

func (app *DirectoryApp) stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := app.httpServer.Shutdown(shutdownCtx)

	if app.components.Monitor != nil {
		if err := app.components.Monitor.Stop(); err != nil {
			slog.Error("Failed to stop health monitor", "error", err)
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *DirectoryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *DirectoryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
