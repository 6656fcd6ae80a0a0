// Package storage creates the storage-dependent components of the directory.
// The directory service and the probe state service share one connection
// pool, which the factory owns.
package storage

import (
	"context"

	"github.com/stacklok/agent-directory/internal/monitor/state"
	"github.com/stacklok/agent-directory/internal/service"
	database "github.com/stacklok/agent-directory/internal/service/db"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
type Factory interface {
	// CreateStateService creates the state service used by the health monitor
	CreateStateService(ctx context.Context) (state.ProbeStateService, error)

	// CreateDirectoryService creates the directory service. The factory
	// supplies the connection pool; opts carry the remaining collaborators.
	CreateDirectoryService(ctx context.Context, opts ...database.Option) (service.DirectoryService, error)

	// Cleanup releases the resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}
