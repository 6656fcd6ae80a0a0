package app

import (
	"github.com/stacklok/agent-directory/internal/monitor/coordinator"
	"github.com/stacklok/agent-directory/internal/service"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Monitor runs the periodic health checks. It is nil unless the
	// monitor is embedded in the API process.
	Monitor coordinator.Coordinator

	// DirectoryService provides the directory business logic
	DirectoryService service.DirectoryService
}
