package api

import (
	"net/http"

	"github.com/stacklok/agent-directory/internal/api/common"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/versions"
)

// StatusResponse is the body of the liveness and readiness probes
type StatusResponse struct {
	Status string `json:"status"`
}

// healthHandler reports liveness without touching the store
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, StatusResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports whether the store is reachable and migrated
func readinessHandler(svc service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, common.KindNotReady,
				"directory not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}

		common.WriteJSONResponse(w, StatusResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
