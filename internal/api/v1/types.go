package v1

import (
	"github.com/google/uuid"

	"github.com/stacklok/agent-directory/internal/service"
)

// RegisterRequest is the body of POST /agents/register
type RegisterRequest struct {
	URL    string `json:"url"`
	Author string `json:"author,omitempty"`
}

// FlagRequest is the body of POST /agents/{id}/flag
type FlagRequest struct {
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// ProbesResponse is the body of GET /agents/{id}/health
type ProbesResponse struct {
	AgentID uuid.UUID              `json:"agent_id"`
	Hours   int                    `json:"hours"`
	Probes  []*service.ProbeRecord `json:"probes"`
}
