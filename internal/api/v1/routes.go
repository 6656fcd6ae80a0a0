// Package v1 provides the agent directory REST endpoints.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/agent-directory/internal/api/common"
	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/ratelimit"
	"github.com/stacklok/agent-directory/internal/service"
)

// maxBodyBytes bounds request bodies, matching the largest card the fetcher accepts
const maxBodyBytes = 1 << 20

// Keys of the direct registration payload that are not part of the card
var payloadKeys = []string{"wellKnownURI", "well_known_uri", "author"}

// Routes handles HTTP requests for the agent directory endpoints.
type Routes struct {
	service service.DirectoryService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.DirectoryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates the router for the agent directory endpoints. The
// registration middlewares wrap only the two registration endpoints.
func Router(svc service.DirectoryService, registration ...func(http.Handler) http.Handler) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(registration...)
		r.Post("/agents/register", routes.register)
		r.Post("/agents", routes.createEntry)
	})

	r.Get("/agents", routes.listEntries)
	r.Route("/agents/{id}", func(r chi.Router) {
		r.Get("/", routes.getEntry)
		r.Put("/", routes.refreshEntry)
		r.Delete("/", routes.deleteEntry)
		r.Get("/health", routes.listProbes)
		r.Get("/uptime", routes.getUptime)
		r.Post("/flag", routes.flagEntry)
	})
	r.Get("/stats", routes.getStats)

	return r
}

// register handles POST /agents/register
func (routes *Routes) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := routes.service.Register(r.Context(),
		service.WithURL[service.RegisterOptions](req.URL),
		service.WithAuthor[service.RegisterOptions](req.Author),
	)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, result, http.StatusCreated)
}

// createEntry handles POST /agents with a full card payload
func (routes *Routes) createEntry(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeBody(w, r, &payload); err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	wellKnownURI := stringField(payload, "wellKnownURI", "well_known_uri")
	author := stringField(payload, "author")
	doc := card.Document{}
	for k, v := range payload {
		doc[k] = v
	}
	for _, k := range payloadKeys {
		delete(doc, k)
	}

	result, err := routes.service.CreateEntry(r.Context(),
		service.WithURL[service.CreateEntryOptions](wellKnownURI),
		service.WithAuthor[service.CreateEntryOptions](author),
		service.WithDocument(doc),
	)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, result, http.StatusCreated)
}

// listEntries handles GET /agents
func (routes *Routes) listEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := []service.Option[service.ListEntriesOptions]{
		service.WithSearch(query.Get("search")),
		service.WithSkill(query.Get("skill")),
		service.WithCapability(query.Get("capability")),
		service.WithAuthor[service.ListEntriesOptions](query.Get("author")),
		service.WithConformance(query.Get("conformance")),
	}

	limit, ok, err := common.QueryInt(r, "limit")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		opts = append(opts, service.WithLimit(limit))
	}

	offset, ok, err := common.QueryInt(r, "offset")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		opts = append(opts, service.WithOffset(offset))
	}

	result, err := routes.service.ListEntries(r.Context(), opts...)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, result, http.StatusOK)
}

// getEntry handles GET /agents/{id}
func (routes *Routes) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	detail, err := routes.service.GetEntry(r.Context(), id)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, detail, http.StatusOK)
}

// refreshEntry handles PUT /agents/{id}
func (routes *Routes) refreshEntry(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := routes.service.RefreshEntry(r.Context(), id)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, result, http.StatusOK)
}

// deleteEntry handles DELETE /agents/{id}
func (routes *Routes) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.service.DeleteEntry(r.Context(), id); err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listProbes handles GET /agents/{id}/health
func (routes *Routes) listProbes(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	hours := service.DefaultProbeHours
	v, ok, err := common.QueryInt(r, "hours")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		hours = v
	}

	probes, err := routes.service.ListProbes(r.Context(), id, service.WithHours(hours))
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, ProbesResponse{AgentID: id, Hours: hours, Probes: probes}, http.StatusOK)
}

// getUptime handles GET /agents/{id}/uptime
func (routes *Routes) getUptime(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	opts := []service.Option[service.UptimeOptions]{}
	days, ok, err := common.QueryInt(r, "period_days")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		opts = append(opts, service.WithPeriodDays(days))
	}

	report, err := routes.service.GetUptime(r.Context(), id, opts...)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, report, http.StatusOK)
}

// flagEntry handles POST /agents/{id}/flag
func (routes *Routes) flagEntry(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, common.KindInvalidID, err.Error(), http.StatusBadRequest)
		return
	}

	var req FlagRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, common.KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := routes.service.FlagEntry(r.Context(), id,
		service.WithReason(req.Reason),
		service.WithDetail(req.Detail),
		service.WithReporter(ratelimit.ClientIP(r)),
	)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, record, http.StatusCreated)
}

// getStats handles GET /stats
func (routes *Routes) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := routes.service.GetStats(r.Context())
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, stats, http.StatusOK)
}

// decodeBody decodes a bounded JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("request body must be a JSON object")
	}
	return nil
}

// stringField returns the first non-blank string value among keys
func stringField(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := payload[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
