package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/service"
)

// Error kinds reported in the "kind" field of error responses
const (
	KindInvalidRequest      = "invalid-request"
	KindInvalidID           = "invalid-id"
	KindInvalidURL          = "invalid-url"
	KindNotFound            = "not-found"
	KindFetchError          = "fetch-error"
	KindValidationError     = "validation-error"
	KindOwnershipUnverified = "ownership-unverified"
	KindRateLimited         = "rate-limited"
	KindStoreError          = "store-error"
	KindNotReady            = "not-ready"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Kind       string   `json:"kind"`
	Detail     string   `json:"detail"`
	Cause      string   `json:"cause,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, kind, detail string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{Kind: kind, Detail: detail}, statusCode)
}

// WriteServiceError maps an error returned by the directory service to its
// HTTP status and error body. Unclassified errors are logged and reported as
// store errors without their detail.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	resp, status := classify(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	WriteJSONResponse(w, resp, status)
}

func classify(err error) (ErrorResponse, int) {
	var validationErr *service.ValidationError
	var fetchErr *card.FetchError

	switch {
	case errors.As(err, &validationErr):
		return ErrorResponse{
			Kind:       KindValidationError,
			Detail:     "card is not conformant",
			Violations: validationErr.Violations,
		}, http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidURL):
		return ErrorResponse{Kind: KindInvalidURL, Detail: err.Error()}, http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidRequest):
		return ErrorResponse{Kind: KindInvalidRequest, Detail: err.Error()}, http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return ErrorResponse{Kind: KindNotFound, Detail: "agent not found"}, http.StatusNotFound
	case errors.Is(err, service.ErrOwnershipUnverified):
		return ErrorResponse{Kind: KindOwnershipUnverified, Detail: err.Error()}, http.StatusForbidden
	case errors.As(err, &fetchErr):
		return ErrorResponse{
			Kind:   KindFetchError,
			Detail: fetchErr.Detail,
			Cause:  string(fetchErr.Kind),
		}, http.StatusBadGateway
	default:
		return ErrorResponse{Kind: KindStoreError, Detail: "internal error"}, http.StatusInternalServerError
	}
}
