// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseIDParam extracts and parses the entry id URL parameter
func ParseIDParam(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, paramName))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", paramName)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter. The second return
// value reports whether the parameter was present.
func QueryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s parameter: must be an integer", name)
	}
	return v, true, nil
}
