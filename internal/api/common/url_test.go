package common

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDParam(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name       string
		paramValue string
		wantID     uuid.UUID
		wantErrMsg string
	}{
		{
			name:       "valid uuid",
			paramValue: id.String(),
			wantID:     id,
		},
		{
			name:       "uppercase uuid",
			paramValue: "6BA7B810-9DAD-11D1-80B4-00C04FD430C8",
			wantID:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		},
		{
			name:       "empty",
			paramValue: "",
			wantErrMsg: "id cannot be empty",
		},
		{
			name:       "whitespace",
			paramValue: "  ",
			wantErrMsg: "id cannot be empty",
		},
		{
			name:       "not a uuid",
			paramValue: "weather-agent",
			wantErrMsg: "id must be a UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/agents/x", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.paramValue)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := ParseIDParam(req, "id")
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got)
		})
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		want        int
		wantPresent bool
		wantErr     bool
	}{
		{name: "absent", query: ""},
		{name: "present", query: "?limit=20", want: 20, wantPresent: true},
		{name: "negative", query: "?limit=-1", want: -1, wantPresent: true},
		{name: "not a number", query: "?limit=ten", wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/agents"+tt.query, nil)
			got, present, err := QueryInt(req, "limit")
			assert.Equal(t, tt.wantPresent, present)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
