package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/agent-directory/internal/card"
)

func applyOptions[T RegisterOptions | CreateEntryOptions | ListEntriesOptions |
	ListProbesOptions | UptimeOptions | FlagOptions](o *T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

func TestListEntriesOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option[ListEntriesOptions]
		want    ListEntriesOptions
		wantErr bool
	}{
		{
			name: "all filters",
			opts: []Option[ListEntriesOptions]{
				WithSearch("  weather "),
				WithSkill("forecast"),
				WithCapability(card.CapabilityStreaming),
				WithAuthor[ListEntriesOptions]("Acme"),
				WithConformance("non-standard"),
				WithLimit(20),
				WithOffset(40),
			},
			want: ListEntriesOptions{
				Search:      "weather",
				Skill:       "forecast",
				Capability:  "streaming",
				Author:      "Acme",
				Conformance: FilterNonStandard,
				Limit:       20,
				Offset:      40,
			},
		},
		{
			name: "limit is capped",
			opts: []Option[ListEntriesOptions]{WithLimit(1000)},
			want: ListEntriesOptions{Limit: MaxPageSize},
		},
		{
			name: "empty conformance means all",
			opts: []Option[ListEntriesOptions]{WithConformance("")},
			want: ListEntriesOptions{Conformance: FilterAll},
		},
		{name: "unknown capability", opts: []Option[ListEntriesOptions]{WithCapability("telepathy")}, wantErr: true},
		{name: "unknown conformance", opts: []Option[ListEntriesOptions]{WithConformance("maybe")}, wantErr: true},
		{name: "zero limit", opts: []Option[ListEntriesOptions]{WithLimit(0)}, wantErr: true},
		{name: "negative offset", opts: []Option[ListEntriesOptions]{WithOffset(-1)}, wantErr: true},
		{name: "offset beyond int32", opts: []Option[ListEntriesOptions]{WithOffset(MaxOffset + 1)}, wantErr: true},
		{name: "offset that wraps to zero", opts: []Option[ListEntriesOptions]{WithOffset(1 << 32)}, wantErr: true},
		{
			name: "largest offset",
			opts: []Option[ListEntriesOptions]{WithOffset(MaxOffset)},
			want: ListEntriesOptions{Offset: MaxOffset},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got ListEntriesOptions
			err := applyOptions(&got, tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeOptions(t *testing.T) {
	t.Parallel()

	var probes ListProbesOptions
	require.NoError(t, applyOptions(&probes, WithHours(168)))
	assert.Equal(t, 168, probes.Hours)
	require.ErrorIs(t, applyOptions(&probes, WithHours(169)), ErrInvalidRequest)
	require.ErrorIs(t, applyOptions(&probes, WithHours(0)), ErrInvalidRequest)

	var uptime UptimeOptions
	require.NoError(t, applyOptions(&uptime, WithPeriodDays(1)))
	require.NoError(t, applyOptions(&uptime, WithPeriodDays(90)))
	assert.Equal(t, 90, uptime.PeriodDays)
	require.ErrorIs(t, applyOptions(&uptime, WithPeriodDays(91)), ErrInvalidRequest)
	require.ErrorIs(t, applyOptions(&uptime, WithPeriodDays(0)), ErrInvalidRequest)
}

func TestRegistrationOptions(t *testing.T) {
	t.Parallel()

	var register RegisterOptions
	require.NoError(t, applyOptions(&register,
		WithURL[RegisterOptions]("https://agent.example.com"),
		WithAuthor[RegisterOptions]("  "),
	))
	assert.Equal(t, RegisterOptions{URL: "https://agent.example.com"}, register)
	require.ErrorIs(t, applyOptions(&register, WithURL[RegisterOptions](" ")), ErrInvalidRequest)

	var create CreateEntryOptions
	require.NoError(t, applyOptions(&create,
		WithURL[CreateEntryOptions]("https://agent.example.com"),
		WithAuthor[CreateEntryOptions]("Jane"),
		WithDocument(card.Document{"name": "x"}),
	))
	assert.Equal(t, "Jane", create.Author)
	require.ErrorIs(t, applyOptions(&create, WithDocument(nil)), ErrInvalidRequest)
}

func TestFlagOptions(t *testing.T) {
	t.Parallel()

	var flag FlagOptions
	require.NoError(t, applyOptions(&flag,
		WithReason("impersonation"),
		WithDetail(" pretends to be Acme "),
		WithReporter("192.0.2.7"),
	))
	assert.Equal(t, FlagOptions{Reason: FlagImpersonation, Detail: "pretends to be Acme", Reporter: "192.0.2.7"}, flag)

	require.ErrorIs(t, applyOptions(&flag, WithReason("boring")), ErrInvalidRequest)

	long := make([]byte, MaxFlagDetailLength+1)
	for i := range long {
		long[i] = 'x'
	}
	require.ErrorIs(t, applyOptions(&flag, WithDetail(string(long))), ErrInvalidRequest)
}
