package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/health"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/service/mocks"
)

func detailFor(id uuid.UUID, name string) *service.EntryDetail {
	return &service.EntryDetail{Entry: &service.Entry{ID: id, Name: name}}
}

func TestGetEntryIsCached(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, time.Hour)

	id := uuid.New()
	next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "first"), nil).Times(1)
	next.EXPECT().GetHealth(gomock.Any(), id).Return(health.Summary{}, nil).Times(2)

	for range 3 {
		detail, err := svc.GetEntry(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "first", detail.Entry.Name)
	}
	assert.Equal(t, 1, svc.Len())
}

func TestGetEntryComputesHealthOnEveryHit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, time.Hour)

	id := uuid.New()
	loaded := detailFor(id, "agent")
	loaded.Health = health.Summary{TotalProbes: 1, SuccessfulProbes: 1, UptimePercentage: 100, Healthy: true}
	next.EXPECT().GetEntry(gomock.Any(), id).Return(loaded, nil)

	detail, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, detail.Health.Healthy)

	// The worker recorded two failures since the entry was cached
	later := health.Summary{TotalProbes: 3, SuccessfulProbes: 1, FailedProbes: 2, UptimePercentage: 33.33}
	next.EXPECT().GetHealth(gomock.Any(), id).Return(later, nil)

	detail, err = svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "agent", detail.Entry.Name)
	assert.Equal(t, later, detail.Health)

	next.EXPECT().GetHealth(gomock.Any(), id).Return(health.Summary{}, errors.New("connection reset"))
	_, err = svc.GetEntry(context.Background(), id)
	require.Error(t, err)
}

func TestGetEntryDoesNotStoreLoadOverlappingWrite(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, time.Hour)

	id := uuid.New()
	loading := make(chan struct{})
	release := make(chan struct{})

	gomock.InOrder(
		next.EXPECT().GetEntry(gomock.Any(), id).
			DoAndReturn(func(context.Context, uuid.UUID) (*service.EntryDetail, error) {
				// Read before the refresh commits, returned after it
				stale := detailFor(id, "old")
				close(loading)
				<-release
				return stale, nil
			}),
		next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "new"), nil),
	)
	next.EXPECT().RefreshEntry(gomock.Any(), id).
		Return(&service.RegistrationResult{Entry: &service.Entry{ID: id, Name: "new"}}, nil)

	done := make(chan *service.EntryDetail)
	go func() {
		detail, err := svc.GetEntry(context.Background(), id)
		assert.NoError(t, err)
		done <- detail
	}()

	<-loading
	_, err := svc.RefreshEntry(context.Background(), id)
	require.NoError(t, err)
	close(release)

	slow := <-done
	assert.Equal(t, "old", slow.Entry.Name)
	assert.Zero(t, svc.Len())

	detail, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "new", detail.Entry.Name)
}

func TestGetEntryErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, time.Hour)

	id := uuid.New()
	next.EXPECT().GetEntry(gomock.Any(), id).Return(nil, service.ErrNotFound).Times(2)

	for range 2 {
		_, err := svc.GetEntry(context.Background(), id)
		require.ErrorIs(t, err, service.ErrNotFound)
	}
	assert.Zero(t, svc.Len())
}

func TestWritesInvalidate(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name  string
		setup func(next *mocks.MockDirectoryService)
		write func(svc *Service) error
	}{
		{
			name: "refresh",
			setup: func(next *mocks.MockDirectoryService) {
				next.EXPECT().RefreshEntry(gomock.Any(), id).
					Return(&service.RegistrationResult{Entry: &service.Entry{ID: id}}, nil)
			},
			write: func(svc *Service) error {
				_, err := svc.RefreshEntry(context.Background(), id)
				return err
			},
		},
		{
			name: "failed refresh",
			setup: func(next *mocks.MockDirectoryService) {
				next.EXPECT().RefreshEntry(gomock.Any(), id).Return(nil, errors.New("fetch failed"))
			},
			write: func(svc *Service) error {
				_, _ = svc.RefreshEntry(context.Background(), id)
				return nil
			},
		},
		{
			name: "flag",
			setup: func(next *mocks.MockDirectoryService) {
				next.EXPECT().FlagEntry(gomock.Any(), id, gomock.Any()).
					Return(&service.FlagRecord{AgentID: id, FlagCount: 1}, nil)
			},
			write: func(svc *Service) error {
				_, err := svc.FlagEntry(context.Background(), id, service.WithReason("spam"))
				return err
			},
		},
		{
			name: "delete",
			setup: func(next *mocks.MockDirectoryService) {
				next.EXPECT().DeleteEntry(gomock.Any(), id).Return(nil)
			},
			write: func(svc *Service) error {
				return svc.DeleteEntry(context.Background(), id)
			},
		},
		{
			name: "create",
			setup: func(next *mocks.MockDirectoryService) {
				next.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).
					Return(&service.RegistrationResult{Entry: &service.Entry{ID: id}}, nil)
			},
			write: func(svc *Service) error {
				_, err := svc.CreateEntry(context.Background(),
					service.WithURL[service.CreateEntryOptions]("https://a.example.com/card.json"))
				return err
			},
		},
		{
			name: "change event",
			write: func(svc *Service) error {
				svc.HandleChange(context.Background(), events.NewChange(id, events.ReasonConformance))
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			next := mocks.NewMockDirectoryService(ctrl)
			svc := New(next, 10, time.Hour)

			gomock.InOrder(
				next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "before"), nil),
				next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "after"), nil),
			)
			if tt.setup != nil {
				tt.setup(next)
			}

			detail, err := svc.GetEntry(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, "before", detail.Entry.Name)

			require.NoError(t, tt.write(svc))

			detail, err = svc.GetEntry(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, "after", detail.Entry.Name)
		})
	}
}

func TestFailedWritesKeepCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, time.Hour)

	id := uuid.New()
	next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "cached"), nil).Times(1)
	next.EXPECT().DeleteEntry(gomock.Any(), id).Return(service.ErrOwnershipUnverified)

	next.EXPECT().GetHealth(gomock.Any(), id).Return(health.Summary{}, nil)

	_, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteEntry(context.Background(), id), service.ErrOwnershipUnverified)

	detail, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "cached", detail.Entry.Name)
}

func TestEntriesExpire(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 10, 20*time.Millisecond)

	id := uuid.New()
	next.EXPECT().GetEntry(gomock.Any(), id).Return(detailFor(id, "x"), nil).Times(2)

	_, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return svc.Len() == 0 }, time.Second, 10*time.Millisecond)

	_, err = svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
}

func TestPassThrough(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockDirectoryService(ctrl)
	svc := New(next, 0, 0)

	next.EXPECT().GetStats(gomock.Any()).Return(&service.Stats{TotalAgents: 4}, nil)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalAgents)
}
