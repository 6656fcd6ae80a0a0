package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	storagemocks "github.com/stacklok/agent-directory/internal/app/storage/mocks"
	cardmocks "github.com/stacklok/agent-directory/internal/card/mocks"
	"github.com/stacklok/agent-directory/internal/config"
	"github.com/stacklok/agent-directory/internal/events"
	statemocks "github.com/stacklok/agent-directory/internal/monitor/state/mocks"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/service/cached"
	"github.com/stacklok/agent-directory/internal/service/mocks"
)

// fakeBus records subscriptions and closes
type fakeBus struct {
	events.Noop

	mu           sync.Mutex
	handlers     int
	unsubscribed int
	closed       bool
}

func (b *fakeBus) Subscribe(events.Handler) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers++
	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.unsubscribed++
		return nil
	}, nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// createTestConfig creates a minimal valid config for testing
func createTestConfig() *config.Config {
	return &config.Config{
		Database: &config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "agentdir",
			Database: "agentdir",
		},
	}
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(WithConfig(createTestConfig()))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultAddress, built.address)
		assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
		assert.Greater(t, built.writeTimeout, built.requestTimeout)
		assert.False(t, built.embeddedMonitor)
	})

	t.Run("address and monitor from config", func(t *testing.T) {
		t.Parallel()
		cfg := createTestConfig()
		cfg.Server = &config.ServerConfig{Address: ":9191"}
		cfg.Monitor = &config.MonitorConfig{Embedded: true}

		built, err := baseConfig(WithConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, ":9191", built.address)
		assert.True(t, built.embeddedMonitor)
	})

	t.Run("explicit address wins", func(t *testing.T) {
		t.Parallel()
		cfg := createTestConfig()
		cfg.Server = &config.ServerConfig{Address: ":9191"}

		built, err := baseConfig(WithConfig(cfg), WithAddress(":8888"))
		require.NoError(t, err)
		assert.Equal(t, ":8888", built.address)
	})

	t.Run("config is required", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig()
		require.Error(t, err)
		assert.Nil(t, built)
	})
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":8080"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "ip", addr: "10.0.0.1:8080"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: ":", wantErr: true},
		{name: "no separator", addr: "8080", wantErr: true},
		{name: "invalid host", addr: "not-an-ip:8080", wantErr: true},
		{name: "invalid port", addr: ":99999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &directoryAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestMonitorConfig(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig()
	cfg.Monitor = &config.MonitorConfig{
		Interval:         "10m",
		Concurrency:      4,
		PageSize:         50,
		FailureThreshold: 3,
		Retention:        "24h",
	}

	got := monitorConfig(cfg)
	assert.Equal(t, 10*time.Minute, got.Interval)
	assert.Equal(t, 4, got.Concurrency)
	assert.Equal(t, 50, got.PageSize)
	assert.Equal(t, 3, got.FailureThreshold)
	assert.Equal(t, 24*time.Hour, got.Retention)
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()

	t.Run("registration is rate limited", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		mockSvc := mocks.NewMockDirectoryService(ctrl)
		mockSvc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(&service.RegistrationResult{Entry: &service.Entry{}, Created: true, Warnings: []string{}}, nil)

		cfg := createTestConfig()
		cfg.Server = &config.ServerConfig{RegistrationsPerHour: 1}
		built, err := baseConfig(WithConfig(cfg))
		require.NoError(t, err)

		server, err := buildHTTPServer(context.Background(), built, mockSvc)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultAddress, server.Addr)

		register := func() int {
			req := httptest.NewRequest(http.MethodPost, "/agents/register",
				strings.NewReader(`{"url":"https://a.example.com"}`))
			req.RemoteAddr = "198.51.100.7:4000"
			rr := httptest.NewRecorder()
			server.Handler.ServeHTTP(rr, req)
			return rr.Code
		}

		assert.Equal(t, http.StatusCreated, register())
		assert.Equal(t, http.StatusTooManyRequests, register())
	})

	t.Run("rate limiting disabled", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		mockSvc := mocks.NewMockDirectoryService(ctrl)
		mockSvc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(&service.RegistrationResult{Entry: &service.Entry{}, Warnings: []string{}}, nil).
			Times(3)

		cfg := createTestConfig()
		cfg.Server = &config.ServerConfig{RegistrationsPerHour: -1}
		built, err := baseConfig(WithConfig(cfg))
		require.NoError(t, err)

		server, err := buildHTTPServer(context.Background(), built, mockSvc)
		require.NoError(t, err)

		for range 3 {
			rr := httptest.NewRecorder()
			server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agents/register",
				strings.NewReader(`{"url":"https://a.example.com"}`)))
			assert.Equal(t, http.StatusCreated, rr.Code)
		}
	})

	t.Run("custom middlewares replace the defaults", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		called := false
		mw := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				next.ServeHTTP(w, r)
			})
		}

		built, err := baseConfig(WithConfig(createTestConfig()), WithMiddlewares(mw))
		require.NoError(t, err)

		server, err := buildHTTPServer(context.Background(), built, mocks.NewMockDirectoryService(ctrl))
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})
}

func TestBuildServiceComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cache         *config.CacheConfig
		monitor       *config.MonitorConfig
		events        *config.EventsConfig
		wantCached    bool
		wantSubscribe int
	}{
		{
			name:          "embedded monitor",
			monitor:       &config.MonitorConfig{Embedded: true},
			wantCached:    true,
			wantSubscribe: 1,
		},
		{
			name:          "standalone monitor with broker",
			events:        &config.EventsConfig{NATSURL: "nats://localhost:4222"},
			wantCached:    true,
			wantSubscribe: 1,
		},
		{name: "standalone monitor without broker"},
		{
			name:    "cache disabled",
			cache:   &config.CacheConfig{Size: -1},
			monitor: &config.MonitorConfig{Embedded: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockDirectoryService(ctrl)
			factory := storagemocks.NewMockFactory(ctrl)
			factory.EXPECT().CreateDirectoryService(gomock.Any(), gomock.Any()).Return(mockSvc, nil)

			cfg := createTestConfig()
			cfg.Cache = tt.cache
			cfg.Monitor = tt.monitor
			cfg.Events = tt.events
			built, err := baseConfig(WithConfig(cfg))
			require.NoError(t, err)

			bus := &fakeBus{}
			deps := &sharedComponents{
				factory:  factory,
				fetcher:  cardmocks.NewMockFetcher(ctrl),
				eventBus: bus,
			}

			svc, unsubscribe, err := buildServiceComponents(context.Background(), built, deps)
			require.NoError(t, err)
			require.NoError(t, unsubscribe())

			_, isCached := svc.(*cached.Service)
			assert.Equal(t, tt.wantCached, isCached)
			assert.Equal(t, tt.wantSubscribe, bus.handlers)
			assert.Equal(t, tt.wantSubscribe, bus.unsubscribed)
		})
	}

	t.Run("factory failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		factory := storagemocks.NewMockFactory(ctrl)
		factory.EXPECT().CreateDirectoryService(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("card fetcher is required"))

		built, err := baseConfig(WithConfig(createTestConfig()))
		require.NoError(t, err)

		_, _, err = buildServiceComponents(context.Background(), built,
			&sharedComponents{factory: factory, eventBus: events.Noop{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create directory service")
	})
}

func TestBuildMonitorComponents(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	factory := storagemocks.NewMockFactory(ctrl)
	factory.EXPECT().CreateStateService(gomock.Any()).Return(statemocks.NewMockProbeStateService(ctrl), nil)

	built, err := baseConfig(WithConfig(createTestConfig()))
	require.NoError(t, err)

	monitor, err := buildMonitorComponents(context.Background(), built, &sharedComponents{
		factory:  factory,
		fetcher:  cardmocks.NewMockFetcher(ctrl),
		eventBus: events.Noop{},
	})
	require.NoError(t, err)
	assert.NotNil(t, monitor)
}

func TestBuildEventBus(t *testing.T) {
	t.Parallel()

	bus, err := buildEventBus(createTestConfig())
	require.NoError(t, err)
	assert.IsType(t, &events.Local{}, bus)
}

func TestEmbeddedMonitorInvalidatesReadCache(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := createTestConfig()
	cfg.Monitor = &config.MonitorConfig{Embedded: true}
	built, err := baseConfig(WithConfig(cfg))
	require.NoError(t, err)

	bus, err := buildEventBus(cfg)
	require.NoError(t, err)

	id := uuid.New()
	store := mocks.NewMockDirectoryService(ctrl)
	gomock.InOrder(
		store.EXPECT().GetEntry(gomock.Any(), id).Return(&service.EntryDetail{
			Entry: &service.Entry{ID: id, Conformance: service.ConformanceUnknown},
		}, nil),
		store.EXPECT().GetEntry(gomock.Any(), id).Return(&service.EntryDetail{
			Entry: &service.Entry{ID: id, Conformance: service.ConformanceStandard},
		}, nil),
	)
	factory := storagemocks.NewMockFactory(ctrl)
	factory.EXPECT().CreateDirectoryService(gomock.Any(), gomock.Any()).Return(store, nil)

	svc, unsubscribe, err := buildServiceComponents(context.Background(), built, &sharedComponents{
		factory:  factory,
		fetcher:  cardmocks.NewMockFetcher(ctrl),
		eventBus: bus,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = unsubscribe() })

	detail, err := svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, service.ConformanceUnknown, detail.Entry.Conformance)

	// What the worker publishes after committing a new verdict
	require.NoError(t, bus.Publish(context.Background(), events.NewChange(id, events.ReasonConformance)))

	detail, err = svc.GetEntry(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, service.ConformanceStandard, detail.Entry.Conformance)
}

func TestNewDirectoryApp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		embedded    bool
		wantMonitor bool
	}{
		{name: "api only"},
		{name: "embedded monitor", embedded: true, wantMonitor: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			factory := storagemocks.NewMockFactory(ctrl)
			factory.EXPECT().CreateDirectoryService(gomock.Any(), gomock.Any()).
				Return(mocks.NewMockDirectoryService(ctrl), nil)
			if tt.embedded {
				factory.EXPECT().CreateStateService(gomock.Any()).
					Return(statemocks.NewMockProbeStateService(ctrl), nil)
			}
			factory.EXPECT().Cleanup()

			bus := &fakeBus{}
			app, err := NewDirectoryApp(context.Background(),
				WithConfig(createTestConfig()),
				WithAddress("127.0.0.1:0"),
				WithStorageFactory(factory),
				WithFetcher(cardmocks.NewMockFetcher(ctrl)),
				WithEventBus(bus),
				WithEmbeddedMonitor(tt.embedded),
			)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonitor, app.components.Monitor != nil)
			assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)

			require.NoError(t, app.Stop(time.Second))
			assert.True(t, bus.closed)
			assert.Equal(t, 1, bus.unsubscribed)
		})
	}

	t.Run("cleans up when a component fails", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		factory := storagemocks.NewMockFactory(ctrl)
		factory.EXPECT().CreateDirectoryService(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("boom"))
		factory.EXPECT().Cleanup()

		bus := &fakeBus{}
		app, err := NewDirectoryApp(context.Background(),
			WithConfig(createTestConfig()),
			WithStorageFactory(factory),
			WithFetcher(cardmocks.NewMockFetcher(ctrl)),
			WithEventBus(bus),
		)
		require.Error(t, err)
		assert.Nil(t, app)
		assert.True(t, bus.closed)
	})
}

func TestNewMonitorWorker(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	state := statemocks.NewMockProbeStateService(ctrl)
	state.EXPECT().ListProbeTargets(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	state.EXPECT().PruneProbes(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	factory := storagemocks.NewMockFactory(ctrl)
	factory.EXPECT().CreateStateService(gomock.Any()).Return(state, nil)
	factory.EXPECT().Cleanup()

	bus := &fakeBus{}
	worker, err := NewMonitorWorker(context.Background(),
		WithConfig(createTestConfig()),
		WithStorageFactory(factory),
		WithFetcher(cardmocks.NewMockFetcher(ctrl)),
		WithEventBus(bus),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	assert.True(t, bus.closed)
}
