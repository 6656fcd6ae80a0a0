package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/agent-directory/internal/api"
	"github.com/stacklok/agent-directory/internal/app/storage"
	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/config"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/httpclient"
	"github.com/stacklok/agent-directory/internal/monitor/coordinator"
	"github.com/stacklok/agent-directory/internal/ratelimit"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/service/cached"
	database "github.com/stacklok/agent-directory/internal/service/db"
	"github.com/stacklok/agent-directory/internal/telemetry"
	"github.com/stacklok/agent-directory/internal/versions"
)

const (
	// Registration waits on a card fetch, so the budget exceeds the fetch timeout
	defaultRequestTimeout = 20 * time.Second
	defaultReadTimeout    = 10 * time.Second
	// Must exceed the request timeout so the timeout middleware answers first
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// DirectoryAppOptions is a function that configures the directory app builder
type DirectoryAppOptions func(*directoryAppConfig) error

// directoryAppConfig collects the builder inputs. Injected components take
// precedence over the ones built from the configuration.
type directoryAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	fetcher        card.Fetcher
	eventBus       events.Bus

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry is optional; nil disables metrics and tracing
	telemetry *telemetry.Telemetry

	embeddedMonitor bool
}

func baseConfig(opts ...DirectoryAppOptions) (*directoryAppConfig, error) {
	cfg := &directoryAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}
	if cfg.config.Monitor != nil && cfg.config.Monitor.Embedded {
		cfg.embeddedMonitor = true
	}

	return cfg, nil
}

// NewDirectoryApp builds the API server and, when configured, the embedded
// health monitor
func NewDirectoryApp(
	ctx context.Context,
	opts ...DirectoryAppOptions,
) (*DirectoryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	deps, err := buildSharedComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			deps.cleanup()
		}
	}()

	svc, unsubscribe, err := buildServiceComponents(ctx, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}
	deps.closers = append(deps.closers, unsubscribe)

	var monitor coordinator.Coordinator
	if cfg.embeddedMonitor {
		monitor, err = buildMonitorComponents(ctx, cfg, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to build monitor components: %w", err)
		}
	}

	httpServer, err := buildHTTPServer(ctx, cfg, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	return &DirectoryApp{
		config: cfg.config,
		components: &AppComponents{
			Monitor:          monitor,
			DirectoryService: svc,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: func() {
			cancel()
			deps.cleanup()
		},
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithFetcher allows injecting a custom card fetcher (for testing)
func WithFetcher(f card.Fetcher) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithEventBus allows injecting a change event bus instead of dialing NATS
func WithEventBus(bus events.Bus) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.eventBus = bus
		return nil
	}
}

// WithTelemetry sets the OpenTelemetry providers used for metrics and tracing
func WithTelemetry(t *telemetry.Telemetry) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithEmbeddedMonitor runs the health monitor inside the API process
func WithEmbeddedMonitor(embedded bool) DirectoryAppOptions {
	return func(cfg *directoryAppConfig) error {
		cfg.embeddedMonitor = embedded
		return nil
	}
}

// sharedComponents are used by both the API server and the monitor
type sharedComponents struct {
	factory  storage.Factory
	fetcher  card.Fetcher
	checker  database.URLChecker
	eventBus events.Bus
	closers  []func() error
}

// cleanup releases the shared components in reverse order of creation
func (d *sharedComponents) cleanup() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Warn("Failed to release component", "error", err)
		}
	}
	d.closers = nil
}

// buildSharedComponents builds the storage factory, card fetcher and event bus
func buildSharedComponents(ctx context.Context, b *directoryAppConfig) (*sharedComponents, error) {
	deps := &sharedComponents{}

	if b.storageFactory == nil {
		var factoryOpts []storage.DatabaseFactoryOption
		if b.telemetry != nil {
			factoryOpts = append(factoryOpts,
				storage.WithTracer(b.telemetry.TracerProvider().Tracer(database.ServiceTracerName)))
		}

		factory, err := storage.NewDatabaseFactory(ctx, b.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
		b.storageFactory = factory
	}
	deps.factory = b.storageFactory
	deps.closers = append(deps.closers, func() error {
		deps.factory.Cleanup()
		return nil
	})

	deps.fetcher = b.fetcher
	if deps.fetcher == nil {
		client, err := buildHTTPClient(b.config)
		if err != nil {
			deps.cleanup()
			return nil, fmt.Errorf("failed to build card fetcher: %w", err)
		}
		deps.fetcher = card.NewFetcher(client)
		deps.checker = client
	}

	deps.eventBus = b.eventBus
	if deps.eventBus == nil {
		bus, err := buildEventBus(b.config)
		if err != nil {
			deps.cleanup()
			return nil, err
		}
		deps.eventBus = bus
	}
	deps.closers = append(deps.closers, deps.eventBus.Close)

	return deps, nil
}

// buildHTTPClient builds the guarded client used for every outbound card fetch
func buildHTTPClient(cfg *config.Config) (*httpclient.GuardedClient, error) {
	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.GetFetchTimeout()),
		httpclient.WithMaxResponseSize(cfg.GetMaxCardBytes()),
		httpclient.WithUserAgent(versions.UserAgent()),
	}
	if cfg.Fetcher != nil {
		opts = append(opts,
			httpclient.WithDeniedHosts(cfg.Fetcher.DeniedHosts),
			httpclient.WithAllowPrivateNetworks(cfg.Fetcher.AllowPrivateNetworks),
		)
		if cfg.Fetcher.AllowPrivateNetworks {
			slog.Warn("Private network addresses are allowed for card fetches")
		}
	}
	return httpclient.NewClient(opts...)
}

// brokerConfigured reports whether changes are shared between processes
func brokerConfigured(cfg *config.Config) bool {
	return cfg.Events != nil && cfg.Events.NATSURL != ""
}

// buildEventBus connects to NATS, or returns an in-process bus when no URL is configured
func buildEventBus(cfg *config.Config) (events.Bus, error) {
	if !brokerConfigured(cfg) {
		slog.Info("Change events are delivered in-process only")
		return events.NewLocal(), nil
	}

	bus, err := events.Connect(cfg.Events.NATSURL, cfg.GetEventsSubject())
	if err != nil {
		return nil, fmt.Errorf("failed to connect change event bus: %w", err)
	}
	slog.Info("Change events enabled", "subject", cfg.GetEventsSubject())
	return bus, nil
}

// buildServiceComponents builds the directory service and its read cache.
// The returned function detaches the cache from the event bus.
func buildServiceComponents(
	ctx context.Context,
	b *directoryAppConfig,
	deps *sharedComponents,
) (service.DirectoryService, func() error, error) {
	slog.Info("Initializing service components")

	opts := []database.Option{
		database.WithFetcher(deps.fetcher),
		database.WithPublisher(deps.eventBus),
	}
	if deps.checker != nil {
		opts = append(opts, database.WithURLChecker(deps.checker))
	}
	if b.telemetry != nil {
		metrics, err := telemetry.NewRegistrationMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create registration metrics: %w", err)
		}
		opts = append(opts, database.WithRegistrationMetrics(metrics))
	}

	svc, err := deps.factory.CreateDirectoryService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create directory service: %w", err)
	}

	size := b.config.GetCacheSize()
	if size == 0 {
		slog.Info("Read cache disabled")
		return svc, func() error { return nil }, nil
	}
	// A worker in another process can only invalidate the cache through the broker
	if !b.embeddedMonitor && !brokerConfigured(b.config) {
		slog.Warn("Read cache disabled: the health monitor is not embedded and no event broker is configured")
		return svc, func() error { return nil }, nil
	}

	cache := cached.New(svc, size, b.config.GetCacheTTL())
	unsubscribe, err := deps.eventBus.Subscribe(cache.HandleChange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe read cache to change events: %w", err)
	}

	slog.Info("Service components initialized successfully",
		"cache_size", size,
		"cache_ttl", b.config.GetCacheTTL())
	return cache, unsubscribe, nil
}

// monitorConfig maps the configuration onto the coordinator settings
func monitorConfig(cfg *config.Config) coordinator.Config {
	return coordinator.Config{
		Interval:         cfg.GetProbeInterval(),
		Concurrency:      cfg.GetProbeConcurrency(),
		PageSize:         cfg.GetProbePageSize(),
		FailureThreshold: cfg.GetFailureThreshold(),
		Retention:        cfg.GetProbeRetention(),
	}
}

// buildMonitorComponents builds the health check coordinator
func buildMonitorComponents(
	ctx context.Context,
	b *directoryAppConfig,
	deps *sharedComponents,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing monitor components")

	stateService, err := deps.factory.CreateStateService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithPublisher(deps.eventBus),
	}
	if b.telemetry != nil {
		probeMetrics, err := telemetry.NewProbeMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create probe metrics: %w", err)
		}
		if probeMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithProbeMetrics(probeMetrics))
			slog.Info("Probe metrics enabled")
		}
	}

	monitor := coordinator.New(deps.fetcher, stateService, monitorConfig(b.config), coordOpts...)
	slog.Info("Monitor components initialized successfully")

	return monitor, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *directoryAppConfig,
	svc service.DirectoryService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
		}
		// The rate limiter keys on RemoteAddr, so forwarded headers are
		// only honored behind a trusted proxy
		if b.config.Server != nil && b.config.Server.TrustedProxies {
			b.middlewares = append(b.middlewares, middleware.RealIP)
		}
		b.middlewares = append(b.middlewares,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		)
	}

	serverOpts := []api.ServerOption{}

	if b.telemetry != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		// Prepend so that rejected requests are measured too
		b.middlewares = append([]func(http.Handler) http.Handler{
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
			metricsMiddleware,
		}, b.middlewares...)

		if handler := b.telemetry.MetricsHandler(); handler != nil {
			serverOpts = append(serverOpts, api.WithMetricsHandler(handler))
			slog.Info("Prometheus metrics endpoint enabled")
		}
	}
	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))

	if perHour := b.config.GetRegistrationsPerHour(); perHour > 0 {
		limiter, err := ratelimit.New(perHour, ratelimit.DefaultClients)
		if err != nil {
			return nil, fmt.Errorf("failed to create registration rate limiter: %w", err)
		}
		serverOpts = append(serverOpts, api.WithRegistrationMiddlewares(limiter.Middleware))
		slog.Info("Registration rate limiting enabled", "per_hour", perHour)
	} else {
		slog.Warn("Registration rate limiting disabled")
	}

	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
