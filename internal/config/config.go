// Package config provides configuration loading and management for the agent directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/agent-directory/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the agent directory
const EnvPrefix = "AGENTDIR"

const (
	// DefaultAddress is the address the API server listens on
	DefaultAddress = ":8080"

	// DefaultFetchTimeout is the hard timeout of a single card fetch
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxCardBytes caps the size of a fetched card
	DefaultMaxCardBytes int64 = 1 << 20

	// DefaultProbeInterval is the time between two health check cycles
	DefaultProbeInterval = 30 * time.Minute

	// DefaultProbeConcurrency is the maximum number of probes in flight
	DefaultProbeConcurrency = 20

	// DefaultProbePageSize is the number of entries loaded per page during a cycle
	DefaultProbePageSize = 200

	// DefaultFailureThreshold is the number of consecutive failed probes
	// after which an entry is marked non-conformant
	DefaultFailureThreshold = 2

	// DefaultProbeRetention is how long probe records are kept
	DefaultProbeRetention = 90 * 24 * time.Hour

	// DefaultRegistrationsPerHour is the per-client registration budget
	DefaultRegistrationsPerHour = 10

	// DefaultCacheSize is the number of entries held by the read cache
	DefaultCacheSize = 1024

	// DefaultEventsSubject is the NATS subject prefix for entry change events
	DefaultEventsSubject = "agentdir.entries"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Fetcher   *FetcherConfig    `yaml:"fetcher,omitempty"`
	Monitor   *MonitorConfig    `yaml:"monitor,omitempty"`
	Cache     *CacheConfig      `yaml:"cache,omitempty"`
	Events    *EventsConfig     `yaml:"events,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines the API server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`

	// RegistrationsPerHour limits registrations per client address.
	// A negative value disables rate limiting.
	RegistrationsPerHour int `yaml:"registrationsPerHour,omitempty"`

	// TrustedProxies enables trusting X-Forwarded-For / X-Real-IP headers
	TrustedProxies bool `yaml:"trustedProxies,omitempty"`
}

// FetcherConfig defines how agent cards are fetched
type FetcherConfig struct {
	// Timeout is the hard timeout for a single fetch (e.g., "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxBodyBytes caps the size of a card document
	MaxBodyBytes int64 `yaml:"maxBodyBytes,omitempty"`

	// DeniedHosts are glob patterns of host names that are never fetched
	DeniedHosts []string `yaml:"deniedHosts,omitempty"`

	// AllowPrivateNetworks disables the private address checks.
	// Only meant for local development.
	AllowPrivateNetworks bool `yaml:"allowPrivateNetworks,omitempty"`
}

// MonitorConfig defines the health check worker settings
type MonitorConfig struct {
	// Interval between two cycles (e.g., "30m")
	Interval string `yaml:"interval,omitempty"`

	// Concurrency is the maximum number of probes in flight
	Concurrency int `yaml:"concurrency,omitempty"`

	// PageSize is the number of entries loaded at once
	PageSize int `yaml:"pageSize,omitempty"`

	// FailureThreshold is the number of consecutive failed probes that
	// flips an entry to non-conformant
	FailureThreshold int `yaml:"failureThreshold,omitempty"`

	// Retention is how long probe records are kept (e.g., "2160h")
	Retention string `yaml:"retention,omitempty"`

	// Embedded runs the worker inside the serve command
	Embedded bool `yaml:"embedded,omitempty"`
}

// CacheConfig defines the read cache settings
type CacheConfig struct {
	// Size is the maximum number of cached entries. A negative value disables the cache.
	Size int `yaml:"size,omitempty"`

	// TTL bounds the age of a cached entry. Defaults to the monitor interval.
	TTL string `yaml:"ttl,omitempty"`
}

// EventsConfig defines the change event bus
type EventsConfig struct {
	// NATSURL is the NATS server URL. Events are disabled when empty.
	NATSURL string `yaml:"natsURL,omitempty"`

	// Subject is the subject prefix used for change events
	Subject string `yaml:"subject,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from AGENTDIR_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Database == nil {
		errs = append(errs, errors.New("database configuration is required"))
	} else if err := c.Database.validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if c.Fetcher != nil {
		if err := validateDuration(c.Fetcher.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("fetcher.timeout: %w", err))
		}
		if c.Fetcher.MaxBodyBytes < 0 {
			errs = append(errs, errors.New("fetcher.maxBodyBytes must not be negative"))
		}
	}

	if c.Monitor != nil {
		if err := c.Monitor.validate(); err != nil {
			errs = append(errs, fmt.Errorf("monitor: %w", err))
		}
	}

	if c.Cache != nil {
		if err := validateDuration(c.Cache.TTL); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return errors.New("host is required")
	}
	if d.Port <= 0 {
		return errors.New("port is required")
	}
	if d.User == "" {
		return errors.New("user is required")
	}
	if d.Database == "" {
		return errors.New("database is required")
	}
	if err := validateDuration(d.ConnMaxLifetime); err != nil {
		return fmt.Errorf("connMaxLifetime: %w", err)
	}
	return nil
}

func (m *MonitorConfig) validate() error {
	if err := validateDuration(m.Interval); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	if err := validateDuration(m.Retention); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	if m.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	if m.PageSize < 0 {
		return errors.New("pageSize must not be negative")
	}
	if m.FailureThreshold < 0 {
		return errors.New("failureThreshold must not be negative")
	}
	return nil
}

// validateDuration accepts an empty string (use the default) or a positive Go duration
func validateDuration(value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a valid duration (e.g., '30m', '1h'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", value)
	}
	return nil
}

// parseDurationOr parses value or returns fallback when value is empty or invalid
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetAddress returns the API listen address
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetRegistrationsPerHour returns the per-client registration budget, 0 when disabled
func (c *Config) GetRegistrationsPerHour() int {
	if c.Server == nil || c.Server.RegistrationsPerHour == 0 {
		return DefaultRegistrationsPerHour
	}
	if c.Server.RegistrationsPerHour < 0 {
		return 0
	}
	return c.Server.RegistrationsPerHour
}

// GetFetchTimeout returns the card fetch timeout
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetcher == nil {
		return DefaultFetchTimeout
	}
	return parseDurationOr(c.Fetcher.Timeout, DefaultFetchTimeout)
}

// GetMaxCardBytes returns the card size cap
func (c *Config) GetMaxCardBytes() int64 {
	if c.Fetcher == nil || c.Fetcher.MaxBodyBytes == 0 {
		return DefaultMaxCardBytes
	}
	return c.Fetcher.MaxBodyBytes
}

// GetProbeInterval returns the time between two health check cycles
func (c *Config) GetProbeInterval() time.Duration {
	if c.Monitor == nil {
		return DefaultProbeInterval
	}
	return parseDurationOr(c.Monitor.Interval, DefaultProbeInterval)
}

// GetProbeConcurrency returns the bounded fan-out of a cycle
func (c *Config) GetProbeConcurrency() int {
	if c.Monitor == nil || c.Monitor.Concurrency == 0 {
		return DefaultProbeConcurrency
	}
	return c.Monitor.Concurrency
}

// GetProbePageSize returns the number of entries loaded per page
func (c *Config) GetProbePageSize() int {
	if c.Monitor == nil || c.Monitor.PageSize == 0 {
		return DefaultProbePageSize
	}
	return c.Monitor.PageSize
}

// GetFailureThreshold returns the consecutive failure threshold
func (c *Config) GetFailureThreshold() int {
	if c.Monitor == nil || c.Monitor.FailureThreshold == 0 {
		return DefaultFailureThreshold
	}
	return c.Monitor.FailureThreshold
}

// GetProbeRetention returns how long probe records are kept
func (c *Config) GetProbeRetention() time.Duration {
	if c.Monitor == nil {
		return DefaultProbeRetention
	}
	return parseDurationOr(c.Monitor.Retention, DefaultProbeRetention)
}

// GetCacheSize returns the read cache size, 0 when the cache is disabled
func (c *Config) GetCacheSize() int {
	if c.Cache == nil || c.Cache.Size == 0 {
		return DefaultCacheSize
	}
	if c.Cache.Size < 0 {
		return 0
	}
	return c.Cache.Size
}

// GetCacheTTL returns the read cache TTL, defaulting to the probe interval
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache == nil {
		return c.GetProbeInterval()
	}
	return parseDurationOr(c.Cache.TTL, c.GetProbeInterval())
}

// GetEventsSubject returns the subject prefix for change events
func (c *Config) GetEventsSubject() string {
	if c.Events == nil || c.Events.Subject == "" {
		return DefaultEventsSubject
	}
	return c.Events.Subject
}
