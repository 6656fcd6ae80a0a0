package coordinator

import (
	"time"
)

// Defaults applied to zero Config fields
const (
	DefaultInterval         = 30 * time.Minute
	DefaultConcurrency      = 20
	DefaultPageSize         = 200
	DefaultFailureThreshold = 2
)

// maxDetailLength bounds the violation summary stored with a non-conformant probe
const maxDetailLength = 2000

// Config controls the cadence and fan-out of the worker
type Config struct {
	// Interval between the start of two cycles
	Interval time.Duration
	// Concurrency is the maximum number of probes in flight
	Concurrency int
	// PageSize is the number of entries loaded per page
	PageSize int
	// FailureThreshold is the number of consecutive failed probes after
	// which an entry becomes non-standard
	FailureThreshold int
	// Retention is how long probes are kept; zero keeps them forever
	Retention time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	return c
}
