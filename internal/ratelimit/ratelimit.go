// Package ratelimit limits registrations per client with token buckets kept
// in a bounded LRU.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/stacklok/agent-directory/internal/api/common"
)

const (
	// DefaultPerHour is the number of registrations a client may make per hour
	DefaultPerHour = 10
	// DefaultClients bounds how many client buckets are tracked at once
	DefaultClients = 10_000
)

// Limiter hands out one token bucket per client key
type Limiter struct {
	mu      sync.Mutex
	clients *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// New creates a Limiter allowing perHour requests per client per hour with a
// burst of the same size. At most maxClients buckets are kept; the least
// recently seen client is forgotten first.
func New(perHour, maxClients int) (*Limiter, error) {
	if maxClients <= 0 {
		maxClients = DefaultClients
	}
	clients, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}

	return &Limiter{
		clients: clients,
		limit:   rate.Every(time.Hour / time.Duration(max(perHour, 1))),
		burst:   max(perHour, 1),
	}, nil
}

// Allow reports whether the client identified by key may proceed
func (l *Limiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

func (l *Limiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.clients.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.clients.Add(key, limiter)
	return limiter
}

// retryAfter is the delay until the next token for key
func (l *Limiter) retryAfter(key string) time.Duration {
	r := l.limiter(key).Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Middleware rejects requests from clients that exhausted their bucket with
// 429. The client is identified by the request's remote address, so
// middleware.RealIP should run first when serving behind a proxy.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIP(r)
		if !l.Allow(key) {
			slog.WarnContext(r.Context(), "Registration rate limit exceeded",
				"client", key,
				"path", r.URL.Path)
			wait := l.retryAfter(key)
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second).Seconds())))
			common.WriteErrorResponse(w, common.KindRateLimited, "too many registrations, try again later",
				http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of the request's remote address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
