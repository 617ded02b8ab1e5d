// Package ratelimit provides per-client request rate limiting.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/saasify/saasify-api/internal/respond"
)

// ErrRateLimited is returned by callers that treat a denied request as an error.
var ErrRateLimited = errors.New("rate limit exceeded")

// DefaultMessage is sent when a limiter rejects a request.
const DefaultMessage = "Too many requests, please try again later."

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter checks whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)

	// Reset clears the counter for a key.
	Reset(ctx context.Context, key string) error

	// Close releases any resources held by the limiter.
	Close() error
}

// GetClientIP extracts the client IP from a request, honoring
// X-Forwarded-For and X-Real-IP set by a fronting proxy.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
		if addr[i] == ']' {
			// IPv6 literal, no port
			break
		}
	}
	return addr
}

type entry struct {
	count    int
	windowAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Counters reset when
// their window elapses; a background goroutine sweeps stale keys.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    int
	window  time.Duration
	done    chan struct{}
}

// NewMemoryLimiter creates a limiter allowing rate requests per window.
func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		entries: make(map[string]*entry),
		rate:    rate,
		window:  window,
		done:    make(chan struct{}),
	}
	go ml.sweep()
	return ml
}

// Allow records a request for key and reports whether it is within the limit.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e, ok := m.entries[key]
	if !ok || now.After(e.windowAt) {
		e = &entry{count: 0, windowAt: now.Add(m.window)}
		m.entries[key] = e
	}

	res := Result{Limit: m.rate, ResetAt: e.windowAt}
	if e.count >= m.rate {
		return res, nil
	}

	e.count++
	res.Allowed = true
	res.Remaining = m.rate - e.count
	return res, nil
}

// Reset clears the counter for a key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close stops the sweeper goroutine.
func (m *MemoryLimiter) Close() error {
	close(m.done)
	return nil
}

func (m *MemoryLimiter) sweep() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, e := range m.entries {
				if now.After(e.windowAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Middleware enforces a limiter per client IP. Rejected requests get a 429
// with X-RateLimit-* and Retry-After headers. When the limiter itself
// fails, the request proceeds: availability wins over enforcement.
func Middleware(limiter Limiter, logger *slog.Logger, message string) func(http.Handler) http.Handler {
	if message == "" {
		message = DefaultMessage
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetClientIP(r)

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limit check failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))

			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respond.Message(w, http.StatusTooManyRequests, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
