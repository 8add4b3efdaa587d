package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shiplane-dev/shiplane/internal/http/response"
)

// RateLimiter is a per-client fixed-window limiter. State is local to
// the process; keys default to the client IP, so it sits behind RealIP.
type RateLimiter struct {
	limit   int
	window  time.Duration
	keyFunc func(r *http.Request) string

	mu      sync.Mutex
	hits    map[string]*windowState
	cleanup time.Time
}

type windowState struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		keyFunc: clientIPKey,
		hits:    make(map[string]*windowState),
		cleanup: time.Now().Add(window),
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetAt := rl.allow(rl.keyFunc(r), time.Now())
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
			if !allowed {
				retry := int(time.Until(resetAt).Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.cleanup) {
		for k, state := range rl.hits {
			if now.Sub(state.windowStart) > 2*rl.window {
				delete(rl.hits, k)
			}
		}
		rl.cleanup = now.Add(rl.window)
	}

	state, ok := rl.hits[key]
	if !ok || now.Sub(state.windowStart) >= rl.window {
		state = &windowState{windowStart: now}
		rl.hits[key] = state
	}
	resetAt := state.windowStart.Add(rl.window)
	if state.count >= rl.limit {
		return false, 0, resetAt
	}
	state.count++
	return true, rl.limit - state.count, resetAt
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
