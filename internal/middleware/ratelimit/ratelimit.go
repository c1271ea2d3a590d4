// Package ratelimit caps how many state changes one client may make per
// minute.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// StaleAfter drops clients idle for longer than this.
	StaleAfter time.Duration
	// Now replaces the clock, for tests.
	Now func() time.Time
}

// DefaultConfig allows 120 state changes per minute. Dragging a slider sends
// a request every throttle interval, so the calculator needs more headroom
// than a form post.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		StaleAfter:        10 * time.Minute,
	}
}

// Limiter counts requests per client in fixed one-minute windows. Idle
// clients are dropped by CleanExpired, which the server's cache manager
// calls on its schedule.
type Limiter struct {
	limit int
	stale time.Duration
	now   func() time.Time
	hits  atomic.Int64

	mu      sync.Mutex
	clients map[string]*bucket
}

type bucket struct {
	opened time.Time
	last   time.Time
	count  int
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = def.StaleAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Limiter{
		limit:   config.RequestsPerMinute,
		stale:   config.StaleAfter,
		now:     config.Now,
		clients: make(map[string]*bucket),
	}
}

// Reserve counts one request from client. When the window is used up it
// returns false and how long until the window reopens.
func (rl *Limiter) Reserve(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[client]
	if !ok || now.Sub(b.opened) >= window {
		rl.clients[client] = &bucket{opened: now, last: now, count: 1}
		return true, 0
	}
	b.last = now
	if b.count >= rl.limit {
		rl.hits.Add(1)
		return false, b.opened.Add(window).Sub(now)
	}
	b.count++
	return true, 0
}

// Allow is Reserve without the wait.
func (rl *Limiter) Allow(client string) bool {
	ok, _ := rl.Reserve(client)
	return ok
}

// CleanExpired drops idle clients and returns how many went.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.stale)
	n := len(rl.clients)
	for ip, b := range rl.clients {
		if b.last.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
	return n - len(rl.clients)
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// retryAfter renders d as whole seconds, at least one.
func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// Middleware limits requests whose method is in methods; with no methods
// every request counts. Refused requests get a Retry-After header before
// onLimit writes the body.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request), methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(methods) > 0 && !slices.Contains(methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := rl.Reserve(extractIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retryAfter(wait))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
