package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(rpm int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewLimiter(Config{RequestsPerMinute: rpm, Now: c.now}), c
}

func TestAllowWindow(t *testing.T) {
	rl, c := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request in window allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other client denied")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("request in new window denied")
	}
	if got := rl.GetMetrics().TotalHits; got != 1 {
		t.Errorf("TotalHits = %d, want 1", got)
	}
}

func TestReserveWait(t *testing.T) {
	rl, c := newTestLimiter(1)
	rl.Reserve("a")
	c.t = c.t.Add(45 * time.Second)
	ok, wait := rl.Reserve("a")
	if ok {
		t.Fatal("second request allowed")
	}
	if wait != 15*time.Second {
		t.Errorf("wait = %v, want 15s", wait)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := map[time.Duration]string{
		0:                      "1",
		300 * time.Millisecond: "1",
		15 * time.Second:       "15",
		14*time.Second + 1:     "15",
		time.Minute:            "60",
	}
	for d, want := range tests {
		if got := retryAfter(d); got != want {
			t.Errorf("retryAfter(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestCleanExpired(t *testing.T) {
	rl, c := newTestLimiter(10)
	rl.Allow("a")
	c.t = c.t.Add(5 * time.Minute)
	rl.Allow("b")
	c.t = c.t.Add(6 * time.Minute)

	if n := rl.CleanExpired(); n != 1 {
		t.Errorf("removed %d, want 1", n)
	}
	if n := rl.ActiveClients(); n != 1 {
		t.Errorf("ActiveClients = %d, want 1", n)
	}
}

func TestMiddlewareLimitsOnlyListedMethods(t *testing.T) {
	rl, c := newTestLimiter(1)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil, http.MethodPost)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/ui/reset", nil))
		return rr
	}

	if got := do(http.MethodPost).Code; got != http.StatusNoContent {
		t.Fatalf("first POST = %d", got)
	}
	c.t = c.t.Add(20 * time.Second)
	rr := do(http.MethodPost)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "40" {
		t.Errorf("Retry-After = %q, want 40", got)
	}
	for i := 0; i < 3; i++ {
		if got := do(http.MethodGet).Code; got != http.StatusNoContent {
			t.Fatalf("GET = %d, want 204", got)
		}
	}
}
