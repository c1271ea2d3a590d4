// Package trace tags each request with an id, logs its start and end, and
// keeps request counters for /metrics.
package trace

import (
	"context"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "kalkyle/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// inboundID is what an upstream proxy may hand us as a request id.
var inboundID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// Metrics are request counters since start.
type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
	// AverageResponseTime is in microseconds.
	AverageResponseTime int64
}

type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.Logger
	logs      *applog.StructuredLogger

	requests atomic.Int64
	errors   atomic.Int64
	micros   atomic.Int64
}

// NewMiddleware returns a tracer. extractIP may be nil; a nil logger logs
// through the process default.
func NewMiddleware(extractIP func(*http.Request) string, logger *applog.Logger) *Middleware {
	if logger == nil {
		logger = applog.Default(applog.ComponentTrace)
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		logs:      applog.NewStructuredLogger(logger),
	}
}

// Middleware wraps next. Handlers find a logger carrying the request id
// through applog.FromContext.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		id := r.Header.Get(HeaderRequestID)
		if !inboundID.MatchString(id) {
			id = NewRequestID()
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		ctx = applog.NewContext(ctx, m.logger.With(applog.FieldRequestID, id))
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, id)

		m.logs.LogHTTPStart(ctx, r, clientIP)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		m.requests.Add(1)
		m.micros.Add(elapsed.Microseconds())
		if sw.status >= http.StatusInternalServerError {
			m.errors.Add(1)
		}
		m.logs.LogHTTPEnd(ctx, r, sw.status, elapsed.Milliseconds(), clientIP)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// NewRequestID returns a fresh random request id.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// RequestID returns the id the tracer gave ctx's request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// GetMetrics returns the counters.
func (m *Middleware) GetMetrics() Metrics {
	met := Metrics{
		TotalRequests: m.requests.Load(),
		ServerErrors:  m.errors.Load(),
	}
	if met.TotalRequests > 0 {
		met.AverageResponseTime = m.micros.Load() / met.TotalRequests
	}
	return met
}
