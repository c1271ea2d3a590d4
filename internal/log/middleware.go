package log

import (
	"context"
	"log/slog"
	"net/http"
)

type loggerKey struct{}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or the process
// default when there is none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Default("unknown")
}

// StructuredLogger writes the calculator's recurring log events with a fixed
// set of attributes each.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// statusLevel maps a response status to the level it is logged at.
func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LogHTTPStart is logged at debug.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd is logged at a level that follows the status class.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, statusLevel(statusCode), "HTTP request completed", fields.ToSlice()...)
}

// LogRecalculated logs a full recomputation of a session's figures.
func (sl *StructuredLogger) LogRecalculated(ctx context.Context, sessionID, op, slot string, investment, rate, totalBurden string, netDrift int64, recomputes int) {
	fields := NewFields().
		WithSession(sessionID, slot).
		WithOperation(op).
		WithScenario(investment, rate, totalBurden, netDrift)
	fields[FieldRecomputes] = recomputes
	sl.logger.DebugContext(ctx, "Figures recalculated", fields.ToSlice()...)
}

// LogEditReverted logs a committed edit that did not parse or was out of
// bounds. The user sees the previous value; this is the only trace.
func (sl *StructuredLogger) LogEditReverted(ctx context.Context, sessionID, slot string, err error) {
	fields := NewFields().
		WithSession(sessionID, slot).
		WithOperation(OpCommit).
		WithError(err)
	sl.logger.DebugContext(ctx, "Edit reverted", fields.ToSlice()...)
}

// LogError logs err at error level under operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
