package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerBindsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentSession, Output: &buf})
	l.Info("hello")
	if n := strings.Count(buf.String(), "component=session"); n != 1 {
		t.Fatalf("component attribute %d times: %s", n, buf.String())
	}
	if l.Component() != ComponentSession {
		t.Fatalf("component = %s", l.Component())
	}
}

func TestStructuredLoggerEditReverted(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Component: ComponentSession, Output: &buf}))
	sl.LogEditReverted(context.Background(), "abc", "drift:bad", errors.New("invalid amount"))

	out := buf.String()
	for _, want := range []string{"Edit reverted", "session_id=abc", "slot=drift:bad", "operation=commit"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestContextCarriesLogger(t *testing.T) {
	base := Discard().With(FieldRequestID, "req-1")
	ctx := NewContext(context.Background(), base)
	if FromContext(ctx) != base {
		t.Fatal("logger not carried")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("fallback logger")
	}
}

func TestStatusLevel(t *testing.T) {
	tests := map[int]slog.Level{
		http.StatusOK:                  slog.LevelInfo,
		http.StatusNotModified:         slog.LevelInfo,
		http.StatusNotFound:            slog.LevelWarn,
		http.StatusTooManyRequests:     slog.LevelWarn,
		http.StatusInternalServerError: slog.LevelError,
	}
	for status, want := range tests {
		if got := statusLevel(status); got != want {
			t.Errorf("statusLevel(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestLogHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf}))
	r := httptest.NewRequest(http.MethodPost, "/ui/sliders/rate", nil)
	sl.LogHTTPEnd(context.Background(), r, http.StatusUnprocessableEntity, 3, "203.0.113.4")

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=422", "path=/ui/sliders/rate", "client_ip=203.0.113.4"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
