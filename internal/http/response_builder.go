package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Event is a client-side event name carried in an HX-Trigger header.
type Event string

const (
	EventCalculatorUpdated Event = "calculator:updated"
	EventCalculatorReset   Event = "calculator:reset"
	EventChartsRefresh     Event = "charts:refresh"
	EventNotification      Event = "show-notification"
)

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// HTMXResponseBuilder assembles a response and the events htmx dispatches
// when it arrives. Events in settled fire after the swapped content has
// settled, so listeners can find the new elements.
type HTMXResponseBuilder struct {
	status  int
	header  http.Header
	body    []byte
	now     map[Event]any
	settled map[Event]any
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:  http.StatusOK,
		header:  make(http.Header),
		now:     make(map[Event]any),
		settled: make(map[Event]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Trigger dispatches event with detail as soon as the response arrives.
func (b *HTMXResponseBuilder) Trigger(event Event, detail any) *HTMXResponseBuilder {
	b.now[event] = detail
	return b
}

// TriggerAfterSettle dispatches event once the swap has settled.
func (b *HTMXResponseBuilder) TriggerAfterSettle(event Event, detail any) *HTMXResponseBuilder {
	b.settled[event] = detail
	return b
}

// TriggerCalculatorUpdated reports a change to the committed assumptions.
// kind is the session event that caused it; slot is empty for a reset.
func (b *HTMXResponseBuilder) TriggerCalculatorUpdated(kind, slot string) *HTMXResponseBuilder {
	detail := map[string]string{"kind": kind}
	if slot != "" {
		detail["slot"] = slot
	}
	return b.Trigger(EventCalculatorUpdated, detail)
}

// TriggerChartsRefresh asks the page to refetch the charts of tab. It waits
// for the swap so the new canvases exist.
func (b *HTMXResponseBuilder) TriggerChartsRefresh(tab string) *HTMXResponseBuilder {
	return b.TriggerAfterSettle(EventChartsRefresh, map[string]string{"tab": tab})
}

func (b *HTMXResponseBuilder) TriggerCalculatorReset() *HTMXResponseBuilder {
	return b.Trigger(EventCalculatorReset, struct{}{})
}

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     kind,
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Body sets a pre-rendered body.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyJSON sets the response body to v encoded as JSON. An encoding failure
// turns the response into a 500.
func (b *HTMXResponseBuilder) BodyJSON(v any) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.status = http.StatusInternalServerError
		data = []byte(`{"error":"encoding failed"}`)
	}
	b.header.Set("Content-Type", "application/json")
	b.body = data
	return b
}

// Write sends the response. Events that cannot be encoded are dropped.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	out := w.Header()
	for name, values := range b.header {
		out[name] = values
	}
	setEvents(out, "HX-Trigger", b.now)
	setEvents(out, "HX-Trigger-After-Settle", b.settled)

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

func setEvents(h http.Header, name string, events map[Event]any) {
	if len(events) == 0 {
		return
	}
	if data, err := json.Marshal(events); err == nil {
		h.Set(name, string(data))
	}
}

// ErrorResponse is a short escaped HTML message with the given status.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		Header("Content-Type", "text/html; charset=utf-8").
		Body([]byte(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
