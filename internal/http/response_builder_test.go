package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeEvents(t *testing.T, header string) map[string]json.RawMessage {
	t.Helper()
	if header == "" {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &m); err != nil {
		t.Fatalf("event header %q: %v", header, err)
	}
	return m
}

func TestHTMXResponseBuilder_SlideEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerCalculatorUpdated("slide", "investment").
		TriggerChartsRefresh("costs").
		Body([]byte("<section id=\"results\"></section>")).
		Write(w)

	now := decodeEvents(t, w.Header().Get("HX-Trigger"))
	settled := decodeEvents(t, w.Header().Get("HX-Trigger-After-Settle"))

	if got := string(now[string(EventCalculatorUpdated)]); got != `{"kind":"slide","slot":"investment"}` {
		t.Errorf("calculator:updated detail = %s", got)
	}
	if _, ok := now[string(EventChartsRefresh)]; ok {
		t.Error("charts:refresh fired before the swap settled")
	}
	if got := string(settled[string(EventChartsRefresh)]); got != `{"tab":"costs"}` {
		t.Errorf("charts:refresh detail = %s", got)
	}
	if w.Body.String() != `<section id="results"></section>` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestHTMXResponseBuilder_Reset(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerCalculatorReset().
		TriggerCalculatorUpdated("reset", "").
		TriggerSuccessNotification("Føresetnadane er tilbakestilte").
		Write(w)

	now := decodeEvents(t, w.Header().Get("HX-Trigger"))
	if _, ok := now[string(EventCalculatorReset)]; !ok {
		t.Errorf("missing calculator:reset: %v", now)
	}
	if strings.Contains(string(now[string(EventCalculatorUpdated)]), "slot") {
		t.Errorf("reset update should carry no slot: %s", now[string(EventCalculatorUpdated)])
	}
	var toast struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(now[string(EventNotification)], &toast); err != nil {
		t.Fatal(err)
	}
	if toast.Type != "success" || toast.Duration != 3000 || toast.Message != "Føresetnadane er tilbakestilte" {
		t.Errorf("toast = %+v", toast)
	}
	if w.Header().Get("HX-Trigger-After-Settle") != "" {
		t.Error("unexpected after-settle events")
	}
}

func TestHTMXResponseBuilder_NoEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("Cache-Control", "no-store").Status(http.StatusAccepted).Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("custom header not set")
	}
	if w.Header().Get("HX-Trigger") != "" || w.Header().Get("HX-Trigger-After-Settle") != "" {
		t.Error("event headers set without events")
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestHTMXResponseBuilder_BodyJSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().BodyJSON(map[string]int{"sessions": 3}).Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != `{"sessions":3}` {
		t.Errorf("Body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().BodyJSON(make(chan int)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unencodable body status = %d, want 500", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("Ugyldig førespurnad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("Ugyldig verdi"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("Ukjend felt"), http.StatusNotFound},
		{"internal", InternalServerError("Kunne ikkje vise kalkylen"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
				t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
			}
			if !strings.Contains(w.Body.String(), `role="alert"`) {
				t.Errorf("Body = %q", w.Body.String())
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequestError("<script>alert('x')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") || !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("message not escaped: %s", body)
	}
}
