package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"kalkyle/internal/calc"
	"kalkyle/internal/chart"
	"kalkyle/internal/core"
	applog "kalkyle/internal/log"
	"kalkyle/internal/middleware/security"
	"kalkyle/internal/session"
	"kalkyle/internal/view"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// indexData is the full page.
type indexData struct {
	view.Page
	Theme        string
	ScriptOrigin string
}

// snapshotResponse is the JSON form of a session's committed state.
type snapshotResponse struct {
	Assumptions core.Assumptions `json:"assumptions"`
	Result      calc.Result      `json:"result"`
	Tab         string           `json:"tab"`
	Selected    string           `json:"selected,omitempty"`
	IsDefault   bool             `json:"is_default"`
}

type chartsResponse struct {
	Tab    string        `json:"tab"`
	Theme  string        `json:"theme"`
	Charts []chart.Chart `json:"charts"`
}

func (s *Server) page(sess *session.Session) view.Page {
	return view.Build(sess.Snapshot(s.palette), sess.Tab(), s.notes)
}

// writeHTML renders name and writes it with the builder's triggers. A render
// failure becomes a 500 with an error notification.
func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, err := s.render(r, name, data)
	if err != nil {
		InternalServerError("Kunne ikkje vise kalkylen").
			TriggerErrorNotification("Noko gjekk gale. Last sida på nytt.").
			Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(body).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate,
			"error_type", applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	sess := s.session(w, r)
	s.writeHTML(w, r, NewHTMXResponse(), "index.html", indexData{
		Page:         s.page(sess),
		Theme:        s.palette.Theme,
		ScriptOrigin: security.ScriptOrigin,
	})
}

// handleSlide moves a slider. Only #results is swapped so the dragged input
// keeps its place; the readouts above it follow out of band.
func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	slot := r.PathValue("slot")
	v, err := ParseAmountValue(r)
	if err != nil {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected slider value",
			applog.FieldSlot, slot, applog.FieldError, err)
		UnprocessableEntityError("Ugyldig verdi").Write(w)
		return
	}
	sess := s.session(w, r)
	if err := sess.Slide(r.Context(), slot, v); err != nil {
		NotFoundError("Ukjend regulator").Write(w)
		return
	}
	b := NewHTMXResponse().
		TriggerCalculatorUpdated(session.EventSlide, slot).
		TriggerChartsRefresh(sess.Tab())
	s.writeHTML(w, r, b, "slider-update", s.page(sess))
}

func (s *Server) handleFieldEdit(w http.ResponseWriter, r *http.Request) {
	slot := r.PathValue("slot")
	sess := s.session(w, r)
	if err := sess.BeginEdit(slot); err != nil {
		NotFoundError("Ukjend felt").Write(w)
		return
	}
	f, ok := view.Field(sess.Snapshot(s.palette), slot)
	if !ok {
		NotFoundError("Ukjend felt").Write(w)
		return
	}
	s.writeHTML(w, r, NewHTMXResponse(), "field", f)
}

// handleFieldCommit commits typed text. Text that does not parse reverts
// the field without an error; the re-rendered calculator shows the old
// value.
func (s *Server) handleFieldCommit(w http.ResponseWriter, r *http.Request) {
	slot := r.PathValue("slot")
	text, err := ParseValue(r)
	if err != nil {
		BadRequestError("Ugyldig førespurnad").Write(w)
		return
	}
	sess := s.session(w, r)
	accepted, err := sess.CommitEdit(r.Context(), slot, text)
	if err != nil {
		NotFoundError("Ukjend felt").Write(w)
		return
	}
	b := NewHTMXResponse()
	if accepted {
		b.TriggerCalculatorUpdated(session.EventCommit, slot).TriggerChartsRefresh(sess.Tab())
	}
	s.writeHTML(w, r, b, "calculator", s.page(sess))
}

func (s *Server) handleFieldCancel(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.CancelEdit(r.PathValue("slot")); err != nil {
		NotFoundError("Ukjend felt").Write(w)
		return
	}
	s.writeHTML(w, r, NewHTMXResponse(), "calculator", s.page(sess))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Reset(r.Context())
	b := NewHTMXResponse().
		TriggerCalculatorReset().
		TriggerChartsRefresh(sess.Tab()).
		TriggerSuccessNotification("Føresetnadane er tilbakestilte")
	s.writeHTML(w, r, b, "calculator", s.page(sess))
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	sess := s.session(w, r)
	if err := sess.SelectTab(tab); err != nil {
		NotFoundError("Ukjend fane").Write(w)
		return
	}
	s.writeHTML(w, r, NewHTMXResponse().TriggerChartsRefresh(tab), "results", s.page(sess))
}

func (s *Server) handleHouseholdToggle(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.ToggleHousehold(r.PathValue("type")); err != nil {
		NotFoundError("Ukjend husstandstype").Write(w)
		return
	}
	s.writeHTML(w, r, NewHTMXResponse(), "results", s.page(sess))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	snap := sess.Snapshot(s.palette)
	NewHTMXResponse().
		Header("Cache-Control", "no-store").
		BodyJSON(snapshotResponse{
			Assumptions: snap.Assumptions,
			Result:      snap.Result,
			Tab:         sess.Tab(),
			Selected:    snap.Selected,
			IsDefault:   snap.IsDefault,
		}).
		Write(w)
}

// handleCharts serves the chart descriptions of a tab. The household tab
// has none and gets an empty list.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	if !view.ValidTab(tab) {
		NewHTMXResponse().
			Status(http.StatusNotFound).
			BodyJSON(map[string]string{"error": "unknown tab"}).
			Write(w)
		return
	}
	sess := s.session(w, r)
	charts := view.Charts(sess.Snapshot(s.palette), tab)
	if charts == nil {
		charts = []chart.Chart{}
	}
	NewHTMXResponse().
		Header("Cache-Control", "no-store").
		BodyJSON(chartsResponse{Tab: tab, Theme: s.palette.Theme, Charts: charts}).
		Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the page can be rendered and computed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: " + errTemplatesNotLoaded.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["sessions"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = map[string]any{
			"active": s.store.Len(),
			"status": "ok",
		}
	}
	if s.modelSource != "" {
		checks["model"] = map[string]any{"source": s.modelSource, "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	NewHTMXResponse().
		Status(httpStatus).
		BodyJSON(map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	sessions := 0
	if s.store != nil {
		sessions = s.store.Len()
	}

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_request_duration_avg_seconds Mean request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_seconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_seconds %.6f\n\n", float64(traceMetrics.AverageResponseTime)/1e6)

	fmt.Fprintf(w, "# HELP sessions_active Live calculator sessions\n")
	fmt.Fprintf(w, "# TYPE sessions_active gauge\n")
	fmt.Fprintf(w, "sessions_active %d\n\n", sessions)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", time.Since(s.started).Seconds())
}
