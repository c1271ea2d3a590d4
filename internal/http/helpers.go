package http

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	applog "kalkyle/internal/log"
	"kalkyle/internal/session"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "kalkyle_session"

// fragment wraps template data for partials that are rendered both in place
// and as out-of-band swaps.
type fragment struct {
	Data any
	OOB  bool
}

var templateFuncs = template.FuncMap{
	"pathEscape": url.PathEscape,
	"domID":      domID,
	"inline":     func(v any) fragment { return fragment{Data: v} },
	"oob":        func(v any) fragment { return fragment{Data: v, OOB: true} },
}

// domID builds an element id usable as a CSS selector from a prefix and a
// slot or type name.
func domID(prefix, name string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// session returns the caller's session, starting a new one when the cookie
// is missing, expired or forged.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.store.GetOrCreate(id)
	if created {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Session started",
			applog.FieldSessionID, sess.ID())
	}
	// Refresh on every response so the cookie slides with the session.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// render executes a named template into a buffer so a failing template
// never leaves a half-written response.
func (s *Server) render(r *http.Request, name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name,
			applog.FieldOperation, applog.OpRender)
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
