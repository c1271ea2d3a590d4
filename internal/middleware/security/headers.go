package security

import (
	"net/http"
	"strconv"
	"strings"
)

// ScriptOrigin serves htmx and Chart.js to the calculator page.
const ScriptOrigin = "https://unpkg.com"

// Directive is one Content-Security-Policy directive.
type Directive struct {
	Name    string
	Sources []string
}

// HeadersConfig describes the headers set on every response.
type HeadersConfig struct {
	Policy []Directive

	// HSTSMaxAge is in seconds; HSTS is only sent over TLS.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	// Static holds the remaining headers verbatim.
	Static map[string]string
}

// DefaultHeadersConfig returns the headers for the calculator page. Charts
// fetch their descriptions from the same origin; scripts come from
// ScriptOrigin. htmx evaluates trigger filters such as
// keyup[key=='Escape'] as script, which needs 'unsafe-eval'. Colour swatches
// are inline styles.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		Policy: []Directive{
			{"default-src", []string{"'self'"}},
			{"script-src", []string{"'self'", ScriptOrigin, "'unsafe-eval'"}},
			{"style-src", []string{"'self'", "'unsafe-inline'"}},
			{"img-src", []string{"'self'", "data:"}},
			{"connect-src", []string{"'self'"}},
			{"font-src", []string{"'self'"}},
			{"object-src", []string{"'none'"}},
			{"frame-ancestors", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'"}},
		},
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,
		Static: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"X-XSS-Protection":             "1; mode=block",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Embedder-Policy": "credentialless",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// CSP renders the policy directives.
func (c HeadersConfig) CSP() string {
	parts := make([]string, 0, len(c.Policy))
	for _, d := range c.Policy {
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

// HeadersMiddleware sets the configured headers on every response.
type HeadersMiddleware struct {
	fixed http.Header
	hsts  string
}

// NewHeadersMiddleware renders config once.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{fixed: make(http.Header, len(config.Static)+1)}
	for k, v := range config.Static {
		h.fixed.Set(k, v)
	}
	if len(config.Policy) > 0 {
		h.fixed.Set("Content-Security-Policy", config.CSP())
	}
	if config.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

// Middleware wraps next.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for k := range h.fixed {
			out.Set(k, h.fixed.Get(k))
		}
		if r.TLS != nil && h.hsts != "" {
			out.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets browsers cache /static for maxAge seconds. The
// assets are not fingerprinted, so they are not marked immutable.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
