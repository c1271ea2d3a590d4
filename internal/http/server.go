package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"kalkyle/internal/cache"
	"kalkyle/internal/chart"
	applog "kalkyle/internal/log"
	"kalkyle/internal/middleware/ratelimit"
	"kalkyle/internal/middleware/security"
	"kalkyle/internal/middleware/trace"
	"kalkyle/internal/session"
	"kalkyle/internal/view"
	appweb "kalkyle/web"
)

// Options configures a Server. Store is required; everything else has a
// usable zero value.
type Options struct {
	Addr    string
	Store   *session.Store
	Notes   *view.Notes
	Palette chart.Palette
	Logger  *applog.Logger

	// Detector resolves client addresses and flags scanners. Trusted
	// proxies must be added before the server starts.
	Detector *security.Detector
	// RateLimit bounds state-changing requests per client.
	RateLimit ratelimit.Config
	// SessionTTL is the cookie lifetime; sessions expire server-side on
	// the same schedule.
	SessionTTL time.Duration
	// CleanupInterval is how often expired sessions are dropped.
	CleanupInterval time.Duration
	// ModelSource is reported by the readiness check.
	ModelSource string

	// TemplatesFS overrides the embedded templates, for tests.
	TemplatesFS fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	store     *session.Store
	notes     *view.Notes
	palette   chart.Palette
	logger    *applog.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	caches   *cache.Manager

	sessionTTL  time.Duration
	modelSource string
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentHTTP)
	}
	if opts.Detector == nil {
		opts.Detector = security.NewDetector()
	}
	if opts.RateLimit.RequestsPerMinute <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.Palette.Theme == "" {
		opts.Palette = chart.Dark
	}
	if opts.TemplatesFS == nil {
		opts.TemplatesFS = appweb.TemplatesFS
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		store:       opts.Store,
		notes:       opts.Notes,
		palette:     opts.Palette,
		logger:      opts.Logger,
		detector:    opts.Detector,
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		caches:      cache.NewManager(),
		sessionTTL:  opts.SessionTTL,
		modelSource: opts.ModelSource,
		started:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	// Parse templates at startup. A failure leaves the server up so the
	// readiness check can report it.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(opts.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate)
	} else {
		s.templates = t
	}

	if opts.Store != nil {
		s.caches.Register("sessions", opts.Store.Cleaner())
	}
	s.caches.Register("rate_limit", s.limiter)
	s.caches.StartCleanup(context.Background(), opts.CleanupInterval)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// UI partials
	mux.HandleFunc("POST /ui/sliders/{slot}", s.handleSlide)
	mux.HandleFunc("POST /ui/fields/{slot}/edit", s.handleFieldEdit)
	mux.HandleFunc("POST /ui/fields/{slot}/commit", s.handleFieldCommit)
	mux.HandleFunc("POST /ui/fields/{slot}/cancel", s.handleFieldCancel)
	mux.HandleFunc("POST /ui/reset", s.handleReset)
	mux.HandleFunc("GET /ui/tabs/{tab}", s.handleTab)
	mux.HandleFunc("POST /ui/households/{type}/toggle", s.handleHouseholdToggle)

	// JSON
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/charts/{tab}", s.handleCharts)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit, http.MethodPost)
	s.Handler = s.tracer.Middleware(
		headers.Middleware(
			s.detector.Middleware(s.logger.WithComponent(applog.ComponentSecurity))(
				limit(mux))))

	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "For mange endringar på kort tid. Vent litt og prøv igjen.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
