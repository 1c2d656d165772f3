package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
	appweb "budget/web"
)

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	Metrics            *metrics.Metrics
	RateLimitPerMinute int
	ImportMaxBytes     int64
	// CacheManager is stopped on Shutdown.
	CacheManager   *cache.Manager
	TrustedProxies []string
	// Development disables HSTS.
	Development bool
}

const defaultImportMaxBytes = 5 << 20

type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	logger    *log.Logger
	events    *log.StructuredLogger
	metrics   *metrics.Metrics
	validate  *validator.Validate
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware

	importLimit int64
	cacheMgr    *cache.Manager
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:         svc,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		metrics:     opts.Metrics,
		validate:    newValidator(),
		detector:    security.NewDetector(),
		importLimit: opts.ImportMaxBytes,
		cacheMgr:    opts.CacheManager,
		started:     time.Now(),
	}
	if s.importLimit <= 0 {
		s.importLimit = defaultImportMaxBytes
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error(), "cidr", cidr)
		}
	}
	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}
	s.limiter = ratelimit.NewLimiter(limitCfg)
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs(svc.Currency())).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	headers := security.DefaultHeadersConfig()
	headers.Development = opts.Development

	r := chi.NewRouter()
	r.Use(security.Headers(headers))
	r.Use(s.detector.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(logger, trace.RequestID))
	r.Use(s.metrics.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, problem(http.StatusNotFound, "Not found", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, problem(http.StatusMethodNotAllowed, "Method not allowed", r.Method))
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	r.Get("/", s.handleIndex)
	r.Get("/charts/{file}", s.handleChartSVG)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/streak", s.handleStreak)
		r.Get("/achievements", s.handleAchievements)

		r.Get("/incomes", s.handleListIncomes)
		r.Post("/incomes", s.handleAddIncome)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleExpenseLog)
			r.Post("/", s.handleAddExpense)
			r.Get("/export.xlsx", s.handleExpenseLogXLSX)
			r.Patch("/{id}", s.handleEditExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)
			r.Post("/", s.handleAddSubscription)
			r.Patch("/{id}", s.handleEditSubscription)
			r.Delete("/{id}", s.handleDeleteSubscription)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleAddGoal)
			r.Patch("/{id}", s.handleEditGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Get("/balance", s.handleGetBalance)
		r.Put("/balance", s.handleSetBalance)
		r.Get("/theme", s.handleGetTheme)
		r.Put("/theme", s.handleSetTheme)
		r.Post("/theme/toggle", s.handleToggleTheme)

		r.Route("/charts", func(r chi.Router) {
			r.Get("/expenses", s.handleExpenseChart)
			r.Get("/subscriptions", s.handleSubscriptionChart)
			r.Get("/balance", s.handleBalanceChart)
			r.Get("/balance/hit", s.handleBalanceHit)
		})

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	s.Handler = r
	return s
}

func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Display(currency) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2 Jan 2006")
		},
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeProblem(w, problem(http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded. Please try again later."))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"revision":  s.svc.Revision(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"templates": s.templates != nil,
	})
}

// Shutdown gracefully shuts down the server and the chart cache sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
