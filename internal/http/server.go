package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensebook/internal/aggregate"
	"expensebook/internal/cache"
	"expensebook/internal/log"
	"expensebook/internal/middleware/ratelimit"
	"expensebook/internal/middleware/security"
	"expensebook/internal/middleware/trace"
	"expensebook/internal/store"
	"expensebook/internal/workbook"
)

const (
	defaultMaxUpload    = 20 << 20
	dashboardCacheSize  = 64
	dashboardCacheTTL   = 5 * time.Minute
	cacheCleanupEvery   = 10 * time.Minute
	defaultRateLimitRPM = 60
)

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Logger *log.Logger
	// Guard serializes imports and exports; share it with anything else
	// that touches workbooks in the same process.
	Guard *workbook.Guard
	// RateLimit is the number of mutating requests allowed per client and
	// minute.
	RateLimit int
	// ExportYear is printed in export file names.
	ExportYear int
	// MaxUploadBytes bounds imported workbooks.
	MaxUploadBytes int64
	// Now is the clock used for default days and export names.
	Now func() time.Time
}

// Server exposes the store as a JSON API.
type Server struct {
	http.Server
	store      *store.Store
	guard      *workbook.Guard
	logger     *log.Logger
	events     *log.StructuredLogger
	exportYear int
	maxUpload  int64
	now        func() time.Time
	started    time.Time

	dashboards *cache.LRUCache[aggregate.Dashboard]
	dashHits   int64
	dashMisses int64
	caches     *cache.Manager
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop its background goroutines.
func NewServer(addr string, st *store.Store, opts Options) *Server {
	logger := log.OrDiscard(opts.Logger)
	if opts.Guard == nil {
		opts.Guard = workbook.NewGuard()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimitRPM
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportYear == 0 {
		opts.ExportYear = opts.Now().Year()
	}

	s := &Server{
		store:      st,
		guard:      opts.Guard,
		logger:     logger.WithComponent(log.ComponentHTTP),
		events:     log.NewStructuredLogger(logger),
		exportYear: opts.ExportYear,
		maxUpload:  opts.MaxUploadBytes,
		now:        opts.Now,
		started:    opts.Now(),
		dashboards: cache.NewLRUCache[aggregate.Dashboard](dashboardCacheSize, dashboardCacheTTL),
		caches:     cache.NewManager(logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}, logger),
		detector:   security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.dashboards)
	s.caches.Start(cacheCleanupEvery)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/months/{month}", s.handleMonth)
	mux.HandleFunc("GET /api/months/{month}/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/export", s.handleExport)

	mux.Handle("POST /api/months/{month}/expenses", s.requireLoaded(s.handleCreateExpense))
	mux.Handle("PUT /api/months/{month}/expenses/{index}", s.requireLoaded(s.handleUpdateExpense))
	mux.Handle("DELETE /api/months/{month}/expenses/{index}", s.requireLoaded(s.handleDeleteExpense))
	mux.Handle("PUT /api/months/{month}/summary", s.requireLoaded(s.handleSaveSummary))
	mux.Handle("POST /api/import", s.requireLoaded(s.handleImport))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	})(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// requireLoaded rejects mutations until the store has been hydrated, so
// nothing written before the load is overwritten by it.
func (s *Server) requireLoaded(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Loaded() {
			writeError(w, r, log.OpValidate, errNotLoaded)
			return
		}
		next(w, r)
	})
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
