// Package web serves the editor UI and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tabedit/internal/config"
	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP server for the editor.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	helpHTML string

	limiters []*rateLimiter

	checksMu sync.RWMutex
	checks   map[string]HealthCheck
}

// NewServer wires middleware and routes around service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		router:   chi.NewRouter(),
		helpHTML: renderHelp(),
		checks:   make(map[string]HealthCheck),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// AddHealthCheck registers a check reported by /healthz.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checksMu.Lock()
	defer s.checksMu.Unlock()
	s.checks[name] = check
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/help", s.handleHelp)

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleIndex)
		r.With(s.uploadRateLimit()).Post("/upload", s.handleUpload)

		r.Get("/edit/{column}", s.handleEditOpen)
		r.Post("/edit/operation", s.handleEditOperation)
		r.Post("/edit/preview", s.handleEditPreview)
		r.Post("/edit/apply", s.handleEditApply)
		r.Post("/edit/cancel", s.handleEditCancel)
		r.Post("/undo", s.handleUndo)

		r.Get("/export.xlsx", s.handleExport)
		r.Get("/export.csv", s.handleExport)
		r.Get("/recipe.yaml", s.handleRecipeDownload)
		r.With(s.uploadRateLimit()).Post("/recipe", s.handleRecipeRun)

		r.Route("/api", func(r chi.Router) {
			r.Get("/table", s.handleAPITable)
			r.Post("/preview", s.handleAPIPreview)
			r.Post("/apply", s.handleAPIApply)
			r.Get("/profile/{column}", s.handleAPIProfile)
		})
	})
}

// uploadRateLimit applies the stricter per-IP limit for file uploads.
func (s *Server) uploadRateLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter allows rate requests per window for each client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter starts a limiter whose cleanup stops on Shutdown.
func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	s.limiters = append(s.limiters, rl)
	go rl.cleanup(time.Minute)
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow consumes a token for ip if one is left.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RemoteAddr was already rewritten by TrustedRealIP.
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeErrorJSON(w, core.MapError(errRateLimited), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with status. Encoding errors are logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
