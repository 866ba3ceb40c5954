// Package http implements the operational HTTP endpoints for Guild Rank Hub.
// The engine itself is consumed as a library by the bot process; this server
// only exposes health and readiness probes for orchestration.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/guild-hub/guild-rank-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// READINESS CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// Checker reports whether a named dependency is reachable.
type Checker interface {
	// Name identifies the dependency in the readiness report.
	Name() string

	// Check returns nil when the dependency is healthy.
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) error
}

// Name identifies the dependency.
func (c CheckerFunc) Name() string { return c.CheckerName }

// Check runs the wrapped function.
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the operational HTTP server.
type Server struct {
	config     Config
	httpServer *http.Server
	router     *http.ServeMux
	log        *logger.Logger
	checkers   []Checker

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new operational server.
// checkers are probed by /ready; /health only reports process liveness.
func NewServer(config Config, log *logger.Logger, checkers ...Checker) *Server {
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		config:   config,
		router:   http.NewServeMux(),
		log:      log.With(logger.Component("ops-http")),
		checkers: checkers,
	}

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.withRecovery(s.router),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	s.log.Info("ops server listening", logger.String("addr", s.config.Address()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type healthResponse struct {
	Status    string `json:"status"`
	UptimeSec int64  `json:"uptime_seconds"`
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	uptime := int64(time.Since(s.startedAt).Seconds())
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		UptimeSec: uptime,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := readyResponse{
		Status: "ready",
		Checks: make(map[string]string, len(s.checkers)),
	}

	status := http.StatusOK
	for _, checker := range s.checkers {
		if err := checker.Check(ctx); err != nil {
			resp.Checks[checker.Name()] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[checker.Name()] = "ok"
	}

	writeJSON(w, status, resp)
}

// withRecovery converts handler panics into 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in http handler",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec),
					logger.String("stack", string(debug.Stack())),
				)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
