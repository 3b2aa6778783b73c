// Package server implements the HTTP read API, middleware, and request
// handlers over the live store.
package server

import (
	"net/http"
	"time"

	"github.com/bz2vsr/battlezone-combat-commander/internal/config"
	"github.com/bz2vsr/battlezone-combat-commander/internal/storage"
)

// New creates a new Server instance with the provided storage and
// configuration.
func New(store *storage.Repository, cfg *config.Config) *Server {
	return &Server{
		storage:        store,
		maxAge:         cfg.Server.MaxAge,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/sessions", s.RateLimitMiddleware(http.HandlerFunc(s.handleSessions)))
	mux.Handle("GET /api/session", s.RateLimitMiddleware(http.HandlerFunc(s.handleSessionDetail)))
	mux.Handle("GET /api/history", s.RateLimitMiddleware(http.HandlerFunc(s.handleHistory)))
	mux.Handle("GET /api/maps", s.RateLimitMiddleware(http.HandlerFunc(s.handleMaps)))
	mux.Handle("GET /api/mods", s.RateLimitMiddleware(http.HandlerFunc(s.handleMods)))
	mux.Handle("GET /api/version", http.HandlerFunc(handleVersion))
	mux.Handle("GET /healthz", http.HandlerFunc(handleHealthz))

	return s.LoggingMiddleware(mux)
}

// Serve builds an http.Server with sane timeouts around the handler.
func (s *Server) Serve(address string) *http.Server {
	return &http.Server{
		Addr:         address,
		Handler:      s.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
