// Package site serves the archive in a browser: markdown reports
// rendered to HTML, a keyword search API and a websocket channel that
// answers questions from the semantic index.
package site

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
)

// Config holds server configuration.
type Config struct {
	Port       int
	ReportsDir string // directory containing generated markdown reports
	AllowAll   bool   // allow all CORS origins (dev mode)
}

// Server is the local archive viewer.
type Server struct {
	cfg      Config
	arc      *archive.Archive
	res      *resolver.Resolver
	store    semantic.VectorStore
	provider llm.Provider
	model    string

	renderer   *renderer
	router     chi.Router
	httpServer *http.Server
}

// New creates a viewer over the given archive. store and provider may be
// nil; the websocket endpoint reports them as unavailable.
func New(cfg Config, arc *archive.Archive, res *resolver.Resolver, store semantic.VectorStore, provider llm.Provider, model string) (*Server, error) {
	rend, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		arc:      arc,
		res:      res,
		store:    store,
		provider: provider,
		model:    model,
		renderer: rend,
	}
	s.router = s.buildRouter()
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleIndex)
	r.Get("/reports/*", s.handleReport)
	r.Post("/api/search", s.handleSearch)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// Router returns the chi router for tests and route registration.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chatlens viewer listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
