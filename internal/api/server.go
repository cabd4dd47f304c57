// Package api hosts the local REST and websocket server the overlay
// talks to.
package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/guide"
	"github.com/minsukang/tft-guide/internal/llm"
	"github.com/minsukang/tft-guide/internal/meta"
)

// Server is the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	addr       string

	// WebSocket hub for live overlay updates.
	wsHub *websocket.Hub

	service   *guide.Service
	advisor   *llm.Advisor
	llmClient *llm.Client
	updater   *meta.Updater
	version   string
}

// Config holds server listen configuration.
type Config struct {
	Addr string
}

// DefaultConfig returns the default server configuration. The server
// binds to loopback only; nothing here is meant for the open network.
func DefaultConfig() *Config {
	return &Config{Addr: "127.0.0.1:8077"}
}

// Dependencies holds the services the handlers are built on. Advisor
// and Service are required; LLMClient and Updater may be nil when the
// corresponding feature is disabled.
type Dependencies struct {
	Service   *guide.Service
	Advisor   *llm.Advisor
	LLMClient *llm.Client
	Updater   *meta.Updater
	Version   string
}

// NewServer creates a server with routes and middleware wired up.
func NewServer(cfg *Config, deps Dependencies) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:    chi.NewRouter(),
		addr:      cfg.Addr,
		wsHub:     websocket.NewHub(),
		service:   deps.Service,
		advisor:   deps.Advisor,
		llmClient: deps.LLMClient,
		updater:   deps.Updater,
		version:   deps.Version,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json on requests that
// carry a body.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			ct := r.Header.Get("Content-Type")
			if ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Start runs the websocket hub and the HTTP listener in the background.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("api server listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("api server error: %v", err)
		}
	}()

	return nil
}

// Shutdown drains in-flight requests and stops the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	log.Println("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// WebSocketHub exposes the hub so other components can broadcast, e.g.
// the data watcher announcing a catalog reload.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
