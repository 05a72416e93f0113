package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// config holds internal HTTP server configuration
type config struct {
	addr     string
	handlers map[string]EventHandler
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithFunction registers a local event handler under a function name
func WithFunction(name string, handler EventHandler) Option {
	return func(c *config) {
		c.handlers[name] = handler
	}
}

// Server represents the local development event server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:     "localhost:8080",
		handlers: map[string]EventHandler{},
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Local event endpoint
	endpoint := NewEventEndpoint(cfg.handlers)
	router.Post("/functions/{function}/events", endpoint.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
