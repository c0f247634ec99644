// Package web exposes the rendering surface of the system over HTTP: monitor
// controls, the room directory, the people-search proxy and a WebSocket
// stream of per-frame state.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dormwatch/dormwatch/internal/monitor"
	"github.com/dormwatch/dormwatch/internal/people"
	"github.com/dormwatch/dormwatch/internal/rooms"
	"github.com/dormwatch/dormwatch/internal/web/handlers"
	"github.com/dormwatch/dormwatch/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	hub        *handlers.Hub

	monitor *monitor.Monitor
	rooms   *rooms.Directory
	people  *people.Client
}

// NewServer creates a new web server wired to the monitor core. The hub is
// created by the caller so the monitor's OnUpdate can point at it before the
// server exists.
func NewServer(port int, host string, hub *handlers.Hub, mon *monitor.Monitor, dir *rooms.Directory, ppl *people.Client) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		hub:     hub,
		monitor: mon,
		rooms:   dir,
		people:  ppl,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the events endpoint holds its connection open.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the broadcast hub and the HTTP server.
func (s *Server) Start() error {
	go s.hub.Run()

	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
