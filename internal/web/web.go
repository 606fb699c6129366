// Package web is the optional HTTP sidecar exposing health and Prometheus
// metrics endpoints. It is disabled unless a bind address is configured.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aoe2bot/internal/library"
)

const shutdownTimeout = 5 * time.Second

// Server serves GET /health and GET /metrics.
type Server struct {
	lib    *library.Library
	logger *slog.Logger
	server *http.Server
}

// New builds a Server bound to addr, reporting library state in /health.
func New(addr string, lib *library.Library, logger *slog.Logger) *Server {
	s := &Server{lib: lib, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth())
	r.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}

	go func() {
		s.logger.Info("web sidecar listening", "addr", s.server.Addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string         `json:"status"` // "ok" or "degraded"
	Clips  map[string]int `json:"clips"`
}

// handleHealth reports ok while every category has at least one clip,
// degraded (503) otherwise.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Clips:  make(map[string]int),
		}

		for cat, n := range s.lib.Counts() {
			resp.Clips[string(cat)] = n
			if n == 0 {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
