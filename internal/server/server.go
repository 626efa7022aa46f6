// Package server exposes the scanner and analysis services over HTTP and
// WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/server/handler"
	"github.com/alanyoungcy/polyscan/internal/server/middleware"
	"github.com/alanyoungcy/polyscan/internal/server/ws"
)

// Config holds the HTTP server configuration. ScanRatePerMinute is applied
// per client IP when a rate limiter is wired; 0 disables limiting.
type Config struct {
	Port              int
	CORSOrigins       []string
	ScanRatePerMinute int
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Markets  *handler.MarketHandler
	Scans    *handler.ScanHandler
	Analysis *handler.AnalyzeHandler
	Clusters *handler.ClusterHandler
}

// Server is the headless HTTP + WebSocket API for the scanner.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes on a ServeMux, wires logging and CORS
// middleware, and attaches the WebSocket hub when one is supplied. Handlers
// left nil are simply not registered, so reduced deployments (no Postgres,
// no Redis) expose only what they can serve.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	var scanH http.Handler = http.HandlerFunc(handlers.Scans.Scan)
	if limiter != nil && cfg.ScanRatePerMinute > 0 {
		scanH = middleware.RateLimit(limiter, "scan", cfg.ScanRatePerMinute, time.Minute, logger)(scanH)
	}
	mux.Handle("POST /api/scan", scanH)
	mux.HandleFunc("GET /api/scans/recent", handlers.Scans.RecentScans)

	mux.HandleFunc("POST /api/analyze", handlers.Analysis.Analyze)
	mux.HandleFunc("POST /api/analyze/curve", handlers.Analysis.Curve)
	mux.HandleFunc("POST /api/analyze/surface", handlers.Analysis.Surface)

	if handlers.Markets != nil {
		mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
		mux.HandleFunc("POST /api/markets", handlers.Markets.IngestMarkets)
		mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	}

	if handlers.Clusters != nil {
		mux.HandleFunc("POST /api/clusters", handlers.Clusters.CreateCluster)
		mux.HandleFunc("GET /api/clusters", handlers.Clusters.ListClusters)
		mux.HandleFunc("GET /api/clusters/{id}", handlers.Clusters.GetCluster)
		mux.HandleFunc("DELETE /api/clusters/{id}", handlers.Clusters.DeleteCluster)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
