// Package server exposes the monitor's read-only HTTP + WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/server/handler"
	"github.com/alanyoungcy/dexmon/internal/server/middleware"
	"github.com/alanyoungcy/dexmon/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port          int
	CORSOrigins   []string
	APIRateLimit  int           // requests per client per window; 0 disables
	APIRateWindow time.Duration // window for APIRateLimit
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Quotes    *handler.QuotesHandler
	Arbitrage *handler.ArbitrageHandler
	Simulate  *handler.SimulateHandler
	History   *handler.HistoryHandler
	Health    *handler.HealthHandler
}

// Server is the read-only HTTP + WebSocket API for the monitor.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain applied (CORS, request logging, per-client rate
// limiting). wsHub may be nil when streaming is disabled; limiter may be
// nil when API rate limiting is disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/quotes", handlers.Quotes.ListQuotes)
	mux.HandleFunc("GET /api/arbitrage/opportunities", handlers.Arbitrage.ListOpportunities)
	mux.HandleFunc("POST /api/simulate/trade", handlers.Simulate.SimulateTrade)
	mux.HandleFunc("GET /api/price-history", handlers.History.RawHistory)
	mux.HandleFunc("GET /api/price-history/{pair}", handlers.History.ChartHistory)
	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	if limiter != nil && cfg.APIRateLimit > 0 {
		window := cfg.APIRateWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(limiter, cfg.APIRateLimit, window)(h)
	}
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
		mux:        mux,
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
