package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports monitor counters and live source connectivity.
type HealthHandler struct {
	monitor   Monitor
	primary   Pinger
	secondary Pinger
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler probing the two sources.
func NewHealthHandler(monitor Monitor, primary, secondary Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		monitor:   monitor,
		primary:   primary,
		secondary: secondary,
		logger:    logHandler(logger, "health"),
	}
}

// HealthCheck probes both sources live, independent of the polling loop's
// own view of them.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"timestamp":           time.Now().UnixMilli(),
		"opportunities_count": h.monitor.OpportunityCount(),
		"pairs_tracking":      h.monitor.TrackedPairCount(),
		"data_sources": map[string]any{
			"jupiter": map[string]any{
				"status":  h.probe(r.Context(), h.primary),
				"primary": true,
			},
			"coingecko": map[string]any{
				"status": h.probe(r.Context(), h.secondary),
				"backup": true,
			},
		},
	})
}

func (h *HealthHandler) probe(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "source probe failed", slog.String("error", err.Error()))
		return "error"
	}
	return "active"
}
