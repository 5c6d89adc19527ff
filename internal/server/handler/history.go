package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HistoryHandler serves per-pair spread history.
type HistoryHandler struct {
	monitor Monitor
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(monitor Monitor, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		monitor: monitor,
		logger:  logHandler(logger, "history"),
	}
}

// RawHistory returns the stored series exactly as recorded, without
// display backfill.
// GET /api/price-history?pair=SOL/USDC
func (h *HistoryHandler) RawHistory(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		pair = defaultPair
	}

	series := h.monitor.History(pair)
	if series == nil {
		series = []float64{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pair":      pair,
		"history":   series,
		"timestamp": time.Now().UnixMilli(),
	})
}

// ChartHistory returns the fixed-length display series for a pair given in
// dash form (SOL-USDC), backfilled when the stored series is short.
// GET /api/price-history/{pair}
func (h *HistoryHandler) ChartHistory(w http.ResponseWriter, r *http.Request) {
	pair := strings.ReplaceAll(pathParam(r, "pair"), "-", "/")

	writeJSON(w, http.StatusOK, map[string]any{
		"pair":      pair,
		"history":   h.monitor.DisplayHistory(pair),
		"timestamp": time.Now().UnixMilli(),
	})
}
