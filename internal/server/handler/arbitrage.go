package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// ArbitrageHandler serves the published opportunity snapshot.
type ArbitrageHandler struct {
	monitor Monitor
	logger  *slog.Logger
}

// NewArbitrageHandler creates an ArbitrageHandler.
func NewArbitrageHandler(monitor Monitor, logger *slog.Logger) *ArbitrageHandler {
	return &ArbitrageHandler{
		monitor: monitor,
		logger:  logHandler(logger, "arbitrage"),
	}
}

// ListOpportunities filters the snapshot by minimum net profit and pair.
// The pair values "" and "All" both mean no pair filter. maxLatency is
// accepted for interface stability; opportunities carry no latency
// attribute to filter on.
// GET /api/arbitrage/opportunities?minPnl=0&maxLatency=1000&pair=All
func (h *ArbitrageHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minPnl := 0.0
	if v := q.Get("minPnl"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minPnl must be a number")
			return
		}
		minPnl = f
	}

	if v := q.Get("maxLatency"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "maxLatency must be an integer")
			return
		}
	}

	opps := h.monitor.Opportunities(minPnl, q.Get("pair"))

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"totalCount":    len(opps),
		"timestamp":     time.Now().UnixMilli(),
	})
}
