package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// QuotesHandler serves the latest venue quotes.
type QuotesHandler struct {
	monitor Monitor
	logger  *slog.Logger
}

// NewQuotesHandler creates a QuotesHandler.
func NewQuotesHandler(monitor Monitor, logger *slog.Logger) *QuotesHandler {
	return &QuotesHandler{
		monitor: monitor,
		logger:  logHandler(logger, "quotes"),
	}
}

// ListQuotes returns the most recent quote set for a pair. A pair with no
// captured set yields an empty quotes array, never an error.
// GET /api/quotes?pair=SOL/USDC
func (h *QuotesHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		pair = defaultPair
	}

	quotes := []domain.Quote{}
	if set, ok := h.monitor.Quotes(pair); ok {
		quotes = set.Quotes
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pair":      pair,
		"timestamp": time.Now().UnixMilli(),
		"quotes":    quotes,
	})
}
