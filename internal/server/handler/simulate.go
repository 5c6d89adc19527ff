package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// SimulateHandler replays opportunities from the published snapshot.
type SimulateHandler struct {
	monitor Monitor
	logger  *slog.Logger
}

// NewSimulateHandler creates a SimulateHandler.
func NewSimulateHandler(monitor Monitor, logger *slog.Logger) *SimulateHandler {
	return &SimulateHandler{
		monitor: monitor,
		logger:  logHandler(logger, "simulate"),
	}
}

type simulateRequest struct {
	OpportunityID string  `json:"opportunityId"`
	Amount        float64 `json:"amount"`
}

// SimulateTrade runs a deterministic execution simulation for an
// opportunity. An absent or unknown id yields 404 without the simulated
// execution delay.
// POST /api/simulate/trade
func (h *SimulateHandler) SimulateTrade(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OpportunityID == "" {
		writeError(w, http.StatusBadRequest, "opportunityId is required")
		return
	}
	if req.Amount <= 0 {
		req.Amount = 1000
	}

	sim, err := h.monitor.Simulate(r.Context(), req.OpportunityID, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Opportunity not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "simulation failed",
			slog.String("opportunity_id", req.OpportunityID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	writeJSON(w, http.StatusOK, sim)
}
