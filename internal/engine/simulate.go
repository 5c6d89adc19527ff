package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/synth"
)

// Simulate replays an opportunity from the published snapshot at the given
// notional amount. Execution latency and slippage impact are derived from
// the opportunity id, so repeated simulations of the same trade agree. The
// call sleeps for the simulated latency before returning; an unknown id
// fails with ErrNotFound immediately, without the delay.
func (e *Engine) Simulate(ctx context.Context, opportunityID string, amount float64) (domain.TradeSimulation, error) {
	opp, ok := e.OpportunityByID(opportunityID)
	if !ok {
		return domain.TradeSimulation{}, fmt.Errorf("engine: simulate %q: %w", opportunityID, domain.ErrNotFound)
	}

	latencyMs := 100 + synth.Mod(500, opportunityID)
	amountKey := strconv.FormatFloat(amount, 'f', -1, 64)
	impact := 0.1 + float64(synth.Mod(50, opportunityID, amountKey))/100
	actual := opp.NetProfit * (amount / 1000) * (1 - impact/100)

	if err := e.wait(ctx, time.Duration(latencyMs)*time.Millisecond); err != nil {
		return domain.TradeSimulation{}, fmt.Errorf("engine: simulate %q: %w", opportunityID, err)
	}

	return domain.TradeSimulation{
		Success:          true,
		ExecutionTime:    int64(latencyMs),
		OriginalEstimate: opp.NetProfit,
		ActualProfit:     actual,
		SlippageImpact:   impact,
		GasUsed:          opp.GasEstimate,
		Route:            opp.Route,
		Timestamp:        e.now().UnixMilli(),
	}, nil
}
