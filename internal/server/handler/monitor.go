package handler

import (
	"context"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// defaultPair is assumed when a query omits the pair parameter.
const defaultPair = "SOL/USDC"

// Monitor is the read surface of the engine consumed by HTTP handlers.
type Monitor interface {
	Quotes(pair string) (domain.VenueQuoteSet, bool)
	Opportunities(minNetProfit float64, pair string) []domain.Opportunity
	Simulate(ctx context.Context, opportunityID string, amount float64) (domain.TradeSimulation, error)
	History(pair string) []float64
	DisplayHistory(pair string) []float64
	TrackedPairCount() int
	OpportunityCount() int
}

// Pinger probes one upstream source's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
