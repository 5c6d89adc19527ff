package domain

// TradeSimulation is the result of replaying an opportunity at a given
// notional amount. Latency and slippage impact are derived, not measured;
// nothing is ever sent to a venue.
type TradeSimulation struct {
	Success          bool     `json:"success"`
	ExecutionTime    int64    `json:"executionTime"` // milliseconds
	OriginalEstimate float64  `json:"originalEstimate"`
	ActualProfit     float64  `json:"actualProfit"`
	SlippageImpact   float64  `json:"slippageImpact"`
	GasUsed          float64  `json:"gasUsed"`
	Route            []string `json:"route"`
	Timestamp        int64    `json:"timestamp"`
}
