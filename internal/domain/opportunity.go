package domain

// Opportunity is one detected cross-venue spread: buy on one venue, sell on
// another, with profit estimates net of slippage and a gas proxy. All
// percentage fields are in percent, not fractions. Immutable once created;
// the published list is replaced wholesale each cycle.
type Opportunity struct {
	ID            string   `json:"id"`
	Pair          string   `json:"pair"`
	BuyVenue      string   `json:"buyDex"`
	SellVenue     string   `json:"sellDex"`
	BuyPrice      float64  `json:"buyPrice"`
	SellPrice     float64  `json:"sellPrice"`
	Spread        float64  `json:"spread"`
	GrossProfit   float64  `json:"estimatedProfit"`
	GasEstimate   float64  `json:"estimatedGas"`
	NetProfit     float64  `json:"netProfit"`
	Confidence    float64  `json:"confidence"`
	Timestamp     int64    `json:"timestamp"`
	Route         []string `json:"route"`
	DataSource    string   `json:"dataSource"`
	BuyLiquidity  float64  `json:"buyLiquidity"`
	SellLiquidity float64  `json:"sellLiquidity"`
}
