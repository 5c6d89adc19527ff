// Package arbitrage scores cross-venue spreads and ranks the results.
package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/synth"
)

// Config configures opportunity detection.
type Config struct {
	MinSpreadPct float64 // minimum spread to consider, in percent
	TopN         int     // size of the published snapshot
}

// Detector evaluates every ordered buy/sell combination of a pair's venue
// quotes and keeps the globally best results across pairs.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// NewDetector creates a detector. Zero config fields fall back to a 0.1%
// minimum spread and a top-10 snapshot.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if cfg.MinSpreadPct <= 0 {
		cfg.MinSpreadPct = 0.1
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Detector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
	}
}

// Detect returns every profitable opportunity within one pair's quote set.
// Quotes are compared by position; the same venue never trades against
// itself because the aggregator emits one quote per venue.
func (d *Detector) Detect(ctx context.Context, pair string, quotes []domain.Quote, now time.Time) []domain.Opportunity {
	var opps []domain.Opportunity
	ts := now.UnixMilli()

	for i, buy := range quotes {
		for j, sell := range quotes {
			if i == j || buy.Price <= 0 {
				continue
			}

			spread := (sell.Price - buy.Price) / buy.Price * 100
			if spread <= d.cfg.MinSpreadPct {
				continue
			}

			gross := spread - buy.Slippage*100 - sell.Slippage*100
			gas := gasEstimate(buy.Venue, sell.Venue)
			net := gross - gas
			if net <= 0 {
				continue
			}

			opp := domain.Opportunity{
				ID:            fmt.Sprintf("%s-%s-%s-%d", strings.ReplaceAll(pair, "/", "-"), buy.Venue, sell.Venue, ts),
				Pair:          pair,
				BuyVenue:      buy.Venue,
				SellVenue:     sell.Venue,
				BuyPrice:      buy.Price,
				SellPrice:     sell.Price,
				Spread:        spread,
				GrossProfit:   gross,
				GasEstimate:   gas,
				NetProfit:     net,
				Confidence:    confidence(pair, spread, buy.Liquidity, sell.Liquidity),
				Timestamp:     ts,
				Route:         []string{"Buy on " + buy.Venue, "Sell on " + sell.Venue},
				DataSource:    dataSource(buy.Source, sell.Source),
				BuyLiquidity:  buy.Liquidity,
				SellLiquidity: sell.Liquidity,
			}
			opps = append(opps, opp)

			d.logger.DebugContext(ctx, "opportunity detected",
				slog.String("pair", pair),
				slog.String("buy", buy.Venue),
				slog.String("sell", sell.Venue),
				slog.Float64("spread_pct", spread),
				slog.Float64("net_profit_pct", net),
			)
		}
	}

	return opps
}

// Rank sorts opportunities by net profit descending and keeps the top N.
// The result is the published snapshot for the cycle.
func (d *Detector) Rank(opps []domain.Opportunity) []domain.Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfit > opps[j].NetProfit
	})
	if len(opps) > d.cfg.TopN {
		opps = opps[:d.cfg.TopN]
	}
	return opps
}

// gasEstimate is a fixed cost proxy for a venue pair, in percent, within
// [0.01, 0.03). Not a live gas-price lookup.
func gasEstimate(buyVenue, sellVenue string) float64 {
	return 0.01 + float64(synth.Mod(20, buyVenue, sellVenue))/1000
}

// confidence blends liquidity depth, spread size and a pair-keyed jitter
// term into a 0-100 score. The jitter term carries no market signal; it
// only keeps equal-liquidity pairs from scoring identically.
func confidence(pair string, spread, buyLiquidity, sellLiquidity float64) float64 {
	score := (buyLiquidity+sellLiquidity)/20_000*40 +
		min(spread/2, 1)*30 +
		(100-float64(synth.Mod(30, pair)))/100*30
	return min(score, 100)
}

// dataSource labels an opportunity with the provenance of its two sides.
func dataSource(buy, sell domain.QuoteSource) string {
	if buy == sell {
		return string(buy)
	}
	return fmt.Sprintf("%s/%s", buy, sell)
}
