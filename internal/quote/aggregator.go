// Package quote builds the per-venue quote view the detector compares.
//
// Only one quote per pair is ever real: the primary source's. The remaining
// venues are synthesized around it (or around the backup source's price
// ratio) with deterministic per-venue parameters, so the published view is
// comparable but explicitly not authoritative.
package quote

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/platform/coingecko"
	"github.com/alanyoungcy/dexmon/internal/platform/jupiter"
	"github.com/alanyoungcy/dexmon/internal/synth"
	"github.com/alanyoungcy/dexmon/internal/venue"
)

// PrimarySource is the slice of the quote client the aggregator needs.
type PrimarySource interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount int64, slippageBps int) (*jupiter.QuoteResponse, error)
}

// SecondarySource is the slice of the price client the aggregator needs.
type SecondarySource interface {
	Prices(ctx context.Context, ids []string) (map[string]coingecko.Price, error)
}

// Aggregator fetches one real quote per pair and fills in the remaining
// venues. Failures never propagate: a pair that cannot be quoted this cycle
// yields an empty set and is simply absent from detection.
type Aggregator struct {
	primary     PrimarySource
	secondary   SecondarySource
	amount      int64
	slippageBps int
	logger      *slog.Logger
	now         func() time.Time
}

// NewAggregator creates an aggregator quoting the given notional input
// amount (defaults to 1_000_000 base units, 50 bps slippage tolerance).
func NewAggregator(primary PrimarySource, secondary SecondarySource, amount int64, slippageBps int, logger *slog.Logger) *Aggregator {
	if amount <= 0 {
		amount = 1_000_000
	}
	if slippageBps <= 0 {
		slippageBps = 50
	}
	return &Aggregator{
		primary:     primary,
		secondary:   secondary,
		amount:      amount,
		slippageBps: slippageBps,
		logger:      logger,
		now:         time.Now,
	}
}

// FetchPairQuotes returns the venue quotes for one pair: the primary quote
// plus synthesized venues, or backup-derived quotes for every venue when
// the primary fails, or an empty slice when both sources fail.
func (a *Aggregator) FetchPairQuotes(ctx context.Context, pair domain.TradingPair) []domain.Quote {
	cycleKey := strconv.FormatInt(a.now().Unix(), 10)

	if primary, ok := a.fetchPrimary(ctx, pair); ok {
		quotes := []domain.Quote{primary}
		for _, v := range venue.All() {
			if v == primary.Venue {
				continue
			}
			quotes = append(quotes, a.synthesizeVenue(pair, v, primary.Price, cycleKey))
		}
		return quotes
	}

	a.logger.InfoContext(ctx, "quote: primary source failed, trying backup",
		slog.String("pair", pair.Symbol),
	)
	return a.fetchSecondary(ctx, pair, cycleKey)
}

// fetchPrimary obtains and converts the real quote. Any failure, including
// a malformed or non-positive amount pair, reports false so the caller
// falls back to the backup source.
func (a *Aggregator) fetchPrimary(ctx context.Context, pair domain.TradingPair) (domain.Quote, bool) {
	resp, err := a.primary.Quote(ctx, pair.BaseMint, pair.QuoteMint, a.amount, a.slippageBps)
	if err != nil {
		a.logger.WarnContext(ctx, "quote: primary fetch failed",
			slog.String("pair", pair.Symbol),
			slog.String("error", err.Error()),
		)
		return domain.Quote{}, false
	}

	in, out, err := resp.Amounts()
	if err != nil || in <= 0 || out <= 0 {
		a.logger.WarnContext(ctx, "quote: primary returned unusable amounts",
			slog.String("pair", pair.Symbol),
			slog.String("in", resp.InAmount),
			slog.String("out", resp.OutAmount),
		)
		return domain.Quote{}, false
	}

	fees, err := resp.TotalFees(in)
	if err != nil {
		a.logger.WarnContext(ctx, "quote: primary returned unusable fees",
			slog.String("pair", pair.Symbol),
			slog.String("error", err.Error()),
		)
		return domain.Quote{}, false
	}

	slippageBps := resp.SlippageBps
	if slippageBps == 0 {
		slippageBps = a.slippageBps
	}

	v := venue.Classify(resp.StepPrograms())
	return domain.Quote{
		Venue:         v,
		Price:         float64(out) / float64(in),
		Liquidity:     float64(500_000 + synth.Mod(1_000_000, string(resp.Raw))),
		Slippage:      float64(slippageBps) / 10_000,
		DirectRoute:   []string{pair.Base, v, pair.Quote},
		MultiHopRoute: resp.StepInputMints(),
		Fees:          fees,
		Source:        domain.SourceJupiter,
	}, true
}

// fetchSecondary derives one quote per venue from the backup source's USD
// prices. Returns nil when the backup cannot price both assets.
func (a *Aggregator) fetchSecondary(ctx context.Context, pair domain.TradingPair, cycleKey string) []domain.Quote {
	prices, err := a.secondary.Prices(ctx, []string{pair.BaseCoinID, pair.QuoteCoinID})
	if err != nil {
		a.logger.WarnContext(ctx, "quote: backup fetch failed",
			slog.String("pair", pair.Symbol),
			slog.String("error", err.Error()),
		)
		return nil
	}

	base, baseOK := prices[pair.BaseCoinID]
	quoteAsset, quoteOK := prices[pair.QuoteCoinID]
	if !baseOK || !quoteOK || base.USD <= 0 || quoteAsset.USD <= 0 {
		a.logger.WarnContext(ctx, "quote: backup missing usable prices",
			slog.String("pair", pair.Symbol),
		)
		return nil
	}

	ratio := base.USD / quoteAsset.USD
	quotes := make([]domain.Quote, 0, len(venue.All()))
	for _, v := range venue.All() {
		quotes = append(quotes, domain.Quote{
			Venue:         v,
			Price:         ratio * (1 + variance(v, pair.Symbol, cycleKey)),
			Liquidity:     float64(300_000 + synth.Mod(500_000, v, pair.Symbol)),
			Slippage:      0.003 + float64(synth.Mod(20, v))/10_000,
			DirectRoute:   []string{pair.Base, v, pair.Quote},
			MultiHopRoute: []string{pair.Base, pair.Quote},
			Fees:          0.0025,
			Source:        domain.SourceCoinGecko,
		})
	}

	a.logger.InfoContext(ctx, "quote: using backup source",
		slog.String("pair", pair.Symbol),
		slog.Int("quotes", len(quotes)),
	)
	return quotes
}

// synthesizeVenue builds a derived quote for a venue the primary route did
// not cover, perturbing the real price by the per-cycle variance.
func (a *Aggregator) synthesizeVenue(pair domain.TradingPair, v string, realPrice float64, cycleKey string) domain.Quote {
	return domain.Quote{
		Venue:         v,
		Price:         realPrice * (1 + variance(v, pair.Symbol, cycleKey)),
		Liquidity:     float64(100_000 + synth.Mod(800_000, v, pair.Symbol)),
		Slippage:      float64(synth.Mod(50, v)+10) / 10_000,
		DirectRoute:   []string{pair.Base, v, pair.Quote},
		MultiHopRoute: []string{pair.Base, "WSOL", pair.Quote},
		Fees:          float64(synth.Mod(75, v, "fees")+25) / 10_000,
		Source:        domain.SourceJupiterSimulated,
	}
}

// variance is the deterministic inter-venue price perturbation, in the
// range [-0.5%, +0.5%), keyed by venue, pair and cycle.
func variance(v, pairSymbol, cycleKey string) float64 {
	return float64(synth.Mod(100, v, pairSymbol, cycleKey)-50) / 10_000
}
