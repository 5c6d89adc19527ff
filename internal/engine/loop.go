package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// Run executes polling cycles at the configured interval until the context
// ends. The first cycle starts immediately. Cycle failures are logged and
// isolated; only context cancellation stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "engine started",
		slog.Duration("poll_interval", e.cfg.PollInterval),
		slog.Int("pairs", len(e.cfg.Pairs)),
	)
	defer e.logger.Info("engine stopped")

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.RefreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce runs a single polling cycle: refresh every pair's quote set,
// detect across the fresh sets, publish the ranked snapshot, record
// history, and notify sinks.
func (e *Engine) RefreshOnce(ctx context.Context) {
	start := e.now()
	primaryServed, anyServed := e.refreshQuoteSets(ctx)
	if ctx.Err() != nil {
		return
	}

	ranked := e.detectAcrossPairs(ctx)

	e.mu.Lock()
	e.opps = ranked
	e.mu.Unlock()

	// One history point per pair in the snapshot, from its best entry.
	// ranked is sorted by net profit, so the first hit per pair is the best.
	recorded := make(map[string]bool, len(ranked))
	for _, opp := range ranked {
		if recorded[opp.Pair] {
			continue
		}
		recorded[opp.Pair] = true
		e.history.Append(opp.Pair, opp.Spread)
	}

	if e.broadcaster != nil {
		e.broadcaster.BroadcastOpportunities(ranked)
	}
	if e.alerter != nil {
		if len(ranked) > 0 {
			e.alerter.OpportunityFound(ctx, ranked[0])
		}
		if e.primaryUp && !primaryServed {
			e.alerter.SourceDown(ctx, "jupiter")
		}
		if e.secondaryUp && !anyServed {
			e.alerter.SourceDown(ctx, "coingecko")
		}
	}
	e.primaryUp = primaryServed
	e.secondaryUp = anyServed

	e.logger.InfoContext(ctx, "cycle complete",
		slog.Int("opportunities", len(ranked)),
		slog.Duration("elapsed", e.now().Sub(start)),
	)
}

// refreshQuoteSets fetches every configured pair sequentially and stores
// the resulting sets. It reports whether the primary source served any pair
// this cycle, and whether any source did.
func (e *Engine) refreshQuoteSets(ctx context.Context) (primaryServed, anyServed bool) {
	for _, pair := range e.cfg.Pairs {
		if ctx.Err() != nil {
			return primaryServed, anyServed
		}
		quotes := e.fetcher.FetchPairQuotes(ctx, pair)
		for _, q := range quotes {
			if q.Source != domain.SourceCoinGecko {
				primaryServed = true
			}
		}
		if len(quotes) > 0 {
			anyServed = true
		} else {
			e.logger.WarnContext(ctx, "no quotes this cycle", slog.String("pair", pair.Symbol))
		}

		e.mu.Lock()
		e.sets[pair.Symbol] = domain.VenueQuoteSet{
			Pair:       pair.Symbol,
			Quotes:     quotes,
			CapturedAt: e.now(),
		}
		e.mu.Unlock()
	}
	return primaryServed, anyServed
}

// detectAcrossPairs runs detection over every quote set still within the
// staleness cutoff and returns the ranked snapshot.
func (e *Engine) detectAcrossPairs(ctx context.Context) []domain.Opportunity {
	now := e.now()

	e.mu.RLock()
	sets := make([]domain.VenueQuoteSet, 0, len(e.sets))
	for _, pair := range e.cfg.Pairs {
		if set, ok := e.sets[pair.Symbol]; ok {
			sets = append(sets, set)
		}
	}
	e.mu.RUnlock()

	var all []domain.Opportunity
	for _, set := range sets {
		if len(set.Quotes) == 0 {
			continue
		}
		if age := now.Sub(set.CapturedAt); age > e.cfg.StalenessCutoff {
			e.logger.DebugContext(ctx, "quote set stale, skipping",
				slog.String("pair", set.Pair),
				slog.Duration("age", age),
			)
			continue
		}
		all = append(all, e.detector.Detect(ctx, set.Pair, set.Quotes, now)...)
	}
	return e.detector.Rank(all)
}
