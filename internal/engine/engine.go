// Package engine owns the polling cycle and all published monitor state.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/dexmon/internal/arbitrage"
	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/history"
)

// QuoteFetcher produces the venue quotes for one pair. A failed fetch is an
// empty slice, never an error; the cycle must not die with a source.
type QuoteFetcher interface {
	FetchPairQuotes(ctx context.Context, pair domain.TradingPair) []domain.Quote
}

// Broadcaster pushes each cycle's opportunity snapshot to streaming clients.
type Broadcaster interface {
	BroadcastOpportunities(opps []domain.Opportunity)
}

// Alerter receives notable cycle events for out-of-band delivery.
type Alerter interface {
	OpportunityFound(ctx context.Context, opp domain.Opportunity)
	SourceDown(ctx context.Context, source string)
}

// Config holds the engine's cycle parameters.
type Config struct {
	PollInterval    time.Duration        // cycle cadence
	StalenessCutoff time.Duration        // max quote-set age usable by detection
	Pairs           []domain.TradingPair // monitored markets
}

// Engine runs the polling loop and is the sole writer of the published
// quote sets, the opportunity snapshot and the spread history. Handlers
// read through the accessor methods, which copy under an RWMutex.
type Engine struct {
	fetcher  QuoteFetcher
	detector *arbitrage.Detector
	history  *history.Tracker
	cfg      Config
	logger   *slog.Logger

	// Optional sinks; set during wiring, before Run.
	broadcaster Broadcaster
	alerter     Alerter

	mu   sync.RWMutex
	sets map[string]domain.VenueQuoteSet
	opps []domain.Opportunity

	// Source availability from the previous cycle, loop-local.
	primaryUp   bool
	secondaryUp bool

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// New creates an Engine. Zero config fields fall back to a 10s poll
// interval, a 5s staleness cutoff and the default pair set.
func New(fetcher QuoteFetcher, detector *arbitrage.Detector, cfg Config, logger *slog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.StalenessCutoff <= 0 {
		cfg.StalenessCutoff = 5 * time.Second
	}
	if len(cfg.Pairs) == 0 {
		cfg.Pairs = domain.DefaultPairs()
	}
	return &Engine{
		fetcher:     fetcher,
		detector:    detector,
		history:     history.NewTracker(),
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "engine")),
		sets:        make(map[string]domain.VenueQuoteSet),
		primaryUp:   true,
		secondaryUp: true,
		now:         time.Now,
		wait:        sleep,
	}
}

// SetBroadcaster attaches the snapshot broadcaster. Call before Run.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// SetAlerter attaches the event alerter. Call before Run.
func (e *Engine) SetAlerter(a Alerter) {
	e.alerter = a
}

// Quotes returns the latest captured quote set for the pair, if any. The
// returned set's slice is safe to mutate.
func (e *Engine) Quotes(pair string) (domain.VenueQuoteSet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	set, ok := e.sets[pair]
	if !ok {
		return domain.VenueQuoteSet{}, false
	}
	out := set
	out.Quotes = make([]domain.Quote, len(set.Quotes))
	copy(out.Quotes, set.Quotes)
	return out, true
}

// Opportunities filters the published snapshot by minimum net profit and,
// unless pair is empty or "All", by pair. Order is preserved.
func (e *Engine) Opportunities(minNetProfit float64, pair string) []domain.Opportunity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Opportunity, 0, len(e.opps))
	for _, opp := range e.opps {
		if opp.NetProfit < minNetProfit {
			continue
		}
		if pair != "" && pair != "All" && opp.Pair != pair {
			continue
		}
		out = append(out, opp)
	}
	return out
}

// OpportunityByID looks up an opportunity in the published snapshot.
func (e *Engine) OpportunityByID(id string) (domain.Opportunity, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, opp := range e.opps {
		if opp.ID == id {
			return opp, true
		}
	}
	return domain.Opportunity{}, false
}

// History returns the stored spread series for the pair, oldest first.
func (e *Engine) History(pair string) []float64 {
	return e.history.Snapshot(pair)
}

// DisplayHistory returns the fixed-length chart series for the pair.
func (e *Engine) DisplayHistory(pair string) []float64 {
	return e.history.Display(pair)
}

// TrackedPairCount reports how many pairs have a captured quote set.
func (e *Engine) TrackedPairCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sets)
}

// OpportunityCount reports the size of the published snapshot.
func (e *Engine) OpportunityCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.opps)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
