// Package history keeps bounded per-pair spread series for charting.
package history

import (
	"strconv"
	"sync"

	"github.com/alanyoungcy/dexmon/internal/synth"
)

const (
	// maxStored bounds each pair's series; older entries are dropped.
	maxStored = 50
	// displayLen is the fixed chart length served to the query layer.
	displayLen = 20
)

// Tracker maintains a bounded spread series per trading pair. The polling
// loop is the sole writer; query handlers read concurrently.
type Tracker struct {
	mu     sync.RWMutex
	series map[string][]float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		series: make(map[string][]float64),
	}
}

// Append records a spread observation for the pair and trims the series to
// the most recent maxStored entries.
func (t *Tracker) Append(pair string, spread float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := append(t.series[pair], spread)
	if len(s) > maxStored {
		s = s[len(s)-maxStored:]
	}
	t.series[pair] = s
}

// Snapshot returns a copy of the stored series for the pair, oldest first.
// The returned slice is safe to mutate.
func (t *Tracker) Snapshot(pair string) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src := t.series[pair]
	if len(src) == 0 {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// Display returns exactly displayLen points for the pair, oldest first.
// When fewer real observations exist, the gap is filled by prepending a
// deterministic bounded random walk anchored at the oldest real value, or
// at 1.0 for an empty series. Chart continuity only, not a forecast.
func (t *Tracker) Display(pair string) []float64 {
	stored := t.Snapshot(pair)
	if len(stored) >= displayLen {
		return stored[len(stored)-displayLen:]
	}

	anchor := 1.0
	if len(stored) > 0 {
		anchor = stored[0]
	}

	need := displayLen - len(stored)
	out := make([]float64, 0, displayLen)
	price := anchor
	for i := 0; i < need; i++ {
		price *= 1 + variation(pair, i)
		out = append(out, price)
	}
	return append(out, stored...)
}

// variation yields a per-index step in (-0.01, 0.01) keyed to the pair, so
// backfilled walks are stable across calls.
func variation(pair string, i int) float64 {
	return float64(synth.Mod(200, pair, strconv.Itoa(i))-100) / 10000
}
