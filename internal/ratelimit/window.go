// Package ratelimit provides an in-process sliding-window rate limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// Window admits calls against per-key sliding-window budgets, keeping the
// call timestamps of the trailing window in memory. It is the default
// limiter when a single process owns the whole upstream budget. Safe for
// concurrent use.
type Window struct {
	mu    sync.Mutex
	calls map[string][]time.Time
	now   func() time.Time
}

// NewWindow creates an empty limiter.
func NewWindow() *Window {
	return &Window{
		calls: make(map[string][]time.Time),
		now:   time.Now,
	}
}

var _ domain.RateLimiter = (*Window)(nil)

// Allow prunes timestamps that fell out of the window, then admits the call
// unless the key has already spent its budget. A denied call records
// nothing. Never blocks.
func (w *Window) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	kept := w.calls[key][:0]
	for _, t := range w.calls[key] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		w.calls[key] = kept
		return false, nil
	}

	w.calls[key] = append(kept, now)
	return true, nil
}
