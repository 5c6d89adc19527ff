package domain

import (
	"context"
	"time"
)

// RateLimiter admits or denies calls against a per-key sliding-window
// budget. Allow never blocks: a denied call records nothing and the caller
// skips the attempt rather than waiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
