package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup misses: an unknown opportunity
	// id, or a pair the engine does not track.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the local call budget denies an
	// attempt, or the upstream kept throttling through the retry budget.
	// Callers skip the attempt; they must not wait on it.
	ErrRateLimited = errors.New("rate limited")

	// ErrSourceUnavailable is returned after retries for transient upstream
	// failures: timeouts, transport errors, 5xx.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrBadSourceResponse is returned without retry for permanent upstream
	// failures: non-throttle 4xx or a payload that does not decode.
	ErrBadSourceResponse = errors.New("bad source response")
)

// Stale quotes, missing data and unprofitable spreads are not errors:
// the affected output is omitted for the cycle and the loop moves on.
