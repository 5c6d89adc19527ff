package coingecko

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

type stubLimiter struct {
	allow bool
}

func (s *stubLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return s.allow, nil
}

func newTestClient(t *testing.T, url string, allow bool, maxRetries int) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:    url,
		RateLimit:  15,
		MaxRetries: maxRetries,
		Timeout:    2 * time.Second,
	}, &stubLimiter{allow: allow}, slog.New(slog.DiscardHandler))
	c.backoffBase = time.Millisecond
	c.jitter = func() float64 { return 0 }
	return c
}

func TestPricesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana,usd-coin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", r.URL.Query().Get("include_24hr_change"))
		w.Write([]byte(`{"solana": {"usd": 171.45, "usd_24h_change": -2.1}, "usd-coin": {"usd": 1.0}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true, 2)
	prices, err := c.Prices(context.Background(), []string{"solana", "usd-coin"})
	require.NoError(t, err)

	require.Contains(t, prices, "solana")
	assert.InDelta(t, 171.45, prices["solana"].USD, 1e-9)
	assert.InDelta(t, -2.1, prices["solana"].USD24hChange, 1e-9)
	assert.InDelta(t, 1.0, prices["usd-coin"].USD, 1e-9)

	_, ok := prices["bonk"]
	assert.False(t, ok, "unrequested ids are absent, not zero-valued")
}

func TestPricesLimiterDenialFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false, 2)
	_, err := c.Prices(context.Background(), []string{"solana"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int64(0), hits.Load())
}

func TestPricesThrottleExhaustsRetries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true, 2)
	_, err := c.Prices(context.Background(), []string{"solana"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int64(3), hits.Load())
}

func TestPricesClientErrorFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true, 2)
	_, err := c.Prices(context.Background(), []string{"nonsense"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadSourceResponse)
	assert.Equal(t, int64(1), hits.Load())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"solana": {"usd": 171.45}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true, 2)
	assert.NoError(t, c.Ping(context.Background()))
}
