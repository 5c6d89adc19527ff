package jupiter

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
	calls atomic.Int64
}

func (s *stubLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	s.calls.Add(1)
	return s.allow, nil
}

func newTestClient(t *testing.T, url string, limiter domain.RateLimiter, maxRetries int) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:    url,
		RateLimit:  10,
		MaxRetries: maxRetries,
		Timeout:    2 * time.Second,
	}, limiter, slog.New(slog.DiscardHandler))
	c.backoffBase = time.Millisecond
	c.jitter = func() float64 { return 0 }
	return c
}

const quoteBody = `{
	"inAmount": "1000000",
	"outAmount": "171450000",
	"slippageBps": 50,
	"routePlan": [
		{"swapInfo": {"ammKey": "amm1", "programId": "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", "inputMint": "So11111111111111111111111111111111111111112", "outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}, "feeAmount": "2500"}
	]
}`

func TestQuoteSuccess(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "1000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "50", r.URL.Query().Get("slippageBps"))
		w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 2)
	quote, err := c.Quote(context.Background(), "inMint", "outMint", 1_000_000, 50)
	require.NoError(t, err)

	in, out, err := quote.Amounts()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), in)
	assert.Equal(t, int64(171_450_000), out)
	assert.Equal(t, 50, quote.SlippageBps)
	assert.Equal(t, []string{"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"}, quote.StepPrograms())
	assert.NotEmpty(t, quote.Raw)
	assert.Equal(t, int64(1), hits.Load())

	fees, err := quote.TotalFees(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.0025, fees, 1e-12)
}

func TestQuoteLimiterDenialFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: false}, 2)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int64(0), hits.Load(), "a denied budget check must not reach upstream")
}

func TestQuoteRetriesThrottleThenSucceeds(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 2)
	quote, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.NoError(t, err)
	assert.NotNil(t, quote)
	assert.Equal(t, int64(2), hits.Load())
}

func TestQuoteThrottleExhaustsRetries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 2)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int64(3), hits.Load(), "maxRetries=2 allows exactly 3 attempts")
}

func TestQuoteServerErrorIsTransient(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 1)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int64(2), hits.Load())
}

func TestQuoteClientErrorFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 2)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadSourceResponse)
	assert.Equal(t, int64(1), hits.Load(), "non-throttle 4xx must not be retried")
}

func TestQuoteMalformedBodyFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"inAmount": `))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 2)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadSourceResponse)
	assert.Equal(t, int64(1), hits.Load())
}

func TestQuoteTransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 1)
	_, err := c.Quote(context.Background(), "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestQuoteBackoffHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubLimiter{allow: true}, 5)
	c.backoffBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Quote(ctx, "in", "out", 1_000_000, 50)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the backoff short")
}

func TestPing(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, limiter, 2)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int64(0), limiter.calls.Load(), "probes must not consume the call budget")

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c = newTestClient(t, bad.URL, limiter, 2)
	assert.Error(t, c.Ping(context.Background()))
}
