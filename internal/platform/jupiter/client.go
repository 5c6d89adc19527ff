// Package jupiter is the REST client for the primary quote source.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

const (
	// sourceKey is the rate-limiter key shared by all quote calls.
	sourceKey = "jupiter"
	// rateWindow is the sliding window the per-minute budget covers.
	rateWindow = time.Minute

	probeInputMint  = "So11111111111111111111111111111111111111112"
	probeOutputMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	probeAmount     = 1_000_000
	probeTimeout    = 5 * time.Second
)

// Config holds the client settings.
type Config struct {
	BaseURL    string
	RateLimit  int // calls per minute
	MaxRetries int
	Timeout    time.Duration
}

// Client fetches swap quotes with rate limiting and bounded retry. A denied
// budget check fails the call immediately; throttle and transient failures
// back off exponentially with jitter before retrying.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     domain.RateLimiter
	rateLimit   int
	maxRetries  int
	logger      *slog.Logger
	backoffBase time.Duration
	jitter      func() float64
}

// NewClient creates a quote client. Zero config fields fall back to the
// public API defaults.
func NewClient(cfg Config, limiter domain.RateLimiter, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://quote-api.jup.ag/v6"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     limiter,
		rateLimit:   cfg.RateLimit,
		maxRetries:  cfg.MaxRetries,
		logger:      logger,
		backoffBase: time.Second,
		jitter:      rand.Float64,
	}
}

// Quote fetches a swap quote for the given mints and input amount.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount int64, slippageBps int) (*QuoteResponse, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("slippageBps", strconv.Itoa(slippageBps))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, fmt.Errorf("jupiter: quote: %w", err)
			}
		}

		allowed, err := c.limiter.Allow(ctx, sourceKey, c.rateLimit, rateWindow)
		if err != nil {
			// Fail open on limiter errors so a broken limiter backend
			// cannot take quoting down with it.
			c.logger.WarnContext(ctx, "jupiter: rate limiter check failed",
				slog.String("error", err.Error()),
			)
		} else if !allowed {
			return nil, fmt.Errorf("jupiter: call budget exhausted: %w", domain.ErrRateLimited)
		}

		body, status, err := c.doGet(ctx, "/quote?"+params.Encode())
		if err != nil {
			lastErr = fmt.Errorf("jupiter: quote request: %w: %v", domain.ErrSourceUnavailable, err)
			c.logger.WarnContext(ctx, "jupiter: request failed",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}

		switch {
		case status == http.StatusOK:
			var quote QuoteResponse
			if err := json.Unmarshal(body, &quote); err != nil {
				return nil, fmt.Errorf("jupiter: decode quote: %w: %v", domain.ErrBadSourceResponse, err)
			}
			quote.Raw = body
			return &quote, nil

		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("jupiter: upstream throttled: %w", domain.ErrRateLimited)
			c.logger.InfoContext(ctx, "jupiter: throttled by upstream",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", c.maxRetries),
			)

		case status >= 500:
			lastErr = fmt.Errorf("jupiter: HTTP %d: %w", status, domain.ErrSourceUnavailable)
			c.logger.WarnContext(ctx, "jupiter: upstream error",
				slog.Int("status", status),
				slog.Int("attempt", attempt+1),
			)

		default:
			return nil, fmt.Errorf("jupiter: HTTP %d: %w", status, domain.ErrBadSourceResponse)
		}
	}

	return nil, lastErr
}

// Ping issues a lightweight connectivity probe, bypassing the rate limiter
// and retry budget. Used by health checks only.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("inputMint", probeInputMint)
	params.Set("outputMint", probeOutputMint)
	params.Set("amount", strconv.Itoa(probeAmount))

	_, status, err := c.doGet(ctx, "/quote?"+params.Encode())
	if err != nil {
		return fmt.Errorf("jupiter: ping: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("jupiter: ping: HTTP %d", status)
	}
	return nil
}

// doGet sends an unauthenticated GET and returns the body and status code.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// backoff waits 2^attempt seconds plus jitter, scaled by backoffBase,
// honoring context cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(1<<attempt)*c.backoffBase +
		time.Duration(c.jitter()*float64(c.backoffBase))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
