// Package coingecko is the REST client for the backup price source.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

const (
	sourceKey  = "coingecko"
	rateWindow = time.Minute

	probeCoinID  = "solana"
	probeTimeout = 5 * time.Second
)

// Price is one coin's USD price entry.
type Price struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// Config holds the client settings.
type Config struct {
	BaseURL    string
	RateLimit  int // calls per minute
	MaxRetries int
	Timeout    time.Duration
}

// Client fetches simple USD prices with rate limiting and bounded retry,
// mirroring the primary client's failure discipline: budget denial fails
// fast, throttle and transient failures back off and retry, anything else
// fails fast.
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

// NewClient creates a price client. Zero config fields fall back to the
// public API defaults.
func NewClient(cfg Config, limiter domain.RateLimiter, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 15
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

// Prices returns the USD price for each requested coin id. Ids absent from
// the response are simply missing from the map.
func (c *Client) Prices(ctx context.Context, ids []string) (map[string]Price, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, fmt.Errorf("coingecko: prices: %w", err)
			}
		}

		allowed, err := c.limiter.Allow(ctx, sourceKey, c.rateLimit, rateWindow)
		if err != nil {
			c.logger.WarnContext(ctx, "coingecko: rate limiter check failed",
				slog.String("error", err.Error()),
			)
		} else if !allowed {
			return nil, fmt.Errorf("coingecko: call budget exhausted: %w", domain.ErrRateLimited)
		}

		body, status, err := c.doGet(ctx, "/simple/price?"+params.Encode())
		if err != nil {
			lastErr = fmt.Errorf("coingecko: price request: %w: %v", domain.ErrSourceUnavailable, err)
			c.logger.WarnContext(ctx, "coingecko: request failed",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}

		switch {
		case status == http.StatusOK:
			var prices map[string]Price
			if err := json.Unmarshal(body, &prices); err != nil {
				return nil, fmt.Errorf("coingecko: decode prices: %w: %v", domain.ErrBadSourceResponse, err)
			}
			return prices, nil

		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("coingecko: upstream throttled: %w", domain.ErrRateLimited)
			c.logger.InfoContext(ctx, "coingecko: throttled by upstream",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", c.maxRetries),
			)

		case status >= 500:
			lastErr = fmt.Errorf("coingecko: HTTP %d: %w", status, domain.ErrSourceUnavailable)
			c.logger.WarnContext(ctx, "coingecko: upstream error",
				slog.Int("status", status),
				slog.Int("attempt", attempt+1),
			)

		default:
			return nil, fmt.Errorf("coingecko: HTTP %d: %w", status, domain.ErrBadSourceResponse)
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
	params.Set("ids", probeCoinID)
	params.Set("vs_currencies", "usd")

	_, status, err := c.doGet(ctx, "/simple/price?"+params.Encode())
	if err != nil {
		return fmt.Errorf("coingecko: ping: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("coingecko: ping: HTTP %d", status)
	}
	return nil
}

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
