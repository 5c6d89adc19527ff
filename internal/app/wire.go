package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/dexmon/internal/arbitrage"
	"github.com/alanyoungcy/dexmon/internal/cache/redis"
	"github.com/alanyoungcy/dexmon/internal/config"
	"github.com/alanyoungcy/dexmon/internal/crypto"
	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/engine"
	"github.com/alanyoungcy/dexmon/internal/notify"
	"github.com/alanyoungcy/dexmon/internal/platform/coingecko"
	"github.com/alanyoungcy/dexmon/internal/platform/jupiter"
	"github.com/alanyoungcy/dexmon/internal/quote"
	"github.com/alanyoungcy/dexmon/internal/ratelimit"
	"github.com/alanyoungcy/dexmon/internal/server"
	"github.com/alanyoungcy/dexmon/internal/server/handler"
	"github.com/alanyoungcy/dexmon/internal/server/ws"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Quote sources
	Jupiter   *jupiter.Client
	CoinGecko *coingecko.Client

	// Detection
	Engine *engine.Engine

	// Rate limiting (shared by source budgets and the API middleware)
	RateLimiter domain.RateLimiter

	// Fan-out
	Hub      *ws.Hub
	Notifier *notify.Notifier

	// HTTP API
	Server *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Rate limiter backend ---
	switch cfg.RateLimit.Backend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	default:
		deps.RateLimiter = ratelimit.NewWindow()
	}

	// --- Quote sources ---
	deps.Jupiter = jupiter.NewClient(jupiter.Config{
		BaseURL:    cfg.Sources.Jupiter.BaseURL,
		RateLimit:  cfg.Sources.Jupiter.RateLimitPerMin,
		MaxRetries: cfg.Sources.Jupiter.MaxRetries,
		Timeout:    cfg.Sources.Jupiter.Timeout.Duration,
	}, deps.RateLimiter, logger)

	deps.CoinGecko = coingecko.NewClient(coingecko.Config{
		BaseURL:    cfg.Sources.CoinGecko.BaseURL,
		RateLimit:  cfg.Sources.CoinGecko.RateLimitPerMin,
		MaxRetries: cfg.Sources.CoinGecko.MaxRetries,
		Timeout:    cfg.Sources.CoinGecko.Timeout.Duration,
	}, deps.RateLimiter, logger)

	// --- Detection engine ---
	fetcher := quote.NewAggregator(
		deps.Jupiter,
		deps.CoinGecko,
		cfg.Engine.QuoteAmount,
		cfg.Engine.SlippageBps,
		logger,
	)
	detector := arbitrage.NewDetector(arbitrage.Config{
		MinSpreadPct: cfg.Engine.MinSpreadPct,
		TopN:         cfg.Engine.TopN,
	}, logger)
	deps.Engine = engine.New(fetcher, detector, engine.Config{
		PollInterval:    cfg.Engine.PollInterval.Duration,
		StalenessCutoff: cfg.Engine.StalenessCutoff.Duration,
	}, logger)

	// --- WebSocket fan-out ---
	if cfg.WS.Enabled {
		deps.Hub = ws.NewHub(logger)
		deps.Engine.SetBroadcaster(deps.Hub)
	}

	// --- Notifications ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramChatID != "" {
			token, err := crypto.LoadSecret(crypto.SecretConfig{
				Value:    cfg.Notify.TelegramToken,
				File:     cfg.Notify.TelegramTokenFile,
				Password: cfg.Notify.TelegramTokenPassword,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: telegram token: %w", err)
			}
			senders = append(senders, notify.NewTelegramSender(token, cfg.Notify.TelegramChatID))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.MinNetProfit, logger)
		deps.Engine.SetAlerter(deps.Notifier)
	}

	// --- HTTP API ---
	deps.Server = server.NewServer(server.Config{
		Port:          cfg.Server.Port,
		CORSOrigins:   cfg.Server.CORSOrigins,
		APIRateLimit:  cfg.Server.APIRateLimit,
		APIRateWindow: cfg.Server.APIRateWindow.Duration,
	}, server.Handlers{
		Quotes:    handler.NewQuotesHandler(deps.Engine, logger),
		Arbitrage: handler.NewArbitrageHandler(deps.Engine, logger),
		Simulate:  handler.NewSimulateHandler(deps.Engine, logger),
		History:   handler.NewHistoryHandler(deps.Engine, logger),
		Health:    handler.NewHealthHandler(deps.Engine, deps.Jupiter, deps.CoinGecko, logger),
	}, deps.Hub, deps.RateLimiter, logger)

	return deps, cleanup, nil
}
