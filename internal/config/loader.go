package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXMON_* environment variable overrides, and
// returns the final Config. An empty path skips the file and runs on
// defaults plus environment. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXMON_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── App ──
	setStr(&cfg.App.Mode, "DEXMON_APP_MODE")
	setStr(&cfg.App.Mode, "DEXMON_MODE") // compatibility alias
	setStr(&cfg.App.LogLevel, "DEXMON_APP_LOG_LEVEL")
	setStr(&cfg.App.LogLevel, "DEXMON_LOG_LEVEL") // compatibility alias

	// ── Server ──
	setInt(&cfg.Server.Port, "DEXMON_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXMON_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.APIRateLimit, "DEXMON_SERVER_API_RATE_LIMIT")
	setDuration(&cfg.Server.APIRateWindow, "DEXMON_SERVER_API_RATE_WINDOW")

	// ── Engine ──
	setDuration(&cfg.Engine.PollInterval, "DEXMON_ENGINE_POLL_INTERVAL")
	setDuration(&cfg.Engine.StalenessCutoff, "DEXMON_ENGINE_STALENESS_CUTOFF")
	setInt(&cfg.Engine.TopN, "DEXMON_ENGINE_TOP_N")
	setFloat64(&cfg.Engine.MinSpreadPct, "DEXMON_ENGINE_MIN_SPREAD_PCT")
	setInt64(&cfg.Engine.QuoteAmount, "DEXMON_ENGINE_QUOTE_AMOUNT")
	setInt(&cfg.Engine.SlippageBps, "DEXMON_ENGINE_SLIPPAGE_BPS")

	// ── Sources ──
	setStr(&cfg.Sources.Jupiter.BaseURL, "DEXMON_SOURCES_JUPITER_BASE_URL")
	setInt(&cfg.Sources.Jupiter.RateLimitPerMin, "DEXMON_SOURCES_JUPITER_RATE_LIMIT_PER_MIN")
	setInt(&cfg.Sources.Jupiter.MaxRetries, "DEXMON_SOURCES_JUPITER_MAX_RETRIES")
	setDuration(&cfg.Sources.Jupiter.Timeout, "DEXMON_SOURCES_JUPITER_TIMEOUT")
	setStr(&cfg.Sources.CoinGecko.BaseURL, "DEXMON_SOURCES_COINGECKO_BASE_URL")
	setInt(&cfg.Sources.CoinGecko.RateLimitPerMin, "DEXMON_SOURCES_COINGECKO_RATE_LIMIT_PER_MIN")
	setInt(&cfg.Sources.CoinGecko.MaxRetries, "DEXMON_SOURCES_COINGECKO_MAX_RETRIES")
	setDuration(&cfg.Sources.CoinGecko.Timeout, "DEXMON_SOURCES_COINGECKO_TIMEOUT")

	// ── Rate limiter ──
	setStr(&cfg.RateLimit.Backend, "DEXMON_RATELIMIT_BACKEND")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DEXMON_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXMON_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXMON_REDIS_DB")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "DEXMON_NOTIFY_ENABLED")
	setStringSlice(&cfg.Notify.Events, "DEXMON_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinNetProfit, "DEXMON_NOTIFY_MIN_NET_PROFIT")
	setStr(&cfg.Notify.TelegramToken, "DEXMON_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramTokenFile, "DEXMON_NOTIFY_TELEGRAM_TOKEN_FILE")
	setStr(&cfg.Notify.TelegramTokenPassword, "DEXMON_NOTIFY_TELEGRAM_TOKEN_PASSWORD")
	setStr(&cfg.Notify.TelegramChatID, "DEXMON_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXMON_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── WebSocket ──
	setBool(&cfg.WS.Enabled, "DEXMON_WS_ENABLED")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
