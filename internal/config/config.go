// Package config defines the top-level configuration for the monitor and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXMON_* environment variables.
type Config struct {
	App       AppConfig       `toml:"app"`
	Server    ServerConfig    `toml:"server"`
	Engine    EngineConfig    `toml:"engine"`
	Sources   SourcesConfig   `toml:"sources"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Redis     RedisConfig     `toml:"redis"`
	Notify    NotifyConfig    `toml:"notify"`
	WS        WSConfig        `toml:"ws"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	// Mode selects the run mode: "monitor" (poll + serve) or "once" (a
	// single detection cycle printed to stdout).
	Mode     string `toml:"mode"`
	LogLevel string `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIRateLimit is the per-client request budget per APIRateWindow.
	// Zero disables API rate limiting.
	APIRateLimit  int      `toml:"api_rate_limit"`
	APIRateWindow duration `toml:"api_rate_window"`
}

// EngineConfig holds the polling and detection parameters.
type EngineConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	StalenessCutoff duration `toml:"staleness_cutoff"`
	TopN            int      `toml:"top_n"`
	MinSpreadPct    float64  `toml:"min_spread_pct"`
	// QuoteAmount is the notional input amount quoted each cycle, in the
	// base token's smallest units.
	QuoteAmount int64 `toml:"quote_amount"`
	SlippageBps int   `toml:"slippage_bps"`
}

// SourcesConfig groups the upstream quote/price sources.
type SourcesConfig struct {
	Jupiter   SourceConfig `toml:"jupiter"`
	CoinGecko SourceConfig `toml:"coingecko"`
}

// SourceConfig holds one upstream source's client settings.
type SourceConfig struct {
	BaseURL         string   `toml:"base_url"`
	RateLimitPerMin int      `toml:"rate_limit_per_min"`
	MaxRetries      int      `toml:"max_retries"`
	Timeout         duration `toml:"timeout"`
}

// RateLimitConfig selects the rate-limiter backend.
type RateLimitConfig struct {
	// Backend is "memory" (single instance) or "redis" (shared budget
	// across replicas).
	Backend string `toml:"backend"`
}

// RedisConfig holds Redis connection parameters, used only when the
// ratelimit backend is "redis".
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// NotifyConfig holds notification channel settings and credentials.
type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
	// Events lists the allowed event kinds; empty allows all.
	Events []string `toml:"events"`
	// MinNetProfit is the floor (in percent) below which opportunity
	// alerts are dropped.
	MinNetProfit float64 `toml:"min_net_profit"`

	TelegramToken string `toml:"telegram_token"`
	// TelegramTokenFile points at an encrypted token file produced by
	// crypto.EncryptSecret; TelegramTokenPassword decrypts it.
	TelegramTokenFile     string `toml:"telegram_token_file"`
	TelegramTokenPassword string `toml:"telegram_token_password"`
	TelegramChatID        string `toml:"telegram_chat_id"`

	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// WSConfig holds WebSocket streaming parameters.
type WSConfig struct {
	Enabled bool `toml:"enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Mode:     "monitor",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Port:          8080,
			CORSOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			APIRateLimit:  120,
			APIRateWindow: duration{time.Minute},
		},
		Engine: EngineConfig{
			PollInterval:    duration{10 * time.Second},
			StalenessCutoff: duration{5 * time.Second},
			TopN:            10,
			MinSpreadPct:    0.1,
			QuoteAmount:     1_000_000,
			SlippageBps:     50,
		},
		Sources: SourcesConfig{
			Jupiter: SourceConfig{
				BaseURL:         "https://quote-api.jup.ag/v6",
				RateLimitPerMin: 10,
				MaxRetries:      2,
				Timeout:         duration{10 * time.Second},
			},
			CoinGecko: SourceConfig{
				BaseURL:         "https://api.coingecko.com/api/v3",
				RateLimitPerMin: 15,
				MaxRetries:      2,
				Timeout:         duration{10 * time.Second},
			},
		},
		RateLimit: RateLimitConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Notify: NotifyConfig{
			Enabled:      false,
			Events:       []string{"opportunity_found", "source_down"},
			MinNetProfit: 0.5,
		},
		WS: WSConfig{
			Enabled: true,
		},
	}
}

// validModes enumerates the accepted values for AppConfig.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"once":    true,
}

// validLogLevels enumerates the accepted values for AppConfig.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validRateLimitBackends enumerates the accepted values for
// RateLimitConfig.Backend.
var validRateLimitBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// validNotifyEvents enumerates the event kinds the notifier understands.
var validNotifyEvents = map[string]bool{
	"opportunity_found": true,
	"source_down":       true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// App
	if !validModes[strings.ToLower(c.App.Mode)] {
		errs = append(errs, fmt.Sprintf("app: unknown mode %q (valid: monitor, once)", c.App.Mode))
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app: unknown log_level %q (valid: debug, info, warn, error)", c.App.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.APIRateLimit < 0 {
		errs = append(errs, "server: api_rate_limit must be >= 0")
	}
	if c.Server.APIRateLimit > 0 && c.Server.APIRateWindow.Duration <= 0 {
		errs = append(errs, "server: api_rate_window must be positive when api_rate_limit is set")
	}

	// Engine
	if c.Engine.PollInterval.Duration <= 0 {
		errs = append(errs, "engine: poll_interval must be positive")
	}
	if c.Engine.StalenessCutoff.Duration <= 0 {
		errs = append(errs, "engine: staleness_cutoff must be positive")
	}
	if c.Engine.TopN < 1 {
		errs = append(errs, "engine: top_n must be >= 1")
	}
	if c.Engine.MinSpreadPct < 0 {
		errs = append(errs, "engine: min_spread_pct must be >= 0")
	}
	if c.Engine.QuoteAmount <= 0 {
		errs = append(errs, "engine: quote_amount must be > 0")
	}
	if c.Engine.SlippageBps < 0 {
		errs = append(errs, "engine: slippage_bps must be >= 0")
	}

	// Sources
	errs = append(errs, validateSource("sources.jupiter", c.Sources.Jupiter)...)
	errs = append(errs, validateSource("sources.coingecko", c.Sources.CoinGecko)...)

	// Rate limiter backend
	if !validRateLimitBackends[strings.ToLower(c.RateLimit.Backend)] {
		errs = append(errs, fmt.Sprintf("ratelimit: unknown backend %q (valid: memory, redis)", c.RateLimit.Backend))
	}
	if strings.ToLower(c.RateLimit.Backend) == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when ratelimit backend is redis")
	}

	// Notify
	if c.Notify.Enabled {
		telegram := c.Notify.TelegramToken != "" || c.Notify.TelegramTokenFile != ""
		discord := c.Notify.DiscordWebhookURL != ""
		if !telegram && !discord {
			errs = append(errs, "notify: at least one channel must be configured when enabled (telegram or discord)")
		}
		if telegram && c.Notify.TelegramChatID == "" {
			errs = append(errs, "notify: telegram_chat_id is required when a telegram token is configured")
		}
		if c.Notify.TelegramTokenFile != "" && c.Notify.TelegramTokenPassword == "" {
			errs = append(errs, "notify: telegram_token_password is required when telegram_token_file is set")
		}
		if c.Notify.MinNetProfit < 0 {
			errs = append(errs, "notify: min_net_profit must be >= 0")
		}
		for _, e := range c.Notify.Events {
			if !validNotifyEvents[strings.TrimSpace(e)] {
				errs = append(errs, fmt.Sprintf("notify: unknown event %q (valid: opportunity_found, source_down)", e))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateSource checks one upstream source's settings, prefixing every
// problem with the section name.
func validateSource(section string, s SourceConfig) []string {
	var errs []string
	if s.BaseURL == "" {
		errs = append(errs, section+": base_url must not be empty")
	}
	if s.RateLimitPerMin < 1 {
		errs = append(errs, section+": rate_limit_per_min must be >= 1")
	}
	if s.MaxRetries < 0 {
		errs = append(errs, section+": max_retries must be >= 0")
	}
	if s.Timeout.Duration <= 0 {
		errs = append(errs, section+": timeout must be positive")
	}
	return errs
}
