// Package config loads vantage's process configuration from the environment,
// following the teacher's .env-then-os.Getenv bootstrap pattern.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"vantage/logger"
)

// Config is the fully-resolved process configuration, built once at startup
// and threaded explicitly into every component that needs it (no ambient
// globals, per spec.md §9).
type Config struct {
	Port string

	// DefaultWatchlist seeds data/watchlist.json on first boot.
	DefaultWatchlist []string

	// DailyCallLimit is the scheduler's daily external-call budget.
	DailyCallLimit int

	// DataDir is the root of the persisted-state layout (spec.md §6).
	DataDir string

	// ProviderAPIKeys holds one opaque key per named external provider.
	// The set of providers is open-ended; adapters look themselves up by name.
	ProviderAPIKeys map[string]string

	// DiscordWebhookURL / TelegramBotToken / TelegramChatID configure the
	// notifier's transports. Empty means that transport is disabled.
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    string

	// ChatBackendURL is the optional LLM backend the chat endpoint
	// forwards to. Empty means chat answers only from local state.
	ChatBackendURL string

	// RetrainAt is the wall-clock ET time the ML calibrator retrains nightly.
	RetrainAt time.Time
}

// Load reads a .env file if present (ignored if absent, matching the
// teacher's godotenv.Load() call) and resolves Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	cfg := &Config{
		Port:              envOr("PORT", "8080"),
		DataDir:           envOr("DATA_DIR", "data"),
		DailyCallLimit:    envOrInt("DAILY_CALL_LIMIT", 15000),
		DefaultWatchlist:  splitCSV(os.Getenv("TICKERS")),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
		ChatBackendURL:    os.Getenv("CHAT_BACKEND_URL"),
		ProviderAPIKeys:   providerKeys(),
		RetrainAt:         parseRetrainAt(envOr("RETRAIN_AT", "17:00")),
	}

	if cfg.Port == "" {
		return nil, errors.New("PORT must not be empty")
	}
	if cfg.DailyCallLimit <= 0 {
		return nil, errors.Errorf("DAILY_CALL_LIMIT must be positive, got %d", cfg.DailyCallLimit)
	}

	logger.Infof("config loaded: port=%s dataDir=%s dailyCallLimit=%d watchlist=%v",
		cfg.Port, cfg.DataDir, cfg.DailyCallLimit, cfg.DefaultWatchlist)
	return cfg, nil
}

var knownProviders = []string{
	"OPTIONS_FLOW", "DARK_POOL", "GEX", "SHORT_INTEREST", "INSIDER",
	"CONGRESS", "NEWS", "ECON_CALENDAR", "FDA_CALENDAR", "QUOTES", "TICK_STREAM",
	"GREEKS", "VOL_STATS",
}

func providerKeys() map[string]string {
	m := make(map[string]string, len(knownProviders))
	for _, p := range knownProviders {
		if v := os.Getenv(p + "_API_KEY"); v != "" {
			m[p] = v
		}
	}
	return m
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("config: %s=%q is not an integer, using default %d", key, v, def)
		return def
	}
	return n
}

// parseRetrainAt parses an "HH:MM" wall-clock string into a time.Time whose
// Hour/Minute the scheduler compares against the current ET time-of-day.
// The date components are not meaningful. Falls back to 17:00 on a
// malformed value.
func parseRetrainAt(s string) time.Time {
	t, err := time.Parse("15:04", s)
	if err != nil {
		logger.Warnf("config: RETRAIN_AT=%q is not HH:MM, using default 17:00", s)
		t, _ = time.Parse("15:04", "17:00")
	}
	return t
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
