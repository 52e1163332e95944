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
// built-in defaults, applies RISKDESK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RISKDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Kalshi ──
	setStr(&cfg.Kalshi.ApiKeyID, "RISKDESK_KALSHI_API_KEY_ID")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "RISKDESK_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.RsaKeyPassword, "RISKDESK_KALSHI_RSA_KEY_PASSWORD")
	setStr(&cfg.Kalshi.BaseURL, "RISKDESK_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.WsURL, "RISKDESK_KALSHI_WS_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "RISKDESK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "RISKDESK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RISKDESK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RISKDESK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RISKDESK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RISKDESK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RISKDESK_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "RISKDESK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "RISKDESK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "RISKDESK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "RISKDESK_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "RISKDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RISKDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RISKDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RISKDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "RISKDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "RISKDESK_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.BookTTL, "RISKDESK_REDIS_BOOK_TTL")
	setDuration(&cfg.Redis.MarketTTL, "RISKDESK_REDIS_MARKET_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "RISKDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "RISKDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "RISKDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "RISKDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "RISKDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "RISKDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "RISKDESK_S3_FORCE_PATH_STYLE")

	// ── Risk ──
	setFloat64(&cfg.Risk.SpreadWeight, "RISKDESK_RISK_SPREAD_WEIGHT")
	setFloat64(&cfg.Risk.DepthWeight, "RISKDESK_RISK_DEPTH_WEIGHT")
	setFloat64(&cfg.Risk.VolumeWeight, "RISKDESK_RISK_VOLUME_WEIGHT")
	setFloat64(&cfg.Risk.OpenInterestWeight, "RISKDESK_RISK_OPEN_INTEREST_WEIGHT")
	setInt(&cfg.Risk.DepthRadiusCents, "RISKDESK_RISK_DEPTH_RADIUS_CENTS")
	setFloat64(&cfg.Risk.MaxSlippagePct, "RISKDESK_RISK_MAX_SLIPPAGE_PCT")
	setFloat64(&cfg.Risk.MaxSlippageCents, "RISKDESK_RISK_MAX_SLIPPAGE_CENTS")
	setDuration(&cfg.Risk.BookFreshness, "RISKDESK_RISK_BOOK_FRESHNESS")
	setInt(&cfg.Risk.FillSyncLimit, "RISKDESK_RISK_FILL_SYNC_LIMIT")

	// ── Watch ──
	setStringSlice(&cfg.Watch.Tickers, "RISKDESK_WATCH_TICKERS")
	setDuration(&cfg.Watch.AnalyzeInterval, "RISKDESK_WATCH_ANALYZE_INTERVAL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "RISKDESK_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "RISKDESK_ARCHIVE_RETENTION_DAYS")
	setBool(&cfg.Archive.DeleteAfter, "RISKDESK_ARCHIVE_DELETE_AFTER")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "RISKDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "RISKDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "RISKDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "RISKDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "RISKDESK_MODE")
	setStr(&cfg.LogLevel, "RISKDESK_LOG_LEVEL")
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
