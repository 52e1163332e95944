// Package config defines the top-level configuration for the risk desk and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by RISKDESK_* environment
// variables.
type Config struct {
	Kalshi   KalshiConfig   `toml:"kalshi"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Risk     RiskConfig     `toml:"risk"`
	Watch    WatchConfig    `toml:"watch"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// KalshiConfig holds exchange API endpoints and credentials.
type KalshiConfig struct {
	ApiKeyID          string `toml:"api_key_id"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	// RsaKeyPassword decrypts rsa_private_key_path when the file is an
	// encrypted key envelope rather than plaintext PEM.
	RsaKeyPassword string `toml:"rsa_key_password"`
	BaseURL        string `toml:"base_url"`
	WsURL          string `toml:"ws_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	BookTTL    duration `toml:"book_ttl"`
	MarketTTL  duration `toml:"market_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RiskConfig holds the scoring weights and execution-check parameters.
type RiskConfig struct {
	SpreadWeight       float64 `toml:"spread_weight"`
	DepthWeight        float64 `toml:"depth_weight"`
	VolumeWeight       float64 `toml:"volume_weight"`
	OpenInterestWeight float64 `toml:"open_interest_weight"`

	DepthRadiusCents int     `toml:"depth_radius_cents"`
	MaxSlippagePct   float64 `toml:"max_slippage_pct"`
	MaxSlippageCents float64 `toml:"max_slippage_cents"`

	BookFreshness duration `toml:"book_freshness"`
	FillSyncLimit int      `toml:"fill_sync_limit"`
}

// WatchConfig holds parameters for the streaming watch mode.
type WatchConfig struct {
	Tickers         []string `toml:"tickers"`
	AnalyzeInterval duration `toml:"analyze_interval"`
}

// ArchiveConfig holds cold-storage offload parameters.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
	// DeleteAfter controls whether archived rows are removed from the
	// primary store once the upload succeeds.
	DeleteAfter bool `toml:"delete_after"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
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
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			WsURL:   "wss://api.elections.kalshi.com/trade-api/ws/v2",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "riskdesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			BookTTL:    duration{5 * time.Minute},
			MarketTTL:  duration{15 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "riskdesk-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Risk: RiskConfig{
			SpreadWeight:       0.30,
			DepthWeight:        0.30,
			VolumeWeight:       0.20,
			OpenInterestWeight: 0.20,
			DepthRadiusCents:   5,
			MaxSlippagePct:     5.0,
			MaxSlippageCents:   2.0,
			BookFreshness:      duration{30 * time.Second},
			FillSyncLimit:      200,
		},
		Watch: WatchConfig{
			AnalyzeInterval: duration{time.Minute},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			DeleteAfter:   false,
		},
		Notify: NotifyConfig{
			Events: []string{"liquidity_warning", "orphan_sells", "sync_error"},
		},
		Mode:     "analyze",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"analyze": true,
	"watch":   true,
	"pnl":     true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: analyze, watch, pnl, archive, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Kalshi endpoints. Credentials are only required for fill syncing,
	// which the pnl and full modes perform.
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Mode == "watch" || c.Mode == "full" {
		if c.Kalshi.WsURL == "" {
			errs = append(errs, "kalshi: ws_url is required for mode "+c.Mode)
		}
	}
	if c.Mode == "pnl" || c.Mode == "full" {
		if c.Kalshi.ApiKeyID == "" || c.Kalshi.RsaPrivateKeyPath == "" {
			errs = append(errs, "kalshi: api_key_id and rsa_private_key_path are required for mode "+c.Mode)
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 — only needed when archiving.
	if c.Archive.Enabled || c.Mode == "archive" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving")
		}
	}

	// Risk weights must be non-negative and sum to 1.
	w := []float64{c.Risk.SpreadWeight, c.Risk.DepthWeight, c.Risk.VolumeWeight, c.Risk.OpenInterestWeight}
	sum := 0.0
	for _, v := range w {
		if v < 0 {
			errs = append(errs, "risk: score weights must be non-negative")
			break
		}
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		errs = append(errs, fmt.Sprintf("risk: score weights must sum to 1.0, got %.3f", sum))
	}
	if c.Risk.DepthRadiusCents < 0 {
		errs = append(errs, "risk: depth_radius_cents must be >= 0")
	}
	if c.Risk.MaxSlippagePct <= 0 {
		errs = append(errs, "risk: max_slippage_pct must be > 0")
	}
	if c.Risk.MaxSlippageCents <= 0 {
		errs = append(errs, "risk: max_slippage_cents must be > 0")
	}
	if c.Risk.FillSyncLimit < 1 {
		errs = append(errs, "risk: fill_sync_limit must be >= 1")
	}

	// Watch
	if c.Mode == "watch" || c.Mode == "full" {
		if len(c.Watch.Tickers) == 0 {
			errs = append(errs, "watch: at least one ticker is required for mode "+c.Mode)
		}
		if c.Watch.AnalyzeInterval.Duration <= 0 {
			errs = append(errs, "watch: analyze_interval must be > 0")
		}
	}

	// Archive
	if c.Archive.Enabled && c.Archive.RetentionDays < 1 {
		errs = append(errs, "archive: retention_days must be >= 1 when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
