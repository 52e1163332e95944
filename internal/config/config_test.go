package config

import (
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	cfg := Defaults()
	cfg.Risk.SpreadWeight = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}
}

func TestValidate_WatchNeedsTickers(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "watch"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for watch mode without tickers")
	}

	cfg.Watch.Tickers = []string{"TEST-MKT"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("watch mode with tickers should validate: %v", err)
	}
}

func TestValidate_ArchiveNeedsS3(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "archive"
	cfg.S3.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for archive mode without a bucket")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RISKDESK_KALSHI_API_KEY_ID", "key-from-env")
	t.Setenv("RISKDESK_RISK_MAX_SLIPPAGE_PCT", "2.5")
	t.Setenv("RISKDESK_REDIS_BOOK_TTL", "90s")
	t.Setenv("RISKDESK_WATCH_TICKERS", "AAA-1, BBB-2 ,")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Kalshi.ApiKeyID != "key-from-env" {
		t.Errorf("ApiKeyID = %q", cfg.Kalshi.ApiKeyID)
	}
	if cfg.Risk.MaxSlippagePct != 2.5 {
		t.Errorf("MaxSlippagePct = %v", cfg.Risk.MaxSlippagePct)
	}
	if cfg.Redis.BookTTL.Duration != 90*time.Second {
		t.Errorf("BookTTL = %v", cfg.Redis.BookTTL.Duration)
	}
	if len(cfg.Watch.Tickers) != 2 || cfg.Watch.Tickers[1] != "BBB-2" {
		t.Errorf("Tickers = %v", cfg.Watch.Tickers)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "secret"

	red := RedactedConfig(&cfg)
	if red.Postgres.Password != "***" || red.S3.SecretKey != "***" {
		t.Error("secrets not redacted")
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original config mutated")
	}
}
