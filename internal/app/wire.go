package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/avayoung/riskdesk/internal/blob/s3"
	"github.com/avayoung/riskdesk/internal/cache/redis"
	"github.com/avayoung/riskdesk/internal/config"
	"github.com/avayoung/riskdesk/internal/crypto"
	"github.com/avayoung/riskdesk/internal/domain"
	"github.com/avayoung/riskdesk/internal/liquidity"
	"github.com/avayoung/riskdesk/internal/notify"
	"github.com/avayoung/riskdesk/internal/platform/kalshi"
	"github.com/avayoung/riskdesk/internal/risk"
	"github.com/avayoung/riskdesk/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Exchange
	Exchange *kalshi.Client
	WS       *kalshi.WSClient

	// Stores
	FillStore     domain.FillStore
	PositionStore domain.PositionStore
	AnalysisStore domain.AnalysisStore

	// Caches
	BookCache   domain.OrderbookCache
	MarketCache domain.MarketCache

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Composed risk service
	Risk *risk.Service
}

// needsPostgres returns true for modes that require a database connection.
func needsPostgres(mode string) bool {
	switch mode {
	case "pnl", "archive", "full":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that require object storage.
func needsS3(cfg *config.Config) bool {
	return cfg.Mode == "archive" || cfg.Archive.Enabled
}

// needsWS returns true for modes that consume the market data stream.
func needsWS(mode string) bool {
	return mode == "watch" || mode == "full"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Exchange REST client ---
	deps.Exchange = kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKeyID)
	if cfg.Kalshi.RsaPrivateKeyPath != "" {
		pemBytes, err := crypto.LoadKey(crypto.KeyConfig{
			KeyPath:     cfg.Kalshi.RsaPrivateKeyPath,
			KeyPassword: cfg.Kalshi.RsaKeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load rsa key: %w", err)
		}
		if err := deps.Exchange.SetRSAPrivateKey(pemBytes); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: parse rsa key: %w", err)
		}
	}

	// --- WebSocket client (only for streaming modes) ---
	if needsWS(cfg.Mode) {
		deps.WS = kalshi.NewWSClient(cfg.Kalshi.WsURL)
		closers = append(closers, func() { _ = deps.WS.Close() })
	}

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.FillStore = postgres.NewFillStore(pool)
		deps.PositionStore = postgres.NewPositionStore(pool)
		deps.AnalysisStore = postgres.NewAnalysisStore(pool)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.BookCache = redis.NewOrderbookCache(redisClient, cfg.Redis.BookTTL.Duration)
		deps.MarketCache = redis.NewMarketCache(redisClient, cfg.Redis.MarketTTL.Duration)
	}

	// --- S3 blob storage (only when archiving) ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)

		// The archiver needs both blob storage and the Postgres stores.
		if deps.FillStore != nil && deps.AnalysisStore != nil {
			deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.FillStore, deps.AnalysisStore, logger)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Risk service ---
	weights, err := liquidity.NewWeights(
		cfg.Risk.SpreadWeight,
		cfg.Risk.DepthWeight,
		cfg.Risk.VolumeWeight,
		cfg.Risk.OpenInterestWeight,
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	riskCfg := risk.DefaultConfig()
	riskCfg.Weights = weights
	riskCfg.Thresholds.DepthRadiusCents = cfg.Risk.DepthRadiusCents
	riskCfg.Thresholds.SafeSizeSlippageCents = cfg.Risk.MaxSlippageCents
	riskCfg.MaxSlippagePct = cfg.Risk.MaxSlippagePct
	riskCfg.BookFreshness = cfg.Risk.BookFreshness.Duration
	riskCfg.FillSyncLimit = cfg.Risk.FillSyncLimit

	deps.Risk = risk.NewService(
		riskCfg,
		deps.Exchange,
		deps.BookCache,
		deps.MarketCache,
		deps.FillStore,
		deps.PositionStore,
		deps.AnalysisStore,
		deps.Notifier,
		logger,
	)

	return deps, cleanup, nil
}
