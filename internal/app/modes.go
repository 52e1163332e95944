package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avayoung/riskdesk/internal/platform/kalshi"
)

// pnlInterval is how often the full mode recomputes P&L.
const pnlInterval = 15 * time.Minute

// archiveInterval is how often the full mode checks for rows to archive.
const archiveInterval = 24 * time.Hour

// AnalyzeMode runs a one-shot liquidity analysis over the configured tickers
// and exits. When no tickers are configured it analyzes the first page of
// open markets from the exchange.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting analyze mode")

	tickers := a.cfg.Watch.Tickers
	if len(tickers) == 0 {
		markets, err := deps.Exchange.GetMarkets(ctx, "100", "")
		if err != nil {
			return fmt.Errorf("app: analyze: list markets: %w", err)
		}
		for _, m := range markets {
			if m.Status == "open" {
				tickers = append(tickers, m.Ticker)
			}
		}
		a.logger.InfoContext(ctx, "discovered open markets", slog.Int("count", len(tickers)))
	}

	failed := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		analysis, err := deps.Risk.AnalyzeMarket(ctx, ticker)
		if err != nil {
			a.logger.ErrorContext(ctx, "analysis failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			failed++
			continue
		}
		a.logger.InfoContext(ctx, "analysis result",
			slog.String("ticker", ticker),
			slog.Int("score", analysis.Score),
			slog.String("grade", string(analysis.Grade)),
			slog.Int("max_safe_yes", analysis.MaxSafeSizeYes),
			slog.Int("max_safe_no", analysis.MaxSafeSizeNo),
			slog.Any("warnings", analysis.Warnings),
		)
	}

	if failed > 0 {
		return fmt.Errorf("app: analyze: %d of %d markets failed", failed, len(tickers))
	}
	return nil
}

// WatchMode subscribes to the orderbook stream for the configured tickers,
// keeps the cache hot from snapshots, and re-analyzes every ticker on the
// configured interval. Blocks until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.Any("tickers", a.cfg.Watch.Tickers),
		slog.Duration("analyze_interval", a.cfg.Watch.AnalyzeInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runStream(ctx, deps)
	})
	g.Go(func() error {
		return a.runAnalyzeLoop(ctx, deps)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runStream connects the WebSocket feed and routes books into the cache.
// The feed client folds deltas into its tracked books, so every update here
// carries full depth.
func (a *App) runStream(ctx context.Context, deps *Dependencies) error {
	deps.WS.OnOrderbook(func(ob kalshi.Orderbook) {
		deps.Risk.HandleOrderbook(ctx, kalshi.ToDomainOrderbook(ob))
	})

	if err := deps.WS.Connect(ctx); err != nil {
		return fmt.Errorf("app: watch: %w", err)
	}
	if err := deps.WS.Subscribe(ctx, a.cfg.Watch.Tickers); err != nil {
		return fmt.Errorf("app: watch: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}

// runAnalyzeLoop re-scores every watched ticker on the configured interval.
func (a *App) runAnalyzeLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(a.cfg.Watch.AnalyzeInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, t := range a.cfg.Watch.Tickers {
				if _, err := deps.Risk.AnalyzeMarket(ctx, t); err != nil {
					a.logger.ErrorContext(ctx, "periodic analysis failed",
						slog.String("ticker", t),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// PnLMode syncs fills from the exchange, runs the FIFO P&L computation over
// the stored history, logs the per-position breakdown, and exits.
func (a *App) PnLMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting pnl mode")

	n, err := deps.Risk.SyncFills(ctx, "")
	if err != nil {
		return fmt.Errorf("app: pnl: %w", err)
	}
	a.logger.InfoContext(ctx, "fill sync complete", slog.Int("new_fills", n))

	summary, err := deps.Risk.ComputePnL(ctx, "")
	if err != nil {
		return fmt.Errorf("app: pnl: %w", err)
	}

	for _, pos := range summary.Positions {
		attrs := []any{
			slog.String("ticker", pos.Key.Ticker),
			slog.String("side", string(pos.Key.Side)),
			slog.Int("quantity", pos.Quantity),
			slog.Int64("avg_cost_cents", pos.AvgCostCents),
		}
		if pos.Marked {
			attrs = append(attrs,
				slog.Float64("mark_cents", pos.MarkPriceCents),
				slog.Int64("unrealized_cents", pos.UnrealizedPnLCents),
			)
		} else {
			attrs = append(attrs, slog.Bool("marked", false))
		}
		a.logger.InfoContext(ctx, "open position", attrs...)
	}

	a.logger.InfoContext(ctx, "pnl summary",
		slog.Int64("realized_cents", summary.RealizedPnLCents),
		slog.Int64("unrealized_cents", summary.UnrealizedPnLCents),
		slog.Int("closed_trades", summary.ClosedTradeCount),
		slog.Int("open_positions", summary.OpenPositionCount),
		slog.Int("orphan_quantity", summary.OrphanQuantity),
	)
	return nil
}

// ArchiveMode offloads rows older than the retention window to blob storage
// and exits. Archived rows are only deleted from the primary store when
// archive.delete_after is set.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
		slog.Bool("delete_after", a.cfg.Archive.DeleteAfter),
	)
	return a.runArchive(ctx, deps)
}

func (a *App) runArchive(ctx context.Context, deps *Dependencies) error {
	if deps.Archiver == nil {
		return fmt.Errorf("app: archive: archiver not wired (requires postgres and s3)")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)

	fills, err := deps.Archiver.ArchiveFills(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: archive fills: %w", err)
	}
	analyses, err := deps.Archiver.ArchiveAnalyses(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: archive analyses: %w", err)
	}

	if a.cfg.Archive.DeleteAfter {
		if fills > 0 {
			deleted, err := deps.FillStore.DeleteBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("app: archive delete fills: %w", err)
			}
			a.logger.InfoContext(ctx, "archived fills deleted", slog.Int64("rows", deleted))
		}
		if analyses > 0 {
			deleted, err := deps.AnalysisStore.DeleteBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("app: archive delete analyses: %w", err)
			}
			a.logger.InfoContext(ctx, "archived analyses deleted", slog.Int64("rows", deleted))
		}
	}

	a.logger.InfoContext(ctx, "archive complete",
		slog.Int64("fills", fills),
		slog.Int64("analyses", analyses),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// FullMode runs everything: the orderbook stream, the periodic analysis
// loop, periodic fill sync + P&L recomputation, and (when enabled) a daily
// archive pass. Blocks until the context is cancelled.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runStream(ctx, deps)
	})
	g.Go(func() error {
		return a.runAnalyzeLoop(ctx, deps)
	})
	g.Go(func() error {
		return a.runPnLLoop(ctx, deps)
	})
	if a.cfg.Archive.Enabled {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runPnLLoop syncs fills and recomputes P&L on a fixed interval.
func (a *App) runPnLLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(pnlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := deps.Risk.SyncFills(ctx, ""); err != nil {
				a.logger.ErrorContext(ctx, "periodic fill sync failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			summary, err := deps.Risk.ComputePnL(ctx, "")
			if err != nil {
				a.logger.ErrorContext(ctx, "periodic pnl failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.InfoContext(ctx, "pnl refreshed",
				slog.Int64("realized_cents", summary.RealizedPnLCents),
				slog.Int64("unrealized_cents", summary.UnrealizedPnLCents),
				slog.Int("open_positions", summary.OpenPositionCount),
			)
		}
	}
}

// runArchiveLoop runs an archive pass once per day.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.runArchive(ctx, deps); err != nil {
				a.logger.ErrorContext(ctx, "archive pass failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
