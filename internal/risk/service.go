// Package risk composes the liquidity and P&L engines with the exchange
// client, stores, caches, and notifier into the operations the app modes run.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avayoung/riskdesk/internal/domain"
	"github.com/avayoung/riskdesk/internal/liquidity"
	"github.com/avayoung/riskdesk/internal/notify"
	"github.com/avayoung/riskdesk/internal/platform/kalshi"
	"github.com/avayoung/riskdesk/internal/pnl"
)

// Exchange is the read-only view of the exchange REST API the service needs.
// *kalshi.Client satisfies it; tests substitute a fake.
type Exchange interface {
	GetMarket(ctx context.Context, ticker string) (kalshi.Market, error)
	GetOrderbook(ctx context.Context, ticker string) (kalshi.Orderbook, error)
	GetFills(ctx context.Context, ticker string, minTS int64, limit int, cursor string) ([]kalshi.Fill, string, error)
}

// Notifier is the slice of the notify package the service uses.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the tunables for the risk service.
type Config struct {
	Weights        liquidity.Weights
	Thresholds     liquidity.Thresholds
	MaxSlippagePct float64

	// BookFreshness bounds how stale a cached orderbook may be before the
	// service re-fetches it from the exchange.
	BookFreshness time.Duration

	// FillSyncLimit is the page size for fill syncing.
	FillSyncLimit int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Weights:        liquidity.DefaultWeights(),
		Thresholds:     liquidity.DefaultThresholds(),
		MaxSlippagePct: 5.0,
		BookFreshness:  30 * time.Second,
		FillSyncLimit:  200,
	}
}

// Service implements the risk desk operations: market liquidity analysis,
// pre-trade execution checks, fill syncing, and FIFO P&L computation.
type Service struct {
	cfg Config

	exchange  Exchange
	books     domain.OrderbookCache
	markets   domain.MarketCache
	fills     domain.FillStore
	positions domain.PositionStore
	analyses  domain.AnalysisStore
	notifier  Notifier
	logger    *slog.Logger
}

// NewService creates a Service. The cache, store, and notifier dependencies
// may be nil; the corresponding behavior (caching, persistence, alerting) is
// skipped when they are.
func NewService(
	cfg Config,
	exchange Exchange,
	books domain.OrderbookCache,
	markets domain.MarketCache,
	fills domain.FillStore,
	positions domain.PositionStore,
	analyses domain.AnalysisStore,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		exchange:  exchange,
		books:     books,
		markets:   markets,
		fills:     fills,
		positions: positions,
		analyses:  analyses,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "risk")),
	}
}

// AnalyzeMarket fetches the market and its orderbook (cache-first), scores
// liquidity, persists the analysis, and raises an alert when the analysis
// carries warnings.
func (s *Service) AnalyzeMarket(ctx context.Context, ticker string) (domain.LiquidityAnalysis, error) {
	market, err := s.getMarket(ctx, ticker)
	if err != nil {
		return domain.LiquidityAnalysis{}, fmt.Errorf("risk: analyze %s: %w", ticker, err)
	}

	book, err := s.getOrderbook(ctx, ticker)
	if err != nil {
		return domain.LiquidityAnalysis{}, fmt.Errorf("risk: analyze %s: %w", ticker, err)
	}

	analysis, err := liquidity.Score(market.View(), book, s.cfg.Weights, s.cfg.Thresholds)
	if err != nil {
		return domain.LiquidityAnalysis{}, fmt.Errorf("risk: analyze %s: %w", ticker, err)
	}

	if s.analyses != nil {
		if err := s.analyses.Insert(ctx, uuid.NewString(), analysis); err != nil {
			s.logger.WarnContext(ctx, "persist analysis failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "market analyzed",
		slog.String("ticker", ticker),
		slog.Int("score", analysis.Score),
		slog.String("grade", string(analysis.Grade)),
		slog.Int("warnings", len(analysis.Warnings)),
	)

	if s.notifier != nil {
		if len(analysis.Warnings) > 0 {
			title, msg := notify.FormatLiquidityWarning(analysis)
			if err := s.notifier.Notify(ctx, notify.EventLiquidityWarning, title, msg); err != nil {
				s.logger.WarnContext(ctx, "liquidity warning notify failed",
					slog.String("error", err.Error()),
				)
			}
		} else {
			msg := fmt.Sprintf("%s scored %d (%s)", ticker, analysis.Score, analysis.Grade)
			_ = s.notifier.Notify(ctx, notify.EventAnalysisComplete, "Analysis complete", msg)
		}
	}

	return analysis, nil
}

// CheckOrder runs the pre-trade execution check for a prospective order: it
// walks the book for the requested size and verifies the projected slippage
// against the configured ceiling. A domain.ErrSlippageExceeded or
// domain.ErrInsufficientLiquidity error still carries the estimate so
// callers can show the numbers behind the rejection.
func (s *Service) CheckOrder(ctx context.Context, ticker string, side domain.Side, action domain.Action, quantity int) (domain.SlippageEstimate, error) {
	book, err := s.getOrderbook(ctx, ticker)
	if err != nil {
		return domain.SlippageEstimate{}, fmt.Errorf("risk: check order %s: %w", ticker, err)
	}

	est, err := liquidity.CheckExecution(book, side, action, quantity, s.cfg.MaxSlippagePct)
	if err != nil {
		s.logger.InfoContext(ctx, "order check rejected",
			slog.String("ticker", ticker),
			slog.String("side", string(side)),
			slog.String("action", string(action)),
			slog.Int("quantity", quantity),
			slog.String("reason", err.Error()),
		)
		return est, err
	}

	return est, nil
}

// SyncFills pulls fills from the exchange newer than the latest stored fill
// and inserts them. Re-syncing an overlapping window is safe because inserts
// are idempotent on fill ID. Returns the number of fills fetched.
func (s *Service) SyncFills(ctx context.Context, ticker string) (int, error) {
	if s.fills == nil {
		return 0, fmt.Errorf("risk: sync fills: no fill store configured")
	}

	last, err := s.fills.GetLastExecutedAt(ctx)
	if err != nil {
		return 0, fmt.Errorf("risk: sync fills: %w", err)
	}

	var minTS int64
	if !last.IsZero() {
		minTS = last.UnixMilli()
	}

	// Pages arrive newest first; the API cursor walks backwards through
	// older fills until the min_ts bound is reached. The overlap at the
	// boundary millisecond is absorbed by idempotent inserts.
	total := 0
	cursor := ""
	for {
		raw, next, err := s.exchange.GetFills(ctx, ticker, minTS, s.cfg.FillSyncLimit, cursor)
		if err != nil {
			if s.notifier != nil {
				_ = s.notifier.Notify(ctx, notify.EventSyncError, "Fill sync failed", err.Error())
			}
			return total, fmt.Errorf("risk: sync fills: %w", err)
		}

		if len(raw) > 0 {
			fills := make([]domain.Fill, 0, len(raw))
			for _, f := range raw {
				fills = append(fills, kalshi.ToDomainFill(f))
			}
			if err := s.fills.InsertBatch(ctx, fills); err != nil {
				return total, fmt.Errorf("risk: sync fills: %w", err)
			}
			total += len(fills)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	s.logger.InfoContext(ctx, "fills synced",
		slog.String("ticker", ticker),
		slog.Int("count", total),
	)
	return total, nil
}

// ComputePnL loads the stored fill history (for one ticker, or all when
// ticker is empty), runs the FIFO match, marks open positions at current
// midpoints, persists the resulting positions, and returns the summary.
func (s *Service) ComputePnL(ctx context.Context, ticker string) (domain.PnLSummary, error) {
	if s.fills == nil {
		return domain.PnLSummary{}, fmt.Errorf("risk: compute pnl: no fill store configured")
	}

	var (
		fills []domain.Fill
		err   error
	)
	if ticker == "" {
		fills, err = s.fills.ListAll(ctx, domain.ListOpts{})
	} else {
		fills, err = s.fills.ListByTicker(ctx, ticker, domain.ListOpts{})
	}
	if err != nil {
		return domain.PnLSummary{}, fmt.Errorf("risk: compute pnl: %w", err)
	}

	result, err := pnl.MatchFIFO(fills)
	if err != nil {
		return domain.PnLSummary{}, fmt.Errorf("risk: compute pnl: %w", err)
	}

	if result.OrphanSellQuantitySkipped > 0 {
		s.logger.WarnContext(ctx, "orphan sells skipped",
			slog.Int("quantity", result.OrphanSellQuantitySkipped),
		)
		if s.notifier != nil {
			title, msg := notify.FormatOrphanSells(result.OrphanSellQuantitySkipped)
			_ = s.notifier.Notify(ctx, notify.EventOrphanSells, title, msg)
		}
	}

	marks := s.collectMarks(ctx, result)
	summary := pnl.Summarize(result, marks)

	if s.positions != nil {
		if err := s.persistPositions(ctx, summary); err != nil {
			s.logger.WarnContext(ctx, "persist positions failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "pnl computed",
		slog.Int64("realized_cents", summary.RealizedPnLCents),
		slog.Int64("unrealized_cents", summary.UnrealizedPnLCents),
		slog.Int("open_positions", summary.OpenPositionCount),
		slog.Int("orphan_quantity", summary.OrphanQuantity),
	)
	return summary, nil
}

// HandleOrderbook refreshes the cached snapshot for a market. The watch mode
// wires this as the WebSocket orderbook handler.
func (s *Service) HandleOrderbook(ctx context.Context, snap domain.OrderbookSnapshot) {
	if s.books == nil {
		return
	}
	if err := s.books.SetSnapshot(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "cache orderbook failed",
			slog.String("ticker", snap.Ticker),
			slog.String("error", err.Error()),
		)
	}
}

// collectMarks fetches the current YES midpoint for every ticker with an
// open lot. Tickers whose books are unavailable or one-sided are simply
// absent from the map; their positions surface as unmarked.
func (s *Service) collectMarks(ctx context.Context, result domain.FifoResult) map[string]float64 {
	marks := make(map[string]float64)
	for key := range result.OpenLots {
		if _, done := marks[key.Ticker]; done {
			continue
		}
		book, err := s.getOrderbook(ctx, key.Ticker)
		if err != nil {
			s.logger.WarnContext(ctx, "mark price unavailable",
				slog.String("ticker", key.Ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		if mid, ok := book.Midpoint(); ok {
			marks[key.Ticker] = mid
		}
	}
	return marks
}

// persistPositions upserts every open position from the summary and deletes
// stored positions that are no longer open.
func (s *Service) persistPositions(ctx context.Context, summary domain.PnLSummary) error {
	now := time.Now().UTC()

	open := make(map[domain.PositionKey]bool, len(summary.Positions))
	for _, p := range summary.Positions {
		open[p.Key] = true
		pos := domain.Position{
			ID:                 uuid.NewString(),
			Ticker:             p.Key.Ticker,
			Side:               p.Key.Side,
			Quantity:           p.Quantity,
			CostCents:          p.CostCents,
			AvgCostCents:       p.AvgCostCents,
			MarkPriceCents:     p.MarkPriceCents,
			UnrealizedPnLCents: p.UnrealizedPnLCents,
			UpdatedAt:          now,
		}
		if err := s.positions.Upsert(ctx, pos); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", pos.Ticker, pos.Side, err)
		}
	}

	stored, err := s.positions.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open: %w", err)
	}
	for _, pos := range stored {
		key := domain.PositionKey{Ticker: pos.Ticker, Side: pos.Side}
		if open[key] {
			continue
		}
		if err := s.positions.Delete(ctx, pos.Ticker, pos.Side); err != nil {
			return fmt.Errorf("delete %s/%s: %w", pos.Ticker, pos.Side, err)
		}
	}
	return nil
}

// getMarket returns market metadata, preferring the cache.
func (s *Service) getMarket(ctx context.Context, ticker string) (domain.Market, error) {
	if s.markets != nil {
		market, err := s.markets.Get(ctx, ticker)
		if err == nil {
			return market, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "market cache read failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}

	raw, err := s.exchange.GetMarket(ctx, ticker)
	if err != nil {
		return domain.Market{}, err
	}
	market := kalshi.ToDomainMarket(raw)

	if s.markets != nil {
		if err := s.markets.Set(ctx, market); err != nil {
			s.logger.WarnContext(ctx, "market cache write failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}
	return market, nil
}

// getOrderbook returns the orderbook snapshot, preferring a cached copy no
// older than the configured freshness window.
func (s *Service) getOrderbook(ctx context.Context, ticker string) (domain.OrderbookSnapshot, error) {
	if s.books != nil {
		snap, err := s.books.GetSnapshot(ctx, ticker)
		if err == nil && s.fresh(snap.Timestamp) {
			return snap, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "orderbook cache read failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}

	raw, err := s.exchange.GetOrderbook(ctx, ticker)
	if err != nil {
		return domain.OrderbookSnapshot{}, err
	}
	snap := kalshi.ToDomainOrderbook(raw)

	if s.books != nil {
		if err := s.books.SetSnapshot(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "orderbook cache write failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}
	return snap, nil
}

func (s *Service) fresh(ts time.Time) bool {
	if s.cfg.BookFreshness <= 0 {
		return true
	}
	return time.Since(ts) <= s.cfg.BookFreshness
}
