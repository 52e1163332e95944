package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// FillStore persists the append-only fill history that the FIFO engine
// consumes. Fills are idempotent on their exchange-assigned ID.
type FillStore interface {
	InsertBatch(ctx context.Context, fills []Fill) error
	ListByTicker(ctx context.Context, ticker string, opts ListOpts) ([]Fill, error)
	ListAll(ctx context.Context, opts ListOpts) ([]Fill, error)
	GetLastExecutedAt(ctx context.Context) (time.Time, error)
	ListBefore(ctx context.Context, before time.Time) ([]Fill, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PositionStore persists the open positions derived from FIFO open lots.
type PositionStore interface {
	Upsert(ctx context.Context, pos Position) error
	Get(ctx context.Context, ticker string, side Side) (Position, error)
	ListOpen(ctx context.Context) ([]Position, error)
	Delete(ctx context.Context, ticker string, side Side) error
}

// AnalysisStore persists liquidity analysis history for research queries.
type AnalysisStore interface {
	Insert(ctx context.Context, id string, a LiquidityAnalysis) error
	ListRecent(ctx context.Context, ticker string, limit int) ([]LiquidityAnalysis, error)
	ListBefore(ctx context.Context, before time.Time) ([]LiquidityAnalysis, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
