package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avayoung/riskdesk/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, ticker, side, quantity, cost_cents, avg_cost_cents,
	mark_price_cents, unrealized_pnl_cents, updated_at`

func scanPosition(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	err := row.Scan(
		&p.ID, &p.Ticker, &p.Side, &p.Quantity, &p.CostCents,
		&p.AvgCostCents, &p.MarkPriceCents, &p.UnrealizedPnLCents, &p.UpdatedAt,
	)
	return p, err
}

// Upsert inserts or replaces the position for (ticker, side).
func (s *PositionStore) Upsert(ctx context.Context, pos domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, ticker, side, quantity, cost_cents, avg_cost_cents,
			mark_price_cents, unrealized_pnl_cents, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, side) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			cost_cents = EXCLUDED.cost_cents,
			avg_cost_cents = EXCLUDED.avg_cost_cents,
			mark_price_cents = EXCLUDED.mark_price_cents,
			unrealized_pnl_cents = EXCLUDED.unrealized_pnl_cents,
			updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		pos.ID, pos.Ticker, pos.Side, pos.Quantity, pos.CostCents,
		pos.AvgCostCents, pos.MarkPriceCents, pos.UnrealizedPnLCents, pos.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert position %s/%s: %w", pos.Ticker, pos.Side, err)
	}
	return nil
}

// Get returns the position for (ticker, side), or domain.ErrNotFound.
func (s *PositionStore) Get(ctx context.Context, ticker string, side domain.Side) (domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE ticker = $1 AND side = $2`
	pos, err := scanPosition(s.pool.QueryRow(ctx, query, ticker, side))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s/%s: %w", ticker, side, err)
	}
	return pos, nil
}

// ListOpen returns all positions with nonzero quantity, ordered by ticker then side.
func (s *PositionStore) ListOpen(ctx context.Context) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE quantity != 0 ORDER BY ticker, side`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(
			&p.ID, &p.Ticker, &p.Side, &p.Quantity, &p.CostCents,
			&p.AvgCostCents, &p.MarkPriceCents, &p.UnrealizedPnLCents, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan open position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Delete removes the position for (ticker, side). Deleting a missing position is a no-op.
func (s *PositionStore) Delete(ctx context.Context, ticker string, side domain.Side) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM positions WHERE ticker = $1 AND side = $2`, ticker, side)
	if err != nil {
		return fmt.Errorf("postgres: delete position %s/%s: %w", ticker, side, err)
	}
	return nil
}
