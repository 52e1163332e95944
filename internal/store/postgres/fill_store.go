package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avayoung/riskdesk/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a new FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

const fillSelectCols = `id, ticker, side, action, quantity, price_cents, fee_cents, executed_at`

func scanFillRows(rows pgx.Rows) ([]domain.Fill, error) {
	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		if err := rows.Scan(
			&f.ID, &f.Ticker, &f.Side, &f.Action,
			&f.Quantity, &f.PriceCents, &f.FeeCents, &f.ExecutedAt,
		); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// InsertBatch inserts multiple fills efficiently using pgx Batch. Fills that
// already exist (same exchange-assigned id) are silently skipped via
// ON CONFLICT DO NOTHING, so re-syncing an overlapping window is safe.
func (s *FillStore) InsertBatch(ctx context.Context, fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO fills (
			id, ticker, side, action,
			quantity, price_cents, fee_cents, executed_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		) ON CONFLICT (id) DO NOTHING`

	for _, f := range fills {
		batch.Queue(query,
			f.ID, f.Ticker, f.Side, f.Action,
			f.Quantity, f.PriceCents, f.FeeCents, f.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range fills {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert fill batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByTicker returns fills for a given market with pagination and optional
// time filtering, ordered oldest first so the FIFO engine can consume them
// directly.
func (s *FillStore) ListByTicker(ctx context.Context, ticker string, opts domain.ListOpts) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE ticker = $1`
	args := []any{ticker}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND executed_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND executed_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY executed_at ASC, id ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills by ticker: %w", err)
	}
	defer rows.Close()

	fills, err := scanFillRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan fills by ticker: %w", err)
	}
	return fills, nil
}

// ListAll returns fills across all markets with pagination and optional time
// filtering, ordered oldest first.
func (s *FillStore) ListAll(ctx context.Context, opts domain.ListOpts) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND executed_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND executed_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY executed_at ASC, id ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list all fills: %w", err)
	}
	defer rows.Close()

	fills, err := scanFillRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan all fills: %w", err)
	}
	return fills, nil
}

// GetLastExecutedAt returns the most recent fill execution time, or the zero
// time if no fills exist. Used as the sync cursor.
func (s *FillStore) GetLastExecutedAt(ctx context.Context) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(executed_at) FROM fills").Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: get last fill executed_at: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}

// ListBefore returns all fills executed strictly before the given time (for archiving).
func (s *FillStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE executed_at < $1 ORDER BY executed_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills before: %w", err)
	}
	defer rows.Close()
	return scanFillRows(rows)
}

// DeleteBefore deletes all fills executed before the given time. Returns the number deleted.
func (s *FillStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fills WHERE executed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete fills before: %w", err)
	}
	return tag.RowsAffected(), nil
}
