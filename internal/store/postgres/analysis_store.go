package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avayoung/riskdesk/internal/domain"
)

// AnalysisStore implements domain.AnalysisStore using PostgreSQL. Component
// scores and warnings are stored as JSONB since they are read back whole.
type AnalysisStore struct {
	pool *pgxpool.Pool
}

// NewAnalysisStore creates a new AnalysisStore backed by the given connection pool.
func NewAnalysisStore(pool *pgxpool.Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

const analysisSelectCols = `ticker, score, grade, components,
	total_contracts, weighted_score, yes_side_depth, no_side_depth, imbalance_ratio,
	max_safe_size_yes, max_safe_size_no, warnings, analyzed_at`

// Insert persists a single liquidity analysis under the given id.
func (s *AnalysisStore) Insert(ctx context.Context, id string, a domain.LiquidityAnalysis) error {
	components, err := json.Marshal(a.Components)
	if err != nil {
		return fmt.Errorf("postgres: marshal analysis components: %w", err)
	}
	warnings, err := json.Marshal(a.Warnings)
	if err != nil {
		return fmt.Errorf("postgres: marshal analysis warnings: %w", err)
	}

	const query = `
		INSERT INTO liquidity_analyses (
			id, ticker, score, grade, components,
			total_contracts, weighted_score, yes_side_depth, no_side_depth, imbalance_ratio,
			max_safe_size_yes, max_safe_size_no, warnings, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = s.pool.Exec(ctx, query,
		id, a.Ticker, a.Score, a.Grade, components,
		a.Depth.TotalContracts, a.Depth.WeightedScore, a.Depth.YesSideDepth,
		a.Depth.NoSideDepth, a.Depth.ImbalanceRatio,
		a.MaxSafeSizeYes, a.MaxSafeSizeNo, warnings, a.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert analysis for %s: %w", a.Ticker, err)
	}
	return nil
}

func scanAnalysisRows(rows pgx.Rows) ([]domain.LiquidityAnalysis, error) {
	var analyses []domain.LiquidityAnalysis
	for rows.Next() {
		var (
			a          domain.LiquidityAnalysis
			components []byte
			warnings   []byte
		)
		if err := rows.Scan(
			&a.Ticker, &a.Score, &a.Grade, &components,
			&a.Depth.TotalContracts, &a.Depth.WeightedScore, &a.Depth.YesSideDepth,
			&a.Depth.NoSideDepth, &a.Depth.ImbalanceRatio,
			&a.MaxSafeSizeYes, &a.MaxSafeSizeNo, &warnings, &a.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(components, &a.Components); err != nil {
			return nil, fmt.Errorf("unmarshal components: %w", err)
		}
		if err := json.Unmarshal(warnings, &a.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// ListRecent returns the most recent analyses for a ticker, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, ticker string, limit int) ([]domain.LiquidityAnalysis, error) {
	query := `SELECT ` + analysisSelectCols + `
		FROM liquidity_analyses WHERE ticker = $1 ORDER BY analyzed_at DESC`
	args := []any{ticker}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent analyses: %w", err)
	}
	defer rows.Close()

	analyses, err := scanAnalysisRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent analyses: %w", err)
	}
	return analyses, nil
}

// ListBefore returns all analyses recorded strictly before the given time (for archiving).
func (s *AnalysisStore) ListBefore(ctx context.Context, before time.Time) ([]domain.LiquidityAnalysis, error) {
	query := `SELECT ` + analysisSelectCols + `
		FROM liquidity_analyses WHERE analyzed_at < $1 ORDER BY analyzed_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyses before: %w", err)
	}
	defer rows.Close()
	return scanAnalysisRows(rows)
}

// DeleteBefore deletes all analyses recorded before the given time. Returns the number deleted.
func (s *AnalysisStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM liquidity_analyses WHERE analyzed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete analyses before: %w", err)
	}
	return tag.RowsAffected(), nil
}
