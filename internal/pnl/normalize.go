// Package pnl implements the FIFO cost-basis and profit-and-loss engine:
// cross-side trade normalization, first-in-first-out lot matching, and
// summary aggregation. Like the liquidity engine it is pure and stateless;
// every call recomputes from the fill history it is handed.
package pnl

import (
	"fmt"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Normalize converts a raw fill into its FIFO-effective form. A BUY acts on
// the literal side at the literal price. A SELL acts on the opposite side at
// the inverted price (100 - price): on this exchange closing a YES position
// is often reported as a sell quote on the NO side, and this transform folds
// both quoting conventions into one lot queue per (ticker, side).
//
// Fails with domain.ErrInvalidTrade on an unknown side or action, a price
// outside [0,100], a non-positive quantity, or a negative fee.
func Normalize(fill domain.Fill) (domain.EffectiveTrade, error) {
	if !fill.Side.Valid() {
		return domain.EffectiveTrade{}, fmt.Errorf("pnl: fill %s side %q: %w", fill.ID, fill.Side, domain.ErrInvalidTrade)
	}
	if !fill.Action.Valid() {
		return domain.EffectiveTrade{}, fmt.Errorf("pnl: fill %s action %q: %w", fill.ID, fill.Action, domain.ErrInvalidTrade)
	}
	if fill.PriceCents < 0 || fill.PriceCents > domain.ContractPayoutCents {
		return domain.EffectiveTrade{}, fmt.Errorf("pnl: fill %s price %d: %w", fill.ID, fill.PriceCents, domain.ErrInvalidTrade)
	}
	if fill.Quantity <= 0 {
		return domain.EffectiveTrade{}, fmt.Errorf("pnl: fill %s quantity %d: %w", fill.ID, fill.Quantity, domain.ErrInvalidTrade)
	}
	if fill.FeeCents < 0 {
		return domain.EffectiveTrade{}, fmt.Errorf("pnl: fill %s fee %d: %w", fill.ID, fill.FeeCents, domain.ErrInvalidTrade)
	}

	eff := domain.EffectiveTrade{
		Ticker:     fill.Ticker,
		Side:       fill.Side,
		Action:     fill.Action,
		Quantity:   fill.Quantity,
		PriceCents: fill.PriceCents,
		FeeCents:   fill.FeeCents,
		ExecutedAt: fill.ExecutedAt,
	}
	if fill.Action == domain.ActionSell {
		eff.Side = fill.Side.Opposite()
		eff.PriceCents = domain.ContractPayoutCents - fill.PriceCents
	}
	return eff, nil
}
