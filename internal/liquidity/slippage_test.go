package liquidity

import (
	"errors"
	"testing"

	"github.com/avayoung/riskdesk/internal/domain"
)

func TestWalk_InvalidQuantity(t *testing.T) {
	b := book([]domain.PriceLevel{lvl(47, 1000)}, []domain.PriceLevel{lvl(53, 100)})
	for _, qty := range []int{0, -5} {
		if _, err := Walk(b, domain.SideYes, domain.ActionBuy, qty); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("qty %d: expected ErrInvalidArgument, got %v", qty, err)
		}
	}
}

func TestWalk_EmptyLadder(t *testing.T) {
	b := book([]domain.PriceLevel{lvl(47, 1000)}, nil)

	// Buying YES crosses the ladder derived from NO bids; there are none.
	got, err := Walk(b, domain.SideYes, domain.ActionBuy, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RemainingUnfilled != 100 {
		t.Errorf("remaining = %d, want 100", got.RemainingUnfilled)
	}
	if got.FillableQuantity != 0 || got.AvgFillPrice != 0 || got.SlippageCents != 0 {
		t.Errorf("expected all-zero estimate, got %+v", got)
	}
}

func TestWalk_BuyYesCrossesImpliedAsks(t *testing.T) {
	// NO bids 53/52/51 imply YES asks 47/48/49, 100 contracts each.
	b := book(
		[]domain.PriceLevel{lvl(47, 1000)},
		[]domain.PriceLevel{lvl(53, 100), lvl(52, 100), lvl(51, 100)},
	)

	got, err := Walk(b, domain.SideYes, domain.ActionBuy, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelsCrossed != 3 {
		t.Errorf("levels crossed = %d, want 3", got.LevelsCrossed)
	}
	if got.RemainingUnfilled != 0 {
		t.Errorf("remaining = %d, want 0", got.RemainingUnfilled)
	}
	if got.BestPriceCents != 47 {
		t.Errorf("best price = %d, want 47", got.BestPriceCents)
	}
	if got.WorstPriceCents != 49 {
		t.Errorf("worst price = %d, want 49", got.WorstPriceCents)
	}
	// 100@47 + 100@48 + 50@49 = 11950 over 250 contracts.
	if !almostEqual(got.AvgFillPrice, 47.8) {
		t.Errorf("avg fill = %v, want 47.8", got.AvgFillPrice)
	}
	if got.AvgFillPrice <= float64(got.BestPriceCents) {
		t.Errorf("avg fill %v should exceed best price %d", got.AvgFillPrice, got.BestPriceCents)
	}
	if !almostEqual(got.SlippageCents, 0.8) {
		t.Errorf("slippage = %v, want 0.8", got.SlippageCents)
	}
}

func TestWalk_PartialFill(t *testing.T) {
	b := book([]domain.PriceLevel{lvl(47, 1000)}, []domain.PriceLevel{lvl(53, 50)})

	got, err := Walk(b, domain.SideYes, domain.ActionBuy, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FillableQuantity != 50 {
		t.Errorf("fillable = %d, want 50", got.FillableQuantity)
	}
	if got.RemainingUnfilled != 950 {
		t.Errorf("remaining = %d, want 950", got.RemainingUnfilled)
	}
}

func TestWalk_SellYesWalksBidsDown(t *testing.T) {
	b := book([]domain.PriceLevel{lvl(47, 100), lvl(46, 100)}, []domain.PriceLevel{lvl(53, 100)})

	got, err := Walk(b, domain.SideYes, domain.ActionSell, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BestPriceCents != 47 {
		t.Errorf("best price = %d, want 47", got.BestPriceCents)
	}
	if got.WorstPriceCents != 46 {
		t.Errorf("worst price = %d, want 46", got.WorstPriceCents)
	}
	// 100@47 + 50@46 = 7000 over 150: avg 46.666, slippage 0.333.
	if !almostEqual(got.AvgFillPrice, 7000.0/150.0) {
		t.Errorf("avg fill = %v, want %v", got.AvgFillPrice, 7000.0/150.0)
	}
	if !almostEqual(got.SlippageCents, 47-7000.0/150.0) {
		t.Errorf("slippage = %v, want %v", got.SlippageCents, 47-7000.0/150.0)
	}
}

func TestWalk_SellNoMirrorsBuyYes(t *testing.T) {
	// Selling NO consumes the same NO-bid levels a YES buyer crosses, read
	// in the NO price axis, so the slippage magnitude matches BuyYes.
	b := book(
		[]domain.PriceLevel{lvl(47, 1000)},
		[]domain.PriceLevel{lvl(53, 100), lvl(52, 100), lvl(51, 100)},
	)

	sellNo, err := Walk(b, domain.SideNo, domain.ActionSell, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buyYes, err := Walk(b, domain.SideYes, domain.ActionBuy, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sellNo.BestPriceCents != 53 {
		t.Errorf("sell-no best = %d, want 53", sellNo.BestPriceCents)
	}
	if !almostEqual(sellNo.SlippageCents, buyYes.SlippageCents) {
		t.Errorf("sell-no slippage %v != buy-yes slippage %v", sellNo.SlippageCents, buyYes.SlippageCents)
	}
	if sellNo.LevelsCrossed != buyYes.LevelsCrossed {
		t.Errorf("levels crossed %d != %d", sellNo.LevelsCrossed, buyYes.LevelsCrossed)
	}
}

func TestCheckExecution(t *testing.T) {
	b := book(
		[]domain.PriceLevel{lvl(47, 1000)},
		[]domain.PriceLevel{lvl(53, 100), lvl(52, 100), lvl(51, 100)},
	)

	t.Run("insufficient liquidity", func(t *testing.T) {
		_, err := CheckExecution(b, domain.SideYes, domain.ActionBuy, 500, 50)
		if !errors.Is(err, domain.ErrInsufficientLiquidity) {
			t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
		}
	})

	t.Run("slippage exceeded", func(t *testing.T) {
		// 250 contracts slip 0.8 cents off a 47 best: about 1.7%.
		_, err := CheckExecution(b, domain.SideYes, domain.ActionBuy, 250, 1.0)
		if !errors.Is(err, domain.ErrSlippageExceeded) {
			t.Fatalf("expected ErrSlippageExceeded, got %v", err)
		}
	})

	t.Run("pass", func(t *testing.T) {
		got, err := CheckExecution(b, domain.SideYes, domain.ActionBuy, 250, 5.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.RemainingUnfilled != 0 || !almostEqual(got.SlippageCents, 0.8) {
			t.Errorf("unexpected estimate %+v", got)
		}
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := CheckExecution(b, domain.SideYes, domain.ActionBuy, 0, 5.0)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
