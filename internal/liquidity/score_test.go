package liquidity

import (
	"errors"
	"strings"
	"testing"

	"github.com/avayoung/riskdesk/internal/domain"
)

func TestNewWeights_RejectsBadSum(t *testing.T) {
	// 0.95 is outside the 0.001 tolerance and must fail before any score
	// is computed.
	_, err := NewWeights(0.30, 0.30, 0.20, 0.15)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewWeights_AcceptsWithinTolerance(t *testing.T) {
	if _, err := NewWeights(0.25, 0.25, 0.25, 0.2501); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewWeights(0.30, 0.30, 0.20, 0.20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultWeightsValid(t *testing.T) {
	w := DefaultWeights()
	if _, err := NewWeights(w.Spread, w.Depth, w.Volume, w.OpenInterest); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestScore_DeepLiquidMarket(t *testing.T) {
	// 1-cent spread, thousands of contracts near the mid, heavy volume and
	// open interest: every component saturates.
	b := book(
		[]domain.PriceLevel{lvl(49, 2000), lvl(48, 2000)},
		[]domain.PriceLevel{lvl(50, 2000), lvl(49, 2000)},
	)
	view := domain.MarketView{Ticker: "TEST", Volume24h: 100_000, OpenInterest: 50_000}

	got, err := Score(view, b, DefaultWeights(), DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
	if got.Grade != domain.GradeLiquid {
		t.Errorf("grade = %s, want liquid", got.Grade)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
	for _, name := range []string{"spread", "depth", "volume", "open_interest"} {
		if _, ok := got.Components[name]; !ok {
			t.Errorf("missing component %q", name)
		}
	}
	if got.MaxSafeSizeYes <= 0 || got.MaxSafeSizeNo <= 0 {
		t.Errorf("max safe sizes = %d/%d, want positive", got.MaxSafeSizeYes, got.MaxSafeSizeNo)
	}
}

func TestScore_EmptyBookIsIlliquid(t *testing.T) {
	got, err := Score(domain.MarketView{Ticker: "TEST"}, book(nil, nil), DefaultWeights(), DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 0 {
		t.Errorf("score = %d, want 0", got.Score)
	}
	if got.Grade != domain.GradeIlliquid {
		t.Errorf("grade = %s, want illiquid", got.Grade)
	}
	if !hasWarningContaining(got.Warnings, "illiquid") {
		t.Errorf("expected illiquid warning, got %v", got.Warnings)
	}
	if !hasWarningContaining(got.Warnings, "spread unavailable") {
		t.Errorf("expected spread-unavailable warning, got %v", got.Warnings)
	}
	if got.MaxSafeSizeYes != 0 || got.MaxSafeSizeNo != 0 {
		t.Errorf("max safe sizes = %d/%d, want 0/0", got.MaxSafeSizeYes, got.MaxSafeSizeNo)
	}
}

func TestScore_WarnsOnLowVolumeAndImbalance(t *testing.T) {
	// Best yes 44, implied ask 48, mid 46: both levels inside the radius,
	// with nearly all depth on the YES side and negligible 24h volume.
	b := book(
		[]domain.PriceLevel{lvl(44, 500)},
		[]domain.PriceLevel{lvl(52, 10)},
	)
	view := domain.MarketView{Ticker: "TEST", Volume24h: 50, OpenInterest: 10}

	got, err := Score(view, b, DefaultWeights(), DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasWarningContaining(got.Warnings, "24h volume") {
		t.Errorf("expected volume warning, got %v", got.Warnings)
	}
	if !hasWarningContaining(got.Warnings, "imbalance") {
		t.Errorf("expected imbalance warning, got %v", got.Warnings)
	}
}

func TestScore_SpreadSubscoreIsPiecewiseLinear(t *testing.T) {
	cases := []struct {
		spread int
		want   float64
	}{
		{0, 100},
		{1, 100},
		{20, 0},
		{30, 0},
	}
	for _, tc := range cases {
		if got := scoreSpread(tc.spread); !almostEqual(got, tc.want) {
			t.Errorf("scoreSpread(%d) = %v, want %v", tc.spread, got, tc.want)
		}
	}
	// Strictly decreasing between the anchors.
	prev := scoreSpread(1)
	for s := 2; s < 20; s++ {
		cur := scoreSpread(s)
		if cur >= prev {
			t.Fatalf("scoreSpread(%d) = %v not below scoreSpread(%d) = %v", s, cur, s-1, prev)
		}
		prev = cur
	}
}

func TestThresholds_Grade(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score int
		want  domain.LiquidityGrade
	}{
		{100, domain.GradeLiquid},
		{70, domain.GradeLiquid},
		{69, domain.GradeModerate},
		{40, domain.GradeModerate},
		{39, domain.GradeThin},
		{15, domain.GradeThin},
		{14, domain.GradeIlliquid},
		{0, domain.GradeIlliquid},
	}
	for _, tc := range cases {
		if got := th.Grade(tc.score); got != tc.want {
			t.Errorf("Grade(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
