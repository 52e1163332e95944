package liquidity

import (
	"fmt"
	"math"
	"time"

	"github.com/avayoung/riskdesk/internal/domain"
)

const (
	// weightSumTolerance is how far the component weights may drift from
	// 1.0 before construction fails.
	weightSumTolerance = 0.001

	// defaultDepthRadiusCents is the midpoint radius used by the composite
	// depth sub-score.
	defaultDepthRadiusCents = 5

	// defaultMaxSlippageCents is the slippage tolerance used when sizing
	// MaxSafeSizeYes / MaxSafeSizeNo.
	defaultMaxSlippageCents = 2.0

	// Spread sub-score anchors: 100 at <= 1 cent, 0 at >= 20 cents.
	spreadFullScoreCents = 1
	spreadZeroScoreCents = 20
)

// Weights are the component weights of the composite liquidity score. Use
// NewWeights to construct a validated set; the zero value is unusable.
type Weights struct {
	Spread       float64
	Depth        float64
	Volume       float64
	OpenInterest float64
}

// NewWeights validates that the weights sum to 1.0 within tolerance and
// returns them. Fails with domain.ErrInvalidArgument before any score is
// computed.
func NewWeights(spread, depth, volume, openInterest float64) (Weights, error) {
	sum := spread + depth + volume + openInterest
	if math.Abs(sum-1.0) > weightSumTolerance {
		return Weights{}, fmt.Errorf("liquidity: weights sum to %.4f, want 1.0: %w", sum, domain.ErrInvalidArgument)
	}
	return Weights{
		Spread:       spread,
		Depth:        depth,
		Volume:       volume,
		OpenInterest: openInterest,
	}, nil
}

// DefaultWeights returns the standard component weighting: spread 0.30,
// depth 0.30, volume 0.20, open interest 0.20.
func DefaultWeights() Weights {
	return Weights{Spread: 0.30, Depth: 0.30, Volume: 0.20, OpenInterest: 0.20}
}

// Thresholds hold the grade cut-offs and the advisory warning triggers for
// the composite score.
type Thresholds struct {
	// Grade cut-offs, inclusive lower bounds on the final score.
	LiquidScore   int
	ModerateScore int
	ThinScore     int

	// Warning triggers.
	WideSpreadCents   int
	MinDepthContracts int
	MaxImbalanceRatio float64
	MinVolume24h      int64

	// DepthRadiusCents is the midpoint radius used by the depth sub-score.
	DepthRadiusCents int

	// SafeSizeSlippageCents is the slippage tolerance used when sizing
	// MaxSafeSizeYes / MaxSafeSizeNo.
	SafeSizeSlippageCents float64
}

// DefaultThresholds returns the standard grade boundaries (liquid >= 70,
// moderate >= 40, thin >= 15) and warning triggers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LiquidScore:           70,
		ModerateScore:         40,
		ThinScore:             15,
		WideSpreadCents:       5,
		MinDepthContracts:     100,
		MaxImbalanceRatio:     0.7,
		MinVolume24h:          500,
		DepthRadiusCents:      defaultDepthRadiusCents,
		SafeSizeSlippageCents: defaultMaxSlippageCents,
	}
}

// Grade maps a composite score to its bucket.
func (t Thresholds) Grade(score int) domain.LiquidityGrade {
	switch {
	case score >= t.LiquidScore:
		return domain.GradeLiquid
	case score >= t.ModerateScore:
		return domain.GradeModerate
	case score >= t.ThinScore:
		return domain.GradeThin
	default:
		return domain.GradeIlliquid
	}
}

// Score computes the composite liquidity grade for one market: four
// sub-scores mapped to [0,100], combined by the validated weights, truncated
// to an integer, and bucketed by the thresholds. Warnings are appended for
// wide spread, shallow depth near the mid, skewed book imbalance, low 24h
// volume, and unconditionally when the grade is illiquid; they are data for
// the caller, not errors.
func Score(view domain.MarketView, book domain.OrderbookSnapshot, weights Weights, thresholds Thresholds) (domain.LiquidityAnalysis, error) {
	depth, err := Depth(book, thresholds.DepthRadiusCents)
	if err != nil {
		return domain.LiquidityAnalysis{}, err
	}

	spreadScore := 0.0
	spread, hasSpread := book.SpreadCents()
	if hasSpread {
		spreadScore = scoreSpread(spread)
	}
	depthScore := math.Min(100, depth.WeightedScore/10)
	volumeScore := math.Min(100, float64(view.Volume24h)/100)
	oiScore := math.Min(100, float64(view.OpenInterest)/50)

	composite := spreadScore*weights.Spread +
		depthScore*weights.Depth +
		volumeScore*weights.Volume +
		oiScore*weights.OpenInterest
	score := int(math.Max(0, math.Min(100, composite)))

	analysis := domain.LiquidityAnalysis{
		Ticker: book.Ticker,
		Score:  score,
		Grade:  thresholds.Grade(score),
		Components: map[string]float64{
			"spread":        spreadScore,
			"depth":         depthScore,
			"volume":        volumeScore,
			"open_interest": oiScore,
		},
		Depth:          depth,
		MaxSafeSizeYes: MaxSafeSize(book, domain.SideYes, thresholds.SafeSizeSlippageCents),
		MaxSafeSizeNo:  MaxSafeSize(book, domain.SideNo, thresholds.SafeSizeSlippageCents),
		AnalyzedAt:     time.Now().UTC(),
	}

	if !hasSpread {
		analysis.Warnings = append(analysis.Warnings, "book is empty or one-sided; spread unavailable")
	} else if spread > thresholds.WideSpreadCents {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("spread %d cents exceeds %d cent threshold", spread, thresholds.WideSpreadCents))
	}
	if depth.TotalContracts < thresholds.MinDepthContracts {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("only %d contracts within %d cents of mid (want %d)",
				depth.TotalContracts, thresholds.DepthRadiusCents, thresholds.MinDepthContracts))
	}
	if math.Abs(depth.ImbalanceRatio) > thresholds.MaxImbalanceRatio {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("book imbalance %.2f exceeds %.2f", depth.ImbalanceRatio, thresholds.MaxImbalanceRatio))
	}
	if view.Volume24h < thresholds.MinVolume24h {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("24h volume %d below %d", view.Volume24h, thresholds.MinVolume24h))
	}
	if analysis.Grade == domain.GradeIlliquid {
		analysis.Warnings = append(analysis.Warnings, "market graded illiquid; execution estimates unreliable")
	}

	return analysis, nil
}

// scoreSpread is piecewise linear: 100 at spread <= 1 cent, 0 at >= 20,
// linear in between.
func scoreSpread(spreadCents int) float64 {
	switch {
	case spreadCents <= spreadFullScoreCents:
		return 100
	case spreadCents >= spreadZeroScoreCents:
		return 0
	default:
		return 100 * float64(spreadZeroScoreCents-spreadCents) / float64(spreadZeroScoreCents-spreadFullScoreCents)
	}
}
