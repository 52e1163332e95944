package domain

import "time"

// DepthAnalysis summarizes resting liquidity within a radius of the midpoint.
// NO bid levels are compared on the implied YES-ask axis, so both sides share
// one price scale.
type DepthAnalysis struct {
	TotalContracts int
	WeightedScore  float64
	YesSideDepth   int
	NoSideDepth    int
	// ImbalanceRatio is (yes - no) / max(yes + no, 1), in [-1, 1]. Positive
	// values mean YES-heavy depth.
	ImbalanceRatio float64
}

// SlippageEstimate is the result of walking the executable ladder for one
// (side, action, quantity) query. Immutable result value, never stored.
type SlippageEstimate struct {
	BestPriceCents    int
	AvgFillPrice      float64
	WorstPriceCents   int
	SlippageCents     float64
	SlippagePct       float64
	FillableQuantity  int
	RemainingUnfilled int
	LevelsCrossed     int
}

// FullyFillable reports whether the requested quantity was met.
func (e SlippageEstimate) FullyFillable() bool {
	return e.RemainingUnfilled == 0
}

// LiquidityGrade buckets a composite liquidity score.
type LiquidityGrade string

const (
	GradeLiquid   LiquidityGrade = "liquid"
	GradeModerate LiquidityGrade = "moderate"
	GradeThin     LiquidityGrade = "thin"
	GradeIlliquid LiquidityGrade = "illiquid"
)

// LiquidityAnalysis is the composite judgment for one market: a 0-100 score,
// its grade, the weighted sub-scores that produced it, the depth picture, and
// the largest order each side can absorb at the default slippage tolerance.
// Warnings are advisory diagnostics, not errors; callers must surface them.
type LiquidityAnalysis struct {
	Ticker         string
	Score          int
	Grade          LiquidityGrade
	Components     map[string]float64
	Depth          DepthAnalysis
	MaxSafeSizeYes int
	MaxSafeSizeNo  int
	Warnings       []string
	AnalyzedAt     time.Time
}
