package notify

import (
	"fmt"
	"strings"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Event types emitted by the risk service. The notifier's allow-list is
// matched against these names.
const (
	EventLiquidityWarning = "liquidity_warning"
	EventAnalysisComplete = "analysis_complete"
	EventOrphanSells      = "orphan_sells"
	EventSyncError        = "sync_error"
)

// FormatLiquidityWarning renders a liquidity analysis with warnings as a
// notification body.
func FormatLiquidityWarning(a domain.LiquidityAnalysis) (title, message string) {
	title = fmt.Sprintf("Liquidity warning: %s", a.Ticker)

	var b strings.Builder
	fmt.Fprintf(&b, "score %d (%s)\n", a.Score, a.Grade)
	fmt.Fprintf(&b, "max safe size: %d yes / %d no\n", a.MaxSafeSizeYes, a.MaxSafeSizeNo)
	for _, w := range a.Warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// FormatOrphanSells renders a FIFO run that skipped sell quantity with no
// matching lots.
func FormatOrphanSells(orphanQty int) (title, message string) {
	title = "FIFO: orphan sells skipped"
	message = fmt.Sprintf("%d contracts sold with no matching open lots; history may be incomplete", orphanQty)
	return title, message
}
