package domain

import "time"

// MarketStatus tracks a market's trading lifecycle.
type MarketStatus string

const (
	MarketStatusOpen    MarketStatus = "open"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market holds exchange metadata for one binary market.
type Market struct {
	Ticker       string
	Title        string
	Category     string
	Status       MarketStatus
	YesBidCents  int
	NoBidCents   int
	LastPrice    int
	Volume24h    int64
	OpenInterest int64
	CloseTime    time.Time
	UpdatedAt    time.Time
}

// View extracts the activity metadata the liquidity scorer consumes.
func (m Market) View() MarketView {
	return MarketView{
		Ticker:       m.Ticker,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
	}
}

// MarketView is the read-only activity slice of a market used by the
// composite liquidity score: 24h contract volume and open interest.
type MarketView struct {
	Ticker       string
	Volume24h    int64
	OpenInterest int64
}
