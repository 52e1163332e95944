package domain

import "time"

// ContractPayoutCents is the settlement value of a winning contract. Prices
// are quoted in integer cents on [0,100] and read as probability estimates.
const ContractPayoutCents = 100

// Side identifies which outcome of a binary market a quote or fill acts on.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite returns the mirror side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Valid reports whether the side is one of the two known outcomes.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Action identifies the direction of an order or fill.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Valid reports whether the action is buy or sell.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// PriceLevel is a single resting bid: a price in cents and the number of
// contracts quoted at it.
type PriceLevel struct {
	PriceCents int
	Quantity   int
}

// OrderbookSnapshot is an immutable point-in-time view of a market's book.
// The exchange only publishes bids; there is no independent ask book. An
// implied YES ask exists at 100 - best NO bid, and an implied NO ask at
// 100 - best YES bid. Snapshots are constructed fresh per query and never
// mutated.
type OrderbookSnapshot struct {
	Ticker    string
	YesBids   []PriceLevel
	NoBids    []PriceLevel
	Timestamp time.Time
}

// BestYesBid returns the highest YES bid, or false if the YES side is empty.
func (b OrderbookSnapshot) BestYesBid() (int, bool) {
	return bestBid(b.YesBids)
}

// BestNoBid returns the highest NO bid, or false if the NO side is empty.
func (b OrderbookSnapshot) BestNoBid() (int, bool) {
	return bestBid(b.NoBids)
}

// ImpliedYesAsk returns the implied YES ask (100 - best NO bid), or false if
// the NO side is empty.
func (b OrderbookSnapshot) ImpliedYesAsk() (int, bool) {
	best, ok := b.BestNoBid()
	if !ok {
		return 0, false
	}
	return ContractPayoutCents - best, true
}

// ImpliedNoAsk returns the implied NO ask (100 - best YES bid), or false if
// the YES side is empty.
func (b OrderbookSnapshot) ImpliedNoAsk() (int, bool) {
	best, ok := b.BestYesBid()
	if !ok {
		return 0, false
	}
	return ContractPayoutCents - best, true
}

// Midpoint returns the average of the best YES bid and the implied YES ask.
// It is undefined (ok == false) when either side has no bids.
func (b OrderbookSnapshot) Midpoint() (float64, bool) {
	bid, okBid := b.BestYesBid()
	ask, okAsk := b.ImpliedYesAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}

// SpreadCents returns the implied YES ask minus the best YES bid, or false
// when either side is empty.
func (b OrderbookSnapshot) SpreadCents() (int, bool) {
	bid, okBid := b.BestYesBid()
	ask, okAsk := b.ImpliedYesAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

func bestBid(levels []PriceLevel) (int, bool) {
	if len(levels) == 0 {
		return 0, false
	}
	best := levels[0].PriceCents
	for _, l := range levels[1:] {
		if l.PriceCents > best {
			best = l.PriceCents
		}
	}
	return best, true
}
