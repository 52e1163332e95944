package kalshi

import (
	"time"

	"github.com/avayoung/riskdesk/internal/domain"
)

// ToDomainOrderbook converts an exchange orderbook DTO into the immutable
// domain snapshot the liquidity engine consumes.
func ToDomainOrderbook(ob Orderbook) domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		Ticker:    ob.Ticker,
		YesBids:   toDomainLevels(ob.YesBids),
		NoBids:    toDomainLevels(ob.NoBids),
		Timestamp: ob.Timestamp,
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	return snap
}

func toDomainLevels(levels []PriceLevel) []domain.PriceLevel {
	if len(levels) == 0 {
		return nil
	}
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Quantity <= 0 {
			continue
		}
		out = append(out, domain.PriceLevel{PriceCents: l.Price, Quantity: l.Quantity})
	}
	return out
}

// ToDomainMarket converts a market DTO into domain metadata.
func ToDomainMarket(m Market) domain.Market {
	closeTime, _ := time.Parse(time.RFC3339, m.CloseTime)
	return domain.Market{
		Ticker:       m.Ticker,
		Title:        m.Title,
		Category:     m.Category,
		Status:       domain.MarketStatus(m.Status),
		YesBidCents:  m.YesBid,
		NoBidCents:   m.NoBid,
		LastPrice:    m.LastPrice,
		Volume24h:    m.Volume24H,
		OpenInterest: m.OpenInterest,
		CloseTime:    closeTime,
		UpdatedAt:    time.Now().UTC(),
	}
}

// ToDomainFill converts an account fill DTO into the append-only domain
// fill the FIFO engine consumes. The price recorded is the one quoted on
// the fill's own side.
func ToDomainFill(f Fill) domain.Fill {
	executedAt, _ := time.Parse(time.RFC3339, f.CreatedTime)
	price := f.YesPrice
	if f.Side == string(domain.SideNo) {
		price = f.NoPrice
	}
	return domain.Fill{
		ID:         f.TradeID,
		Ticker:     f.Ticker,
		Side:       domain.Side(f.Side),
		Action:     domain.Action(f.Action),
		Quantity:   f.Count,
		PriceCents: price,
		FeeCents:   f.FeeCents,
		ExecutedAt: executedAt,
	}
}
