package kalshi

import (
	"encoding/json"
	"time"
)

// --------------------------------------------------------------------------
// REST API DTOs
// --------------------------------------------------------------------------

// Market represents a market as returned by the exchange REST API. Prices
// are integer cents.
type Market struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"` // "open", "closed", "settled"
	YesBid         int    `json:"yes_bid"`
	YesAsk         int    `json:"yes_ask"`
	NoBid          int    `json:"no_bid"`
	NoAsk          int    `json:"no_ask"`
	LastPrice      int    `json:"last_price"`
	Volume         int64  `json:"volume"`
	Volume24H      int64  `json:"volume_24h"`
	OpenInterest   int64  `json:"open_interest"`
	Category       string `json:"category"`
	Result         string `json:"result"` // "yes", "no", "" (unsettled)
	OpenTime       string `json:"open_time"`
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`
}

// Orderbook is the bid-only book for one market. The exchange never
// publishes asks; they are implied by the opposing bids.
type Orderbook struct {
	Ticker    string       `json:"ticker"`
	YesBids   []PriceLevel `json:"yes"`
	NoBids    []PriceLevel `json:"no"`
	Timestamp time.Time    `json:"-"`
}

// PriceLevel is a single price+quantity entry in the orderbook, price in
// cents (1-99).
type PriceLevel struct {
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
}

// Fill is one account fill as returned by the portfolio fills endpoint.
type Fill struct {
	TradeID     string `json:"trade_id"`
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`   // "yes" or "no"
	Action      string `json:"action"` // "buy" or "sell"
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	IsTaker     bool   `json:"is_taker"`
	FeeCents    int64  `json:"fee_cents"`
	CreatedTime string `json:"created_time"`
}

// ErrorResponse represents an exchange API error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSMessage is the envelope for exchange WebSocket messages.
type WSMessage struct {
	Type string          `json:"type"` // "orderbook_snapshot", "orderbook_delta", ...
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// WSOrderbook is the orderbook data received via WebSocket.
type WSOrderbook struct {
	Ticker string       `json:"market_ticker"`
	Yes    []PriceLevel `json:"yes"`
	No     []PriceLevel `json:"no"`
}

// WSOrderbookDelta is a single level change received via WebSocket.
type WSOrderbookDelta struct {
	Ticker string `json:"market_ticker"`
	Price  int    `json:"price"`
	Delta  int    `json:"delta"`
	Side   string `json:"side"` // "yes" or "no"
}

// WSSubscribeCmd is the command sent to subscribe to WebSocket channels.
type WSSubscribeCmd struct {
	ID     int64             `json:"id"`
	Cmd    string            `json:"cmd"` // "subscribe" or "unsubscribe"
	Params WSSubscribeParams `json:"params"`
}

// WSSubscribeParams defines the subscription parameters.
type WSSubscribeParams struct {
	Channels []string `json:"channels"` // e.g. ["orderbook_delta"]
	Tickers  []string `json:"market_tickers"`
}

// ToOrderbook converts a WSOrderbook snapshot to an Orderbook.
func (w *WSOrderbook) ToOrderbook() Orderbook {
	return Orderbook{
		Ticker:    w.Ticker,
		YesBids:   w.Yes,
		NoBids:    w.No,
		Timestamp: time.Now(),
	}
}
