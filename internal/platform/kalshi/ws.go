package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// wsWriteWait is the time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// wsPongWait is the time allowed to read the next pong message.
	wsPongWait = 30 * time.Second

	// wsPingPeriod sends pings at this interval. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// wsReconnectDelay is the base delay before attempting to reconnect.
	wsReconnectDelay = 2 * time.Second

	// wsMaxReconnectDelay caps the exponential backoff.
	wsMaxReconnectDelay = 60 * time.Second
)

// OrderbookHandler is called with the full book each time it changes: once
// per snapshot, and once per delta folded into the tracked book. Deltas that
// arrive before a snapshot for their ticker are dropped, since there is no
// book to apply them to yet.
type OrderbookHandler func(Orderbook)

// WSClient is a WebSocket client for real-time market data.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Tracked subscriptions for reconnection.
	subscribedTickers []string
	cmdID             int64

	handlerMu         sync.RWMutex
	orderbookHandlers []OrderbookHandler

	// Last full book per ticker, maintained by folding deltas into the
	// most recent snapshot.
	bookMu sync.Mutex
	books  map[string]*Orderbook

	// done is closed when the client shuts down.
	done chan struct{}
}

// NewWSClient creates a new WebSocket client.
//
// wsURL is the endpoint, e.g. "wss://api.elections.kalshi.com/trade-api/ws/v2".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		books: make(map[string]*Orderbook),
		done:  make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Previously tracked subscriptions are restored.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("kalshi/ws: client is closed")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("kalshi/ws: connect: %w", err)
	}

	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	if len(w.subscribedTickers) > 0 {
		if err := w.sendSubscribe(w.subscribedTickers); err != nil {
			return fmt.Errorf("kalshi/ws: restore subscriptions: %w", err)
		}
	}

	return nil
}

// Subscribe subscribes to orderbook updates for the given market tickers.
func (w *WSClient) Subscribe(ctx context.Context, tickers []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("kalshi/ws: not connected")
	}

	if err := w.sendSubscribe(tickers); err != nil {
		return fmt.Errorf("kalshi/ws: subscribe: %w", err)
	}

	// Track subscriptions for reconnection.
	existing := make(map[string]struct{}, len(w.subscribedTickers))
	for _, t := range w.subscribedTickers {
		existing[t] = struct{}{}
	}
	for _, t := range tickers {
		if _, ok := existing[t]; !ok {
			w.subscribedTickers = append(w.subscribedTickers, t)
		}
	}

	return nil
}

// OnOrderbook registers a handler called for every orderbook update.
func (w *WSClient) OnOrderbook(handler OrderbookHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.orderbookHandlers = append(w.orderbookHandlers, handler)
}

// Close shuts down the WebSocket connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}

	return nil
}

// sendSubscribe sends a subscribe command. Caller must hold w.mu.
func (w *WSClient) sendSubscribe(tickers []string) error {
	w.cmdID++

	cmd := WSSubscribeCmd{
		ID:  w.cmdID,
		Cmd: "subscribe",
		Params: WSSubscribeParams{
			Channels: []string{"orderbook_delta"},
			Tickers:  tickers,
		},
	}

	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}

	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop continuously reads messages and dispatches them to handlers. On
// disconnect it attempts reconnection with backoff.
func (w *WSClient) readLoop() {
	defer func() {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}

			w.reconnect()
			return
		}

		w.handleMessage(message)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()

			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw WebSocket message and routes it. Snapshots
// replace the tracked book for their ticker; deltas mutate one level of it.
// Handlers always receive a full book.
func (w *WSClient) handleMessage(raw []byte) {
	var envelope WSMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}

	switch envelope.Type {
	case "orderbook_snapshot":
		var snap WSOrderbook
		if err := json.Unmarshal(envelope.Msg, &snap); err != nil {
			return
		}

		book := snap.ToOrderbook()
		stored := copyOrderbook(book)

		w.bookMu.Lock()
		w.books[book.Ticker] = &stored
		w.bookMu.Unlock()

		w.emitOrderbook(book)

	case "orderbook_delta":
		var delta WSOrderbookDelta
		if err := json.Unmarshal(envelope.Msg, &delta); err != nil {
			return
		}

		book, ok := w.applyDelta(delta)
		if !ok {
			return
		}

		w.emitOrderbook(book)
	}
}

// applyDelta folds a single level change into the tracked book for its
// ticker and returns an updated copy. ok is false when no snapshot has been
// received for the ticker yet, or the delta names an unknown side.
func (w *WSClient) applyDelta(delta WSOrderbookDelta) (Orderbook, bool) {
	w.bookMu.Lock()
	defer w.bookMu.Unlock()

	book, ok := w.books[delta.Ticker]
	if !ok {
		return Orderbook{}, false
	}

	switch delta.Side {
	case "yes":
		book.YesBids = applyLevelDelta(book.YesBids, delta.Price, delta.Delta)
	case "no":
		book.NoBids = applyLevelDelta(book.NoBids, delta.Price, delta.Delta)
	default:
		return Orderbook{}, false
	}

	book.Timestamp = time.Now()
	return copyOrderbook(*book), true
}

// applyLevelDelta adjusts the quantity at price by delta, removing the level
// when its quantity drops to zero or below and inserting a new one for a
// positive delta at an unquoted price.
func applyLevelDelta(levels []PriceLevel, price, delta int) []PriceLevel {
	for i := range levels {
		if levels[i].Price == price {
			levels[i].Quantity += delta
			if levels[i].Quantity <= 0 {
				return append(levels[:i], levels[i+1:]...)
			}
			return levels
		}
	}
	if delta > 0 {
		return append(levels, PriceLevel{Price: price, Quantity: delta})
	}
	return levels
}

// copyOrderbook returns a book whose ladders do not alias the input's.
func copyOrderbook(b Orderbook) Orderbook {
	out := b
	out.YesBids = append([]PriceLevel(nil), b.YesBids...)
	out.NoBids = append([]PriceLevel(nil), b.NoBids...)
	return out
}

// emitOrderbook invokes every registered orderbook handler.
func (w *WSClient) emitOrderbook(book Orderbook) {
	w.handlerMu.RLock()
	handlers := w.orderbookHandlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(book)
	}
}

// reconnect attempts to re-establish the connection with exponential
// backoff.
func (w *WSClient) reconnect() {
	delay := wsReconnectDelay

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}
