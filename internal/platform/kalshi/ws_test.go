package kalshi

import (
	"testing"
)

func newHandledClient() (*WSClient, *[]Orderbook) {
	w := NewWSClient("wss://example.invalid/ws")
	var got []Orderbook
	w.OnOrderbook(func(ob Orderbook) { got = append(got, ob) })
	return w, &got
}

func TestHandleMessage_SnapshotEmitsFullBook(t *testing.T) {
	w, got := newHandledClient()

	w.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{
		"market_ticker":"KXTEST",
		"yes":[{"price":52,"quantity":500},{"price":51,"quantity":400}],
		"no":[{"price":47,"quantity":300}]}}`))

	if len(*got) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(*got))
	}
	book := (*got)[0]
	if book.Ticker != "KXTEST" {
		t.Fatalf("ticker = %q", book.Ticker)
	}
	if len(book.YesBids) != 2 || len(book.NoBids) != 1 {
		t.Fatalf("book sides = %d yes / %d no, want 2/1", len(book.YesBids), len(book.NoBids))
	}
	if book.Timestamp.IsZero() {
		t.Fatal("snapshot timestamp should be set")
	}
}

func TestHandleMessage_DeltaFoldsIntoTrackedBook(t *testing.T) {
	w, got := newHandledClient()

	w.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{
		"market_ticker":"KXTEST",
		"yes":[{"price":52,"quantity":500}],
		"no":[{"price":47,"quantity":300}]}}`))
	w.handleMessage([]byte(`{"type":"orderbook_delta","msg":{
		"market_ticker":"KXTEST","price":47,"delta":-10,"side":"no"}}`))

	if len(*got) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(*got))
	}
	book := (*got)[1]
	if len(book.YesBids) != 1 || book.YesBids[0].Quantity != 500 {
		t.Fatalf("yes side should be untouched, got %+v", book.YesBids)
	}
	if len(book.NoBids) != 1 || book.NoBids[0].Quantity != 290 {
		t.Fatalf("no bid at 47 should drop to 290, got %+v", book.NoBids)
	}
}

func TestHandleMessage_DeltaRemovesExhaustedLevel(t *testing.T) {
	w, got := newHandledClient()

	w.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{
		"market_ticker":"KXTEST",
		"yes":[{"price":52,"quantity":500},{"price":51,"quantity":400}],
		"no":[]}}`))
	w.handleMessage([]byte(`{"type":"orderbook_delta","msg":{
		"market_ticker":"KXTEST","price":51,"delta":-400,"side":"yes"}}`))

	book := (*got)[len(*got)-1]
	if len(book.YesBids) != 1 || book.YesBids[0].Price != 52 {
		t.Fatalf("level 51 should be removed, got %+v", book.YesBids)
	}
}

func TestHandleMessage_DeltaInsertsNewLevel(t *testing.T) {
	w, got := newHandledClient()

	w.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{
		"market_ticker":"KXTEST",
		"yes":[{"price":52,"quantity":500}],
		"no":[]}}`))
	w.handleMessage([]byte(`{"type":"orderbook_delta","msg":{
		"market_ticker":"KXTEST","price":50,"delta":120,"side":"yes"}}`))

	book := (*got)[len(*got)-1]
	if len(book.YesBids) != 2 {
		t.Fatalf("expected inserted level, got %+v", book.YesBids)
	}
	var found bool
	for _, lvl := range book.YesBids {
		if lvl.Price == 50 && lvl.Quantity == 120 {
			found = true
		}
	}
	if !found {
		t.Fatalf("level 50x120 not present: %+v", book.YesBids)
	}
}

func TestHandleMessage_DeltaBeforeSnapshotIsDropped(t *testing.T) {
	w, got := newHandledClient()

	// Without a tracked book the delta must not reach handlers; treating it
	// as a snapshot would publish an empty book for the ticker.
	w.handleMessage([]byte(`{"type":"orderbook_delta","msg":{
		"market_ticker":"KXTEST","price":47,"delta":-10,"side":"yes"}}`))

	if len(*got) != 0 {
		t.Fatalf("expected no emissions, got %d: %+v", len(*got), *got)
	}
}

func TestHandleMessage_EmittedBookDoesNotAliasTrackedBook(t *testing.T) {
	w, got := newHandledClient()

	w.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{
		"market_ticker":"KXTEST",
		"yes":[{"price":52,"quantity":500}],
		"no":[]}}`))

	// Mutating the emitted book must not leak into books delivered later.
	(*got)[0].YesBids[0].Quantity = 1

	w.handleMessage([]byte(`{"type":"orderbook_delta","msg":{
		"market_ticker":"KXTEST","price":52,"delta":-100,"side":"yes"}}`))

	book := (*got)[1]
	if book.YesBids[0].Quantity != 400 {
		t.Fatalf("tracked book corrupted: %+v", book.YesBids)
	}
}
