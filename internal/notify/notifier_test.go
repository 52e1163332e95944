package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSender struct {
	name string
	sent []Notification
	err  error
}

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify_FiltersByEvent(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventLiquidityWarning}, discardLogger())

	if err := n.Notify(context.Background(), EventAnalysisComplete, "done", "scored 80"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 0 {
		t.Fatalf("filtered event reached sender: %+v", s.sent)
	}

	if err := n.Notify(context.Background(), EventLiquidityWarning, "thin book", "spread 8c"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("allowed event did not reach sender")
	}

	got := s.sent[0]
	if got.Event != EventLiquidityWarning || got.Title != "thin book" || got.Body != "spread 8c" {
		t.Errorf("notification = %+v", got)
	}
	if got.Raised.IsZero() {
		t.Error("Raised should be set")
	}
}

func TestNotify_EmptyEventListAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, discardLogger())

	if err := n.Notify(context.Background(), EventSyncError, "sync failed", "exchange down"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatal("event should pass with no filter configured")
	}
}

func TestNotifyAll_BypassesFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventLiquidityWarning}, discardLogger())

	if err := n.NotifyAll(context.Background(), "shutdown", "going down for maintenance"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatal("broadcast should bypass the event filter")
	}
	if s.sent[0].Event != "" {
		t.Errorf("broadcast event = %q, want empty", s.sent[0].Event)
	}
}

func TestDispatch_OneFailureDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("webhook 500")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.Notify(context.Background(), EventOrphanSells, "orphans", "10 skipped")
	if err == nil {
		t.Fatal("expected a combined error from the failing sender")
	}
	if len(good.sent) != 1 {
		t.Fatal("healthy sender should still deliver")
	}
}
