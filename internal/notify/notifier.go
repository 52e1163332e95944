// Package notify fans the risk engine's alerts out to operator channels.
// Each alert carries one of the event types defined in events.go; operators
// subscribe to the events they care about, e.g. liquidity warnings without
// every analysis_complete.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Notification is one alert raised by the risk engine.
type Notification struct {
	// Event is one of the Event* constants, or empty for unconditional
	// broadcasts.
	Event  string
	Title  string
	Body   string
	Raised time.Time
}

// Sender is one delivery channel. Senders render the notification in their
// own format; the event type drives per-channel styling.
type Sender interface {
	Send(ctx context.Context, n Notification) error
	// Name identifies the channel in logs (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to its senders, filtered by an allowed
// event set. An empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// events named in the events slice pass the Notify filter; an empty slice
// allows all events.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers an alert to all senders when its event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, body string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, Notification{
		Event:  event,
		Title:  title,
		Body:   body,
		Raised: time.Now().UTC(),
	})
}

// NotifyAll delivers to every sender regardless of the event filter.
func (n *Notifier) NotifyAll(ctx context.Context, title, body string) error {
	return n.dispatch(ctx, Notification{
		Title:  title,
		Body:   body,
		Raised: time.Now().UTC(),
	})
}

// dispatch sends the notification to every sender. Failures are collected
// into a combined error; one failing channel does not block the rest.
func (n *Notifier) dispatch(ctx context.Context, note Notification) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, note); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", note.Event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("event", note.Event),
				slog.String("title", note.Title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
