package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embed sidebar colors by alert severity.
const (
	colorError   = 0xE74C3C // sync failures
	colorWarning = 0xE67E22 // liquidity warnings, orphan sells
	colorInfo    = 0x2ECC71 // analysis complete
	colorNeutral = 0x95A5A6 // unclassified events and broadcasts
)

// DiscordSender delivers notifications via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification to the webhook as an embed colored by the
// event's severity, with the event type in the footer.
func (d *DiscordSender) Send(ctx context.Context, n Notification) error {
	embed := map[string]any{
		"title":       n.Title,
		"description": n.Body,
		"color":       eventColor(n.Event),
	}
	if !n.Raised.IsZero() {
		embed["timestamp"] = n.Raised.Format(time.RFC3339)
	}
	if n.Event != "" {
		embed["footer"] = map[string]string{"text": n.Event}
	}

	payload := map[string]any{
		"embeds": []map[string]any{embed},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}

// eventColor maps an event type to its embed color.
func eventColor(event string) int {
	switch event {
	case EventSyncError:
		return colorError
	case EventLiquidityWarning, EventOrphanSells:
		return colorWarning
	case EventAnalysisComplete:
		return colorInfo
	default:
		return colorNeutral
	}
}
