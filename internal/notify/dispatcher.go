package notify

import (
	"context"
	"log/slog"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

// Dispatcher fans out events to all configured channels.
type Dispatcher struct {
	channels []Channel
	minRisk  models.RiskLevel // minimum risk to notify on (empty = all)
}

// NewDispatcher creates a Dispatcher from the given config.
// Only channels with IsConfigured() == true are active.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	d := &Dispatcher{
		minRisk: models.RiskLevel(cfg.MinRisk),
	}

	channels := []Channel{
		NewSlack(cfg.Slack),
		NewEmail(cfg.Email),
		NewWebhook(cfg.Webhook),
	}
	for _, ch := range channels {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Notify sends evt to all configured channels. Errors are logged but never returned.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if !d.shouldSend(evt) {
		return
	}
	for _, ch := range d.channels {
		if err := ch.Send(ctx, evt); err != nil {
			slog.Warn("notify: channel send failed", "channel", ch.Name(), "event", evt.Type, "error", err)
		}
	}
}

func (d *Dispatcher) shouldSend(evt Event) bool {
	// The risk filter only applies to audit results. Payment events always go out.
	if evt.Type == EventAuditCompleted && d.minRisk != "" {
		return evt.Risk.Rank() >= d.minRisk.Rank()
	}
	return true
}
