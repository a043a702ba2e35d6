package notify

import (
	"context"

	"github.com/kasyifana/audit-ai/models"
)

// Event types emitted by the gateway.
const (
	EventAuditCompleted  = "audit_completed"
	EventPaymentVerified = "payment_verified"
)

// Event represents a notification event from auditai.
type Event struct {
	Type      string // "audit_completed" | "payment_verified"
	Title     string
	Body      string
	TargetURL string           // audited site
	Risk      models.RiskLevel // overall risk (audit_completed only)
	Score     float64          // overall score 0-10 (audit_completed only)
	Recipient string           // optional email override (customer address)
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
