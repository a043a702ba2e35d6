// Package session persists audit sessions: the order, its payment state and
// the audit artifacts produced for it. Implementations exist for SQLite
// (default) and MySQL.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/kasyifana/audit-ai/models"
)

// Payment statuses a session moves through. A session starts Pending and is
// only audit-eligible once Verified.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Order is the customer's audit request.
type Order struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Company    string  `json:"company"`
	Phone      string  `json:"phone"`
	AuditType  string  `json:"auditType"`
	Package    string  `json:"package"`
	Price      float64 `json:"price"`
	WebsiteURL string  `json:"websiteUrl,omitempty"`
}

// Session is one customer's audit lifecycle.
type Session struct {
	ID            string                `json:"id"`
	Order         *Order                `json:"order"`
	PaymentStatus string                `json:"paymentStatus"`
	AuditResult   *models.AuditResult   `json:"auditResult,omitempty"`
	ScanResults   *models.RawScanBundle `json:"scanResults,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// Paid reports whether the session's payment has been verified.
func (s *Session) Paid() bool {
	return s.PaymentStatus == StatusVerified
}

// Store is the session persistence interface.
type Store interface {
	// Create opens a new pending session for order and returns it.
	Create(ctx context.Context, order *Order) (*Session, error)

	// Get returns the session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// SetPaymentStatus moves the session to status (pending, verified or
	// rejected).
	SetPaymentStatus(ctx context.Context, id, status string) error

	// SetAuditResult stores the analysis output on the session.
	SetAuditResult(ctx context.Context, id string, result *models.AuditResult) error

	// SetScanResults stores the raw scan bundle on the session.
	SetScanResults(ctx context.Context, id string, bundle *models.RawScanBundle) error

	// Reset clears the session back to a fresh pending state, dropping the
	// order and all audit artifacts.
	Reset(ctx context.Context, id string) error

	// Close releases the underlying connection.
	Close() error
}

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = fmt.Errorf("session not found")

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}
