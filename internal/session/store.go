package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

// New returns a Store implementation matching cfg.Driver. SQLite is the
// default when the driver is empty.
func New(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}

// sqlStore is the shared implementation over database/sql. The two drivers
// differ only in schema DDL and connection setup.
type sqlStore struct {
	db     *sql.DB
	driver string
	clock  func() time.Time
	newID  func() string
}

func newSQLStore(db *sql.DB, driver string) *sqlStore {
	return &sqlStore{db: db, driver: driver, clock: time.Now, newID: uuid.NewString}
}

func (s *sqlStore) migrate(ctx context.Context, schema string) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error { return s.db.Close() }

func (s *sqlStore) Create(ctx context.Context, order *Order) (*Session, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encoding order: %w", err)
	}

	now := s.clock().UTC()
	sess := &Session{
		ID:            s.newID(),
		Order:         order,
		PaymentStatus: StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, order_json, payment_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, string(orderJSON), sess.PaymentStatus,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, order_json, payment_status, audit_json, scans_json, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)

	var (
		sess      Session
		orderJSON sql.NullString
		auditJSON sql.NullString
		scansJSON sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&sess.ID, &orderJSON, &sess.PaymentStatus, &auditJSON, &scansJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	if orderJSON.Valid && orderJSON.String != "" {
		order := &Order{}
		if err := json.Unmarshal([]byte(orderJSON.String), order); err != nil {
			return nil, fmt.Errorf("decoding session order: %w", err)
		}
		sess.Order = order
	}
	if auditJSON.Valid && auditJSON.String != "" {
		result := &models.AuditResult{}
		if err := json.Unmarshal([]byte(auditJSON.String), result); err != nil {
			return nil, fmt.Errorf("decoding session audit result: %w", err)
		}
		sess.AuditResult = result
	}
	if scansJSON.Valid && scansJSON.String != "" {
		sess.ScanResults = models.DecodeBundle([]byte(scansJSON.String))
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		sess.UpdatedAt = t
	}
	return &sess, nil
}

func (s *sqlStore) SetPaymentStatus(ctx context.Context, id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid payment status %q", status)
	}
	return s.update(ctx, id, `payment_status = ?`, status)
}

func (s *sqlStore) SetAuditResult(ctx context.Context, id string, result *models.AuditResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding audit result: %w", err)
	}
	return s.update(ctx, id, `audit_json = ?`, string(data))
}

func (s *sqlStore) SetScanResults(ctx context.Context, id string, bundle *models.RawScanBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding scan results: %w", err)
	}
	return s.update(ctx, id, `scans_json = ?`, string(data))
}

func (s *sqlStore) Reset(ctx context.Context, id string) error {
	return s.update(ctx, id,
		`order_json = NULL, payment_status = ?, audit_json = NULL, scans_json = NULL`,
		StatusPending)
}

func (s *sqlStore) update(ctx context.Context, id, setClause string, args ...any) error {
	query := fmt.Sprintf(`UPDATE sessions SET %s, updated_at = ? WHERE id = ?`, setClause)
	args = append(args, s.clock().UTC().Format(time.RFC3339), id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
