package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kasyifana/audit-ai/internal/config"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	order_json     TEXT,
	payment_status TEXT NOT NULL DEFAULT 'pending',
	audit_json     TEXT,
	scans_json     TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
)`

// SQLiteStore persists sessions in a local SQLite file.
type SQLiteStore struct {
	*sqlStore
	path string
}

// NewSQLite opens (or creates) the session database at cfg.Path.
func NewSQLite(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, config.DefaultConfigDir, "auditai.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{sqlStore: newSQLStore(db, "sqlite"), path: path}
	if err := store.db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	if err := store.migrate(context.Background(), sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
