package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kasyifana/audit-ai/internal/config"
)

const mysqlSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id             VARCHAR(64) PRIMARY KEY,
	order_json     MEDIUMTEXT,
	payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
	audit_json     MEDIUMTEXT,
	scans_json     MEDIUMTEXT,
	created_at     VARCHAR(40) NOT NULL,
	updated_at     VARCHAR(40) NOT NULL
)`

// MySQLStore persists sessions in MySQL.
type MySQLStore struct {
	*sqlStore
}

// NewMySQL opens a MySQL-backed store using cfg.DSN.
func NewMySQL(cfg config.DatabaseConfig) (*MySQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN is required when driver is mysql")
	}

	dsn := cfg.DSN
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	store := &MySQLStore{sqlStore: newSQLStore(db, "mysql")}
	if err := store.db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	if err := store.migrate(context.Background(), mysqlSchema); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
