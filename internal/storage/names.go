package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const nameKey = "user_name"

// NameStore persists the bot's remembered user name in bot_memory.
type NameStore struct {
	db     *sql.DB
	driver string
}

func NewNameStore(db *sql.DB, driver string) *NameStore {
	return &NameStore{db: db, driver: normalizeDriver(driver)}
}

func (s *NameStore) Name(ctx context.Context) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT mvalue FROM bot_memory WHERE mkey = ?`, nameKey).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query name: %w", err)
	}
	return name, true, nil
}

func (s *NameStore) SetName(ctx context.Context, name string) error {
	var stmt string
	switch s.driver {
	case "mysql":
		stmt = `INSERT INTO bot_memory (mkey, mvalue, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE mvalue = VALUES(mvalue), updated_at = VALUES(updated_at)`
	default:
		stmt = `INSERT INTO bot_memory (mkey, mvalue, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(mkey) DO UPDATE SET mvalue = excluded.mvalue, updated_at = excluded.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, stmt, nameKey, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("store name: %w", err)
	}
	return nil
}
