package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Per-session key/value state (cart, pastOrders)
CREATE TABLE IF NOT EXISTS session_state(
  session_id TEXT NOT NULL,
  state_key  TEXT NOT NULL,
  value      TEXT NOT NULL,
  updated_at TEXT,
  PRIMARY KEY (session_id, state_key)
);
CREATE INDEX IF NOT EXISTS idx_session_state_updated ON session_state(updated_at);
`
	_, err := db.Exec(schema)
	return err
}

// SQLiteState is the default StateStore.
type SQLiteState struct{ db *sqlx.DB }

func NewSQLiteState(db *sqlx.DB) *SQLiteState { return &SQLiteState{db: db} }

func (s *SQLiteState) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	var v string
	err := s.db.GetContext(ctx, &v, `SELECT value FROM session_state WHERE session_id = ? AND state_key = ?`, sessionID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *SQLiteState) Save(ctx context.Context, sessionID, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state(session_id, state_key, value, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(session_id, state_key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, sessionID, key, string(value), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteState) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE session_id = ? AND state_key = ?`, sessionID, key)
	return err
}
