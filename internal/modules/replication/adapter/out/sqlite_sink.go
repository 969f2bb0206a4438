package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flux/internal/modules/replication/domain"
	replicationout "flux/internal/modules/replication/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteSink mirrors events into a local table so the history can be
// queried with plain SQL.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(dbPath string) (replicationout.Sink, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sink := &SQLiteSink{db: db}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *SQLiteSink) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  payload TEXT NOT NULL,
  replicated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_type_timestamp ON events(type, timestamp);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Push(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin events tx: %w", err)
	}
	const stmt = `
INSERT INTO events (id, type, timestamp, payload, replicated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  type=excluded.type,
  timestamp=excluded.timestamp,
  payload=excluded.payload,
  replicated_at=excluded.replicated_at;
`
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, record := range records {
		payload := string(record.Payload)
		if payload == "" {
			payload = "null"
		}
		if _, err := tx.ExecContext(ctx, stmt, record.ID, record.Type, record.Timestamp, payload, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert event %s: %w", record.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}
	return nil
}

// Count reports how many events the mirror holds, optionally for one type.
func (s *SQLiteSink) Count(ctx context.Context, eventType string) (int, error) {
	query := `SELECT COUNT(*) FROM events`
	args := []any{}
	if eventType != "" {
		query += ` WHERE type = ?`
		args = append(args, eventType)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
