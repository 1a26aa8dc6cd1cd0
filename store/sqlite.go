package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the history in an SQLite database so it survives
// restarts and does not sit on the Go heap.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS history (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    filename_base TEXT NOT NULL,
    stamp TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    version INTEGER NOT NULL DEFAULT 0,
    level TEXT NOT NULL DEFAULT '',
    png BLOB NOT NULL,
    svg BLOB NOT NULL,
    pdf BLOB NOT NULL
);
`

const createHistoryIndexes = `
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
`

// NewSQLiteStore opens (or creates) the database at dbPath, initialises the
// schema and returns a store capped at max entries.
func NewSQLiteStore(dbPath string, max int) (*SQLiteStore, error) {
	if max <= 0 {
		return nil, fmt.Errorf("history size must be positive, got %d", max)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{createHistoryTable, createHistoryIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &SQLiteStore{db: db, max: max}, nil
}

// Save inserts e and deletes the oldest rows beyond the cap in the same
// transaction. Saving an existing ID replaces it.
func (s *SQLiteStore) Save(ctx context.Context, e *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	const insert = `
		INSERT OR REPLACE INTO history
			(id, text, filename_base, stamp, created_at, version, level, png, svg, pdf)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insert,
		e.ID,
		e.Text,
		e.FilenameBase,
		e.Timestamp,
		e.CreatedAt.UnixNano(),
		e.Version,
		e.Level,
		nonNil(e.PNG),
		nonNil(e.SVG),
		nonNil(e.PDF),
	); err != nil {
		return fmt.Errorf("save history entry: %w", err)
	}

	const evict = `
		DELETE FROM history WHERE id IN (
			SELECT id FROM history
			ORDER BY created_at DESC, rowid DESC
			LIMIT -1 OFFSET ?
		)
	`
	if _, err := tx.ExecContext(ctx, evict, s.max); err != nil {
		return fmt.Errorf("evict history entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Get returns the entry with the given ID including its documents.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	const query = `
		SELECT id, text, filename_base, stamp, created_at, version, level, png, svg, pdf
		FROM history
		WHERE id = ?
	`
	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Text, &e.FilenameBase, &e.Timestamp, &created,
		&e.Version, &e.Level, &e.PNG, &e.SVG, &e.PDF,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, created)
	return &e, nil
}

// List returns summaries ordered by creation time, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
		SELECT id, text, filename_base, stamp, created_at, version, level
		FROM history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sm      Summary
			created int64
		)
		if err := rows.Scan(&sm.ID, &sm.Text, &sm.FilenameBase, &sm.Timestamp, &created, &sm.Version, &sm.Level); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		sm.CreatedAt = time.Unix(0, created)
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

// Clear deletes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers ----------------------------------------------------------------

// nonNil keeps NOT NULL blob columns satisfied for empty documents.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
