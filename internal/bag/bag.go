package bag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEmptyRun is returned when a run's message table holds no rows.
var ErrEmptyRun = errors.New("run has no messages")

// ErrNotRunStore is returned when a database lacks the topics or messages table.
var ErrNotRunStore = errors.New("not a run store")

// maxReaders bounds the connection pool. Reads never contend on a lock in
// read-only mode, so a handful of connections lets cursors run side by side.
const maxReaders = 4

// Bag is a read-only handle on one run store.
type Bag struct {
	db   *sql.DB
	path string
	name string
}

// Open opens the run store at path in read-only mode.
//
// The connection is configured with:
//   - mode=ro: the file is never created or modified
//   - _query_only: any write statement fails
//   - 5-second busy timeout in case a recorder still holds the file
//
// Open fails if the file is missing, is not a SQLite database, or lacks
// the topics/messages tables.
func Open(path string) (*Bag, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxReaders)
	db.SetMaxIdleConns(maxReaders)

	if err := verifySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Bag{
		db:   db,
		path: path,
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}, nil
}

// Close closes the database connection.
func (b *Bag) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Name returns the run name: the store's file name without extension.
func (b *Bag) Name() string {
	return b.name
}

// Path returns the path the store was opened from.
func (b *Bag) Path() string {
	return b.path
}

// dsn builds a read-only file URI for the sqlite3 driver.
func dsn(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(path))
	return "file:" + escaped + "?mode=ro&_query_only=true&_busy_timeout=5000"
}

// verifySchema checks that the run tables exist.
func verifySchema(db *sql.DB) error {
	for _, table := range []string{"topics", "messages"} {
		var n int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: missing %s table", ErrNotRunStore, table)
		}
	}
	return nil
}

// Range returns the first and last message timestamps of the run.
// Returns ErrEmptyRun if the message table is empty.
func (b *Bag) Range(ctx context.Context) (first, last int64, err error) {
	var lo, hi sql.NullInt64
	err = b.db.QueryRowContext(ctx, "SELECT MIN(timestamp), MAX(timestamp) FROM messages").Scan(&lo, &hi)
	if err != nil {
		return 0, 0, fmt.Errorf("query time range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, ErrEmptyRun
	}
	return lo.Int64, hi.Int64, nil
}

// MessageCount returns the number of rows in the message table.
func (b *Bag) MessageCount(ctx context.Context) (int64, error) {
	var n int64
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}
