package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/recordstore/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial record-store schema
const currentSchemaVersion = 1

// ErrNestedTransaction is returned when Transaction is called while a
// transaction is already active on the same Store.
var ErrNestedTransaction = errors.New("nested transactions are not supported")

// Store owns the connection to one local SQLite file.
//
// The store is single-writer: the pool is pinned to one connection, and
// while a Transaction is active every Exec and Query on the Store runs
// inside it. Callers must not share a Store across goroutines that write
// concurrently.
type Store struct {
	db   *sql.DB
	path string

	mu sync.Mutex
	tx *sql.Tx
}

// Result reports the effect of a mutation.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Option configures Open.
type Option func(*options)

type options struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a statement waits on a locked file.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// Open creates or opens the SQLite file at path and applies the schema.
//
// The connection is configured with:
//   - WAL journal mode
//   - NORMAL synchronous mode
//   - a busy timeout (5 seconds unless overridden)
//   - foreign key enforcement
//   - IMMEDIATE write transactions
//
// Opening is idempotent. An unreachable or unwritable path fails with a
// StorageUnavailable error.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", dsn(path, o))
	if err != nil {
		return nil, storageUnavailable("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageUnavailable("connect to database", err)
	}

	// SQLite allows one writer at a time; keep exactly one connection so
	// transactions and plain statements never contend for the file lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// uriPath escapes the characters SQLite reads as URI syntax in a file:
// name, so that "a#1.db" names that file and not "a".
var uriPath = strings.NewReplacer("%", "%25", "#", "%23", "?", "%3F")

// dsn builds the go-sqlite3 connection string. Pragmas are part of the DSN
// so that a replaced connection is configured identically.
func dsn(path string, o options) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", fmt.Sprintf("%d", o.busyTimeout.Milliseconds()))
	q.Set("_txlock", "immediate")
	return "file:" + uriPath.Replace(path) + "?" + q.Encode()
}

// Path returns the file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file handle. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn returns the active transaction if there is one, else the pool.
func (s *Store) conn() execer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Exec runs a parameterized mutation and reports rows affected and the
// last inserted id. Backend failures are classified into *Error kinds.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := s.conn().ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, classify("exec", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, classify("rows affected", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return Result{}, classify("last insert id", err)
	}

	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

// Query runs a parameterized SELECT and returns every row as a tuple.
// The cursor is closed before Query returns. An empty result is an empty
// (non-nil) slice.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]model.Row, error) {
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify("query columns", err)
	}

	out := []model.Row{}
	for rows.Next() {
		row := make(model.Row, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify("scan row", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate rows", err)
	}

	return out, nil
}

// QueryOne runs a SELECT expected to yield at most one row.
// It returns the row and whether one was found.
func (s *Store) QueryOne(ctx context.Context, query string, args ...any) (model.Row, bool, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Transaction runs fn inside a single database transaction. The
// transaction commits when fn returns nil and rolls back when fn returns
// an error or panics; fn's error is returned unchanged.
//
// Transactions do not nest: calling Transaction from inside fn returns
// ErrNestedTransaction.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.tx != nil {
		s.mu.Unlock()
		return ErrNestedTransaction
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return classify("begin transaction", err)
	}
	s.tx = tx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.tx = nil
		s.mu.Unlock()
	}()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// InTransaction reports whether a Transaction is currently active.
func (s *Store) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// applySchema creates tables if they don't exist and records the schema
// version. This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return classify("apply schema", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return classify("get user_version", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return classify("set user_version", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
