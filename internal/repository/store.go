// Package repository implements storage.Store on top of database/sql for
// PostgreSQL and SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/atinyakov/CragLog/internal/metrics"
	"github.com/atinyakov/CragLog/internal/storage"
)

// Dialect selects SQL flavor differences between supported databases.
type Dialect int

const (
	// Postgres uses $n placeholders, TEXT[] tags and SERIALIZABLE transactions.
	Postgres Dialect = iota
	// SQLite uses ? placeholders, JSON tags and database-level write locks.
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const defaultTxAttempts = 3

// SQLStore implements storage.Store for PostgreSQL and SQLite.
type SQLStore struct {
	// DB is the database handle transactions are started from.
	DB *sql.DB

	dialect     Dialect
	q           queryer
	inTx        bool
	txAttempts  uint
	retryPolicy func() backoff.BackOff
	now         func() time.Time
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithTxAttempts bounds how many times WithinTx runs a transaction that
// keeps failing with a serialization conflict.
func WithTxAttempts(n uint) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.txAttempts = n
		}
	}
}

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) { s.now = now }
}

// WithBackOff overrides the delay policy between transaction attempts.
func WithBackOff(policy func() backoff.BackOff) Option {
	return func(s *SQLStore) { s.retryPolicy = policy }
}

// NewPostgresStore creates a store backed by a PostgreSQL connection.
func NewPostgresStore(db *sql.DB, opts ...Option) *SQLStore {
	return newStore(db, Postgres, opts)
}

// NewSQLiteStore creates a store backed by an SQLite connection.
func NewSQLiteStore(db *sql.DB, opts ...Option) *SQLStore {
	return newStore(db, SQLite, opts)
}

func newStore(db *sql.DB, d Dialect, opts []Option) *SQLStore {
	s := &SQLStore{
		DB:         db,
		dialect:    d,
		q:          db,
		txAttempts: defaultTxAttempts,
		retryPolicy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 250 * time.Millisecond
			return b
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect reports the SQL flavor of the store.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// WithinTx runs fn in one transaction, retrying the whole transaction
// when it fails with storage.ErrSerialization.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	op := func() (struct{}, error) {
		err := s.runTx(ctx, fn)
		if err != nil && !errors.Is(err, storage.ErrSerialization) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.retryPolicy()),
		backoff.WithMaxTries(s.txAttempts),
		backoff.WithNotify(func(error, time.Duration) {
			metrics.TxRetriesTotal.WithLabelValues(s.dialect.String()).Inc()
		}),
	)
	return err
}

func (s *SQLStore) runTx(ctx context.Context, fn func(tx storage.Store) error) error {
	tx, err := s.DB.BeginTx(ctx, s.txOptions())
	if err != nil {
		return fmt.Errorf("begin tx: %w", s.classify(err, storage.ErrSerialization))
	}
	defer tx.Rollback()

	txStore := *s
	txStore.q = tx
	txStore.inTx = true

	if err := fn(&txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", s.classify(err, storage.ErrSerialization))
	}
	return nil
}

func (s *SQLStore) txOptions() *sql.TxOptions {
	if s.dialect == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// deleteByID removes one row and reports storage.ErrNotFound when no row
// matched.
func (s *SQLStore) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, s.classify(err, storage.ErrSerialization))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) count(ctx context.Context, table string, w where) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM `+table+w.String(), w.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, s.classify(err, storage.ErrNotFound))
	}
	return n, nil
}

// classify maps driver errors onto the storage error taxonomy. Foreign
// key violations become fkErr: a dangling reference on insert is
// storage.ErrNotFound, a row that gained a new child while being deleted
// is storage.ErrSerialization.
func (s *SQLStore) classify(err error, fkErr error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", storage.ErrConflict, err)
		case "23503":
			return fmt.Errorf("%w: %w", fkErr, err)
		case "40001", "40P01":
			return fmt.Errorf("%w: %w", storage.ErrSerialization, err)
		}
		return err
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", storage.ErrConflict, err)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", fkErr, err)
		}
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", storage.ErrSerialization, err)
		}
	}
	return err
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *SQLStore) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	// Stored with millisecond precision.
	return fromMillis(toMillis(t))
}

var _ storage.Store = (*SQLStore)(nil)
