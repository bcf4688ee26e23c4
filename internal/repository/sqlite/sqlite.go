// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: a single file, no separate server to
// run. For a single-process backend like this one it buys the thing the
// original deployment lacked: real multi-statement transactions, which are
// what keep the recommendation counter consistent with the recommendation
// rows (see recommendation.go).
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, trivial cross-compilation.
//
// CONCURRENCY MODEL:
// WAL mode lets reads proceed while a write is in flight, and the pool is
// capped at one connection so writers serialize inside SQLite rather than
// failing with SQLITE_BUSY under concurrent counter mutations. A busy
// timeout covers the file-lock edge cases that remain. Every operation runs
// under a bounded per-call timeout; hitting it surfaces as the application's
// "store unavailable" error rather than hanging a request.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Blank import: the driver registers itself with database/sql under
	// the name "sqlite" in its init().
	_ "modernc.org/sqlite"

	"github.com/nahid/queryhive-server/internal/apperror"
)

// defaultOpTimeout bounds a single store operation when the caller didn't
// configure one.
const defaultOpTimeout = 5 * time.Second

// DB wraps a sql.DB pool and implements the repository interfaces
// (QueryRepository, RecommendationRepository, UserRepository).
type DB struct {
	conn      *sql.DB
	opTimeout time.Duration
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/queryhive.db" → file-based, persistent
//   - ":memory:"          → in-memory, destroyed on close (tests)
//
// opTimeout bounds each store operation; pass 0 for the default.
func New(dbPath string, opTimeout time.Duration) (*DB, error) {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite allows a single writer anyway, and a capped
	// pool also keeps ":memory:" databases coherent (each pool connection
	// would otherwise get its own empty in-memory database).
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Wait up to 5s for a lock instead of failing immediately.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	// Referential integrity for recommendations(query_id) → queries(id).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, opTimeout: opTimeout}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after
// New so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
//
// The CHECK on recommendation_count is a backstop: the decrement path
// clamps at zero itself, so the constraint should never fire, but if a
// future code path forgets, the store refuses the write instead of going
// negative.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS queries (
			id                        TEXT PRIMARY KEY,
			user_email                TEXT NOT NULL DEFAULT '',
			user_name                 TEXT NOT NULL DEFAULT '',
			query_title               TEXT NOT NULL DEFAULT '',
			product_name              TEXT NOT NULL DEFAULT '',
			product_brand             TEXT NOT NULL DEFAULT '',
			product_image_url         TEXT NOT NULL DEFAULT '',
			boycotting_reason_details TEXT NOT NULL DEFAULT '',
			timestamp                 DATETIME NOT NULL,
			recommendation_count      INTEGER NOT NULL DEFAULT 0
			                          CHECK (recommendation_count >= 0)
		);
		CREATE INDEX IF NOT EXISTS idx_queries_timestamp ON queries(timestamp);
		CREATE INDEX IF NOT EXISTS idx_queries_user_email ON queries(user_email);
	`)
	if err != nil {
		return fmt.Errorf("creating queries table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recommendations (
			id                            TEXT PRIMARY KEY,
			query_id                      TEXT NOT NULL REFERENCES queries(id),
			recommendation_title          TEXT NOT NULL DEFAULT '',
			recommended_product_name      TEXT NOT NULL DEFAULT '',
			recommended_product_image_url TEXT NOT NULL DEFAULT '',
			recommendation_reason         TEXT NOT NULL DEFAULT '',
			recommendation_email          TEXT NOT NULL DEFAULT '',
			recommender_name              TEXT NOT NULL DEFAULT '',
			created_at                    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recommendations_query_id ON recommendations(query_id);
		CREATE INDEX IF NOT EXISTS idx_recommendations_email ON recommendations(recommendation_email);
	`)
	if err != nil {
		return fmt.Errorf("creating recommendations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			photo_url     TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

// opCtx derives the bounded context every store operation runs under.
func (db *DB) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.opTimeout)
}

// storeErr wraps a low-level error, translating operation-timeout
// exhaustion into the application's Unavailable error.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Unavailable(op)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// inTx runs fn inside a transaction, committing on nil and rolling back on
// error. The counter-pairing operations (recommendation create/delete,
// query cascade delete) all go through here; the pairing is what keeps
// recommendation_count equal to the number of live recommendation rows.
func (db *DB) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		// Application errors (NotFound etc.) pass through untouched.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return storeErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}
