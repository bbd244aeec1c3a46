// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary needs no C toolchain.
//
// ONE CONNECTION:
// The pool is capped at a single connection. SQLite serialises writers
// anyway, PRAGMAs are per-connection, and ":memory:" databases are
// per-connection too, so one connection keeps every query on the same
// database with the same settings. Code running inside a transaction must
// therefore use the *sqlx.Tx and never db.conn, or it would wait forever for
// the connection the transaction already holds.
//
// MUTATIONS AND OBSERVERS:
// Every mutating method goes through mutate(), which
//  1. refuses to run unless an actor is bound to the context,
//  2. reads the clock once and runs the write in a transaction stamped with
//     that time,
//  3. hands each resulting repository.Mutation to the observers registered
//     for that entity type, in registration order, with an audit appender
//     bound to the same transaction and the same time,
//  4. commits.
//
// Because the entity's updated_at and the audit record's timestamp come from
// the same reading, a record is never older than the change it describes,
// whatever the wall clock does in between.
//
// An observer error rolls the whole mutation back, which makes the audit
// trail and the entities impossible to diverge.
package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB owns the connection pool and the observer registry.
// Users, Snippets and Audit return the per-entity repositories.
type DB struct {
	conn *sqlx.DB

	mu        sync.RWMutex
	observers map[model.ModelName][]repository.MutationObserver
}

// New opens (or creates) the database at dbPath and migrates it to the
// latest schema. Use ":memory:" for a throwaway database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers from other processes (e.g. snippetctl) proceed while
	// the server writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{
		conn:      conn,
		observers: make(map[model.ModelName][]repository.MutationObserver),
	}

	if _, err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate applies any pending embedded migrations and returns the schema
// version the database ends up at. It is safe to call repeatedly.
func (db *DB) Migrate() (uint, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("sqlite: loading migrations: %w", err)
	}
	defer src.Close()

	driver, err := migratesqlite.WithInstance(db.conn.DB, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("sqlite: preparing migration driver: %w", err)
	}

	// migrate.Close is never called: the sqlite driver would close db.conn.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("sqlite: preparing migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("sqlite: schema version %d is dirty", version)
	}
	return version, nil
}

// Observe registers observers for mutations of the given entity type.
// Observers run in the order they were registered across all calls.
func (db *DB) Observe(name model.ModelName, observers ...repository.MutationObserver) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.observers[name] = append(db.observers[name], observers...)
}

func (db *DB) observersFor(name model.ModelName) []repository.MutationObserver {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.observers[name]
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB { return &UserDB{db: db} }

// Snippets returns the snippet repository backed by this database.
func (db *DB) Snippets() *SnippetDB { return &SnippetDB{db: db} }

// Audit returns the append-only audit repository backed by this database.
func (db *DB) Audit() *AuditDB { return &AuditDB{db: db} }

// mutate runs fn in a transaction and dispatches the mutations it reports.
// fn must only touch the database through tx, and must use ts for any
// timestamp it stores.
func (db *DB) mutate(ctx context.Context, fn func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error)) error {
	if _, ok := actor.FromContext(ctx); !ok {
		return fmt.Errorf("sqlite: refusing unattributed mutation: %w", apperror.ErrNoActor)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	ts := now()
	mutations, err := fn(tx, ts)
	if err != nil {
		return err
	}

	appender := txAppender{tx: tx, ts: ts}
	for _, m := range mutations {
		for _, obs := range db.observersFor(m.Model) {
			if err := obs.AfterMutation(ctx, appender, m); err != nil {
				return fmt.Errorf("sqlite: observing %s %d %s: %w", m.Model, m.ObjectID, m.Kind, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// now is the single clock for every stored timestamp.
func now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
