// Package txn implements the registry's transaction layer: scoped units of
// work over the embedded store, with read_only, read_write, and nested
// variants matching the registry's concurrency contract (one writer at a
// time, unlimited concurrent readers).
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Txn is a handle to one unit of work. It wraps a *sql.Tx and is passed to
// registry API methods so composite operations (e.g. "delete tag" deleting
// file-tags, then orphaned files, then the tag) run atomically.
type Txn struct {
	tx       *sql.Tx
	id       uuid.UUID
	readOnly bool
}

// ID returns the transaction's correlation id, used to group related log
// entries for a single unit of work.
func (t *Txn) ID() uuid.UUID { return t.id }

// ReadOnly reports whether this Txn was opened via ReadOnly (for callers
// that want to assert they aren't about to attempt a write on it).
func (t *Txn) ReadOnly() bool { return t.readOnly }

// Exec runs a statement that doesn't return rows.
func (t *Txn) Exec(query string, args ...any) (sql.Result, error) {
	return t.tx.Exec(query, args...)
}

// Query runs a statement that returns rows.
func (t *Txn) Query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.Query(query, args...)
}

// QueryRow runs a statement expected to return at most one row.
func (t *Txn) QueryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRow(query, args...)
}

// Manager owns the two connection pools backing the registry: a
// single-connection write pool (serializing writers, per the resource
// model) and an unbounded read pool (readers never block each other).
type Manager struct {
	writeDB *sql.DB
	readDB  *sql.DB
	writeMu sync.Mutex
}

// NewManager builds a Manager from two already-opened *sql.DB handles. The
// caller is expected to have configured writeDB with SetMaxOpenConns(1).
func NewManager(writeDB, readDB *sql.DB) *Manager {
	return &Manager{writeDB: writeDB, readDB: readDB}
}

// ReadOnly runs fn in a read-only transaction against the read pool. No
// lock escalation occurs: concurrent ReadOnly calls may run in parallel
// with each other and with an in-flight ReadWrite.
func (m *Manager) ReadOnly(fn func(*Txn) error) error {
	sqlTx, err := m.readDB.BeginTx(context.Background(), &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read-only transaction: %w", err)
	}
	t := &Txn{tx: sqlTx, id: uuid.New(), readOnly: true}
	if err := fn(t); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit read-only transaction: %w", err)
	}
	return nil
}

// ReadWrite runs fn in a read-write transaction against the write pool,
// serialized against other ReadWrite calls. It commits on a nil return and
// rolls back on error, surfacing the error to the caller.
func (m *Manager) ReadWrite(fn func(*Txn) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	sqlTx, err := m.writeDB.Begin()
	if err != nil {
		return fmt.Errorf("begin read-write transaction: %w", err)
	}
	t := &Txn{tx: sqlTx, id: uuid.New()}
	if err := fn(t); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit read-write transaction: %w", err)
	}
	return nil
}

// Nested runs fn against an already-open Txn without opening a new
// transaction, so it participates in the enclosing unit of work. It exists
// so composite registry operations can call single-purpose helpers (each
// written to also work standalone via ReadWrite) without nesting real
// SQLite transactions, which are not supported by database/sql's *sql.Tx.
func Nested(existing *Txn, fn func(*Txn) error) error {
	return fn(existing)
}
