package registry

import (
	"database/sql"
	"fmt"

	"github.com/lmburns/wutag/internal/registry/schema"
	"github.com/lmburns/wutag/internal/registry/txn"
	"github.com/lmburns/wutag/internal/wlog"
)

// Registry is the tag registry: a single embedded-database file holding
// the authoritative relational model, accessed through the transaction
// layer in internal/registry/txn.
type Registry struct {
	mgr     *txn.Manager
	writeDB *sql.DB
	readDB  *sql.DB
	path    string
}

// Open opens (creating if absent) the registry file at path, registers the
// pattern-matching SQL functions, and ensures the schema is current.
func Open(path string) (*Registry, error) {
	timer := wlog.StartTimer(wlog.CategoryRegistry, "Open")
	defer timer.Stop()

	registerDriver()

	writeDB, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening registry write connection: %w", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)

	readDB, err := sql.Open(driverName, path)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening registry read connection: %w", err)
	}

	for _, db := range []*sql.DB{writeDB, readDB} {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
		if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
		if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("setting busy_timeout: %w", err)
		}
	}

	if err := schema.EnsureSchema(writeDB); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	wlog.Get(wlog.CategoryRegistry).Infow("registry opened", "path", path)

	return &Registry{
		mgr:     txn.NewManager(writeDB, readDB),
		writeDB: writeDB,
		readDB:  readDB,
		path:    path,
	}, nil
}

// Close releases both connection pools.
func (r *Registry) Close() error {
	werr := r.writeDB.Close()
	rerr := r.readDB.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// Path returns the registry file path this instance was opened with.
func (r *Registry) Path() string { return r.path }

// ReadOnly runs fn in a read-only transaction.
func (r *Registry) ReadOnly(fn func(*txn.Txn) error) error {
	return r.mgr.ReadOnly(fn)
}

// ReadWrite runs fn in a read-write transaction, serialized against other
// writers.
func (r *Registry) ReadWrite(fn func(*txn.Txn) error) error {
	return r.mgr.ReadWrite(fn)
}
