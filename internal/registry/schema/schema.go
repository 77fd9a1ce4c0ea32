// Package schema holds the registry's DDL, its version row, and the
// forward-migration machinery that runs at open time.
package schema

import (
	"database/sql"
	"fmt"
)

// Version is the registry's schema version, recorded as a single row.
type Version struct {
	Major, Minor, Patch int
}

// String renders a Version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// Current is the schema version this binary understands. A registry file
// with a strictly greater version is fatal to open (written by a newer
// binary); strictly less triggers a forward migration.
var Current = Version{Major: 1, Minor: 0, Patch: 0}

// ddl creates every table the registry needs, each guarded by IF NOT
// EXISTS so EnsureSchema is idempotent on an already-initialized file.
const ddl = `
CREATE TABLE IF NOT EXISTS tag (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS file (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	directory TEXT NOT NULL,
	basename  TEXT NOT NULL,
	hash      TEXT NOT NULL DEFAULT '',
	mime      TEXT NOT NULL DEFAULT '',
	mtime     INTEGER NOT NULL DEFAULT 0,
	mode      INTEGER NOT NULL DEFAULT 0,
	inode     INTEGER NOT NULL DEFAULT 0,
	size      INTEGER NOT NULL DEFAULT 0,
	is_dir    INTEGER NOT NULL DEFAULT 0,
	UNIQUE(directory, basename)
);

CREATE TABLE IF NOT EXISTS value (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS file_tag (
	file_id  INTEGER NOT NULL REFERENCES file(id),
	tag_id   INTEGER NOT NULL REFERENCES tag(id),
	value_id INTEGER NOT NULL DEFAULT 0,
	explicit INTEGER NOT NULL DEFAULT 1,
	implicit INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (file_id, tag_id, value_id)
);

CREATE TABLE IF NOT EXISTS impl (
	implying_tag_id   INTEGER NOT NULL,
	implying_value_id INTEGER NOT NULL DEFAULT 0,
	implied_tag_id    INTEGER NOT NULL,
	implied_value_id  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (implying_tag_id, implying_value_id, implied_tag_id, implied_value_id)
);

CREATE TABLE IF NOT EXISTS query (
	text TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS version (
	major INTEGER NOT NULL,
	minor INTEGER NOT NULL,
	patch INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_file_hash      ON file(hash);
CREATE INDEX IF NOT EXISTS idx_filetag_tag    ON file_tag(tag_id);
CREATE INDEX IF NOT EXISTS idx_filetag_value  ON file_tag(value_id);
CREATE INDEX IF NOT EXISTS idx_impl_implying  ON impl(implying_tag_id, implying_value_id);
CREATE INDEX IF NOT EXISTS idx_impl_implied   ON impl(implied_tag_id, implied_value_id);
`

// ErrNewerSchema is returned when the registry file was written by a
// binary understanding a strictly greater schema version than this one.
type ErrNewerSchema struct {
	Found, Want Version
}

func (e ErrNewerSchema) Error() string {
	return fmt.Sprintf("registry schema %s is newer than this binary understands (%s)", e.Found, e.Want)
}

// EnsureSchema creates the tables/indices if absent, then reads (or writes)
// the version row and runs forward migrations as needed. It must run
// inside the caller's single open-time setup, before any other connection
// touches the file concurrently.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	found, err := readVersion(db)
	if err != nil {
		return fmt.Errorf("reading version row: %w", err)
	}
	if found == nil {
		if err := writeVersion(db, Current); err != nil {
			return fmt.Errorf("writing initial version row: %w", err)
		}
		return runColumnMigrations(db)
	}

	if Current.Less(*found) {
		return ErrNewerSchema{Found: *found, Want: Current}
	}
	if found.Less(Current) {
		if err := runColumnMigrations(db); err != nil {
			return fmt.Errorf("migrating schema from %s to %s: %w", found, Current, err)
		}
		if err := writeVersion(db, Current); err != nil {
			return fmt.Errorf("updating version row: %w", err)
		}
	}
	return nil
}

func readVersion(db *sql.DB) (*Version, error) {
	row := db.QueryRow(`SELECT major, minor, patch FROM version LIMIT 1`)
	var v Version
	if err := row.Scan(&v.Major, &v.Minor, &v.Patch); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func writeVersion(db *sql.DB, v Version) error {
	if _, err := db.Exec(`DELETE FROM version`); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT INTO version (major, minor, patch) VALUES (?, ?, ?)`, v.Major, v.Minor, v.Patch)
	return err
}

// columnMigration describes one "ALTER TABLE ... ADD COLUMN" forward
// migration, table-driven like the teacher's pendingMigrations.
type columnMigration struct {
	Table, Column, Def string
}

// columnMigrations lists every forward migration this binary knows about.
// Empty for schema v1.0.0 (the initial shipped shape); future schema
// revisions append here rather than editing ddl, so older registries
// upgrade in place.
var columnMigrations []columnMigration

func runColumnMigrations(db *sql.DB) error {
	for _, m := range columnMigrations {
		if !tableExists(db, m.Table) {
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", m.Table, m.Column, err)
		}
	}
	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	return err == nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}
