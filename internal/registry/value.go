package registry

import (
	"database/sql"
	"fmt"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry/txn"
)

func scanValue(row interface {
	Scan(dest ...any) error
}) (Value, error) {
	var v Value
	if err := row.Scan(&v.ID, &v.Name); err != nil {
		return Value{}, err
	}
	return v, nil
}

// ValueCount returns the number of values in the registry.
func (r *Registry) ValueCount() (int, error) {
	var n int
	err := r.ReadOnly(func(t *txn.Txn) error {
		return t.QueryRow(`SELECT COUNT(*) FROM value`).Scan(&n)
	})
	return n, err
}

// AllValues returns every value in the registry.
func (r *Registry) AllValues() ([]Value, error) {
	var out []Value
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT id, name FROM value ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scanValue(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	return out, err
}

// ValueByID retrieves a value by id. The null sentinel (0) never has a row
// and always reports ErrValueNotFound.
func (r *Registry) ValueByID(id ids.ValueID) (Value, error) {
	if id.IsNull() {
		return Value{}, ErrValueNotFound
	}
	var v Value
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		v, err = valueByIDTx(t, id)
		return err
	})
	return v, err
}

func valueByIDTx(t *txn.Txn, id ids.ValueID) (Value, error) {
	v, err := scanValue(t.QueryRow(`SELECT id, name FROM value WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Value{}, ErrValueNotFound
	}
	return v, err
}

// ValueByName retrieves a value by its exact name.
func (r *Registry) ValueByName(name string) (Value, error) {
	var v Value
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		v, err = scanValue(t.QueryRow(`SELECT id, name FROM value WHERE name = ?`, name))
		return err
	})
	if err == sql.ErrNoRows {
		return Value{}, ErrValueNotFound
	}
	return v, err
}

// ValueByNameIgnoreCase retrieves a value by name, ignoring case.
func (r *Registry) ValueByNameIgnoreCase(name string) (Value, error) {
	var v Value
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		v, err = scanValue(t.QueryRow(`SELECT id, name FROM value WHERE name = ? COLLATE NOCASE`, name))
		return err
	})
	if err == sql.ErrNoRows {
		return Value{}, ErrValueNotFound
	}
	return v, err
}

// ValuesByPattern matches values against a regex, glob, or PCRE pattern.
func (r *Registry) ValuesByPattern(pattern string, kind PatternKind, ignoreCase bool) ([]Value, error) {
	var out []Value
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT id, name FROM value ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scanValue(rows)
			if err != nil {
				return err
			}
			ok, err := matchPattern(pattern, v.Name, kind, ignoreCase)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, v)
			}
		}
		return rows.Err()
	})
	return out, err
}

// InsertValue creates a value on demand. If it already exists, ErrValueExists
// is returned.
func (r *Registry) InsertValue(name string) (Value, error) {
	if err := ids.ValidateName(name); err != nil {
		return Value{}, err
	}
	var v Value
	err := r.ReadWrite(func(t *txn.Txn) error {
		var err error
		v, err = insertValueTx(t, name)
		return err
	})
	return v, err
}

func insertValueTx(t *txn.Txn, name string) (Value, error) {
	existing, err := scanValue(t.QueryRow(`SELECT id, name FROM value WHERE name = ?`, name))
	if err == nil {
		return Value{}, fmt.Errorf("%w: %q", ErrValueExists, existing.Name)
	}
	if err != sql.ErrNoRows {
		return Value{}, err
	}
	res, err := t.Exec(`INSERT INTO value (name) VALUES (?)`, name)
	if err != nil {
		return Value{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Value{}, err
	}
	return Value{ID: ids.ValueID(id), Name: name}, nil
}

// getOrCreateValueTx returns the existing value named name or creates it.
func getOrCreateValueTx(t *txn.Txn, name string) (Value, error) {
	v, err := scanValue(t.QueryRow(`SELECT id, name FROM value WHERE name = ?`, name))
	if err == nil {
		return v, nil
	}
	if err != sql.ErrNoRows {
		return Value{}, err
	}
	return insertValueTx(t, name)
}

// DeleteValue removes a value, cascading to every file-tag referencing it
// and then to any file left untagged by that removal.
func (r *Registry) DeleteValue(id ids.ValueID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		return deleteValueTx(t, id)
	})
}

func deleteValueTx(t *txn.Txn, id ids.ValueID) error {
	if _, err := valueByIDTx(t, id); err != nil {
		return err
	}
	fileIDs, err := fileIDsByValueTx(t, id)
	if err != nil {
		return err
	}
	if _, err := t.Exec(`DELETE FROM file_tag WHERE value_id = ?`, id); err != nil {
		return err
	}
	if _, err := t.Exec(`DELETE FROM impl WHERE implying_value_id = ? OR implied_value_id = ?`, id, id); err != nil {
		return err
	}
	if err := collectOrphansTx(t, fileIDs); err != nil {
		return err
	}
	_, err = t.Exec(`DELETE FROM value WHERE id = ?`, id)
	return err
}

func fileIDsByValueTx(t *txn.Txn, id ids.ValueID) ([]ids.FileID, error) {
	rows, err := t.Query(`SELECT DISTINCT file_id FROM file_tag WHERE value_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ids.FileID
	for rows.Next() {
		var fid ids.FileID
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		out = append(out, fid)
	}
	return out, rows.Err()
}

// valueIDsByFileTx lists every non-null value id referenced by file-tags on
// the given file, for use when the file is deleted and those values may
// become orphaned.
func valueIDsByFileTx(t *txn.Txn, id ids.FileID) ([]ids.ValueID, error) {
	rows, err := t.Query(`SELECT DISTINCT value_id FROM file_tag WHERE file_id = ? AND value_id != 0`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ids.ValueID
	for rows.Next() {
		var vid ids.ValueID
		if err := rows.Scan(&vid); err != nil {
			return nil, err
		}
		out = append(out, vid)
	}
	return out, rows.Err()
}

// collectOrphanValuesTx deletes every value in valueIDs that is no longer
// referenced by any file-tag, implementing "deleted implicitly when the
// last referencing file-tag is removed."
func collectOrphanValuesTx(t *txn.Txn, valueIDs []ids.ValueID) error {
	for _, id := range valueIDs {
		var n int
		if err := t.QueryRow(`SELECT COUNT(*) FROM file_tag WHERE value_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			if _, err := t.Exec(`DELETE FROM value WHERE id = ?`, id); err != nil {
				return err
			}
		}
	}
	return nil
}
