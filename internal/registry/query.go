package registry

import (
	"database/sql"

	"github.com/lmburns/wutag/internal/registry/txn"
)

// AllSavedQueries returns every saved query string.
func (r *Registry) AllSavedQueries() ([]SavedQuery, error) {
	var out []SavedQuery
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT text FROM query ORDER BY text`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var q SavedQuery
			if err := rows.Scan(&q.Text); err != nil {
				return err
			}
			out = append(out, q)
		}
		return rows.Err()
	})
	return out, err
}

// InsertSavedQuery stores a query string. Storing the same text twice is a
// no-op.
func (r *Registry) InsertSavedQuery(text string) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(`INSERT OR IGNORE INTO query (text) VALUES (?)`, text)
		return err
	})
}

// DeleteSavedQuery removes a stored query string.
func (r *Registry) DeleteSavedQuery(text string) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(`DELETE FROM query WHERE text = ?`, text)
		return err
	})
}

// SavedQueryExists reports whether text is already stored.
func (r *Registry) SavedQueryExists(text string) (bool, error) {
	var exists bool
	err := r.ReadOnly(func(t *txn.Txn) error {
		var got string
		err := t.QueryRow(`SELECT text FROM query WHERE text = ?`, text).Scan(&got)
		if err == sql.ErrNoRows {
			return nil
		}
		exists = err == nil
		return err
	})
	return exists, err
}
