package registry

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry/txn"
)

func scanTag(row interface {
	Scan(dest ...any) error
}) (Tag, error) {
	var t Tag
	var color string
	if err := row.Scan(&t.ID, &t.Name, &color); err != nil {
		return Tag{}, err
	}
	t.Color = ids.Color(color)
	return t, nil
}

// TagCount returns the number of tags in the registry.
func (r *Registry) TagCount() (int, error) {
	var n int
	err := r.ReadOnly(func(t *txn.Txn) error {
		return t.QueryRow(`SELECT COUNT(*) FROM tag`).Scan(&n)
	})
	return n, err
}

// AllTags returns every tag in the registry.
func (r *Registry) AllTags() ([]Tag, error) {
	var out []Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT id, name, color FROM tag ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			tag, err := scanTag(rows)
			if err != nil {
				return err
			}
			out = append(out, tag)
		}
		return rows.Err()
	})
	return out, err
}

// TagByID retrieves a tag by id.
func (r *Registry) TagByID(id ids.TagID) (Tag, error) {
	var tag Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		tag, err = tagByIDTx(t, id)
		return err
	})
	return tag, err
}

func tagByIDTx(t *txn.Txn, id ids.TagID) (Tag, error) {
	tag, err := scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Tag{}, ErrTagNotFound
	}
	return tag, err
}

// TagByName retrieves a tag by its exact (case-sensitive) name.
func (r *Registry) TagByName(name string) (Tag, error) {
	var tag Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		tag, err = scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE name = ?`, name))
		return err
	})
	if err == sql.ErrNoRows {
		return Tag{}, ErrTagNotFound
	}
	return tag, err
}

// TagByNameIgnoreCase retrieves a tag by name, ignoring case.
func (r *Registry) TagByNameIgnoreCase(name string) (Tag, error) {
	var tag Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		tag, err = scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE name = ? COLLATE NOCASE`, name))
		return err
	})
	if err == sql.ErrNoRows {
		return Tag{}, ErrTagNotFound
	}
	return tag, err
}

// TagsByNames retrieves every tag whose name matches one of names.
// ignoreCase selects case-insensitive matching.
func (r *Registry) TagsByNames(names []string, ignoreCase bool) ([]Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		args[i] = n
	}
	collate := ""
	if ignoreCase {
		collate = " COLLATE NOCASE"
	}
	query := fmt.Sprintf(`SELECT id, name, color FROM tag WHERE name%s IN (%s)`, collate, strings.Join(placeholders, ","))

	var out []Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			tag, err := scanTag(rows)
			if err != nil {
				return err
			}
			out = append(out, tag)
		}
		return rows.Err()
	})
	return out, err
}

// PatternKind selects the pattern syntax used by TagsByPattern and
// ValuesByPattern.
type PatternKind int

const (
	PatternRegex PatternKind = iota
	PatternGlob
	PatternPCRE
)

// TagsByPattern matches tags against a regex, glob, or PCRE pattern, in
// either case-sensitive or case-insensitive form, per the registry's
// pattern-query contract.
func (r *Registry) TagsByPattern(pattern string, kind PatternKind, ignoreCase bool) ([]Tag, error) {
	var out []Tag
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT id, name, color FROM tag ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			tag, err := scanTag(rows)
			if err != nil {
				return err
			}
			ok, err := matchPattern(pattern, tag.Name, kind, ignoreCase)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, tag)
			}
		}
		return rows.Err()
	})
	return out, err
}

func matchPattern(pattern, s string, kind PatternKind, ignoreCase bool) (bool, error) {
	switch kind {
	case PatternGlob:
		return matchGlob(pattern, s, ignoreCase)
	case PatternPCRE:
		return matchPCRE(pattern, s, ignoreCase)
	default:
		return matchRegex(pattern, s, ignoreCase)
	}
}

// InsertTag creates a tag on demand. If a tag with this name already
// exists, ErrTagExists is returned.
func (r *Registry) InsertTag(name string, color ids.Color) (Tag, error) {
	if err := ids.ValidateName(name); err != nil {
		return Tag{}, err
	}
	if ids.IsReservedWord(name) {
		return Tag{}, fmt.Errorf("%w: %q is a reserved query keyword", ids.ErrInvalidName, name)
	}
	if color == "" {
		color = ids.DefaultColor
	}

	var tag Tag
	err := r.ReadWrite(func(t *txn.Txn) error {
		var err error
		tag, err = insertTagTx(t, name, color)
		return err
	})
	return tag, err
}

func insertTagTx(t *txn.Txn, name string, color ids.Color) (Tag, error) {
	existing, err := scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE name = ?`, name))
	if err == nil {
		return Tag{}, fmt.Errorf("%w: %q", ErrTagExists, existing.Name)
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}

	res, err := t.Exec(`INSERT INTO tag (name, color) VALUES (?, ?)`, name, string(color))
	if err != nil {
		return Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: ids.TagID(id), Name: name, Color: color}, nil
}

// GetOrCreateTag returns the existing tag named name, creating it with the
// given default color if it doesn't exist yet.
func (r *Registry) GetOrCreateTag(name string, defaultColor ids.Color) (Tag, error) {
	var tag Tag
	err := r.ReadWrite(func(t *txn.Txn) error {
		var err error
		tag, err = scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE name = ?`, name))
		if err == nil {
			return nil
		}
		if err != sql.ErrNoRows {
			return err
		}
		tag, err = insertTagTx(t, name, defaultColor)
		return err
	})
	return tag, err
}

// UpdateTag renames a tag and/or changes its color.
func (r *Registry) UpdateTag(id ids.TagID, name string, color ids.Color) (Tag, error) {
	if err := ids.ValidateName(name); err != nil {
		return Tag{}, err
	}
	var tag Tag
	err := r.ReadWrite(func(t *txn.Txn) error {
		if _, err := tagByIDTx(t, id); err != nil {
			return err
		}
		if _, err := t.Exec(`UPDATE tag SET name = ?, color = ? WHERE id = ?`, name, string(color), id); err != nil {
			return err
		}
		var err error
		tag, err = tagByIDTx(t, id)
		return err
	})
	return tag, err
}

// DeleteTag removes a tag, cascading to every file-tag referencing it and
// then to any file left untagged by that removal, per the registry's
// cascade-delete invariant.
func (r *Registry) DeleteTag(id ids.TagID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		return deleteTagTx(t, id)
	})
}

func deleteTagTx(t *txn.Txn, id ids.TagID) error {
	if _, err := tagByIDTx(t, id); err != nil {
		return err
	}

	fileIDs, err := fileIDsByTagTx(t, id)
	if err != nil {
		return err
	}
	if _, err := t.Exec(`DELETE FROM file_tag WHERE tag_id = ?`, id); err != nil {
		return err
	}
	if _, err := t.Exec(`DELETE FROM impl WHERE implying_tag_id = ? OR implied_tag_id = ?`, id, id); err != nil {
		return err
	}
	if err := collectOrphansTx(t, fileIDs); err != nil {
		return err
	}
	_, err = t.Exec(`DELETE FROM tag WHERE id = ?`, id)
	return err
}
