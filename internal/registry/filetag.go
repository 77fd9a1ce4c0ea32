package registry

import (
	"database/sql"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry/txn"
)

func scanFileTag(row interface {
	Scan(dest ...any) error
}) (FileTag, error) {
	var ft FileTag
	var explicit, implicit int
	if err := row.Scan(&ft.FileID, &ft.TagID, &ft.ValueID, &explicit, &implicit); err != nil {
		return FileTag{}, err
	}
	ft.Explicit = explicit != 0
	ft.Implicit = implicit != 0
	return ft, nil
}

const fileTagColumns = `file_id, tag_id, value_id, explicit, implicit`

// FileTagCount returns the number of file-tags in the registry.
func (r *Registry) FileTagCount() (int, error) {
	var n int
	err := r.ReadOnly(func(t *txn.Txn) error {
		return t.QueryRow(`SELECT COUNT(*) FROM file_tag`).Scan(&n)
	})
	return n, err
}

// AllFileTags returns every file-tag in the registry.
func (r *Registry) AllFileTags() ([]FileTag, error) {
	var out []FileTag
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT ` + fileTagColumns + ` FROM file_tag`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ft, err := scanFileTag(rows)
			if err != nil {
				return err
			}
			out = append(out, ft)
		}
		return rows.Err()
	})
	return out, err
}

// FileTagsByFile returns every file-tag for the given file.
func (r *Registry) FileTagsByFile(id ids.FileID) ([]FileTag, error) {
	var out []FileTag
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT `+fileTagColumns+` FROM file_tag WHERE file_id = ?`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ft, err := scanFileTag(rows)
			if err != nil {
				return err
			}
			out = append(out, ft)
		}
		return rows.Err()
	})
	return out, err
}

// FileTagsByTag returns every file-tag for the given tag.
func (r *Registry) FileTagsByTag(id ids.TagID) ([]FileTag, error) {
	var out []FileTag
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		out, err = fileTagsByTagTx(t, id)
		return err
	})
	return out, err
}

func fileTagsByTagTx(t *txn.Txn, id ids.TagID) ([]FileTag, error) {
	rows, err := t.Query(`SELECT `+fileTagColumns+` FROM file_tag WHERE tag_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FileTag
	for rows.Next() {
		ft, err := scanFileTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

func fileIDsByTagTx(t *txn.Txn, id ids.TagID) ([]ids.FileID, error) {
	fts, err := fileTagsByTagTx(t, id)
	if err != nil {
		return nil, err
	}
	out := make([]ids.FileID, len(fts))
	for i, ft := range fts {
		out[i] = ft.FileID
	}
	return out, nil
}

// FileTagExists reports whether the exact (file, tag, value) triple is
// already present.
func (r *Registry) FileTagExists(ft FileTag) (bool, error) {
	var exists bool
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		exists, err = fileTagExistsTx(t, ft)
		return err
	})
	return exists, err
}

func fileTagExistsTx(t *txn.Txn, ft FileTag) (bool, error) {
	var n int
	err := t.QueryRow(
		`SELECT COUNT(*) FROM file_tag WHERE file_id = ? AND tag_id = ? AND value_id = ?`,
		ft.FileID, ft.TagID, ft.ValueID,
	).Scan(&n)
	return n > 0, err
}

// InsertFileTag adds a file-tag, requiring the referenced file and tag to
// exist, and either a null value id or an existing value. Inserting the
// same triple twice is a no-op: it returns Ok without changing row count.
func (r *Registry) InsertFileTag(ft FileTag) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		return insertFileTagTx(t, ft)
	})
}

func insertFileTagTx(t *txn.Txn, ft FileTag) error {
	if _, err := fileByIDTx(t, ft.FileID); err != nil {
		return err
	}
	if _, err := tagByIDTx(t, ft.TagID); err != nil {
		return err
	}
	if !ft.ValueID.IsNull() {
		if _, err := valueByIDTx(t, ft.ValueID); err != nil {
			return err
		}
	}
	explicit, implicit := 0, 0
	if ft.Explicit {
		explicit = 1
	}
	if ft.Implicit {
		implicit = 1
	}
	_, err := t.Exec(
		`INSERT OR IGNORE INTO file_tag (file_id, tag_id, value_id, explicit, implicit) VALUES (?, ?, ?, ?, ?)`,
		ft.FileID, ft.TagID, ft.ValueID, explicit, implicit,
	)
	return err
}

// ClearFileTags removes every file-tag from the registry.
func (r *Registry) ClearFileTags() error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(`DELETE FROM file_tag`)
		return err
	})
}

// DeleteFileTag removes a single (file, tag, value) triple, then collects
// the file and value as orphans if they now have no file-tags referencing
// them.
func (r *Registry) DeleteFileTag(fid ids.FileID, tid ids.TagID, vid ids.ValueID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		if _, err := t.Exec(`DELETE FROM file_tag WHERE file_id = ? AND tag_id = ? AND value_id = ?`, fid, tid, vid); err != nil {
			return err
		}
		if !vid.IsNull() {
			if err := collectOrphanValuesTx(t, []ids.ValueID{vid}); err != nil {
				return err
			}
		}
		return deleteFileIfUntaggedTx(t, fid)
	})
}

// DeleteFileTagsByFileTag removes every file-tag for (file, tag), regardless
// of value, then collects the file and any now-unreferenced values as
// orphans.
func (r *Registry) DeleteFileTagsByFileTag(fid ids.FileID, tid ids.TagID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		fts, err := fileTagsByTagTx(t, tid)
		if err != nil {
			return err
		}
		var valueIDs []ids.ValueID
		for _, ft := range fts {
			if ft.FileID == fid && !ft.ValueID.IsNull() {
				valueIDs = append(valueIDs, ft.ValueID)
			}
		}
		if _, err := t.Exec(`DELETE FROM file_tag WHERE file_id = ? AND tag_id = ?`, fid, tid); err != nil {
			return err
		}
		if err := collectOrphanValuesTx(t, valueIDs); err != nil {
			return err
		}
		return deleteFileIfUntaggedTx(t, fid)
	})
}

// DeleteFileTagsByFile removes every file-tag for a file, then collects it
// as an orphan.
func (r *Registry) DeleteFileTagsByFile(fid ids.FileID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		if _, err := t.Exec(`DELETE FROM file_tag WHERE file_id = ?`, fid); err != nil {
			return err
		}
		return deleteFileIfUntaggedTx(t, fid)
	})
}

// CopyFileTags copies every file-tag from srcTag to destTag, used by `cp`
// to duplicate a tag's associations onto another tag.
func (r *Registry) CopyFileTags(srcTag, destTag ids.TagID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		fts, err := fileTagsByTagTx(t, srcTag)
		if err != nil {
			return err
		}
		for _, ft := range fts {
			cp := ft
			cp.TagID = destTag
			if err := insertFileTagTx(t, cp); err != nil {
				return err
			}
		}
		return nil
	})
}

// TagFile is the high-level "set" operation: it ensures the file, tag, and
// (optional) value rows exist, inserts the explicit file-tag, then
// materializes every tag implied by this (tag, value) pair as additional
// implicit file-tags, per the data model's explicit/implicit distinction.
func (r *Registry) TagFile(fullPath, directory, basename, tagName string, color ids.Color, valueName string) (FileTag, error) {
	if err := ids.ValidateName(tagName); err != nil {
		return FileTag{}, err
	}
	if valueName != "" {
		if err := ids.ValidateName(valueName); err != nil {
			return FileTag{}, err
		}
	}

	var result FileTag
	err := r.ReadWrite(func(t *txn.Txn) error {
		f, err := getOrCreateFileTx(t, directory, basename, fullPath)
		if err != nil {
			return err
		}
		tag, err := getOrCreateTagTx(t, tagName, color)
		if err != nil {
			return err
		}
		vid := ids.NullValue
		if valueName != "" {
			v, err := getOrCreateValueTx(t, valueName)
			if err != nil {
				return err
			}
			vid = v.ID
		}

		explicit := FileTag{FileID: f.ID, TagID: tag.ID, ValueID: vid, Explicit: true}
		if err := insertFileTagTx(t, explicit); err != nil {
			return err
		}
		result = explicit

		closureSet, err := closureTx(t, []TagValue{{Tag: tag.ID, Value: vid}})
		if err != nil {
			return err
		}
		for _, tv := range closureSet {
			if tv.Tag == tag.ID && tv.Value == vid {
				continue
			}
			implied := FileTag{FileID: f.ID, TagID: tv.Tag, ValueID: tv.Value, Implicit: true}
			if err := insertFileTagTx(t, implied); err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

func getOrCreateTagTx(t *txn.Txn, name string, color ids.Color) (Tag, error) {
	tag, err := scanTag(t.QueryRow(`SELECT id, name, color FROM tag WHERE name = ?`, name))
	if err == nil {
		return tag, nil
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}
	return insertTagTx(t, name, color)
}
