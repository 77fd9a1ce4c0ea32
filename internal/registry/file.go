package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry/txn"
)

func scanFile(row interface {
	Scan(dest ...any) error
}) (File, error) {
	var f File
	var mtime int64
	var mode, inode, isDir uint64
	if err := row.Scan(&f.ID, &f.Directory, &f.Basename, &f.Hash, &f.Mime, &mtime, &mode, &inode, &f.Size, &isDir); err != nil {
		return File{}, err
	}
	f.Mtime = time.Unix(mtime, 0)
	f.Mode = uint32(mode)
	f.Inode = inode
	f.IsDir = isDir != 0
	return f, nil
}

const fileColumns = `id, directory, basename, hash, mime, mtime, mode, inode, size, is_dir`

// FileCount returns the number of files in the registry.
func (r *Registry) FileCount() (int, error) {
	var n int
	err := r.ReadOnly(func(t *txn.Txn) error {
		return t.QueryRow(`SELECT COUNT(*) FROM file`).Scan(&n)
	})
	return n, err
}

// AllFiles returns every file in the registry.
func (r *Registry) AllFiles() ([]File, error) {
	var out []File
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT ` + fileColumns + ` FROM file ORDER BY directory, basename`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			f, err := scanFile(rows)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

// FileByID retrieves a file by id.
func (r *Registry) FileByID(id ids.FileID) (File, error) {
	var f File
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		f, err = fileByIDTx(t, id)
		return err
	})
	return f, err
}

func fileByIDTx(t *txn.Txn, id ids.FileID) (File, error) {
	f, err := scanFile(t.QueryRow(`SELECT `+fileColumns+` FROM file WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return File{}, ErrFileNotFound
	}
	return f, err
}

// FileByPath retrieves the file identified by (directory, basename),
// the identity key per the data model.
func (r *Registry) FileByPath(directory, basename string) (File, error) {
	var f File
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		f, err = fileByPathTx(t, directory, basename)
		return err
	})
	return f, err
}

func fileByPathTx(t *txn.Txn, directory, basename string) (File, error) {
	f, err := scanFile(t.QueryRow(`SELECT `+fileColumns+` FROM file WHERE directory = ? AND basename = ?`, directory, basename))
	if err == sql.ErrNoRows {
		return File{}, ErrFileNotFound
	}
	return f, err
}

// FilesByHash retrieves every file with the given content hash.
func (r *Registry) FilesByHash(hash string) ([]File, error) {
	var out []File
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT `+fileColumns+` FROM file WHERE hash = ?`, hash)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			f, err := scanFile(rows)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

// statAttrs holds the on-disk attributes refreshed by Stat and by repair.
type statAttrs struct {
	Hash  string
	Mime  string
	Mtime time.Time
	Mode  uint32
	Inode uint64
	Size  int64
	IsDir bool
}

// Stat reads a path's attributes from disk: mtime, mode, inode, size, the
// is-directory flag, and — for regular files — a SHA-256 content hash and
// a sniffed MIME type.
func Stat(path string) (statAttrs, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return statAttrs{}, err
	}
	attrs := statAttrs{
		Mtime: fi.ModTime(),
		Mode:  uint32(fi.Mode()),
		Size:  fi.Size(),
		IsDir: fi.IsDir(),
	}
	if sys, ok := fi.Sys().(interface{ Ino() uint64 }); ok {
		attrs.Inode = sys.Ino()
	}
	if attrs.IsDir || fi.Mode()&os.ModeSymlink != 0 {
		return attrs, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return statAttrs{}, err
	}
	defer f.Close()

	h := sha256.New()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	head = head[:n]
	attrs.Mime = http.DetectContentType(head)

	h.Write(head)
	if _, err := io.Copy(h, f); err != nil {
		return statAttrs{}, err
	}
	attrs.Hash = hex.EncodeToString(h.Sum(nil))
	return attrs, nil
}

// getOrCreateFileTx returns the file row for path, inserting one (stat'ing
// the filesystem) if it doesn't exist yet. Files are created on first tag,
// per the file lifecycle.
func getOrCreateFileTx(t *txn.Txn, directory, basename, fullPath string) (File, error) {
	f, err := fileByPathTx(t, directory, basename)
	if err == nil {
		return f, nil
	}
	if err != ErrFileNotFound {
		return File{}, err
	}

	attrs, err := Stat(fullPath)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", fullPath, err)
	}

	isDir := 0
	if attrs.IsDir {
		isDir = 1
	}
	res, err := t.Exec(
		`INSERT INTO file (directory, basename, hash, mime, mtime, mode, inode, size, is_dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		directory, basename, attrs.Hash, attrs.Mime, attrs.Mtime.Unix(), attrs.Mode, attrs.Inode, attrs.Size, isDir,
	)
	if err != nil {
		return File{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return File{}, err
	}
	return File{
		ID: ids.FileID(id), Directory: directory, Basename: basename,
		Hash: attrs.Hash, Mime: attrs.Mime, Mtime: attrs.Mtime,
		Mode: attrs.Mode, Inode: attrs.Inode, Size: attrs.Size, IsDir: attrs.IsDir,
	}, nil
}

// RefreshFile re-stats a file's path and writes the fresh attributes back
// to its row, implementing the "repair" operation's per-file refresh.
func (r *Registry) RefreshFile(id ids.FileID) (File, error) {
	var f File
	err := r.ReadWrite(func(t *txn.Txn) error {
		existing, err := fileByIDTx(t, id)
		if err != nil {
			return err
		}
		attrs, err := Stat(existing.Path())
		if err != nil {
			return fmt.Errorf("stat %s: %w", existing.Path(), err)
		}
		isDir := 0
		if attrs.IsDir {
			isDir = 1
		}
		_, err = t.Exec(
			`UPDATE file SET hash = ?, mime = ?, mtime = ?, mode = ?, inode = ?, size = ?, is_dir = ? WHERE id = ?`,
			attrs.Hash, attrs.Mime, attrs.Mtime.Unix(), attrs.Mode, attrs.Inode, attrs.Size, isDir, id,
		)
		if err != nil {
			return err
		}
		f, err = fileByIDTx(t, id)
		return err
	})
	return f, err
}

// DeleteFile removes a file and every file-tag referencing it, then any
// value left referenced by nothing as a result.
func (r *Registry) DeleteFile(id ids.FileID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		return deleteFileTx(t, id)
	})
}

func deleteFileTx(t *txn.Txn, id ids.FileID) error {
	if _, err := fileByIDTx(t, id); err != nil {
		return err
	}
	valueIDs, err := valueIDsByFileTx(t, id)
	if err != nil {
		return err
	}
	if _, err := t.Exec(`DELETE FROM file_tag WHERE file_id = ?`, id); err != nil {
		return err
	}
	if err := collectOrphanValuesTx(t, valueIDs); err != nil {
		return err
	}
	_, err = t.Exec(`DELETE FROM file WHERE id = ?`, id)
	return err
}

// deleteFileIfUntaggedTx is the "orphan file collection" step run after
// every file-tag removal: if the file now has zero file-tags, delete it.
// It is idempotent — calling it on an already-tagged file is a no-op.
func deleteFileIfUntaggedTx(t *txn.Txn, id ids.FileID) error {
	var n int
	if err := t.QueryRow(`SELECT COUNT(*) FROM file_tag WHERE file_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := t.Exec(`DELETE FROM file WHERE id = ?`, id)
	return err
}

// collectOrphansTx runs deleteFileIfUntaggedTx over a batch of file ids,
// used by cascades that may orphan several files at once (delete-tag,
// delete-value).
func collectOrphansTx(t *txn.Txn, fileIDs []ids.FileID) error {
	for _, id := range fileIDs {
		if err := deleteFileIfUntaggedTx(t, id); err != nil {
			return err
		}
	}
	return nil
}
