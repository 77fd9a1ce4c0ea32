// Package registry implements the tag registry: a relational store of
// files, tags, values, file-tag triples, tag implications, and saved
// queries, exposed through a transactional API with referential-integrity
// invariants enforced in application code, not merely by the schema.
package registry

import (
	"time"

	"github.com/lmburns/wutag/internal/ids"
)

// File is an immutable snapshot of a row in the file table. Callers never
// share mutable state with the registry: every accessor returns a copy.
type File struct {
	ID        ids.FileID
	Directory string
	Basename  string
	Hash      string
	Mime      string
	Mtime     time.Time
	Mode      uint32
	Inode     uint64
	Size      int64
	IsDir     bool
}

// Path returns the file's full path, joining Directory and Basename.
func (f File) Path() string {
	if f.Directory == "" {
		return f.Basename
	}
	if f.Directory[len(f.Directory)-1] == '/' {
		return f.Directory + f.Basename
	}
	return f.Directory + "/" + f.Basename
}

// Tag is an immutable snapshot of a row in the tag table.
type Tag struct {
	ID    ids.TagID
	Name  string
	Color ids.Color
}

// Value is an immutable snapshot of a row in the value table.
type Value struct {
	ID   ids.ValueID
	Name string
}

// FileTag is the ternary (file, tag, value) association, the authoritative
// record that a file carries a tag (optionally with a value).
type FileTag struct {
	FileID   ids.FileID
	TagID    ids.TagID
	ValueID  ids.ValueID
	Explicit bool
	Implicit bool
}

// Implication is a directed edge stating that wherever (ImplyingTag,
// ImplyingValue) is present, (ImpliedTag, ImpliedValue) is also implied.
// Either value may be ids.NullValue, meaning "any value."
type Implication struct {
	ImplyingTag   ids.TagID
	ImplyingValue ids.ValueID
	ImpliedTag    ids.TagID
	ImpliedValue  ids.ValueID
}

// TagValue is an unbound (tag, value) pair, used as an argument to
// implication-closure queries.
type TagValue struct {
	Tag   ids.TagID
	Value ids.ValueID
}

// SavedQuery is a stored query string, keyed by its own text.
type SavedQuery struct {
	Text string
}
