// Package xattr defines the narrow synchronous contract the core consumes
// from a filesystem extended-attribute writer, and a concrete
// golang.org/x/sys/unix-backed implementation.
//
// All keys the core writes live under a single namespace prefix so that
// removal-by-prefix is well-defined, and tag values are serialized with the
// self-describing binary record in record.go.
package xattr

import "errors"

// Prefix is the fixed xattr namespace every key the core writes lives under.
const Prefix = "user.wutag."

// Errors returned by a Writer implementation. Callers compare with
// errors.Is; implementations must map OS-specific errors onto these.
var (
	// ErrTagExists is returned by Set when the key is already present and
	// the caller asked for a non-overwriting set.
	ErrTagExists = errors.New("xattr: tag already exists")
	// ErrSymlinkUnsupported is returned when the target path is a symlink
	// and the platform/namespace combination cannot tag it directly.
	ErrSymlinkUnsupported = errors.New("xattr: symlinks are not supported")
	// ErrNotFound is returned by Get/Remove when the key is absent.
	ErrNotFound = errors.New("xattr: attribute not found")
)

// KV is a single extended attribute key/value pair, as returned by List.
type KV struct {
	Key   string
	Value []byte
}

// Writer is the collaborator contract the core depends on for persisting
// tags to a file's extended attributes. Implementations must be safe for
// concurrent use by independent goroutines operating on different paths;
// races between wutag and other processes touching the same path are
// tolerated (last writer wins), per the resource-model design.
type Writer interface {
	// Set writes value under key (already namespaced) on path. overwrite
	// controls whether an existing value is replaced or ErrTagExists is
	// returned.
	Set(path, key string, value []byte, overwrite bool) error
	// Get reads the value stored under key on path.
	Get(path, key string) ([]byte, error)
	// List returns every wutag-namespaced key/value pair on path.
	List(path string) ([]KV, error)
	// Remove deletes key from path.
	Remove(path, key string) error
}

// Key builds the namespaced xattr key for a tag name.
func Key(tagName string) string {
	return Prefix + tagName
}
