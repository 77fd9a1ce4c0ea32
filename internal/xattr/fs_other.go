//go:build !linux

package xattr

import "fmt"

// FsWriter is unimplemented on non-Linux platforms: wutag's primary target
// is Linux, where xattrs survive same-filesystem moves as the spec
// requires. Builds on other platforms compile but fail at runtime with a
// clear error rather than silently no-op.
type FsWriter struct{}

// NewFsWriter returns the default OS-backed Writer.
func NewFsWriter() *FsWriter { return &FsWriter{} }

var _ Writer = (*FsWriter)(nil)

func (FsWriter) Set(path, key string, value []byte, overwrite bool) error {
	return fmt.Errorf("xattr: unsupported on this platform")
}

func (FsWriter) Get(path, key string) ([]byte, error) {
	return nil, fmt.Errorf("xattr: unsupported on this platform")
}

func (FsWriter) List(path string) ([]KV, error) {
	return nil, fmt.Errorf("xattr: unsupported on this platform")
}

func (FsWriter) Remove(path, key string) error {
	return fmt.Errorf("xattr: unsupported on this platform")
}
