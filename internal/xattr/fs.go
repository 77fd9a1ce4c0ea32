//go:build linux

package xattr

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// FsWriter is the concrete Writer backed by the OS's extended attribute
// syscalls, the idiomatic Go equivalent of the original's `xattr` crate
// wrapper: Set/Get/List/Remove map directly onto setxattr(2)/getxattr(2)/
// listxattr(2)/removexattr(2) via golang.org/x/sys/unix.
type FsWriter struct{}

// NewFsWriter returns the default OS-backed Writer.
func NewFsWriter() *FsWriter { return &FsWriter{} }

var _ Writer = (*FsWriter)(nil)

func (FsWriter) Set(path, key string, value []byte, overwrite bool) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return ErrSymlinkUnsupported
	}

	flags := 0
	if !overwrite {
		flags = unix.XATTR_CREATE
	}
	if err := unix.Setxattr(path, key, value, flags); err != nil {
		if errors.Is(err, unix.EEXIST) {
			return ErrTagExists
		}
		return err
	}
	return nil
}

func (FsWriter) Get(path, key string) ([]byte, error) {
	size, err := unix.Getxattr(path, key, nil)
	if err != nil {
		if errors.Is(err, unix.ENODATA) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, key, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (FsWriter) List(path string) ([]KV, error) {
	size, err := unix.Listxattr(path, nil)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := unix.Listxattr(path, buf)
	if err != nil {
		return nil, err
	}
	var out []KV
	for _, key := range splitNulTerminated(buf[:n]) {
		if !strings.HasPrefix(key, Prefix) {
			continue
		}
		val, err := (FsWriter{}).Get(path, key)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Key: key, Value: val})
	}
	return out, nil
}

func (FsWriter) Remove(path, key string) error {
	if err := unix.Removexattr(path, key); err != nil {
		if errors.Is(err, unix.ENODATA) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// splitNulTerminated splits a NUL-separated byte buffer, as returned by
// listxattr(2), into individual strings.
func splitNulTerminated(buf []byte) []string {
	var out []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				out = append(out, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return out
}
