// Package wlog provides categorized, structured logging for wutag, built on
// zap. Unlike a file-per-category design, it writes one structured stream
// and tags entries with a Category field, plus an optional transaction
// correlation id.
package wlog

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names the subsystem a log entry came from.
type Category string

const (
	CategoryRegistry Category = "registry"
	CategoryQuery    Category = "query"
	CategoryExec     Category = "exec"
	CategoryXattr    Category = "xattr"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger = zap.NewNop()
	cached  = make(map[Category]*zap.SugaredLogger)
	verbose bool
)

// Init installs the process-wide logger. debug selects development-level
// (debug+) verbosity; otherwise only info-and-above is emitted. Safe to call
// once at process startup; a no-op logger is used until then so library code
// never needs a nil check.
func Init(debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l
	verbose = debug
	cached = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Get returns a sugared logger scoped to the given category.
func Get(cat Category) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := cached[cat]; ok {
		return l
	}
	l := base.Sugar().With("category", string(cat))
	cached[cat] = l
	return l
}

// WithTxn returns a logger scoped to cat that additionally tags every entry
// with the transaction correlation id, so a multi-step cascade (e.g.
// delete-tag deleting filetags, then orphaned files, then the tag) can be
// traced as a single unit in the log stream.
func WithTxn(cat Category, txn uuid.UUID) *zap.SugaredLogger {
	return Get(cat).With("txn", txn.String())
}

// Verbose reports whether Init was called with debug=true.
func Verbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}
