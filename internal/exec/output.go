package exec

import (
	"io"
	"sync"
)

// Output is a handle threaded through the executor, serializing writes from
// concurrent workers so that a single path's output block is never
// interleaved with another's. The output mutex is internal to the handle,
// not ambient global state.
type Output struct {
	mu     sync.Mutex
	Stdout io.Writer
	Stderr io.Writer
}

// NewOutput wraps the given writers in an Output handle.
func NewOutput(stdout, stderr io.Writer) *Output {
	return &Output{Stdout: stdout, Stderr: stderr}
}

// Block runs fn while holding the output lock, guaranteeing that everything
// fn writes to Stdout/Stderr stays contiguous relative to other workers'
// blocks.
func (o *Output) Block(fn func(stdout, stderr io.Writer)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.Stdout, o.Stderr)
}
