// Package exec is the parallel command executor: it runs a command template
// against a stream of paths, either once per path or once for the whole
// batch, aggregating child exit codes into a single process exit code.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lmburns/wutag/internal/exec/template"
	"github.com/lmburns/wutag/internal/wlog"
)

// workItem is a single slot of the bounded producer/consumer channel: either
// an entry to process or an I/O error encountered while producing it.
type workItem struct {
	path string
	err  error
}

// Executor runs a Template against a path stream with W = NumWorkers
// concurrent consumers (per-file mode) or a single consumer (batch mode).
type Executor struct {
	Template   *template.Template
	Output     *Output
	NumWorkers int
}

// New returns an Executor with NumWorkers defaulted to runtime.NumCPU() when
// workers <= 0.
func New(tmpl *template.Template, out *Output, workers int) *Executor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Executor{Template: tmpl, Output: out, NumWorkers: workers}
}

// Aggregate implements the exit-code aggregation rule: 0 if every code is 0,
// 130 if any code is 130 (SIGINT propagated), else 1.
func Aggregate(codes []int) int {
	sawNonzero := false
	for _, c := range codes {
		if c == 130 {
			return 130
		}
		if c != 0 {
			sawNonzero = true
		}
	}
	if sawNonzero {
		return 1
	}
	return 0
}

// Run executes the template against paths, dispatching to per-file or batch
// mode according to the template's configured Mode. ctx carries cooperative
// cancellation: on cancellation the producer stops feeding new entries and
// in-flight children are allowed to finish (never killed).
func (e *Executor) Run(ctx context.Context, paths []string) (int, error) {
	if e.Template.Mode() == template.Batch {
		return e.runBatch(ctx, paths)
	}
	return e.runPerFile(ctx, paths)
}

func (e *Executor) producer(ctx context.Context, paths []string) <-chan workItem {
	ch := make(chan workItem, e.NumWorkers*2)
	go func() {
		defer close(ch)
		for _, p := range paths {
			select {
			case <-ctx.Done():
				return
			case ch <- workItem{path: p}:
			}
		}
	}()
	return ch
}

func (e *Executor) runPerFile(ctx context.Context, paths []string) (int, error) {
	ch := e.producer(ctx, paths)

	var cancelled atomic.Bool
	var mu sync.Mutex
	var codes []int

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.NumWorkers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case item, ok := <-ch:
					if !ok {
						return nil
					}
					if item.err != nil {
						wlog.Get(wlog.CategoryExec).Warnw("producer error", "err", item.err)
						mu.Lock()
						codes = append(codes, 1)
						mu.Unlock()
						continue
					}
					if cancelled.Load() {
						continue
					}
					code, err := e.runOne(item.path)
					if err != nil {
						wlog.Get(wlog.CategoryExec).Warnw("exec error", "path", item.path, "err", err)
					}
					if code == 130 {
						cancelled.Store(true)
					}
					mu.Lock()
					codes = append(codes, code)
					mu.Unlock()
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return Aggregate(codes), err
	}
	return Aggregate(codes), nil
}

// runBatch collects every path (the channel has already closed by the time
// a slice is handed to Run) and forks the command once.
func (e *Executor) runBatch(ctx context.Context, paths []string) (int, error) {
	ch := e.producer(ctx, paths)
	var collected []string
	for item := range ch {
		if item.err != nil {
			wlog.Get(wlog.CategoryExec).Warnw("producer error", "err", item.err)
			continue
		}
		collected = append(collected, item.path)
	}

	argv, err := e.Template.ExpandBatch(collected)
	if err != nil {
		return 1, err
	}
	code, err := e.fork(argv)
	return Aggregate([]int{code}), err
}

func (e *Executor) runOne(path string) (int, error) {
	argv, err := e.Template.ExpandPerFile(path)
	if err != nil {
		return 1, err
	}
	return e.fork(argv)
}

// fork runs argv as a child process, holding the output lock for the
// duration so one child's output never interleaves with another's.
func (e *Executor) fork(argv []string) (int, error) {
	var stdout, stderr bytes.Buffer
	cmd := osexec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	e.Output.Block(func(out, errW io.Writer) {
		out.Write(stdout.Bytes())
		errW.Write(stderr.Bytes())
	})

	if runErr == nil {
		return 0, nil
	}
	var exitErr *osexec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, fmt.Errorf("exec %v: %w", argv, runErr)
}
