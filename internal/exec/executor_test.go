package exec

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/lmburns/wutag/internal/exec/template"
)

// TestMain verifies the errgroup worker pool leaves no goroutines running
// past Run's return, across every test in this package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAggregateExitCodes(t *testing.T) {
	cases := []struct {
		codes []int
		want  int
	}{
		{[]int{0, 0, 0}, 0},
		{[]int{0, 1, 0}, 1},
		{[]int{0, 130, 1}, 130},
		{nil, 0},
	}
	for _, c := range cases {
		if got := Aggregate(c.codes); got != c.want {
			t.Errorf("Aggregate(%v) = %d, want %d", c.codes, got, c.want)
		}
	}
}

// TestRunPerFileInvokesOncePerPath is end-to-end scenario 6 (per-file half):
// given paths ["x","y"] and template "echo {}", per-file mode runs the
// command twice, once per path, and the aggregated exit code is 0.
func TestRunPerFileInvokesOncePerPath(t *testing.T) {
	tmpl, err := template.Parse([]string{"echo", "{}"}, template.PerFile)
	if err != nil {
		t.Fatalf("template.Parse: %v", err)
	}
	var stdout, stderr bytes.Buffer
	out := NewOutput(&stdout, &stderr)
	ex := New(tmpl, out, 2)

	code, err := ex.Run(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	got := stdout.String()
	if !strings.Contains(got, "x") || !strings.Contains(got, "y") {
		t.Errorf("expected both paths echoed, got %q", got)
	}
}

// TestRunBatchInvokesOnce is the batch half of scenario 6: a single
// invocation with both paths appended at the one placeholder position.
func TestRunBatchInvokesOnce(t *testing.T) {
	tmpl, err := template.Parse([]string{"echo", "{}"}, template.Batch)
	if err != nil {
		t.Fatalf("template.Parse: %v", err)
	}
	var stdout, stderr bytes.Buffer
	out := NewOutput(&stdout, &stderr)
	ex := New(tmpl, out, 2)

	code, err := ex.Run(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	got := strings.TrimSpace(stdout.String())
	if got != "x y" {
		t.Errorf("got %q, want %q", got, "x y")
	}
}

func TestRunPerFileNonzeroExit(t *testing.T) {
	tmpl, err := template.Parse([]string{"false"}, template.PerFile)
	if err != nil {
		t.Fatalf("template.Parse: %v", err)
	}
	var stdout, stderr bytes.Buffer
	out := NewOutput(&stdout, &stderr)
	ex := New(tmpl, out, 1)

	code, err := ex.Run(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
