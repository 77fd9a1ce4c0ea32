package template

import (
	"reflect"
	"testing"
)

func TestExpandPerFilePlaceholders(t *testing.T) {
	tmpl, err := Parse([]string{"echo", "{}", "{/}", "{//}", "{.}", "{/.}"}, PerFile)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	argv, err := tmpl.ExpandPerFile("/tmp/dir/photo.jpg")
	if err != nil {
		t.Fatalf("ExpandPerFile: %v", err)
	}
	want := []string{"echo", "/tmp/dir/photo.jpg", "photo.jpg", "/tmp/dir", "/tmp/dir/photo", "photo"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("got %v, want %v", argv, want)
	}
}

func TestEscapedBraces(t *testing.T) {
	tmpl, err := Parse([]string{"echo", "{{}}"}, PerFile)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	argv, err := tmpl.ExpandPerFile("x")
	if err != nil {
		t.Fatalf("ExpandPerFile: %v", err)
	}
	if argv[1] != "{}" {
		t.Errorf("got %q, want literal {}", argv[1])
	}
}

// TestExecutorBatchVsPerFile is end-to-end scenario 6: given paths ["x","y"]
// and template "echo {}", per-file mode invokes echo twice with distinct
// argv; batch mode invokes once with both paths appended.
func TestExecutorBatchVsPerFile(t *testing.T) {
	perFile, err := Parse([]string{"echo", "{}"}, PerFile)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	argvX, err := perFile.ExpandPerFile("x")
	if err != nil {
		t.Fatalf("ExpandPerFile(x): %v", err)
	}
	argvY, err := perFile.ExpandPerFile("y")
	if err != nil {
		t.Fatalf("ExpandPerFile(y): %v", err)
	}
	if !reflect.DeepEqual(argvX, []string{"echo", "x"}) {
		t.Errorf("got %v", argvX)
	}
	if !reflect.DeepEqual(argvY, []string{"echo", "y"}) {
		t.Errorf("got %v", argvY)
	}

	batch, err := Parse([]string{"echo", "{}"}, Batch)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	argv, err := batch.ExpandBatch([]string{"x", "y"})
	if err != nil {
		t.Fatalf("ExpandBatch: %v", err)
	}
	if !reflect.DeepEqual(argv, []string{"echo", "x", "y"}) {
		t.Errorf("got %v", argv)
	}
}

func TestEmptyArgvRejected(t *testing.T) {
	if _, err := Parse(nil, PerFile); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestUnescapedBraceRejected(t *testing.T) {
	if _, err := Parse([]string{"echo", "{x}"}, PerFile); err == nil {
		t.Fatal("expected error for unrecognized placeholder")
	}
}
