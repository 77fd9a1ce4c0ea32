package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/query/parser"
	"github.com/lmburns/wutag/internal/registry"
)

func openTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.Open(filepath.Join(dir, "wutag.registry"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func writeTestFile(t *testing.T, name string) (dir, base, full string) {
	t.Helper()
	d := t.TempDir()
	full = filepath.Join(d, name)
	if err := os.WriteFile(full, []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return d, name, full
}

func TestSearchByTag(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt")

	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	node, err := parser.Parse(`tag(red)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := New(reg).Search(node)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Basename != base {
		t.Fatalf("expected 1 match on %q, got %+v", base, results)
	}
}

func TestSearchByImplication(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt")

	red, _ := reg.GetOrCreateTag("red", ids.DefaultColor)
	warm, _ := reg.GetOrCreateTag("warm", ids.DefaultColor)
	if err := reg.InsertImplication(
		registry.TagValue{Tag: red.ID, Value: ids.NullValue},
		registry.TagValue{Tag: warm.ID, Value: ids.NullValue},
	); err != nil {
		t.Fatalf("InsertImplication: %v", err)
	}
	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	node, err := parser.Parse(`tag(warm)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := New(reg).Search(node)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match via implication, got %d", len(results))
	}
}

func TestSearchByGlobPattern(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "photo.jpg")
	if _, err := reg.TagFile(full, dir, base, "x", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	node, err := parser.Parse(`%g/*.jpg/`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := New(reg).Search(node)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected glob match against path, got %d", len(results))
	}
}

func TestSearchAndOr(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt")
	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	node, err := parser.Parse(`tag(red) && tag(blue)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := New(reg).Search(node)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no match, got %d", len(results))
	}

	node, err = parser.Parse(`tag(red) || tag(blue)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err = New(reg).Search(node)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
}
