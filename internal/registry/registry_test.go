package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmburns/wutag/internal/ids"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	reg, err := Open(filepath.Join(dir, "wutag.registry"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func writeTestFile(t *testing.T, name, contents string) (dir, base, full string) {
	t.Helper()
	d := t.TempDir()
	full = filepath.Join(d, name)
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return d, name, full
}

// TestTagAndQuery is scenario 1 from the spec's testable properties: tag a
// file, then retrieve it via its tag.
func TestTagAndQuery(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt", "hello")

	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	tag, err := reg.TagByName("red")
	if err != nil {
		t.Fatalf("TagByName: %v", err)
	}
	fts, err := reg.FileTagsByTag(tag.ID)
	if err != nil {
		t.Fatalf("FileTagsByTag: %v", err)
	}
	if len(fts) != 1 {
		t.Fatalf("expected 1 file-tag, got %d", len(fts))
	}
	f, err := reg.FileByID(fts[0].FileID)
	if err != nil {
		t.Fatalf("FileByID: %v", err)
	}
	if f.Basename != base {
		t.Errorf("got basename %q, want %q", f.Basename, base)
	}
}

// TestImplicationInducesMatch is scenario 2: after red -> warm, tagging
// with red also surfaces under warm.
func TestImplicationInducesMatch(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt", "hello")

	red, err := reg.GetOrCreateTag("red", ids.DefaultColor)
	if err != nil {
		t.Fatalf("GetOrCreateTag(red): %v", err)
	}
	warm, err := reg.GetOrCreateTag("warm", ids.DefaultColor)
	if err != nil {
		t.Fatalf("GetOrCreateTag(warm): %v", err)
	}
	if err := reg.InsertImplication(
		TagValue{Tag: red.ID, Value: ids.NullValue},
		TagValue{Tag: warm.ID, Value: ids.NullValue},
	); err != nil {
		t.Fatalf("InsertImplication: %v", err)
	}

	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	fts, err := reg.FileTagsByTag(warm.ID)
	if err != nil {
		t.Fatalf("FileTagsByTag(warm): %v", err)
	}
	if len(fts) != 1 {
		t.Fatalf("expected file tagged warm via implication, got %d file-tags", len(fts))
	}
	if fts[0].Implicit != true || fts[0].Explicit != false {
		t.Errorf("expected implicit-only file-tag for warm, got %+v", fts[0])
	}
}

// TestCycleRejection is scenario 3: inserting the reverse edge after
// red -> warm must fail and leave the registry unchanged.
func TestCycleRejection(t *testing.T) {
	reg := openTestRegistry(t)

	red, _ := reg.GetOrCreateTag("red", ids.DefaultColor)
	warm, _ := reg.GetOrCreateTag("warm", ids.DefaultColor)
	if err := reg.InsertImplication(
		TagValue{Tag: red.ID, Value: ids.NullValue},
		TagValue{Tag: warm.ID, Value: ids.NullValue},
	); err != nil {
		t.Fatalf("InsertImplication: %v", err)
	}

	before, err := reg.AllImplications()
	if err != nil {
		t.Fatalf("AllImplications: %v", err)
	}

	err = reg.InsertImplication(
		TagValue{Tag: warm.ID, Value: ids.NullValue},
		TagValue{Tag: red.ID, Value: ids.NullValue},
	)
	if err == nil {
		t.Fatal("expected cycle rejection, got nil error")
	}

	after, err := reg.AllImplications()
	if err != nil {
		t.Fatalf("AllImplications: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("registry changed after rejected implication: before=%d after=%d", len(before), len(after))
	}
}

// TestDeleteTagCascade is scenario 4: deleting a tag removes its file-tags
// and orphans the file.
func TestDeleteTagCascade(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt", "hello")

	if _, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, ""); err != nil {
		t.Fatalf("TagFile: %v", err)
	}
	red, err := reg.TagByName("red")
	if err != nil {
		t.Fatalf("TagByName: %v", err)
	}

	if err := reg.DeleteTag(red.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	n, err := reg.FileTagCount()
	if err != nil {
		t.Fatalf("FileTagCount: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 file-tags after cascade, got %d", n)
	}
	files, err := reg.AllFiles()
	if err != nil {
		t.Fatalf("AllFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected file to be orphan-collected, got %d files", len(files))
	}
}

// TestInsertFileTagIdempotent covers invariant 5: inserting the same
// file-tag twice does not change row count.
func TestInsertFileTagIdempotent(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt", "hello")

	ft, err := reg.TagFile(full, dir, base, "red", ids.DefaultColor, "")
	if err != nil {
		t.Fatalf("TagFile: %v", err)
	}
	before, err := reg.FileTagCount()
	if err != nil {
		t.Fatalf("FileTagCount: %v", err)
	}
	if err := reg.InsertFileTag(ft); err != nil {
		t.Fatalf("InsertFileTag (duplicate): %v", err)
	}
	after, err := reg.FileTagCount()
	if err != nil {
		t.Fatalf("FileTagCount: %v", err)
	}
	if before != after {
		t.Errorf("row count changed on duplicate insert: before=%d after=%d", before, after)
	}
}

// TestNameValidation exercises the reserved-character and whitespace
// rejection rules.
func TestNameValidation(t *testing.T) {
	reg := openTestRegistry(t)
	cases := []string{"", " red", "red ", "re(d)", "/red"}
	for _, name := range cases {
		if _, err := reg.InsertTag(name, ids.DefaultColor); err == nil {
			t.Errorf("InsertTag(%q): expected validation error, got nil", name)
		}
	}
}

// TestOrphanValueOnFileTagDelete covers the value side of the orphan
// lifecycle: deleting the last file-tag referencing a value deletes it.
func TestOrphanValueOnFileTagDelete(t *testing.T) {
	reg := openTestRegistry(t)
	dir, base, full := writeTestFile(t, "a.txt", "hello")

	ft, err := reg.TagFile(full, dir, base, "priority", ids.DefaultColor, "high")
	require.NoError(t, err)
	require.False(t, ft.ValueID.IsNull(), "expected non-null value id")

	require.NoError(t, reg.DeleteFileTag(ft.FileID, ft.TagID, ft.ValueID))

	_, err = reg.ValueByID(ft.ValueID)
	require.ErrorIs(t, err, ErrValueNotFound)
}
