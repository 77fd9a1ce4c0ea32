package xattr

import (
	"testing"

	"github.com/lmburns/wutag/internal/ids"
)

func TestRecordRoundTrip(t *testing.T) {
	cases := []Record{
		{TagName: "red", Color: "#ff0000"},
		{TagName: "priority", Color: "#14b8a6", ValueName: "high"},
		{TagName: "x", Color: "", ValueName: ""},
	}
	for _, r := range cases {
		data := Encode(r)
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%+v): %v", r, err)
		}
		if got != r {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
		}
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0, 0}); err == nil {
		t.Fatal("expected error for unknown version byte")
	}
}

func TestDecodeRejectsEmpty(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestMemWriterRoundTrip(t *testing.T) {
	w := NewMemWriter()
	key := Key("red")
	rec := Encode(Record{TagName: "red", Color: ids.DefaultColor})

	if err := w.Set("a.txt", key, rec, false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := w.Get("a.txt", key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(rec) {
		t.Errorf("Get returned %q, want %q", got, rec)
	}

	list, err := w.List("a.txt")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Key != key {
		t.Errorf("List = %+v, want one entry for %s", list, key)
	}

	if err := w.Set("a.txt", key, rec, false); err != ErrTagExists {
		t.Errorf("Set without overwrite on existing key: got %v, want ErrTagExists", err)
	}

	if err := w.Remove("a.txt", key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := w.Get("a.txt", key); err != ErrNotFound {
		t.Errorf("Get after Remove: got %v, want ErrNotFound", err)
	}
}
