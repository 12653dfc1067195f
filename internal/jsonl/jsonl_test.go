package jsonl

import (
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestAppendThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	for i, id := range []string{"a", "b", "c"} {
		if err := Append(path, record{ID: id, Count: i}); err != nil {
			t.Fatalf("Append %q: %v", id, err)
		}
	}

	got, skipped, err := Read[record](path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// File order is preserved.
	if got[0].ID != "a" || got[2].ID != "c" {
		t.Errorf("records out of order: %+v", got)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	raw := `{"id":"good1","count":1}
not json at all
{"id":"good2","count":2}
{"truncated":
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	got, skipped, err := Read[record](path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestReadMissingFile(t *testing.T) {
	got, skipped, err := Read[record](filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got != nil || skipped != 0 {
		t.Errorf("got %v (skipped %d), want empty", got, skipped)
	}
}

func TestReadFiltered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	for i := 0; i < 5; i++ {
		if err := Append(path, record{ID: "x", Count: i}); err != nil {
			t.Fatal(err)
		}
	}

	got, _, err := ReadFiltered(path, func(r record) bool { return r.Count%2 == 0 })
	if err != nil {
		t.Fatalf("ReadFiltered returned error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestRewriteReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	if err := Append(path, record{ID: "old"}); err != nil {
		t.Fatal(err)
	}

	if err := Rewrite(path, []record{{ID: "new1"}, {ID: "new2"}}); err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}

	got, _, err := Read[record](path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "new1" {
		t.Errorf("unexpected contents after rewrite: %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestAppendBestEffortNeverPanics(t *testing.T) {
	// A directory path cannot be opened for append.
	dir := t.TempDir()
	if ok := AppendBestEffort(dir, record{ID: "x"}); ok {
		t.Error("expected best-effort append to a directory to report failure")
	}
}
