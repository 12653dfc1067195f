// Package workspace resolves the on-disk layout of a .design directory and
// owns the file-level durability rules: JSON documents are replaced
// atomically (temp sibling + rename), and archival moves a finished cycle
// into immutable timestamped storage while the cross-cycle logs stay put.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/designctl/internal/errors"
)

// File names inside a workspace.
const (
	PlanFile       = "plan.json"
	TraceFile      = "trace.jsonl"
	ReflectionFile = "reflection.jsonl"
	MemoryFile     = "memory.jsonl"
	HistoryDir     = "history"
)

// persistent lists the entries archive must never move: the cross-cycle
// learning stores and prior archives.
var persistent = map[string]bool{
	MemoryFile:     true,
	TraceFile:      true,
	ReflectionFile: true,
	HistoryDir:     true,
}

// Workspace is an explicit handle on a working directory. Threading it
// through operations (instead of relying on an ambient conventional path)
// keeps every command a pure function of its inputs and makes tests
// trivially parallelizable across temp directories.
type Workspace struct {
	Root string
}

// New returns a Workspace rooted at dir.
func New(dir string) *Workspace {
	return &Workspace{Root: dir}
}

// PlanPath returns the path of the current cycle's plan document.
func (w *Workspace) PlanPath() string { return filepath.Join(w.Root, PlanFile) }

// TracePath returns the path of the append-only trace log.
func (w *Workspace) TracePath() string { return filepath.Join(w.Root, TraceFile) }

// ReflectionPath returns the path of the append-only reflection log.
func (w *Workspace) ReflectionPath() string { return filepath.Join(w.Root, ReflectionFile) }

// MemoryPath returns the path of the cross-cycle memory store.
func (w *Workspace) MemoryPath() string { return filepath.Join(w.Root, MemoryFile) }

// WriteJSONAtomic writes v as indented JSON to path using a temporary
// sibling file and rename. A reader never observes a partial document and
// a crash mid-write leaves the previous document intact.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to marshal document", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.CodeWriteFailed, "failed to create parent directory", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.CodeWriteFailed, "failed to replace document", err)
	}
	return nil
}

// ReadJSON reads a JSON document into v, translating I/O and parse
// failures into stable error codes.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.NewCommandf(errors.CodeNotFound, "file not found: %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to read file", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.CodeInvalidJSON, "invalid JSON in "+filepath.Base(path), err)
	}
	return nil
}

// Archive moves everything in the workspace except the persistent logs
// into history/<UTC timestamp>/ and returns the archive path. Archiving
// an empty or missing workspace is a no-op, not an error.
func (w *Workspace) Archive(now time.Time) (string, error) {
	info, err := os.Stat(w.Root)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, "failed to stat workspace", err)
	}
	if !info.IsDir() {
		return "", errors.NewCommandf(errors.CodeInvalidInput, "%s is not a directory", w.Root)
	}

	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, "failed to read workspace", err)
	}

	var toArchive []string
	for _, e := range entries {
		if !persistent[e.Name()] {
			toArchive = append(toArchive, e.Name())
		}
	}
	if len(toArchive) == 0 {
		return "", nil
	}

	stamp := now.UTC().Format("20060102T150405Z")
	archiveDir := filepath.Join(w.Root, HistoryDir, stamp)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", errors.Wrap(errors.CodeWriteFailed, "failed to create archive directory", err)
	}

	for _, name := range toArchive {
		src := filepath.Join(w.Root, name)
		dst := filepath.Join(archiveDir, name)
		if err := os.Rename(src, dst); err != nil {
			return "", errors.Wrap(errors.CodeWriteFailed, "failed to archive "+name, err)
		}
	}
	return archiveDir, nil
}
