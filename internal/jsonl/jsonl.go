// Package jsonl implements append-only JSON Lines storage. Appends are
// whole-line writes in O_APPEND mode, and reads tolerate corrupt lines so
// one bad record never poisons the rest of a log.
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/designctl/internal/errors"
)

// Append marshals v and appends it as a single line to path, creating the
// file and its parent directory if needed.
func Append(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to marshal record", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.CodeWriteFailed, "failed to create parent directory", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to open log", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to append record", err)
	}
	return nil
}

// AppendBestEffort appends like Append but swallows the error. Used by
// observability paths where logging must never fail the operation being
// logged. Returns true if the record was written.
func AppendBestEffort(path string, v any) bool {
	return Append(path, v) == nil
}

// Read decodes every well-formed line of path into T, returning the
// records in file order along with the number of malformed lines skipped.
// A missing file yields an empty slice, not an error.
func Read[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, errors.Wrap(errors.CodeInternal, "failed to open log", err)
	}
	defer f.Close()

	var (
		records []T
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.Wrap(errors.CodeInternal, "failed to scan log", err)
	}
	return records, skipped, nil
}

// ReadFiltered decodes path like Read and keeps only records for which
// keep returns true.
func ReadFiltered[T any](path string, keep func(T) bool) ([]T, int, error) {
	all, skipped, err := Read[T](path)
	if err != nil {
		return nil, skipped, err
	}
	var out []T
	for _, rec := range all {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, skipped, nil
}

// Rewrite atomically replaces path with the given records, one line each.
// Used by stores that mutate entries in place (memory feedback, decay).
func Rewrite[T any](path string, records []T) error {
	var buf []byte
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(errors.CodeWriteFailed, "failed to marshal record", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.CodeWriteFailed, "failed to create parent directory", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return errors.Wrap(errors.CodeWriteFailed, "failed to write temp log", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.CodeWriteFailed, "failed to replace log", err)
	}
	return nil
}
