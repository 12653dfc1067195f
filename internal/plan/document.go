package plan

import (
	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/workspace"
)

// Load reads and schema-checks a plan document. The error code
// distinguishes "no plan" from "plan too old" so callers can branch.
func Load(path string, expectedVersion int) (*Document, error) {
	var doc Document
	if err := workspace.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	if doc.SchemaVersion != expectedVersion {
		return nil, errors.NewCommandf(errors.CodeBadSchema,
			"schema version %d, expected %d", doc.SchemaVersion, expectedVersion)
	}
	return &doc, nil
}

// Save atomically replaces the document on disk. Plan writes are
// authoritative state, never best-effort: a failed rename surfaces as a
// hard error.
func Save(path string, doc *Document) error {
	return workspace.WriteJSONAtomic(path, doc)
}
