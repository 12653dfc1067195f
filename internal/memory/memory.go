// Package memory implements the cross-cycle learning store: curated
// entries with importance and recency scored retrieval, a quality gate on
// insertion, and a boost/decay feedback loop.
package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/jsonl"
)

// Category values accepted by the quality gate.
const (
	CategoryPattern    = "pattern"
	CategoryProcedure  = "procedure"
	CategoryGotcha     = "gotcha"
	CategoryPreference = "preference"
	CategoryMistake    = "mistake"
	CategoryConvention = "convention"
	CategoryApproach   = "approach"
	CategoryFailure    = "failure"
)

var validCategories = map[string]bool{
	CategoryPattern:    true,
	CategoryProcedure:  true,
	CategoryGotcha:     true,
	CategoryPreference: true,
	CategoryMistake:    true,
	CategoryConvention: true,
	CategoryApproach:   true,
	CategoryFailure:    true,
}

// Importance bounds. Boost and decay clamp to this range.
const (
	MinImportance = 1
	MaxImportance = 10
)

// Entry is one learned fact. RetrievalCount counts search hits;
// UsageCount counts confirmed-helpful feedback. They are separate
// because retrieval alone says nothing about whether the entry helped.
type Entry struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	Importance     int       `json:"importance"`
	UsageCount     int       `json:"usageCount"`
	RetrievalCount int       `json:"retrievalCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store is a handle on one memory log file.
type Store struct {
	Path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Add validates and appends a new entry, returning its generated ID.
// The quality gate rejects entries with no content or an unknown
// category; a rejection is an expected "no", not an exceptional state.
func (s *Store) Add(content, category string, importance int, now time.Time) (string, error) {
	if content == "" {
		return "", errors.NewCommand(errors.CodeQualityGate, "memory entry requires content")
	}
	if !validCategories[category] {
		return "", errors.NewCommandf(errors.CodeQualityGate, "unknown category %q", category)
	}
	if importance < MinImportance || importance > MaxImportance {
		return "", errors.NewCommandf(errors.CodeQualityGate,
			"importance %d outside %d-%d", importance, MinImportance, MaxImportance)
	}

	entry := Entry{
		ID:         uuid.NewString(),
		Content:    content,
		Category:   category,
		Importance: importance,
		CreatedAt:  now.UTC(),
	}
	if err := jsonl.Append(s.Path, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// Match is one scored search result.
type Match struct {
	Entry
	Score float64 `json:"score"`
}

// Search ranks all entries against the query and returns the top k.
// Ties break toward higher importance, then more recent creation.
// Returned entries get their retrieval counter bumped and the store is
// rewritten; a rewrite failure degrades to returning the results without
// the bump, since retrieval accounting is not worth failing a search.
func (s *Store) Search(query string, k int, now time.Time) ([]Match, error) {
	entries, _, err := jsonl.Read[Entry](s.Path)
	if err != nil {
		return nil, err
	}

	queryTokens := Tokenize(query)
	var matches []Match
	for _, e := range entries {
		score := Score(e, queryTokens, now)
		if score > 0 {
			matches = append(matches, Match{Entry: e, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Importance != matches[j].Importance {
			return matches[i].Importance > matches[j].Importance
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	if len(matches) > 0 {
		returned := make(map[string]bool, len(matches))
		for _, m := range matches {
			returned[m.ID] = true
		}
		for i := range entries {
			if returned[entries[i].ID] {
				entries[i].RetrievalCount++
			}
		}
		if err := jsonl.Rewrite(s.Path, entries); err == nil {
			for i := range matches {
				matches[i].RetrievalCount++
			}
		}
	}
	return matches, nil
}

// Boost raises an entry's importance by one, clamped to the maximum.
// Unlike Feedback it does not touch the usage counter: it is a curation
// action, not an outcome signal.
func (s *Store) Boost(id string) (*Entry, error) {
	return s.adjust(id, +1)
}

// Decay lowers an entry's importance by one, clamped to the minimum.
func (s *Store) Decay(id string) (*Entry, error) {
	return s.adjust(id, -1)
}

func (s *Store) adjust(id string, delta int) (*Entry, error) {
	entries, _, err := jsonl.Read[Entry](s.Path)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		next := entries[i].Importance + delta
		if next > MaxImportance {
			next = MaxImportance
		}
		if next < MinImportance {
			next = MinImportance
		}
		entries[i].Importance = next
		if err := jsonl.Rewrite(s.Path, entries); err != nil {
			return nil, err
		}
		out := entries[i]
		return &out, nil
	}
	return nil, errors.NewCommandf(errors.CodeNotFound, "no memory entry with id %s", id)
}

// Feedback records whether a previously retrieved entry actually helped.
// Helpful boosts importance, unhelpful decays it, both clamped; either
// way the usage counter advances. Boost and decay are idempotent at the
// clamp boundaries.
func (s *Store) Feedback(id string, helpful bool) (*Entry, error) {
	entries, _, err := jsonl.Read[Entry](s.Path)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewCommandf(errors.CodeNotFound, "no memory entry with id %s", id)
	}

	e := &entries[idx]
	if helpful {
		if e.Importance < MaxImportance {
			e.Importance++
		}
	} else {
		if e.Importance > MinImportance {
			e.Importance--
		}
	}
	e.UsageCount++

	if err := jsonl.Rewrite(s.Path, entries); err != nil {
		return nil, err
	}
	out := *e
	return &out, nil
}
