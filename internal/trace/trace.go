// Package trace implements the session event log: validated append-only
// records of agent lifecycle events, with AND-filtered search and
// aggregate summaries.
package trace

import (
	"encoding/json"
	"time"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/jsonl"
)

// Event vocabulary.
const (
	EventSkillStart    = "skill-start"
	EventSkillComplete = "skill-complete"
	EventSpawn         = "spawn"
	EventCompletion    = "completion"
	EventFailure       = "failure"
	EventRespawn       = "respawn"
)

var validEvents = map[string]bool{
	EventSkillStart:    true,
	EventSkillComplete: true,
	EventSpawn:         true,
	EventCompletion:    true,
	EventFailure:       true,
	EventRespawn:       true,
}

// leadEvents are emitted by the orchestrating process itself rather than
// a named agent, so they carry no agent field.
var leadEvents = map[string]bool{
	EventSkillStart:    true,
	EventSkillComplete: true,
}

// Entry is one trace record.
type Entry struct {
	SessionID string          `json:"sessionId"`
	Skill     string          `json:"skill"`
	Event     string          `json:"event"`
	Agent     string          `json:"agent,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate checks one entry against the schema. Agent-level events must
// name their agent; lead-level events must not be forced to.
func Validate(e *Entry) error {
	if e.SessionID == "" {
		return errors.NewCommand(errors.CodeInvalidInput, "trace entry requires a session id")
	}
	if e.Skill == "" {
		return errors.NewCommand(errors.CodeInvalidInput, "trace entry requires a skill")
	}
	if !validEvents[e.Event] {
		return errors.NewCommandf(errors.CodeInvalidInput, "unknown event %q", e.Event)
	}
	if e.Agent == "" && !leadEvents[e.Event] {
		return errors.NewCommandf(errors.CodeInvalidInput, "event %q requires an agent", e.Event)
	}
	return nil
}

// Append validates and appends one entry.
func Append(path string, e *Entry) error {
	if err := Validate(e); err != nil {
		return err
	}
	return jsonl.Append(path, e)
}

// Filter selects trace entries. Zero-valued fields match everything;
// set fields are combined with AND.
type Filter struct {
	SessionID string
	Skill     string
	Event     string
	Agent     string
}

func (f Filter) matches(e Entry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Skill != "" && e.Skill != f.Skill {
		return false
	}
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if f.Agent != "" && e.Agent != f.Agent {
		return false
	}
	return true
}

// Search returns matching entries in file order plus the malformed-line
// count. limit <= 0 means unlimited.
func Search(path string, f Filter, limit int) ([]Entry, int, error) {
	entries, skipped, err := jsonl.ReadFiltered(path, f.matches)
	if err != nil {
		return nil, skipped, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, skipped, nil
}

// FileIssue describes one invalid entry in a trace log, by its position
// among the parsed entries.
type FileIssue struct {
	Index  int    `json:"index"`
	Detail string `json:"detail"`
}

// FileReport is the result of validating a whole trace log.
type FileReport struct {
	Total     int         `json:"total"`
	Valid     int         `json:"valid"`
	Invalid   int         `json:"invalid"`
	Malformed int         `json:"malformed"`
	Issues    []FileIssue `json:"issues"`
}

// ValidateFile runs schema validation over every parseable entry in the
// log. Lines that are not valid JSON at all are counted as malformed.
func ValidateFile(path string) (*FileReport, error) {
	entries, skipped, err := jsonl.Read[Entry](path)
	if err != nil {
		return nil, err
	}
	report := &FileReport{
		Total:     len(entries),
		Malformed: skipped,
		Issues:    []FileIssue{},
	}
	for i := range entries {
		if verr := Validate(&entries[i]); verr != nil {
			report.Invalid++
			report.Issues = append(report.Issues, FileIssue{
				Index:  i,
				Detail: errors.DetailOf(verr),
			})
			continue
		}
		report.Valid++
	}
	return report, nil
}

// SessionSummary aggregates one session's events.
type SessionSummary struct {
	SessionID string         `json:"sessionId"`
	Events    map[string]int `json:"events"`
	Skills    []string       `json:"skills"`
	FirstSeen time.Time      `json:"firstSeen"`
	LastSeen  time.Time      `json:"lastSeen"`
}

// Summary aggregates the whole trace log.
type Summary struct {
	TotalEntries  int             `json:"totalEntries"`
	EventCounts   map[string]int  `json:"eventCounts"`
	SessionCount  int             `json:"sessionCount"`
	LatestSession *SessionSummary `json:"latestSession,omitempty"`
	SkippedLines  int             `json:"skippedLines,omitempty"`
}

// Summarize computes per-event counts across the log and the detailed
// summary of the most recently seen session.
func Summarize(path string) (*Summary, error) {
	entries, skipped, err := jsonl.Read[Entry](path)
	if err != nil {
		return nil, err
	}
	return summarize(entries, skipped), nil
}

// SummarizeSession is Summarize restricted to one session's entries.
func SummarizeSession(path, sessionID string) (*Summary, error) {
	entries, skipped, err := jsonl.ReadFiltered(path, func(e Entry) bool {
		return e.SessionID == sessionID
	})
	if err != nil {
		return nil, err
	}
	return summarize(entries, skipped), nil
}

func summarize(entries []Entry, skipped int) *Summary {
	summary := &Summary{
		TotalEntries: len(entries),
		EventCounts:  make(map[string]int),
		SkippedLines: skipped,
	}

	sessions := make(map[string]*SessionSummary)
	var latest *SessionSummary
	for _, e := range entries {
		summary.EventCounts[e.Event]++

		s, ok := sessions[e.SessionID]
		if !ok {
			s = &SessionSummary{
				SessionID: e.SessionID,
				Events:    make(map[string]int),
				FirstSeen: e.Timestamp,
			}
			sessions[e.SessionID] = s
		}
		s.Events[e.Event]++
		if e.Timestamp.After(s.LastSeen) {
			s.LastSeen = e.Timestamp
		}
		if !hasString(s.Skills, e.Skill) {
			s.Skills = append(s.Skills, e.Skill)
		}
		// Later file position wins: the log is append-only, so the last
		// session written is the most recent one.
		latest = s
	}

	summary.SessionCount = len(sessions)
	summary.LatestSession = latest
	return summary
}

func hasString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
