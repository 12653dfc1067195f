// Package reflection implements the post-cycle evaluation log: schema
// validated append-only records plus the health summary that feeds
// unresolved improvements forward into the next cycle.
package reflection

import (
	"encoding/json"
	"time"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/jsonl"
)

// Outcome values for a cycle.
const (
	OutcomeCompleted = "completed"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"
)

var validOutcomes = map[string]bool{
	OutcomeCompleted: true,
	OutcomePartial:   true,
	OutcomeFailed:    true,
	OutcomeAborted:   true,
}

// ValidOutcome reports whether s is a known outcome.
func ValidOutcome(s string) bool { return validOutcomes[s] }

// failureClasses is the closed taxonomy for prompt fixes. A fix that
// names a class outside this set is rejected at write time.
var failureClasses = map[string]bool{
	"spec-disobey":              true,
	"step-repetition":           true,
	"context-loss":              true,
	"termination-unaware":       true,
	"ignored-peer-input":        true,
	"task-derailment":           true,
	"premature-termination":     true,
	"incorrect-verification":    true,
	"no-verification":           true,
	"reasoning-action-mismatch": true,
}

// PromptFix is one actionable improvement. Accepts both the bare-string
// and the object wire form, since older logs carry plain strings.
type PromptFix struct {
	Description  string `json:"description"`
	FailureClass string `json:"failureClass,omitempty"`
}

func (p *PromptFix) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Description = s
		p.FailureClass = ""
		return nil
	}
	type wire PromptFix
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = PromptFix(w)
	return nil
}

// Evaluation is the structured body of a reflection entry.
type Evaluation struct {
	WhatWorked  []string    `json:"whatWorked,omitempty"`
	WhatFailed  []string    `json:"whatFailed,omitempty"`
	DoNextTime  []string    `json:"doNextTime,omitempty"`
	PromptFixes []PromptFix `json:"promptFixes,omitempty"`
}

// Entry is one reflection record.
type Entry struct {
	Skill        string     `json:"skill"`
	Goal         string     `json:"goal"`
	Outcome      string     `json:"outcome"`
	GoalAchieved bool       `json:"goalAchieved"`
	Evaluation   Evaluation `json:"evaluation"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Validate enforces the write-time schema. The central rule: a failure
// observation without an actionable fix is worthless, so non-empty
// whatFailed requires non-empty promptFixes. Rejections are expected
// "no"s that keep bad data out of the learning store.
func Validate(e *Entry) error {
	if e.Skill == "" {
		return errors.NewCommand(errors.CodeQualityGate, "reflection requires a skill")
	}
	if e.Goal == "" {
		return errors.NewCommand(errors.CodeQualityGate, "reflection requires a goal")
	}
	if !ValidOutcome(e.Outcome) {
		return errors.NewCommandf(errors.CodeQualityGate, "unknown outcome %q", e.Outcome)
	}
	if len(e.Evaluation.WhatFailed) > 0 && len(e.Evaluation.PromptFixes) == 0 {
		return errors.NewCommand(errors.CodeQualityGate,
			"whatFailed entries require at least one promptFix")
	}
	for _, fix := range e.Evaluation.PromptFixes {
		if fix.Description == "" {
			return errors.NewCommand(errors.CodeQualityGate, "promptFix requires a description")
		}
		if fix.FailureClass != "" && !failureClasses[fix.FailureClass] {
			return errors.NewCommandf(errors.CodeQualityGate,
				"unknown failure class %q", fix.FailureClass)
		}
	}
	return nil
}

// Add validates and appends one entry. The append is strict: reflection
// data only enters the log through this gate.
func Add(path string, e *Entry) error {
	if err := Validate(e); err != nil {
		return err
	}
	return jsonl.Append(path, e)
}

// ReadAll returns all well-formed entries in file order plus the count
// of malformed lines skipped.
func ReadAll(path string) ([]Entry, int, error) {
	return jsonl.Read[Entry](path)
}
