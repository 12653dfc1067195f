package reflection

import (
	"strings"
	"time"
)

// maxImprovements caps how many unresolved items a summary surfaces.
const maxImprovements = 10

// dedupePrefixLen bounds the prefix compared when deduplicating
// improvement text. Free-text items tend to diverge in their tails while
// saying the same thing up front.
const dedupePrefixLen = 60

// RunSummary is one recent cycle in a health summary.
type RunSummary struct {
	Skill        string    `json:"skill"`
	Outcome      string    `json:"outcome"`
	GoalAchieved bool      `json:"goalAchieved"`
	Timestamp    time.Time `json:"timestamp"`
}

// HealthSummary aggregates the recent reflection window.
type HealthSummary struct {
	RecentRuns             []RunSummary `json:"recentRuns"`
	UnresolvedImprovements []string     `json:"unresolvedImprovements"`
	GoalAchievementRate    float64      `json:"goalAchievementRate"`
	SkippedLines           int          `json:"skippedLines,omitempty"`
}

// Summarize reads the last window reflection entries and extracts the
// improvement backlog: deduplicated promptFixes and doNextTime items,
// with items from unsuccessful runs sorted ahead of items from
// successful ones, since a fix attached to a failure is more urgent than
// an idea attached to a success.
func Summarize(path string, window int) (*HealthSummary, error) {
	entries, skipped, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	if window > 0 && len(entries) > window {
		entries = entries[len(entries)-window:]
	}

	summary := &HealthSummary{
		RecentRuns:             []RunSummary{},
		UnresolvedImprovements: []string{},
		SkippedLines:           skipped,
	}

	achieved := 0
	var fromFailures, fromSuccesses []string
	seen := make(map[string]bool)

	collect := func(item string, failed bool) {
		item = strings.TrimSpace(item)
		if item == "" {
			return
		}
		key := strings.ToLower(item)
		if len(key) > dedupePrefixLen {
			key = key[:dedupePrefixLen]
		}
		if seen[key] {
			return
		}
		seen[key] = true
		if failed {
			fromFailures = append(fromFailures, item)
		} else {
			fromSuccesses = append(fromSuccesses, item)
		}
	}

	for _, e := range entries {
		summary.RecentRuns = append(summary.RecentRuns, RunSummary{
			Skill:        e.Skill,
			Outcome:      e.Outcome,
			GoalAchieved: e.GoalAchieved,
			Timestamp:    e.Timestamp,
		})
		if e.GoalAchieved {
			achieved++
		}
		failed := !e.GoalAchieved || e.Outcome == OutcomeFailed || e.Outcome == OutcomeAborted
		for _, fix := range e.Evaluation.PromptFixes {
			collect(fix.Description, failed)
		}
		for _, item := range e.Evaluation.DoNextTime {
			collect(item, failed)
		}
	}

	summary.UnresolvedImprovements = append(summary.UnresolvedImprovements, fromFailures...)
	summary.UnresolvedImprovements = append(summary.UnresolvedImprovements, fromSuccesses...)
	if len(summary.UnresolvedImprovements) > maxImprovements {
		summary.UnresolvedImprovements = summary.UnresolvedImprovements[:maxImprovements]
	}
	if len(entries) > 0 {
		summary.GoalAchievementRate = float64(achieved) / float64(len(entries))
	}
	return summary, nil
}
