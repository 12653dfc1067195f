// Package selftest exercises the full engine against synthetic fixtures
// in a scratch directory. It is the runtime sanity check behind the
// self-test command: a quick way to verify an installed binary behaves
// before trusting it with a real cycle.
package selftest

import (
	"fmt"
	"os"
	"time"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/memory"
	"github.com/Iron-Ham/designctl/internal/plan"
	"github.com/Iron-Ham/designctl/internal/reflection"
	"github.com/Iron-Ham/designctl/internal/trace"
	"github.com/Iron-Ham/designctl/internal/workspace"
)

// CheckResult is one named check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Run executes every check in a fresh scratch directory and reports the
// results. The scratch directory is removed afterwards.
func Run() ([]CheckResult, error) {
	dir, err := os.MkdirTemp("", "designctl-selftest-")
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "failed to create scratch directory", err)
	}
	defer os.RemoveAll(dir)

	checks := []struct {
		name string
		fn   func(dir string) error
	}{
		{"plan finalize and waves", checkFinalize},
		{"cycle detection", checkCycleDetection},
		{"overlap matrix ordering", checkOverlapOrdering},
		{"ready set and dispatch", checkReadySet},
		{"cascade to fixed point", checkCascade},
		{"retry budget clamp", checkRetryClamp},
		{"circuit breaker exemption", checkBreakerExemption},
		{"memory gate and clamps", checkMemory},
		{"reflection gate", checkReflectionGate},
		{"trace log round trip", checkTrace},
		{"archive preserves logs", checkArchive},
	}

	results := make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		sub, err := os.MkdirTemp(dir, "check-")
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, "failed to create check directory", err)
		}
		res := CheckResult{Name: c.name, Passed: true}
		if err := c.fn(sub); err != nil {
			res.Passed = false
			res.Detail = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

var fixtureLimits = plan.Limits{SchemaVersion: 3, MaxNodes: 12, MaxWaveDepth: 8}

func fixtureDoc() *plan.Document {
	agent := &plan.Agent{
		Role:             "implementer",
		Model:            "standard",
		Assumptions:      []string{"fixture"},
		RollbackTriggers: []string{"fixture"},
	}
	return &plan.Document{
		SchemaVersion: 3,
		Goal:          "self-test fixture",
		Nodes: []plan.Node{
			{Subject: "root", Agent: agent},
			{Subject: "left", BlockedBy: []int{0}, Agent: agent},
			{Subject: "right", BlockedBy: []int{0}, Agent: agent},
		},
	}
}

func checkFinalize(dir string) error {
	doc := fixtureDoc()
	res, err := plan.Finalize(doc, fixtureLimits, 2)
	if err != nil {
		return err
	}
	for i, want := range []int{1, 2, 2} {
		if doc.Nodes[i].Wave != want {
			return fmt.Errorf("node %d wave = %d, want %d", i, doc.Nodes[i].Wave, want)
		}
	}
	if len(res.ValidationIssues) != 0 {
		return fmt.Errorf("unexpected issues: %v", res.ValidationIssues)
	}

	// Idempotence: a second run repairs nothing.
	res, err = plan.Finalize(doc, fixtureLimits, 2)
	if err != nil {
		return err
	}
	if res.IssuesRepaired != 0 {
		return fmt.Errorf("second finalize repaired %d", res.IssuesRepaired)
	}

	path := dir + "/plan.json"
	if err := plan.Save(path, doc); err != nil {
		return err
	}
	if _, err := plan.Load(path, 3); err != nil {
		return err
	}
	return nil
}

func checkCycleDetection(string) error {
	doc := fixtureDoc()
	doc.Nodes[0].BlockedBy = []int{2}
	_, err := plan.Finalize(doc, fixtureLimits, 2)
	if _, isCycle := err.(*plan.CycleError); !isCycle {
		return fmt.Errorf("expected CycleError, got %v", err)
	}
	return nil
}

func checkOverlapOrdering(string) error {
	nodes := make([]plan.Node, 4)
	for i := range nodes {
		nodes[i].Metadata.Files.Modify = []string{"shared.go"}
	}
	for _, p := range plan.OverlapMatrix(nodes) {
		if p.J <= p.I {
			return fmt.Errorf("pair (%d,%d) violates ordering", p.I, p.J)
		}
	}
	return nil
}

func checkReadySet(string) error {
	doc := fixtureDoc()
	if _, err := plan.Finalize(doc, fixtureLimits, 2); err != nil {
		return err
	}
	if _, err := plan.ApplyResults(doc, []plan.Result{{Index: 0, Status: plan.StatusCompleted}}); err != nil {
		return err
	}
	ready := plan.ReadySet(doc)
	if len(ready) != 2 || ready[0] != 1 || ready[1] != 2 {
		return fmt.Errorf("ready set = %v, want [1 2]", ready)
	}
	return nil
}

func checkCascade(string) error {
	doc := fixtureDoc()
	doc.Nodes[2].BlockedBy = []int{1}
	if _, err := plan.Finalize(doc, fixtureLimits, 2); err != nil {
		return err
	}
	outcome, err := plan.ApplyResults(doc, []plan.Result{{Index: 0, Status: plan.StatusFailed}})
	if err != nil {
		return err
	}
	if len(outcome.Cascaded) != 2 {
		return fmt.Errorf("cascaded = %v, want both dependents", outcome.Cascaded)
	}
	if again := plan.CascadeFailures(doc); len(again) != 0 {
		return fmt.Errorf("cascade not at fixed point: %v", again)
	}
	return nil
}

func checkRetryClamp(string) error {
	node := plan.Node{Status: plan.StatusFailed, Attempts: 2}
	if !plan.RetryEligible(&node, 3) {
		return fmt.Errorf("attempts 2 should be eligible")
	}
	node.Attempts = 3
	if plan.RetryEligible(&node, 3) {
		return fmt.Errorf("attempts 3 must not be eligible")
	}
	return nil
}

func checkBreakerExemption(string) error {
	doc := &plan.Document{Nodes: []plan.Node{
		{Status: plan.StatusFailed},
		{Status: plan.StatusFailed},
		{Status: plan.StatusPending},
	}}
	verdict := plan.CircuitBreaker(doc, 0.5, 3)
	if verdict.ShouldAbort || !verdict.Exempt {
		return fmt.Errorf("3-node plan must be exempt, got %+v", verdict)
	}
	return nil
}

func checkMemory(dir string) error {
	store := memory.NewStore(dir + "/memory.jsonl")
	now := time.Now()

	if _, err := store.Add("", memory.CategoryPattern, 5, now); !errors.IsQualityGate(err) {
		return fmt.Errorf("empty content should be gated, got %v", err)
	}
	id, err := store.Add("always use atomic writes", memory.CategoryPattern, 9, now)
	if err != nil {
		return err
	}

	matches, err := store.Search("atomic writes", 5, now)
	if err != nil {
		return err
	}
	if len(matches) != 1 || matches[0].ID != id {
		return fmt.Errorf("search returned %v", matches)
	}

	for i := 0; i < 3; i++ {
		entry, err := store.Feedback(id, true)
		if err != nil {
			return err
		}
		if entry.Importance > memory.MaxImportance {
			return fmt.Errorf("importance %d exceeds clamp", entry.Importance)
		}
	}
	return nil
}

func checkReflectionGate(dir string) error {
	path := dir + "/reflection.jsonl"
	entry := &reflection.Entry{
		Skill:        "execute",
		Goal:         "fixture",
		Outcome:      reflection.OutcomeFailed,
		GoalAchieved: false,
		Timestamp:    time.Now().UTC(),
	}
	entry.Evaluation.WhatFailed = []string{"fixture failure"}
	if err := reflection.Add(path, entry); !errors.IsQualityGate(err) {
		return fmt.Errorf("failure without fix should be gated, got %v", err)
	}
	entry.Evaluation.PromptFixes = []reflection.PromptFix{{Description: "fixture fix"}}
	if err := reflection.Add(path, entry); err != nil {
		return err
	}
	summary, err := reflection.Summarize(path, 5)
	if err != nil {
		return err
	}
	if len(summary.UnresolvedImprovements) != 1 {
		return fmt.Errorf("improvements = %v", summary.UnresolvedImprovements)
	}
	return nil
}

func checkTrace(dir string) error {
	path := dir + "/trace.jsonl"
	now := time.Now().UTC()
	entries := []*trace.Entry{
		{SessionID: "st", Skill: "execute", Event: trace.EventSkillStart, Timestamp: now},
		{SessionID: "st", Skill: "execute", Event: trace.EventSpawn, Agent: "w1", Timestamp: now},
		{SessionID: "st", Skill: "execute", Event: trace.EventCompletion, Agent: "w1", Timestamp: now},
	}
	for _, e := range entries {
		if err := trace.Append(path, e); err != nil {
			return err
		}
	}
	got, _, err := trace.Search(path, trace.Filter{Agent: "w1"}, 0)
	if err != nil {
		return err
	}
	if len(got) != 2 {
		return fmt.Errorf("search returned %d entries, want 2", len(got))
	}
	summary, err := trace.Summarize(path)
	if err != nil {
		return err
	}
	if summary.TotalEntries != 3 || summary.SessionCount != 1 {
		return fmt.Errorf("summary = %+v", summary)
	}
	return nil
}

func checkArchive(dir string) error {
	ws := workspace.New(dir)
	if err := workspace.WriteJSONAtomic(ws.PlanPath(), fixtureDoc()); err != nil {
		return err
	}
	if err := os.WriteFile(ws.MemoryPath(), []byte("{}\n"), 0o644); err != nil {
		return err
	}

	path, err := ws.Archive(time.Now())
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("expected an archive path")
	}
	if _, err := os.Stat(ws.PlanPath()); !os.IsNotExist(err) {
		return fmt.Errorf("plan.json should have been archived")
	}
	if _, err := os.Stat(ws.MemoryPath()); err != nil {
		return fmt.Errorf("memory.jsonl must survive archive: %v", err)
	}
	return nil
}
