package plan

import (
	"fmt"
	"sort"
)

// Issue severities. Errors block finalize; warnings are reported and the
// document proceeds.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
	Nodes    []int  `json:"nodes,omitempty"`
}

// Report is the outcome of validating a document.
type Report struct {
	Issues []Issue
}

// OK reports whether the document has no blocking errors.
func (r *Report) OK() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns only the blocking issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Report) add(check, severity, detail string, nodes ...int) {
	r.Issues = append(r.Issues, Issue{Check: check, Severity: severity, Detail: detail, Nodes: nodes})
}

// Limits carries the configurable validation ceilings.
type Limits struct {
	SchemaVersion int
	MaxNodes      int
	MaxWaveDepth  int
}

// Validate runs every check and collects all findings rather than failing
// fast. Write conflicts, read hazards, cycles, wrong schema and an empty
// graph are errors; wave mismatches, missing agent guardrails and size
// ceilings are warnings. Wave-dependent checks use the stored wave values
// so the report describes the document as written; run Repair first for a
// report against corrected waves.
func Validate(doc *Document, limits Limits) *Report {
	r := &Report{}

	if doc.SchemaVersion != limits.SchemaVersion {
		r.add("schema_version", SeverityError,
			fmt.Sprintf("schema version %d, expected %d", doc.SchemaVersion, limits.SchemaVersion))
	}
	if len(doc.Nodes) == 0 {
		r.add("empty_nodes", SeverityError, "plan has no nodes")
		return r
	}

	checkWriteConflicts(doc, r)
	checkReadHazards(doc, r)

	waves, err := Waves(doc.Nodes)
	if cycle, ok := err.(*CycleError); ok {
		r.add("acyclicity", SeverityError, cycle.Error(), cycle.Members...)
	} else {
		var mismatched []int
		for i := range doc.Nodes {
			if doc.Nodes[i].Wave != waves[i] {
				mismatched = append(mismatched, i)
			}
		}
		if len(mismatched) > 0 {
			r.add("wave_numbers", SeverityWarning,
				fmt.Sprintf("%d nodes have stale wave numbers", len(mismatched)), mismatched...)
		}
		if limits.MaxWaveDepth > 0 && MaxWave(waves) > limits.MaxWaveDepth {
			r.add("wave_depth", SeverityWarning,
				fmt.Sprintf("critical path depth %d exceeds %d", MaxWave(waves), limits.MaxWaveDepth))
		}
	}

	for i := range doc.Nodes {
		agent := doc.Nodes[i].Agent
		if agent == nil || len(agent.Assumptions) == 0 || len(agent.RollbackTriggers) == 0 {
			if !doc.Nodes[i].Status.Terminal() {
				r.add("agent_guardrails", SeverityWarning,
					fmt.Sprintf("node %d is missing assumptions or rollback triggers", i), i)
			}
		}
	}

	if limits.MaxNodes > 0 && len(doc.Nodes) > limits.MaxNodes {
		r.add("node_count", SeverityWarning,
			fmt.Sprintf("%d nodes exceeds ceiling of %d", len(doc.Nodes), limits.MaxNodes))
	}

	return r
}

// checkWriteConflicts flags any two nodes in the same wave that declare a
// common write path. Same-wave nodes may run concurrently, so a shared
// write path is a race the graph must serialize with an edge.
func checkWriteConflicts(doc *Document, r *Report) {
	for i := 0; i < len(doc.Nodes); i++ {
		for j := i + 1; j < len(doc.Nodes); j++ {
			if doc.Nodes[i].Wave != doc.Nodes[j].Wave {
				continue
			}
			shared := intersect(doc.Nodes[i].WriteSet(), doc.Nodes[j].WriteSet())
			if len(shared) > 0 {
				r.add("write_conflict", SeverityError,
					fmt.Sprintf("nodes %d and %d in wave %d both write %v", i, j, doc.Nodes[i].Wave, shared),
					i, j)
			}
		}
	}
}

// checkReadHazards flags a node whose declared reads overlap the write
// set of a node in the same or an earlier wave, where the read may
// observe a file mid-rewrite.
func checkReadHazards(doc *Document, r *Report) {
	for i := range doc.Nodes {
		if len(doc.Nodes[i].Metadata.Reads) == 0 {
			continue
		}
		for j := range doc.Nodes {
			if j == i || doc.Nodes[j].Wave > doc.Nodes[i].Wave {
				continue
			}
			if hasEdge(doc.Nodes, i, j) {
				continue
			}
			shared := intersect(doc.Nodes[i].Metadata.Reads, doc.Nodes[j].WriteSet())
			if len(shared) > 0 {
				r.add("read_hazard", SeverityError,
					fmt.Sprintf("node %d reads %v which node %d writes in wave %d", i, shared, j, doc.Nodes[j].Wave),
					i, j)
			}
		}
	}
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	var out []string
	for _, p := range b {
		if set[p] {
			out = append(out, p)
			set[p] = false
		}
	}
	sort.Strings(out)
	return out
}

// Repair recomputes wave numbers, bounded to maxPasses to rule out
// repair loops. Returns the number of nodes rewritten. A cyclic graph is
// not repairable and returns the CycleError unchanged.
func Repair(doc *Document, maxPasses int) (int, error) {
	repaired := 0
	for pass := 0; pass < maxPasses; pass++ {
		waves, err := Waves(doc.Nodes)
		if err != nil {
			return repaired, err
		}
		changed := 0
		for i := range doc.Nodes {
			if doc.Nodes[i].Wave != waves[i] {
				doc.Nodes[i].Wave = waves[i]
				changed++
			}
		}
		repaired += changed
		if changed == 0 {
			break
		}
	}
	return repaired, nil
}

// FinalizeResult summarizes a finalize run.
type FinalizeResult struct {
	IssuesFound      int     `json:"issuesFound"`
	IssuesRepaired   int     `json:"issuesRepaired"`
	ValidationIssues []Issue `json:"validationIssues"`
	Pairs            []OverlapPair
}

// Finalize validates, repairs wave numbers, initializes unset status
// fields and computes the overlap matrix. The blocking decision is made
// against the repaired document: a fresh plan with unset wave numbers
// must not trip the same-wave conflict checks on stale values. Blocking
// errors abort without saving. Warnings that survive repair are returned
// as validationIssues and the document proceeds anyway. Finalizing an
// already-finalized document changes nothing, so repeated runs produce
// identical documents.
func Finalize(doc *Document, limits Limits, repairPasses int) (*FinalizeResult, error) {
	found := len(Validate(doc, limits).Issues)

	repaired, err := Repair(doc, repairPasses)
	if err != nil {
		return nil, err
	}

	for i := range doc.Nodes {
		if !doc.Nodes[i].Status.Valid() {
			doc.Nodes[i].Status = StatusPending
		}
	}
	if doc.Progress.Completed == nil {
		doc.Progress.Completed = []int{}
	}

	report := Validate(doc, limits)
	if !report.OK() {
		return nil, &ValidationError{Issues: report.Errors()}
	}

	return &FinalizeResult{
		IssuesFound:      found,
		IssuesRepaired:   repaired,
		ValidationIssues: report.Issues,
		Pairs:            OverlapMatrix(doc.Nodes),
	}, nil
}

// ValidationError carries the blocking issues from a failed validation.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Detail
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(e.Issues), e.Issues[0].Detail)
}
