package plan

import (
	"sort"

	"github.com/Iron-Ham/designctl/internal/errors"
)

// Result is one transient execution outcome applied to the plan. The
// plan document stays the single source of truth; results are inputs.
type Result struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
	Result string `json:"result,omitempty"`
}

// ApplyOutcome reports what a batch of results changed.
type ApplyOutcome struct {
	Trimmed  []int `json:"trimmed"`
	Cascaded []int `json:"cascaded"`
}

// ApplyResults applies a batch of results: sets status and result text,
// increments attempts on failure, trims agent metadata on completion,
// then cascades failures to transitive dependents. The whole batch is
// checked before any node is mutated so a bad result leaves the document
// untouched.
func ApplyResults(doc *Document, results []Result) (*ApplyOutcome, error) {
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(doc.Nodes) {
			return nil, errors.NewCommandf(errors.CodeInvalidInput,
				"result index %d out of range (plan has %d nodes)", res.Index, len(doc.Nodes))
		}
		if !res.Status.Valid() {
			return nil, errors.NewCommandf(errors.CodeInvalidInput,
				"unknown status %q for node %d", res.Status, res.Index)
		}
		if !CanTransition(doc.Nodes[res.Index].Status, res.Status) {
			return nil, errors.NewCommandf(errors.CodeInvalidTransition,
				"node %d cannot move from %s to %s", res.Index, doc.Nodes[res.Index].Status, res.Status)
		}
	}

	outcome := &ApplyOutcome{Trimmed: []int{}, Cascaded: []int{}}
	for _, res := range results {
		node := &doc.Nodes[res.Index]
		prev := node.Status
		node.Status = res.Status
		if res.Result != "" {
			node.Result = res.Result
		}

		switch res.Status {
		case StatusFailed:
			node.Attempts++
		case StatusCompleted:
			if prev != StatusCompleted {
				doc.Progress.Completed = appendUnique(doc.Progress.Completed, res.Index)
			}
			if node.Agent != nil && !node.Agent.Trimmed() {
				node.Agent.Trim()
				outcome.Trimmed = append(outcome.Trimmed, res.Index)
			}
		}
	}

	outcome.Cascaded = CascadeFailures(doc)
	return outcome, nil
}

// CascadeFailures marks every node downstream of a failed or blocked node
// as skipped, to a fixed point. Worklist propagation: seed with the
// currently failed/blocked nodes, flip their pending/in_progress
// dependents, and keep going until nothing changes, so multi-level chains
// resolve in one call. Returns the newly skipped indices, ascending.
// Running it again on the result changes nothing.
func CascadeFailures(doc *Document) []int {
	n := len(doc.Nodes)
	dependents := make([][]int, n)
	for i := range doc.Nodes {
		for _, dep := range doc.Nodes[i].BlockedBy {
			if dep >= 0 && dep < n && dep != i {
				dependents[dep] = append(dependents[dep], i)
			}
		}
	}

	var queue []int
	for i := range doc.Nodes {
		switch doc.Nodes[i].Status {
		case StatusFailed, StatusBlocked, StatusSkipped:
			queue = append(queue, i)
		}
	}

	var cascaded []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range dependents[cur] {
			switch doc.Nodes[next].Status {
			case StatusPending, StatusInProgress:
				doc.Nodes[next].Status = StatusSkipped
				cascaded = append(cascaded, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Ints(cascaded)
	if cascaded == nil {
		cascaded = []int{}
	}
	return cascaded
}

// RetryEligible reports whether a node may return to pending: it failed
// and has attempts left in the budget.
func RetryEligible(node *Node, budget int) bool {
	return node.Status == StatusFailed && node.Attempts < budget
}

// RetryCandidates returns the indices eligible for retry, ascending.
func RetryCandidates(doc *Document, budget int) []int {
	candidates := []int{}
	for i := range doc.Nodes {
		if RetryEligible(&doc.Nodes[i], budget) {
			candidates = append(candidates, i)
		}
	}
	return candidates
}

// BreakerVerdict is the circuit breaker's assessment of a run.
type BreakerVerdict struct {
	ShouldAbort bool    `json:"shouldAbort"`
	Ratio       float64 `json:"ratio"`
	Exempt      bool    `json:"exempt"`
}

// CircuitBreaker computes the fraction of unsuccessful nodes (failed,
// blocked, skipped) over all nodes that haven't completed, and signals
// abort when it exceeds threshold. Plans with minNodes or fewer are
// exempt: the ratio means nothing on a sample that small. Tripping is a
// whole-run signal for the dispatcher to stop, not a per-node failure.
func CircuitBreaker(doc *Document, threshold float64, minNodes int) BreakerVerdict {
	counts := doc.Counts()
	bad := counts[StatusFailed] + counts[StatusBlocked] + counts[StatusSkipped]
	denom := len(doc.Nodes) - counts[StatusCompleted]

	verdict := BreakerVerdict{Exempt: len(doc.Nodes) <= minNodes}
	if denom > 0 {
		verdict.Ratio = float64(bad) / float64(denom)
	}
	verdict.ShouldAbort = !verdict.Exempt && verdict.Ratio > threshold
	return verdict
}

// ResumeReset returns in_progress nodes to pending so an interrupted
// cycle can be resumed: whatever claimed them is gone. The abandoned
// attempt counts against the budget. Returns the reset indices,
// ascending.
func ResumeReset(doc *Document) []int {
	reset := []int{}
	for i := range doc.Nodes {
		if doc.Nodes[i].Status == StatusInProgress {
			doc.Nodes[i].Status = StatusPending
			doc.Nodes[i].Attempts++
			reset = append(reset, i)
		}
	}
	return reset
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
