// Package plan defines the plan document schema and the deterministic
// engine that operates on it: graph validation and repair, wave
// computation, overlap analysis, and execution-state updates.
package plan

// Status is the lifecycle state of a plan node.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
	StatusSkipped    Status = "skipped"
)

// AllStatuses lists every valid node status.
var AllStatuses = []Status{
	StatusPending, StatusInProgress, StatusCompleted,
	StatusFailed, StatusBlocked, StatusSkipped,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted,
		StatusFailed, StatusBlocked, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether s ends a node's lifecycle. failed and blocked
// are terminal for scheduling purposes but may return to pending on retry.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBlocked, StatusSkipped:
		return true
	}
	return false
}

// transitions maps each status to the statuses it may move to.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusFailed, StatusBlocked, StatusSkipped},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusBlocked, StatusSkipped, StatusPending},
	StatusFailed:     {StatusPending, StatusSkipped, StatusFailed},
	StatusBlocked:    {StatusPending, StatusSkipped},
	StatusCompleted:  {},
	StatusSkipped:    {StatusPending},
}

// CanTransition reports whether a node may move from one status to another.
// Re-asserting the current status is always allowed so batch updates are
// idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FileSet describes the paths a node is expected to write.
type FileSet struct {
	Create []string `json:"create,omitempty"`
	Modify []string `json:"modify,omitempty"`
}

// Metadata holds per-node scheduling hints.
type Metadata struct {
	Files FileSet  `json:"files,omitempty"`
	Reads []string `json:"reads,omitempty"`
}

// Agent is the per-node execution profile. All fields beyond Role and
// Model are created-time detail and are stripped when the node completes,
// so long-running plans don't accrete unbounded metadata.
type Agent struct {
	Role               string   `json:"role,omitempty"`
	Model              string   `json:"model,omitempty"`
	Approach           string   `json:"approach,omitempty"`
	ContextFiles       []string `json:"contextFiles,omitempty"`
	Assumptions        []string `json:"assumptions,omitempty"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	RollbackTriggers   []string `json:"rollbackTriggers,omitempty"`
	Constraints        []string `json:"constraints,omitempty"`
}

// Trim reduces the agent to its minimal form. One-way: the stripped
// fields are gone from the document after the next save.
func (a *Agent) Trim() {
	*a = Agent{Role: a.Role, Model: a.Model}
}

// Trimmed reports whether the agent is already in minimal form.
func (a *Agent) Trimmed() bool {
	return a.Approach == "" && len(a.ContextFiles) == 0 && len(a.Assumptions) == 0 &&
		len(a.AcceptanceCriteria) == 0 && len(a.RollbackTriggers) == 0 && len(a.Constraints) == 0
}

// Node is one unit of work. Its identity is its position in
// Document.Nodes; indices are referenced by BlockedBy and must stay
// stable for the life of the document.
type Node struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Result      string   `json:"result,omitempty"`
	Attempts    int      `json:"attempts"`
	BlockedBy   []int    `json:"blockedBy"`
	Wave        int      `json:"wave"`
	Metadata    Metadata `json:"metadata,omitempty"`
	Agent       *Agent   `json:"agent,omitempty"`
}

// WriteSet returns the node's declared write paths, create and modify
// combined, deduplicated, in first-seen order.
func (n *Node) WriteSet() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{n.Metadata.Files.Create, n.Metadata.Files.Modify} {
		for _, p := range group {
			if p != "" && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Progress is the mutable cycle summary.
type Progress struct {
	Completed []int    `json:"completed"`
	Decisions []string `json:"decisions,omitempty"`
	Surprises []string `json:"surprises,omitempty"`
}

// Document is the authoritative state of one planning cycle.
type Document struct {
	SchemaVersion int            `json:"schemaVersion"`
	Goal          string         `json:"goal"`
	Context       map[string]any `json:"context,omitempty"`
	Nodes         []Node         `json:"nodes"`
	Progress      Progress       `json:"progress"`
}

// Counts tallies nodes per status.
func (d *Document) Counts() map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for i := range d.Nodes {
		counts[d.Nodes[i].Status]++
	}
	return counts
}

// AllTerminal reports whether every node has reached a terminal status.
func (d *Document) AllTerminal() bool {
	for i := range d.Nodes {
		if !d.Nodes[i].Status.Terminal() {
			return false
		}
	}
	return len(d.Nodes) > 0
}
