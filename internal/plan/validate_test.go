package plan

import (
	"reflect"
	"testing"
)

var testLimits = Limits{SchemaVersion: 3, MaxNodes: 12, MaxWaveDepth: 8}

func guardedAgent() *Agent {
	return &Agent{
		Role:             "implementer",
		Model:            "standard",
		Assumptions:      []string{"tests exist"},
		RollbackTriggers: []string{"build breaks"},
	}
}

func validDoc(deps ...[]int) *Document {
	nodes := nodesFromDeps(deps...)
	waves, _ := Waves(nodes)
	for i := range nodes {
		nodes[i].Wave = waves[i]
		nodes[i].Agent = guardedAgent()
	}
	return &Document{SchemaVersion: 3, Goal: "test goal", Nodes: nodes}
}

func issuesByCheck(r *Report) map[string]Issue {
	out := make(map[string]Issue)
	for _, issue := range r.Issues {
		out[issue.Check] = issue
	}
	return out
}

func TestValidateCleanDocument(t *testing.T) {
	r := Validate(validDoc(nil, []int{0}), testLimits)
	if !r.OK() {
		t.Errorf("expected clean document to validate, got %+v", r.Issues)
	}
	if len(r.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", r.Issues)
	}
}

func TestValidateSchemaVersion(t *testing.T) {
	doc := validDoc(nil)
	doc.SchemaVersion = 2

	r := Validate(doc, testLimits)
	if r.OK() {
		t.Fatal("expected schema mismatch to be an error")
	}
	if _, ok := issuesByCheck(r)["schema_version"]; !ok {
		t.Errorf("missing schema_version issue: %+v", r.Issues)
	}
}

func TestValidateEmptyNodes(t *testing.T) {
	doc := &Document{SchemaVersion: 3}
	r := Validate(doc, testLimits)
	if r.OK() {
		t.Fatal("expected empty plan to be an error")
	}
	if r.Issues[0].Check != "empty_nodes" {
		t.Errorf("first issue = %+v, want empty_nodes", r.Issues[0])
	}
}

func TestValidateWriteConflict(t *testing.T) {
	doc := validDoc(nil, nil)
	doc.Nodes[0].Metadata.Files.Create = []string{"shared.go"}
	doc.Nodes[1].Metadata.Files.Modify = []string{"shared.go"}

	r := Validate(doc, testLimits)
	issue, ok := issuesByCheck(r)["write_conflict"]
	if !ok {
		t.Fatalf("missing write_conflict issue: %+v", r.Issues)
	}
	if issue.Severity != SeverityError {
		t.Errorf("write_conflict severity = %s, want error", issue.Severity)
	}
	if !reflect.DeepEqual(issue.Nodes, []int{0, 1}) {
		t.Errorf("offending nodes = %v, want [0 1]", issue.Nodes)
	}
}

func TestValidateWriteConflictAcrossWavesIsFine(t *testing.T) {
	doc := validDoc(nil, []int{0})
	doc.Nodes[0].Metadata.Files.Create = []string{"shared.go"}
	doc.Nodes[1].Metadata.Files.Modify = []string{"shared.go"}

	if r := Validate(doc, testLimits); !r.OK() {
		t.Errorf("sequenced writers should not conflict: %+v", r.Issues)
	}
}

func TestValidateReadHazard(t *testing.T) {
	doc := validDoc(nil, nil)
	doc.Nodes[0].Metadata.Files.Create = []string{"config.go"}
	doc.Nodes[1].Metadata.Reads = []string{"config.go"}

	r := Validate(doc, testLimits)
	if _, ok := issuesByCheck(r)["read_hazard"]; !ok {
		t.Errorf("missing read_hazard issue: %+v", r.Issues)
	}

	// An explicit edge resolves the hazard.
	doc.Nodes[1].BlockedBy = []int{0}
	doc.Nodes[1].Wave = 2
	if r := Validate(doc, testLimits); !r.OK() {
		t.Errorf("edge-protected read should not be a hazard: %+v", r.Issues)
	}
}

func TestValidateReportsCycle(t *testing.T) {
	doc := validDoc(nil)
	doc.Nodes[0].BlockedBy = []int{1}
	doc.Nodes = append(doc.Nodes, Node{Status: StatusPending, BlockedBy: []int{0}, Wave: 1, Agent: guardedAgent()})

	r := Validate(doc, testLimits)
	issue, ok := issuesByCheck(r)["acyclicity"]
	if !ok {
		t.Fatalf("missing acyclicity issue: %+v", r.Issues)
	}
	if issue.Severity != SeverityError {
		t.Errorf("cycle severity = %s, want error", issue.Severity)
	}
	if !reflect.DeepEqual(issue.Nodes, []int{0, 1}) {
		t.Errorf("cycle members = %v, want [0 1]", issue.Nodes)
	}
}

func TestValidateSoftIssues(t *testing.T) {
	doc := validDoc(nil, []int{0})
	doc.Nodes[1].Wave = 7         // stale
	doc.Nodes[0].Agent = &Agent{} // no guardrails

	r := Validate(doc, testLimits)
	if !r.OK() {
		t.Fatalf("soft issues must not block: %+v", r.Issues)
	}
	byCheck := issuesByCheck(r)
	if _, ok := byCheck["wave_numbers"]; !ok {
		t.Errorf("missing wave_numbers warning: %+v", r.Issues)
	}
	if _, ok := byCheck["agent_guardrails"]; !ok {
		t.Errorf("missing agent_guardrails warning: %+v", r.Issues)
	}
}

func TestValidateNodeCountCeiling(t *testing.T) {
	deps := make([][]int, 13)
	doc := validDoc(deps...)

	r := Validate(doc, testLimits)
	if !r.OK() {
		t.Fatalf("oversized plan should still validate: %+v", r.Issues)
	}
	if _, ok := issuesByCheck(r)["node_count"]; !ok {
		t.Errorf("missing node_count warning: %+v", r.Issues)
	}
}

func TestRepairFixesWaves(t *testing.T) {
	doc := validDoc(nil, []int{0}, []int{1})
	doc.Nodes[1].Wave = 9
	doc.Nodes[2].Wave = 0

	repaired, err := Repair(doc, 2)
	if err != nil {
		t.Fatalf("Repair returned error: %v", err)
	}
	if repaired != 2 {
		t.Errorf("repaired = %d, want 2", repaired)
	}
	for i, want := range []int{1, 2, 3} {
		if doc.Nodes[i].Wave != want {
			t.Errorf("node %d wave = %d, want %d", i, doc.Nodes[i].Wave, want)
		}
	}
}

func TestRepairRefusesCycle(t *testing.T) {
	doc := validDoc(nil, nil)
	doc.Nodes[0].BlockedBy = []int{1}
	doc.Nodes[1].BlockedBy = []int{0}

	if _, err := Repair(doc, 2); err == nil {
		t.Fatal("expected cycle error from Repair")
	}
}

func TestFinalizeInitializesAndRepairs(t *testing.T) {
	// Fresh plan straight from generation: no statuses, no waves.
	doc := &Document{
		SchemaVersion: 3,
		Goal:          "build the thing",
		Nodes: []Node{
			{Subject: "a", Agent: guardedAgent()},
			{Subject: "b", BlockedBy: []int{0}, Agent: guardedAgent()},
			{Subject: "c", BlockedBy: []int{0}, Agent: guardedAgent()},
		},
	}

	res, err := Finalize(doc, testLimits, 2)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	for i, want := range []int{1, 2, 2} {
		if doc.Nodes[i].Wave != want {
			t.Errorf("node %d wave = %d, want %d", i, doc.Nodes[i].Wave, want)
		}
		if doc.Nodes[i].Status != StatusPending {
			t.Errorf("node %d status = %s, want pending", i, doc.Nodes[i].Status)
		}
	}
	if res.IssuesRepaired == 0 {
		t.Error("expected wave repairs to be counted")
	}
	if len(res.ValidationIssues) != 0 {
		t.Errorf("unexpected residual issues: %+v", res.ValidationIssues)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	doc := &Document{
		SchemaVersion: 3,
		Goal:          "g",
		Nodes: []Node{
			{Subject: "a", Agent: guardedAgent()},
			{Subject: "b", BlockedBy: []int{0}, Agent: guardedAgent()},
		},
	}

	if _, err := Finalize(doc, testLimits, 2); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	snapshot := *doc
	snapshotNodes := append([]Node(nil), doc.Nodes...)

	res, err := Finalize(doc, testLimits, 2)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if res.IssuesFound != 0 || res.IssuesRepaired != 0 {
		t.Errorf("second run found %d, repaired %d, want 0 and 0", res.IssuesFound, res.IssuesRepaired)
	}
	if !reflect.DeepEqual(doc.Nodes, snapshotNodes) {
		t.Error("second Finalize changed the nodes")
	}
	if doc.SchemaVersion != snapshot.SchemaVersion || doc.Goal != snapshot.Goal {
		t.Error("second Finalize changed document fields")
	}
}

func TestFinalizeRejectsCycle(t *testing.T) {
	doc := validDoc(nil)
	doc.Nodes[0].BlockedBy = []int{1}
	doc.Nodes = append(doc.Nodes, Node{Status: StatusPending, BlockedBy: []int{0}, Agent: guardedAgent()})

	_, err := Finalize(doc, testLimits, 2)
	cycle, ok := err.(*CycleError)
	if !ok {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !reflect.DeepEqual(cycle.Members, []int{0, 1}) {
		t.Errorf("cycle members = %v, want [0 1]", cycle.Members)
	}
}

func TestFinalizeRejectsWriteConflict(t *testing.T) {
	doc := validDoc(nil, nil)
	doc.Nodes[0].Metadata.Files.Create = []string{"same.go"}
	doc.Nodes[1].Metadata.Files.Create = []string{"same.go"}

	_, err := Finalize(doc, testLimits, 2)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Issues[0].Check != "write_conflict" {
		t.Errorf("blocking issue = %+v, want write_conflict", verr.Issues[0])
	}
}
