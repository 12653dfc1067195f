package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/designctl/internal/plan"
	"github.com/Iron-Ham/designctl/internal/workspace"
)

// runCLI executes one command against the real root command and decodes
// the single JSON object it writes to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := Execute()

	var payload map[string]any
	if jsonErr := json.Unmarshal(out.Bytes(), &payload); jsonErr != nil {
		t.Fatalf("stdout is not a single JSON object: %v\noutput: %q", jsonErr, out.String())
	}
	if _, present := payload["ok"]; !present {
		t.Fatalf("output missing top-level ok field: %q", out.String())
	}
	return payload, err
}

func writeFixturePlan(t *testing.T) string {
	t.Helper()
	agent := &plan.Agent{
		Role:             "implementer",
		Model:            "standard",
		Assumptions:      []string{"fixture"},
		RollbackTriggers: []string{"fixture"},
	}
	doc := &plan.Document{
		SchemaVersion: 3,
		Goal:          "fixture goal",
		Nodes: []plan.Node{
			{Subject: "root", Agent: agent},
			{Subject: "left", BlockedBy: []int{0}, Agent: agent},
			{Subject: "right", BlockedBy: []int{0}, Agent: agent},
		},
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := workspace.WriteJSONAtomic(path, doc); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStatusMissingPlanExitsZero(t *testing.T) {
	payload, err := runCLI(t, "", "status", filepath.Join(t.TempDir(), "plan.json"))
	if err != nil {
		t.Fatalf("status must always exit zero, got %v", err)
	}
	if payload["ok"] != false || payload["error"] != "not_found" || payload["exists"] != false {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestParseFailuresEmitJSON(t *testing.T) {
	// Argument-count and required-flag failures are rejected before the
	// command body runs; the one-object stdout contract must hold there
	// too.
	payload, err := runCLI(t, "", "finalize")
	if err == nil {
		t.Fatal("finalize with no arguments must exit nonzero")
	}
	if payload["ok"] != false || payload["error"] != "invalid_input" {
		t.Errorf("payload = %v", payload)
	}

	// The always-exit-zero commands keep that guarantee for parse
	// failures as well.
	payload, err = runCLI(t, "", "status")
	if err != nil {
		t.Fatalf("status must always exit zero, got %v", err)
	}
	if payload["ok"] != false || payload["error"] != "invalid_input" {
		t.Errorf("payload = %v", payload)
	}

	payload, err = runCLI(t, "", "trace-add", filepath.Join(t.TempDir(), "trace.jsonl"))
	if err != nil {
		t.Fatalf("trace-add must always exit zero, got %v", err)
	}
	if payload["ok"] != false || payload["error"] != "invalid_input" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFinalizeThenDispatchFlow(t *testing.T) {
	path := writeFixturePlan(t)

	payload, err := runCLI(t, "", "finalize", path)
	if err != nil {
		t.Fatalf("finalize failed: %v (%v)", err, payload)
	}
	if payload["ok"] != true {
		t.Fatalf("finalize payload: %v", payload)
	}

	payload, err = runCLI(t, "", "status", path)
	if err != nil || payload["ok"] != true {
		t.Fatalf("status after finalize: %v (%v)", payload, err)
	}
	counts := payload["counts"].(map[string]any)
	if counts["pending"] != float64(3) {
		t.Errorf("pending = %v, want 3", counts["pending"])
	}
	if payload["isResume"] != false {
		t.Errorf("fresh plan reported as resume: %v", payload)
	}

	// Complete the root; its two dependents become dispatchable.
	payload, err = runCLI(t, `[{"index":0,"status":"completed","result":"done"}]`, "update-status", path)
	if err != nil || payload["ok"] != true {
		t.Fatalf("update-status: %v (%v)", payload, err)
	}

	payload, err = runCLI(t, "", "ready-set", path)
	if err != nil {
		t.Fatal(err)
	}
	ready := payload["ready"].([]any)
	if len(ready) != 2 || ready[0] != float64(1) || ready[1] != float64(2) {
		t.Errorf("ready = %v, want [1 2]", ready)
	}
}

func TestUpdateStatusCascadesInJSON(t *testing.T) {
	path := writeFixturePlan(t)
	if _, err := runCLI(t, "", "finalize", path); err != nil {
		t.Fatal(err)
	}

	payload, err := runCLI(t, `[{"index":0,"status":"failed","result":"broke"}]`, "update-status", path)
	if err != nil {
		t.Fatal(err)
	}
	cascaded := payload["cascaded"].([]any)
	if len(cascaded) != 2 {
		t.Errorf("cascaded = %v, want both dependents", cascaded)
	}
}

func TestFinalizeRejectsCycleWithMembers(t *testing.T) {
	agent := &plan.Agent{Role: "r", Model: "m", Assumptions: []string{"a"}, RollbackTriggers: []string{"r"}}
	doc := &plan.Document{
		SchemaVersion: 3,
		Goal:          "cyclic",
		Nodes: []plan.Node{
			{Subject: "a", BlockedBy: []int{1}, Agent: agent},
			{Subject: "b", BlockedBy: []int{0}, Agent: agent},
		},
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := workspace.WriteJSONAtomic(path, doc); err != nil {
		t.Fatal(err)
	}

	payload, err := runCLI(t, "", "finalize", path)
	if err == nil {
		t.Fatal("finalize of a cyclic plan must exit nonzero")
	}
	if payload["error"] != "cycle" {
		t.Errorf("error = %v, want cycle", payload["error"])
	}
	members := payload["cycle"].([]any)
	if len(members) != 2 {
		t.Errorf("cycle members = %v, want 2", members)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	memPath := filepath.Join(t.TempDir(), "memory.jsonl")

	payload, err := runCLI(t, `{"content":"prefer atomic writes","category":"pattern","importance":8}`,
		"memory-add", memPath)
	if err != nil || payload["ok"] != true {
		t.Fatalf("memory-add: %v (%v)", payload, err)
	}
	id := payload["id"].(string)

	payload, err = runCLI(t, "", "memory-search", memPath, "--goal", "atomic writes")
	if err != nil {
		t.Fatal(err)
	}
	memories := payload["memories"].([]any)
	if len(memories) != 1 {
		t.Fatalf("memories = %v, want 1 result", memories)
	}

	payload, err = runCLI(t, "", "memory-feedback", memPath, "--id", id, "--helpful=true")
	if err != nil || payload["ok"] != true {
		t.Fatalf("memory-feedback: %v (%v)", payload, err)
	}
	if payload["importance"] != float64(9) {
		t.Errorf("importance = %v, want 9", payload["importance"])
	}
}

func TestMemoryAddQualityGateExitsNonzero(t *testing.T) {
	memPath := filepath.Join(t.TempDir(), "memory.jsonl")
	payload, err := runCLI(t, `{"content":"x","category":"vibes"}`, "memory-add", memPath)
	if err == nil {
		t.Fatal("gated memory-add must exit nonzero")
	}
	if payload["error"] != "quality_gate" {
		t.Errorf("error = %v, want quality_gate", payload["error"])
	}
}

func TestReflectionAddGate(t *testing.T) {
	reflPath := filepath.Join(t.TempDir(), "reflection.jsonl")

	payload, err := runCLI(t, `{"whatFailed":["x"],"promptFixes":[]}`,
		"reflection-add", reflPath,
		"--skill", "execute", "--goal", "g", "--outcome", "failed")
	if err == nil {
		t.Fatal("failure without fix must be rejected")
	}
	if payload["error"] != "quality_gate" {
		t.Errorf("error = %v, want quality_gate", payload["error"])
	}

	payload, err = runCLI(t, `{"whatFailed":["x"],"promptFixes":["do y first"]}`,
		"reflection-add", reflPath,
		"--skill", "execute", "--goal", "g", "--outcome", "failed")
	if err != nil || payload["ok"] != true {
		t.Fatalf("valid reflection rejected: %v (%v)", payload, err)
	}
}

func TestTraceAddBestEffortExitsZero(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")

	// Missing agent on an agent-level event: reported, but exit zero.
	payload, err := runCLI(t, "", "trace-add", tracePath,
		"--session-id", "s1", "--skill", "execute", "--event", "spawn")
	if err != nil {
		t.Fatalf("trace-add must never exit nonzero, got %v", err)
	}
	if payload["ok"] != false {
		t.Errorf("invalid entry should report ok:false: %v", payload)
	}

	payload, err = runCLI(t, "", "trace-add", tracePath,
		"--session-id", "s1", "--skill", "execute", "--event", "spawn", "--agent", "w1")
	if err != nil || payload["ok"] != true {
		t.Fatalf("valid trace-add: %v (%v)", payload, err)
	}

	payload, err = runCLI(t, "", "trace-summary", tracePath)
	if err != nil {
		t.Fatal(err)
	}
	if payload["totalEntries"] != float64(1) {
		t.Errorf("totalEntries = %v, want 1", payload["totalEntries"])
	}
}

func TestSelfTestPasses(t *testing.T) {
	payload, err := runCLI(t, "", "self-test")
	if err != nil {
		t.Fatalf("self-test failed: %v (%v)", err, payload)
	}
	if payload["ok"] != true || payload["failed"] != float64(0) {
		t.Errorf("self-test payload: %v", payload)
	}
}

func TestStatusReportsFoundSchemaVersion(t *testing.T) {
	doc := &plan.Document{
		SchemaVersion: 2,
		Goal:          "older cycle",
		Nodes:         []plan.Node{{Subject: "n"}},
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := workspace.WriteJSONAtomic(path, doc); err != nil {
		t.Fatal(err)
	}

	payload, err := runCLI(t, "", "status", path)
	if err != nil {
		t.Fatalf("status must always exit zero, got %v", err)
	}
	if payload["error"] != "bad_schema" || payload["exists"] != true {
		t.Errorf("payload = %v", payload)
	}
	if payload["schemaVersion"] != float64(2) {
		t.Errorf("schemaVersion = %v, want the version found on disk", payload["schemaVersion"])
	}
}

func TestFinalizeValidateOnlyRepairsBeforeJudging(t *testing.T) {
	// Dependent nodes writing the same file land in different waves once
	// repaired; on the stored zero waves they would look like a
	// same-wave write conflict.
	agent := &plan.Agent{Role: "r", Model: "m", Assumptions: []string{"a"}, RollbackTriggers: []string{"r"}}
	doc := &plan.Document{
		SchemaVersion: 3,
		Goal:          "fresh",
		Nodes: []plan.Node{
			{Subject: "write", Agent: agent,
				Metadata: plan.Metadata{Files: plan.FileSet{Create: []string{"f.go"}}}},
			{Subject: "rewrite", BlockedBy: []int{0}, Agent: agent,
				Metadata: plan.Metadata{Files: plan.FileSet{Modify: []string{"f.go"}}}},
		},
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := workspace.WriteJSONAtomic(path, doc); err != nil {
		t.Fatal(err)
	}

	payload, err := runCLI(t, "", "finalize", path, "--validate-only")
	if err != nil || payload["ok"] != true {
		t.Fatalf("validate-only: %v (%v)", payload, err)
	}
	if payload["valid"] != true {
		t.Errorf("valid = %v, fresh dependent writers must not conflict", payload["valid"])
	}

	// The repair stays in memory: the document on disk is untouched.
	var onDisk plan.Document
	if err := workspace.ReadJSON(path, &onDisk); err != nil {
		t.Fatal(err)
	}
	if onDisk.Nodes[1].Wave != 0 {
		t.Errorf("wave = %d, validate-only must not write the plan", onDisk.Nodes[1].Wave)
	}
}
