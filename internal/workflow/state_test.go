package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return Open(dir, nil), dir
}

func TestOpenFreshState(t *testing.T) {
	st, _ := openTestStore(t)

	s := st.State()
	if s.WorkflowID == "" {
		t.Error("fresh state should have a workflow id")
	}
	if len(s.CompletedStages) != 0 {
		t.Errorf("fresh state completed = %v", s.CompletedStages)
	}
	if s.HasProgress() {
		t.Error("fresh state should report no progress")
	}
}

func TestStartCompleteTransitions(t *testing.T) {
	st, _ := openTestStore(t)

	if err := st.Start("specify"); err != nil {
		t.Fatal(err)
	}
	if got := st.State().CurrentStage; got != "specify" {
		t.Errorf("current = %q, want specify", got)
	}

	if err := st.Complete("specify"); err != nil {
		t.Fatal(err)
	}
	s := st.State()
	if s.CurrentStage != "" {
		t.Errorf("current should clear on completion, got %q", s.CurrentStage)
	}
	if !s.StageCompleted("specify") {
		t.Error("specify should be completed")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	st, _ := openTestStore(t)

	st.Complete("specify")
	st.Complete("specify")

	if got := len(st.State().CompletedStages); got != 1 {
		t.Errorf("completed_stages has %d entries, want 1", got)
	}
}

func TestFailClearsCurrentAndResumePriority(t *testing.T) {
	st, _ := openTestStore(t)

	st.Complete("specify")
	st.Complete("clarify")
	st.Start("plan")
	if err := st.Fail("plan"); err != nil {
		t.Fatal(err)
	}

	s := st.State()
	if s.CurrentStage != "" {
		t.Error("failed and current must be mutually exclusive")
	}
	if s.FailedStage != "plan" || s.FailedAt == nil {
		t.Errorf("failure not recorded: %+v", s)
	}

	// Resume-from-failure beats forward progress.
	next, ok := st.Next()
	if !ok || next != "plan" {
		t.Errorf("Next() = %q, %v; want plan", next, ok)
	}

	// Restarting the failed stage clears the failure.
	st.Start("plan")
	s = st.State()
	if s.FailedStage != "" || s.FailedAt != nil {
		t.Error("restart should clear the failure record")
	}
}

func TestNextWalksPipeline(t *testing.T) {
	st, _ := openTestStore(t)

	for i, stage := range Stages {
		next, ok := st.Next()
		if !ok {
			t.Fatalf("pipeline reported complete after %d stages", i)
		}
		if next != stage {
			t.Fatalf("Next() = %q, want %q", next, stage)
		}
		st.Complete(stage)
	}

	if _, ok := st.Next(); ok {
		t.Error("Next() should report complete after all stages")
	}
}

func TestPersistReloadLossless(t *testing.T) {
	st, dir := openTestStore(t)

	st.SetRequirement("add user login")
	st.SetSpecDir("specs/001-add-user-login")
	st.Complete("specify")
	st.Complete("clarify")
	st.Start("plan")
	st.RecordTask("T001", TaskCompleted)
	st.RecordTask("T002", TaskFailed)

	before := st.State()
	reloaded := Open(dir, nil).State()

	if reloaded.WorkflowID != before.WorkflowID {
		t.Errorf("workflow id changed on reload")
	}
	if reloaded.Requirement != before.Requirement || reloaded.SpecDir != before.SpecDir {
		t.Errorf("requirement/spec dir lost: %+v", reloaded)
	}
	if reloaded.CurrentStage != "plan" {
		t.Errorf("current = %q", reloaded.CurrentStage)
	}
	if len(reloaded.CompletedStages) != 2 || reloaded.CompletedStages[0] != "specify" {
		t.Errorf("completed = %v", reloaded.CompletedStages)
	}
	if reloaded.TaskStatus["T001"].Status != TaskCompleted || reloaded.TaskStatus["T001"].CompletedAt == nil {
		t.Errorf("task status lost: %+v", reloaded.TaskStatus)
	}
	if reloaded.TaskStatus["T002"].Status != TaskFailed {
		t.Errorf("task status lost: %+v", reloaded.TaskStatus)
	}
}

func TestOpenCorruptStateStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, StateDir, StateFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := Open(dir, nil)
	if st.State().WorkflowID == "" {
		t.Error("corrupt state should yield a fresh workflow")
	}
	if st.State().HasProgress() {
		t.Error("corrupt state should not carry progress")
	}
}

func TestReset(t *testing.T) {
	st, dir := openTestStore(t)

	st.Complete("specify")
	oldID := st.State().WorkflowID

	if err := st.Reset(); err != nil {
		t.Fatal(err)
	}

	s := st.State()
	if s.WorkflowID == oldID {
		t.Error("reset should mint a new workflow id")
	}
	if len(s.CompletedStages) != 0 {
		t.Errorf("reset kept progress: %v", s.CompletedStages)
	}

	// Reset is persisted immediately.
	reloaded := Open(dir, nil).State()
	if reloaded.WorkflowID != s.WorkflowID {
		t.Error("reset not persisted")
	}
}

func TestStateFileIsValidJSON(t *testing.T) {
	st, dir := openTestStore(t)
	st.Start("specify")

	data, err := os.ReadFile(filepath.Join(dir, StateDir, StateFileName))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if doc["current_stage"] != "specify" {
		t.Errorf("current_stage = %v", doc["current_stage"])
	}
	if _, ok := doc["updated_at"]; !ok {
		t.Error("updated_at missing from persisted state")
	}
}

func TestRecordTaskTimestamps(t *testing.T) {
	st, _ := openTestStore(t)

	st.RecordTask("T001", TaskInProgress)
	rec := st.State().TaskStatus["T001"]
	if rec.StartedAt == nil || rec.CompletedAt != nil {
		t.Errorf("in_progress record = %+v", rec)
	}

	st.RecordTask("T001", TaskCompleted)
	rec = st.State().TaskStatus["T001"]
	if rec.Status != TaskCompleted || rec.CompletedAt == nil {
		t.Errorf("completed record = %+v", rec)
	}
	if rec.StartedAt == nil {
		t.Error("completion should keep the start timestamp")
	}
	if time.Since(*rec.CompletedAt) > time.Minute {
		t.Error("completion timestamp not current")
	}
}
