package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zlink-cloudtech/spec-kit/internal/adapter"
	vibeerrors "github.com/zlink-cloudtech/spec-kit/internal/errors"
	"github.com/zlink-cloudtech/spec-kit/internal/runner"
)

// scriptAdapter runs a shell script per stage so orchestrator tests can
// drive real child processes without a real agent.
type scriptAdapter struct {
	scripts map[string]string // stage -> script; missing entries run "true"
}

func (s *scriptAdapter) Name() string                   { return "script" }
func (s *scriptAdapter) Description() string            { return "test adapter" }
func (s *scriptAdapter) Executable() string             { return "/bin/sh" }
func (s *scriptAdapter) DefaultModel() string           { return "test-model" }
func (s *scriptAdapter) DefaultExcludedTools() []string { return nil }
func (s *scriptAdapter) Available() bool                { return true }
func (s *scriptAdapter) InstallInstructions() string    { return "n/a" }
func (s *scriptAdapter) BuildCommand(ctx adapter.ExecutionContext, _ adapter.Config, _ adapter.Permissions) []string {
	script, ok := s.scripts[ctx.Stage]
	if !ok {
		script = "true"
	}
	return []string{"/bin/sh", "-c", script}
}
func (s *scriptAdapter) ValidateConfig(cfg adapter.Config) []string {
	return adapter.ValidateBaseConfig(cfg)
}

type fakeImplementer struct {
	called bool
	err    error
}

func (f *fakeImplementer) RunAllPhases(context.Context) error {
	f.called = true
	return f.err
}

func newTestOrchestrator(t *testing.T, scripts map[string]string) (*Orchestrator, *Store, *fakeImplementer) {
	t.Helper()
	dir := t.TempDir()
	store := Open(dir, nil)
	impl := &fakeImplementer{}
	o := &Orchestrator{
		Agent:     &scriptAdapter{scripts: scripts},
		Config:    adapter.Config{Model: "test-model", TimeoutMinutes: 30, LogLevel: "info"},
		Store:     store,
		Runner:    runner.New(nil),
		SpecsRoot: t.TempDir(),
		Implement: impl,
		Out:       &bytes.Buffer{},
	}
	return o, store, impl
}

func TestRunFullPipeline(t *testing.T) {
	o, store, impl := newTestOrchestrator(t, nil)

	if err := o.Run(context.Background(), RunOptions{Requirement: "build the thing"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := store.State()
	if len(s.CompletedStages) != len(Stages) {
		t.Errorf("completed %v, want all of %v", s.CompletedStages, Stages)
	}
	for i, stage := range Stages {
		if s.CompletedStages[i] != stage {
			t.Errorf("completed[%d] = %s, want %s", i, s.CompletedStages[i], stage)
		}
	}
	if !impl.called {
		t.Error("implement stage should delegate to the scheduler")
	}
	if s.SpecDir == "" {
		t.Error("spec dir should be allocated for a new requirement")
	}
	if s.Requirement != "build the thing" {
		t.Errorf("requirement = %q", s.Requirement)
	}
}

func TestRunStageFailureHaltsAndPersists(t *testing.T) {
	o, store, impl := newTestOrchestrator(t, map[string]string{"plan": "exit 7"})

	err := o.Run(context.Background(), RunOptions{Requirement: "doomed feature"})
	if err == nil {
		t.Fatal("expected stage failure")
	}
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeStageFailed}) {
		t.Errorf("error = %v", err)
	}

	s := store.State()
	if s.FailedStage != "plan" {
		t.Errorf("failed_stage = %q, want plan", s.FailedStage)
	}
	if s.StageCompleted("plan") {
		t.Error("failed stage must not be completed")
	}
	if !s.StageCompleted("clarify") {
		t.Error("stages before the failure should be completed")
	}
	if impl.called {
		t.Error("stages after the failure must not run")
	}

	// The failure survives a process restart.
	reloaded := Open(store.Dir(), nil)
	if next, ok := reloaded.Next(); !ok || next != "plan" {
		t.Errorf("Next() after reload = %q, %v; want plan", next, ok)
	}
}

func TestResumeAfterFailure(t *testing.T) {
	o, store, _ := newTestOrchestrator(t, map[string]string{"plan": "exit 1"})

	_ = o.Run(context.Background(), RunOptions{Requirement: "retry me"})

	// The flaky stage recovers on the second attempt.
	o.Agent = &scriptAdapter{scripts: nil}

	if err := o.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(store.State().CompletedStages) != len(Stages) {
		t.Errorf("completed = %v", store.State().CompletedStages)
	}
	if store.State().FailedStage != "" {
		t.Error("failure should be cleared after successful resume")
	}
}

func TestResumeWithoutWorkflow(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, nil)

	err := o.Resume(context.Background())
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeNoWorkflow}) {
		t.Errorf("error = %v, want NO_WORKFLOW", err)
	}
}

func TestRunSkipsCompletedStages(t *testing.T) {
	o, store, _ := newTestOrchestrator(t, map[string]string{"specify": "exit 1"})

	// Pretend specify already ran; its failing script must never execute.
	store.Complete("specify")

	if err := o.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	o, store, impl := newTestOrchestrator(t, map[string]string{"specify": "exit 1"})
	o.DryRun = true
	var out bytes.Buffer
	o.Out = &out

	if err := o.Run(context.Background(), RunOptions{Requirement: "inspect only"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := store.State()
	if len(s.CompletedStages) != 0 || s.CurrentStage != "" || s.FailedStage != "" {
		t.Errorf("dry run mutated state: %+v", s)
	}
	if s.SpecDir != "" {
		t.Error("dry run must not allocate a spec dir")
	}
	if impl.called {
		t.Error("dry run must not invoke the scheduler")
	}
	if !strings.Contains(out.String(), "[DRY-RUN]") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunUnknownFromStage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, nil)

	err := o.Run(context.Background(), RunOptions{FromStage: "deploy"})
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeStageUnknown}) {
		t.Errorf("error = %v, want STAGE_UNKNOWN", err)
	}
}

func TestRunInterrupted(t *testing.T) {
	o, store, _ := newTestOrchestrator(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, RunOptions{})
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeInterrupted}) {
		t.Errorf("error = %v, want INTERRUPTED", err)
	}
	if len(store.State().CompletedStages) != 0 {
		t.Error("no stage should complete after an interrupt")
	}
}

func TestImplementFailureRecorded(t *testing.T) {
	o, store, impl := newTestOrchestrator(t, nil)
	impl.err = vibeerrors.ErrPhaseFailed(1, []string{"T003"}, 1)

	err := o.RunStage(context.Background(), "implement")
	if err == nil {
		t.Fatal("expected implement failure")
	}
	if store.State().FailedStage != "implement" {
		t.Errorf("failed_stage = %q", store.State().FailedStage)
	}
}
