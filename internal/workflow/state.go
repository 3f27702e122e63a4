// Package workflow provides the persisted workflow state machine and the
// stage orchestrator that drives an agent through the spec-kit pipeline.
package workflow

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/zlink-cloudtech/spec-kit/internal/util"
)

// Stages is the fixed pipeline, in execution order.
var Stages = []string{"specify", "clarify", "plan", "tasks", "checklist", "analyze", "implement"}

// IsStage reports whether name is a pipeline stage.
func IsStage(name string) bool {
	return slices.Contains(Stages, name)
}

const (
	// StateDir holds all engine-owned files in the working directory.
	StateDir = ".speckit-vc"
	// StateFileName is the workflow state document inside StateDir.
	StateFileName = "state.json"
	// TaskStatusDir holds per-task status records inside StateDir.
	TaskStatusDir = "tasks"
)

// Task status values recorded in State.TaskStatus.
const (
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// TaskRecord summarizes one task's last known execution for external
// inspection. It never gates re-execution; the checkbox in tasks.md does.
type TaskRecord struct {
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// State is the persisted workflow document.
type State struct {
	WorkflowID      string                `json:"workflow_id"`
	StartedAt       time.Time             `json:"started_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	CurrentStage    string                `json:"current_stage,omitempty"`
	CompletedStages []string              `json:"completed_stages"`
	FailedStage     string                `json:"failed_stage,omitempty"`
	FailedAt        *time.Time            `json:"failed_at,omitempty"`
	SpecDir         string                `json:"spec_dir,omitempty"`
	Requirement     string                `json:"requirement,omitempty"`
	TaskStatus      map[string]TaskRecord `json:"task_status"`
}

// newState returns a fresh state with a new workflow id.
func newState() *State {
	now := time.Now()
	return &State{
		WorkflowID:      uuid.NewString(),
		StartedAt:       now,
		UpdatedAt:       now,
		CompletedStages: []string{},
		TaskStatus:      make(map[string]TaskRecord),
	}
}

// StageCompleted reports whether stage is in the completed set.
func (s *State) StageCompleted(stage string) bool {
	return slices.Contains(s.CompletedStages, stage)
}

// HasProgress reports whether any stage has been started, completed or
// failed. A state without progress is indistinguishable from no workflow.
func (s *State) HasProgress() bool {
	return s.CurrentStage != "" || s.FailedStage != "" || len(s.CompletedStages) > 0 ||
		s.Requirement != "" || s.SpecDir != ""
}

// Store owns the persisted state document. All mutation happens on the
// control thread; the parallel task pool never touches the store.
type Store struct {
	dir    string
	path   string
	state  *State
	logger *slog.Logger
}

// Open loads the workflow state rooted at dir (the working directory). A
// missing, unreadable or corrupt state file yields a fresh state: bad state
// must never block a workflow from starting.
func Open(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	st := &Store{
		dir:    dir,
		path:   filepath.Join(dir, StateDir, StateFileName),
		logger: logger,
	}

	data, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("state file unreadable, starting fresh", "path", st.path, "error", err)
		}
		st.state = newState()
		return st
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("state file corrupt, starting fresh", "path", st.path, "error", err)
		st.state = newState()
		return st
	}
	if s.TaskStatus == nil {
		s.TaskStatus = make(map[string]TaskRecord)
	}
	if s.CompletedStages == nil {
		s.CompletedStages = []string{}
	}
	st.state = &s
	return st
}

// State returns the current state document. Callers must treat it as
// read-only; mutation goes through the transition methods.
func (st *Store) State() *State {
	return st.state
}

// Path returns the state file location.
func (st *Store) Path() string {
	return st.path
}

// Dir returns the working directory the store is rooted at.
func (st *Store) Dir() string {
	return st.dir
}

// StateRoot returns the engine-owned directory under Dir.
func (st *Store) StateRoot() string {
	return filepath.Join(st.dir, StateDir)
}

// save persists the state atomically. Every transition calls it before
// returning so that a crash at any point leaves a resumable document.
func (st *Store) save() error {
	st.state.UpdatedAt = time.Now()
	return util.AtomicWriteJSON(st.path, st.state, 0o644)
}

// Start marks stage as in progress. Re-starting the failed stage clears the
// failure record, since the retry supersedes it.
func (st *Store) Start(stage string) error {
	st.state.CurrentStage = stage
	if st.state.FailedStage == stage {
		st.state.FailedStage = ""
		st.state.FailedAt = nil
	}
	return st.save()
}

// Complete appends stage to the completed set, preserving first-completion
// order and never duplicating.
func (st *Store) Complete(stage string) error {
	if !st.state.StageCompleted(stage) {
		st.state.CompletedStages = append(st.state.CompletedStages, stage)
	}
	if st.state.CurrentStage == stage {
		st.state.CurrentStage = ""
	}
	if st.state.FailedStage == stage {
		st.state.FailedStage = ""
		st.state.FailedAt = nil
	}
	return st.save()
}

// Fail records stage as failed. Current and failed are mutually exclusive,
// so the current marker is cleared.
func (st *Store) Fail(stage string) error {
	now := time.Now()
	st.state.FailedStage = stage
	st.state.FailedAt = &now
	st.state.CurrentStage = ""
	return st.save()
}

// Next returns the stage to run next: the failed stage when one is recorded
// (resume-from-failure beats forward progress), otherwise the first pipeline
// stage not yet completed. ok is false when the pipeline is complete.
func (st *Store) Next() (stage string, ok bool) {
	if st.state.FailedStage != "" {
		return st.state.FailedStage, true
	}
	for _, s := range Stages {
		if !st.state.StageCompleted(s) {
			return s, true
		}
	}
	return "", false
}

// Reset discards all progress and persists a fresh state under a new
// workflow id.
func (st *Store) Reset() error {
	st.state = newState()
	return st.save()
}

// SetSpecDir records the spec directory for this workflow.
func (st *Store) SetSpecDir(dir string) error {
	st.state.SpecDir = dir
	return st.save()
}

// SetRequirement records the original requirement text.
func (st *Store) SetRequirement(text string) error {
	st.state.Requirement = text
	return st.save()
}

// RecordTask updates the summary record for a task id. Only the control
// thread calls this, after the task (or its phase) has finished.
func (st *Store) RecordTask(id, status string) error {
	now := time.Now()
	rec := st.state.TaskStatus[id]
	rec.Status = status
	switch status {
	case TaskInProgress:
		rec.StartedAt = &now
	case TaskCompleted:
		rec.CompletedAt = &now
	case TaskFailed:
		rec.FailedAt = &now
	}
	st.state.TaskStatus[id] = rec
	return st.save()
}
