// Package scheduler executes checklist tasks through the agent, honoring the
// sequential/parallel partition the task document declares.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zlink-cloudtech/spec-kit/internal/adapter"
	"github.com/zlink-cloudtech/spec-kit/internal/errors"
	"github.com/zlink-cloudtech/spec-kit/internal/runner"
	"github.com/zlink-cloudtech/spec-kit/internal/tasks"
	"github.com/zlink-cloudtech/spec-kit/internal/util"
	"github.com/zlink-cloudtech/spec-kit/internal/workflow"
)

// maxPhases bounds the implement loop; task documents never reach this many
// phases in practice, so an empty phase is the real stop signal.
const maxPhases = 20

// TaskStatus is the per-task record written for external inspection. It is
// keyed by task id on disk, so parallel workers never contend on one file.
type TaskStatus struct {
	TaskID          string  `json:"task_id"`
	ExecutedAt      string  `json:"executed_at"`
	LogFile         string  `json:"log_file"`
	Model           string  `json:"model"`
	SpecDir         string  `json:"spec_dir"`
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Scheduler executes tasks from a spec directory's tasks.md.
type Scheduler struct {
	agent  adapter.Adapter
	cfg    adapter.Config
	perms  adapter.Permissions
	run    *runner.Runner
	store  *workflow.Store
	logger *slog.Logger

	specDir     string
	maxParallel int
	dryRun      bool
	out         io.Writer
}

// Options configure a Scheduler.
type Options struct {
	Agent       adapter.Adapter
	Config      adapter.Config
	Perms       adapter.Permissions
	Runner      *runner.Runner
	Store       *workflow.Store
	SpecDir     string
	MaxParallel int
	DryRun      bool
	Out         io.Writer
	Logger      *slog.Logger
}

// New validates the spec directory and returns a scheduler over its
// tasks.md. A missing directory and a missing tasks file are distinct
// errors; the latter usually means the tasks stage has not run yet.
func New(opts Options) (*Scheduler, error) {
	if info, err := os.Stat(opts.SpecDir); err != nil || !info.IsDir() {
		return nil, errors.ErrSpecDirMissing(opts.SpecDir)
	}
	tasksPath := filepath.Join(opts.SpecDir, "tasks.md")
	if _, err := os.Stat(tasksPath); err != nil {
		return nil, errors.ErrTasksFileMissing(tasksPath)
	}

	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.MaxParallel > 10 {
		opts.MaxParallel = 10
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Scheduler{
		agent:       opts.Agent,
		cfg:         opts.Config,
		perms:       opts.Perms,
		run:         opts.Runner,
		store:       opts.Store,
		logger:      opts.Logger,
		specDir:     opts.SpecDir,
		maxParallel: opts.MaxParallel,
		dryRun:      opts.DryRun,
		out:         opts.Out,
	}, nil
}

// TasksPath returns the checklist location.
func (s *Scheduler) TasksPath() string {
	return filepath.Join(s.specDir, "tasks.md")
}

// parse re-reads tasks.md. Every entry point parses fresh because the agent
// edits the file between executions.
func (s *Scheduler) parse() (*tasks.Document, error) {
	return tasks.ParseFile(s.TasksPath())
}

// RunTask executes one task by id. A task already checked complete in
// tasks.md is skipped without touching the agent.
func (s *Scheduler) RunTask(ctx context.Context, id string) error {
	doc, err := s.parse()
	if err != nil {
		return err
	}
	task, ok := doc.Get(id)
	if !ok {
		return errors.ErrTaskNotFound(id)
	}

	res, skipped := s.executeTask(ctx, task)
	if skipped {
		fmt.Fprintf(s.out, "Task %s already completed, skipping\n", id)
		return nil
	}
	if s.dryRun {
		return nil
	}

	if s.store != nil {
		s.recordTask(task.ID, res.Success())
	}
	if !res.Success() {
		return errors.ErrTaskFailed(id, res.ExitCode)
	}
	return nil
}

// RunPhase executes phase n: incomplete sequential tasks first, strictly in
// document order with fail-fast, then the parallel tasks under a bounded
// pool. Parallel siblings always run to completion; their failures are
// collected, not propagated mid-flight.
func (s *Scheduler) RunPhase(ctx context.Context, n int) error {
	doc, err := s.parse()
	if err != nil {
		return err
	}

	var sequential, parallel []*tasks.Task
	for _, t := range doc.Phase(n) {
		if t.Completed {
			continue
		}
		if t.Parallel {
			parallel = append(parallel, t)
		} else {
			sequential = append(sequential, t)
		}
	}

	if len(sequential)+len(parallel) == 0 {
		fmt.Fprintf(s.out, "Phase %d: no incomplete tasks\n", n)
		return nil
	}
	fmt.Fprintf(s.out, "Phase %d: %d sequential, %d parallel tasks\n", n, len(sequential), len(parallel))

	var failed []string
	var firstExit int

	// Sequential tasks may depend on their predecessors: the first failure
	// aborts the rest of the phase, parallel tasks included.
	for _, t := range sequential {
		if err := ctx.Err(); err != nil {
			return errors.ErrInterrupted()
		}
		res, _ := s.executeTask(ctx, t)
		if s.dryRun {
			continue
		}
		s.recordTask(t.ID, res.Success())
		if !res.Success() {
			return errors.ErrPhaseFailed(n, []string{t.ID}, res.ExitCode)
		}
	}

	if s.dryRun || len(parallel) == 0 {
		return nil
	}

	// The [P] marker asserts independence, so siblings neither order nor
	// cancel each other. errgroup bounds concurrency; the context handed to
	// workers is not a shared cancel context on purpose.
	var mu sync.Mutex
	results := make(map[string]adapter.Result, len(parallel))

	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for _, t := range parallel {
		g.Go(func() error {
			res, _ := s.executeTask(ctx, t)
			mu.Lock()
			results[t.ID] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Status records are written here, on the control thread, never from
	// inside the pool.
	for _, t := range parallel {
		res := results[t.ID]
		s.recordTask(t.ID, res.Success())
		if !res.Success() {
			failed = append(failed, t.ID)
			if firstExit == 0 {
				firstExit = res.ExitCode
			}
		}
	}

	if len(failed) > 0 {
		return errors.ErrPhaseFailed(n, failed, firstExit)
	}
	return nil
}

// RunAllPhases walks phases 1..maxPhases, stopping at the first phase with
// no tasks at all. This is the implement stage's task loop.
func (s *Scheduler) RunAllPhases(ctx context.Context) error {
	for n := 1; n <= maxPhases; n++ {
		doc, err := s.parse()
		if err != nil {
			return err
		}
		if len(doc.Phase(n)) == 0 {
			break
		}
		if err := s.RunPhase(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// executeTask runs one task through the agent. skipped is true when the
// checkbox in tasks.md already marks the task complete.
func (s *Scheduler) executeTask(ctx context.Context, t *tasks.Task) (adapter.Result, bool) {
	if t.Completed {
		return adapter.Result{}, true
	}

	ts := util.Now()
	logFile := filepath.Join(s.specDir, "sessions", fmt.Sprintf("task_%s_%s.log", t.ID, ts))

	ectx := adapter.ExecutionContext{
		Mode:           adapter.ModeTask,
		SpecDir:        s.specDir,
		TaskID:         t.ID,
		TaskInfo:       t.RawLine,
		SessionLogPath: filepath.Join(s.specDir, "sessions", fmt.Sprintf("task_%s_%s_session.md", t.ID, ts)),
		DebugLogDir:    filepath.Join(s.specDir, "agent-logs"),
		NoAskUser:      true,
		Autonomous:     true,
	}

	if s.dryRun {
		res := s.run.Execute(ctx, s.agent, ectx, s.cfg, s.perms, runner.Options{DryRun: true})
		fmt.Fprintf(s.out, "[DRY-RUN] Task %s: %s\n", t.ID, res.Command)
		return res, false
	}

	fmt.Fprintf(s.out, "Executing task %s: %s\n", t.ID, t.Description)
	res := s.run.Execute(ctx, s.agent, ectx, s.cfg, s.perms, runner.Options{LogFile: logFile})

	s.writeStatusFile(t.ID, logFile, res)

	if res.Success() {
		fmt.Fprintf(s.out, "Task %s completed in %.1fs\n", t.ID, res.Duration.Seconds())
	} else {
		s.logger.Error("task failed", "task", t.ID, "exit_code", res.ExitCode)
	}
	return res, false
}

// writeStatusFile persists the per-task status record. Best effort: a
// failed write is logged and never affects the task's verdict. Safe to call
// from pool workers because the file is keyed by task id.
func (s *Scheduler) writeStatusFile(id, logFile string, res adapter.Result) {
	status := TaskStatus{
		TaskID:          id,
		ExecutedAt:      time.Now().Format(time.RFC3339),
		LogFile:         logFile,
		Model:           s.cfg.Model,
		SpecDir:         s.specDir,
		ExitCode:        res.ExitCode,
		DurationSeconds: res.Duration.Seconds(),
	}

	path := filepath.Join(s.statusDir(), id+".json")
	if err := util.AtomicWriteJSON(path, status, 0o644); err != nil {
		s.logger.Warn("task status write failed", "task", id, "error", err)
	}
}

// statusDir is where per-task status records live.
func (s *Scheduler) statusDir() string {
	if s.store != nil {
		return filepath.Join(s.store.StateRoot(), workflow.TaskStatusDir)
	}
	return filepath.Join(workflow.StateDir, workflow.TaskStatusDir)
}

// recordTask updates the workflow state summary for a task. Control thread
// only.
func (s *Scheduler) recordTask(id string, success bool) {
	if s.store == nil {
		return
	}
	status := workflow.TaskCompleted
	if !success {
		status = workflow.TaskFailed
	}
	if err := s.store.RecordTask(id, status); err != nil {
		s.logger.Warn("task state record failed", "task", id, "error", err)
	}
}
