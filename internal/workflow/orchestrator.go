package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zlink-cloudtech/spec-kit/internal/adapter"
	"github.com/zlink-cloudtech/spec-kit/internal/errors"
	"github.com/zlink-cloudtech/spec-kit/internal/runner"
	"github.com/zlink-cloudtech/spec-kit/internal/util"
)

// Implementer runs the implement stage's task phases. The scheduler package
// provides the real one; injecting it here keeps workflow free of a
// dependency on its own consumer.
type Implementer interface {
	RunAllPhases(ctx context.Context) error
}

// SkillResolver supplies stage-matched skill instructions for the prompt.
// Nil or an empty result means no skill context.
type SkillResolver interface {
	ResolveForStage(stage string) (string, error)
}

// Orchestrator drives the agent through the stage pipeline, persisting every
// transition through the Store.
type Orchestrator struct {
	Agent  adapter.Adapter
	Config adapter.Config
	Perms  adapter.Permissions
	Store  *Store
	Runner *runner.Runner

	// SpecsRoot is where numbered spec directories live, e.g. "specs".
	SpecsRoot string
	// DryRun renders commands without executing anything and without
	// touching persisted state.
	DryRun bool
	// Implement is invoked for the implement stage instead of a single
	// agent call. Required unless DryRun.
	Implement Implementer
	// Skills resolves per-stage skill context; may be nil.
	Skills SkillResolver

	// Out receives user-facing progress lines; defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// RunOptions parameterize a full pipeline run.
type RunOptions struct {
	// Requirement is the feature description a new workflow starts from.
	Requirement string
	// SpecFile, when set, is copied into the spec directory as the
	// starting specification.
	SpecFile string
	// FromStage skips the pipeline ahead; empty means the beginning.
	FromStage string
}

// Run executes the pipeline from opts.FromStage (or the beginning) to the
// end. Stage failures halt the run with the failure persisted; a later
// Resume picks up from the failed stage.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) error {
	if opts.FromStage != "" && !IsStage(opts.FromStage) {
		return errors.ErrStageUnknown(opts.FromStage, Stages)
	}

	if err := o.prepareSpecDir(opts); err != nil {
		return err
	}

	start := 0
	if opts.FromStage != "" {
		for i, s := range Stages {
			if s == opts.FromStage {
				start = i
				break
			}
		}
	}

	for _, stage := range Stages[start:] {
		if err := ctx.Err(); err != nil {
			return errors.ErrInterrupted()
		}
		if o.Store.State().StageCompleted(stage) {
			fmt.Fprintf(o.out(), "Stage %s already completed, skipping\n", stage)
			continue
		}
		if err := o.RunStage(ctx, stage); err != nil {
			return err
		}
	}

	fmt.Fprintln(o.out(), "All stages completed!")
	return nil
}

// Resume continues a halted workflow: the failed stage first when one is
// recorded, otherwise the earliest incomplete stage.
func (o *Orchestrator) Resume(ctx context.Context) error {
	if !o.Store.State().HasProgress() {
		return errors.ErrNoWorkflow()
	}

	next, ok := o.Store.Next()
	if !ok {
		fmt.Fprintln(o.out(), "All stages completed!")
		return nil
	}

	fmt.Fprintf(o.out(), "Resuming workflow from stage: %s\n", next)
	return o.Run(ctx, RunOptions{FromStage: next})
}

// RunStage executes one stage through the agent. Dry run short-circuits
// before any state transition so inspection never dirties the workflow.
func (o *Orchestrator) RunStage(ctx context.Context, stage string) error {
	if !IsStage(stage) {
		return errors.ErrStageUnknown(stage, Stages)
	}

	if stage == "implement" {
		return o.runImplement(ctx)
	}

	ectx := o.stageContext(stage)
	logFile := o.stageLogPath(stage)

	if o.DryRun {
		res := o.Runner.Execute(ctx, o.Agent, ectx, o.Config, o.Perms, runner.Options{DryRun: true})
		fmt.Fprintf(o.out(), "[DRY-RUN] Stage %s: %s\n", stage, res.Command)
		return nil
	}

	fmt.Fprintf(o.out(), "Running stage: %s\n", stage)
	if err := o.Store.Start(stage); err != nil {
		return fmt.Errorf("persist stage start: %w", err)
	}

	res := o.Runner.Execute(ctx, o.Agent, ectx, o.Config, o.Perms, runner.Options{LogFile: logFile})

	if !res.Success() {
		// Persist before surfacing so a kill right after still resumes
		// from this stage.
		if err := o.Store.Fail(stage); err != nil {
			o.logger().Error("persist stage failure", "stage", stage, "error", err)
		}
		o.logger().Error("stage failed",
			"stage", stage, "exit_code", res.ExitCode, "stderr", excerpt(res.Stderr, 500))
		return errors.ErrStageFailed(stage, res.ExitCode)
	}

	if err := o.Store.Complete(stage); err != nil {
		return fmt.Errorf("persist stage completion: %w", err)
	}

	if stage == "specify" {
		o.adoptSpecDir()
	}

	o.writeSessionSummary(stage, res)
	fmt.Fprintf(o.out(), "Stage %s completed in %.1fs\n", stage, res.Duration.Seconds())
	return nil
}

// runImplement delegates to the task scheduler.
func (o *Orchestrator) runImplement(ctx context.Context) error {
	if o.DryRun {
		fmt.Fprintln(o.out(), "[DRY-RUN] Stage implement: would execute task phases from tasks.md")
		return nil
	}
	if o.Implement == nil {
		return fmt.Errorf("implement stage requires a task scheduler")
	}

	if err := o.Store.Start("implement"); err != nil {
		return fmt.Errorf("persist stage start: %w", err)
	}

	if err := o.Implement.RunAllPhases(ctx); err != nil {
		if perr := o.Store.Fail("implement"); perr != nil {
			o.logger().Error("persist stage failure", "stage", "implement", "error", perr)
		}
		return err
	}

	if err := o.Store.Complete("implement"); err != nil {
		return fmt.Errorf("persist stage completion: %w", err)
	}
	fmt.Fprintln(o.out(), "Stage implement completed")
	return nil
}

// prepareSpecDir creates or adopts the spec directory for a run.
func (o *Orchestrator) prepareSpecDir(opts RunOptions) error {
	if opts.Requirement == "" && opts.SpecFile == "" {
		return nil
	}
	if o.DryRun {
		return nil
	}

	if opts.Requirement != "" {
		if err := o.Store.SetRequirement(opts.Requirement); err != nil {
			return err
		}
	}

	if o.Store.State().SpecDir != "" {
		return nil
	}

	requirement := opts.Requirement
	if requirement == "" {
		requirement = filepath.Base(opts.SpecFile)
	}

	dir, err := CreateSpecDir(o.SpecsRoot, requirement)
	if err != nil {
		return err
	}
	if err := o.Store.SetSpecDir(dir); err != nil {
		return err
	}
	fmt.Fprintf(o.out(), "Created spec directory: %s\n", dir)

	if opts.SpecFile != "" {
		data, err := os.ReadFile(opts.SpecFile)
		if err != nil {
			return fmt.Errorf("read spec file: %w", err)
		}
		if err := util.AtomicWriteFile(filepath.Join(dir, "SPECIFICATION.md"), data, 0o644); err != nil {
			return fmt.Errorf("copy spec file: %w", err)
		}
	}

	return nil
}

// adoptSpecDir records the spec directory the specify stage created, when
// the engine did not allocate one itself.
func (o *Orchestrator) adoptSpecDir() {
	if o.Store.State().SpecDir != "" {
		return
	}
	if dir, ok := LatestSpecDir(o.SpecsRoot); ok {
		if err := o.Store.SetSpecDir(dir); err != nil {
			o.logger().Warn("record spec dir", "dir", dir, "error", err)
		}
	}
}

// stageContext builds the execution context for a stage invocation.
func (o *Orchestrator) stageContext(stage string) adapter.ExecutionContext {
	specDir := o.Store.State().SpecDir

	ectx := adapter.ExecutionContext{
		Mode:       adapter.ModeStage,
		Stage:      stage,
		SpecDir:    specDir,
		NoAskUser:  true,
		Autonomous: true,
	}

	ts := util.Now()
	if specDir != "" {
		ectx.SessionLogPath = filepath.Join(specDir, "sessions", fmt.Sprintf("stage_%s_%s_session.md", stage, ts))
		ectx.DebugLogDir = filepath.Join(specDir, "agent-logs")
	} else {
		ectx.SessionLogPath = filepath.Join(o.Store.StateRoot(), "sessions", fmt.Sprintf("stage_%s_%s_session.md", stage, ts))
	}

	if o.Skills != nil {
		skillCtx, err := o.Skills.ResolveForStage(stage)
		if err != nil {
			o.logger().Warn("skill resolution failed", "stage", stage, "error", err)
		} else {
			ectx.SkillContext = skillCtx
		}
	}

	return ectx
}

// stageLogPath allocates the raw execution transcript path for a stage.
func (o *Orchestrator) stageLogPath(stage string) string {
	name := fmt.Sprintf("stage_%s_%s.log", stage, util.Now())
	if specDir := o.Store.State().SpecDir; specDir != "" {
		return filepath.Join(specDir, "sessions", name)
	}
	return filepath.Join(o.Store.StateRoot(), "sessions", name)
}

// writeSessionSummary renders a session markdown from the agent's structured
// output for adapters without a native session export. Best effort.
func (o *Orchestrator) writeSessionSummary(stage string, res adapter.Result) {
	summarizer, ok := o.Agent.(adapter.ResultSummarizer)
	if !ok {
		return
	}
	summary, ok := summarizer.SummarizeResult(res.Stdout)
	if !ok {
		return
	}

	name := fmt.Sprintf("stage_%s_%s_session.md", stage, util.Now())
	path := filepath.Join(o.Store.StateRoot(), "sessions", name)
	if specDir := o.Store.State().SpecDir; specDir != "" {
		path = filepath.Join(specDir, "sessions", name)
	}

	content := fmt.Sprintf("# Session: %s\n\nDate: %s\nSession ID: %s\nTurns: %d\nCost: $%.4f\n\n## Result\n\n%s\n",
		stage, time.Now().Format(time.RFC3339), summary.SessionID, summary.NumTurns, summary.CostUSD, summary.Result)
	if err := util.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		o.logger().Warn("session summary write failed", "path", path, "error", err)
	}
}

// excerpt truncates s for log output.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
