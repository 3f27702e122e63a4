// Package runner executes adapter-built commands and normalizes every
// outcome (success, failure, timeout, missing executable, interrupt) into an
// adapter.Result with a stable exit-code contract.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/zlink-cloudtech/spec-kit/internal/adapter"
)

// Exit codes the engine normalizes child failures onto.
const (
	ExitTimeout     = 124
	ExitNotFound    = 127
	ExitInterrupted = 130
)

// Options tune a single execution.
type Options struct {
	// LogFile receives the execution transcript when set.
	LogFile string
	// DryRun renders the command without spawning anything.
	DryRun bool
}

// Runner spawns agent processes.
type Runner struct {
	logger *slog.Logger
}

// New returns a Runner. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// execTimeout derives the child deadline from configuration. Stubbed in tests
// to avoid minute-scale sleeps.
var execTimeout = func(cfg adapter.Config) time.Duration {
	return time.Duration(cfg.TimeoutMinutes) * time.Minute
}

// Execute builds the argv for ectx via a and runs it.
//
// The child gets its own deadline derived from cfg, layered on a background
// context rather than ctx: a user interrupt must not reach into a live agent
// process. ctx is only consulted before spawning, so an interrupt received
// between executions stops new work from starting.
func (r *Runner) Execute(ctx context.Context, a adapter.Adapter, ectx adapter.ExecutionContext, cfg adapter.Config, perms adapter.Permissions, opts Options) adapter.Result {
	argv := a.BuildCommand(ectx, cfg, perms)
	cmdStr := ShellJoin(argv)

	if opts.DryRun {
		return adapter.Result{
			ExitCode: 0,
			Stdout:   "[DRY-RUN] Would execute:\n" + cmdStr,
			Command:  cmdStr,
		}
	}

	if err := ctx.Err(); err != nil {
		return adapter.Result{
			ExitCode: ExitInterrupted,
			Stderr:   "execution not started: interrupted",
			Command:  cmdStr,
		}
	}

	start := time.Now()

	interactive := !ectx.NoAskUser

	timeout := execTimeout(cfg)
	tctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, argv[0], argv[1:]...)

	var outBuf, errBuf bytes.Buffer
	if interactive {
		// Let the terminal handle I/O so the user can talk to the agent.
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	runErr := cmd.Run()

	var exitCode int
	var stdout, stderr string

	switch {
	case tctx.Err() == context.DeadlineExceeded:
		exitCode = ExitTimeout
		stderr = fmt.Sprintf("Execution timed out after %d minutes", cfg.TimeoutMinutes)

	case runErr == nil:
		exitCode = 0
		stdout = outBuf.String()
		stderr = errBuf.String()

	case errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist):
		exitCode = ExitNotFound
		stderr = fmt.Sprintf("Agent executable not found: %s\n%s", a.Executable(), a.InstallInstructions())

	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
			stdout = outBuf.String()
			stderr = errBuf.String()
		} else {
			exitCode = 1
			stderr = fmt.Sprintf("Execution error: %v", runErr)
		}
	}

	if interactive && exitCode != ExitTimeout && exitCode != ExitNotFound {
		stdout = adapter.InteractiveSentinel
		stderr = ""
	}

	duration := time.Since(start)

	result := adapter.Result{
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Command:  cmdStr,
		Duration: duration,
		LogFiles: map[string]string{},
	}

	if opts.LogFile != "" {
		if err := r.writeTranscript(opts.LogFile, a.Name(), interactive, result); err != nil {
			// Logging must never fail an execution.
			r.logger.Warn("transcript write failed", "path", opts.LogFile, "error", err)
		} else {
			result.LogFiles["main"] = opts.LogFile
		}
	}

	return result
}

// writeTranscript records one execution in the structured log format.
func (r *Runner) writeTranscript(path, agentName string, interactive bool, res adapter.Result) error {
	mode := "autonomous"
	if interactive {
		mode = "interactive"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "=== Execution Log ===\n")
	fmt.Fprintf(&b, "Agent: %s\n", agentName)
	fmt.Fprintf(&b, "Command: %s\n", res.Command)
	fmt.Fprintf(&b, "Exit Code: %d\n", res.ExitCode)
	fmt.Fprintf(&b, "Duration: %.2fs\n", res.Duration.Seconds())
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	fmt.Fprintf(&b, "\n=== STDOUT ===\n%s\n", res.Stdout)
	fmt.Fprintf(&b, "\n=== STDERR ===\n%s\n", res.Stderr)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}
