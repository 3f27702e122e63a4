// Package adapter defines the agent abstraction layer: the configuration,
// permission, and context types handed to a coding agent CLI, and the
// Adapter interface each supported agent implements.
package adapter

import (
	"fmt"
	"os/exec"
	"slices"
	"time"
)

// Mode selects what kind of prompt an execution carries.
type Mode string

const (
	// ModeStage runs a workflow stage via its slash directive.
	ModeStage Mode = "stage"
	// ModeTask runs a single checklist task.
	ModeTask Mode = "task"
)

// InteractiveSentinel replaces captured stdout when the agent ran attached to
// the terminal and its output went straight to the user.
const InteractiveSentinel = "[Interactive session - output displayed in terminal]"

// Config carries per-agent execution settings.
type Config struct {
	Model          string         `json:"model"`
	TimeoutMinutes int            `json:"timeout_minutes"`
	RetryCount     int            `json:"retry_count"`
	LogLevel       string         `json:"log_level"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// Permissions describes what the agent may touch.
type Permissions struct {
	AllowAll      bool     `json:"allow_all"`
	AllowedTools  []string `json:"allowed_tools,omitempty"`
	ExcludedTools []string `json:"excluded_tools,omitempty"`
	AllowedPaths  []string `json:"allowed_paths,omitempty"`
	AllowedURLs   []string `json:"allowed_urls,omitempty"`
}

// ExecutionContext describes a single agent invocation. The zero value is not
// usable; at minimum Mode and one of Stage/TaskID/Prompt must be set.
type ExecutionContext struct {
	Mode    Mode
	SpecDir string

	// Stage fields (ModeStage).
	Stage string

	// Task fields (ModeTask). TaskInfo is the raw checklist line.
	TaskID   string
	TaskInfo string

	// Prompt overrides synthesis entirely when set outside stage/task modes.
	Prompt string

	// SessionLogPath receives the agent's own session export when supported.
	SessionLogPath string
	// DebugLogDir receives the agent's verbose logs when supported.
	DebugLogDir string

	// NoAskUser suppresses agent-side questions. When false the run is
	// interactive and inherits the terminal.
	NoAskUser bool
	// Autonomous appends the autonomous rule block to the prompt.
	Autonomous bool
	// SkillContext holds stage-matched skill instructions appended to the
	// synthesized prompt.
	SkillContext string
}

// Result is the outcome of one agent execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Command  string
	Duration time.Duration
	LogFiles map[string]string
}

// Success reports whether the execution exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Adapter translates agent-agnostic execution requests into a concrete CLI
// invocation. Implementations are stateless and safe for concurrent use.
type Adapter interface {
	// Name is the registry key, e.g. "copilot".
	Name() string
	// Description is a one-line summary for listings.
	Description() string
	// Executable is the binary looked up on PATH.
	Executable() string
	// DefaultModel is used when configuration does not set one.
	DefaultModel() string
	// DefaultExcludedTools seeds the permission set for this agent.
	DefaultExcludedTools() []string
	// Available reports whether the executable is installed.
	Available() bool
	// InstallInstructions explains how to install the executable.
	InstallInstructions() string
	// BuildCommand renders the full argv for an execution.
	BuildCommand(ctx ExecutionContext, cfg Config, perms Permissions) []string
	// ValidateConfig returns findings; empty means valid. Implementations
	// must include the base findings from ValidateBaseConfig.
	ValidateConfig(cfg Config) []string
}

// Summary is structured data extracted from an agent's JSON output.
type Summary struct {
	Result    string
	SessionID string
	CostUSD   float64
	NumTurns  int
}

// ResultSummarizer is implemented by adapters whose CLI emits machine-readable
// output. The orchestrator uses it to write session markdown for agents that
// have no native session export.
type ResultSummarizer interface {
	SummarizeResult(stdout string) (Summary, bool)
}

// LogLevels are the accepted values for Config.LogLevel.
var LogLevels = []string{"none", "error", "warning", "info", "debug", "all"}

// ValidateBaseConfig checks the constraints every adapter shares. Adapter
// ValidateConfig implementations start from these findings and append their
// own.
func ValidateBaseConfig(cfg Config) []string {
	var findings []string

	if cfg.Model == "" {
		findings = append(findings, "model must not be empty")
	}
	if cfg.TimeoutMinutes < 1 || cfg.TimeoutMinutes > 120 {
		findings = append(findings, fmt.Sprintf("timeout_minutes must be in [1,120], got %d", cfg.TimeoutMinutes))
	}
	if cfg.RetryCount < 0 || cfg.RetryCount > 5 {
		findings = append(findings, fmt.Sprintf("retry_count must be in [0,5], got %d", cfg.RetryCount))
	}
	if !slices.Contains(LogLevels, cfg.LogLevel) {
		findings = append(findings, fmt.Sprintf("log_level must be one of %v, got %q", LogLevels, cfg.LogLevel))
	}

	return findings
}

// lookPath is stubbed in tests.
var lookPath = exec.LookPath

// executableAvailable reports whether name resolves on PATH.
func executableAvailable(name string) bool {
	_, err := lookPath(name)
	return err == nil
}
