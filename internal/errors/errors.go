// Package errors provides structured error types for the vibe engine.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for the engine and the release server.
const (
	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
	CodeConfigExists  Code = "CONFIG_EXISTS"

	// Adapter errors
	CodeAdapterNotFound    Code = "ADAPTER_NOT_FOUND"
	CodeAdapterUnavailable Code = "ADAPTER_UNAVAILABLE"

	// Workflow errors
	CodeStageUnknown Code = "STAGE_UNKNOWN"
	CodeStageFailed  Code = "STAGE_FAILED"
	CodeNoWorkflow   Code = "NO_WORKFLOW"
	CodeInterrupted  Code = "INTERRUPTED"

	// Task errors
	CodeTaskNotFound     Code = "TASK_NOT_FOUND"
	CodeTaskFailed       Code = "TASK_FAILED"
	CodeTasksFileMissing Code = "TASKS_FILE_MISSING"
	CodeSpecDirMissing   Code = "SPEC_DIR_MISSING"
	CodePhaseFailed      Code = "PHASE_FAILED"

	// Release server errors
	CodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	CodePackageExists   Code = "PACKAGE_EXISTS"
	CodePackageInvalid  Code = "PACKAGE_INVALID"
	CodeAuthInvalid     Code = "AUTH_INVALID"
)

// Category groups error codes for exit-code and HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryUnauthorized
	CategoryUnavailable
	CategoryTimeout
	CategoryInterrupted
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeConfigInvalid:      CategoryBadRequest,
	CodeConfigMissing:      CategoryBadRequest,
	CodeConfigExists:       CategoryConflict,
	CodeAdapterNotFound:    CategoryBadRequest,
	CodeAdapterUnavailable: CategoryUnavailable,
	CodeStageUnknown:       CategoryBadRequest,
	CodeStageFailed:        CategoryInternal,
	CodeNoWorkflow:         CategoryBadRequest,
	CodeInterrupted:        CategoryInterrupted,
	CodeTaskNotFound:       CategoryNotFound,
	CodeTaskFailed:         CategoryInternal,
	CodeTasksFileMissing:   CategoryBadRequest,
	CodeSpecDirMissing:     CategoryBadRequest,
	CodePhaseFailed:        CategoryInternal,
	CodePackageNotFound:    CategoryNotFound,
	CodePackageExists:      CategoryConflict,
	CodePackageInvalid:     CategoryBadRequest,
	CodeAuthInvalid:        CategoryUnauthorized,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryConflict:
		return 409
	case CategoryUnauthorized:
		return 401
	case CategoryUnavailable:
		return 503
	case CategoryTimeout:
		return 504
	default:
		return 500
	}
}

// VibeError is the structured error type for the engine.
type VibeError struct {
	Code     Code   `json:"code"`
	What     string `json:"what"`
	Why      string `json:"why,omitempty"`
	Fix      string `json:"fix,omitempty"`
	Cause    error  `json:"-"`
	ExitHint int    `json:"-"`
}

// Error implements the error interface.
func (e *VibeError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *VibeError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *VibeError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category.
func (e *VibeError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *VibeError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// ExitCode returns the process exit code for this error. Stage and task
// failures propagate the child's timeout (124) and missing-executable (127)
// codes; everything else falls back to the category default.
func (e *VibeError) ExitCode() int {
	if e.ExitHint == 124 || e.ExitHint == 127 {
		return e.ExitHint
	}
	switch e.Category() {
	case CategoryInterrupted:
		return 130
	case CategoryTimeout:
		return 124
	case CategoryUnavailable:
		return 127
	default:
		return 1
	}
}

// MarshalJSON implements json.Marshaler.
func (e *VibeError) MarshalJSON() ([]byte, error) {
	type alias VibeError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a VibeError with the same code.
func (e *VibeError) Is(target error) bool {
	t, ok := target.(*VibeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *VibeError) WithCause(err error) *VibeError {
	clone := *e
	clone.Cause = err
	return &clone
}

// --- Error constructors ---

// ErrConfigInvalid reports configuration validation findings.
func ErrConfigInvalid(findings []string) *VibeError {
	return &VibeError{
		Code: CodeConfigInvalid,
		What: "configuration is invalid",
		Why:  strings.Join(findings, "; "),
		Fix:  "Run 'vibe config validate' for the full report, then 'vibe config set KEY VALUE' to correct",
	}
}

// ErrConfigExists reports an init attempt over an existing config file.
func ErrConfigExists(path string) *VibeError {
	return &VibeError{
		Code: CodeConfigExists,
		What: fmt.Sprintf("config file already exists: %s", path),
		Fix:  "Use --force to overwrite the existing configuration",
	}
}

// ErrAdapterNotFound reports an unregistered adapter name.
func ErrAdapterNotFound(name string, registered []string) *VibeError {
	return &VibeError{
		Code: CodeAdapterNotFound,
		What: fmt.Sprintf("unknown agent adapter: %s", name),
		Why:  fmt.Sprintf("registered adapters: %s", strings.Join(registered, ", ")),
		Fix:  "Run 'vibe adapters' to list available adapters",
	}
}

// ErrAdapterUnavailable reports a registered adapter whose executable is not
// installed.
func ErrAdapterUnavailable(name, instructions string) *VibeError {
	return &VibeError{
		Code: CodeAdapterUnavailable,
		What: fmt.Sprintf("agent '%s' is not available", name),
		Fix:  instructions,
	}
}

// ErrStageUnknown reports a stage name outside the workflow pipeline.
func ErrStageUnknown(name string, stages []string) *VibeError {
	return &VibeError{
		Code: CodeStageUnknown,
		What: fmt.Sprintf("invalid stage: %s", name),
		Why:  fmt.Sprintf("workflow stages are: %s", strings.Join(stages, ", ")),
	}
}

// ErrStageFailed reports a failed stage execution. exitCode is the child
// process exit code and is propagated when it is 124 or 127.
func ErrStageFailed(stage string, exitCode int) *VibeError {
	return &VibeError{
		Code:     CodeStageFailed,
		What:     fmt.Sprintf("stage %s failed with exit code %d", stage, exitCode),
		Fix:      "Inspect the session log, then 'vibe resume' to retry from the failed stage",
		ExitHint: exitCode,
	}
}

// ErrNoWorkflow reports a resume or status request with no persisted state.
func ErrNoWorkflow() *VibeError {
	return &VibeError{
		Code: CodeNoWorkflow,
		What: "no workflow state found",
		Why:  "nothing has been started in this directory",
		Fix:  "Start a workflow with 'vibe run --requirement \"...\"'",
	}
}

// ErrInterrupted reports a user interrupt.
func ErrInterrupted() *VibeError {
	return &VibeError{
		Code: CodeInterrupted,
		What: "workflow interrupted by user",
	}
}

// ErrTaskNotFound reports an unknown task id.
func ErrTaskNotFound(id string) *VibeError {
	return &VibeError{
		Code: CodeTaskNotFound,
		What: fmt.Sprintf("task %s not found in tasks.md", id),
		Fix:  "Check the task id against the checklist in the spec directory",
	}
}

// ErrTaskFailed reports a failed task execution. exitCode propagates the
// child's 124/127 codes.
func ErrTaskFailed(id string, exitCode int) *VibeError {
	return &VibeError{
		Code:     CodeTaskFailed,
		What:     fmt.Sprintf("task %s failed with exit code %d", id, exitCode),
		Fix:      "Inspect the task log under sessions/, then re-run 'vibe task' after fixing",
		ExitHint: exitCode,
	}
}

// ErrTasksFileMissing reports a missing tasks.md.
func ErrTasksFileMissing(path string) *VibeError {
	return &VibeError{
		Code: CodeTasksFileMissing,
		What: fmt.Sprintf("tasks file not found: %s", path),
		Why:  "the tasks stage has not produced a checklist yet",
		Fix:  "Run 'vibe stage tasks' to generate tasks.md",
	}
}

// ErrSpecDirMissing reports a missing spec directory.
func ErrSpecDirMissing(path string) *VibeError {
	return &VibeError{
		Code: CodeSpecDirMissing,
		What: fmt.Sprintf("spec directory not found: %s", path),
		Fix:  "Pass --spec-dir or start a workflow to create one",
	}
}

// ErrPhaseFailed reports failed tasks within a phase. exitCode propagates the
// first failure's child exit code when it is 124 or 127.
func ErrPhaseFailed(phase int, failed []string, exitCode int) *VibeError {
	return &VibeError{
		Code:     CodePhaseFailed,
		What:     fmt.Sprintf("phase %d failed", phase),
		Why:      fmt.Sprintf("failed tasks: %s", strings.Join(failed, ", ")),
		Fix:      "Inspect the task logs under sessions/, then re-run 'vibe phase' after fixing",
		ExitHint: exitCode,
	}
}

// ErrPackageNotFound reports a missing package in the release store.
func ErrPackageNotFound(name string) *VibeError {
	return &VibeError{
		Code: CodePackageNotFound,
		What: "Package not found",
		Why:  name,
	}
}

// ErrPackageExists reports an upload conflict.
func ErrPackageExists(name string) *VibeError {
	return &VibeError{
		Code: CodePackageExists,
		What: fmt.Sprintf("Package %s already exists", name),
		Fix:  "Pass overwrite=true to replace it",
	}
}

// ErrPackageInvalid reports a rejected package name or payload.
func ErrPackageInvalid(reason string) *VibeError {
	return &VibeError{
		Code: CodePackageInvalid,
		What: reason,
	}
}

// ErrAuthInvalid reports a failed bearer-token check.
func ErrAuthInvalid() *VibeError {
	return &VibeError{
		Code: CodeAuthInvalid,
		What: "Invalid authentication token",
	}
}
