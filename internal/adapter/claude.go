package adapter

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Claude drives the Claude Code CLI in non-interactive print mode.
//
// Invocation shape:
//
//	claude -p "PROMPT" --model MODEL --output-format json [OPTIONS]
//
// Unlike copilot there is no --share flag; the session markdown is derived
// from the result JSON via SummarizeResult instead.
type Claude struct{}

// NewClaude returns the claude adapter.
func NewClaude() (Adapter, error) {
	return &Claude{}, nil
}

func (c *Claude) Name() string        { return "claude" }
func (c *Claude) Executable() string  { return "claude" }
func (c *Claude) Description() string { return "Claude Code CLI adapter" }

func (c *Claude) DefaultModel() string { return "sonnet" }

// DefaultExcludedTools is empty; claude permissions are granted per tool
// rather than denied, so the baseline carries no denials.
func (c *Claude) DefaultExcludedTools() []string { return nil }

func (c *Claude) Available() bool {
	return executableAvailable(c.Executable())
}

func (c *Claude) InstallInstructions() string {
	return "Claude Code CLI is not installed or not in PATH.\n" +
		"To install:\n" +
		"  1. Install the CLI: npm install -g @anthropic-ai/claude-code\n" +
		"  2. Authenticate: claude login\n" +
		"\n" +
		"For more information, see: https://docs.anthropic.com/claude-code"
}

// BuildCommand renders the claude argv for the given context.
func (c *Claude) BuildCommand(ctx ExecutionContext, cfg Config, perms Permissions) []string {
	cmd := []string{c.Executable()}

	cmd = append(cmd, "-p", BuildPrompt(ctx))
	cmd = append(cmd, "--model", cfg.Model)
	cmd = append(cmd, "--output-format", "json")

	// Bypass permission prompts entirely when either the caller allows all
	// tools or the run must not stop to ask.
	if perms.AllowAll || ctx.NoAskUser {
		cmd = append(cmd, "--dangerously-skip-permissions")
	}

	if len(perms.AllowedTools) > 0 {
		cmd = append(cmd, "--allowedTools", strings.Join(perms.AllowedTools, ","))
	}
	if len(perms.ExcludedTools) > 0 {
		cmd = append(cmd, "--disallowedTools", strings.Join(perms.ExcludedTools, ","))
	}
	for _, path := range perms.AllowedPaths {
		cmd = append(cmd, "--add-dir", path)
	}

	if ctx.DebugLogDir != "" {
		cmd = append(cmd, "--debug")
	}

	return cmd
}

// ValidateConfig applies the shared constraints.
func (c *Claude) ValidateConfig(cfg Config) []string {
	return ValidateBaseConfig(cfg)
}

// SummarizeResult extracts the result payload from claude's JSON output.
// Returns false when stdout is not the expected result document.
func (c *Claude) SummarizeResult(stdout string) (Summary, bool) {
	trimmed := strings.TrimSpace(stdout)
	if !gjson.Valid(trimmed) {
		return Summary{}, false
	}

	parsed := gjson.Parse(trimmed)
	result := parsed.Get("result")
	if !result.Exists() {
		return Summary{}, false
	}

	return Summary{
		Result:    result.String(),
		SessionID: parsed.Get("session_id").String(),
		CostUSD:   parsed.Get("total_cost_usd").Float(),
		NumTurns:  int(parsed.Get("num_turns").Int()),
	}, true
}
