package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Model:          "claude-sonnet-4.5",
		TimeoutMinutes: 30,
		RetryCount:     2,
		LogLevel:       "all",
	}
}

func TestCopilotBuildCommand_StageFull(t *testing.T) {
	c := &Copilot{}
	ctx := ExecutionContext{
		Mode:           ModeStage,
		SpecDir:        "specs/001-auth",
		Stage:          "plan",
		SessionLogPath: "specs/001-auth/sessions/stage_plan_20250114_093042_session.md",
		DebugLogDir:    "specs/001-auth/agent-logs",
		NoAskUser:      true,
		Autonomous:     true,
	}
	perms := Permissions{
		AllowAll:      true,
		ExcludedTools: []string{"skill(speckit-vibe)", "shell(rm -rf)"},
		AllowedPaths:  []string{"/work"},
		AllowedURLs:   []string{"github.com"},
	}

	cmd := c.BuildCommand(ctx, testConfig(), perms)

	require.Equal(t, "copilot", cmd[0])
	assert.Equal(t, []string{
		"copilot",
		"--model", "claude-sonnet-4.5",
		"--allow-all",
		"--excluded-tools", "skill(speckit-vibe)",
		"--excluded-tools", "shell(rm -rf)",
		"--allow-path", "/work",
		"--allow-url", "github.com",
		"--no-ask-user",
		"--log-level", "debug",
		"--log-dir", "specs/001-auth/agent-logs",
		"--share", "specs/001-auth/sessions/stage_plan_20250114_093042_session.md",
		"--stream", "off",
	}, cmd[:len(cmd)-2])

	require.Equal(t, "-p", cmd[len(cmd)-2])
	prompt := cmd[len(cmd)-1]
	assert.True(t, strings.HasPrefix(prompt, "/speckit.plan "), "prompt = %q", prompt)
	assert.Contains(t, prompt, "[AUTONOMOUS VIBE MODE]")
	assert.Contains(t, prompt, "For PLAN:")
}

func TestCopilotBuildCommand_Minimal(t *testing.T) {
	c := &Copilot{}
	ctx := ExecutionContext{Mode: ModeStage, Stage: "specify"}

	cmd := c.BuildCommand(ctx, testConfig(), Permissions{})

	assert.Equal(t, []string{
		"copilot",
		"--model", "claude-sonnet-4.5",
		"--stream", "off",
		"-p", "/speckit.specify",
	}, cmd)
}

func TestCopilotBuildCommand_TaskPrompt(t *testing.T) {
	c := &Copilot{}
	ctx := ExecutionContext{
		Mode:       ModeTask,
		SpecDir:    "specs/002-api",
		TaskID:     "T007",
		TaskInfo:   "- [ ] T007 [P] Build the thing `src/thing.go`",
		NoAskUser:  true,
		Autonomous: true,
	}

	cmd := c.BuildCommand(ctx, testConfig(), Permissions{})
	prompt := cmd[len(cmd)-1]

	assert.Contains(t, prompt, "Execute task T007 from specs/002-api/tasks.md:")
	assert.Contains(t, prompt, "- [ ] T007 [P] Build the thing `src/thing.go`")
	assert.Contains(t, prompt, "Follow the implementation plan in specs/002-api/plan.md")
	assert.Contains(t, prompt, "Mark the task as completed [X] when done.")
	assert.Contains(t, prompt, "For IMPLEMENT:")
}

func TestCopilotValidateConfig(t *testing.T) {
	c := &Copilot{}

	assert.Empty(t, c.ValidateConfig(testConfig()))

	bad := Config{Model: "", TimeoutMinutes: 0, RetryCount: 9, LogLevel: "verbose"}
	findings := c.ValidateConfig(bad)
	require.Len(t, findings, 4)
	assert.Contains(t, findings[0], "model")
	assert.Contains(t, findings[1], "timeout_minutes")
	assert.Contains(t, findings[2], "retry_count")
	assert.Contains(t, findings[3], "log_level")
}

func TestCopilotDefaults(t *testing.T) {
	c := &Copilot{}
	assert.Equal(t, "claude-sonnet-4.5", c.DefaultModel())
	assert.Equal(t, []string{"skill(speckit-vibe)"}, c.DefaultExcludedTools())
}
