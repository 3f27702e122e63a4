package templates

import (
	"strings"
	"testing"
)

func TestTaskPromptContent(t *testing.T) {
	if !strings.Contains(TaskPrompt, "{{TASK_ID}}") {
		t.Error("task prompt missing {{TASK_ID}} placeholder")
	}
	if !strings.Contains(TaskPrompt, "{{SPEC_DIR}}/plan.md") {
		t.Error("task prompt missing plan.md pointer")
	}
	if !strings.Contains(TaskPrompt, "Mark the task as completed [X] when done.") {
		t.Error("task prompt missing completion instruction")
	}
}

func TestAutonomousRulesContent(t *testing.T) {
	for _, want := range []string{
		"[AUTONOMOUS VIBE MODE]",
		"DO NOT ask user questions",
		"DO NOT skip steps",
		"Make reasonable assumptions",
		"Complete ALL work",
	} {
		if !strings.Contains(AutonomousRules, want) {
			t.Errorf("autonomous rules missing %q", want)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render("task {{TASK_ID}} in {{SPEC_DIR}}", map[string]string{
		"TASK_ID":  "T003",
		"SPEC_DIR": "specs/001-auth",
	})
	if out != "task T003 in specs/001-auth" {
		t.Errorf("Render = %q", out)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	out := Render("{{UNKNOWN}}", map[string]string{"TASK_ID": "T001"})
	if out != "{{UNKNOWN}}" {
		t.Errorf("Render = %q, want untouched placeholder", out)
	}
}
