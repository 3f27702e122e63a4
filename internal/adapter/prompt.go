package adapter

import (
	"strings"

	"github.com/zlink-cloudtech/spec-kit/templates"
)

// stageHints elaborates the autonomous rules per stage. Joined onto the
// suffix so the agent knows what "complete all work" means for the stage at
// hand.
var stageHints = map[string]string{
	"clarify": "For CLARIFY: Identify ambiguities, resolve them yourself with " +
		"documented assumptions, update spec.md with clarifications.",
	"plan": "For PLAN: Create comprehensive technical plan covering architecture, " +
		"implementation approach, and risk mitigation.",
	"tasks": "For TASKS: Generate all tasks with proper dependencies, phases, " +
		"and parallel execution markers [P] where safe.",
	"checklist": "For CHECKLIST: Generate all validation items without asking priorities. " +
		"Include unit tests, integration tests, and edge cases.",
	"analyze": "For ANALYZE: Check consistency across all artifacts, identify gaps, " +
		"and update documents to ensure alignment.",
	"implement": "For IMPLEMENT: Execute ALL tasks in dependency order. " +
		"Respect [P] markers for parallel execution. " +
		"Mark tasks complete [X] as you finish them.",
}

// AutonomousSuffix builds the no-human-in-the-loop instruction block for a
// stage. The base rules are shared; the stage hint narrows them.
func AutonomousSuffix(stage string) string {
	suffix := strings.TrimSpace(templates.AutonomousRules)
	if hint, ok := stageHints[stage]; ok {
		suffix += " " + hint
	}
	return suffix
}

// BuildPrompt synthesizes the prompt for an execution context. Stage mode
// yields the stage's slash directive; task mode renders the task template;
// anything else falls back to the literal prompt override.
func BuildPrompt(ctx ExecutionContext) string {
	var prompt string

	switch ctx.Mode {
	case ModeStage:
		prompt = "/speckit." + ctx.Stage
		if ctx.Autonomous {
			prompt += " " + AutonomousSuffix(ctx.Stage)
		}
	case ModeTask:
		prompt = strings.TrimRight(templates.Render(templates.TaskPrompt, map[string]string{
			"TASK_ID":   ctx.TaskID,
			"TASK_INFO": ctx.TaskInfo,
			"SPEC_DIR":  ctx.SpecDir,
		}), "\n")
		if ctx.Autonomous {
			prompt += "\n\n" + AutonomousSuffix("implement")
		}
	default:
		return ctx.Prompt
	}

	if ctx.SkillContext != "" {
		prompt += "\n\n" + strings.TrimSpace(ctx.SkillContext)
	}
	return prompt
}
