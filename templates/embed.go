// Package templates provides embedded prompt templates.
package templates

import (
	"embed"
	"strings"
)

// Prompts contains embedded prompt template files.
//
//go:embed prompts/*.md
var Prompts embed.FS

// TaskPrompt is the prompt sent to an agent for a single task execution.
// Placeholders: {{TASK_ID}}, {{TASK_INFO}}, {{SPEC_DIR}}.
//
//go:embed prompts/task.md
var TaskPrompt string

// AutonomousRules is the instruction block appended to prompts when the
// engine runs without a human in the loop.
//
//go:embed prompts/autonomous.md
var AutonomousRules string

// Render substitutes {{VARIABLE}} placeholders in content.
func Render(content string, vars map[string]string) string {
	for key, value := range vars {
		placeholder := "{{" + key + "}}"
		content = strings.ReplaceAll(content, placeholder, value)
	}
	return content
}
