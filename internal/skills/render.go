package skills

import (
	"fmt"
	"strings"

	"github.com/zlink-cloudtech/spec-kit/internal/util"
)

// Install output formats.
const (
	FormatMarkdown     = "markdown"
	FormatCopilotInstr = "copilot-instructions"
)

// usageProtocol wraps the skill index with the activation rules the agent
// must follow. Wording tracks the original instructions shipped with the
// toolkit.
const usageProtocol = `# Agent Skills Configuration

You have access to a library of specialized skills defined in this workspace. These skills provide specific workflows, instructions, and strategies for complex tasks.

## Core Directive
You MUST prioritize using these skills over your general knowledge whenever they are relevant to the user's request. Skills represent the "gold standard" for how tasks should be performed in this project.

## Skill Usage Protocol

1. **Discovery**: When you receive a task, first check the ` + "`<available_skills>`" + ` list below.
2. **Activation**: If a skill's ` + "`<description>`" + ` matches the task or seems relevant, you MUST read the skill definition file at the provided ` + "`<location>`" + `.
3. **Execution**: Follow the instructions in the skill file. Prioritize the skill's specific strategies over your general knowledge.
`

// RenderIndex renders the available-skills block for agent prompts. Empty
// input renders to the empty string so callers can skip the section.
func RenderIndex(skills []Skill) string {
	if len(skills) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(usageProtocol)
	b.WriteString("\n<available_skills>\n")
	for _, skill := range skills {
		b.WriteString("  <skill>\n")
		fmt.Fprintf(&b, "    <name>%s</name>\n", skill.Name)
		if skill.Description != "" {
			fmt.Fprintf(&b, "    <description>%s</description>\n", skill.Description)
		}
		fmt.Fprintf(&b, "    <location>${workspaceFolder}/%s</location>\n", skill.Path)
		b.WriteString("  </skill>\n")
	}
	b.WriteString("</available_skills>\n")

	return b.String()
}

// Install writes the rendered skill index to path in the given format.
// FormatCopilotInstr prepends the applyTo frontmatter copilot expects in
// .github/instructions files.
func (s *Service) Install(path, format string) error {
	content := RenderIndex(s.Discover())
	if content == "" {
		content = "No skills found.\n"
	}

	switch format {
	case FormatMarkdown:
		// As rendered.
	case FormatCopilotInstr:
		content = "---\napplyTo: \"**\"\n---\n\n" + content
	default:
		return fmt.Errorf("unknown install format %q (want %s or %s)", format, FormatMarkdown, FormatCopilotInstr)
	}

	return util.AtomicWriteFile(path, []byte(content), 0o644)
}
