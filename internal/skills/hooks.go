package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AdapterFileName declares a skill's stage hooks, next to its SKILL.md.
const AdapterFileName = "speckit-adapter.yaml"

// Hook binds a skill context file to a workflow stage.
type Hook struct {
	Phase        string `yaml:"phase"`
	Priority     int    `yaml:"priority"`
	Context      string `yaml:"context"`
	Instructions string `yaml:"instructions"`
}

// adapterFile is one parsed speckit-adapter.yaml.
type adapterFile struct {
	Name  string `yaml:"name"`
	Hooks []Hook `yaml:"hooks"`
}

// resolvedHook is a stage-matched hook with its skill directory attached.
type resolvedHook struct {
	skillName string
	skillDir  string
	hook      Hook
}

// ResolveForStage collects the hooks declared for stage across all skills,
// ordered by priority descending, and concatenates their context bodies and
// instructions into one prompt block. Empty when no hook matches. Broken
// adapter files are logged and skipped; a bad skill must not block a stage.
func (s *Service) ResolveForStage(stage string) (string, error) {
	var matched []resolvedHook

	for _, dir := range s.ScanDirs() {
		entries, err := os.ReadDir(filepath.Join(s.root, dir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			skillDir := filepath.Join(dir, e.Name())
			path := filepath.Join(s.root, skillDir, AdapterFileName)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}

			var af adapterFile
			if err := yaml.Unmarshal(data, &af); err != nil {
				s.logger.Warn("skipping broken adapter file", "path", path, "error", err)
				continue
			}
			name := af.Name
			if name == "" {
				name = e.Name()
			}

			for _, h := range af.Hooks {
				if h.Phase != stage || h.Context == "" {
					continue
				}
				// The hook only counts when its context file exists.
				if _, err := os.Stat(filepath.Join(s.root, skillDir, h.Context)); err != nil {
					continue
				}
				matched = append(matched, resolvedHook{skillName: name, skillDir: skillDir, hook: h})
			}
		}
	}

	if len(matched) == 0 {
		return "", nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].hook.Priority > matched[j].hook.Priority
	})

	var b strings.Builder
	fmt.Fprintf(&b, "## Active Skills (Phase: %s)\n\n", stage)
	b.WriteString("The following specialist skills are active for this phase. You MUST adopt their personas and follow their workflows.\n\n")

	for _, m := range matched {
		data, err := os.ReadFile(filepath.Join(s.root, m.skillDir, m.hook.Context))
		if err != nil {
			s.logger.Warn("skipping unreadable skill context", "skill", m.skillName, "error", err)
			continue
		}
		_, body := ParseFrontmatter(string(data))

		fmt.Fprintf(&b, "### Skill: %s\n", m.skillName)
		b.WriteString(body)
		if instr := strings.TrimSpace(m.hook.Instructions); instr != "" {
			b.WriteString("\n\n" + instr)
		}
		b.WriteString("\n\n---\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}
