// Package skills discovers workspace skill definitions (SKILL.md files),
// renders them as an index for agent prompts, and resolves per-stage skill
// hooks declared in speckit-adapter.yaml files.
package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// EngineVersion is compared against the .speckit.yaml major version; a
// mismatch is a warning, never an error.
const EngineVersion = "2.0.0"

// DefaultScanDirs are searched for skills when .speckit.yaml does not
// override them.
var DefaultScanDirs = []string{"skills", ".specify/skills", ".github/skills", ".claude/skills"}

// Skill is one discovered SKILL.md.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Path is the SKILL.md location relative to the workspace root.
	Path string `json:"path"`
	// Dir is the skill's directory relative to the workspace root.
	Dir string `json:"dir"`
}

// workspaceConfig is the subset of .speckit.yaml the engine reads.
type workspaceConfig struct {
	Version string `yaml:"version"`
	Skills  struct {
		ScanDirs []string `yaml:"scan_dirs"`
	} `yaml:"skills"`
}

// Service discovers and renders skills under one workspace root.
type Service struct {
	root   string
	logger *slog.Logger
}

// NewService returns a Service rooted at the workspace directory.
func NewService(root string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{root: root, logger: logger}
}

// ScanDirs returns the directories to search for skills, honoring the
// .speckit.yaml override. A version whose major differs from the engine's
// logs a warning.
func (s *Service) ScanDirs() []string {
	cfgPath := filepath.Join(s.root, ".speckit.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return DefaultScanDirs
	}

	var cfg workspaceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("unreadable .speckit.yaml, using default scan dirs", "error", err)
		return DefaultScanDirs
	}

	if cfg.Version != "" && majorVersion(cfg.Version) != majorVersion(EngineVersion) {
		s.logger.Warn("workspace config version may be incompatible",
			"config_version", cfg.Version, "engine_version", EngineVersion)
	}

	if len(cfg.Skills.ScanDirs) > 0 {
		return cfg.Skills.ScanDirs
	}
	return DefaultScanDirs
}

// Discover finds every skill under the scan dirs, sorted by path for
// deterministic output. Unreadable skill files are logged and skipped.
func (s *Service) Discover() []Skill {
	var skills []Skill

	for _, dir := range s.ScanDirs() {
		fsys := os.DirFS(filepath.Join(s.root, dir))
		matches, err := doublestar.Glob(fsys, "*/SKILL.md")
		if err != nil {
			continue
		}

		for _, match := range matches {
			rel := filepath.Join(dir, match)
			skill, err := s.loadSkill(rel)
			if err != nil {
				s.logger.Warn("skipping unreadable skill", "path", rel, "error", err)
				continue
			}
			skills = append(skills, skill)
		}
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Path < skills[j].Path })
	return skills
}

// loadSkill reads one SKILL.md and fills metadata from its frontmatter, with
// the directory name as the name fallback.
func (s *Service) loadSkill(rel string) (Skill, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return Skill{}, err
	}

	meta, _ := ParseFrontmatter(string(data))

	skill := Skill{
		Name:        meta["name"],
		Description: meta["description"],
		Path:        filepath.ToSlash(rel),
		Dir:         filepath.ToSlash(filepath.Dir(rel)),
	}
	if skill.Name == "" {
		skill.Name = filepath.Base(filepath.Dir(rel))
	}
	return skill, nil
}

// ParseFrontmatter splits a markdown document into its YAML frontmatter
// (flattened to string values) and body. Documents without frontmatter
// return empty metadata and the full content.
func ParseFrontmatter(content string) (map[string]string, string) {
	meta := map[string]string{}

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return meta, content
	}
	front, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return meta, content
	}
	// Consume the rest of the closing delimiter line.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(front), &raw); err != nil {
		return meta, content
	}
	for k, v := range raw {
		meta[k] = fmt.Sprintf("%v", v)
	}

	return meta, strings.TrimSpace(body)
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}
