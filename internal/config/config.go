// Package config owns the engine settings file (.speckit-vc.json): typed
// structure, defaults, load/save and validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/zlink-cloudtech/spec-kit/internal/util"
)

// FileName is the settings file looked up in the working directory.
const FileName = ".speckit-vc.json"

// LogLevels are the accepted log_level values.
var LogLevels = []string{"none", "error", "warning", "info", "debug", "all"}

// Settings is the engine configuration. Every key is optional in the file;
// absent keys take the documented defaults.
type Settings struct {
	Agent            string                    `json:"agent"`
	Model            string                    `json:"model"`
	TimeoutMinutes   int                       `json:"timeout_minutes"`
	RetryCount       int                       `json:"retry_count"`
	MaxParallel      int                       `json:"max_parallel"`
	LogLevel         string                    `json:"log_level"`
	AllowAllTools    bool                      `json:"allow_all_tools"`
	ExcludedTools    []string                  `json:"excluded_tools"`
	AllowedPaths     []string                  `json:"allowed_paths"`
	AllowedURLs      []string                  `json:"allowed_urls"`
	SpecsDir         string                    `json:"specs_dir"`
	AutoLearning     bool                      `json:"auto_learning"`
	AgentsMDPath     string                    `json:"agents_md_path"`
	SessionIsolation bool                      `json:"session_isolation"`
	AgentConfig      map[string]map[string]any `json:"agent_config,omitempty"`
}

// Default returns the documented defaults.
func Default() *Settings {
	return &Settings{
		Agent:          "copilot",
		Model:          "claude-sonnet-4.5",
		TimeoutMinutes: 30,
		RetryCount:     2,
		MaxParallel:    3,
		LogLevel:       "all",
		AllowAllTools:  true,
		ExcludedTools:  []string{"shell(rm -rf)"},
		AllowedPaths:   []string{},
		AllowedURLs:    []string{"github.com"},
		SpecsDir:       "specs",
		AutoLearning:   true,
		AgentsMDPath:   "AGENTS.md",
		AgentConfig:    map[string]map[string]any{},
	}
}

// Load reads path over the defaults. A missing file yields pure defaults; a
// malformed file is an error (unlike workflow state, a broken config is
// user-authored and should be fixed, not silently discarded).
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.AgentConfig == nil {
		s.AgentConfig = map[string]map[string]any{}
	}
	return s, nil
}

// Save writes the settings atomically.
func (s *Settings) Save(path string) error {
	return util.AtomicWriteJSON(path, s, 0o644)
}

// Validate returns findings; empty means valid. knownAgents may be nil to
// skip the agent check (e.g. in contexts without a registry).
func (s *Settings) Validate(knownAgents []string) []string {
	var findings []string

	if s.Agent == "" {
		findings = append(findings, "agent must not be empty")
	} else if knownAgents != nil && !slices.Contains(knownAgents, s.Agent) {
		findings = append(findings, fmt.Sprintf("agent %q is not registered (known: %s)", s.Agent, strings.Join(knownAgents, ", ")))
	}
	if s.Model == "" {
		findings = append(findings, "model must not be empty")
	}
	if s.TimeoutMinutes < 1 || s.TimeoutMinutes > 120 {
		findings = append(findings, fmt.Sprintf("timeout_minutes must be in [1,120], got %d", s.TimeoutMinutes))
	}
	if s.RetryCount < 0 || s.RetryCount > 5 {
		findings = append(findings, fmt.Sprintf("retry_count must be in [0,5], got %d", s.RetryCount))
	}
	if s.MaxParallel < 1 || s.MaxParallel > 10 {
		findings = append(findings, fmt.Sprintf("max_parallel must be in [1,10], got %d", s.MaxParallel))
	}
	if !slices.Contains(LogLevels, s.LogLevel) {
		findings = append(findings, fmt.Sprintf("log_level must be one of %s, got %q", strings.Join(LogLevels, "|"), s.LogLevel))
	}

	return findings
}

// AgentOverrides returns the per-agent settings map for name, never nil.
func (s *Settings) AgentOverrides(name string) map[string]any {
	if m, ok := s.AgentConfig[name]; ok {
		return m
	}
	return map[string]any{}
}

// Get returns the value of a top-level key, or reaches into agent_config via
// a dotted key ("agent_config.claude.model").
func (s *Settings) Get(key string) (any, error) {
	if rest, ok := strings.CutPrefix(key, "agent_config."); ok {
		agent, sub, found := strings.Cut(rest, ".")
		m, ok := s.AgentConfig[agent]
		if !ok {
			return nil, fmt.Errorf("no agent_config entry for %q", agent)
		}
		if !found {
			return m, nil
		}
		v, ok := m[sub]
		if !ok {
			return nil, fmt.Errorf("agent_config.%s has no key %q", agent, sub)
		}
		return v, nil
	}

	switch key {
	case "agent":
		return s.Agent, nil
	case "model":
		return s.Model, nil
	case "timeout_minutes":
		return s.TimeoutMinutes, nil
	case "retry_count":
		return s.RetryCount, nil
	case "max_parallel":
		return s.MaxParallel, nil
	case "log_level":
		return s.LogLevel, nil
	case "allow_all_tools":
		return s.AllowAllTools, nil
	case "excluded_tools":
		return s.ExcludedTools, nil
	case "allowed_paths":
		return s.AllowedPaths, nil
	case "allowed_urls":
		return s.AllowedURLs, nil
	case "specs_dir":
		return s.SpecsDir, nil
	case "auto_learning":
		return s.AutoLearning, nil
	case "agents_md_path":
		return s.AgentsMDPath, nil
	case "session_isolation":
		return s.SessionIsolation, nil
	case "agent_config":
		return s.AgentConfig, nil
	default:
		return nil, fmt.Errorf("unknown config key %q", key)
	}
}

// Set parses value for key with the key's type and applies it. append
// extends list keys instead of replacing them. Range validation happens at
// Set time so a bad value never reaches the file.
func (s *Settings) Set(key, value string, appendList bool) error {
	switch key {
	case "agent":
		s.Agent = value
	case "model":
		s.Model = value
	case "log_level":
		if !slices.Contains(LogLevels, value) {
			return fmt.Errorf("log_level must be one of %s", strings.Join(LogLevels, "|"))
		}
		s.LogLevel = value
	case "specs_dir":
		s.SpecsDir = value
	case "agents_md_path":
		s.AgentsMDPath = value

	case "timeout_minutes":
		n, err := parseIntInRange(value, 1, 120)
		if err != nil {
			return fmt.Errorf("timeout_minutes: %w", err)
		}
		s.TimeoutMinutes = n
	case "retry_count":
		n, err := parseIntInRange(value, 0, 5)
		if err != nil {
			return fmt.Errorf("retry_count: %w", err)
		}
		s.RetryCount = n
	case "max_parallel":
		n, err := parseIntInRange(value, 1, 10)
		if err != nil {
			return fmt.Errorf("max_parallel: %w", err)
		}
		s.MaxParallel = n

	case "allow_all_tools", "auto_learning", "session_isolation":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		switch key {
		case "allow_all_tools":
			s.AllowAllTools = b
		case "auto_learning":
			s.AutoLearning = b
		case "session_isolation":
			s.SessionIsolation = b
		}

	case "excluded_tools", "allowed_paths", "allowed_urls":
		items := splitList(value)
		target := map[string]*[]string{
			"excluded_tools": &s.ExcludedTools,
			"allowed_paths":  &s.AllowedPaths,
			"allowed_urls":   &s.AllowedURLs,
		}[key]
		if appendList {
			*target = append(*target, items...)
		} else {
			*target = items
		}

	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Remove reverts key to its default value.
func (s *Settings) Remove(key string) error {
	def := Default()
	defValue, err := def.Get(key)
	if err != nil {
		return err
	}

	switch v := defValue.(type) {
	case string:
		return s.Set(key, v, false)
	case int:
		return s.Set(key, strconv.Itoa(v), false)
	case bool:
		return s.Set(key, strconv.FormatBool(v), false)
	case []string:
		switch key {
		case "excluded_tools":
			s.ExcludedTools = slices.Clone(def.ExcludedTools)
		case "allowed_paths":
			s.AllowedPaths = slices.Clone(def.AllowedPaths)
		case "allowed_urls":
			s.AllowedURLs = slices.Clone(def.AllowedURLs)
		}
		return nil
	case map[string]map[string]any:
		s.AgentConfig = map[string]map[string]any{}
		return nil
	default:
		return fmt.Errorf("cannot reset key %q", key)
	}
}

func parseIntInRange(value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", value)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be in [%d,%d], got %d", lo, hi, n)
	}
	return n, nil
}

// splitList parses a comma-separated list value.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
