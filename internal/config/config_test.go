package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Default()

	assert.Equal(t, "copilot", s.Agent)
	assert.Equal(t, "claude-sonnet-4.5", s.Model)
	assert.Equal(t, 30, s.TimeoutMinutes)
	assert.Equal(t, 2, s.RetryCount)
	assert.Equal(t, 3, s.MaxParallel)
	assert.Equal(t, "all", s.LogLevel)
	assert.True(t, s.AllowAllTools)
	assert.Equal(t, []string{"shell(rm -rf)"}, s.ExcludedTools)
	assert.Equal(t, []string{"github.com"}, s.AllowedURLs)
	assert.Equal(t, "specs", s.SpecsDir)

	assert.Empty(t, s.Validate(nil), "defaults must validate cleanly")
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `{"agent": "claude", "max_parallel": 5, "excluded_tools": ["shell(sudo)"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", s.Agent)
	assert.Equal(t, 5, s.MaxParallel)
	assert.Equal(t, []string{"shell(sudo)"}, s.ExcludedTools)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30, s.TimeoutMinutes)
	assert.Equal(t, "claude-sonnet-4.5", s.Model)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err, "a user-authored broken config must not be silently discarded")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	s := Default()
	s.Agent = "claude"
	s.MaxParallel = 7
	s.AgentConfig["claude"] = map[string]any{"model": "claude-opus-4"}
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude", loaded.Agent)
	assert.Equal(t, 7, loaded.MaxParallel)
	assert.Equal(t, "claude-opus-4", loaded.AgentConfig["claude"]["model"])
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"timeout low", func(s *Settings) { s.TimeoutMinutes = 0 }, "timeout_minutes"},
		{"timeout high", func(s *Settings) { s.TimeoutMinutes = 121 }, "timeout_minutes"},
		{"retry negative", func(s *Settings) { s.RetryCount = -1 }, "retry_count"},
		{"retry high", func(s *Settings) { s.RetryCount = 6 }, "retry_count"},
		{"parallel low", func(s *Settings) { s.MaxParallel = 0 }, "max_parallel"},
		{"parallel high", func(s *Settings) { s.MaxParallel = 11 }, "max_parallel"},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, "log_level"},
		{"empty model", func(s *Settings) { s.Model = "" }, "model"},
		{"empty agent", func(s *Settings) { s.Agent = "" }, "agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			findings := s.Validate(nil)
			require.Len(t, findings, 1)
			assert.Contains(t, findings[0], tt.want)
		})
	}
}

func TestValidateUnknownAgent(t *testing.T) {
	s := Default()
	s.Agent = "gemini"

	findings := s.Validate([]string{"claude", "copilot"})
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "gemini")
	assert.Contains(t, findings[0], "claude, copilot")
}

func TestSetTypedParsing(t *testing.T) {
	s := Default()

	require.NoError(t, s.Set("max_parallel", "8", false))
	assert.Equal(t, 8, s.MaxParallel)

	require.NoError(t, s.Set("allow_all_tools", "false", false))
	assert.False(t, s.AllowAllTools)

	require.NoError(t, s.Set("excluded_tools", "shell(rm),shell(dd)", false))
	assert.Equal(t, []string{"shell(rm)", "shell(dd)"}, s.ExcludedTools)

	require.NoError(t, s.Set("allowed_urls", "gitlab.com", true))
	assert.Equal(t, []string{"github.com", "gitlab.com"}, s.AllowedURLs)
}

func TestSetRejectsBadValues(t *testing.T) {
	s := Default()

	assert.Error(t, s.Set("max_parallel", "eleven", false))
	assert.Error(t, s.Set("max_parallel", "11", false))
	assert.Error(t, s.Set("timeout_minutes", "0", false))
	assert.Error(t, s.Set("allow_all_tools", "yes please", false))
	assert.Error(t, s.Set("log_level", "verbose", false))
	assert.Error(t, s.Set("no_such_key", "x", false))

	// Nothing was mutated by the failed sets.
	assert.Equal(t, Default(), s)
}

func TestGetDottedAgentConfig(t *testing.T) {
	s := Default()
	s.AgentConfig["claude"] = map[string]any{"model": "claude-opus-4"}

	v, err := s.Get("agent_config.claude.model")
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4", v)

	_, err = s.Get("agent_config.gemini.model")
	assert.Error(t, err)

	_, err = s.Get("agent_config.claude.nope")
	assert.Error(t, err)
}

func TestRemoveRevertsToDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Set("max_parallel", "9", false))
	require.NoError(t, s.Set("excluded_tools", "shell(sudo)", false))

	require.NoError(t, s.Remove("max_parallel"))
	require.NoError(t, s.Remove("excluded_tools"))

	assert.Equal(t, 3, s.MaxParallel)
	assert.Equal(t, []string{"shell(rm -rf)"}, s.ExcludedTools)
}
