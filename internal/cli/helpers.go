// Package cli implements the vibe command-line interface.
// This file contains shared wiring used across multiple commands.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/zlink-cloudtech/spec-kit/internal/adapter"
	"github.com/zlink-cloudtech/spec-kit/internal/config"
	"github.com/zlink-cloudtech/spec-kit/internal/errors"
	"github.com/zlink-cloudtech/spec-kit/internal/runner"
	"github.com/zlink-cloudtech/spec-kit/internal/scheduler"
	"github.com/zlink-cloudtech/spec-kit/internal/skills"
	"github.com/zlink-cloudtech/spec-kit/internal/workflow"
)

// configPath returns the settings file location, honoring --config.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.FileName
}

// loadSettings reads the settings file and applies global flag overrides.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if agentFlag != "" {
		settings.Agent = agentFlag
	}
	if modelFlag != "" {
		settings.Model = modelFlag
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	return settings, nil
}

// buildRegistry registers every supported adapter.
func buildRegistry() *adapter.Registry {
	reg := adapter.NewRegistry(slog.Default())
	reg.Register(adapter.NewCopilot)
	reg.Register(adapter.NewClaude)
	return reg
}

// resolveAdapter returns the configured agent, erroring when it is not
// registered or its executable is not installed.
func resolveAdapter(settings *config.Settings) (adapter.Adapter, error) {
	reg := buildRegistry()
	a, err := reg.Get(settings.Agent)
	if err != nil {
		return nil, err
	}
	if !a.Available() {
		return nil, errors.ErrAdapterUnavailable(a.Name(), a.InstallInstructions())
	}
	return a, nil
}

// agentConfig maps settings onto the adapter execution config, layering
// per-agent overrides from agent_config.
func agentConfig(settings *config.Settings, a adapter.Adapter) adapter.Config {
	cfg := adapter.Config{
		Model:          settings.Model,
		TimeoutMinutes: settings.TimeoutMinutes,
		RetryCount:     settings.RetryCount,
		LogLevel:       settings.LogLevel,
		Extra:          settings.AgentOverrides(a.Name()),
	}
	if cfg.Model == "" {
		cfg.Model = a.DefaultModel()
	}
	if model, ok := cfg.Extra["model"].(string); ok && modelFlag == "" {
		cfg.Model = model
	}
	return cfg
}

// permissions maps settings onto the adapter permission set.
func permissions(settings *config.Settings, a adapter.Adapter) adapter.Permissions {
	excluded := settings.ExcludedTools
	if len(excluded) == 0 {
		excluded = a.DefaultExcludedTools()
	}
	return adapter.Permissions{
		AllowAll:      settings.AllowAllTools,
		ExcludedTools: excluded,
		AllowedPaths:  settings.AllowedPaths,
		AllowedURLs:   settings.AllowedURLs,
	}
}

// openStore opens the workflow state in the working directory.
func openStore() *workflow.Store {
	return workflow.Open(".", slog.Default())
}

// resolveSpecDir picks the spec directory: --spec-dir beats workflow state.
func resolveSpecDir(store *workflow.Store) (string, error) {
	if specDirFlag != "" {
		return specDirFlag, nil
	}
	if dir := store.State().SpecDir; dir != "" {
		return dir, nil
	}
	return "", errors.ErrSpecDirMissing("(none recorded; pass --spec-dir or run 'vibe run' first)")
}

// engine bundles the wired execution components for a command invocation.
type engine struct {
	settings *config.Settings
	agent    adapter.Adapter
	cfg      adapter.Config
	perms    adapter.Permissions
	store    *workflow.Store
	runner   *runner.Runner
}

// buildEngine wires settings, adapter and state for execution commands.
func buildEngine() (*engine, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	a, err := resolveAdapter(settings)
	if err != nil {
		return nil, err
	}
	return &engine{
		settings: settings,
		agent:    a,
		cfg:      agentConfig(settings, a),
		perms:    permissions(settings, a),
		store:    openStore(),
		runner:   runner.New(slog.Default()),
	}, nil
}

// orchestrator builds the stage orchestrator, wiring the scheduler in as the
// implement-stage executor once a spec directory exists.
func (e *engine) orchestrator(dryRun bool) *workflow.Orchestrator {
	return &workflow.Orchestrator{
		Agent:     e.agent,
		Config:    e.cfg,
		Perms:     e.perms,
		Store:     e.store,
		Runner:    e.runner,
		SpecsRoot: e.settings.SpecsDir,
		DryRun:    dryRun,
		Implement: &lazyScheduler{engine: e, dryRun: dryRun},
		Skills:    skills.NewService(".", slog.Default()),
	}
}

// scheduler builds the task scheduler for the resolved spec directory.
func (e *engine) scheduler(specDir string, maxParallel int, dryRun bool) (*scheduler.Scheduler, error) {
	if maxParallel == 0 {
		maxParallel = e.settings.MaxParallel
	}
	return scheduler.New(scheduler.Options{
		Agent:       e.agent,
		Config:      e.cfg,
		Perms:       e.perms,
		Runner:      e.runner,
		Store:       e.store,
		SpecDir:     specDir,
		MaxParallel: maxParallel,
		DryRun:      dryRun,
	})
}

// lazyScheduler defers scheduler construction to implement-stage time, when
// the spec directory and its tasks.md finally exist.
type lazyScheduler struct {
	engine *engine
	dryRun bool
}

func (l *lazyScheduler) RunAllPhases(ctx context.Context) error {
	specDir, err := resolveSpecDir(l.engine.store)
	if err != nil {
		return err
	}
	sched, err := l.engine.scheduler(specDir, 0, l.dryRun)
	if err != nil {
		return err
	}
	return sched.RunAllPhases(ctx)
}

// useColor reports whether styled output should be emitted.
func useColor() bool {
	return !noColor && isatty.IsTerminal(os.Stdout.Fd())
}

// styles holds the lipgloss styles used by the status and adapters views.
type styles struct {
	Success lipgloss.Style
	Failure lipgloss.Style
	Active  lipgloss.Style
	Subtle  lipgloss.Style
	Bold    lipgloss.Style
}

func newStyles() styles {
	return styles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Active:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// render applies style only when color output is on.
func render(s lipgloss.Style, text string) string {
	if !useColor() {
		return text
	}
	return s.Render(text)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
