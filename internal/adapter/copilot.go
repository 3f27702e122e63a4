package adapter

// Copilot drives the GitHub Copilot CLI.
//
// Invocation shape:
//
//	copilot --model MODEL [OPTIONS] -p "PROMPT"
//
// The flags the engine relies on: --allow-all, --excluded-tools,
// --allow-path, --allow-url, --no-ask-user, --log-level/--log-dir,
// --share (session markdown export), --stream off.
type Copilot struct{}

// NewCopilot returns the copilot adapter.
func NewCopilot() (Adapter, error) {
	return &Copilot{}, nil
}

func (c *Copilot) Name() string        { return "copilot" }
func (c *Copilot) Executable() string  { return "copilot" }
func (c *Copilot) Description() string { return "GitHub Copilot CLI adapter for VS Code integration" }

// DefaultModel prefers Claude Sonnet 4.5 for coding work.
func (c *Copilot) DefaultModel() string { return "claude-sonnet-4.5" }

// DefaultExcludedTools blocks the vibe skill itself to avoid recursion when
// the agent browses available skills mid-run.
func (c *Copilot) DefaultExcludedTools() []string {
	return []string{"skill(speckit-vibe)"}
}

func (c *Copilot) Available() bool {
	return executableAvailable(c.Executable())
}

func (c *Copilot) InstallInstructions() string {
	return "GitHub Copilot CLI is not installed or not in PATH.\n" +
		"To install:\n" +
		"  1. Ensure you have VS Code with GitHub Copilot extension\n" +
		"  2. Install the CLI: npm install -g @anthropic-ai/copilot\n" +
		"  3. Authenticate: copilot auth login\n" +
		"\n" +
		"For more information, see: https://docs.github.com/copilot/cli"
}

// knownCopilotModels is informational; unknown models are allowed because
// the upstream list grows faster than this one.
var knownCopilotModels = []string{
	"claude-sonnet-4.5",
	"claude-sonnet-4-20250514",
	"gpt-4o",
	"gpt-4-turbo",
	"gpt-4",
}

// BuildCommand renders the copilot argv for the given context.
func (c *Copilot) BuildCommand(ctx ExecutionContext, cfg Config, perms Permissions) []string {
	cmd := []string{c.Executable()}

	cmd = append(cmd, "--model", cfg.Model)

	if perms.AllowAll {
		cmd = append(cmd, "--allow-all")
	}
	for _, tool := range perms.ExcludedTools {
		cmd = append(cmd, "--excluded-tools", tool)
	}
	for _, path := range perms.AllowedPaths {
		cmd = append(cmd, "--allow-path", path)
	}
	for _, url := range perms.AllowedURLs {
		cmd = append(cmd, "--allow-url", url)
	}

	if ctx.NoAskUser {
		cmd = append(cmd, "--no-ask-user")
	}

	if ctx.DebugLogDir != "" {
		cmd = append(cmd, "--log-level", "debug")
		cmd = append(cmd, "--log-dir", ctx.DebugLogDir)
	}

	if ctx.SessionLogPath != "" {
		cmd = append(cmd, "--share", ctx.SessionLogPath)
	}

	// Streaming output interleaves badly with transcript capture.
	cmd = append(cmd, "--stream", "off")

	cmd = append(cmd, "-p", BuildPrompt(ctx))

	return cmd
}

// ValidateConfig applies the shared constraints. Unknown models pass; the
// known list exists for future warning surfaces, not rejection.
func (c *Copilot) ValidateConfig(cfg Config) []string {
	return ValidateBaseConfig(cfg)
}
