// Package cli implements the vibe command-line interface.
package cli

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zlink-cloudtech/spec-kit/internal/errors"
)

var (
	cfgFile     string
	agentFlag   string
	modelFlag   string
	logLevel    string
	noColor     bool
	specDirFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vibe",
	Short: "Autonomous spec-driven development engine",
	Long: `vibe drives a coding agent through a spec-driven workflow without
human intervention between stages.

Pipeline:
  specify → clarify → plan → tasks → checklist → analyze → implement

Quick start:
  vibe config init                      Write default settings
  vibe run --requirement "Add auth"     Run the full pipeline
  vibe status                           Show workflow progress
  vibe resume                           Continue after a failure`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initViper()
		setupLogging()
		return nil
	},
}

// Execute runs the CLI and returns the process exit code: 0 on success,
// a structured error's code otherwise (124 timeout, 127 missing executable,
// 130 interrupt, 1 everything else).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var verr *errors.VibeError
		if stderrors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, verr.UserMessage())
			return verr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .speckit-vc.json)")
	rootCmd.PersistentFlags().StringVar(&agentFlag, "agent", "", "agent adapter to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: none|error|warning|info|debug|all")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&specDirFlag, "spec-dir", "", "spec directory (overrides workflow state)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newStageCmd())
	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newPhaseCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newAdaptersCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSkillsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initViper wires config discovery and the VIBE_* environment overlay.
func initViper() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(".speckit-vc")
	}

	viper.SetEnvPrefix("VIBE")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// setupLogging configures the default slog logger from --log-level (or the
// config file). Logs go to stderr so stdout stays parseable.
func setupLogging() {
	level := logLevel
	if level == "" {
		level = viper.GetString("log_level")
	}

	var slogLevel slog.Level
	switch level {
	case "none":
		slogLevel = slog.Level(99)
	case "error":
		slogLevel = slog.LevelError
	case "warning":
		slogLevel = slog.LevelWarn
	case "info":
		slogLevel = slog.LevelInfo
	case "debug", "all":
		slogLevel = slog.LevelDebug
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
