package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/zlink-cloudtech/spec-kit/internal/workflow"
)

// newStageCmd creates the stage command
func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage NAME",
		Short: "Run a single workflow stage",
		Long: `Run one stage by name, regardless of pipeline position. Stages
may be re-run; analyze in particular is designed for repeated passes.

Stages: ` + strings.Join(workflow.Stages, ", ") + `

Examples:
  vibe stage plan
  vibe stage analyze
  vibe stage implement --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			eng, err := buildEngine()
			if err != nil {
				return err
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			return eng.orchestrator(dryRun).RunStage(ctx, args[0])
		},
	}

	cmd.Flags().Bool("dry-run", false, "print the command without executing")

	return cmd
}
