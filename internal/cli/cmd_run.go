package cli

import (
	"github.com/spf13/cobra"

	"github.com/zlink-cloudtech/spec-kit/internal/workflow"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full workflow pipeline",
		Long: `Run every stage of the pipeline in order, stopping at the first
failure. A failed run leaves its progress on disk; 'vibe resume' continues
from the failed stage.

Examples:
  vibe run --requirement "Add user authentication"
  vibe run --spec-file ./auth-spec.md
  vibe run --from-stage plan
  vibe run --requirement "Fix login" --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requirement, _ := cmd.Flags().GetString("requirement")
			specFile, _ := cmd.Flags().GetString("spec-file")
			fromStage, _ := cmd.Flags().GetString("from-stage")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			eng, err := buildEngine()
			if err != nil {
				return err
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			return eng.orchestrator(dryRun).Run(ctx, workflow.RunOptions{
				Requirement: requirement,
				SpecFile:    specFile,
				FromStage:   fromStage,
			})
		},
	}

	cmd.Flags().String("requirement", "", "feature requirement to start a new workflow from")
	cmd.Flags().String("spec-file", "", "existing specification file to start from")
	cmd.Flags().String("from-stage", "", "start the pipeline at this stage")
	cmd.Flags().Bool("dry-run", false, "print the commands without executing")

	return cmd
}
