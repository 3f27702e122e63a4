package cli

import (
	"github.com/spf13/cobra"
)

// newResumeCmd creates the resume command
func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a halted workflow",
		Long: `Resume the workflow from the failed stage, or from the earliest
incomplete stage when nothing is marked failed.

Examples:
  vibe resume
  vibe resume --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			eng, err := buildEngine()
			if err != nil {
				return err
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			return eng.orchestrator(dryRun).Resume(ctx)
		},
	}

	cmd.Flags().Bool("dry-run", false, "print the commands without executing")

	return cmd
}
