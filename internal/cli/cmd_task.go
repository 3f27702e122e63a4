package cli

import (
	"github.com/spf13/cobra"
)

// newTaskCmd creates the task command
func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task ID",
		Short: "Run a single task from tasks.md",
		Long: `Execute one checklist task by id. A task already checked
complete in tasks.md is skipped without invoking the agent.

Examples:
  vibe task T001
  vibe task T014 --dry-run
  vibe task T003 --spec-dir specs/002-user-auth`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			eng, err := buildEngine()
			if err != nil {
				return err
			}
			specDir, err := resolveSpecDir(eng.store)
			if err != nil {
				return err
			}
			sched, err := eng.scheduler(specDir, 0, dryRun)
			if err != nil {
				return err
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			return sched.RunTask(ctx, args[0])
		},
	}

	cmd.Flags().Bool("dry-run", false, "print the command without executing")

	return cmd
}
