package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newPhaseCmd creates the phase command
func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase N",
		Short: "Run all incomplete tasks in a phase",
		Long: `Execute phase N from tasks.md: sequential tasks first in
document order (stopping at the first failure), then parallel [P] tasks
through a bounded worker pool.

Examples:
  vibe phase 2
  vibe phase 3 --parallel 5
  vibe phase 1 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid phase number %q: expected a positive integer", args[0])
			}

			parallel, _ := cmd.Flags().GetInt("parallel")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			eng, err := buildEngine()
			if err != nil {
				return err
			}
			specDir, err := resolveSpecDir(eng.store)
			if err != nil {
				return err
			}
			sched, err := eng.scheduler(specDir, parallel, dryRun)
			if err != nil {
				return err
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			return sched.RunPhase(ctx, n)
		},
	}

	cmd.Flags().Int("parallel", 0, "max concurrent parallel tasks (default from config)")
	cmd.Flags().Bool("dry-run", false, "print the commands without executing")

	return cmd
}
