package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newResetCmd creates the reset command
func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard workflow progress",
		Long: `Reset the workflow state to a fresh document with a new workflow
id. Spec directories and their contents are left untouched.

Examples:
  vibe reset
  vibe reset --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			store := openStore()
			if !store.State().HasProgress() {
				fmt.Println("No workflow in progress; nothing to reset.")
				return nil
			}

			if !force {
				fmt.Print("Discard all workflow progress? [y/N] ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Println("Workflow state reset.")
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "skip the confirmation prompt")

	return cmd
}
