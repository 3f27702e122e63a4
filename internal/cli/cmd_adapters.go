package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newAdaptersCmd creates the adapters command
func newAdaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List supported agent adapters",
		Long: `List every registered agent adapter with its executable and
availability. Verbose output adds install instructions for missing ones.

Examples:
  vibe adapters
  vibe adapters --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			reg := buildRegistry()
			st := newStyles()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, info := range reg.List() {
				status := render(st.Success, "available")
				if !info.Available {
					status = render(st.Failure, "not installed")
				}
				name := info.Name
				if info.Default {
					name += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, info.Executable, status, info.Description)
			}
			w.Flush()

			if verbose {
				for _, info := range reg.List() {
					if info.Available {
						continue
					}
					a, err := reg.Get(info.Name)
					if err != nil {
						continue
					}
					fmt.Printf("\nInstall %s:\n%s\n", info.Name, a.InstallInstructions())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "show install instructions for missing adapters")

	return cmd
}
