package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the engine version, overridable at build time via -ldflags.
var Version = "2.0.0"

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show vibe version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("vibe version " + Version)
		},
	}
}
