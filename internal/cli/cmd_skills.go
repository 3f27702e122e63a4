package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zlink-cloudtech/spec-kit/internal/skills"
)

// newSkillsCmd creates the skills command tree
func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Manage agent skills",
		Long: `Discover and render the agent skills found under the workspace
skill directories (skills/, .specify/skills/, .github/skills/,
.claude/skills/, or the scan_dirs override in .speckit.yaml).

Examples:
  vibe skills list
  vibe skills render
  vibe skills install .github/copilot-instructions.md --format copilot-instructions`,
	}

	cmd.AddCommand(newSkillsListCmd())
	cmd.AddCommand(newSkillsRenderCmd())
	cmd.AddCommand(newSkillsInstallCmd())

	return cmd
}

func skillsService() *skills.Service {
	return skills.NewService(".", slog.Default())
}

func newSkillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found := skillsService().Discover()
			if len(found) == 0 {
				fmt.Println("No skills found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, s := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, truncate(s.Description, 60), s.Path)
			}
			return w.Flush()
		},
	}
}

func newSkillsRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render the skill index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index := skills.RenderIndex(skillsService().Discover())
			if index == "" {
				fmt.Println("No skills found.")
				return nil
			}
			fmt.Print(index)
			return nil
		},
	}
}

func newSkillsInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install PATH",
		Short: "Write the skill index to a file",
		Long: `Write the rendered skill index to PATH. The copilot-instructions
format prepends the applyTo frontmatter GitHub Copilot expects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			if err := skillsService().Install(args[0], format); err != nil {
				return err
			}
			fmt.Printf("Installed skill index to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("format", skills.FormatMarkdown, "output format: markdown|copilot-instructions")
	return cmd
}
