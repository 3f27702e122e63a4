package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zlink-cloudtech/spec-kit/internal/workflow"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show workflow progress",
		Long: `Show the current workflow at a glance: spec directory, per-stage
status and the next stage to run.

Examples:
  vibe status
  vibe status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			store := openStore()
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(store.State())
			}

			showStatus(store)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output the raw state document as JSON")

	return cmd
}

func showStatus(store *workflow.Store) {
	state := store.State()
	st := newStyles()

	if !state.HasProgress() {
		fmt.Println("No workflow in progress.")
		fmt.Println("\nGet started:")
		fmt.Println("  vibe run --requirement \"Your feature description\"")
		return
	}

	fmt.Println(render(st.Bold, "Workflow Status"))
	fmt.Println()
	fmt.Printf("  Workflow ID:  %s\n", state.WorkflowID)
	if state.SpecDir != "" {
		fmt.Printf("  Spec dir:     %s\n", state.SpecDir)
	}
	if state.Requirement != "" {
		fmt.Printf("  Requirement:  %s\n", truncate(state.Requirement, 60))
	}
	fmt.Println()

	for _, stage := range workflow.Stages {
		glyph, label := stageGlyph(state, stage)
		fmt.Printf("  %s %-10s %s\n", glyph, stage, label)
	}
	fmt.Println()

	if len(state.TaskStatus) > 0 {
		completed, failed := 0, 0
		for _, rec := range state.TaskStatus {
			switch rec.Status {
			case workflow.TaskCompleted:
				completed++
			case workflow.TaskFailed:
				failed++
			}
		}
		fmt.Printf("  Tasks: %d recorded, %d completed, %d failed\n\n", len(state.TaskStatus), completed, failed)
	}

	if next, ok := store.Next(); ok {
		fmt.Printf("Next stage to run: %s\n", next)
	} else {
		fmt.Println("All stages completed!")
	}
}

// stageGlyph returns the status glyph and label for one stage.
func stageGlyph(state *workflow.State, stage string) (string, string) {
	st := newStyles()
	switch {
	case state.StageCompleted(stage):
		return "✅", render(st.Success, "completed")
	case state.FailedStage == stage:
		return "❌", render(st.Failure, "failed")
	case state.CurrentStage == stage:
		return "🔄", render(st.Active, "in progress")
	default:
		return "⏳", render(st.Subtle, "pending")
	}
}
