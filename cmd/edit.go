package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/lifecycle"
)

var editCmd = &cobra.Command{
	Use:   "edit <goal-id>",
	Short: "Edit an existing goal",
	Long: `Apply a partial update to a goal. Only the flags you pass change;
everything else stays as it is on the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, sched, err := buildController(nil)
		if err != nil {
			return err
		}
		defer sched.StopAll()

		var in lifecycle.UpdateInput
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("deadline") {
			v, _ := cmd.Flags().GetString("deadline")
			in.Deadline = &v
		}
		if cmd.Flags().Changed("condition") {
			v, _ := cmd.Flags().GetString("condition")
			in.CompletionCondition = &v
		}
		if cmd.Flags().Changed("type") {
			v, _ := cmd.Flags().GetString("type")
			in.CompletionType = &v
		}

		updated, err := ctrl.UpdateGoal(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		term.Success("Goal %s updated, due %s", updated.ID, updated.DeadlineDisplay)
		return nil
	},
}

func init() {
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().String("deadline", "", "New deadline as DD/MM/YYYY HH:MM in local time")
	editCmd.Flags().StringP("condition", "c", "", "New completion condition")
	editCmd.Flags().StringP("type", "t", "", "New completion type: issue or commit_message")
	rootCmd.AddCommand(editCmd)
}
