package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, sched, err := buildController(nil)
		if err != nil {
			return err
		}
		defer sched.StopAll()

		// Deletion is irreversible; require an explicit confirmation
		// before the controller is even invoked.
		if !deleteYes && !confirm("Delete goal "+args[0]+"? This cannot be undone [y/N]: ") {
			term.Info("Aborted.")
			return nil
		}

		if err := ctrl.DeleteGoal(cmd.Context(), args[0]); err != nil {
			return err
		}
		term.Success("Goal %s deleted", args[0])
		return nil
	},
}

func confirm(prompt string) bool {
	term.Info("%s", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
