package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/lifecycle"
	"github.com/gitdone-app/gitdone-client/internal/models"
)

var createInput lifecycle.CreateInput

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new goal",
	Long: `Create a time-boxed goal tied to a repository.

The deadline uses your local time in DD/MM/YYYY HH:MM form and is
validated before anything is sent to the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, sched, err := buildController(nil)
		if err != nil {
			return err
		}
		defer sched.StopAll()

		created, err := ctrl.CreateGoal(cmd.Context(), createInput)
		if err != nil {
			return err
		}

		term.Success("Goal %s created, due %s", created.ID, created.DeadlineDisplay)
		if created.EmbedURL != "" {
			term.Info("Embed URL: %s", created.EmbedURL)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createInput.Description, "description", "d", "", "What you commit to finishing (required)")
	createCmd.Flags().StringVar(&createInput.Deadline, "deadline", "", "Deadline as DD/MM/YYYY HH:MM in local time (required)")
	createCmd.Flags().StringVarP(&createInput.RepoURL, "repo", "r", "", "Repository URL, e.g. https://github.com/owner/repo (required)")
	createCmd.Flags().StringVarP(&createInput.CompletionCondition, "condition", "c", "", "Completion condition: issue number or commit tag (required)")
	createCmd.Flags().StringVarP(&createInput.CompletionType, "type", "t", models.CompletionCommitMessage,
		"How the condition is checked: issue or commit_message")
	createCmd.MarkFlagRequired("description")
	createCmd.MarkFlagRequired("deadline")
	createCmd.MarkFlagRequired("repo")
	createCmd.MarkFlagRequired("condition")
	rootCmd.AddCommand(createCmd)
}
