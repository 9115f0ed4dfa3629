package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/countdown"
	"github.com/gitdone-app/gitdone-client/internal/deadline"
	"github.com/gitdone-app/gitdone-client/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your goals with their remaining time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRun(ctx context.Context) error {
	ctrl, goals, sched, err := buildController(nil)
	if err != nil {
		return err
	}
	defer sched.StopAll()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	all := goals.All()
	if len(all) == 0 {
		term.Info("No goals yet. Create your first goal with 'gitdone create'.")
		return nil
	}

	codec := deadline.New(time.Local)
	table := term.Table([]string{"ID", "Goal", "Repository", "Deadline", "Remaining", "Status"})
	for _, g := range all {
		remaining := "-"
		if g.Active() {
			if dl, err := countdown.ResolveDeadline(g, codec); err == nil {
				snap := countdown.Compute(g.ID, dl, time.Now(), codec)
				remaining = ui.CountdownText(snap)
			}
		}
		table.Append([]string{
			g.ID,
			g.Description,
			g.RepoName(),
			ui.DeadlineText(g, codec),
			remaining,
			ui.StatusColor(g.Status),
		})
	}
	table.Render()
	return nil
}
