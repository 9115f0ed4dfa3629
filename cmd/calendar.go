package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/api"
)

var calendarOut string

var calendarCmd = &cobra.Command{
	Use:   "calendar <goal-id>",
	Short: "Download a goal's deadline as an .ics calendar file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.NewClient(cfg.APIBaseURL, cfg.SessionToken)
		if err != nil {
			return err
		}

		out := calendarOut
		if out == "" {
			out = fmt.Sprintf("goal_%s.ics", args[0])
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %v", out, err)
		}
		defer f.Close()

		if err := client.DownloadCalendar(cmd.Context(), args[0], f); err != nil {
			os.Remove(out)
			return err
		}
		term.Success("Calendar saved to %s", out)
		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarOut, "out", "o", "", "Output file (default goal_<id>.ics)")
	rootCmd.AddCommand(calendarCmd)
}
