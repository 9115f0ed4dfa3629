package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/api"
	"github.com/gitdone-app/gitdone-client/internal/config"
	"github.com/gitdone-app/gitdone-client/internal/countdown"
	"github.com/gitdone-app/gitdone-client/internal/deadline"
	"github.com/gitdone-app/gitdone-client/internal/lifecycle"
	"github.com/gitdone-app/gitdone-client/internal/store"
	"github.com/gitdone-app/gitdone-client/internal/ui"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	cfg  *config.Config
	term *ui.UI
)

var rootCmd = &cobra.Command{
	Use:   "gitdone",
	Short: "Git-Done client - track time-boxed goals against your repositories",
	Long: `gitdone is the terminal client for the Git-Done goal tracker.
It creates and edits goals, runs live deadline countdowns, and can host
the offline cache worker that keeps the app shell available without a
network connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initDeps)
}

func initDeps() {
	cfg = config.LoadConfig()
	logger.InitLogger(cfg.LogLevel)
	term = ui.New()
}

// buildController assembles the lifecycle stack around one scheduler
// publish callback.
func buildController(publish countdown.PublishFunc) (*lifecycle.Controller, *store.GoalStore, *countdown.Scheduler, error) {
	client, err := api.NewClient(cfg.APIBaseURL, cfg.SessionToken)
	if err != nil {
		return nil, nil, nil, err
	}
	if publish == nil {
		publish = func(countdown.Snapshot) {}
	}

	codec := deadline.New(time.Local)
	goals := store.NewGoalStore()
	sched := countdown.NewScheduler(codec, publish)
	ctrl := lifecycle.NewController(client, goals, sched, codec)
	return ctrl, goals, sched, nil
}
