package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/countdown"
	"github.com/gitdone-app/gitdone-client/internal/models"
	"github.com/gitdone-app/gitdone-client/internal/push"
	"github.com/gitdone-app/gitdone-client/internal/ui"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

var watchOpen bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live countdown dashboard for all your goals",
	Long: `Fetch your goals and keep a live countdown running for every
active one. The goal list is re-polled periodically so the display
recovers after system sleep, and push notifications from the server
are shown as they arrive. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchRun(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOpen, "open", false, "Open a notification's page in the browser when it arrives")
	rootCmd.AddCommand(watchCmd)
}

// board keeps the latest published snapshot per goal id for rendering.
type board struct {
	mu    sync.Mutex
	snaps map[string]countdown.Snapshot
}

func (b *board) put(s countdown.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snaps[s.GoalID] = s
}

func (b *board) get(id string) (countdown.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.snaps[id]
	return s, ok
}

func watchRun(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := &board{snaps: make(map[string]countdown.Snapshot)}
	ctrl, goals, sched, err := buildController(b.put)
	if err != nil {
		return err
	}
	defer sched.StopAll()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	// Periodic authoritative re-poll; countdown ticks alone cannot be
	// trusted across system sleep or hibernate.
	repoll := cron.New()
	if _, err := repoll.AddFunc(cfg.RefreshSchedule, func() {
		if err := ctrl.Refresh(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("Periodic refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %v", cfg.RefreshSchedule, err)
	}
	repoll.Start()
	defer repoll.Stop()

	notifier := ui.PushNotifier{UI: term}
	if watchOpen {
		notifier.Open = func(target string) error {
			return push.OpenURL(resolveNotificationURL(cfg.APIBaseURL, target))
		}
	}
	sub := push.NewSubscriber(cfg.PushURL, notifier)
	go sub.Run(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(term.Out)
			term.Info("Stopped watching.")
			return nil
		case <-ticker.C:
			renderBoard(b, goals.All())
		}
	}
}

// resolveNotificationURL makes a server-relative notification target
// absolute against the API origin. Absolute targets pass through.
func resolveNotificationURL(base, target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}

func renderBoard(b *board, goals []models.Goal) {
	// Clear screen and move the cursor home before redrawing.
	fmt.Fprint(term.Out, "\033[H\033[2J")

	table := term.Table([]string{"Goal", "Repository", "Countdown", "Status"})
	for _, g := range goals {
		countdownText := "-"
		statusLine := ui.StatusColor(g.Status)
		if snap, ok := b.get(g.ID); ok && g.Active() {
			countdownText = ui.CountdownText(snap)
			statusLine = snap.Status
		}
		table.Append([]string{g.Description, g.RepoName(), countdownText, statusLine})
	}
	table.Render()
}
