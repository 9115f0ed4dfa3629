package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitdone-app/gitdone-client/internal/offline"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the offline cache worker",
	Long: `Start the local caching proxy that stands in for the installable
app's background worker: it pre-caches the static asset manifest,
evicts cache partitions left over from older versions, and serves
page requests with network-first or cache-first strategies so the
app shell stays available offline.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return workerRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func workerRun(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, err := offline.OpenCacheStore(cfg.CacheDBPath)
	if err != nil {
		return err
	}
	defer cache.Close()

	worker, err := offline.NewWorker(cfg.APIBaseURL, cfg.CacheVersion, cache)
	if err != nil {
		return err
	}

	// Install never fails the worker; activation evicts stale partitions
	// and takes over serving immediately.
	worker.Install(ctx)
	if err := worker.Activate(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.WorkerAddr,
		Handler: worker.Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Error("Worker server failed")
			stop()
		}
	}()

	term.Success("Offline cache worker (%s) serving on %s", worker.Version(), cfg.WorkerAddr)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	term.Info("Worker stopped.")
	return nil
}
