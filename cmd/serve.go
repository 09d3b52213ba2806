package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kayz/techwatch/internal/notify"
	"github.com/kayz/techwatch/internal/pipeline"
	"github.com/kayz/techwatch/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a schedule with an HTTP trigger endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deliver := func(ctx context.Context, digest string) error {
			return notify.Broadcast(ctx, a.notifiers, digest)
		}

		sched := scheduler.New(a.cfg.Schedule, &archivingRunner{app: a}, deliver)
		return sched.Start(ctx)
	},
}

// archivingRunner records every scheduled run in the archive.
type archivingRunner struct {
	app *app
}

func (r *archivingRunner) Run(ctx context.Context, intent pipeline.Intent) *pipeline.RunContext {
	run := r.app.pipe.Run(ctx, intent)
	r.app.archiveRun(run)
	return run
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
