package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/familiar-bridge/internal/adapters/echowatcher"
)

func newWatchEchoCmd(apps *appLoader) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch-echo",
		Short: "Answer every pending message with an echo (development watcher)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := apps.get()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := echowatcher.New(
				app.cfg.Paths.SharedTemp,
				app.conversationDB,
				nil,
				app.logger,
				echowatcher.WithHeartbeatEvery(every),
			)

			app.logger.Info("echo watcher running", "shared_temp", app.cfg.Paths.SharedTemp)
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&every, "heartbeat-every", echowatcher.DefaultHeartbeatEvery, "heartbeat interval")
	return cmd
}
