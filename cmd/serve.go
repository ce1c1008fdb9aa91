package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/familiar-bridge/internal/adapters/httpapi"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func newServeCmd(apps *appLoader) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP bridge the browser UI talks to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := apps.get()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = app.cfg.Server.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.cfg.Boot.ResetLocations {
				if err := app.familiars.ResetLocations(ctx); err != nil {
					app.logger.Warn("reset familiar locations", "error", err)
				}
			}

			listener, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}

			return serveHTTP(ctx, app, listener)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (defaults to server.listen)")
	return cmd
}

// serveHTTP blocks until ctx is done, then drains in-flight requests.
func serveHTTP(ctx context.Context, app *app, listener net.Listener) error {
	srv := &http.Server{
		Handler:           httpapi.NewServer(app.services(), app.logger).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	app.logger.Info("bridge listening",
		"addr", listener.Addr().String(),
		"shared_temp", app.cfg.Paths.SharedTemp,
		"familiars", app.cfg.Paths.Familiars,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
