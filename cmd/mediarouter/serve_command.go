package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediarouter/internal/host"
)

const shutdownGracePeriod = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion host",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cfg, err := ctx.ensureRouter(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("initialize router: %w", err)
			}
			defer ctx.close()

			h := host.New(rt, cfg.DebounceWindow(), nil)
			server := &http.Server{
				Addr:    cfg.Server.Address,
				Handler: h.Handler(),
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "mediarouter listening on %s\n", cfg.Server.Address)

			select {
			case <-signalCtx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
				defer shutdownCancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
	return cmd
}
