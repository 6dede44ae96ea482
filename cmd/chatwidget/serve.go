package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"LLMChatbot/internal/host"
	"LLMChatbot/internal/hostbridge"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose widgets to remote hosts over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bridge, err := hostbridge.NewServer(func() host.Lifecycle {
				w := host.NewAdapter(a.client, host.Options{
					Timeout: a.cfg.Timeout,
					Logger:  a.logger,
				})
				a.logger.Debug("widget created", "widget_id", w.ID())
				return w
			}, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create host bridge: %w", err)
			}

			server := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           bridge.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				<-ctx.Done()
				a.logger.Info("shutting down host bridge")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				return nil
			})

			eg.Go(func() error {
				a.logger.Info("starting host bridge", "addr", server.Addr)
				fmt.Fprintf(cmd.OutOrStdout(), "Host bridge listening on ws://%s/widget\n", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server listen: %w", err)
				}
				return nil
			})

			return eg.Wait()
		},
	}
}
