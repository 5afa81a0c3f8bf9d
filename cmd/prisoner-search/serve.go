package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/config"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/logging"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/services"
)

func newServeCmd(configDir *string) *cobra.Command {
	var noAPI, noWorker, noListener bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the index worker, change listener and admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return err
			}
			if err := logging.Initialize(cfg.Logging); err != nil {
				return err
			}
			defer func() { _ = logging.Shutdown() }()

			return serve(cmd.Context(), cfg, services.Options{
				RunAPI:      !noAPI,
				RunWorker:   !noWorker,
				RunListener: !noListener,
			})
		},
	}
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "Do not start the admin HTTP server")
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "Do not consume the index queue")
	cmd.Flags().BoolVar(&noListener, "no-listener", false, "Do not consume change notifications")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, opts services.Options) error {
	slog.Info("Starting prisoner search",
		"api", opts.RunAPI, "worker", opts.RunWorker, "listener", opts.RunListener)

	mgr := services.NewManager(cfg, opts)

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mgr.Init(initCtx); err != nil {
		mgr.Shutdown(context.Background())
		return err
	}

	bgCtx, bgCancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer bgCancel()
	mgr.Start(bgCtx)

	<-bgCtx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()
	mgr.Shutdown(shutdownCtx)

	slog.Info("All services stopped")
	return nil
}
