package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/config"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/services"
)

type indexOp func(ctx context.Context, o *orchestrator.Orchestrator) (any, error)

func newIndexCmd(configDir *string, out io.Writer) *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "Run one index maintenance operation and exit",
	}

	run := func(op indexOp) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return runIndexOp(cmd.Context(), *configDir, out, op)
		}
	}

	index.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the index status and queue depth",
		RunE: run(func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
			status, err := o.GetStatus(ctx)
			if err != nil {
				return nil, err
			}
			depth, err := o.QueueDepth(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"status": status, "queue": depth}, nil
		}),
	})

	index.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Start rebuilding the inactive index",
		RunE: run(func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
			return o.PrepareIndexForRebuild(ctx)
		}),
	})

	var ignoreThreshold bool
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Mark the building index complete and switch to it",
		RunE: run(func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
			return o.MarkIndexingComplete(ctx, ignoreThreshold)
		}),
	}
	complete.Flags().BoolVar(&ignoreThreshold, "ignore-threshold", false, "Complete even if the document count is below the threshold")
	index.AddCommand(complete)

	var force bool
	switchCmd := &cobra.Command{
		Use:   "switch",
		Short: "Swap the current and other index",
		RunE: run(func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
			return o.SwitchIndex(ctx, force)
		}),
	}
	switchCmd.Flags().BoolVar(&force, "force", false, "Switch even if the other index is not complete")
	index.AddCommand(switchCmd)

	index.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running build and purge the queue",
		RunE: run(func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
			return o.CancelIndexing(ctx)
		}),
	})

	index.AddCommand(&cobra.Command{
		Use:   "update PRISONER_NUMBER",
		Short: "Re-synchronize one prisoner into the active indexes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexOp(cmd.Context(), *configDir, out, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
				return o.UpdatePrisoner(ctx, args[0])
			})
		},
	})

	return index
}

func runIndexOp(ctx context.Context, configDir string, out io.Writer, op indexOp) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	mgr := services.NewManager(cfg, services.Options{})
	defer mgr.Shutdown(context.Background())
	if err := mgr.Init(ctx); err != nil {
		return err
	}

	result, err := op(ctx, mgr.Orchestrator())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
