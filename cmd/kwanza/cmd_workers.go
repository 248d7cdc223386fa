package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwanzatukule/marketplace/pkg/app"
)

var queueWorkersFlag int

// kwanza queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process background jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		workers := queueWorkersFlag
		if workers < 1 {
			workers = cfg.QueueWorkers()
		}
		if cfg.QueueDriver() != "redis" {
			a.Log.Warn("QUEUE_DRIVER is memory; this worker only sees jobs it dispatches itself")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		a.Queue.Start(ctx, workers)
		<-ctx.Done()
		a.Queue.Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "Queue worker stopped.")
		return nil
	},
}

// kwanza schedule:list
var scheduleListCmd = &cobra.Command{
	Use:   "schedule:list",
	Short: "List the maintenance tasks serve runs in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		tasks := a.Tasks.List()
		if len(tasks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scheduled tasks registered.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registered scheduled tasks:")
		for _, t := range tasks {
			fmt.Fprintf(cmd.OutOrStdout(), "  • %s\n", t)
		}
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "number of concurrent workers (default QUEUE_WORKERS)")
}
