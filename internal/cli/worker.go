package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshu-sajeev/queuectl/internal/executor"
	"github.com/joshu-sajeev/queuectl/internal/supervisor"
	"github.com/joshu-sajeev/queuectl/internal/worker"
)

const stopWait = 30 * time.Second

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage worker processes",
	}
	cmd.AddCommand(newWorkerStartCmd(), newWorkerStopCmd(), newWorkerRunCmd())
	return cmd
}

func newWorkerStartCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start worker processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be >= 1")
			}

			sup := supervisor.New(shared.settings.PIDFile, shared.log)
			pids, err := sup.StartWorkers(count)
			if err != nil {
				return err
			}

			for _, pid := range pids {
				fmt.Fprintf(cmd.OutOrStdout(), "Worker started with PID %d\n", pid)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of worker processes to start")
	return cmd
}

func newWorkerStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop all worker processes gracefully",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sup := supervisor.New(shared.settings.PIDFile, shared.log)
			signalled, running, err := sup.StopWorkers(stopWait)
			if err != nil {
				return err
			}

			if len(signalled) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No worker processes to stop.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %d worker(s).\n", len(signalled)-len(running))
			if len(running) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d worker(s) still finishing jobs: %v\n", len(running), running)
			}
			return nil
		},
	}
}

// newWorkerRunCmd is the hidden entry point for a single worker process; the
// supervisor spawns the binary with `worker run`.
func newWorkerRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "run",
		Short:  "Run a single worker in the foreground",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := worker.New(os.Getpid(), shared.repo, executor.Shell{}, shared.settings, shared.log)
			w.Run(ctx)
			return nil
		},
	}
}
