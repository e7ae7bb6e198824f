package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshu-sajeev/queuectl/internal/dto"
)

// runAtLayouts accepts RFC3339 and the zoneless form operators tend to type.
var runAtLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func newEnqueueCmd() *cobra.Command {
	var (
		id       string
		command  string
		retries  int
		priority int
		runAt    string
	)

	cmd := &cobra.Command{
		Use:   "enqueue [job-json]",
		Short: "Enqueue a new job",
		Long: `Enqueue a new job with optional priority and scheduling.

Examples:
  queuectl enqueue '{"id":"job1","command":"sleep 2"}'
  queuectl enqueue --id job1 --command "echo hello"
  queuectl enqueue --command "echo urgent" --priority 10
  queuectl enqueue --command "echo later" --run-at "2026-08-07T15:30:00"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.EnqueueRequest

			if len(args) == 1 {
				if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
					return fmt.Errorf("invalid job JSON: %w", err)
				}
			} else {
				req.ID = id
				req.Command = command
				req.Priority = priority
				if cmd.Flags().Changed("retries") {
					req.MaxRetries = &retries
				}
				if runAt != "" {
					t, err := parseRunAt(runAt)
					if err != nil {
						return err
					}
					req.RunAt = &t
				}
			}

			resp, err := shared.service.EnqueueJob(cmd.Context(), &req)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("Job %s enqueued", resp.ID)
			if resp.Priority > 0 {
				msg += fmt.Sprintf(" (priority=%d)", resp.Priority)
			}
			if resp.RunAt != nil {
				msg += fmt.Sprintf(" (scheduled for %s)", resp.RunAt.Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "job id (autogenerated when omitted)")
	cmd.Flags().StringVar(&command, "command", "", "shell command to execute")
	cmd.Flags().IntVar(&retries, "retries", 0, "max retries after the first failure")
	cmd.Flags().IntVar(&priority, "priority", 0, "priority 0-10, higher is more urgent")
	cmd.Flags().StringVar(&runAt, "run-at", "", "earliest execution time (RFC3339, or local time as 2006-01-02T15:04:05)")
	return cmd
}

func parseRunAt(s string) (time.Time, error) {
	for _, layout := range runAtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --run-at value %q, want RFC3339 or 2006-01-02T15:04:05", s)
}
