package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const commandColumnWidth = 40

func newListCmd() *cobra.Command {
	var (
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := shared.service.ListJobs(cmd.Context(), state, limit)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "State", "Priority", "Attempts", "Command", "Run At", "Retry At"})
			table.SetAutoWrapText(false)

			for _, j := range jobs {
				table.Append([]string{
					j.ID,
					j.State,
					strconv.Itoa(j.Priority),
					strconv.Itoa(j.Attempts),
					clip(j.Command, commandColumnWidth),
					formatTime(j.RunAt),
					formatTime(j.RetryAt),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "filter by state (pending/processing/completed/dead)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of jobs to list")
	return cmd
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
