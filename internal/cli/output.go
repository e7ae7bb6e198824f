package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOutputCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "output",
		Short: "View captured job output",
	}
	cmd.AddCommand(newOutputGetCmd())
	return cmd
}

func newOutputGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show stdout, stderr, and exit code from a job's last execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := shared.service.GetOutput(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Job: %s\n", out.JobID)
			if out.ExitCode != nil {
				fmt.Fprintf(w, "Exit code: %d\n", *out.ExitCode)
			}
			if out.CompletedAt != nil {
				fmt.Fprintf(w, "Completed at: %s\n", out.CompletedAt.Format(time.RFC3339))
			}
			if out.Stdout != "" {
				fmt.Fprintf(w, "\nSTDOUT:\n%s", out.Stdout)
			}
			if out.Stderr != "" {
				fmt.Fprintf(w, "\nSTDERR:\n%s", out.Stderr)
			}
			if out.Stdout == "" && out.Stderr == "" {
				fmt.Fprintln(w, "No output captured.")
			}
			return nil
		},
	}
}
