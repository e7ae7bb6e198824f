package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshu-sajeev/queuectl/internal/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts per state and active worker PIDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := shared.service.QueueStatus(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"State", "Count"})
			for _, state := range config.AllStates {
				table.Append([]string{state, strconv.FormatInt(status.Counts[state], 10)})
			}
			table.Render()

			if len(status.Workers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active workers.")
				return nil
			}

			pids := make([]string, len(status.Workers))
			for i, pid := range status.Workers {
				pids[i] = strconv.Itoa(pid)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active workers: %s\n", strings.Join(pids, ", "))
			return nil
		},
	}
}
