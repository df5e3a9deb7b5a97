// File: cmd/report.go
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newReportCmd creates the `report` command, which fetches a recorded run
// from the database and prints it as JSON.
func newReportCmd() *cobra.Command {
	return newReportCmdWithProvider(NewStoreProvider())
}

func newReportCmdWithProvider(provider runStoreProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print the stored report for a previous run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := args[0]

			runs, cleanup, err := provider.Create(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := runs.GetRun(ctx, runID)
			if err != nil {
				return fmt.Errorf("failed to fetch run %q: %w", runID, err)
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
