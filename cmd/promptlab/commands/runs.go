package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyumiimasha/promptlab-go/internal/runlog"
)

// NewRunsCmd constructs the `promptlab runs` subcommand, which prints the
// most recent call records from the run log, newest first.
func NewRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent call records from the run log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := runLogPath()
			if err != nil {
				return fmt.Errorf("runs: %w", err)
			}
			if path == "" {
				return fmt.Errorf("runs: run log is disabled in config")
			}

			store, err := runlog.Open(path)
			if err != nil {
				return fmt.Errorf("runs: failed to open run log: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("runs: failed to read run log: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			for _, r := range records {
				fmt.Printf("%s  %s/%s  %dms  est=%d",
					r.Timestamp.Format("2006-01-02 15:04:05"),
					r.Backend, r.Model, r.LatencyMS, r.TotalEst)
				if r.TotalTokensActual != nil {
					fmt.Printf("  actual=%d", *r.TotalTokensActual)
				}
				if r.RetryCount > 0 {
					fmt.Printf("  retries=%d", r.RetryCount)
				}
				if r.CostUSD != nil {
					fmt.Printf("  $%.6f", *r.CostUSD)
				}
				if r.Technique != "" {
					fmt.Printf("  [%s]", r.Technique)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")

	return cmd
}
