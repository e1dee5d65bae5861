package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tui"
)

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Long:  `Count completed, pending and overdue tasks over the whole board, ignoring every filter.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			all, err := s.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			stats := projection.ComputeStats(all, a.env(cfg, nil))
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Total:     %d\n", stats.Total)
			fmt.Fprintf(out, "Completed: %s\n", tui.StatusDoneStyle.Render(fmt.Sprint(stats.Completed)))
			fmt.Fprintf(out, "Pending:   %d\n", stats.Pending)
			overdue := fmt.Sprint(stats.Overdue)
			if stats.Overdue > 0 {
				overdue = tui.OverdueStyle.Render(overdue)
			}
			fmt.Fprintf(out, "Overdue:   %s\n", overdue)
			fmt.Fprintf(out, "Done:      %d%%\n", stats.CompletionRate)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")

	return cmd
}
