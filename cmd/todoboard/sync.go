package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/store"
	"github.com/Jayphen/todoboard/internal/tasks"
)

func newSyncCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a task store into a local SQLite database",
		Long: `Copy every task and team member from a store into a SQLite database.
Existing rows are updated in place, so a mirrored board keeps its order,
and tasks that no longer exist in the source are removed.
The source defaults to the configured store.`,
		Example: `  todoboard sync --from http:url=https://praxis.example.org,practice=42 --to sqlite:path=~/board.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := store.ParseSpec(to)
			if err != nil {
				return err
			}
			if target.Type != store.TypeSQLite || target.Config["path"] == "" {
				return fmt.Errorf("%w: --to must be a sqlite:path=… spec", tasks.ErrInvalidConfig)
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			if from != "" {
				a.storeSpec = &from
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			src, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := store.NewSQLiteStore(config.ExpandPath(target.Config["path"]))
			if err != nil {
				return err
			}
			defer dst.Close()

			all, members, err := fetch(ctx, src)
			if err != nil {
				return err
			}
			if err := dst.Upsert(ctx, all); err != nil {
				return fmt.Errorf("failed to write tasks: %w", err)
			}
			// An unreadable directory comes back empty; keep the mirrored one.
			if len(members) > 0 {
				if err := dst.UpsertMembers(ctx, members); err != nil {
					return fmt.Errorf("failed to write members: %w", err)
				}
			}

			logging.WithCommand("sync").WithFields(map[string]interface{}{
				"from":    src.Info().Name,
				"to":      target.String(),
				"tasks":   len(all),
				"members": len(members),
			}).Info("store mirrored")

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d task(s) and %d member(s) to %s\n", len(all), len(members), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source store spec (defaults to the configured store)")
	cmd.Flags().StringVar(&to, "to", "", "Target sqlite:path=… spec")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
