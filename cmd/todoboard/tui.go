package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/notify"
	"github.com/Jayphen/todoboard/internal/redis"
	"github.com/Jayphen/todoboard/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var saved string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive board",
		Long: `Launch the interactive board. Tasks are picked up with space, moved
between columns, quadrants or list slots with the arrow keys and dropped
with enter. When Redis is reachable the last fetch is kept as an offline
snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log := logging.WithCommand("tui")

			s, err := a.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			var cache *redis.Client
			if rc, err := redis.NewClient(cfg.RedisURL); err == nil {
				cache = rc
				defer rc.Close()
			} else {
				log.WithError(err).Debug("redis unavailable, running without snapshots")
			}

			pc := cfg.ProjectionConfig()
			if saved != "" {
				if cache == nil {
					return fmt.Errorf("saved views need Redis at %s", cfg.RedisURL)
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
				sv, err := cache.GetView(ctx, saved)
				cancel()
				if err != nil {
					return err
				}
				pc = sv.Config
			}

			var n notify.Notifier
			if cfg.Notifications.OS {
				n = notify.OSNotifier{}
			}

			model := tui.NewModel(tui.Options{
				Store:     s,
				StoreName: a.storeKey(cfg),
				Notifier:  n,
				Cache:     cache,
				Config:    pc,
				Locale:    cfg.Tag(),
				Version:   Version,
				Log:       log,
			})

			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&saved, "saved", "", "Start from a saved view")

	return cmd
}
