package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jayphen/todoboard/internal/redis"
)

func newViewsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved board views",
		Long: `Save, inspect and delete named board configurations (filter, sort and
view). Saved views live in Redis and can be used with 'todoboard list --saved'.`,
	}

	cmd.AddCommand(
		newViewsSaveCmd(a),
		newViewsShowCmd(a),
		newViewsListCmd(a),
		newViewsDeleteCmd(a),
	)

	return cmd
}

// withRedis runs fn against the configured Redis.
func (a *app) withRedis(cmd *cobra.Command, fn func(ctx context.Context, rc *redis.Client) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	rc, err := a.redis(cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, rc)
}

func newViewsSaveCmd(a *app) *cobra.Command {
	var flags boardFlags

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save the board configuration under a name",
		Long: `Save the default board configuration, adjusted by the given flags,
under NAME. An existing view with that name is replaced.`,
		Example: `  todoboard views save urgent --view matrix --sort dueDate --order asc`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			pc, err := flags.apply(cmd, cfg.ProjectionConfig())
			if err != nil {
				return err
			}

			return a.withRedis(cmd, func(ctx context.Context, rc *redis.Client) error {
				sv, err := rc.SaveView(ctx, args[0], pc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved view %q (%s, sorted by %s %s)\n",
					sv.Name, sv.Config.View, sv.Config.Sort.By, sv.Config.Sort.Order)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newViewsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a saved view as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRedis(cmd, func(ctx context.Context, rc *redis.Client) error {
				sv, err := rc.GetView(ctx, args[0])
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(sv)
			})
		},
	}
}

func newViewsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRedis(cmd, func(ctx context.Context, rc *redis.Client) error {
				views, err := rc.ListViews(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No saved views")
					return nil
				}
				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-20s %-8s %-24s %s", "NAME", "VIEW", "SORT", "SAVED")))
				for _, v := range views {
					fmt.Fprintf(out, "%-20s %-8s %-24s %s\n",
						v.Name,
						v.Config.View,
						fmt.Sprintf("%s %s", v.Config.Sort.By, v.Config.Sort.Order),
						time.UnixMilli(v.SavedAt).Format("2006-01-02 15:04"),
					)
				}
				return nil
			})
		},
	}
}

func newViewsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRedis(cmd, func(ctx context.Context, rc *redis.Client) error {
				err := rc.DeleteView(ctx, args[0])
				if errors.Is(err, redis.ErrViewNotFound) {
					return fmt.Errorf("no saved view named %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted view %q\n", args[0])
				return nil
			})
		},
	}
}
