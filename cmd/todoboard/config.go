package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/redis"
	"github.com/Jayphen/todoboard/internal/store"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage todoboard configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration values from all sources.`,
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/todoboard/config.yaml.

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  store:            %s\n", displayStore(cfg.Store))
	fmt.Fprintf(out, "  api_token:        %s\n", maskSecret(cfg.APIToken))
	reach := "unreachable"
	if redis.IsAvailable(cfg.RedisURL) {
		reach = "reachable"
	}
	fmt.Fprintf(out, "  redis_url:        %s (%s)\n", cfg.RedisURL, reach)
	fmt.Fprintf(out, "  locale:           %s\n", cfg.Tag())
	fmt.Fprintf(out, "  created_at_order: %s\n", cfg.CreatedAtOrder)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Board:")
	fmt.Fprintf(out, "    view:           %s\n", cfg.Board.View)
	fmt.Fprintf(out, "    sort_by:        %s\n", cfg.Board.SortBy)
	fmt.Fprintf(out, "    sort_order:     %s\n", cfg.Board.SortOrder)
	fmt.Fprintf(out, "    show_completed: %t\n", cfg.Board.ShowCompleted)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  notifications.os: %t\n", cfg.Notifications.OS)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Logging:")
	fmt.Fprintf(out, "    level:          %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "    file:           %s\n", valueOrDefault(cfg.Logging.FilePath, "(stderr)"))

	return nil
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "todoboard", "config.yaml")

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.WriteExample(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at: %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit this file to customize your settings.")
	fmt.Fprintln(out, "Run 'todoboard config show' to see current values.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration file search paths (in priority order):")
	fmt.Fprintln(out)

	paths := config.ConfigPaths()
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, p, exists)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables can override file settings.")
	fmt.Fprintln(out, "Supported env vars:")
	for _, v := range []string{
		"TODOBOARD_STORE",
		"TODOBOARD_API_TOKEN",
		"TODOBOARD_REDIS_URL (or REDIS_URL)",
		"TODOBOARD_LOCALE",
		"TODOBOARD_CREATED_AT_ORDER",
		"TODOBOARD_VIEW",
		"TODOBOARD_SORT_BY",
		"TODOBOARD_SORT_ORDER",
		"TODOBOARD_SHOW_COMPLETED",
		"TODOBOARD_OS_NOTIFICATIONS",
		"TODOBOARD_LOG_LEVEL",
		"TODOBOARD_LOG_FILE",
		"TODOBOARD_LOG_MAX_SIZE",
	} {
		fmt.Fprintf(out, "  %s\n", v)
	}

	return nil
}

// displayStore renders a store spec with any inline token removed.
func displayStore(spec string) string {
	s, err := store.ParseSpec(spec)
	if err != nil {
		return spec
	}
	return s.String()
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func maskSecret(val string) string {
	if val == "" {
		return "(not set)"
	}
	if len(val) <= 8 {
		return "***"
	}
	return val[:4] + "..." + val[len(val)-4:]
}
