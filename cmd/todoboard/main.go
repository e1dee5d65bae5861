// Package main is the entry point for the todoboard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	// Initialize logging from config
	initLogging()

	err := newRootCmd().Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storeSpec string

	rootCmd := &cobra.Command{
		Use:   "todoboard",
		Short: "Filter, sort and rearrange a task board",
		Long: `Todoboard is a CLI for a practice task board.

It lists tasks as a list, a kanban board by priority or an
urgency/importance matrix, and sends status, priority, quadrant and order
changes back to the task store (HTTP API, SQLite or Google Tasks).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&storeSpec, "store", "", "Task store spec (overrides config), e.g. sqlite:path=board.db")

	app := &app{storeSpec: &storeSpec}

	rootCmd.AddCommand(
		newListCmd(app),
		newStatusCmd(app),
		newMoveCmd(app),
		newReorderCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newStatsCmd(app),
		newViewsCmd(app),
		newSyncCmd(app),
		newTUICmd(app),
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// initLogging initializes the logger from config.
func initLogging() {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(nil)
		return
	}

	// Convert config.LoggingConfig to logging.LoggingConfig
	lc := logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		FilePath:   config.ExpandPath(cfg.Logging.FilePath),
		JSON:       cfg.Logging.JSON,
		Console:    cfg.Logging.Console,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	if err := logging.InitFromLogConfig(lc); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
	}
}
