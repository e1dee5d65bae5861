package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change a task's status",
		Long: `Change a task's status. STATUS is one of open, in_progress, done or
cancelled (offen, in_bearbeitung, erledigt and abgebrochen are accepted too).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := tasks.ParseStatus(args[1])
			if err != nil {
				return err
			}

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

			_, err = a.dispatcher(cmd, cfg, s).ChangeStatus(ctx, args[0], status)
			return err
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	var (
		priority  string
		urgent    bool
		important bool
	)

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a task to a kanban column or matrix quadrant",
		Long: `Move a task to another kanban column (--priority) or matrix quadrant
(--urgent/--important). Moving to the column a task is already in sends
nothing; a quadrant move is always sent.`,
		Example: `  todoboard move 42 --priority high
  todoboard move 42 --urgent --important=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			byPriority := cmd.Flags().Changed("priority")
			byQuadrant := cmd.Flags().Changed("urgent") || cmd.Flags().Changed("important")
			if byPriority == byQuadrant {
				return fmt.Errorf("%w: use either --priority or --urgent/--important", tasks.ErrValidation)
			}

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

			d := a.dispatcher(cmd, cfg, s)

			if byQuadrant {
				_, err := d.ReassignQuadrant(ctx, args[0], projection.Quadrant{Urgent: urgent, Important: important})
				return err
			}

			p, err := tasks.ParsePriority(priority)
			if err != nil {
				return err
			}
			if !p.Known() {
				return fmt.Errorf("%w: %s is not a kanban column", tasks.ErrValidation, p)
			}
			t, err := findTask(ctx, s, args[0])
			if err != nil {
				return err
			}
			sent, err := d.ReassignPriority(ctx, t, p)
			if err == nil && !sent {
				fmt.Fprintf(cmd.OutOrStdout(), "Task already has %s priority\n", p)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Target column: high, medium, low")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "Target quadrant is urgent")
	cmd.Flags().BoolVar(&important, "important", false, "Target quadrant is important")

	return cmd
}

func newReorderCmd(a *app) *cobra.Command {
	var renumber bool

	cmd := &cobra.Command{
		Use:   "reorder ID INDEX",
		Short: "Set a task's manual order",
		Long: `Set a task's position for the manual sort. With --renumber the task is
moved within the manually sorted visible list and every task whose position
changes is renumbered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("%w: INDEX must be a non-negative integer", tasks.ErrValidation)
			}

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

			d := a.dispatcher(cmd, cfg, s)

			if !renumber {
				_, err := d.ReorderManual(ctx, args[0], index)
				return err
			}

			all, members, err := fetch(ctx, s)
			if err != nil {
				return err
			}
			pc := cfg.ProjectionConfig()
			pc.Sort = projection.SortConfig{By: projection.SortManual, Order: projection.Asc}
			visible := projection.Visible(all, pc, a.env(cfg, members))

			from := -1
			for i, t := range visible {
				if t.ID == args[0] {
					from = i
					break
				}
			}
			if from < 0 {
				return fmt.Errorf("%w: %s is not visible", tasks.ErrTaskNotFound, args[0])
			}
			return d.ReorderList(ctx, visible, from, index)
		},
	}

	cmd.Flags().BoolVar(&renumber, "renumber", false, "Renumber every visible task after the move")

	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a task's title, description or due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u tasks.TaskUpdate
			if cmd.Flags().Changed("title") {
				u.Title = &title
			}
			if cmd.Flags().Changed("description") {
				u.Description = &description
			}
			if cmd.Flags().Changed("due") {
				d, err := time.ParseInLocation("2006-01-02", due, time.Local)
				if err != nil {
					return fmt.Errorf("%w: --due must be YYYY-MM-DD", tasks.ErrValidation)
				}
				u.DueDate = &d
			}

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

			_, err = a.dispatcher(cmd, cfg, s).Edit(ctx, args[0], u)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task after confirmation",
		Args:  cobra.ExactArgs(1),
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

			pending := a.dispatcher(cmd, cfg, s).RequestDelete(args[0])

			if !yes {
				label := args[0]
				if t, err := findTask(ctx, s, args[0]); err == nil {
					label = t.Title
				} else if errors.Is(err, tasks.ErrTaskNotFound) {
					pending.Cancel()
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %q? [y/N] ", label)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if reply := strings.ToLower(strings.TrimSpace(answer)); reply != "y" && reply != "yes" {
					pending.Cancel()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			return pending.Confirm(ctx)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
