package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
	"github.com/Jayphen/todoboard/internal/tui"
)

// boardFlags are the projection flags shared by list and views save.
type boardFlags struct {
	view       string
	status     string
	search     string
	priorities []string
	assignees  []string
	completed  bool
	overdue    bool
	sortBy     string
	order      string
}

func (f *boardFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.view, "view", "", "View: list, kanban, matrix")
	fl.StringVar(&f.status, "status", "", "Status filter: all, open, in_progress, done, cancelled")
	fl.StringVar(&f.search, "search", "", "Case-insensitive title/description search")
	fl.StringSliceVar(&f.priorities, "priority", nil, "Priorities to include (high, medium, low, critical)")
	fl.StringSliceVar(&f.assignees, "assignee", nil, "Assignee display names or emails to include")
	fl.BoolVar(&f.completed, "completed", false, "Include completed tasks")
	fl.BoolVar(&f.overdue, "overdue", false, "Only overdue tasks")
	fl.StringVar(&f.sortBy, "sort", "", "Sort key: createdAt, priority, dueDate, title, assignedToCount, manual")
	fl.StringVar(&f.order, "order", "", "Sort order: asc, desc")
}

// apply overrides cfg with every flag the user set explicitly.
func (f *boardFlags) apply(cmd *cobra.Command, cfg projection.Config) (projection.Config, error) {
	changed := cmd.Flags().Changed

	if changed("view") {
		v, err := projection.ParseView(f.view)
		if err != nil {
			return cfg, err
		}
		cfg.View = v
	}
	if changed("status") {
		s, err := projection.ParseStatusFilter(f.status)
		if err != nil {
			return cfg, err
		}
		cfg.Filter.Status = s
	}
	if changed("search") {
		cfg.Filter.Search = f.search
	}
	if changed("priority") {
		cfg.Filter.Priorities = nil
		for _, p := range f.priorities {
			pr, err := tasks.ParsePriority(p)
			if err != nil {
				return cfg, err
			}
			cfg.Filter.Priorities = append(cfg.Filter.Priorities, pr)
		}
	}
	if changed("assignee") {
		cfg.Filter.Assignees = f.assignees
	}
	if changed("completed") {
		cfg.Filter.ShowCompleted = f.completed
	}
	if changed("overdue") {
		cfg.Filter.ShowOverdueOnly = f.overdue
	}
	if changed("sort") {
		k, err := projection.ParseSortKey(f.sortBy)
		if err != nil {
			return cfg, err
		}
		cfg.Sort.By = k
	}
	if changed("order") {
		o, err := projection.ParseSortOrder(f.order)
		if err != nil {
			return cfg, err
		}
		cfg.Sort.Order = o
	}

	return cfg, cfg.Validate()
}

func newListCmd(a *app) *cobra.Command {
	var (
		flags   boardFlags
		asJSON  bool
		savedAs string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List the board's tasks filtered, sorted and grouped for a view.

Defaults come from the board section of the config file. A saved view
(--saved) replaces the defaults; explicit flags still win over both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			pc := cfg.ProjectionConfig()
			if savedAs != "" {
				rc, err := a.redis(cfg)
				if err != nil {
					return err
				}
				defer rc.Close()
				sv, err := rc.GetView(ctx, savedAs)
				if err != nil {
					return err
				}
				pc = sv.Config
			}
			pc, err = flags.apply(cmd, pc)
			if err != nil {
				return err
			}

			s, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			all, members, err := fetch(ctx, s)
			if err != nil {
				return err
			}

			proj := projection.Run(all, pc, a.env(cfg, members))
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := json.MarshalIndent(proj, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			printProjection(out, proj, tasks.NewMemberIndex(members), a.clock())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().StringVar(&savedAs, "saved", "", "Start from a saved view")

	return cmd
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorGray)
	sectionStyle = lipgloss.NewStyle().Bold(true)
)

const titleWidth = 40

func printProjection(w io.Writer, proj projection.Projection, members tasks.MemberLookup, now time.Time) {
	if len(proj.List) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}

	switch proj.View {
	case projection.ViewKanban:
		for _, p := range tasks.Priorities {
			printSection(w, tui.GetPriorityStyle(p).Bold(true).Render(string(p)), proj.Kanban.Column(p), members, now)
		}
		if len(proj.Kanban.Unclassified) > 0 {
			printSection(w, tui.WarningStyle.Render("unknown priority"), proj.Kanban.Unclassified, members, now)
		}
	case projection.ViewMatrix:
		for _, q := range projection.Quadrants {
			printSection(w, sectionStyle.Render(quadrantName(q)), proj.Matrix.Cell(q), members, now)
		}
	default:
		printTaskTable(w, proj.List, members, now)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d task(s)\n", len(proj.List))
}

func printSection(w io.Writer, title string, items []tasks.Task, members tasks.MemberLookup, now time.Time) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(items))
	if len(items) > 0 {
		printTaskTable(w, items, members, now)
	}
	fmt.Fprintln(w)
}

func printTaskTable(w io.Writer, items []tasks.Task, members tasks.MemberLookup, now time.Time) {
	header := fmt.Sprintf("%-10s %-3s %-8s %-*s %-12s %s", "ID", "", "PRIORITY", titleWidth, "TITLE", "DUE", "ASSIGNED")
	fmt.Fprintln(w, headerStyle.Render(header))
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, t := range items {
		id := ansi.Truncate(t.ID, 10, "")
		title := ansi.Truncate(t.Title, titleWidth, "…")
		priority := tui.GetPriorityStyle(t.Priority).Render(fmt.Sprintf("%-8s", t.Priority))

		fmt.Fprintf(w, "%-10s %s   %s %s %-12s %s\n",
			id,
			tui.StatusIndicator(tasks.EffectiveStatus(t)),
			priority,
			title+strings.Repeat(" ", max(0, titleWidth-ansi.StringWidth(title))),
			dueText(t, now),
			assigneeNames(t, members),
		)
	}
}

func dueText(t tasks.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	if tasks.IsOverdue(t, now) {
		return "overdue"
	}
	return t.DueDate.Format("2006-01-02")
}

func assigneeNames(t tasks.Task, members tasks.MemberLookup) string {
	if len(t.AssigneeIDs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(t.AssigneeIDs))
	for _, id := range t.AssigneeIDs {
		if m, ok := members.Member(id); ok {
			names = append(names, m.Label())
		} else {
			names = append(names, id)
		}
	}
	return strings.Join(names, ", ")
}

func quadrantName(q projection.Quadrant) string {
	urgent, important := "urgent", "important"
	if !q.Urgent {
		urgent = "not urgent"
	}
	if !q.Important {
		important = "not important"
	}
	return urgent + " / " + important
}
