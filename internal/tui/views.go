package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Jayphen/todoboard/internal/dispatch"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/redis"
	"github.com/Jayphen/todoboard/internal/tasks"
)

const (
	defaultWidth  = 100
	minColumnWide = 24
	ellipsis      = "…"
)

var quadrantTitles = map[projection.Quadrant]string{
	{Urgent: true, Important: true}:   "Urgent · Important",
	{Urgent: false, Important: true}:  "Important",
	{Urgent: true, Important: false}:  "Urgent",
	{Urgent: false, Important: false}: "Neither",
}

// renderHeader renders the application header.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("Todoboard")
	version := ""
	if m.version != "" {
		version = " " + SubtitleStyle.Render("v"+m.version)
	}

	var tabs []string
	for i, v := range projection.Views {
		label := fmt.Sprintf("%d %s", i+1, v)
		if v == m.proj.View {
			tabs = append(tabs, SelectedStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, DimStyle.Render(" "+label+" "))
		}
	}

	source := SubtitleStyle.Render(m.storeName)
	if m.offline {
		style := WarningStyle
		if m.freshness == redis.FreshnessExpired {
			style = ErrorStyle
		}
		source += " " + style.Render("(offline snapshot, "+formatAge(m.fetchedAt, m.now())+")")
	}

	return title + version + "  " + strings.Join(tabs, " ") + "\n" + source
}

// renderConfirmDialog renders the delete confirmation dialog.
func (m Model) renderConfirmDialog() string {
	title := m.pending.TaskID()
	if t, ok := tasks.Find(m.tasks, m.pending.TaskID()); ok {
		title = t.Title
	}
	msg := fmt.Sprintf("Delete %q? (y/n)", ansi.Truncate(title, 40, ellipsis))

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(1, 2).
		Foreground(ColorYellow)

	return style.Render(msg)
}

// renderSearchPrompt renders the search input.
func (m Model) renderSearchPrompt() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorCyan).
		Padding(0, 1)

	return style.Render(DimStyle.Render("Search: ") + m.searchInput.View() + "\n" +
		DimStyle.Render("Enter to apply, Esc to clear"))
}

// renderBoard renders the current view.
func (m Model) renderBoard() string {
	if m.loading && len(m.tasks) == 0 {
		return m.spinner.View() + " Loading tasks..."
	}

	if len(m.proj.List) == 0 {
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(1, 2).
			Foreground(ColorGray)
		if len(m.tasks) == 0 {
			return style.Render("No tasks yet")
		}
		return style.Render("No tasks match the current filter")
	}

	switch m.proj.View {
	case projection.ViewKanban:
		return m.renderKanban()
	case projection.ViewMatrix:
		return m.renderMatrix()
	}
	return m.renderList()
}

func (m Model) renderList() string {
	state := m.board.State()
	zone, highlighted := state.Highlighted()
	width := m.contentWidth()

	var b strings.Builder
	for i, t := range m.proj.List {
		if highlighted && zone.Kind == dispatch.ZoneListSlot && zone.Index == i {
			b.WriteString(SelectedStyle.Render(IndicatorDropSlot + fmt.Sprintf(" drop at %d", i)))
			b.WriteString("\n")
		}
		b.WriteString(m.renderTaskRow(t, width))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderKanban() string {
	k := m.proj.Kanban
	width := m.columnWidth(len(tasks.Priorities))

	var cols []string
	for _, p := range tasks.Priorities {
		title := GetPriorityStyle(p).Bold(true).Render(fmt.Sprintf("%s (%d)", p, len(k.Column(p))))
		cols = append(cols, m.renderZone(dispatch.ColumnZone(p), title, k.Column(p), width))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if n := len(k.Unclassified); n > 0 {
		out += "\n" + WarningStyle.Render(fmt.Sprintf("%d task(s) with an unknown priority are not shown", n))
	}
	return out
}

func (m Model) renderMatrix() string {
	mb := m.proj.Matrix
	width := m.columnWidth(2)

	cells := make([]string, len(projection.Quadrants))
	for i, q := range projection.Quadrants {
		title := quadrantTitle(quadrantTitles[q], q)
		cells[i] = m.renderZone(dispatch.QuadrantZone(q), title, mb.Cell(q), width)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, cells[0], cells[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, cells[2], cells[3])
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// quadrantTitle renders a matrix cell title, red for the urgent and important cell.
func quadrantTitle(title string, q projection.Quadrant) string {
	style := lipgloss.NewStyle().Bold(true)
	switch {
	case q.Urgent && q.Important:
		style = style.Foreground(ColorRed)
	case q.Important:
		style = style.Foreground(ColorYellow)
	case q.Urgent:
		style = style.Foreground(ColorBlue)
	default:
		style = style.Foreground(ColorGray)
	}
	return style.Render(title)
}

// renderZone renders a bordered drop zone with its tasks.
func (m Model) renderZone(z dispatch.Zone, title string, items []tasks.Task, width int) string {
	style := ZoneStyle
	if hz, ok := m.board.State().Highlighted(); ok && hz == z {
		style = ZoneActiveStyle
	}

	inner := width - style.GetHorizontalFrameSize()
	var b strings.Builder
	b.WriteString(title)
	for _, t := range items {
		b.WriteString("\n")
		b.WriteString(m.renderTaskRow(t, inner))
	}
	if len(items) == 0 {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("empty"))
	}
	return style.Width(inner + style.GetHorizontalPadding()).Render(b.String())
}

// renderTaskRow renders a single task line truncated to width cells.
func (m Model) renderTaskRow(t tasks.Task, width int) string {
	sel, _ := m.selectedTask()
	isSelected := sel.ID == t.ID && len(m.proj.List) > 0
	state := m.board.State()

	selector := "  "
	switch {
	case state.Phase != dispatch.PhaseIdle && state.TaskID == t.ID:
		selector = SelectedStyle.Render(IndicatorDragged + " ")
	case isSelected:
		selector = SelectedStyle.Render(IndicatorSelected + " ")
	}

	status := tasks.EffectiveStatus(t)
	marker := StatusIndicator(status)

	var badges []string
	if m.proj.View != projection.ViewKanban {
		badges = append(badges, GetPriorityStyle(t.Priority).Render(priorityBadge(t.Priority)))
	}
	if t.Urgent {
		badges = append(badges, OverdueStyle.Render("!"))
	}
	if t.Recurrence != "" && t.Recurrence != tasks.RecurrenceNone {
		badges = append(badges, DimStyle.Render(IndicatorRecurring))
	}
	if len(t.Attachments) > 0 {
		badges = append(badges, DimStyle.Render(fmt.Sprintf("%s%d", IndicatorAttachment, len(t.Attachments))))
	}

	suffix := m.dueLabel(t)
	if names := m.assigneeLabel(t); names != "" {
		if suffix != "" {
			suffix += " "
		}
		suffix += DimStyle.Render(names)
	}

	prefix := selector + marker + " "
	if len(badges) > 0 {
		prefix += strings.Join(badges, " ") + " "
	}

	room := width - ansi.StringWidth(prefix)
	if suffix != "" {
		room -= ansi.StringWidth(suffix) + 1
	}
	title := ansi.Truncate(t.Title, max(room, 4), ellipsis)

	switch {
	case status == tasks.StatusDone || status == tasks.StatusCancelled:
		title = CompletedStyle.Render(title)
	case isSelected:
		title = SelectedStyle.Render(title)
	}

	row := prefix + title
	if suffix != "" {
		row += " " + suffix
	}
	return ansi.Truncate(row, width, "")
}

func priorityBadge(p tasks.Priority) string {
	switch p {
	case tasks.PriorityHigh:
		return "H"
	case tasks.PriorityMedium:
		return "M"
	case tasks.PriorityLow:
		return "L"
	}
	return "?"
}

// dueLabel renders "due today", "in 3d" or "2d late".
func (m Model) dueLabel(t tasks.Task) string {
	days := tasks.DaysUntilDue(t, m.now())
	if days == nil {
		return ""
	}
	if tasks.IsOverdue(t, m.now()) {
		late := -*days
		if late <= 0 {
			return OverdueStyle.Render("overdue")
		}
		return OverdueStyle.Render(fmt.Sprintf("%dd late", late))
	}
	switch *days {
	case 0:
		return WarningStyle.Render("due today")
	case 1:
		return WarningStyle.Render("due tomorrow")
	}
	return DimStyle.Render(fmt.Sprintf("in %dd", *days))
}

func (m Model) assigneeLabel(t tasks.Task) string {
	if len(t.AssigneeIDs) == 0 {
		return ""
	}
	idx := tasks.NewMemberIndex(m.members)
	names := make([]string, 0, len(t.AssigneeIDs))
	for _, id := range t.AssigneeIDs {
		if mem, ok := idx.Member(id); ok {
			names = append(names, mem.Label())
		} else {
			names = append(names, id)
		}
	}
	return "@" + strings.Join(names, ",")
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	// Padding(1) on the outer frame
	return max(m.width-2, minColumnWide)
}

func (m Model) columnWidth(n int) int {
	return max(m.contentWidth()/n, minColumnWide)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	stats := projection.ComputeStats(m.tasks, projection.Env{Now: m.now()})
	cfg := m.board.Config()

	counts := DimStyle.Render(fmt.Sprintf("%d/%d shown, %d done (%d%%)",
		len(m.proj.List), stats.Total, stats.Completed, stats.CompletionRate))
	if stats.Overdue > 0 {
		counts += DimStyle.Render(", ") + OverdueStyle.Render(fmt.Sprintf("%d overdue", stats.Overdue))
	}

	var flags []string
	flags = append(flags, fmt.Sprintf("sort %s %s", cfg.Sort.By, cfg.Sort.Order))
	if cfg.Filter.ShowCompleted {
		flags = append(flags, "completed")
	}
	if cfg.Filter.ShowOverdueOnly {
		flags = append(flags, "overdue only")
	}
	if cfg.Filter.Search != "" {
		flags = append(flags, fmt.Sprintf("search %q", cfg.Filter.Search))
	}
	settings := DimStyle.Render(strings.Join(flags, " · "))

	var help []string
	if m.dragging() {
		help = []string{
			HelpKeyStyle.Render("←→↑↓") + " target",
			HelpKeyStyle.Render("↵") + " drop",
			HelpKeyStyle.Render("esc") + " cancel",
		}
	} else {
		help = []string{
			HelpKeyStyle.Render("↑↓/jk") + " nav",
			HelpKeyStyle.Render("1-3") + " view",
			HelpKeyStyle.Render("space") + " move",
			HelpKeyStyle.Render("t") + " status",
			HelpKeyStyle.Render("x") + " delete",
			HelpKeyStyle.Render("/") + " search",
			HelpKeyStyle.Render("s/o") + " sort",
			HelpKeyStyle.Render("c/d") + " filter",
			HelpKeyStyle.Render("r") + " refresh",
			HelpKeyStyle.Render("q") + " quit",
		}
	}
	helpLine := DimStyle.Render(strings.Join(help, "  "))

	sep := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(ColorGray).
		PaddingTop(1)

	var b strings.Builder
	if m.statusMessage != "" && m.pending == nil {
		b.WriteString(StatusMsgStyle.Render(m.statusMessage))
		b.WriteString("\n")
	}
	b.WriteString(counts)
	b.WriteString("  ")
	b.WriteString(settings)
	b.WriteString("\n")
	b.WriteString(helpLine)

	return sep.Render(b.String())
}

// formatAge formats a time as a human-readable age string.
func formatAge(t, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
