// Package tui implements the terminal board using Bubbletea.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// Color palette
var (
	ColorCyan    = lipgloss.Color("86")
	ColorGreen   = lipgloss.Color("78")
	ColorYellow  = lipgloss.Color("221")
	ColorRed     = lipgloss.Color("196")
	ColorMagenta = lipgloss.Color("213")
	ColorBlue    = lipgloss.Color("111")
	ColorGray    = lipgloss.Color("245")
	ColorDimGray = lipgloss.Color("239")
)

// Priority colors
var PriorityColors = map[tasks.Priority]lipgloss.Color{
	tasks.PriorityCritical: ColorMagenta,
	tasks.PriorityHigh:     ColorRed,
	tasks.PriorityMedium:   ColorYellow,
	tasks.PriorityLow:      ColorBlue,
}

// Status indicator styles
var (
	StatusOpenStyle       = lipgloss.NewStyle().Foreground(ColorGray)
	StatusInProgressStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	StatusDoneStyle       = lipgloss.NewStyle().Foreground(ColorGreen)
	StatusCancelledStyle  = lipgloss.NewStyle().Foreground(ColorDimGray)
)

// Common styles
var (
	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	// Subtitle/dim text
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	// Dim text style
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	// Completed task title
	CompletedStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray).
			Strikethrough(true)

	// Drop zone at rest
	ZoneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimGray).
			Padding(0, 1)

	// Drop zone under the dragged task
	ZoneActiveStyle = ZoneStyle.
			BorderForeground(ColorCyan)

	// Help key style
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// Status message style
	StatusMsgStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Warning style
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	// Overdue due date
	OverdueStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)
)

// Status indicators
const (
	IndicatorOpen       = "○"
	IndicatorInProgress = "◐"
	IndicatorDone       = "✓"
	IndicatorCancelled  = "✗"
	IndicatorSelected   = "❯"
	IndicatorDragged    = "✥"
	IndicatorDropSlot   = "┈┈▶"
	IndicatorRecurring  = "↻"
	IndicatorAttachment = "📎"
)

// GetPriorityStyle returns the style for a priority.
func GetPriorityStyle(p tasks.Priority) lipgloss.Style {
	color, ok := PriorityColors[p]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color)
}

// StatusIndicator returns the styled glyph for a status.
func StatusIndicator(s tasks.Status) string {
	switch s {
	case tasks.StatusInProgress:
		return StatusInProgressStyle.Render(IndicatorInProgress)
	case tasks.StatusDone:
		return StatusDoneStyle.Render(IndicatorDone)
	case tasks.StatusCancelled:
		return StatusCancelledStyle.Render(IndicatorCancelled)
	}
	return StatusOpenStyle.Render(IndicatorOpen)
}
