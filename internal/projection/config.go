// Package projection derives the filtered, sorted and grouped board views
// from a flat task collection. Every function here is pure: the same
// collection, configuration and environment always produce the same result.
package projection

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// StatusFilter selects tasks by effective status.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusOpen       StatusFilter = StatusFilter(tasks.StatusOpen)
	StatusInProgress StatusFilter = StatusFilter(tasks.StatusInProgress)
	StatusDone       StatusFilter = StatusFilter(tasks.StatusDone)
	StatusCancelled  StatusFilter = StatusFilter(tasks.StatusCancelled)
)

// SortKey names the field the board is ordered by.
type SortKey string

const (
	SortPriority        SortKey = "priority"
	SortDueDate         SortKey = "dueDate"
	SortTitle           SortKey = "title"
	SortCreatedAt       SortKey = "createdAt"
	SortAssignedToCount SortKey = "assignedToCount"
	SortManual          SortKey = "manual"
)

// SortKeys lists the keys in the order the UI cycles through them.
var SortKeys = []SortKey{SortCreatedAt, SortPriority, SortDueDate, SortTitle, SortAssignedToCount, SortManual}

// SortOrder is the direction toggle.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// CreatedAtMode controls how the createdAt key honours the direction toggle.
type CreatedAtMode string

const (
	// CreatedAtLegacy always orders newest first, ignoring the direction
	// toggle. This matches the behaviour the board has always shipped with.
	CreatedAtLegacy CreatedAtMode = "legacy"

	// CreatedAtChronological treats asc as oldest first like every other key.
	CreatedAtChronological CreatedAtMode = "chronological"
)

// View is the shape the board is rendered in.
type View string

const (
	ViewList   View = "list"
	ViewKanban View = "kanban"
	ViewMatrix View = "matrix"
)

// Views lists the views in toggle order.
var Views = []View{ViewList, ViewKanban, ViewMatrix}

// FilterConfig holds the predicate filter settings.
type FilterConfig struct {
	Status          StatusFilter     `json:"status" yaml:"status"`
	Search          string           `json:"search,omitempty" yaml:"search,omitempty"`
	Priorities      []tasks.Priority `json:"priorities,omitempty" yaml:"priorities,omitempty"`
	Assignees       []string         `json:"assignees,omitempty" yaml:"assignees,omitempty"`
	ShowCompleted   bool             `json:"showCompleted" yaml:"show_completed"`
	ShowOverdueOnly bool             `json:"showOverdueOnly" yaml:"show_overdue_only"`
}

// SortConfig holds the comparator settings.
type SortConfig struct {
	By        SortKey       `json:"by" yaml:"by"`
	Order     SortOrder     `json:"order" yaml:"order"`
	CreatedAt CreatedAtMode `json:"createdAtMode,omitempty" yaml:"created_at_mode,omitempty"`
}

// Config is the complete, serialisable board state that drives a projection.
type Config struct {
	Filter FilterConfig `json:"filter" yaml:"filter"`
	Sort   SortConfig   `json:"sort" yaml:"sort"`
	View   View         `json:"view" yaml:"view"`
}

// DefaultConfig returns the board defaults: every status, completed tasks
// hidden, newest first, list view.
func DefaultConfig() Config {
	return Config{
		Filter: FilterConfig{Status: StatusAll},
		Sort:   SortConfig{By: SortCreatedAt, Order: Desc, CreatedAt: CreatedAtLegacy},
		View:   ViewList,
	}
}

// Validate checks enum fields. Empty fields are accepted and read as defaults.
func (c Config) Validate() error {
	switch c.Filter.Status {
	case "", StatusAll, StatusOpen, StatusInProgress, StatusDone, StatusCancelled:
	default:
		return fmt.Errorf("unknown status filter %q", c.Filter.Status)
	}
	if c.Sort.By != "" {
		if _, err := ParseSortKey(string(c.Sort.By)); err != nil {
			return err
		}
	}
	switch c.Sort.Order {
	case "", Asc, Desc:
	default:
		return fmt.Errorf("unknown sort order %q", c.Sort.Order)
	}
	switch c.Sort.CreatedAt {
	case "", CreatedAtLegacy, CreatedAtChronological:
	default:
		return fmt.Errorf("unknown createdAt mode %q", c.Sort.CreatedAt)
	}
	if c.View != "" {
		if _, err := ParseView(string(c.View)); err != nil {
			return err
		}
	}
	return nil
}

// Env carries the collaborators a projection reads besides the config.
type Env struct {
	// Now is the reference moment for overdue checks.
	Now time.Time

	// Members resolves assignee IDs for the assignee filter. May be nil.
	Members tasks.MemberLookup

	// Locale drives title collation. Zero value means language.Und.
	Locale language.Tag
}

// ParseStatusFilter parses a status filter, accepting status aliases.
func ParseStatusFilter(s string) (StatusFilter, error) {
	if s == "" || strings.EqualFold(s, string(StatusAll)) || strings.EqualFold(s, "alle") {
		return StatusAll, nil
	}
	st, err := tasks.ParseStatus(s)
	if err != nil {
		return "", err
	}
	return StatusFilter(st), nil
}

// ParseSortKey parses a sort key. Snake case names are accepted too.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "priority":
		return SortPriority, nil
	case "duedate", "due_date", "due":
		return SortDueDate, nil
	case "title":
		return SortTitle, nil
	case "createdat", "created_at", "created":
		return SortCreatedAt, nil
	case "assignedtocount", "assigned_to_count", "assignees":
		return SortAssignedToCount, nil
	case "manual":
		return SortManual, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseSortOrder parses asc or desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// ParseView parses a view name.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewList:
		return ViewList, nil
	case ViewKanban:
		return ViewKanban, nil
	case ViewMatrix:
		return ViewMatrix, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}
