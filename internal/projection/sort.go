package projection

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// unorderedManual is the manual position given to tasks that were never
// dragged into place.
const unorderedManual = 999999

// Sort returns a stably sorted copy of in. Tasks with equal keys keep their
// relative input order for every key and direction.
func Sort(in []tasks.Task, s SortConfig, env Env) []tasks.Task {
	out := slices.Clone(in)
	slices.SortStableFunc(out, comparator(s, env))
	return out
}

// comparator builds the three-way comparison for a sort configuration.
func comparator(s SortConfig, env Env) func(a, b tasks.Task) int {
	by := s.By
	if by == "" {
		by = SortCreatedAt
	}

	var base func(a, b tasks.Task) int
	switch by {
	case SortPriority:
		base = func(a, b tasks.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		}
	case SortDueDate:
		base = compareDueDate
	case SortTitle:
		col := collate.New(env.Locale)
		base = func(a, b tasks.Task) int {
			return col.CompareString(a.Title, b.Title)
		}
	case SortAssignedToCount:
		base = func(a, b tasks.Task) int {
			return cmp.Compare(len(a.AssigneeIDs), len(b.AssigneeIDs))
		}
	case SortManual:
		base = func(a, b tasks.Task) int {
			return cmp.Compare(manualOrder(a), manualOrder(b))
		}
	default:
		if s.CreatedAt == CreatedAtChronological {
			base = func(a, b tasks.Task) int {
				return a.CreatedAt.Compare(b.CreatedAt)
			}
		} else {
			// Newest first, and the direction toggle is not applied.
			return func(a, b tasks.Task) int {
				return b.CreatedAt.Compare(a.CreatedAt)
			}
		}
	}

	if s.Order == Desc {
		return func(a, b tasks.Task) int {
			return -base(a, b)
		}
	}
	return base
}

// compareDueDate orders by due date with missing dates after every real one.
func compareDueDate(a, b tasks.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

func manualOrder(t tasks.Task) int {
	if t.ManualOrder == nil {
		return unorderedManual
	}
	return *t.ManualOrder
}
