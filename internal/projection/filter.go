package projection

import (
	"strings"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// predicate reports whether a task survives a filter stage.
type predicate func(tasks.Task) bool

// Filter returns the tasks matching every active predicate in f, in input
// order. The input slice is never modified.
//
// Stages run in a fixed order: status, search text, priority set, assignee
// set, completion visibility, overdue only.
func Filter(all []tasks.Task, f FilterConfig, env Env) []tasks.Task {
	out := make([]tasks.Task, len(all))
	copy(out, all)

	for _, keep := range stages(f, env) {
		out = keepIf(out, keep)
	}
	return out
}

// Matches reports whether a single task passes the filter.
func Matches(t tasks.Task, f FilterConfig, env Env) bool {
	for _, keep := range stages(f, env) {
		if !keep(t) {
			return false
		}
	}
	return true
}

func stages(f FilterConfig, env Env) []predicate {
	var ps []predicate

	if f.Status != "" && f.Status != StatusAll {
		want := tasks.Status(f.Status)
		ps = append(ps, func(t tasks.Task) bool {
			return tasks.FilterStatus(t) == want
		})
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		ps = append(ps, func(t tasks.Task) bool {
			return strings.Contains(strings.ToLower(t.Title), needle) ||
				strings.Contains(strings.ToLower(t.Description), needle)
		})
	}

	if len(f.Priorities) > 0 {
		set := make(map[tasks.Priority]bool, len(f.Priorities))
		for _, p := range f.Priorities {
			set[p] = true
		}
		ps = append(ps, func(t tasks.Task) bool {
			if set[t.Priority] {
				return true
			}
			return set[tasks.PriorityCritical] && (t.Priority == tasks.PriorityHigh || t.Urgent)
		})
	}

	if len(f.Assignees) > 0 {
		ps = append(ps, func(t tasks.Task) bool {
			return assignedToAny(t, f.Assignees, env.Members)
		})
	}

	if !f.ShowCompleted {
		ps = append(ps, func(t tasks.Task) bool {
			return !tasks.IsCompleted(t)
		})
	}

	if f.ShowOverdueOnly {
		now := env.Now
		ps = append(ps, func(t tasks.Task) bool {
			return tasks.IsOverdue(t, now)
		})
	}

	return ps
}

// assignedToAny reports whether one of the task's assignees resolves to a
// display name or email in wanted. Unresolvable IDs never match.
func assignedToAny(t tasks.Task, wanted []string, members tasks.MemberLookup) bool {
	if members == nil {
		return false
	}
	for _, id := range t.AssigneeIDs {
		m, ok := members.Member(id)
		if !ok {
			continue
		}
		for _, w := range wanted {
			if w == "" {
				continue
			}
			if strings.EqualFold(m.DisplayName, w) || strings.EqualFold(m.Email, w) {
				return true
			}
		}
	}
	return false
}

func keepIf(in []tasks.Task, keep predicate) []tasks.Task {
	out := in[:0]
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
