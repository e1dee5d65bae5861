package tasks

import (
	"math"
	"time"
)

// EffectiveStatus derives the status used for every completion check.
// A task is done when its status says so or when the legacy completed flag
// is set. Missing or unrecognised statuses read as open.
func EffectiveStatus(t Task) Status {
	if t.Status == StatusDone || t.Completed {
		return StatusDone
	}
	if t.Status.Known() {
		return t.Status
	}
	return StatusOpen
}

// FilterStatus is the status a status filter compares against. The legacy
// completed flag reads as done and known statuses are kept. A missing or
// unrecognised status returns "" and so matches no specific filter.
func FilterStatus(t Task) Status {
	if t.Status == StatusDone || t.Completed {
		return StatusDone
	}
	if t.Status.Known() {
		return t.Status
	}
	return ""
}

// IsCompleted reports whether the task counts as done.
func IsCompleted(t Task) bool {
	return EffectiveStatus(t) == StatusDone
}

// IsOverdue reports whether the task is past due at now.
// Tasks without a due date and completed tasks are never overdue.
func IsOverdue(t Task, now time.Time) bool {
	if t.DueDate == nil || IsCompleted(t) {
		return false
	}
	return t.DueDate.Before(now)
}

// DaysUntilDue returns the number of days until the due date, rounded up.
// Negative values mean the task is late. Nil when there is no due date.
func DaysUntilDue(t Task, now time.Time) *int {
	if t.DueDate == nil {
		return nil
	}
	days := int(math.Ceil(t.DueDate.Sub(now).Hours() / 24))
	return &days
}
