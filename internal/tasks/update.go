package tasks

import (
	"fmt"
	"strings"
	"time"
)

// TaskUpdate contains the fields to change on a task. Nil fields are left
// untouched by the store.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Urgent      *bool      `json:"urgent,omitempty"`
	Important   *bool      `json:"important,omitempty"`
	ManualOrder *int       `json:"manualOrder,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Completed == nil && u.Priority == nil && u.Urgent == nil &&
		u.Important == nil && u.ManualOrder == nil && u.DueDate == nil
}

// Validate rejects updates that must not reach the store.
func (u TaskUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if u.Status != nil && !u.Status.Known() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *u.Status)
	}
	if u.Priority != nil && !u.Priority.Known() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, *u.Priority)
	}
	if u.ManualOrder != nil && *u.ManualOrder < 0 {
		return fmt.Errorf("%w: manual order must not be negative", ErrValidation)
	}
	return nil
}

// Apply returns a copy of t with the update applied. Stores without native
// partial updates use it to merge changes.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Urgent != nil {
		t.Urgent = *u.Urgent
	}
	if u.Important != nil {
		t.Important = *u.Important
	}
	if u.ManualOrder != nil {
		order := *u.ManualOrder
		t.ManualOrder = &order
	}
	if u.DueDate != nil {
		due := *u.DueDate
		t.DueDate = &due
	}
	return t
}

// StatusUpdate builds the update for a status change. The legacy completed
// flag is kept in step with the new status.
func StatusUpdate(s Status) TaskUpdate {
	done := s == StatusDone
	return TaskUpdate{Status: &s, Completed: &done}
}

// ParseStatus accepts the canonical names plus a few common aliases.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "todo", "offen":
		return StatusOpen, nil
	case "in_progress", "in-progress", "inprogress", "in_bearbeitung":
		return StatusInProgress, nil
	case "done", "completed", "erledigt":
		return StatusDone, nil
	case "cancelled", "canceled", "abgebrochen":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// ParsePriority accepts high, medium, low and critical (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Known() || p == PriorityCritical {
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}
