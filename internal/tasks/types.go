// Package tasks defines the task board data model shared by the store,
// projection and dispatch packages.
package tasks

import (
	"time"
)

// Status represents the workflow state of a task.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every recognised status in board order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusDone, StatusCancelled}

// Known reports whether s is one of the four recognised statuses.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Priority is the kanban classification of a task.
// Values outside high/medium/low are kept verbatim so they can be surfaced.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"

	// PriorityCritical is a filter-only pseudo priority matching high or urgent tasks.
	PriorityCritical Priority = "critical"
)

// Priorities lists the three kanban priorities, highest first.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Known reports whether p is high, medium or low.
func (p Priority) Known() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank maps a priority to its sort ordinal (high=0, medium=1, low=2).
// Unrecognised values rank with low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recurrence describes how often a task repeats. It is informational only.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// AttachmentKind distinguishes uploaded files from links.
type AttachmentKind string

const (
	AttachmentFile AttachmentKind = "file"
	AttachmentLink AttachmentKind = "link"
)

// Attachment is a file or link reference on a task.
type Attachment struct {
	Kind  AttachmentKind `json:"kind" yaml:"kind"`
	URL   string         `json:"url" yaml:"url"`
	Name  string         `json:"name,omitempty" yaml:"name,omitempty"`   // file name
	Title string         `json:"title,omitempty" yaml:"title,omitempty"` // link title
}

// Task is a single board item as returned by a task store.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status,omitempty"`

	// Completed is the legacy completion flag. It is honoured alongside Status.
	Completed bool `json:"completed,omitempty"`

	// Urgent and Important place the task in the matrix view. They are
	// independent of Priority.
	Urgent    bool `json:"urgent,omitempty"`
	Important bool `json:"important,omitempty"`

	DueDate   *time.Time `json:"dueDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`

	// AssigneeIDs are member references in display order.
	AssigneeIDs []string     `json:"assigneeIds,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Recurrence  Recurrence   `json:"recurrence,omitempty"`

	// ManualOrder is only read when the board is sorted manually.
	ManualOrder *int `json:"manualOrder,omitempty"`
}

// Member is a team member that tasks can be assigned to.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Label returns the best human readable name for the member.
func (m Member) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.Email != "" {
		return m.Email
	}
	return m.ID
}

// MemberLookup resolves assignee identifiers to members.
type MemberLookup interface {
	Member(id string) (Member, bool)
}

// MemberIndex is a map-backed MemberLookup.
type MemberIndex map[string]Member

// NewMemberIndex indexes members by ID.
func NewMemberIndex(members []Member) MemberIndex {
	idx := make(MemberIndex, len(members))
	for _, m := range members {
		idx[m.ID] = m
	}
	return idx
}

// Member implements MemberLookup.
func (idx MemberIndex) Member(id string) (Member, bool) {
	m, ok := idx[id]
	return m, ok
}

// Find returns the task with the given ID from a collection.
func Find(all []Task, id string) (Task, bool) {
	for _, t := range all {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
