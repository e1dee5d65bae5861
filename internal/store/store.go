// Package store provides the task store backends the board reads from and
// writes through: a JSON-over-HTTP practice API, a local SQLite mirror and
// Google Tasks.
package store

import (
	"context"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// Type identifies a store backend.
type Type string

const (
	TypeHTTP        Type = "http"
	TypeSQLite      Type = "sqlite"
	TypeGoogleTasks Type = "googletasks"
)

// Info describes a configured store.
type Info struct {
	Type        Type              `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Config      map[string]string `json:"config,omitempty"`
}

// TaskStore is the interface every backend implements.
type TaskStore interface {
	// Info returns metadata about this store.
	Info() Info

	// List returns the full task collection.
	List(ctx context.Context) ([]tasks.Task, error)

	// Update applies a partial update and returns the stored task.
	// Unknown ids yield tasks.ErrTaskNotFound.
	Update(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id string) error

	// Close cleans up any resources held by this store.
	Close() error
}

// MemberDirectory resolves the people tasks can be assigned to.
type MemberDirectory interface {
	ListMembers(ctx context.Context) ([]tasks.Member, error)
}

// Members returns the store's member directory, or an empty one when the
// backend has no notion of members.
func Members(ctx context.Context, s TaskStore) ([]tasks.Member, error) {
	dir, ok := s.(MemberDirectory)
	if !ok {
		return nil, nil
	}
	return dir.ListMembers(ctx)
}
