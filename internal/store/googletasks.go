package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"github.com/Jayphen/todoboard/internal/tasks"
)

const (
	// DefaultGoogleList is the special ID for the user's default list.
	DefaultGoogleList = "@default"

	// GoogleAPITimeout bounds every Google Tasks call.
	GoogleAPITimeout = 10 * time.Second

	googleTasksScope = "https://www.googleapis.com/auth/tasks"

	googleNeedsAction = "needsAction"
	googleCompleted   = "completed"
)

// GoogleTasksStore implements TaskStore on top of one Google Tasks list.
// Google tasks carry no priority or matrix flags: they are read as medium
// priority and writes to those fields fail with tasks.ErrNotSupported.
type GoogleTasksStore struct {
	svc    *gtasks.Service
	listID string
}

// GoogleTasksConfig holds configuration for the Google Tasks store.
type GoogleTasksConfig struct {
	// ListID is the task list to use (default "@default").
	ListID string

	// Dir holds oauth_client.json and token.json.
	Dir string
}

// NewGoogleTasksStore creates a store from the OAuth client and token files in cfg.Dir.
func NewGoogleTasksStore(ctx context.Context, cfg GoogleTasksConfig) (*GoogleTasksStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: googletasks requires 'dir' parameter", tasks.ErrInvalidConfig)
	}

	clientJSON, err := os.ReadFile(filepath.Join(cfg.Dir, "oauth_client.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, googleTasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(filepath.Join(cfg.Dir, "token.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Token source refreshes automatically.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	return NewGoogleTasksStoreWithHTTPClient(ctx, httpClient, cfg.ListID)
}

// NewGoogleTasksStoreWithHTTPClient creates a store with a custom HTTP client.
// Extra options (e.g. option.WithEndpoint) are passed to the API client.
func NewGoogleTasksStoreWithHTTPClient(ctx context.Context, httpClient *http.Client, listID string, opts ...option.ClientOption) (*GoogleTasksStore, error) {
	if listID == "" {
		listID = DefaultGoogleList
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gtasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &GoogleTasksStore{svc: svc, listID: listID}, nil
}

// Info returns metadata about this store.
func (g *GoogleTasksStore) Info() Info {
	return Info{
		Type:        TypeGoogleTasks,
		Name:        "Google Tasks: " + g.listID,
		Description: "Google Tasks list " + g.listID,
		Config:      map[string]string{"list": g.listID},
	}
}

// List returns every task of the list, completed and hidden ones included.
func (g *GoogleTasksStore) List(ctx context.Context) ([]tasks.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, GoogleAPITimeout)
	defer cancel()

	var result []tasks.Task
	err := g.svc.Tasks.List(g.listID).
		MaxResults(100).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *gtasks.Tasks) error {
			for _, item := range resp.Items {
				result = append(result, fromGoogleTask(item))
			}
			return nil
		})
	if err != nil {
		return nil, wrapGoogleError(err)
	}
	return result, nil
}

// Update patches title, notes, due date and completion. Other fields are
// not representable in Google Tasks.
func (g *GoogleTasksStore) Update(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	patch, err := toGooglePatch(u)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, GoogleAPITimeout)
	defer cancel()

	updated, err := g.svc.Tasks.Patch(g.listID, id, patch).Context(ctx).Do()
	if err != nil {
		return nil, wrapGoogleError(err)
	}
	t := fromGoogleTask(updated)
	return &t, nil
}

// Delete removes a task.
func (g *GoogleTasksStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, GoogleAPITimeout)
	defer cancel()

	if err := g.svc.Tasks.Delete(g.listID, id).Context(ctx).Do(); err != nil {
		return wrapGoogleError(err)
	}
	return nil
}

// Close is a no-op for the Google Tasks store.
func (g *GoogleTasksStore) Close() error {
	return nil
}

func fromGoogleTask(item *gtasks.Task) tasks.Task {
	t := tasks.Task{
		ID:          item.Id,
		Title:       item.Title,
		Description: item.Notes,
		Priority:    tasks.PriorityMedium,
		Status:      tasks.StatusOpen,
	}
	if item.Status == googleCompleted {
		t.Status = tasks.StatusDone
		t.Completed = true
	}
	if due := parseTime(item.Due); due != nil {
		t.DueDate = due
	}
	if updated := parseTime(item.Updated); updated != nil {
		t.CreatedAt = *updated
	}
	// Positions are zero-padded decimal strings.
	if n, err := strconv.Atoi(item.Position); err == nil {
		t.ManualOrder = &n
	}
	for _, link := range item.Links {
		t.Attachments = append(t.Attachments, tasks.Attachment{
			Kind:  tasks.AttachmentLink,
			URL:   link.Link,
			Title: link.Description,
		})
	}
	return t
}

func toGooglePatch(u tasks.TaskUpdate) (*gtasks.Task, error) {
	if u.Priority != nil || u.Urgent != nil || u.Important != nil || u.ManualOrder != nil {
		return nil, fmt.Errorf("%w: google tasks has no priority, matrix or manual order fields", tasks.ErrNotSupported)
	}

	patch := &gtasks.Task{}
	if u.Title != nil {
		patch.Title = *u.Title
	}
	if u.Description != nil {
		patch.Notes = *u.Description
		if *u.Description == "" {
			patch.ForceSendFields = append(patch.ForceSendFields, "Notes")
		}
	}
	if u.DueDate != nil {
		patch.Due = u.DueDate.UTC().Format(time.RFC3339)
	}

	done := u.Completed != nil && *u.Completed
	if u.Status != nil {
		switch *u.Status {
		case tasks.StatusDone:
			done = true
		case tasks.StatusOpen:
			done = false
		default:
			return nil, fmt.Errorf("%w: google tasks cannot store status %s", tasks.ErrNotSupported, *u.Status)
		}
	}
	if u.Status != nil || u.Completed != nil {
		if done {
			patch.Status = googleCompleted
		} else {
			patch.Status = googleNeedsAction
			patch.NullFields = append(patch.NullFields, "Completed")
		}
	}
	return patch, nil
}

// wrapGoogleError maps API errors to store sentinels and readable messages.
func wrapGoogleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("google tasks request timed out: %w", err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("google tasks token expired or revoked: %w", err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", tasks.ErrTaskNotFound, err)
		}
	}
	return err
}
