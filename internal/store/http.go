package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// HTTPStore implements TaskStore against the practice todo API.
type HTTPStore struct {
	baseURL  string
	practice string
	token    string
	client   *http.Client
	info     Info
}

// HTTPConfig holds configuration for the HTTP store.
type HTTPConfig struct {
	BaseURL  string       // API origin, e.g. https://praxis.example.org
	Practice string       // practice id the todos belong to
	Token    string       // bearer token (or read from TODOBOARD_API_TOKEN)
	Client   *http.Client // optional; defaults to a client with a 30s timeout
}

// wireTodo is the todo record as the API sends it.
type wireTodo struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Priority        string           `json:"priority"`
	Status          string           `json:"status"`
	Completed       bool             `json:"completed"`
	Dringend        bool             `json:"dringend"`
	Wichtig         bool             `json:"wichtig"`
	DueDate         string           `json:"due_date"`
	CreatedAt       string           `json:"created_at"`
	AssignedUserIDs []string         `json:"assigned_user_ids"`
	Attachments     []wireAttachment `json:"attachments"`
	RecurrenceType  string           `json:"recurrence_type"`
	ManualOrder     *int             `json:"manual_order"`
}

type wireAttachment struct {
	Type      string `json:"attachment_type"`
	URL       string `json:"file_url"`
	FileName  string `json:"file_name"`
	LinkTitle string `json:"link_title"`
	LinkURL   string `json:"link_url"`
}

type wireMember struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

var statusToWire = map[tasks.Status]string{
	tasks.StatusOpen:       "offen",
	tasks.StatusInProgress: "in_bearbeitung",
	tasks.StatusDone:       "erledigt",
	tasks.StatusCancelled:  "abgebrochen",
}

// NewHTTPStore creates a new HTTP store.
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	token := cfg.Token
	if token == "" {
		token = os.Getenv("TODOBOARD_API_TOKEN")
	}

	if cfg.BaseURL == "" || cfg.Practice == "" {
		return nil, fmt.Errorf("%w: http store requires url and practice", tasks.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid url %q", tasks.ErrInvalidConfig, cfg.BaseURL)
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPStore{
		baseURL:  base,
		practice: cfg.Practice,
		token:    token,
		client:   client,
		info: Info{
			Type:        TypeHTTP,
			Name:        fmt.Sprintf("Practice %s", cfg.Practice),
			Description: fmt.Sprintf("Todos of practice %s at %s", cfg.Practice, base),
			Config: map[string]string{
				"url":      base,
				"practice": cfg.Practice,
			},
		},
	}, nil
}

// Info returns metadata about this store.
func (h *HTTPStore) Info() Info {
	return h.info
}

func (h *HTTPStore) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts)+3)
	escaped = append(escaped, h.baseURL, "api", "practices", url.PathEscape(h.practice))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

// do executes a request and returns the response body for 2xx answers.
func (h *HTTPStore) do(ctx context.Context, method, endpoint string, body interface{}) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, tasks.ErrTaskNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resp.StatusCode, fmt.Errorf("API rejected credentials (status %d)", resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, snippet(data))
	}
	return data, resp.StatusCode, nil
}

// List returns every todo of the practice.
func (h *HTTPStore) List(ctx context.Context) ([]tasks.Task, error) {
	data, _, err := h.do(ctx, http.MethodGet, h.endpoint("todos"), nil)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", h.collectionErr(err))
	}

	todos, err := decodeTodos(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse todos: %w", err)
	}

	result := make([]tasks.Task, 0, len(todos))
	for _, w := range todos {
		result = append(result, w.toTask())
	}
	return result, nil
}

// Update sends a PATCH with only the fields set in u. When the API answers
// without a body the returned task carries just the id and the applied fields.
func (h *HTTPStore) Update(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	data, _, err := h.do(ctx, http.MethodPatch, h.endpoint("todos", id), patchBody(u))
	if err != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		t := u.Apply(tasks.Task{ID: id})
		return &t, nil
	}

	w, err := decodeTodo(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse todo: %w", err)
	}
	t := w.toTask()
	return &t, nil
}

// Delete removes a todo.
func (h *HTTPStore) Delete(ctx context.Context, id string) error {
	if _, _, err := h.do(ctx, http.MethodDelete, h.endpoint("todos", id), nil); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}

// ListMembers returns the practice's team members.
func (h *HTTPStore) ListMembers(ctx context.Context) ([]tasks.Member, error) {
	data, _, err := h.do(ctx, http.MethodGet, h.endpoint("team-members"), nil)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", h.collectionErr(err))
	}

	var wire []wireMember
	if err := decodeList(data, "teamMembers", &wire); err != nil {
		return nil, fmt.Errorf("failed to parse team members: %w", err)
	}

	members := make([]tasks.Member, 0, len(wire))
	for _, w := range wire {
		members = append(members, w.toMember())
	}
	return members, nil
}

// collectionErr maps a 404 on a collection endpoint to a configuration
// error: the practice itself is unknown, not a single task.
func (h *HTTPStore) collectionErr(err error) error {
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return fmt.Errorf("%w: practice %q not found at %s", tasks.ErrInvalidConfig, h.practice, h.baseURL)
	}
	return err
}

// Close is a no-op for the HTTP store.
func (h *HTTPStore) Close() error {
	return nil
}

// decodeTodos accepts a bare array or {"todos": [...]}.
func decodeTodos(data []byte) ([]wireTodo, error) {
	var todos []wireTodo
	err := decodeList(data, "todos", &todos)
	return todos, err
}

// decodeList decodes a JSON array, or an object wrapping it under key.
func decodeList(data []byte, key string, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	raw, ok := wrapped[key]
	if !ok {
		return fmt.Errorf("missing %q in response", key)
	}
	return json.Unmarshal(raw, out)
}

// decodeTodo accepts a bare record or {"todo": {...}}.
func decodeTodo(data []byte) (wireTodo, error) {
	var w wireTodo
	if err := json.Unmarshal(data, &w); err != nil {
		return w, err
	}
	if w.ID != "" {
		return w, nil
	}
	var wrapped struct {
		Todo wireTodo `json:"todo"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return w, err
	}
	return wrapped.Todo, nil
}

func (w wireTodo) toTask() tasks.Task {
	t := tasks.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Priority:    tasks.Priority(strings.ToLower(w.Priority)),
		Status:      statusFromWire(w.Status),
		Completed:   w.Completed,
		Urgent:      w.Dringend,
		Important:   w.Wichtig,
		DueDate:     parseTime(w.DueDate),
		AssigneeIDs: w.AssignedUserIDs,
		Recurrence:  tasks.Recurrence(w.RecurrenceType),
		ManualOrder: w.ManualOrder,
	}
	if created := parseTime(w.CreatedAt); created != nil {
		t.CreatedAt = *created
	}
	for _, a := range w.Attachments {
		t.Attachments = append(t.Attachments, a.toAttachment())
	}
	return t
}

func (a wireAttachment) toAttachment() tasks.Attachment {
	if a.Type == "link" {
		return tasks.Attachment{Kind: tasks.AttachmentLink, URL: a.LinkURL, Title: a.LinkTitle}
	}
	return tasks.Attachment{Kind: tasks.AttachmentFile, URL: a.URL, Name: a.FileName}
}

func (w wireMember) toMember() tasks.Member {
	id := w.UserID
	if id == "" {
		id = w.ID
	}
	name := w.Name
	if name == "" {
		name = strings.TrimSpace(w.FirstName + " " + w.LastName)
	}
	return tasks.Member{ID: id, DisplayName: name, Email: w.Email}
}

// statusFromWire maps API statuses. Unrecognised values are kept verbatim
// and read as open by tasks.EffectiveStatus.
func statusFromWire(s string) tasks.Status {
	if s == "" {
		return ""
	}
	if st, err := tasks.ParseStatus(s); err == nil {
		return st
	}
	return tasks.Status(s)
}

func patchBody(u tasks.TaskUpdate) map[string]interface{} {
	body := make(map[string]interface{})
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Status != nil {
		body["status"] = statusToWire[*u.Status]
	}
	if u.Completed != nil {
		body["completed"] = *u.Completed
	}
	if u.Priority != nil {
		body["priority"] = string(*u.Priority)
	}
	if u.Urgent != nil {
		body["dringend"] = *u.Urgent
	}
	if u.Important != nil {
		body["wichtig"] = *u.Important
	}
	if u.ManualOrder != nil {
		body["manual_order"] = *u.ManualOrder
	}
	if u.DueDate != nil {
		body["due_date"] = u.DueDate.UTC().Format(time.RFC3339)
	}
	return body
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime reads the timestamp formats the API emits. Empty or malformed
// values yield nil.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// snippet shortens an error body to at most 200 cells without splitting runes.
func snippet(b []byte) string {
	return ansi.Truncate(strings.TrimSpace(string(b)), 200, "…")
}
