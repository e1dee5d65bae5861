package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Jayphen/todoboard/internal/tasks"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	completed    INTEGER NOT NULL DEFAULT 0,
	urgent       INTEGER NOT NULL DEFAULT 0,
	important    INTEGER NOT NULL DEFAULT 0,
	due_date     DATETIME,
	created_at   DATETIME NOT NULL,
	assignee_ids TEXT NOT NULL DEFAULT '[]',
	attachments  TEXT NOT NULL DEFAULT '[]',
	recurrence   TEXT NOT NULL DEFAULT '',
	manual_order INTEGER,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT ''
);
`

const taskColumns = `id, title, description, priority, status, completed, urgent, important,
	due_date, created_at, assignee_ids, attachments, recurrence, manual_order`

// SQLiteStore keeps a local mirror of the task collection in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tables exist. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite requires 'path' parameter", tasks.ErrInvalidConfig)
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Info returns metadata about this store.
func (s *SQLiteStore) Info() Info {
	return Info{
		Type:        TypeSQLite,
		Name:        "SQLite: " + filepath.Base(s.path),
		Description: "Local task mirror at " + s.path,
		Config:      map[string]string{"path": s.path},
	}
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create inserts a new task. An empty ID is replaced with a UUID and a zero
// CreatedAt with the current time.
func (s *SQLiteStore) Create(ctx context.Context, t *tasks.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := (tasks.TaskUpdate{Title: &t.Title}).Validate(); err != nil {
		return err
	}
	return s.write(ctx, s.db, false, *t)
}

// Upsert makes the stored collection equal to ts in one transaction.
// Existing rows are updated in place so they keep their list position;
// rows whose id is not in ts are removed. It is how a remote collection is
// mirrored locally.
func (s *SQLiteStore) Upsert(ctx context.Context, ts []tasks.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		if err := s.write(ctx, tx, true, t); err != nil {
			return err
		}
		ids = append(ids, t.ID)
	}
	if err := pruneExcept(ctx, tx, "tasks", ids); err != nil {
		return err
	}
	return tx.Commit()
}

// pruneExcept deletes every row of table whose id is not in keep.
func pruneExcept(ctx context.Context, db execer, table string, keep []string) error {
	query := "DELETE FROM " + table
	args := make([]any, len(keep))
	if len(keep) > 0 {
		query += " WHERE id NOT IN (?" + strings.Repeat(",?", len(keep)-1) + ")"
		for i, id := range keep {
			args[i] = id
		}
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune %s: %w", table, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertClause keeps the row (and its rowid, hence list order) on conflict.
const upsertClause = `
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description, priority=excluded.priority,
			status=excluded.status, completed=excluded.completed, urgent=excluded.urgent,
			important=excluded.important, due_date=excluded.due_date, created_at=excluded.created_at,
			assignee_ids=excluded.assignee_ids, attachments=excluded.attachments,
			recurrence=excluded.recurrence, manual_order=excluded.manual_order,
			updated_at=excluded.updated_at`

func (s *SQLiteStore) write(ctx context.Context, db execer, upsert bool, t tasks.Task) error {
	assignees, err := json.Marshal(nonNil(t.AssigneeIDs))
	if err != nil {
		return fmt.Errorf("encode assignees of %s: %w", t.ID, err)
	}
	attachments, err := json.Marshal(nonNil(t.Attachments))
	if err != nil {
		return fmt.Errorf("encode attachments of %s: %w", t.ID, err)
	}

	query := `INSERT INTO tasks
			(id, title, description, priority, status, completed, urgent, important,
			 due_date, created_at, assignee_ids, attachments, recurrence, manual_order, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	if upsert {
		query += upsertClause
	}

	_, err = db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.Completed, t.Urgent, t.Important,
		nullTime(t.DueDate), t.CreatedAt.UTC(),
		string(assignees), string(attachments), string(t.Recurrence),
		nullInt(t.ManualOrder), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write task %s: %w", t.ID, err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*tasks.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, tasks.ErrTaskNotFound)
	}
	return t, err
}

// List returns every stored task in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var result []tasks.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// Update merges u into the stored task.
func (s *SQLiteStore) Update(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	current, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, tasks.ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}

	updated := u.Apply(*current)
	if err := s.write(ctx, tx, true, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &updated, nil
}

// Delete removes a task by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, tasks.ErrTaskNotFound)
	}
	return nil
}

// UpsertMembers makes the stored directory equal to members. Members without
// an ID get a generated one.
func (s *SQLiteStore) UpsertMembers(ctx context.Context, members []tasks.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO members (id, display_name, email) VALUES (?,?,?)`,
			m.ID, m.DisplayName, m.Email,
		); err != nil {
			return fmt.Errorf("write member %s: %w", m.ID, err)
		}
		ids = append(ids, m.ID)
	}
	if err := pruneExcept(ctx, tx, "members", ids); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMembers returns the stored member directory ordered by name.
func (s *SQLiteStore) ListMembers(ctx context.Context) ([]tasks.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, email FROM members ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []tasks.Member
	for rows.Next() {
		var m tasks.Member
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*tasks.Task, error) {
	var t tasks.Task
	var priority, status, recurrence, assigneesJSON, attachmentsJSON string
	var dueDate sql.NullTime
	var manualOrder sql.NullInt64

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &priority, &status,
		&t.Completed, &t.Urgent, &t.Important,
		&dueDate, &t.CreatedAt,
		&assigneesJSON, &attachmentsJSON, &recurrence, &manualOrder,
	)
	if err != nil {
		return nil, err
	}

	t.Priority = tasks.Priority(priority)
	t.Status = tasks.Status(status)
	t.Recurrence = tasks.Recurrence(recurrence)

	if err := json.Unmarshal([]byte(assigneesJSON), &t.AssigneeIDs); err != nil {
		return nil, fmt.Errorf("task %s: decode assignee_ids: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &t.Attachments); err != nil {
		return nil, fmt.Errorf("task %s: decode attachments: %w", t.ID, err)
	}
	if len(t.AssigneeIDs) == 0 {
		t.AssigneeIDs = nil
	}
	if len(t.Attachments) == 0 {
		t.Attachments = nil
	}

	if dueDate.Valid {
		due := dueDate.Time
		t.DueDate = &due
	}
	if manualOrder.Valid {
		order := int(manualOrder.Int64)
		t.ManualOrder = &order
	}
	return &t, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
