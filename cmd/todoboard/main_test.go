package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/store"
	"github.com/Jayphen/todoboard/internal/tasks"
)

func TestMain(m *testing.M) {
	// Keep the developer's config and environment out of the tests.
	home, err := os.MkdirTemp("", "todoboard-home-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "TODOBOARD_") || k == "REDIS_URL" {
			os.Unsetenv(k)
		}
	}

	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

func intPtr(n int) *int { return &n }

// seedStore creates a SQLite board with ts and returns its spec.
func seedStore(t *testing.T, ts ...tasks.Task) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.db")
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	for i := range ts {
		if err := s.Create(context.Background(), &ts[i]); err != nil {
			t.Fatalf("Create(%s): %v", ts[i].ID, err)
		}
	}
	return "sqlite:path=" + path
}

func openSeeded(t *testing.T, spec string) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(strings.TrimPrefix(spec, "sqlite:path="))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func getTask(t *testing.T, spec, id string) *tasks.Task {
	t.Helper()
	got, err := openSeeded(t, spec).Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	return got
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func fixture() []tasks.Task {
	now := time.Now().UTC()
	past := now.Add(-72 * time.Hour)
	return []tasks.Task{
		{ID: "t1", Title: "Call the lab", Priority: tasks.PriorityHigh, Status: tasks.StatusOpen,
			Urgent: true, Important: true, CreatedAt: now.Add(-3 * time.Hour), DueDate: &past},
		{ID: "t2", Title: "Order gloves", Priority: tasks.PriorityMedium, Status: tasks.StatusInProgress,
			CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "t3", Title: "File invoices", Priority: tasks.PriorityLow, Status: tasks.StatusDone, Completed: true,
			CreatedAt: now.Add(-1 * time.Hour)},
	}
}

func TestBoardFlagsApply(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(projection.Config) bool
		wantErr bool
	}{
		{
			name:  "no flags keeps base",
			args:  nil,
			check: func(c projection.Config) bool { return c.View == projection.ViewList && c.Sort.By == projection.SortCreatedAt },
		},
		{
			name:  "view and sort",
			args:  []string{"--view", "kanban", "--sort", "dueDate", "--order", "asc"},
			check: func(c projection.Config) bool { return c.View == projection.ViewKanban && c.Sort.By == projection.SortDueDate && c.Sort.Order == projection.Asc },
		},
		{
			name:  "status alias and priorities",
			args:  []string{"--status", "erledigt", "--priority", "high,critical"},
			check: func(c projection.Config) bool { return c.Filter.Status == projection.StatusDone && len(c.Filter.Priorities) == 2 },
		},
		{
			name:  "toggles",
			args:  []string{"--completed", "--overdue", "--search", "lab", "--assignee", "Dr. Weber"},
			check: func(c projection.Config) bool { return c.Filter.ShowCompleted && c.Filter.ShowOverdueOnly && c.Filter.Search == "lab" && len(c.Filter.Assignees) == 1 },
		},
		{name: "bad view", args: []string{"--view", "grid"}, wantErr: true},
		{name: "bad priority", args: []string{"--priority", "urgent"}, wantErr: true},
		{name: "bad sort", args: []string{"--sort", "colour"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f boardFlags
			cmd := &cobra.Command{Use: "x"}
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}

			got, err := f.apply(cmd, projection.DefaultConfig())
			if (err != nil) != tt.wantErr {
				t.Fatalf("apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !tt.check(got) {
				t.Errorf("apply() = %+v", got)
			}
		})
	}
}

func TestListCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	out, _, err := run(t, "", "list", "--store", spec)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Call the lab") || !strings.Contains(out, "Order gloves") {
		t.Errorf("missing open tasks in:\n%s", out)
	}
	if strings.Contains(out, "File invoices") {
		t.Error("completed tasks should be hidden by default")
	}
	if !strings.Contains(out, "overdue") {
		t.Error("overdue task should be marked")
	}

	out, _, err = run(t, "", "list", "--store", spec, "--completed", "--view", "kanban", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var proj projection.Projection
	if err := json.Unmarshal([]byte(out), &proj); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if proj.View != projection.ViewKanban || proj.Kanban == nil {
		t.Fatalf("view = %s, kanban = %v", proj.View, proj.Kanban)
	}
	if len(proj.Kanban.High) != 1 || len(proj.Kanban.Medium) != 1 || len(proj.Kanban.Low) != 1 {
		t.Errorf("kanban = %+v", proj.Kanban)
	}
}

func TestListCommandMatrix(t *testing.T) {
	spec := seedStore(t, fixture()...)

	out, _, err := run(t, "", "list", "--store", spec, "--view", "matrix")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"urgent / important", "not urgent / not important", "2 task(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestListCommandRejectsBadFlags(t *testing.T) {
	spec := seedStore(t, fixture()...)
	if _, _, err := run(t, "", "list", "--store", spec, "--order", "sideways"); err == nil {
		t.Error("unknown sort order should fail")
	}
	if _, _, err := run(t, "", "list", "--store", spec, "--status", "later"); !errors.Is(err, tasks.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestStatusCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	_, stderr, err := run(t, "", "status", "t2", "erledigt", "--store", spec)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stderr, "Status updated") {
		t.Errorf("expected notification, got %q", stderr)
	}

	got := getTask(t, spec, "t2")
	if got.Status != tasks.StatusDone || !got.Completed {
		t.Errorf("task = %+v, want done and completed", got)
	}

	if _, _, err := run(t, "", "status", "t2", "later", "--store", spec); !errors.Is(err, tasks.ErrValidation) {
		t.Errorf("unknown status err = %v", err)
	}
}

func TestMoveCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	if _, _, err := run(t, "", "move", "t2", "--priority", "high", "--store", spec); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := getTask(t, spec, "t2"); got.Priority != tasks.PriorityHigh {
		t.Errorf("priority = %s, want high", got.Priority)
	}

	out, _, err := run(t, "", "move", "t2", "--priority", "high", "--store", spec)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "already has high priority") {
		t.Errorf("expected no-op message, got %q", out)
	}

	if _, _, err := run(t, "", "move", "t2", "--urgent", "--store", spec); err != nil {
		t.Fatalf("move quadrant: %v", err)
	}
	if got := getTask(t, spec, "t2"); !got.Urgent || got.Important {
		t.Errorf("quadrant = urgent %v important %v", got.Urgent, got.Important)
	}

	tests := [][]string{
		{"move", "t2", "--store", spec},
		{"move", "t2", "--priority", "high", "--urgent", "--store", spec},
		{"move", "t2", "--priority", "critical", "--store", spec},
	}
	for _, args := range tests {
		if _, _, err := run(t, "", args...); !errors.Is(err, tasks.ErrValidation) {
			t.Errorf("%v: err = %v, want ErrValidation", args, err)
		}
	}

	if _, _, err := run(t, "", "move", "nope", "--priority", "low", "--store", spec); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Errorf("missing task err = %v", err)
	}
}

func TestReorderCommand(t *testing.T) {
	ts := fixture()
	for i := range ts {
		ts[i].ManualOrder = intPtr(i)
		ts[i].Status = tasks.StatusOpen
		ts[i].Completed = false
	}
	spec := seedStore(t, ts...)

	if _, _, err := run(t, "", "reorder", "t3", "0", "--renumber", "--store", spec); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	for id, want := range map[string]int{"t3": 0, "t1": 1, "t2": 2} {
		got := getTask(t, spec, id)
		if got.ManualOrder == nil || *got.ManualOrder != want {
			t.Errorf("%s manual order = %v, want %d", id, got.ManualOrder, want)
		}
	}

	if _, _, err := run(t, "", "reorder", "t1", "7", "--store", spec); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := getTask(t, spec, "t1"); *got.ManualOrder != 7 {
		t.Errorf("manual order = %d, want 7", *got.ManualOrder)
	}

	if _, _, err := run(t, "", "reorder", "t1", "-1", "--store", spec); err == nil {
		t.Error("negative index should fail")
	}
}

func TestEditCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	if _, _, err := run(t, "", "edit", "t1", "--title", "Call the lab again", "--due", "2030-01-15", "--store", spec); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got := getTask(t, spec, "t1")
	if got.Title != "Call the lab again" {
		t.Errorf("title = %q", got.Title)
	}
	if got.DueDate == nil || got.DueDate.Year() != 2030 {
		t.Errorf("due = %v", got.DueDate)
	}

	tests := [][]string{
		{"edit", "t1", "--store", spec},
		{"edit", "t1", "--title", "  ", "--store", spec},
		{"edit", "t1", "--due", "15.01.2030", "--store", spec},
	}
	for _, args := range tests {
		if _, _, err := run(t, "", args...); !errors.Is(err, tasks.ErrValidation) {
			t.Errorf("%v: err = %v, want ErrValidation", args, err)
		}
	}
}

func TestDeleteCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	out, _, err := run(t, "n\n", "delete", "t1", "--store", spec)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `Delete "Call the lab"?`) || !strings.Contains(out, "Cancelled") {
		t.Errorf("unexpected prompt output %q", out)
	}
	getTask(t, spec, "t1")

	if _, _, err := run(t, "y\n", "delete", "t1", "--store", spec); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := openSeeded(t, spec).Get(context.Background(), "t1"); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Errorf("t1 should be gone, err = %v", err)
	}

	if _, _, err := run(t, "", "delete", "t2", "--yes", "--store", spec); err != nil {
		t.Fatalf("delete --yes: %v", err)
	}

	if _, _, err := run(t, "y\n", "delete", "t9", "--store", spec); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Errorf("missing task err = %v", err)
	}
}

func TestStatsCommand(t *testing.T) {
	spec := seedStore(t, fixture()...)

	out, _, err := run(t, "", "stats", "--json", "--store", spec)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats projection.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := projection.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1, CompletionRate: 33}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSyncCommand(t *testing.T) {
	src := seedStore(t, fixture()...)
	dst := filepath.Join(t.TempDir(), "mirror", "board.db")

	out, _, err := run(t, "", "sync", "--from", src, "--to", "sqlite:path="+dst)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "Synced 3 task(s)") {
		t.Errorf("output = %q", out)
	}

	mirror := openSeeded(t, "sqlite:path="+dst)
	all, err := mirror.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "t1" {
		t.Errorf("mirror = %+v", all)
	}

	if err := openSeeded(t, src).Delete(context.Background(), "t2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := run(t, "", "sync", "--from", src, "--to", "sqlite:path="+dst); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	all, err = mirror.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != "t1" || all[1].ID != "t3" {
		t.Errorf("mirror after source delete = %+v", all)
	}

	if _, _, err := run(t, "", "sync", "--from", src, "--to", "http:url=https://example.org"); !errors.Is(err, tasks.ErrInvalidConfig) {
		t.Errorf("non-sqlite target err = %v", err)
	}
}

func TestViewsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { _, _ = config.Reload() })
	t.Setenv("TODOBOARD_REDIS_URL", "redis://"+mr.Addr())
	if _, err := config.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	out, _, err := run(t, "", "views", "save", "Dringend", "--view", "matrix", "--sort", "dueDate", "--order", "asc")
	if err != nil {
		t.Fatalf("views save: %v", err)
	}
	if !strings.Contains(out, `Saved view "Dringend" (matrix, sorted by dueDate asc)`) {
		t.Errorf("output = %q", out)
	}

	out, _, err = run(t, "", "views", "show", "Dringend")
	if err != nil {
		t.Fatalf("views show: %v", err)
	}
	if !strings.Contains(out, "view: matrix") || !strings.Contains(out, "by: dueDate") {
		t.Errorf("yaml = %q", out)
	}

	out, _, err = run(t, "", "views", "list")
	if err != nil {
		t.Fatalf("views list: %v", err)
	}
	if !strings.Contains(out, "Dringend") {
		t.Errorf("list = %q", out)
	}

	spec := seedStore(t, fixture()...)
	out, _, err = run(t, "", "list", "--saved", "Dringend", "--json", "--store", spec)
	if err != nil {
		t.Fatalf("list --saved: %v", err)
	}
	var proj projection.Projection
	if err := json.Unmarshal([]byte(out), &proj); err != nil || proj.View != projection.ViewMatrix {
		t.Errorf("saved view not applied: %v %s", err, proj.View)
	}

	if _, _, err := run(t, "", "views", "delete", "Dringend"); err != nil {
		t.Fatalf("views delete: %v", err)
	}
	if _, _, err := run(t, "", "views", "delete", "Dringend"); err == nil {
		t.Error("deleting twice should fail")
	}
	out, _, _ = run(t, "", "views", "list")
	if !strings.Contains(out, "No saved views") {
		t.Errorf("list after delete = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	out, _, err := run(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, filepath.Join(".config", "todoboard", "config.yaml")) {
		t.Errorf("paths = %q", out)
	}

	out, _, err = run(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "api_token:        (not set)") {
		t.Errorf("show = %q", out)
	}
}

func TestDisplayStoreHidesToken(t *testing.T) {
	got := displayStore("http:url=https://praxis.example.org,practice=42,token=s3cret")
	if strings.Contains(got, "s3cret") {
		t.Errorf("displayStore leaked the token: %q", got)
	}
	if got != "http:url=https://praxis.example.org,practice=42" {
		t.Errorf("displayStore = %q", got)
	}
	if got := displayStore("garbage"); got != "garbage" {
		t.Errorf("displayStore(garbage) = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"abcdefghijkl", "abcd...ijkl"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "todoboard dev") {
		t.Errorf("version = %q", out)
	}
}
