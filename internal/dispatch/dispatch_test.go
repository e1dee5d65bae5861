package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/notify"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	op     string
	id     string
	update tasks.TaskUpdate
}

// fakeStore records every write. failOn makes writes for that id fail.
type fakeStore struct {
	mu     sync.Mutex
	calls  []call
	failOn string
}

func (f *fakeStore) Update(_ context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "update", id: id, update: u})
	if id == f.failOn {
		return nil, errors.New("503 service unavailable")
	}
	t := u.Apply(tasks.Task{ID: id})
	return &t, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "delete", id: id})
	if id == f.failOn {
		return errors.New("503 service unavailable")
	}
	return nil
}

func (f *fakeStore) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestDispatcher() (*Dispatcher, *fakeStore, *notify.Recorder) {
	store := &fakeStore{}
	rec := &notify.Recorder{}
	return New(store, rec, logging.Nop()), store, rec
}

func ptr[T any](v T) *T { return &v }

func TestChangeStatusSetsCompleted(t *testing.T) {
	tests := []struct {
		status    tasks.Status
		completed bool
	}{
		{tasks.StatusDone, true},
		{tasks.StatusOpen, false},
		{tasks.StatusInProgress, false},
		{tasks.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d, store, rec := newTestDispatcher()

			task, err := d.ChangeStatus(context.Background(), "t1", tt.status)
			if err != nil {
				t.Fatalf("ChangeStatus() error = %v", err)
			}
			if task.Status != tt.status || task.Completed != tt.completed {
				t.Errorf("store saw status=%s completed=%t", task.Status, task.Completed)
			}

			calls := store.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			want := tasks.TaskUpdate{Status: ptr(tt.status), Completed: ptr(tt.completed)}
			if diff := cmp.Diff(want, calls[0].update); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
			if last, _ := rec.Last(); last.Level != notify.LevelInfo {
				t.Errorf("expected info notification, got %+v", last)
			}
		})
	}
}

func TestChangeStatusRejectsUnknown(t *testing.T) {
	d, store, rec := newTestDispatcher()

	_, err := d.ChangeStatus(context.Background(), "t1", tasks.Status("archived"))
	if !errors.Is(err, tasks.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.Calls()) != 0 {
		t.Error("invalid status must not reach the store")
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError {
		t.Errorf("expected error notification, got %+v", last)
	}
}

func TestReassignPriorityNoOpGuard(t *testing.T) {
	d, store, _ := newTestDispatcher()
	task := tasks.Task{ID: "x", Priority: tasks.PriorityMedium}

	dispatched, err := d.ReassignPriority(context.Background(), task, tasks.PriorityMedium)
	if err != nil || dispatched {
		t.Fatalf("same column: dispatched=%t err=%v", dispatched, err)
	}
	if len(store.Calls()) != 0 {
		t.Fatal("same column must not write")
	}

	dispatched, err = d.ReassignPriority(context.Background(), task, tasks.PriorityHigh)
	if err != nil || !dispatched {
		t.Fatalf("new column: dispatched=%t err=%v", dispatched, err)
	}
	calls := store.Calls()
	if len(calls) != 1 || *calls[0].update.Priority != tasks.PriorityHigh {
		t.Errorf("unexpected calls %+v", calls)
	}
}

func TestReassignQuadrantAlwaysDispatches(t *testing.T) {
	d, store, _ := newTestDispatcher()
	q := projection.Quadrant{Urgent: true, Important: false}

	for i := 0; i < 2; i++ {
		if _, err := d.ReassignQuadrant(context.Background(), "x", q); err != nil {
			t.Fatal(err)
		}
	}

	calls := store.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 writes for the same quadrant, got %d", len(calls))
	}
	want := tasks.TaskUpdate{Urgent: ptr(true), Important: ptr(false)}
	if diff := cmp.Diff(want, calls[1].update); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureNotifiesWithoutRollback(t *testing.T) {
	d, store, rec := newTestDispatcher()
	store.failOn = "x"
	task := tasks.Task{ID: "x", Priority: tasks.PriorityLow}

	dispatched, err := d.ReassignPriority(context.Background(), task, tasks.PriorityHigh)
	if !dispatched || err == nil {
		t.Fatalf("dispatched=%t err=%v", dispatched, err)
	}
	if task.Priority != tasks.PriorityLow {
		t.Error("caller's task must be left untouched")
	}
	last, ok := rec.Last()
	if !ok || last.Level != notify.LevelError {
		t.Errorf("expected error notification, got %+v", last)
	}
	if len(store.Calls()) != 1 {
		t.Error("failure must not be retried or rolled back")
	}
}

func TestEditValidation(t *testing.T) {
	d, store, rec := newTestDispatcher()

	if _, err := d.Edit(context.Background(), "x", tasks.TaskUpdate{Title: ptr("   ")}); !errors.Is(err, tasks.ErrValidation) {
		t.Errorf("blank title: expected ErrValidation, got %v", err)
	}
	if _, err := d.Edit(context.Background(), "x", tasks.TaskUpdate{}); !errors.Is(err, tasks.ErrValidation) {
		t.Errorf("empty update: expected ErrValidation, got %v", err)
	}
	if got := len(rec.All()); got != 2 {
		t.Errorf("expected a notification per rejected edit, got %d", got)
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError || !strings.Contains(last.Message, "nothing to update") {
		t.Errorf("unexpected notification %+v", last)
	}
	if len(store.Calls()) != 0 {
		t.Fatal("invalid edits must not reach the store")
	}

	got, err := d.Edit(context.Background(), "x", tasks.TaskUpdate{Title: ptr("Order gloves")})
	if err != nil || got.Title != "Order gloves" {
		t.Errorf("Edit() = %+v, %v", got, err)
	}
}

func TestReorderManual(t *testing.T) {
	d, store, _ := newTestDispatcher()

	if _, err := d.ReorderManual(context.Background(), "x", 3); err != nil {
		t.Fatal(err)
	}
	calls := store.Calls()
	if len(calls) != 1 || *calls[0].update.ManualOrder != 3 {
		t.Errorf("unexpected calls %+v", calls)
	}
}

func TestReorderList(t *testing.T) {
	d, store, rec := newTestDispatcher()
	visible := []tasks.Task{
		{ID: "a", ManualOrder: ptr(0)},
		{ID: "b", ManualOrder: ptr(1)},
		{ID: "c", ManualOrder: ptr(2)},
		{ID: "d", ManualOrder: ptr(3)},
	}

	if err := d.ReorderList(context.Background(), visible, 3, 1); err != nil {
		t.Fatal(err)
	}

	got := map[string]int{}
	for _, c := range store.Calls() {
		got[c.id] = *c.update.ManualOrder
	}
	want := map[string]int{"d": 1, "b": 2, "c": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("renumbering mismatch (-want +got):\n%s", diff)
	}
	if last, _ := rec.Last(); last.Level != notify.LevelInfo {
		t.Errorf("expected info notification, got %+v", last)
	}
}

func TestReorderListSamePositionWritesNothing(t *testing.T) {
	d, store, rec := newTestDispatcher()
	visible := []tasks.Task{{ID: "a"}, {ID: "b"}, {ID: "c", ManualOrder: ptr(7)}}

	if err := d.ReorderList(context.Background(), visible, 1, 1); err != nil {
		t.Fatal(err)
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Errorf("dropping a task on its own slot must not write, got %+v", calls)
	}
	if _, ok := rec.Last(); ok {
		t.Error("no notification expected for a no-op reorder")
	}
}

func TestReorderListErrors(t *testing.T) {
	d, store, rec := newTestDispatcher()
	visible := []tasks.Task{{ID: "a"}, {ID: "b"}}

	if err := d.ReorderList(context.Background(), visible, 0, 5); !errors.Is(err, tasks.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if len(store.Calls()) != 0 {
		t.Fatal("out of range reorder must not write")
	}

	store.failOn = "b"
	if err := d.ReorderList(context.Background(), visible, 1, 0); err == nil {
		t.Fatal("expected failure")
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError {
		t.Errorf("expected error notification, got %+v", last)
	}
}

func TestMove(t *testing.T) {
	list := []tasks.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a"}},
		{2, 0, []string{"c", "a", "b"}},
		{1, 1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		var ids []string
		for _, task := range Move(list, tt.from, tt.to) {
			ids = append(ids, task.ID)
		}
		if diff := cmp.Diff(tt.want, ids); diff != "" {
			t.Errorf("Move(%d, %d) mismatch (-want +got):\n%s", tt.from, tt.to, diff)
		}
	}
	if list[0].ID != "a" || list[2].ID != "c" {
		t.Error("Move must not modify its input")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	d, store, rec := newTestDispatcher()

	pending := d.RequestDelete("x")
	if len(store.Calls()) != 0 {
		t.Fatal("RequestDelete must not delete")
	}
	if pending.TaskID() != "x" {
		t.Errorf("TaskID() = %q", pending.TaskID())
	}
	if err := pending.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := pending.Confirm(context.Background()); !errors.Is(err, ErrResolved) {
		t.Errorf("second Confirm: expected ErrResolved, got %v", err)
	}
	if pending.Cancel() {
		t.Error("Cancel after Confirm should report false")
	}

	calls := store.Calls()
	if len(calls) != 1 || calls[0].op != "delete" {
		t.Errorf("unexpected calls %+v", calls)
	}
	if last, _ := rec.Last(); last.Title != "Task deleted" {
		t.Errorf("unexpected notification %+v", last)
	}
}

func TestDeleteCancelled(t *testing.T) {
	d, store, _ := newTestDispatcher()

	pending := d.RequestDelete("x")
	if !pending.Cancel() {
		t.Fatal("first Cancel should resolve")
	}
	if err := pending.Confirm(context.Background()); !errors.Is(err, ErrResolved) {
		t.Errorf("Confirm after Cancel: expected ErrResolved, got %v", err)
	}
	if len(store.Calls()) != 0 {
		t.Error("cancelled delete must not reach the store")
	}
}

func TestDeleteFailure(t *testing.T) {
	d, store, rec := newTestDispatcher()
	store.failOn = "x"

	if err := d.RequestDelete("x").Confirm(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError {
		t.Errorf("expected error notification, got %+v", last)
	}
}

func TestConcurrentConfirmDeletesOnce(t *testing.T) {
	d, store, _ := newTestDispatcher()
	pending := d.RequestDelete("x")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = pending.Confirm(context.Background())
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 || len(store.Calls()) != 1 {
		t.Errorf("expected exactly one delete, got ok=%d calls=%d", ok, len(store.Calls()))
	}
}
