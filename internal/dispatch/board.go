package dispatch

import (
	"context"
	"sync"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

// Board ties a drag machine to the dispatcher and the task collection the
// gestures refer to. It is safe for concurrent use.
type Board struct {
	d *Dispatcher

	mu      sync.Mutex
	machine DragMachine
	tasks   []tasks.Task
	cfg     projection.Config
}

// NewBoard creates a board over d with the given projection configuration.
func NewBoard(d *Dispatcher, cfg projection.Config) *Board {
	return &Board{d: d, cfg: cfg}
}

// Dispatcher returns the underlying dispatcher.
func (b *Board) Dispatcher() *Dispatcher { return b.d }

// SetTasks replaces the collection after a refetch.
func (b *Board) SetTasks(ts []tasks.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = ts
}

// Tasks returns the current collection.
func (b *Board) Tasks() []tasks.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks
}

// SetConfig replaces the projection configuration.
func (b *Board) SetConfig(cfg projection.Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
}

// Config returns the projection configuration.
func (b *Board) Config() projection.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// State returns the drag state.
func (b *Board) State() DragState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.machine.State()
}

// Handle advances the drag machine and dispatches the resulting intent.
// It reports whether a store write was sent.
func (b *Board) Handle(ctx context.Context, ev Event) (bool, error) {
	b.mu.Lock()
	dc := DropContext{ManualSort: b.cfg.Sort.By == projection.SortManual}
	intent := b.machine.Fire(ev, dc)
	var task tasks.Task
	var found bool
	if intent != nil {
		task, found = tasks.Find(b.tasks, intent.TaskID)
	}
	b.mu.Unlock()

	if intent == nil {
		return false, nil
	}
	if !found {
		return false, tasks.ErrTaskNotFound
	}

	switch intent.Kind {
	case IntentReassignPriority:
		return b.d.ReassignPriority(ctx, task, intent.Priority)
	case IntentReassignQuadrant:
		_, err := b.d.ReassignQuadrant(ctx, task.ID, intent.Quadrant)
		return true, err
	case IntentReorder:
		_, err := b.d.ReorderManual(ctx, task.ID, intent.Index)
		return true, err
	}
	return false, nil
}
