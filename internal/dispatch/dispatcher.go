// Package dispatch turns board gestures into partial updates against a task
// store. Nothing here mutates the local task collection: the caller refetches
// after a successful write.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/notify"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

// ErrResolved is returned by a PendingDelete that was already confirmed or cancelled.
var ErrResolved = errors.New("delete already resolved")

// reorderConcurrency bounds the parallel writes of ReorderList.
const reorderConcurrency = 4

// Writer is the part of a task store the dispatcher writes through.
type Writer interface {
	Update(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error)
	Delete(ctx context.Context, id string) error
}

// Dispatcher sends mutations to the store and reports their outcome.
type Dispatcher struct {
	store    Writer
	notifier notify.Notifier
	log      *logging.Logger
}

// New creates a dispatcher. A nil notifier discards notifications and a nil
// logger uses the global one.
func New(store Writer, n notify.Notifier, log *logging.Logger) *Dispatcher {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = logging.Get()
	}
	return &Dispatcher{store: store, notifier: n, log: log}
}

func (d *Dispatcher) update(ctx context.Context, op, id string, u tasks.TaskUpdate, success notify.Notification) (*tasks.Task, error) {
	log := d.log.WithOperation(op).WithTaskID(id)

	if err := u.Validate(); err != nil {
		log.WithError(err).Warn("update rejected")
		d.notifier.Notify(notify.Errorf("Error", "%v", err))
		return nil, err
	}

	t, err := d.store.Update(ctx, id, u)
	if err != nil {
		log.WithError(err).Error("update failed")
		d.notifier.Notify(notify.Errorf("Error", "task %s could not be updated: %v", id, err))
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}

	log.Debug("update dispatched")
	d.notifier.Notify(success)
	return t, nil
}

// ChangeStatus sets the status and keeps the legacy completed flag in step.
func (d *Dispatcher) ChangeStatus(ctx context.Context, id string, s tasks.Status) (*tasks.Task, error) {
	return d.update(ctx, "change_status", id, tasks.StatusUpdate(s),
		notify.Info("Status updated", fmt.Sprintf("task is now %s", s)))
}

// ReassignPriority moves a task to another kanban column. Nothing is sent
// when the priority is unchanged; the returned bool reports whether an
// update was dispatched.
func (d *Dispatcher) ReassignPriority(ctx context.Context, t tasks.Task, p tasks.Priority) (bool, error) {
	if t.Priority == p {
		return false, nil
	}
	_, err := d.update(ctx, "reassign_priority", t.ID, tasks.TaskUpdate{Priority: &p},
		notify.Info("Priority updated", fmt.Sprintf("moved to %s", p)))
	return true, err
}

// ReassignQuadrant moves a task to a matrix cell. It always dispatches, even
// when the task already sits in that cell.
func (d *Dispatcher) ReassignQuadrant(ctx context.Context, id string, q projection.Quadrant) (*tasks.Task, error) {
	urgent, important := q.Urgent, q.Important
	return d.update(ctx, "reassign_quadrant", id, tasks.TaskUpdate{Urgent: &urgent, Important: &important},
		notify.Info("Task moved", quadrantLabel(q)))
}

// ReorderManual sets the task's manual order to the drop index.
func (d *Dispatcher) ReorderManual(ctx context.Context, id string, index int) (*tasks.Task, error) {
	return d.update(ctx, "reorder_manual", id, tasks.TaskUpdate{ManualOrder: &index},
		notify.Info("Order updated", fmt.Sprintf("position %d", index)))
}

// ReorderList moves visible[from] to position to and renumbers the manual
// order of every visible task whose position changed. Writes run in
// parallel; the first failure is returned.
func (d *Dispatcher) ReorderList(ctx context.Context, visible []tasks.Task, from, to int) error {
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) {
		err := fmt.Errorf("%w: reorder %d -> %d out of range (%d tasks)", tasks.ErrValidation, from, to, len(visible))
		d.notifier.Notify(notify.Errorf("Error", "%v", err))
		return err
	}

	if from == to {
		return nil
	}

	reordered := Move(visible, from, to)
	log := d.log.WithOperation("reorder_list")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reorderConcurrency)
	for i, t := range reordered {
		if t.ManualOrder != nil && *t.ManualOrder == i {
			continue
		}
		g.Go(func() error {
			order := i
			if _, err := d.store.Update(gctx, t.ID, tasks.TaskUpdate{ManualOrder: &order}); err != nil {
				return fmt.Errorf("reorder %s: %w", t.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("reorder failed")
		d.notifier.Notify(notify.Errorf("Error", "order could not be saved: %v", err))
		return err
	}

	d.notifier.Notify(notify.Info("Order updated", fmt.Sprintf("%d tasks", len(reordered))))
	return nil
}

// Move returns a copy of list with the element at from moved to to.
func Move(list []tasks.Task, from, to int) []tasks.Task {
	out := make([]tasks.Task, 0, len(list))
	moved := list[from]
	for i, t := range list {
		if i != from {
			out = append(out, t)
		}
	}
	out = append(out[:to], append([]tasks.Task{moved}, out[to:]...)...)
	return out
}

// Edit sends a generic partial update after validating it locally.
func (d *Dispatcher) Edit(ctx context.Context, id string, u tasks.TaskUpdate) (*tasks.Task, error) {
	if u.IsEmpty() {
		err := fmt.Errorf("%w: nothing to update", tasks.ErrValidation)
		d.log.WithOperation("edit").WithTaskID(id).WithError(err).Warn("update rejected")
		d.notifier.Notify(notify.Errorf("Error", "%v", err))
		return nil, err
	}
	return d.update(ctx, "edit", id, u, notify.Info("Task saved", ""))
}

// RequestDelete starts a delete that only happens once confirmed.
func (d *Dispatcher) RequestDelete(id string) *PendingDelete {
	return &PendingDelete{d: d, id: id}
}

// PendingDelete is a delete awaiting confirmation. It resolves exactly once.
type PendingDelete struct {
	d  *Dispatcher
	id string

	mu       sync.Mutex
	resolved bool
}

// TaskID returns the task the delete targets.
func (p *PendingDelete) TaskID() string { return p.id }

// Confirm performs the delete.
func (p *PendingDelete) Confirm(ctx context.Context) error {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return ErrResolved
	}
	p.resolved = true
	p.mu.Unlock()

	log := p.d.log.WithOperation("delete").WithTaskID(p.id)
	if err := p.d.store.Delete(ctx, p.id); err != nil {
		log.WithError(err).Error("delete failed")
		p.d.notifier.Notify(notify.Errorf("Error", "task %s could not be deleted: %v", p.id, err))
		return fmt.Errorf("delete %s: %w", p.id, err)
	}
	log.Info("task deleted")
	p.d.notifier.Notify(notify.Info("Task deleted", ""))
	return nil
}

// Cancel abandons the delete. It reports whether this call resolved it.
func (p *PendingDelete) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return false
	}
	p.resolved = true
	return true
}

func quadrantLabel(q projection.Quadrant) string {
	return QuadrantZone(q).ID()
}
