package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

// ZoneKind is the kind of drop target.
type ZoneKind int

const (
	ZoneNone ZoneKind = iota
	ZoneColumn
	ZoneQuadrant
	ZoneListSlot
)

// Zone is a droppable area of the board: a kanban column, a matrix
// quadrant or a slot in the list.
type Zone struct {
	Kind     ZoneKind
	Priority tasks.Priority
	Quadrant projection.Quadrant
	Index    int
}

// ColumnZone returns the kanban column for p.
func ColumnZone(p tasks.Priority) Zone {
	return Zone{Kind: ZoneColumn, Priority: p}
}

// QuadrantZone returns the matrix cell for q.
func QuadrantZone(q projection.Quadrant) Zone {
	return Zone{Kind: ZoneQuadrant, Quadrant: q}
}

// ListZone returns the list slot at index.
func ListZone(index int) Zone {
	return Zone{Kind: ZoneListSlot, Index: index}
}

// ID renders the zone identifier, e.g. "high-priority", "urgent-not-important"
// or "list-3". The zero zone has an empty ID.
func (z Zone) ID() string {
	switch z.Kind {
	case ZoneColumn:
		return string(z.Priority) + "-priority"
	case ZoneQuadrant:
		urgent, important := "urgent", "important"
		if !z.Quadrant.Urgent {
			urgent = "not-urgent"
		}
		if !z.Quadrant.Important {
			important = "not-important"
		}
		return urgent + "-" + important
	case ZoneListSlot:
		return "list-" + strconv.Itoa(z.Index)
	}
	return ""
}

func (z Zone) String() string { return z.ID() }

// ParseZone parses a zone identifier.
func ParseZone(id string) (Zone, error) {
	switch id {
	case "high-priority":
		return ColumnZone(tasks.PriorityHigh), nil
	case "medium-priority":
		return ColumnZone(tasks.PriorityMedium), nil
	case "low-priority":
		return ColumnZone(tasks.PriorityLow), nil
	case "urgent-important":
		return QuadrantZone(projection.Quadrant{Urgent: true, Important: true}), nil
	case "not-urgent-important":
		return QuadrantZone(projection.Quadrant{Urgent: false, Important: true}), nil
	case "urgent-not-important":
		return QuadrantZone(projection.Quadrant{Urgent: true, Important: false}), nil
	case "not-urgent-not-important":
		return QuadrantZone(projection.Quadrant{Urgent: false, Important: false}), nil
	}
	if rest, ok := strings.CutPrefix(id, "list-"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return ListZone(n), nil
		}
	}
	return Zone{}, fmt.Errorf("%w: unknown drop zone %q", tasks.ErrValidation, id)
}

// Phase is the drag machine's state tag.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseDraggingOver
)

func (p Phase) String() string {
	switch p {
	case PhaseDragging:
		return "dragging"
	case PhaseDraggingOver:
		return "dragging-over"
	}
	return "idle"
}

// DragState is the transient interaction state. TaskID is set while
// dragging; Zone is the highlighted target in PhaseDraggingOver.
type DragState struct {
	Phase  Phase
	TaskID string
	Zone   Zone
}

// Idle is the resting state.
var Idle = DragState{}

// Highlighted returns the zone to highlight, if any.
func (s DragState) Highlighted() (Zone, bool) {
	return s.Zone, s.Phase == PhaseDraggingOver
}

// EventKind enumerates drag gestures.
type EventKind int

const (
	EventDragStart EventKind = iota
	EventDragOver
	EventDragLeave
	EventDrop
	EventDragEnd
)

// Event is one drag gesture.
type Event struct {
	Kind   EventKind
	TaskID string
	Zone   Zone

	// LeftContainer is set on DragLeave when the pointer left a droppable
	// container rather than moving between its children.
	LeftContainer bool
}

// DragStart picks up a task.
func DragStart(taskID string) Event { return Event{Kind: EventDragStart, TaskID: taskID} }

// DragOver moves the pointer over a zone.
func DragOver(z Zone) Event { return Event{Kind: EventDragOver, Zone: z} }

// DragLeave moves the pointer out of a zone.
func DragLeave(z Zone, leftContainer bool) Event {
	return Event{Kind: EventDragLeave, Zone: z, LeftContainer: leftContainer}
}

// Drop releases the task over z. Use the zero Zone for a drop outside any target.
func Drop(z Zone) Event { return Event{Kind: EventDrop, Zone: z} }

// DragEnd finishes the gesture whatever happened.
func DragEnd() Event { return Event{Kind: EventDragEnd} }

// IntentKind is the mutation a drop asks for.
type IntentKind int

const (
	IntentReassignPriority IntentKind = iota + 1
	IntentReassignQuadrant
	IntentReorder
)

// Intent is the mutation a completed drop should dispatch.
type Intent struct {
	Kind     IntentKind
	TaskID   string
	Priority tasks.Priority
	Quadrant projection.Quadrant
	Index    int
}

// DropContext carries board state that decides whether a drop is valid.
type DropContext struct {
	// ManualSort is true when the list is sorted by manual order, the only
	// mode in which list slots accept drops.
	ManualSort bool
}

// Transition computes the next drag state for ev. It never performs I/O; a
// drop on a valid target returns the Intent to dispatch.
func Transition(s DragState, ev Event, dc DropContext) (DragState, *Intent) {
	switch ev.Kind {
	case EventDragStart:
		if ev.TaskID == "" {
			return Idle, nil
		}
		return DragState{Phase: PhaseDragging, TaskID: ev.TaskID}, nil

	case EventDragOver:
		if s.Phase == PhaseIdle {
			return s, nil
		}
		if ev.Zone.Kind == ZoneNone {
			return DragState{Phase: PhaseDragging, TaskID: s.TaskID}, nil
		}
		return DragState{Phase: PhaseDraggingOver, TaskID: s.TaskID, Zone: ev.Zone}, nil

	case EventDragLeave:
		if s.Phase == PhaseDraggingOver && ev.LeftContainer && ev.Zone == s.Zone {
			return DragState{Phase: PhaseDragging, TaskID: s.TaskID}, nil
		}
		return s, nil

	case EventDrop:
		if s.Phase == PhaseIdle {
			return Idle, nil
		}
		return Idle, intentFor(s.TaskID, ev.Zone, dc)

	case EventDragEnd:
		return Idle, nil
	}
	return s, nil
}

func intentFor(taskID string, z Zone, dc DropContext) *Intent {
	switch z.Kind {
	case ZoneColumn:
		if !z.Priority.Known() {
			return nil
		}
		return &Intent{Kind: IntentReassignPriority, TaskID: taskID, Priority: z.Priority}
	case ZoneQuadrant:
		return &Intent{Kind: IntentReassignQuadrant, TaskID: taskID, Quadrant: z.Quadrant}
	case ZoneListSlot:
		if !dc.ManualSort || z.Index < 0 {
			return nil
		}
		return &Intent{Kind: IntentReorder, TaskID: taskID, Index: z.Index}
	}
	return nil
}

// DragMachine holds a DragState and advances it through Transition.
// It is not safe for concurrent use.
type DragMachine struct {
	state DragState
}

// State returns the current state.
func (m *DragMachine) State() DragState { return m.state }

// Fire applies ev and returns the intent produced, if any.
func (m *DragMachine) Fire(ev Event, dc DropContext) *Intent {
	next, intent := Transition(m.state, ev, dc)
	m.state = next
	return intent
}

// Reset returns the machine to idle.
func (m *DragMachine) Reset() { m.state = Idle }
