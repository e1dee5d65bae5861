package projection

import "github.com/Jayphen/todoboard/internal/tasks"

// KanbanBuckets groups tasks by priority.
type KanbanBuckets struct {
	High   []tasks.Task `json:"high"`
	Medium []tasks.Task `json:"medium"`
	Low    []tasks.Task `json:"low"`

	// Unclassified holds tasks whose priority is none of the three columns.
	// They never appear in High, Medium or Low.
	Unclassified []tasks.Task `json:"unclassified,omitempty"`
}

// Column returns the bucket for a known priority, or nil.
func (k *KanbanBuckets) Column(p tasks.Priority) []tasks.Task {
	switch p {
	case tasks.PriorityHigh:
		return k.High
	case tasks.PriorityMedium:
		return k.Medium
	case tasks.PriorityLow:
		return k.Low
	}
	return nil
}

// Quadrant identifies one cell of the urgency/importance matrix.
type Quadrant struct {
	Urgent    bool `json:"urgent"`
	Important bool `json:"important"`
}

// Quadrants lists the matrix cells in display order.
var Quadrants = []Quadrant{
	{Urgent: true, Important: true},
	{Urgent: false, Important: true},
	{Urgent: true, Important: false},
	{Urgent: false, Important: false},
}

// QuadrantOf returns the matrix cell a task belongs in.
func QuadrantOf(t tasks.Task) Quadrant {
	return Quadrant{Urgent: t.Urgent, Important: t.Important}
}

// MatrixBuckets groups tasks by the urgent × important cross product.
type MatrixBuckets struct {
	UrgentImportant       []tasks.Task `json:"urgentImportant"`
	NotUrgentImportant    []tasks.Task `json:"notUrgentImportant"`
	UrgentNotImportant    []tasks.Task `json:"urgentNotImportant"`
	NotUrgentNotImportant []tasks.Task `json:"notUrgentNotImportant"`
}

// Cell returns the bucket for a quadrant.
func (m *MatrixBuckets) Cell(q Quadrant) []tasks.Task {
	switch {
	case q.Urgent && q.Important:
		return m.UrgentImportant
	case q.Important:
		return m.NotUrgentImportant
	case q.Urgent:
		return m.UrgentNotImportant
	default:
		return m.NotUrgentNotImportant
	}
}

// Projection is the output of the pipeline for one view.
type Projection struct {
	View   View           `json:"view"`
	List   []tasks.Task   `json:"list"`
	Kanban *KanbanBuckets `json:"kanban,omitempty"`
	Matrix *MatrixBuckets `json:"matrix,omitempty"`
}

// Project groups an already filtered and sorted collection for a view. It
// never drops or reorders tasks within a bucket.
func Project(sorted []tasks.Task, view View) Projection {
	p := Projection{View: view, List: sorted}
	switch view {
	case ViewKanban:
		p.Kanban = groupKanban(sorted)
	case ViewMatrix:
		p.Matrix = groupMatrix(sorted)
	default:
		p.View = ViewList
	}
	return p
}

func groupKanban(sorted []tasks.Task) *KanbanBuckets {
	k := &KanbanBuckets{
		High:   []tasks.Task{},
		Medium: []tasks.Task{},
		Low:    []tasks.Task{},
	}
	for _, t := range sorted {
		switch t.Priority {
		case tasks.PriorityHigh:
			k.High = append(k.High, t)
		case tasks.PriorityMedium:
			k.Medium = append(k.Medium, t)
		case tasks.PriorityLow:
			k.Low = append(k.Low, t)
		default:
			k.Unclassified = append(k.Unclassified, t)
		}
	}
	return k
}

func groupMatrix(sorted []tasks.Task) *MatrixBuckets {
	m := &MatrixBuckets{
		UrgentImportant:       []tasks.Task{},
		NotUrgentImportant:    []tasks.Task{},
		UrgentNotImportant:    []tasks.Task{},
		NotUrgentNotImportant: []tasks.Task{},
	}
	for _, t := range sorted {
		switch {
		case t.Urgent && t.Important:
			m.UrgentImportant = append(m.UrgentImportant, t)
		case t.Important:
			m.NotUrgentImportant = append(m.NotUrgentImportant, t)
		case t.Urgent:
			m.UrgentNotImportant = append(m.UrgentNotImportant, t)
		default:
			m.NotUrgentNotImportant = append(m.NotUrgentNotImportant, t)
		}
	}
	return m
}
