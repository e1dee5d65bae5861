package projection

import (
	"math"

	"github.com/Jayphen/todoboard/internal/tasks"
)

// Visible returns the filtered and sorted task list for cfg.
func Visible(all []tasks.Task, cfg Config, env Env) []tasks.Task {
	return Sort(Filter(all, cfg.Filter, env), cfg.Sort, env)
}

// Run executes the full pipeline: filter, sort, then group for cfg.View.
func Run(all []tasks.Task, cfg Config, env Env) Projection {
	return Project(Visible(all, cfg, env), cfg.View)
}

// Stats summarises a task collection independent of any filter.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"` // rounded percent
}

// ComputeStats counts completed, pending and overdue tasks.
func ComputeStats(all []tasks.Task, env Env) Stats {
	var s Stats
	s.Total = len(all)
	for _, t := range all {
		if tasks.IsCompleted(t) {
			s.Completed++
		} else {
			s.Pending++
		}
		if tasks.IsOverdue(t, env.Now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
