package store

import (
	"github.com/calvinalkan/tasktree/internal/task"
)

// Stats summarizes a set of tasks.
type Stats struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"byStatus"`
	ByPriority map[task.Priority]int `json:"byPriority"`
	// Overdue counts open tasks whose due date has passed.
	Overdue int `json:"overdue"`
	// Ready counts Todo tasks without blocking dependencies.
	Ready int `json:"ready"`
}

// Stats counts every task of one project, or of every unit when projectID is
// empty. Closed tasks are included. Every status and priority has an entry.
func (s *Store) Stats(projectID string) (Stats, error) {
	tx := s.begin()

	keys, err := tx.filterKeys(projectID)
	if err != nil {
		return Stats{}, err
	}

	// Dependencies may point across units.
	index, err := tx.taskIndex()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		ByStatus:   make(map[task.Status]int, len(task.Statuses)),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
	}

	for _, status := range task.Statuses {
		st.ByStatus[status] = 0
	}

	for _, priority := range task.Priorities {
		st.ByPriority[priority] = 0
	}

	now := s.clock()

	for _, key := range keys {
		u, err := tx.unit(key)
		if err != nil {
			return Stats{}, err
		}

		for i := range u.Tasks {
			tk := &u.Tasks[i]

			st.Total++
			st.ByStatus[tk.Status]++
			st.ByPriority[tk.Priority]++

			if !tk.Status.IsClosed() && tk.DueDate != nil && tk.DueDate.Before(now) {
				st.Overdue++
			}

			if tk.Status == task.StatusTodo && len(blockingDeps(index, tk)) == 0 {
				st.Ready++
			}
		}
	}

	return st, nil
}
