package store

import (
	"cmp"
	"slices"

	"github.com/calvinalkan/tasktree/internal/task"
)

// Filter selects tasks for [Store.ListTasks]. Zero fields match everything.
type Filter struct {
	Status   *task.Status
	Priority *task.Priority
	Tag      string // case-insensitive
	// ProjectID limits the scan to one project (id, id prefix or name).
	// "none" and "null" select the default unit only.
	ProjectID string
	// IncludeCompleted keeps Done and Cancelled tasks. An explicit closed
	// Status filter includes them regardless.
	IncludeCompleted bool
}

func (f Filter) match(tk *task.Task) bool {
	if f.Status != nil {
		if tk.Status != *f.Status {
			return false
		}
	} else if !f.IncludeCompleted && tk.Status.IsClosed() {
		return false
	}

	if f.Priority != nil && tk.Priority != *f.Priority {
		return false
	}

	if f.Tag != "" && !tk.HasTag(f.Tag) {
		return false
	}

	return true
}

// ListTasks returns the tasks matching f, sorted by priority (highest first),
// then order, then creation time, then id.
func (s *Store) ListTasks(f Filter) ([]task.Task, error) {
	tx := s.begin()

	keys, err := tx.filterKeys(f.ProjectID)
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0)

	for _, key := range keys {
		u, err := tx.unit(key)
		if err != nil {
			return nil, err
		}

		for i := range u.Tasks {
			if f.match(&u.Tasks[i]) {
				tasks = append(tasks, u.Tasks[i].Clone())
			}
		}
	}

	sortTasks(tasks)

	return tasks, nil
}

// filterKeys returns the units a project filter covers. An unknown project
// covers nothing.
func (t *tx) filterKeys(projectID string) ([]string, error) {
	switch {
	case projectID == "":
		return t.scanKeys()
	case task.IsClearValue(projectID):
		return []string{DefaultUnit}, nil
	}

	key, _, ok, err := t.resolveProject(projectID)
	if err != nil {
		return nil, err
	}

	if !ok {
		t.s.logger.Debug("project filter matches nothing", "project", projectID)

		return nil, nil
	}

	return []string{key}, nil
}

func sortTasks(tasks []task.Task) {
	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		return cmp.Or(
			cmp.Compare(b.Priority.Rank(), a.Priority.Rank()),
			cmp.Compare(a.Order, b.Order),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
