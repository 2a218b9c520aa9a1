package store

import (
	"fmt"

	"github.com/calvinalkan/tasktree/internal/task"
)

// MoveToProject moves the resolved task and all its descendants to the unit
// of projectID ("", "none" or "null" for the default unit). The moved task
// becomes a root there; parent links below it are kept.
func (s *Store) MoveToProject(id, projectID string) (task.Task, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(id)
	if err != nil {
		return task.Task{}, err
	}

	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}

	targetKey := DefaultUnit

	if !task.IsClearValue(projectID) {
		key, _, found, err := tx.resolveProject(projectID)
		if err != nil {
			return task.Task{}, err
		}

		if !found {
			return task.Task{}, fmt.Errorf("%w: %s", task.ErrProjectNotFound, projectID)
		}

		targetKey = key
	}

	root := ref.task().Clone()

	all, err := tx.allTasks()
	if err != nil {
		return task.Task{}, err
	}

	moving := map[string]bool{root.ID: true}
	for _, d := range collectDescendants(all, root.ID) {
		moving[d.ID] = true
	}

	// Pull the subtree out of every unit, keeping file order.
	var subtree []task.Task

	err = tx.each(func(key string, u *Unit) bool {
		kept := make([]task.Task, 0, len(u.Tasks))

		for _, tk := range u.Tasks {
			if moving[tk.ID] {
				subtree = append(subtree, tk)
			} else {
				kept = append(kept, tk)
			}
		}

		if len(kept) != len(u.Tasks) {
			u.Tasks = kept
			tx.touch(key)
		}

		return true
	})
	if err != nil {
		return task.Task{}, err
	}

	target, err := tx.unit(targetKey)
	if err != nil {
		return task.Task{}, err
	}

	now := s.clock()

	var moved task.Task

	for _, tk := range subtree {
		tk.ProjectID = targetKey
		tk.UpdatedAt = now

		if tk.ID == root.ID {
			tk.ParentID = ""
			tk.Order = nextOrder(target, "")
			moved = tk
			target.Tasks = append(target.Tasks, tk)

			continue
		}

		adopt(target, tk)
	}

	tx.touch(targetKey)

	err = tx.commit()
	if err != nil {
		return task.Task{}, err
	}

	s.logger.Info("task moved", "id", root.ID, "project", targetKey, "tasks", len(subtree))

	return moved.Clone(), nil
}
