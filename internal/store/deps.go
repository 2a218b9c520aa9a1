package store

import (
	"slices"
	"strings"

	"github.com/calvinalkan/tasktree/internal/task"
)

// AddDependency records that the task resolved from taskID depends on the
// task resolved from dependsOnID. It returns false without writing when
// either task is missing, when both are the same task, or when the edge would
// close a cycle. Adding an existing edge returns true and writes nothing.
func (s *Store) AddDependency(taskID, dependsOnID string) (bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return false, err
	}

	depRef, ok, err := tx.findTask(dependsOnID)
	if err != nil || !ok {
		return false, err
	}

	tk, dep := ref.task(), depRef.task()

	if tk.ID == dep.ID {
		return false, nil
	}

	if slices.Contains(tk.DependsOn, dep.ID) {
		return true, nil
	}

	index, err := tx.taskIndex()
	if err != nil {
		return false, err
	}

	if reachable(index, dep.ID, tk.ID) {
		s.logger.Warn("dependency refused: would create cycle", "task", tk.ID, "dependsOn", dep.ID)

		return false, nil
	}

	tk.DependsOn = append(tk.DependsOn, dep.ID)
	tk.UpdatedAt = s.clock()
	tx.touch(ref.key)

	err = tx.commit()
	if err != nil {
		return false, err
	}

	return true, nil
}

// reachable reports whether to is reachable from from along dependsOn edges.
func reachable(index map[string]taskRef, from, to string) bool {
	seen := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == to {
			return true
		}

		ref, ok := index[id]
		if !ok {
			continue
		}

		for _, next := range ref.task().DependsOn {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

// RemoveDependency drops the edge from taskID to dependsOnID. dependsOnID may
// name a task that no longer exists. It returns false when there was no such edge.
func (s *Store) RemoveDependency(taskID, dependsOnID string) (bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return false, err
	}

	target := strings.TrimSpace(dependsOnID)

	depRef, ok, err := tx.findTask(target)
	if err != nil {
		return false, err
	}

	if ok {
		target = depRef.task().ID
	}

	tk := ref.task()
	before := len(tk.DependsOn)

	tk.DependsOn = slices.DeleteFunc(tk.DependsOn, func(id string) bool { return strings.EqualFold(id, target) })
	if len(tk.DependsOn) == before {
		return false, nil
	}

	tk.UpdatedAt = s.clock()
	tx.touch(ref.key)

	err = tx.commit()
	if err != nil {
		return false, err
	}

	return true, nil
}

// Dependencies returns the tasks the resolved task depends on, in edge order.
// Ids that no longer resolve are skipped.
func (s *Store) Dependencies(taskID string) ([]task.Task, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return []task.Task{}, err
	}

	index, err := tx.taskIndex()
	if err != nil {
		return nil, err
	}

	deps := make([]task.Task, 0, len(ref.task().DependsOn))

	for _, id := range ref.task().DependsOn {
		if dep, ok := index[id]; ok {
			deps = append(deps, dep.task().Clone())
		}
	}

	return deps, nil
}

// Dependents returns the tasks that depend on the resolved task, in scan order.
func (s *Store) Dependents(taskID string) ([]task.Task, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return []task.Task{}, err
	}

	id := ref.task().ID
	dependents := make([]task.Task, 0)

	err = tx.each(func(_ string, u *Unit) bool {
		for i := range u.Tasks {
			if slices.Contains(u.Tasks[i].DependsOn, id) {
				dependents = append(dependents, u.Tasks[i].Clone())
			}
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return dependents, nil
}

// BlockingDependencies returns the ids of the dependencies of the resolved
// task that exist and are not closed.
func (s *Store) BlockingDependencies(taskID string) ([]string, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return []string{}, err
	}

	index, err := tx.taskIndex()
	if err != nil {
		return nil, err
	}

	return blockingDeps(index, ref.task()), nil
}

func blockingDeps(index map[string]taskRef, tk *task.Task) []string {
	blocking := make([]string, 0)

	for _, id := range tk.DependsOn {
		dep, ok := index[id]
		if ok && !dep.task().Status.IsClosed() {
			blocking = append(blocking, id)
		}
	}

	return blocking
}

// CanStart reports whether the resolved task exists and has no blocking dependencies.
func (s *Store) CanStart(taskID string) (bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(taskID)
	if err != nil || !ok {
		return false, err
	}

	index, err := tx.taskIndex()
	if err != nil {
		return false, err
	}

	return len(blockingDeps(index, ref.task())) == 0, nil
}

// ReadyTasks returns the Todo tasks with no blocking dependencies in one
// project, or in every unit when projectID is empty, sorted like [Store.ListTasks].
func (s *Store) ReadyTasks(projectID string) ([]task.Task, error) {
	tx := s.begin()

	keys, err := tx.filterKeys(projectID)
	if err != nil {
		return nil, err
	}

	index, err := tx.taskIndex()
	if err != nil {
		return nil, err
	}

	ready := make([]task.Task, 0)

	for _, key := range keys {
		u, err := tx.unit(key)
		if err != nil {
			return nil, err
		}

		for i := range u.Tasks {
			tk := &u.Tasks[i]
			if tk.Status == task.StatusTodo && len(blockingDeps(index, tk)) == 0 {
				ready = append(ready, tk.Clone())
			}
		}
	}

	sortTasks(ready)

	return ready, nil
}
