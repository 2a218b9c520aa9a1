package store

import (
	"strings"

	"github.com/calvinalkan/tasktree/internal/task"
)

// taskRef locates a task inside a loaded unit.
type taskRef struct {
	key  string
	unit *Unit
	idx  int
}

func (r taskRef) task() *task.Task {
	return &r.unit.Tasks[r.idx]
}

// findTask resolves an id or id prefix (case-insensitive). An exact id match
// anywhere wins; otherwise the first prefix match in scan order wins.
func (t *tx) findTask(idOrPrefix string) (taskRef, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if needle == "" {
		return taskRef{}, false, nil
	}

	var (
		exact, prefix       taskRef
		hasExact, hasPrefix bool
	)

	err := t.each(func(key string, u *Unit) bool {
		for i := range u.Tasks {
			id := strings.ToLower(u.Tasks[i].ID)

			if id == needle {
				exact, hasExact = taskRef{key: key, unit: u, idx: i}, true

				return false
			}

			if !hasPrefix && strings.HasPrefix(id, needle) {
				prefix, hasPrefix = taskRef{key: key, unit: u, idx: i}, true
			}
		}

		return true
	})
	if err != nil {
		return taskRef{}, false, err
	}

	if hasExact {
		return exact, true, nil
	}

	return prefix, hasPrefix, nil
}

// findTaskByID resolves a full id only.
func (t *tx) findTaskByID(id string) (taskRef, bool, error) {
	var (
		ref   taskRef
		found bool
	)

	err := t.each(func(key string, u *Unit) bool {
		for i := range u.Tasks {
			if u.Tasks[i].ID == id {
				ref, found = taskRef{key: key, unit: u, idx: i}, true

				return false
			}
		}

		return true
	})

	return ref, found, err
}

// taskIndex maps every task id to its location.
func (t *tx) taskIndex() (map[string]taskRef, error) {
	index := make(map[string]taskRef)

	err := t.each(func(key string, u *Unit) bool {
		for i := range u.Tasks {
			index[u.Tasks[i].ID] = taskRef{key: key, unit: u, idx: i}
		}

		return true
	})

	return index, err
}

// allTasks returns copies of every task in scan order.
func (t *tx) allTasks() ([]task.Task, error) {
	var tasks []task.Task

	err := t.each(func(_ string, u *Unit) bool {
		for i := range u.Tasks {
			tasks = append(tasks, u.Tasks[i].Clone())
		}

		return true
	})

	return tasks, err
}

// findProject resolves a project id or id prefix (case-insensitive) with the
// same exact-before-prefix rule as findTask.
func (t *tx) findProject(idOrPrefix string) (string, *task.Project, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if needle == "" {
		return "", nil, false, nil
	}

	keys, err := t.projectKeys()
	if err != nil {
		return "", nil, false, err
	}

	var (
		prefixKey string
		prefix    *task.Project
	)

	for _, key := range keys {
		u, err := t.unit(key)
		if err != nil {
			return "", nil, false, err
		}

		if u.Project == nil {
			continue
		}

		id := strings.ToLower(u.Project.ID)

		if id == needle {
			return key, u.Project, true, nil
		}

		if prefix == nil && strings.HasPrefix(id, needle) {
			prefixKey, prefix = key, u.Project
		}
	}

	return prefixKey, prefix, prefix != nil, nil
}

// findProjectByName matches a project name exactly, ignoring case. First match wins.
func (t *tx) findProjectByName(name string) (string, *task.Project, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, false, nil
	}

	keys, err := t.projectKeys()
	if err != nil {
		return "", nil, false, err
	}

	for _, key := range keys {
		u, err := t.unit(key)
		if err != nil {
			return "", nil, false, err
		}

		if u.Project != nil && strings.EqualFold(u.Project.Name, name) {
			return key, u.Project, true, nil
		}
	}

	return "", nil, false, nil
}

// resolveProject tries id-or-prefix first, then name.
func (t *tx) resolveProject(idOrName string) (string, *task.Project, bool, error) {
	key, p, ok, err := t.findProject(idOrName)
	if err != nil || ok {
		return key, p, ok, err
	}

	return t.findProjectByName(idOrName)
}

// idTaken reports whether id is used by any task or project.
func (t *tx) idTaken(id string) (bool, error) {
	_, found, err := t.findTaskByID(id)
	if err != nil || found {
		return found, err
	}

	keys, err := t.projectKeys()
	if err != nil {
		return false, err
	}

	for _, key := range keys {
		if strings.EqualFold(key, id) {
			return true, nil
		}
	}

	return false, nil
}

// newID generates an id unused by any task or project.
func (t *tx) newID() (string, error) {
	var scanErr error

	id, err := task.NewID(func(candidate string) bool {
		taken, err := t.idTaken(candidate)
		if err != nil {
			scanErr = err

			return false
		}

		return taken
	})
	if scanErr != nil {
		return "", scanErr
	}

	return id, err
}
