package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/calvinalkan/tasktree/internal/task"
)

// NewTask holds the fields of a task to create.
type NewTask struct {
	Title       string
	Description string
	Priority    task.Priority // empty means task.DefaultPriority
	Tags        []string
	DueDate     *time.Time
	ParentID    string // id or id prefix; empty for a root task
	ProjectID   string // id, id prefix or name; empty inherits the parent's project
}

// TaskUpdate holds the task fields to change. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *task.Status
	Priority    *task.Priority
	Tags        *[]string
	DueDate     *time.Time
	// ClearDueDate removes the due date. It wins over DueDate.
	ClearDueDate bool
	// ParentID re-parents the task. "", "none" and "null" detach it to the root.
	// A parent that does not resolve or would create a cycle is ignored.
	ParentID *string
}

// AddTask creates a task in the unit of its resolved project.
func (s *Store) AddTask(in NewTask) (task.Task, error) {
	tx := s.begin()

	created, err := tx.addTask(in, s.clock())
	if err != nil {
		return task.Task{}, err
	}

	err = tx.commit()
	if err != nil {
		return task.Task{}, err
	}

	s.logger.Debug("task created", "id", created.ID, "project", created.ProjectID, "parent", created.ParentID)

	return created, nil
}

func (t *tx) addTask(in NewTask, now time.Time) (task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return task.Task{}, task.ErrTitleRequired
	}

	priority := in.Priority
	if priority == "" {
		priority = task.DefaultPriority
	}

	if !priority.Valid() {
		return task.Task{}, fmt.Errorf("%w: %q", task.ErrInvalidPriority, priority)
	}

	var (
		parentID   string
		projectKey = DefaultUnit
	)

	if !task.IsClearValue(in.ParentID) {
		ref, ok, err := t.findTask(in.ParentID)
		if err != nil {
			return task.Task{}, err
		}

		if !ok {
			return task.Task{}, fmt.Errorf("%w: %s", task.ErrParentNotFound, in.ParentID)
		}

		parentID = ref.task().ID
		projectKey = ref.key
	}

	if !task.IsClearValue(in.ProjectID) {
		key, _, ok, err := t.resolveProject(in.ProjectID)
		if err != nil {
			return task.Task{}, err
		}

		if !ok {
			return task.Task{}, fmt.Errorf("%w: %s", task.ErrProjectNotFound, in.ProjectID)
		}

		projectKey = key
	}

	u, err := t.unit(projectKey)
	if err != nil {
		return task.Task{}, err
	}

	id, err := t.newID()
	if err != nil {
		return task.Task{}, err
	}

	created := task.Task{
		ID:          id,
		ParentID:    parentID,
		ProjectID:   projectKey,
		Title:       title,
		Description: in.Description,
		Status:      task.StatusTodo,
		Priority:    priority,
		Tags:        cleanTags(in.Tags),
		Order:       nextOrder(u, parentID),
		CreatedAt:   now,
		UpdatedAt:   now,
		DependsOn:   []string{},
	}

	if in.DueDate != nil {
		due := in.DueDate.UTC()
		created.DueDate = &due
	}

	u.Tasks = append(u.Tasks, created)
	t.touch(projectKey)

	return created.Clone(), nil
}

// GetTask resolves a task by id or id prefix across all units.
func (s *Store) GetTask(idOrPrefix string) (task.Task, bool, error) {
	ref, ok, err := s.begin().findTask(idOrPrefix)
	if err != nil || !ok {
		return task.Task{}, false, err
	}

	return ref.task().Clone(), true, nil
}

// UpdateTask applies upd to the task resolved from id. updatedAt is always
// refreshed when the task exists, even if upd changes nothing else.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (task.Task, bool, error) {
	err := validateUpdate(upd)
	if err != nil {
		return task.Task{}, false, err
	}

	tx := s.begin()

	ref, ok, err := tx.findTask(id)
	if err != nil || !ok {
		return task.Task{}, false, err
	}

	now := s.clock()
	tk := ref.task()

	if upd.Title != nil {
		tk.Title = strings.TrimSpace(*upd.Title)
	}

	if upd.Description != nil {
		tk.Description = *upd.Description
	}

	if upd.Status != nil {
		tk.SetStatus(*upd.Status, now)
	}

	if upd.Priority != nil {
		tk.Priority = *upd.Priority
	}

	if upd.Tags != nil {
		tk.Tags = cleanTags(*upd.Tags)
	}

	switch {
	case upd.ClearDueDate:
		tk.DueDate = nil
	case upd.DueDate != nil:
		due := upd.DueDate.UTC()
		tk.DueDate = &due
	}

	if upd.ParentID != nil {
		err = tx.reparent(ref, *upd.ParentID)
		if err != nil {
			return task.Task{}, false, err
		}
	}

	tk.UpdatedAt = now
	tx.touch(ref.key)

	err = tx.commit()
	if err != nil {
		return task.Task{}, false, err
	}

	return tk.Clone(), true, nil
}

func validateUpdate(upd TaskUpdate) error {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return task.ErrTitleRequired
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidStatus, *upd.Status)
	}

	if upd.Priority != nil && !upd.Priority.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidPriority, *upd.Priority)
	}

	return nil
}

// reparent moves ref under newParent, or to the root for a clear value.
// Unresolvable parents and cycles leave the parent unchanged.
func (t *tx) reparent(ref taskRef, newParent string) error {
	tk := ref.task()

	if task.IsClearValue(newParent) {
		if tk.ParentID != "" {
			tk.ParentID = ""
			tk.Order = settleOrder(ref.unit, ref.idx)
		}

		return nil
	}

	parentRef, ok, err := t.findTask(newParent)
	if err != nil {
		return err
	}

	if !ok {
		t.s.logger.Warn("parent not changed: parent not found", "task", tk.ID, "parent", newParent)

		return nil
	}

	parentID := parentRef.task().ID
	if parentID == tk.ParentID {
		return nil
	}

	index, err := t.taskIndex()
	if err != nil {
		return err
	}

	if wouldCreateCycle(index, tk.ID, parentID) {
		t.s.logger.Warn("parent not changed: would create cycle", "task", tk.ID, "parent", parentID)

		return nil
	}

	tk.ParentID = parentID
	tk.Order = settleOrder(ref.unit, ref.idx)

	return nil
}

// wouldCreateCycle walks up from parentID and reports whether taskID is reached.
func wouldCreateCycle(index map[string]taskRef, taskID, parentID string) bool {
	seen := make(map[string]bool)

	for current := parentID; current != ""; {
		if current == taskID {
			return true
		}

		if seen[current] {
			return false
		}

		seen[current] = true

		ref, ok := index[current]
		if !ok {
			return false
		}

		current = ref.task().ParentID
	}

	return false
}

// DeleteTask removes the task resolved from id. With cascade every descendant
// is removed too; otherwise the direct children move to the task's former parent.
func (s *Store) DeleteTask(id string, cascade bool) (bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(id)
	if err != nil || !ok {
		return false, err
	}

	target := ref.task().Clone()
	remove := map[string]bool{target.ID: true}

	all, err := tx.allTasks()
	if err != nil {
		return false, err
	}

	if cascade {
		for _, d := range collectDescendants(all, target.ID) {
			remove[d.ID] = true
		}
	} else {
		err = tx.adoptChildren(target, s.clock())
		if err != nil {
			return false, err
		}
	}

	err = tx.removeTasks(remove)
	if err != nil {
		return false, err
	}

	err = tx.commit()
	if err != nil {
		return false, err
	}

	s.logger.Info("task deleted", "id", target.ID, "cascade", cascade, "removed", len(remove))

	return true, nil
}

// adoptChildren re-parents the direct children of parent to parent's own parent.
func (t *tx) adoptChildren(parent task.Task, now time.Time) error {
	return t.each(func(key string, u *Unit) bool {
		for i := range u.Tasks {
			if u.Tasks[i].ParentID != parent.ID {
				continue
			}

			u.Tasks[i].ParentID = parent.ParentID
			u.Tasks[i].Order = settleOrder(u, i)
			u.Tasks[i].UpdatedAt = now
			t.touch(key)
		}

		return true
	})
}

// removeTasks deletes every task whose id is in ids from every unit.
func (t *tx) removeTasks(ids map[string]bool) error {
	return t.each(func(key string, u *Unit) bool {
		before := len(u.Tasks)

		u.Tasks = slices.DeleteFunc(u.Tasks, func(tk task.Task) bool { return ids[tk.ID] })

		if len(u.Tasks) != before {
			t.touch(key)
		}

		return true
	})
}

// CompleteTask marks the task Done, and every descendant too when recursive.
func (s *Store) CompleteTask(id string, recursive bool) (bool, error) {
	return s.setStatus(id, task.StatusDone, recursive)
}

// StartTask marks the task InProgress.
func (s *Store) StartTask(id string) (bool, error) {
	return s.setStatus(id, task.StatusInProgress, false)
}

// BlockTask marks the task Blocked.
func (s *Store) BlockTask(id string) (bool, error) {
	return s.setStatus(id, task.StatusBlocked, false)
}

func (s *Store) setStatus(id string, status task.Status, recursive bool) (bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(id)
	if err != nil || !ok {
		return false, err
	}

	now := s.clock()
	targets := map[string]bool{ref.task().ID: true}

	if recursive {
		all, err := tx.allTasks()
		if err != nil {
			return false, err
		}

		for _, d := range collectDescendants(all, ref.task().ID) {
			targets[d.ID] = true
		}
	}

	err = tx.each(func(key string, u *Unit) bool {
		for i := range u.Tasks {
			if !targets[u.Tasks[i].ID] {
				continue
			}

			u.Tasks[i].SetStatus(status, now)
			u.Tasks[i].UpdatedAt = now
			tx.touch(key)
		}

		return true
	})
	if err != nil {
		return false, err
	}

	err = tx.commit()
	if err != nil {
		return false, err
	}

	return true, nil
}

// TaskSpec describes a task, and its subtasks, for [Store.AddMany].
type TaskSpec struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"`
	Subtasks    []TaskSpec `json:"subtasks,omitempty"`
}

// AddMany creates a forest of tasks in one commit, under parentID and/or in
// projectID when given. Every spec is validated before anything is created.
// The created tasks are returned in pre-order.
func (s *Store) AddMany(specs []TaskSpec, projectID, parentID string) ([]task.Task, error) {
	for i := range specs {
		err := validateSpec(&specs[i], fmt.Sprintf("[%d]", i))
		if err != nil {
			return nil, err
		}
	}

	tx := s.begin()
	now := s.clock()

	var created []task.Task

	var add func(specs []TaskSpec, parentID, projectID string) error

	add = func(specs []TaskSpec, parentID, projectID string) error {
		for _, spec := range specs {
			in, err := spec.newTask(parentID, projectID)
			if err != nil {
				return err
			}

			tk, err := tx.addTask(in, now.Add(time.Duration(len(created))*time.Microsecond))
			if err != nil {
				return err
			}

			created = append(created, tk)

			err = add(spec.Subtasks, tk.ID, "")
			if err != nil {
				return err
			}
		}

		return nil
	}

	err := add(specs, parentID, projectID)
	if err != nil {
		return nil, err
	}

	err = tx.commit()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tasks created", "count", len(created))

	return created, nil
}

func validateSpec(spec *TaskSpec, path string) error {
	if strings.TrimSpace(spec.Title) == "" {
		return fmt.Errorf("%s: %w", path, task.ErrTitleRequired)
	}

	if _, err := spec.newTask("", ""); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for i := range spec.Subtasks {
		err := validateSpec(&spec.Subtasks[i], fmt.Sprintf("%s.subtasks[%d]", path, i))
		if err != nil {
			return err
		}
	}

	return nil
}

func (spec TaskSpec) newTask(parentID, projectID string) (NewTask, error) {
	in := NewTask{
		Title:       spec.Title,
		Description: spec.Description,
		Tags:        spec.Tags,
		ParentID:    parentID,
		ProjectID:   projectID,
	}

	if spec.Priority != "" {
		p, err := task.ParsePriority(spec.Priority)
		if err != nil {
			return NewTask{}, err
		}

		in.Priority = p
	}

	if spec.DueDate != "" {
		due, err := task.ParseDate(spec.DueDate)
		if err != nil {
			return NewTask{}, err
		}

		in.DueDate = &due
	}

	return in, nil
}

// nextOrder returns one past the highest order among parentID's children in u, or 0.
func nextOrder(u *Unit, parentID string) int {
	next := 0

	for i := range u.Tasks {
		if u.Tasks[i].ParentID == parentID && u.Tasks[i].Order >= next {
			next = u.Tasks[i].Order + 1
		}
	}

	return next
}

// settleOrder returns the order u.Tasks[idx] should take in its current sibling
// scope: its own order when free, otherwise the next free slot.
func settleOrder(u *Unit, idx int) int {
	tk := u.Tasks[idx]

	for i := range u.Tasks {
		if i != idx && u.Tasks[i].ParentID == tk.ParentID && u.Tasks[i].Order == tk.Order {
			return nextOrder(u, tk.ParentID)
		}
	}

	return tk.Order
}

// adopt appends moved to u, renumbering it when its sibling slot is taken.
func adopt(u *Unit, moved task.Task) {
	u.Tasks = append(u.Tasks, moved)
	last := len(u.Tasks) - 1
	u.Tasks[last].Order = settleOrder(u, last)
}

// cleanTags trims tags and drops empty and duplicate (case-insensitive) entries.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		if slices.ContainsFunc(out, func(have string) bool { return strings.EqualFold(have, tag) }) {
			continue
		}

		out = append(out, tag)
	}

	return out
}
