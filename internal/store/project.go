package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/calvinalkan/tasktree/internal/task"
)

// ProjectUpdate holds the project fields to change. Nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// CreateProject creates a project with its own empty unit.
func (s *Store) CreateProject(name, description string) (task.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return task.Project{}, task.ErrNameRequired
	}

	tx := s.begin()

	id, err := tx.newID()
	if err != nil {
		return task.Project{}, err
	}

	now := s.clock()
	project := task.Project{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	p := project

	err = tx.create(id, Unit{Project: &p, Tasks: []task.Task{}})
	if err != nil {
		return task.Project{}, err
	}

	err = tx.commit()
	if err != nil {
		return task.Project{}, err
	}

	s.logger.Info("project created", "id", id, "name", name)

	return project, nil
}

// GetProject resolves a project by id or id prefix.
func (s *Store) GetProject(idOrPrefix string) (task.Project, bool, error) {
	_, p, ok, err := s.begin().findProject(idOrPrefix)
	if err != nil || !ok {
		return task.Project{}, false, err
	}

	return *p, true, nil
}

// GetProjectByName resolves a project by case-insensitive name.
func (s *Store) GetProjectByName(name string) (task.Project, bool, error) {
	_, p, ok, err := s.begin().findProjectByName(name)
	if err != nil || !ok {
		return task.Project{}, false, err
	}

	return *p, true, nil
}

// ResolveProject resolves a project by id, id prefix or name, in that order.
func (s *Store) ResolveProject(idOrName string) (task.Project, bool, error) {
	_, p, ok, err := s.begin().resolveProject(idOrName)
	if err != nil || !ok {
		return task.Project{}, false, err
	}

	return *p, true, nil
}

// ListProjects returns all projects sorted by name (case-insensitive), then id.
func (s *Store) ListProjects() ([]task.Project, error) {
	tx := s.begin()

	keys, err := tx.projectKeys()
	if err != nil {
		return nil, err
	}

	projects := make([]task.Project, 0, len(keys))

	for _, key := range keys {
		u, err := tx.unit(key)
		if err != nil {
			return nil, err
		}

		if u.Project != nil {
			projects = append(projects, *u.Project)
		}
	}

	slices.SortFunc(projects, func(a, b task.Project) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return projects, nil
}

// UpdateProject applies upd to the project resolved from id.
// An empty name in upd is ignored.
func (s *Store) UpdateProject(id string, upd ProjectUpdate) (task.Project, bool, error) {
	tx := s.begin()

	key, p, ok, err := tx.findProject(id)
	if err != nil || !ok {
		return task.Project{}, false, err
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		p.Name = strings.TrimSpace(*upd.Name)
	}

	if upd.Description != nil {
		p.Description = *upd.Description
	}

	p.UpdatedAt = s.clock()
	tx.touch(key)

	err = tx.commit()
	if err != nil {
		return task.Project{}, false, err
	}

	return *p, true, nil
}

// DeleteProject removes a project and its unit. With cascade the project's
// tasks are discarded; otherwise they move to the default unit with their
// project cleared and their parent links untouched.
func (s *Store) DeleteProject(id string, cascade bool) (bool, error) {
	tx := s.begin()

	key, p, ok, err := tx.findProject(id)
	if err != nil || !ok {
		return false, err
	}

	u, err := tx.unit(key)
	if err != nil {
		return false, err
	}

	if !cascade && len(u.Tasks) > 0 {
		def, err := tx.unit(DefaultUnit)
		if err != nil {
			return false, err
		}

		now := s.clock()

		for _, moved := range u.Tasks {
			moved.ProjectID = ""
			moved.UpdatedAt = now
			adopt(def, moved)
		}

		tx.touch(DefaultUnit)
	}

	tx.drop(key)

	err = tx.commit()
	if err != nil {
		return false, err
	}

	s.logger.Info("project deleted", "id", p.ID, "cascade", cascade, "tasks", len(u.Tasks))

	return true, nil
}
