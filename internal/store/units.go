package store

import (
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/calvinalkan/tasktree/internal/task"
)

// DefaultUnit is the key of the unit holding tasks without a project.
const DefaultUnit = ""

// Unit is the persisted group of one project's tasks, or of the unassigned
// tasks when Project is nil.
type Unit struct {
	Project *task.Project `json:"project,omitempty"`
	Tasks   []task.Task   `json:"tasks"`
}

// Clone returns a deep copy of u.
func (u Unit) Clone() Unit {
	out := Unit{Tasks: make([]task.Task, len(u.Tasks))}

	if u.Project != nil {
		p := *u.Project
		out.Project = &p
	}

	for i := range u.Tasks {
		out.Tasks[i] = u.Tasks[i].Clone()
	}

	return out
}

// Units is the repository of units the [Store] scans and mutates.
//
// Keys are project ids; [DefaultUnit] always exists implicitly and is never
// returned by Keys.
type Units interface {
	// Keys returns the keys of all project units, sorted.
	Keys() ([]string, error)

	// Load returns the unit stored under key. A missing unit loads as empty.
	Load(key string) (Unit, error)

	// Save replaces the unit stored under key.
	Save(key string, u Unit) error

	// Remove deletes the unit stored under key. Removing a missing unit is not an error.
	Remove(key string) error
}

// Locker is implemented by [Units] that guard commits with an exclusive lock.
type Locker interface {
	Lock() (io.Closer, error)
}

// MemoryUnits keeps units in memory. It is used by tests and by throwaway sessions.
//
// MemoryUnits is safe for concurrent use.
type MemoryUnits struct {
	mu    sync.Mutex
	units map[string]Unit
	saves int
}

// NewMemoryUnits returns an empty in-memory repository.
func NewMemoryUnits() *MemoryUnits {
	return &MemoryUnits{units: make(map[string]Unit)}
}

func (m *MemoryUnits) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := slices.Sorted(maps.Keys(m.units))

	return slices.DeleteFunc(keys, func(k string) bool { return k == DefaultUnit }), nil
}

func (m *MemoryUnits) Load(key string) (Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.units[key]
	if !ok {
		return Unit{Tasks: []task.Task{}}, nil
	}

	return u.Clone(), nil
}

func (m *MemoryUnits) Save(key string, u Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.units[key] = u.Clone()
	m.saves++

	return nil
}

func (m *MemoryUnits) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.units, key)

	return nil
}

// Saves returns how many Save calls succeeded.
func (m *MemoryUnits) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}

var _ Units = (*MemoryUnits)(nil)
