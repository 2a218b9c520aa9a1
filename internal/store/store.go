// Package store owns all persisted tasks and projects and implements the
// hierarchy, dependency and statistics algorithms on top of a [Units] repository.
//
// Every call runs in its own transaction: units are loaded at most once,
// changes are staged in memory and written together at the end. Nothing is
// written when an operation fails before its commit.
package store

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/tasktree/internal/fs"
)

// Store is the task/project data store.
//
// A Store is not safe for concurrent use; callers issue one request at a time.
type Store struct {
	units  Units
	logger *log.Logger
	now    func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source. Returned times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store over units.
func New(units Units, opts ...Option) *Store {
	s := &Store{
		units:  units,
		logger: discardLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open returns a store persisted as JSON files under dir, creating dir if needed.
func Open(fsys fs.FS, dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("open store: directory is empty")
	}

	exists, err := fsys.Exists(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := New(nil, opts...)

	if !exists {
		err = fsys.MkdirAll(dir, dirPerms)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}

		s.logger.Debug("data directory created", "dir", dir)
	}

	s.units = NewFileUnits(fsys, dir, s.logger)

	return s, nil
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// tx caches loaded units for one operation and stages their writes.
type tx struct {
	s *Store

	loaded  map[string]*Unit
	keys    []string // project unit keys in scan order, nil until loaded
	dirty   map[string]bool
	removed map[string]bool
}

func (s *Store) begin() *tx {
	return &tx{
		s:       s,
		loaded:  make(map[string]*Unit),
		dirty:   make(map[string]bool),
		removed: make(map[string]bool),
	}
}

// unit returns the unit for key, loading it on first use.
func (t *tx) unit(key string) (*Unit, error) {
	if u, ok := t.loaded[key]; ok {
		return u, nil
	}

	loaded, err := t.s.units.Load(key)
	if err != nil {
		return nil, err
	}

	u := &loaded
	t.loaded[key] = u

	return u, nil
}

// projectKeys returns the keys of every live project unit.
func (t *tx) projectKeys() ([]string, error) {
	if t.keys == nil {
		keys, err := t.s.units.Keys()
		if err != nil {
			return nil, err
		}

		t.keys = append([]string{}, keys...)
	}

	live := make([]string, 0, len(t.keys))

	for _, key := range t.keys {
		if !t.removed[key] {
			live = append(live, key)
		}
	}

	return live, nil
}

// scanKeys returns the default unit followed by every project unit.
func (t *tx) scanKeys() ([]string, error) {
	keys, err := t.projectKeys()
	if err != nil {
		return nil, err
	}

	return append([]string{DefaultUnit}, keys...), nil
}

// each calls fn for every unit in scan order until fn returns false.
func (t *tx) each(fn func(key string, u *Unit) bool) error {
	keys, err := t.scanKeys()
	if err != nil {
		return err
	}

	for _, key := range keys {
		u, err := t.unit(key)
		if err != nil {
			return err
		}

		if !fn(key, u) {
			return nil
		}
	}

	return nil
}

// create registers a new unit under key.
func (t *tx) create(key string, u Unit) error {
	_, err := t.projectKeys()
	if err != nil {
		return err
	}

	t.keys = append(t.keys, key)
	t.loaded[key] = &u
	t.dirty[key] = true
	delete(t.removed, key)

	return nil
}

func (t *tx) touch(key string) {
	t.dirty[key] = true
}

func (t *tx) drop(key string) {
	t.removed[key] = true
	delete(t.dirty, key)
}

// commit writes every staged unit, then removes dropped units, under the
// repository lock when the repository provides one.
func (t *tx) commit() error {
	if len(t.dirty) == 0 && len(t.removed) == 0 {
		return nil
	}

	if locker, ok := t.s.units.(Locker); ok {
		lock, err := locker.Lock()
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		defer func() { _ = lock.Close() }()
	}

	keys, err := t.scanKeys()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, key := range keys {
		if !t.dirty[key] {
			continue
		}

		err := t.s.units.Save(key, *t.loaded[key])
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	for key := range t.removed {
		err := t.s.units.Remove(key)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	t.s.logger.Debug("committed", "saved", len(t.dirty), "removed", len(t.removed))

	return nil
}
