package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/tasktree/internal/fs"
	"github.com/calvinalkan/tasktree/internal/task"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600

	defaultUnitFile = "default.json"
	projectsDir     = "projects"
	lockFile        = ".lock"
	unitExt         = ".json"
)

// FileUnits persists units as JSON files:
//
//	<dir>/default.json           unassigned tasks
//	<dir>/projects/<id>.json     one file per project
//
// Unit files are replaced atomically. A unit file that cannot be parsed is
// treated as empty and reported through the logger.
type FileUnits struct {
	fs     fs.FS
	dir    string
	logger *log.Logger
}

// NewFileUnits returns a file-backed repository rooted at dir.
func NewFileUnits(fsys fs.FS, dir string, logger *log.Logger) *FileUnits {
	if logger == nil {
		logger = discardLogger()
	}

	return &FileUnits{fs: fsys, dir: filepath.Clean(dir), logger: logger}
}

// Path returns the file that stores the unit with the given key.
func (f *FileUnits) Path(key string) string {
	if key == DefaultUnit {
		return filepath.Join(f.dir, defaultUnitFile)
	}

	return filepath.Join(f.dir, projectsDir, key+unitExt)
}

func (f *FileUnits) Keys() ([]string, error) {
	entries, err := f.fs.ReadDir(filepath.Join(f.dir, projectsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("list units: %w", err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, unitExt) || strings.HasPrefix(name, ".") {
			continue
		}

		keys = append(keys, strings.TrimSuffix(name, unitExt))
	}

	slices.Sort(keys)

	return keys, nil
}

func (f *FileUnits) Load(key string) (Unit, error) {
	path := f.Path(key)

	data, err := f.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Unit{Tasks: []task.Task{}}, nil
		}

		return Unit{}, fmt.Errorf("read unit %s: %w", path, err)
	}

	unit, err := decodeUnit(data)
	if err != nil {
		f.logger.Warn("unreadable unit treated as empty", "path", path, "err", err)

		return Unit{Tasks: []task.Task{}}, nil
	}

	return unit, nil
}

// Raw returns the unit file content, or nil if the unit does not exist.
func (f *FileUnits) Raw(key string) ([]byte, error) {
	data, err := f.fs.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read unit %s: %w", f.Path(key), err)
	}

	return data, nil
}

func (f *FileUnits) Save(key string, u Unit) error {
	path := f.Path(key)

	err := f.fs.MkdirAll(filepath.Dir(path), dirPerms)
	if err != nil {
		return fmt.Errorf("save unit %s: %w", path, err)
	}

	data, err := encodeUnit(u)
	if err != nil {
		return fmt.Errorf("save unit %s: %w", path, err)
	}

	err = f.fs.WriteFileAtomic(path, data, filePerms)
	if err != nil {
		return fmt.Errorf("save unit %s: %w", path, err)
	}

	f.logger.Debug("unit saved", "path", path, "tasks", len(u.Tasks))

	return nil
}

func (f *FileUnits) Remove(key string) error {
	path := f.Path(key)

	err := f.fs.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove unit %s: %w", path, err)
	}

	f.logger.Debug("unit removed", "path", path)

	return nil
}

// Lock takes the single-writer commit lock for the directory.
func (f *FileUnits) Lock() (io.Closer, error) {
	err := f.fs.MkdirAll(f.dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.dir, err)
	}

	lock, err := f.fs.Lock(filepath.Join(f.dir, lockFile))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.dir, err)
	}

	return lock, nil
}

func decodeUnit(data []byte) (Unit, error) {
	var unit Unit

	err := json.Unmarshal(data, &unit)
	if err != nil {
		return Unit{}, err
	}

	if unit.Tasks == nil {
		unit.Tasks = []task.Task{}
	}

	for i := range unit.Tasks {
		unit.Tasks[i].Normalize()
	}

	return unit, nil
}

func encodeUnit(u Unit) ([]byte, error) {
	if u.Tasks == nil {
		u.Tasks = []task.Task{}
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal unit: %w", err)
	}

	return append(data, '\n'), nil
}

var (
	_ Units  = (*FileUnits)(nil)
	_ Locker = (*FileUnits)(nil)
)
