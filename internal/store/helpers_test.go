package store_test

import (
	"testing"
	"time"

	"github.com/calvinalkan/tasktree/internal/fs"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// stepClock returns a clock that starts at epoch and advances one second per call.
func stepClock() func() time.Time {
	now := epoch

	return func() time.Time {
		now = now.Add(time.Second)

		return now
	}
}

func newMemStore(t *testing.T) (*store.Store, *store.MemoryUnits) {
	t.Helper()

	units := store.NewMemoryUnits()

	return store.New(units, store.WithClock(stepClock())), units
}

func newFileStore(t *testing.T, dir string) *store.Store {
	t.Helper()

	s, err := store.Open(fs.NewReal(), dir, store.WithClock(stepClock()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	return s
}

func mustAdd(t *testing.T, s *store.Store, in store.NewTask) task.Task {
	t.Helper()

	tk, err := s.AddTask(in)
	if err != nil {
		t.Fatalf("add task %q: %v", in.Title, err)
	}

	return tk
}

func mustProject(t *testing.T, s *store.Store, name string) task.Project {
	t.Helper()

	p, err := s.CreateProject(name, "")
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}

	return p
}

func mustGet(t *testing.T, s *store.Store, id string) task.Task {
	t.Helper()

	tk, ok, err := s.GetTask(id)
	if err != nil {
		t.Fatalf("get task %s: %v", id, err)
	}

	if !ok {
		t.Fatalf("task %s not found", id)
	}

	return tk
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		out = append(out, tk.ID)
	}

	return out
}

func ptr[T any](v T) *T {
	return &v
}
