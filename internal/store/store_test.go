package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tasktree/internal/fs"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

func Test_Open_Persists_Units_As_JSON_Files(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	s := newFileStore(t, dir)

	p := mustProject(t, s, "Home")
	mustAdd(t, s, store.NewTask{Title: "loose"})
	mustAdd(t, s, store.NewTask{Title: "grouped", ProjectID: p.ID})

	_, err := os.Stat(filepath.Join(dir, "default.json"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "projects", p.ID+".json"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "{\n  \"project\": {"), "2-space indented with project first:\n%s", raw)

	var doc map[string]any

	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "tasks")

	tasks := doc["tasks"].([]any)
	require.Len(t, tasks, 1)

	first := tasks[0].(map[string]any)
	for _, key := range []string{"id", "projectId", "title", "status", "priority", "tags", "order", "createdAt", "updatedAt", "dependsOn"} {
		require.Contains(t, first, key)
	}
}

func Test_Open_Reads_Back_Everything_When_Reopened(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newFileStore(t, dir)

	p := mustProject(t, s, "Home")
	due, err := task.ParseDate("2026-06-01T10:30")
	require.NoError(t, err)

	a := mustAdd(t, s, store.NewTask{Title: "A", ProjectID: p.ID, Tags: []string{"x"}, DueDate: &due})
	b := mustAdd(t, s, store.NewTask{Title: "B", ParentID: a.ID})
	c := mustAdd(t, s, store.NewTask{Title: "C"})

	_, err = s.AddDependency(c.ID, b.ID)
	require.NoError(t, err)

	_, err = s.CompleteTask(a.ID, false)
	require.NoError(t, err)

	before, err := s.ListTasks(store.Filter{IncludeCompleted: true})
	require.NoError(t, err)

	reopened := newFileStore(t, dir)

	after, err := reopened.ListTasks(store.Filter{IncludeCompleted: true})
	require.NoError(t, err)

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("tasks changed across reopen (-before +after):\n%s", diff)
	}

	projects, err := reopened.ListProjects()
	require.NoError(t, err)
	require.Equal(t, []task.Project{p}, projects)
}

func Test_Open_Treats_Corrupt_Unit_As_Empty_And_Logs_Warning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte("{not json"), 0o600))

	var logs strings.Builder

	logger := log.NewWithOptions(&logs, log.Options{Level: log.WarnLevel})

	s, err := store.Open(fs.NewReal(), dir, store.WithLogger(logger))
	require.NoError(t, err)

	all, err := s.ListTasks(store.Filter{IncludeCompleted: true})
	require.NoError(t, err)
	require.Empty(t, all)
	require.Contains(t, logs.String(), "unreadable unit")

	tk, err := s.AddTask(store.NewTask{Title: "fresh"})
	require.NoError(t, err)
	require.Equal(t, 0, tk.Order)
}

func Test_Store_Leaves_Files_Untouched_When_Write_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal())

	s, err := store.Open(faulty, dir, store.WithClock(stepClock()))
	require.NoError(t, err)

	a := mustAdd(t, s, store.NewTask{Title: "A"})

	path := filepath.Join(dir, "default.json")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	faulty.Fail(fs.OpWrite, "default.json", nil)

	_, err = s.AddTask(store.NewTask{Title: "B"})
	require.Error(t, err)
	require.True(t, fs.IsInjected(err))

	_, _, err = s.UpdateTask(a.ID, store.TaskUpdate{Title: ptr("A2")})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))

	faulty.Reset()

	all, err := s.ListTasks(store.Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, ids(all))
	require.Equal(t, "A", all[0].Title)
}

func Test_Store_Returns_Error_When_Lock_Unavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal()).Fail(fs.OpLock, ".lock", nil)

	s, err := store.Open(faulty, dir)
	require.NoError(t, err)

	_, err = s.AddTask(store.NewTask{Title: "A"})
	require.ErrorIs(t, err, fs.ErrInjected)

	_, statErr := os.Stat(filepath.Join(dir, "default.json"))
	require.True(t, os.IsNotExist(statErr))
}

func Test_Open_Creates_Data_Dir_Only_When_Missing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "data")
	faulty := fs.NewFaulty(fs.NewReal())

	_, err := store.Open(faulty, dir)
	require.NoError(t, err)
	require.DirExists(t, dir)
	require.Equal(t, 1, faulty.Calls(fs.OpMkdirAll))

	_, err = store.Open(faulty, dir)
	require.NoError(t, err)
	require.Equal(t, 1, faulty.Calls(fs.OpMkdirAll), "existing dir is not recreated")
	require.Equal(t, 2, faulty.Calls(fs.OpExistence))
}

func Test_Open_Returns_Error_When_Stat_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal()).Fail(fs.OpExistence, dir, nil)

	_, err := store.Open(faulty, dir)
	require.ErrorIs(t, err, fs.ErrInjected)
}

func Test_MemoryUnits_Returns_Copies(t *testing.T) {
	t.Parallel()

	units := store.NewMemoryUnits()
	require.NoError(t, units.Save("", store.Unit{Tasks: []task.Task{{ID: "a", Tags: []string{"x"}}}}))

	u, err := units.Load("")
	require.NoError(t, err)

	u.Tasks[0].Tags[0] = "mutated"

	again, err := units.Load("")
	require.NoError(t, err)
	require.Equal(t, "x", again.Tasks[0].Tags[0])
}
