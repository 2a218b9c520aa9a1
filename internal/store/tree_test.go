package store_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

func flatIDs(nodes []*store.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range store.Flatten(nodes) {
		out = append(out, n.Task.ID)
	}

	return out
}

func Test_BuildTree_Orders_Roots_And_Children_When_Given_Unsorted_Tasks(t *testing.T) {
	t.Parallel()

	tasks := []task.Task{
		{ID: "c", ParentID: "a", Order: 1, CreatedAt: epoch},
		{ID: "b", ParentID: "a", Order: 0, CreatedAt: epoch},
		{ID: "a", Order: 1, CreatedAt: epoch},
		{ID: "z", Order: 0, CreatedAt: epoch.Add(time.Hour)},
		{ID: "y", Order: 0, CreatedAt: epoch},
		{ID: "d", ParentID: "b", Order: 0, CreatedAt: epoch},
	}

	roots := store.BuildTree(tasks)

	if diff := cmp.Diff([]string{"y", "z", "a", "b", "d", "c"}, flatIDs(roots)); diff != "" {
		t.Fatalf("pre-order mismatch (-want +got):\n%s", diff)
	}

	depths := map[string]int{}
	for _, n := range store.Flatten(roots) {
		depths[n.Task.ID] = n.Depth
	}

	require.Equal(t, map[string]int{"y": 0, "z": 0, "a": 0, "b": 1, "d": 2, "c": 1}, depths)
}

func Test_BuildTree_Makes_Orphans_Roots_When_Parent_Missing(t *testing.T) {
	t.Parallel()

	roots := store.BuildTree([]task.Task{
		{ID: "a", ParentID: "gone"},
		{ID: "b", ParentID: "a", Order: 0},
	})

	require.Len(t, roots, 1)
	require.Equal(t, "a", roots[0].Task.ID)
	require.Equal(t, []string{"a", "b"}, flatIDs(roots))
}

func Test_BuildTree_Lists_Every_Task_Once_When_Parents_Form_Cycle(t *testing.T) {
	t.Parallel()

	roots := store.BuildTree([]task.Task{
		{ID: "r"},
		{ID: "x", ParentID: "y"},
		{ID: "y", ParentID: "x"},
		{ID: "k", ParentID: "y"},
		{ID: "s", ParentID: "s"},
	})

	got := flatIDs(roots)
	require.Len(t, got, 5)
	require.ElementsMatch(t, []string{"r", "x", "y", "k", "s"}, got)
}

func Test_Tree_Hides_Completed_Unless_Requested(t *testing.T) {
	t.Parallel()

	s, _ := newMemStore(t)

	a := mustAdd(t, s, store.NewTask{Title: "A"})
	b := mustAdd(t, s, store.NewTask{Title: "B", ParentID: a.ID})
	c := mustAdd(t, s, store.NewTask{Title: "C", ParentID: a.ID})

	_, err := s.CompleteTask(b.ID, false)
	require.NoError(t, err)

	roots, err := s.Tree("", false)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, c.ID}, flatIDs(roots))

	roots, err = s.Tree("", true)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID, c.ID}, flatIDs(roots))
}

func Test_Tree_Promotes_Children_When_Parent_Completed(t *testing.T) {
	t.Parallel()

	s, _ := newMemStore(t)

	a := mustAdd(t, s, store.NewTask{Title: "A"})
	b := mustAdd(t, s, store.NewTask{Title: "B", ParentID: a.ID})

	_, err := s.CompleteTask(a.ID, false)
	require.NoError(t, err)

	roots, err := s.Tree("", false)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, b.ID, roots[0].Task.ID)
	require.Zero(t, roots[0].Depth)
}

func Test_Subtasks_Returns_Children_Or_Descendants(t *testing.T) {
	t.Parallel()

	s, _ := newMemStore(t)

	a := mustAdd(t, s, store.NewTask{Title: "A"})
	b := mustAdd(t, s, store.NewTask{Title: "B", ParentID: a.ID})
	c := mustAdd(t, s, store.NewTask{Title: "C", ParentID: a.ID})
	d := mustAdd(t, s, store.NewTask{Title: "D", ParentID: b.ID})

	direct, ok, err := s.Subtasks(a.ID, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{b.ID, c.ID}, ids(direct))

	all, ok, err := s.Subtasks(a.ID, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{b.ID, d.ID, c.ID}, ids(all))

	leaf, ok, err := s.Subtasks(d.ID, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, leaf)

	_, ok, err = s.Subtasks("missing", false)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_ListTasks_Filters_And_Sorts_By_Priority_Then_Order(t *testing.T) {
	t.Parallel()

	s, _ := newMemStore(t)
	p := mustProject(t, s, "Work")

	low := mustAdd(t, s, store.NewTask{Title: "low", Priority: task.PriorityLow, Tags: []string{"Home"}})
	crit := mustAdd(t, s, store.NewTask{Title: "crit", Priority: task.PriorityCritical})
	med1 := mustAdd(t, s, store.NewTask{Title: "med1"})
	med2 := mustAdd(t, s, store.NewTask{Title: "med2", ProjectID: p.ID, Tags: []string{"home"}})
	done := mustAdd(t, s, store.NewTask{Title: "done"})

	_, err := s.CompleteTask(done.ID, false)
	require.NoError(t, err)

	all, err := s.ListTasks(store.Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{crit.ID, med2.ID, med1.ID, low.ID}, ids(all))

	tagged, err := s.ListTasks(store.Filter{Tag: "HOME"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{low.ID, med2.ID}, ids(tagged))

	inProject, err := s.ListTasks(store.Filter{ProjectID: "work"})
	require.NoError(t, err)
	require.Equal(t, []string{med2.ID}, ids(inProject))

	unassigned, err := s.ListTasks(store.Filter{ProjectID: "none"})
	require.NoError(t, err)
	require.Equal(t, []string{crit.ID, med1.ID, low.ID}, ids(unassigned))

	closed, err := s.ListTasks(store.Filter{Status: ptr(task.StatusDone)})
	require.NoError(t, err)
	require.Equal(t, []string{done.ID}, ids(closed), "explicit status includes closed tasks")

	withClosed, err := s.ListTasks(store.Filter{IncludeCompleted: true})
	require.NoError(t, err)
	require.Len(t, withClosed, 5)

	unknown, err := s.ListTasks(store.Filter{ProjectID: "nope"})
	require.NoError(t, err)
	require.Empty(t, unknown, "unknown project matches nothing")

	stats, err := s.Stats("nope")
	require.NoError(t, err)
	require.Zero(t, stats.Total)

	ready, err := s.ReadyTasks("nope")
	require.NoError(t, err)
	require.Empty(t, ready)
}
