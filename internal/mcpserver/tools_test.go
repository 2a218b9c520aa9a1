package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tasktree/internal/store"
)

type harness struct {
	t     *testing.T
	store *store.Store
	tools map[string]server.ToolHandlerFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := store.New(store.NewMemoryUnits(), store.WithClock(func() time.Time {
		now = now.Add(time.Second)

		return now
	}))

	h := &harness{t: t, store: s, tools: map[string]server.ToolHandlerFunc{}}
	for _, tool := range tools(&handlers{store: s}) {
		h.tools[tool.Tool.Name] = tool.Handler
	}

	return h
}

// call invokes a tool and returns its text and error flag.
func (h *harness) call(name string, args map[string]any) (string, bool) {
	h.t.Helper()

	handler, ok := h.tools[name]
	require.True(h.t, ok, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := handler(context.Background(), req)
	require.NoError(h.t, err)
	require.NotNil(h.t, res)
	require.Len(h.t, res.Content, 1)

	content, ok := res.Content[0].(mcp.TextContent)
	require.True(h.t, ok, "content should be text")

	return content.Text, res.IsError
}

func (h *harness) mustCall(name string, args map[string]any) string {
	h.t.Helper()

	out, isErr := h.call(name, args)
	require.False(h.t, isErr, "%s failed: %s", name, out)

	return out
}

func (h *harness) addTask(title string) string {
	h.t.Helper()

	t, err := h.store.AddTask(store.NewTask{Title: title})
	require.NoError(h.t, err)

	return t.ID
}

func Test_Tools_Registers_Every_Store_Operation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	for _, name := range []string{
		"create_project", "list_projects", "get_project", "update_project", "delete_project",
		"add_task", "add_tasks", "get_task", "list_tasks", "get_tree", "get_subtasks",
		"update_task", "delete_task", "complete_task", "start_task", "block_task",
		"move_task", "get_stats", "add_dependency", "remove_dependency", "get_dependencies",
		"get_ready_tasks",
	} {
		_, ok := h.tools[name]
		require.True(t, ok, "missing tool %s", name)
	}
}

func Test_AddTask_Then_GetTask_Round_Trips_Fields(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out := h.mustCall("add_task", map[string]any{
		"title":    "Write release notes",
		"priority": "high",
		"tags":     []any{"docs", "release"},
		"due_date": "2026-04-01",
	})
	require.True(t, strings.HasPrefix(out, "Created [ ] "), out)

	id := strings.Fields(out)[3]

	detail := h.mustCall("get_task", map[string]any{"id": id[:4]})
	require.Contains(t, detail, "# Write release notes")
	require.Contains(t, detail, "- **Priority:** High")
	require.Contains(t, detail, "docs, release")
	require.Contains(t, detail, "2026-04-01")
}

func Test_GetTask_Returns_Tool_Error_When_Task_Missing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, isErr := h.call("get_task", map[string]any{"id": "ffffffff"})
	require.True(t, isErr)
	require.Contains(t, out, "task not found")
}

func Test_AddTask_Returns_Tool_Error_When_Title_Blank(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, isErr := h.call("add_task", map[string]any{"title": "   "})
	require.True(t, isErr)
	require.Contains(t, out, "title is required")
}

func Test_AddTasks_Creates_Nested_Subtasks(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out := h.mustCall("add_tasks", map[string]any{
		"tasks": []any{
			map[string]any{
				"title": "Launch",
				"subtasks": []any{
					map[string]any{"title": "Announce", "priority": "low"},
					map[string]any{"title": "Deploy"},
				},
			},
		},
	})
	require.Contains(t, out, "Created 3 task(s)")

	roots, err := h.store.Tree("", false)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
}

func Test_AddTasks_Rejects_Specs_That_Fail_Schema(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, isErr := h.call("add_tasks", map[string]any{
		"tasks": []any{map[string]any{"title": "ok", "bogus": true}},
	})
	require.True(t, isErr)
	require.Contains(t, out, "schema validation failed")

	tasks, err := h.store.ListTasks(store.Filter{IncludeCompleted: true})
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func Test_UpdateTask_Applies_Only_Passed_Fields(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := h.addTask("Draft")

	h.mustCall("update_task", map[string]any{"id": id, "status": "in_progress", "tags": "a, b"})

	got, ok, err := h.store.GetTask(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Draft", got.Title)
	require.Equal(t, "InProgress", string(got.Status))
	require.Equal(t, []string{"a", "b"}, got.Tags)
}

func Test_UpdateTask_Returns_Tool_Error_When_Status_Invalid(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := h.addTask("Draft")

	out, isErr := h.call("update_task", map[string]any{"id": id, "status": "sleeping"})
	require.True(t, isErr)
	require.Contains(t, out, "invalid status")
}

func Test_AddDependency_Refuses_Cycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	a := h.addTask("A")
	b := h.addTask("B")

	h.mustCall("add_dependency", map[string]any{"id": a, "depends_on": b})

	out, isErr := h.call("add_dependency", map[string]any{"id": b, "depends_on": a})
	require.True(t, isErr)
	require.Contains(t, out, "refused")

	deps := h.mustCall("get_dependencies", map[string]any{"id": a})
	require.Contains(t, deps, "Blocked by: "+b)

	h.mustCall("complete_task", map[string]any{"id": b})

	ready := h.mustCall("get_ready_tasks", map[string]any{})
	require.Contains(t, ready, a)

	h.mustCall("remove_dependency", map[string]any{"id": a, "depends_on": b})

	_, isErr = h.call("remove_dependency", map[string]any{"id": a, "depends_on": b})
	require.True(t, isErr)
}

func Test_Project_Tools_Create_Move_And_Delete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.mustCall("create_project", map[string]any{"name": "Website"})

	projects, err := h.store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)

	id := h.addTask("Landing page")

	out := h.mustCall("move_task", map[string]any{"id": id, "project": "website"})
	require.Contains(t, out, projects[0].ID)

	detail := h.mustCall("get_project", map[string]any{"project": "Website"})
	require.Contains(t, detail, "- **Total:** 1")

	h.mustCall("update_project", map[string]any{"project": projects[0].ID, "name": "Site"})
	require.Contains(t, h.mustCall("list_projects", nil), "Site")

	h.mustCall("delete_project", map[string]any{"project": "Site"})

	got, ok, err := h.store.GetTask(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got.ProjectID)

	_, isErr := h.call("get_project", map[string]any{"project": "Site"})
	require.True(t, isErr)
}

func Test_DeleteTask_Cascade_Removes_Subtree(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.mustCall("add_tasks", map[string]any{
		"tasks": []any{map[string]any{"title": "Root", "subtasks": []any{map[string]any{"title": "Leaf"}}}},
	})

	roots, err := h.store.Tree("", false)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	subs := h.mustCall("get_subtasks", map[string]any{"id": roots[0].Task.ID})
	require.Contains(t, subs, "Leaf")

	h.mustCall("delete_task", map[string]any{"id": roots[0].Task.ID, "cascade": true})

	require.Equal(t, "No tasks.", h.mustCall("list_tasks", map[string]any{"include_completed": true}))
	require.Equal(t, "No tasks.", h.mustCall("get_tree", nil))

	stats := h.mustCall("get_stats", nil)
	require.Contains(t, stats, "- **Total:** 0")
}
