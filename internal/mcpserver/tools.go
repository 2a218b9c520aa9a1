package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/calvinalkan/tasktree/internal/format"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

type handlers struct {
	store *store.Store
}

func tools(h *handlers) []server.ServerTool {
	idArg := mcp.WithString("id", mcp.Required(), mcp.Description("Task id or unique id prefix"))
	projectArg := mcp.WithString("project", mcp.Description(`Project id, id prefix or name; "none" for tasks without a project`))

	return []server.ServerTool{
		{Tool: mcp.NewTool("create_project",
			mcp.WithDescription("Create a project. Returns the new project."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("description", mcp.Description("Project description")),
		), Handler: h.createProject},
		{Tool: mcp.NewTool("list_projects",
			mcp.WithDescription("List all projects sorted by name."),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.listProjects},
		{Tool: mcp.NewTool("get_project",
			mcp.WithDescription("Show a project with its task statistics."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project id, id prefix or name")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getProject},
		{Tool: mcp.NewTool("update_project",
			mcp.WithDescription("Rename a project or change its description."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project id, id prefix or name")),
			mcp.WithString("name", mcp.Description("New name")),
			mcp.WithString("description", mcp.Description("New description")),
		), Handler: h.updateProject},
		{Tool: mcp.NewTool("delete_project",
			mcp.WithDescription("Delete a project. Its tasks move to no project unless cascade is set."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project id, id prefix or name")),
			mcp.WithBoolean("cascade", mcp.Description("Also delete the project's tasks")),
			mcp.WithDestructiveHintAnnotation(true),
		), Handler: h.deleteProject},
		{Tool: mcp.NewTool("add_task",
			mcp.WithDescription("Create a task. Subtasks inherit the parent's project unless one is given."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Task description")),
			mcp.WithString("priority", mcp.Description("Low, Medium, High or Critical"), mcp.Enum("Low", "Medium", "High", "Critical")),
			mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("due_date", mcp.Description("Due date, YYYY-MM-DD or RFC 3339")),
			mcp.WithString("parent_id", mcp.Description("Parent task id")),
			projectArg,
		), Handler: h.addTask},
		{Tool: mcp.NewTool("add_tasks",
			mcp.WithDescription("Create several tasks with nested subtasks in one step. Either all are created or none."),
			mcp.WithArray("tasks", mcp.Required(), mcp.Description("Task specs: {title, description, priority, tags, dueDate, subtasks}"),
				mcp.Items(map[string]any{"type": "object"})),
			mcp.WithString("parent_id", mcp.Description("Parent task id for the top level tasks")),
			projectArg,
		), Handler: h.addTasks},
		{Tool: mcp.NewTool("get_task",
			mcp.WithDescription("Show a task with its project, blockers, direct subtasks and dependents."),
			idArg,
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getTask},
		{Tool: mcp.NewTool("list_tasks",
			mcp.WithDescription("List tasks, highest priority first. Done and cancelled tasks are hidden unless include_completed or an explicit status is given."),
			mcp.WithString("status", mcp.Description("Only this status")),
			mcp.WithString("priority", mcp.Description("Only this priority")),
			mcp.WithString("tag", mcp.Description("Only tasks with this tag")),
			projectArg,
			mcp.WithBoolean("include_completed", mcp.Description("Include done and cancelled tasks")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.listTasks},
		{Tool: mcp.NewTool("get_ready_tasks",
			mcp.WithDescription("List Todo tasks whose dependencies are all closed."),
			projectArg,
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.readyTasks},
		{Tool: mcp.NewTool("get_tree",
			mcp.WithDescription("Show tasks as an indented parent/child tree."),
			projectArg,
			mcp.WithBoolean("include_completed", mcp.Description("Include done and cancelled tasks")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getTree},
		{Tool: mcp.NewTool("get_subtasks",
			mcp.WithDescription("List the subtasks of a task."),
			idArg,
			mcp.WithBoolean("recursive", mcp.Description("Include all descendants")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getSubtasks},
		{Tool: mcp.NewTool("update_task",
			mcp.WithDescription(`Change task fields. Only passed fields change. A parent that is missing or would create a cycle is ignored.`),
			idArg,
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("status", mcp.Description("Todo, InProgress, Blocked, Done or Cancelled")),
			mcp.WithString("priority", mcp.Description("Low, Medium, High or Critical")),
			mcp.WithArray("tags", mcp.Description("Replacement tags"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("due_date", mcp.Description(`New due date, or "none" to clear it`)),
			mcp.WithString("parent_id", mcp.Description(`New parent id, or "none" for a root task`)),
		), Handler: h.updateTask},
		{Tool: mcp.NewTool("delete_task",
			mcp.WithDescription("Delete a task. Without cascade its subtasks move up to its parent."),
			idArg,
			mcp.WithBoolean("cascade", mcp.Description("Also delete all subtasks")),
			mcp.WithDestructiveHintAnnotation(true),
		), Handler: h.deleteTask},
		{Tool: mcp.NewTool("complete_task",
			mcp.WithDescription("Mark a task Done."),
			idArg,
			mcp.WithBoolean("recursive", mcp.Description("Also complete all subtasks")),
		), Handler: h.completeTask},
		{Tool: mcp.NewTool("start_task",
			mcp.WithDescription("Mark a task InProgress."),
			idArg,
		), Handler: h.statusHandler((*store.Store).StartTask)},
		{Tool: mcp.NewTool("block_task",
			mcp.WithDescription("Mark a task Blocked."),
			idArg,
		), Handler: h.statusHandler((*store.Store).BlockTask)},
		{Tool: mcp.NewTool("move_task",
			mcp.WithDescription("Move a task and all its subtasks to another project. The task becomes a root task there."),
			idArg,
			mcp.WithString("project", mcp.Required(), mcp.Description(`Target project id, prefix or name; "none" for no project`)),
		), Handler: h.moveTask},
		{Tool: mcp.NewTool("get_stats",
			mcp.WithDescription("Count tasks by status and priority, with overdue and ready totals."),
			projectArg,
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getStats},
		{Tool: mcp.NewTool("add_dependency",
			mcp.WithDescription("Record that a task depends on another. Self dependencies and cycles are refused."),
			idArg,
			mcp.WithString("depends_on", mcp.Required(), mcp.Description("Id of the task that must finish first")),
		), Handler: h.addDependency},
		{Tool: mcp.NewTool("remove_dependency",
			mcp.WithDescription("Remove a dependency."),
			idArg,
			mcp.WithString("depends_on", mcp.Required(), mcp.Description("Id of the dependency to remove")),
		), Handler: h.removeDependency},
		{Tool: mcp.NewTool("get_dependencies",
			mcp.WithDescription("Show what a task depends on, what depends on it and what still blocks it."),
			idArg,
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: h.getDependencies},
	}
}

func text(s string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s), nil
}

func fail(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func notFound(sentinel error, id string) (*mcp.CallToolResult, error) {
	return fail(fmt.Errorf("%w: %s", sentinel, id))
}

func (h *handlers) createProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.store.CreateProject(req.GetString("name", ""), req.GetString("description", ""))
	if err != nil {
		return fail(err)
	}

	return text("Created project " + format.ProjectLine(format.Plain(), p))
}

func (h *handlers) listProjects(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := h.store.ListProjects()
	if err != nil {
		return fail(err)
	}

	return text(format.ProjectList(format.Plain(), projects))
}

func (h *handlers) resolveProject(req mcp.CallToolRequest) (task.Project, *mcp.CallToolResult, error) {
	ref, err := req.RequireString("project")
	if err != nil {
		res, _ := fail(err)

		return task.Project{}, res, nil
	}

	p, ok, err := h.store.ResolveProject(ref)
	if err != nil {
		return task.Project{}, nil, err
	}

	if !ok {
		res, _ := notFound(task.ErrProjectNotFound, ref)

		return task.Project{}, res, nil
	}

	return p, nil, nil
}

func (h *handlers) getProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res, err := h.resolveProject(req)
	if err != nil {
		return fail(err)
	}

	if res != nil {
		return res, nil
	}

	stats, err := h.store.Stats(p.ID)
	if err != nil {
		return fail(err)
	}

	return text(format.ProjectDetail(format.Plain(), p, stats))
}

func (h *handlers) updateProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res, err := h.resolveProject(req)
	if err != nil {
		return fail(err)
	}

	if res != nil {
		return res, nil
	}

	var upd store.ProjectUpdate

	if upd.Name, err = optString(req, "name"); err != nil {
		return fail(err)
	}

	if upd.Description, err = optString(req, "description"); err != nil {
		return fail(err)
	}

	p, _, err = h.store.UpdateProject(p.ID, upd)
	if err != nil {
		return fail(err)
	}

	return text("Updated project " + format.ProjectLine(format.Plain(), p))
}

func (h *handlers) deleteProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res, err := h.resolveProject(req)
	if err != nil {
		return fail(err)
	}

	if res != nil {
		return res, nil
	}

	_, err = h.store.DeleteProject(p.ID, req.GetBool("cascade", false))
	if err != nil {
		return fail(err)
	}

	return text("Deleted project " + p.ID)
}

func (h *handlers) addTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := store.NewTask{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		ParentID:    req.GetString("parent_id", ""),
		ProjectID:   req.GetString("project", ""),
	}

	if raw := req.GetString("priority", ""); raw != "" {
		p, err := task.ParsePriority(raw)
		if err != nil {
			return fail(err)
		}

		in.Priority = p
	}

	tags, err := optStrings(req, "tags")
	if err != nil {
		return fail(err)
	}

	if tags != nil {
		in.Tags = *tags
	}

	if raw := req.GetString("due_date", ""); !task.IsClearValue(raw) {
		due, err := task.ParseDate(raw)
		if err != nil {
			return fail(err)
		}

		in.DueDate = &due
	}

	t, err := h.store.AddTask(in)
	if err != nil {
		return fail(err)
	}

	return text("Created " + format.TaskLine(format.Plain(), t))
}

func (h *handlers) addTasks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["tasks"]
	if !ok {
		return fail(fmt.Errorf("%w: tasks", errArgType))
	}

	// Round trip through JSON so the specs pass schema validation.
	data, err := json.Marshal(raw)
	if err != nil {
		return fail(err)
	}

	specs, err := store.ParseTaskSpecs(data)
	if err != nil {
		return fail(err)
	}

	created, err := h.store.AddMany(specs, req.GetString("project", ""), req.GetString("parent_id", ""))
	if err != nil {
		return fail(err)
	}

	return text(fmt.Sprintf("Created %d task(s):\n\n%s", len(created), format.Tree(format.Plain(), store.BuildTree(created))))
}

func (h *handlers) getTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	t, ok, err := h.store.GetTask(id)
	if err != nil {
		return fail(err)
	}

	if !ok {
		return notFound(task.ErrTaskNotFound, id)
	}

	d, err := format.LoadDetail(h.store, t)
	if err != nil {
		return fail(err)
	}

	return text(format.TaskDetail(format.Plain(), d))
}

func (h *handlers) listTasks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := store.Filter{
		Tag:              req.GetString("tag", ""),
		ProjectID:        req.GetString("project", ""),
		IncludeCompleted: req.GetBool("include_completed", false),
	}

	if raw := req.GetString("status", ""); raw != "" {
		status, err := task.ParseStatus(raw)
		if err != nil {
			return fail(err)
		}

		f.Status = &status
	}

	if raw := req.GetString("priority", ""); raw != "" {
		priority, err := task.ParsePriority(raw)
		if err != nil {
			return fail(err)
		}

		f.Priority = &priority
	}

	tasks, err := h.store.ListTasks(f)
	if err != nil {
		return fail(err)
	}

	return text(format.TaskList(format.Plain(), tasks))
}

func (h *handlers) readyTasks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := h.store.ReadyTasks(req.GetString("project", ""))
	if err != nil {
		return fail(err)
	}

	return text(format.TaskList(format.Plain(), tasks))
}

func (h *handlers) getTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots, err := h.store.Tree(req.GetString("project", ""), req.GetBool("include_completed", false))
	if err != nil {
		return fail(err)
	}

	return text(format.Tree(format.Plain(), roots))
}

func (h *handlers) getSubtasks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	subtasks, ok, err := h.store.Subtasks(id, req.GetBool("recursive", false))
	if err != nil {
		return fail(err)
	}

	if !ok {
		return notFound(task.ErrTaskNotFound, id)
	}

	return text(format.TaskList(format.Plain(), subtasks))
}

func (h *handlers) updateTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	upd, err := taskUpdate(req)
	if err != nil {
		return fail(err)
	}

	t, ok, err := h.store.UpdateTask(id, upd)
	if err != nil {
		return fail(err)
	}

	if !ok {
		return notFound(task.ErrTaskNotFound, id)
	}

	return text("Updated " + format.TaskLine(format.Plain(), t))
}

func taskUpdate(req mcp.CallToolRequest) (store.TaskUpdate, error) {
	var (
		upd store.TaskUpdate
		err error
	)

	if upd.Title, err = optString(req, "title"); err != nil {
		return upd, err
	}

	if upd.Description, err = optString(req, "description"); err != nil {
		return upd, err
	}

	if upd.ParentID, err = optString(req, "parent_id"); err != nil {
		return upd, err
	}

	if upd.Tags, err = optStrings(req, "tags"); err != nil {
		return upd, err
	}

	raw, err := optString(req, "status")
	if err != nil {
		return upd, err
	}

	if raw != nil {
		status, err := task.ParseStatus(*raw)
		if err != nil {
			return upd, err
		}

		upd.Status = &status
	}

	if raw, err = optString(req, "priority"); err != nil {
		return upd, err
	}

	if raw != nil {
		priority, err := task.ParsePriority(*raw)
		if err != nil {
			return upd, err
		}

		upd.Priority = &priority
	}

	if raw, err = optString(req, "due_date"); err != nil {
		return upd, err
	}

	if raw != nil {
		if task.IsClearValue(*raw) {
			upd.ClearDueDate = true
		} else {
			due, err := task.ParseDate(*raw)
			if err != nil {
				return upd, err
			}

			upd.DueDate = &due
		}
	}

	return upd, nil
}

func (h *handlers) deleteTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	t, ok, err := h.store.GetTask(id)
	if err != nil {
		return fail(err)
	}

	if !ok {
		return notFound(task.ErrTaskNotFound, id)
	}

	_, err = h.store.DeleteTask(t.ID, req.GetBool("cascade", false))
	if err != nil {
		return fail(err)
	}

	return text("Deleted " + t.ID)
}

func (h *handlers) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recursive := req.GetBool("recursive", false)

	return h.statusHandler(func(s *store.Store, id string) (bool, error) {
		return s.CompleteTask(id, recursive)
	})(ctx, req)
}

func (h *handlers) statusHandler(apply func(s *store.Store, id string) (bool, error)) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return fail(err)
		}

		ok, err := apply(h.store, id)
		if err != nil {
			return fail(err)
		}

		if !ok {
			return notFound(task.ErrTaskNotFound, id)
		}

		t, _, err := h.store.GetTask(id)
		if err != nil {
			return fail(err)
		}

		return text(format.TaskLine(format.Plain(), t))
	}
}

func (h *handlers) moveTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	project, err := req.RequireString("project")
	if err != nil {
		return fail(err)
	}

	t, err := h.store.MoveToProject(id, project)
	if err != nil {
		return fail(err)
	}

	target := t.ProjectID
	if target == "" {
		target = "no project"
	}

	return text(fmt.Sprintf("Moved %s to %s", t.ID, target))
}

func (h *handlers) getStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.store.Stats(req.GetString("project", ""))
	if err != nil {
		return fail(err)
	}

	return text(format.Stats(format.Plain(), stats))
}

func (h *handlers) depPair(req mcp.CallToolRequest) (string, string, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return "", "", err
	}

	dependsOn, err := req.RequireString("depends_on")
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(id), strings.TrimSpace(dependsOn), nil
}

func (h *handlers) addDependency(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, dependsOn, err := h.depPair(req)
	if err != nil {
		return fail(err)
	}

	for _, ref := range []string{id, dependsOn} {
		_, ok, err := h.store.GetTask(ref)
		if err != nil {
			return fail(err)
		}

		if !ok {
			return notFound(task.ErrTaskNotFound, ref)
		}
	}

	added, err := h.store.AddDependency(id, dependsOn)
	if err != nil {
		return fail(err)
	}

	if !added {
		return mcp.NewToolResultError(fmt.Sprintf("dependency %s -> %s refused: self dependency or cycle", id, dependsOn)), nil
	}

	return text(fmt.Sprintf("%s now depends on %s", id, dependsOn))
}

func (h *handlers) removeDependency(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, dependsOn, err := h.depPair(req)
	if err != nil {
		return fail(err)
	}

	removed, err := h.store.RemoveDependency(id, dependsOn)
	if err != nil {
		return fail(err)
	}

	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("%s does not depend on %s", id, dependsOn)), nil
	}

	return text(fmt.Sprintf("%s no longer depends on %s", id, dependsOn))
}

func (h *handlers) getDependencies(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return fail(err)
	}

	t, ok, err := h.store.GetTask(id)
	if err != nil {
		return fail(err)
	}

	if !ok {
		return notFound(task.ErrTaskNotFound, id)
	}

	deps, err := h.store.Dependencies(t.ID)
	if err != nil {
		return fail(err)
	}

	dependents, err := h.store.Dependents(t.ID)
	if err != nil {
		return fail(err)
	}

	blocking, err := h.store.BlockingDependencies(t.ID)
	if err != nil {
		return fail(err)
	}

	return text(format.Dependencies(format.Plain(), t, deps, dependents, blocking))
}
