// Package format renders tasks, trees, projects and statistics as
// markdown-flavoured text for the CLI and the MCP server.
package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

// Styles decorates rendered text. Styles bound to a non-terminal writer
// render plain text.
type Styles struct {
	Heading lipgloss.Style
	ID      lipgloss.Style
	Muted   lipgloss.Style
	Closed  lipgloss.Style
	Warn    lipgloss.Style
}

// NewStyles returns styles using the color profile of w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)

	return Styles{
		Heading: r.NewStyle().Bold(true),
		ID:      r.NewStyle().Foreground(lipgloss.Color("6")),
		Muted:   r.NewStyle().Faint(true),
		Closed:  r.NewStyle().Faint(true).Strikethrough(true),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Plain returns styles that never emit escape sequences.
func Plain() Styles {
	return NewStyles(io.Discard)
}

// Checkbox returns the markdown list marker for a status.
func Checkbox(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "[x]"
	case task.StatusInProgress:
		return "[~]"
	case task.StatusBlocked:
		return "[!]"
	case task.StatusCancelled:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Date renders a due date: date only at midnight UTC, otherwise with minutes.
func Date(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}

	return t.Format("2006-01-02 15:04")
}

// TaskLine renders a task as a single markdown list item without the leading dash.
func TaskLine(st Styles, t task.Task) string {
	var b strings.Builder

	b.WriteString(Checkbox(t.Status))
	b.WriteString(" ")
	b.WriteString(st.ID.Render(t.ID))
	b.WriteString(" ")

	title := t.Title
	if t.Status.IsClosed() {
		title = st.Closed.Render(title)
	}

	b.WriteString(title)

	meta := []string{string(t.Priority)}

	if t.Status != task.StatusTodo {
		meta = append(meta, string(t.Status))
	}

	if t.DueDate != nil {
		meta = append(meta, "due "+Date(*t.DueDate))
	}

	b.WriteString(" ")
	b.WriteString(st.Muted.Render("(" + strings.Join(meta, ", ") + ")"))

	for _, tag := range t.Tags {
		b.WriteString(" #")
		b.WriteString(tag)
	}

	return b.String()
}

// TaskList renders tasks as a flat markdown list.
func TaskList(st Styles, tasks []task.Task) string {
	if len(tasks) == 0 {
		return "No tasks."
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, "- "+TaskLine(st, t))
	}

	return strings.Join(lines, "\n")
}

// Tree renders a forest as a nested markdown list, two spaces per level.
func Tree(st Styles, roots []*store.Node) string {
	nodes := store.Flatten(roots)
	if len(nodes) == 0 {
		return "No tasks."
	}

	lines := make([]string, 0, len(nodes))
	for _, n := range nodes {
		lines = append(lines, strings.Repeat("  ", n.Depth)+"- "+TaskLine(st, n.Task))
	}

	return strings.Join(lines, "\n")
}

// Detail holds everything shown for a single task.
type Detail struct {
	Task       task.Task
	Project    *task.Project
	Subtasks   []task.Task
	Blocking   []string
	Dependents []task.Task
}

// TaskDetail renders one task with its metadata, description and subtasks.
func TaskDetail(st Styles, d Detail) string {
	t := d.Task

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", st.Heading.Render("# "+t.Title))

	field := func(name, value string) {
		fmt.Fprintf(&b, "- **%s:** %s\n", name, value)
	}

	field("ID", st.ID.Render(t.ID))
	field("Status", string(t.Status))
	field("Priority", string(t.Priority))

	switch {
	case d.Project != nil:
		field("Project", fmt.Sprintf("%s (%s)", d.Project.Name, d.Project.ID))
	case t.ProjectID != "":
		field("Project", t.ProjectID)
	}

	if t.ParentID != "" {
		field("Parent", t.ParentID)
	}

	if len(t.Tags) > 0 {
		field("Tags", strings.Join(t.Tags, ", "))
	}

	if t.DueDate != nil {
		field("Due", Date(*t.DueDate))
	}

	if len(t.DependsOn) > 0 {
		field("Depends on", strings.Join(t.DependsOn, ", "))
	}

	if len(d.Blocking) > 0 {
		field("Blocked by", st.Warn.Render(strings.Join(d.Blocking, ", ")))
	}

	field("Created", t.CreatedAt.UTC().Format(time.RFC3339))
	field("Updated", t.UpdatedAt.UTC().Format(time.RFC3339))

	if t.CompletedAt != nil {
		field("Completed", t.CompletedAt.UTC().Format(time.RFC3339))
	}

	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(t.Description))
	}

	if len(d.Subtasks) > 0 {
		fmt.Fprintf(&b, "\n%s\n\n%s\n", st.Heading.Render("## Subtasks"), TaskList(st, d.Subtasks))
	}

	if len(d.Dependents) > 0 {
		fmt.Fprintf(&b, "\n%s\n\n%s\n", st.Heading.Render("## Dependents"), TaskList(st, d.Dependents))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Dependencies renders the dependency view of a task.
func Dependencies(st Styles, t task.Task, deps, dependents []task.Task, blocking []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", st.Heading.Render("# Dependencies of "+t.ID))

	if len(deps) == 0 {
		b.WriteString("Depends on nothing.\n")
	} else {
		fmt.Fprintf(&b, "## Depends on\n\n%s\n", TaskList(st, deps))
	}

	if len(dependents) > 0 {
		fmt.Fprintf(&b, "\n## Required by\n\n%s\n", TaskList(st, dependents))
	}

	if len(blocking) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.Warn.Render("Blocked by: "+strings.Join(blocking, ", ")))
	} else {
		b.WriteString("\nReady to start.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// ProjectLine renders a project as a single line.
func ProjectLine(st Styles, p task.Project) string {
	line := st.ID.Render(p.ID) + " " + p.Name
	if p.Description != "" {
		line += " " + st.Muted.Render("- "+p.Description)
	}

	return line
}

// ProjectList renders projects as a markdown list.
func ProjectList(st Styles, projects []task.Project) string {
	if len(projects) == 0 {
		return "No projects."
	}

	lines := make([]string, 0, len(projects))
	for _, p := range projects {
		lines = append(lines, "- "+ProjectLine(st, p))
	}

	return strings.Join(lines, "\n")
}

// ProjectDetail renders one project with its statistics.
func ProjectDetail(st Styles, p task.Project, stats store.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", st.Heading.Render("# "+p.Name))
	fmt.Fprintf(&b, "- **ID:** %s\n", st.ID.Render(p.ID))

	if p.Description != "" {
		fmt.Fprintf(&b, "- **Description:** %s\n", p.Description)
	}

	fmt.Fprintf(&b, "- **Created:** %s\n", p.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Updated:** %s\n\n", p.UpdatedAt.UTC().Format(time.RFC3339))
	b.WriteString(Stats(st, stats))

	return b.String()
}

// Stats renders task statistics.
func Stats(st Styles, s store.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", st.Heading.Render("## Stats"))
	fmt.Fprintf(&b, "- **Total:** %d\n", s.Total)
	fmt.Fprintf(&b, "- **Ready:** %d\n", s.Ready)

	overdue := fmt.Sprintf("%d", s.Overdue)
	if s.Overdue > 0 {
		overdue = st.Warn.Render(overdue)
	}

	fmt.Fprintf(&b, "- **Overdue:** %s\n", overdue)

	b.WriteString("\nBy status:\n")

	for _, status := range task.Statuses {
		fmt.Fprintf(&b, "- %s: %d\n", status, s.ByStatus[status])
	}

	b.WriteString("\nBy priority:\n")

	for _, priority := range task.Priorities {
		fmt.Fprintf(&b, "- %s: %d\n", priority, s.ByPriority[priority])
	}

	return strings.TrimRight(b.String(), "\n")
}

// Issues renders integrity issues, one per line.
func Issues(st Styles, issues []store.Issue) string {
	if len(issues) == 0 {
		return "No issues found."
	}

	lines := make([]string, 0, len(issues)+1)
	lines = append(lines, st.Warn.Render(fmt.Sprintf("%d issue(s) found:", len(issues))))

	for _, issue := range issues {
		lines = append(lines, "- "+issue.String())
	}

	return strings.Join(lines, "\n")
}

// LoadDetail gathers what [TaskDetail] shows about t from s.
func LoadDetail(s *store.Store, t task.Task) (Detail, error) {
	d := Detail{Task: t}

	if t.ProjectID != "" {
		p, found, err := s.GetProject(t.ProjectID)
		if err != nil {
			return Detail{}, err
		}

		if found {
			d.Project = &p
		}
	}

	var err error

	d.Subtasks, _, err = s.Subtasks(t.ID, false)
	if err != nil {
		return Detail{}, err
	}

	d.Blocking, err = s.BlockingDependencies(t.ID)
	if err != nil {
		return Detail{}, err
	}

	d.Dependents, err = s.Dependents(t.ID)
	if err != nil {
		return Detail{}, err
	}

	return d, nil
}
