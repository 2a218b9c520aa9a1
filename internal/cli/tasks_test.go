package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/tasktree/internal/cli"
)

func Test_Add_Then_Show_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := c.MustRun("add", "Write", "docs", "-p", "high", "-t", "docs,v2", "--due", "2026-05-01", "-d", "the body")

	if len(id) == 0 || strings.ContainsAny(id, " \n") {
		t.Fatalf("add should print only the id, got %q", id)
	}

	stdout := c.MustRun("show", id[:4])
	cli.AssertContains(t, stdout, "# Write docs")
	cli.AssertContains(t, stdout, "- **ID:** "+id)
	cli.AssertContains(t, stdout, "- **Priority:** High")
	cli.AssertContains(t, stdout, "- **Tags:** docs, v2")
	cli.AssertContains(t, stdout, "- **Due:** 2026-05-01")
	cli.AssertContains(t, stdout, "the body")

	cli.AssertContains(t, c.ReadUnit(""), `"title": "Write docs"`)
}

func Test_Add_Rejects_Bad_Input_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("add"), "title is required")
	cli.AssertContains(t, c.MustFail("add", "x", "-p", "huge"), "invalid priority")
	cli.AssertContains(t, c.MustFail("add", "x", "--due", "tomorrow"), "invalid date")
	cli.AssertContains(t, c.MustFail("add", "x", "--parent", "ffffffff"), "parent task not found")
	cli.AssertContains(t, c.MustFail("add", "x", "-P", "nope"), "project not found")

	if got := c.MustRun("ls", "-a"); got != "No tasks." {
		t.Errorf("nothing should have been created, ls=%q", got)
	}
}

func Test_Show_Unknown_Task_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	cli.AssertContains(t, c.MustFail("show", "ffffffff"), "task not found: ffffffff")
	cli.AssertContains(t, c.MustFail("show"), "task ID is required")
	cli.AssertContains(t, c.MustFail("show", "a", "b"), "too many arguments")
}

func Test_Tree_And_Subtasks_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	root := c.MustRun("add", "Root")
	child := c.MustRun("add", "Child", "--parent", root)
	grandchild := c.MustRun("add", "Grandchild", "--parent", child)

	tree := strings.Split(c.MustRun("tree"), "\n")
	want := []string{
		"- [ ] " + root + " Root (Medium)",
		"  - [ ] " + child + " Child (Medium)",
		"    - [ ] " + grandchild + " Grandchild (Medium)",
	}

	if strings.Join(tree, "\n") != strings.Join(want, "\n") {
		t.Errorf("tree:\n%s\nwant:\n%s", strings.Join(tree, "\n"), strings.Join(want, "\n"))
	}

	direct := c.MustRun("sub", root)
	cli.AssertContains(t, direct, child)
	cli.AssertNotContains(t, direct, grandchild)

	cli.AssertContains(t, c.MustRun("sub", root, "-r"), grandchild)
	cli.AssertContains(t, c.MustFail("sub", "ffffffff"), "task not found")
}

func Test_Status_Commands_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	root := c.MustRun("add", "Root")
	child := c.MustRun("add", "Child", "--parent", root)

	if got := c.MustRun("start", root); got != root+" -> InProgress" {
		t.Errorf("start=%q", got)
	}

	if got := c.MustRun("block", root); got != root+" -> Blocked" {
		t.Errorf("block=%q", got)
	}

	c.MustRun("done", root, "--recursive")

	if got := c.MustRun("ls"); got != "No tasks." {
		t.Errorf("done tasks should be hidden, ls=%q", got)
	}

	all := c.MustRun("ls", "-a")
	cli.AssertContains(t, all, "[x] "+root)
	cli.AssertContains(t, all, "[x] "+child)

	cli.AssertContains(t, c.MustRun("ls", "-s", "done"), child)
	cli.AssertContains(t, c.MustFail("done", "ffffffff"), "task not found")
}

func Test_Ls_Filters_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	low := c.MustRun("add", "Low one", "-p", "low", "-t", "chore")
	crit := c.MustRun("add", "Critical one", "-p", "critical")

	lines := strings.Split(c.MustRun("ls"), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], crit) || !strings.Contains(lines[1], low) {
		t.Errorf("ls should sort by priority, got:\n%s", strings.Join(lines, "\n"))
	}

	byTag := c.MustRun("ls", "-t", "CHORE")
	cli.AssertContains(t, byTag, low)
	cli.AssertNotContains(t, byTag, crit)

	byPriority := c.MustRun("ls", "-p", "critical")
	cli.AssertContains(t, byPriority, crit)
	cli.AssertNotContains(t, byPriority, low)

	cli.AssertContains(t, c.MustFail("ls", "-s", "sleeping"), "invalid status")
}

func Test_Update_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := c.MustRun("add", "Draft", "-t", "old", "--due", "2026-05-01")

	c.MustRun("update", id, "--title", "Final", "--tags", "new", "--due", "none", "-s", "in_progress")

	stdout := c.MustRun("show", id)
	cli.AssertContains(t, stdout, "# Final")
	cli.AssertContains(t, stdout, "- **Status:** InProgress")
	cli.AssertContains(t, stdout, "- **Tags:** new")
	cli.AssertNotContains(t, stdout, "Due")

	cli.AssertContains(t, c.MustFail("update", id), "nothing to update")
	cli.AssertContains(t, c.MustFail("update", id, "--title", " "), "title is required")
	cli.AssertContains(t, c.MustFail("update", "ffffffff", "--title", "x"), "task not found")
}

func Test_Update_Parent_Cycle_Is_Ignored_With_Warning_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	root := c.MustRun("add", "Root")
	child := c.MustRun("add", "Child", "--parent", root)

	stdout, stderr, code := c.Run("update", root, "--parent", child, "--title", "Renamed root")

	if code != 1 {
		t.Errorf("exitCode=%d, want=1", code)
	}

	cli.AssertContains(t, stdout, "Renamed root")
	cli.AssertContains(t, stderr, "warning: parent "+child+" was not applied")

	cli.AssertContains(t, c.MustRun("tree"), "  - [ ] "+child)

	c.MustRun("update", child, "--parent", "none")

	for _, line := range strings.Split(c.MustRun("tree"), "\n") {
		if strings.HasPrefix(line, " ") {
			t.Errorf("all tasks should be roots now, got %q", line)
		}
	}
}

func Test_Rm_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	root := c.MustRun("add", "Root")
	mid := c.MustRun("add", "Mid", "--parent", root)
	leaf := c.MustRun("add", "Leaf", "--parent", mid)

	c.MustRun("rm", mid)

	tree := c.MustRun("tree")
	cli.AssertNotContains(t, tree, mid)
	cli.AssertContains(t, tree, "  - [ ] "+leaf+" Leaf")

	c.MustRun("rm", root, "--cascade")

	if got := c.MustRun("ls", "-a"); got != "No tasks." {
		t.Errorf("cascade should remove the subtree, ls=%q", got)
	}

	cli.AssertContains(t, c.MustFail("rm", root), "task not found")
}

func Test_Dependencies_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	design := c.MustRun("add", "Design")
	build := c.MustRun("add", "Build")

	c.MustRun("depend", build, design)

	deps := c.MustRun("deps", build)
	cli.AssertContains(t, deps, design)
	cli.AssertContains(t, deps, "Blocked by: "+design)

	ready := c.MustRun("ready")
	cli.AssertContains(t, ready, design)
	cli.AssertNotContains(t, ready, build)

	cli.AssertContains(t, c.MustFail("depend", design, build), "dependency not added")
	cli.AssertContains(t, c.MustFail("depend", design, design), "dependency not added")
	cli.AssertContains(t, c.MustFail("depend", design), "dependency task ID is required")
	cli.AssertContains(t, c.MustFail("depend", design, "ffffffff"), "task not found")

	c.MustRun("done", design)
	cli.AssertContains(t, c.MustRun("ready"), build)
	cli.AssertContains(t, c.MustRun("deps", build), "Ready to start.")

	c.MustRun("undepend", build, design)
	cli.AssertContains(t, c.MustRun("deps", build), "Depends on nothing.")

	_, stderr, code := c.Run("undepend", build, design)
	if code != 1 {
		t.Errorf("removing a missing edge should exit 1, got %d", code)
	}

	cli.AssertContains(t, stderr, "does not depend on")
}

func Test_Projects_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	pid := c.MustRun("project", "add", "Web", "site", "-d", "marketing")

	cli.AssertContains(t, c.MustRun("project", "ls"), pid+" Web site - marketing")
	cli.AssertContains(t, c.MustRun("project"), "Web site")

	task := c.MustRun("add", "Landing", "-P", "web site")
	sub := c.MustRun("add", "Copy", "--parent", task)

	unit := c.ReadUnit(pid)
	cli.AssertContains(t, unit, task)
	cli.AssertContains(t, unit, sub)

	detail := c.MustRun("project", "show", pid[:4])
	cli.AssertContains(t, detail, "# Web site")
	cli.AssertContains(t, detail, "- **Total:** 2")

	cli.AssertContains(t, c.MustRun("tree", "-P", pid), sub)
	cli.AssertContains(t, c.MustRun("tree", "-P", "none"), "No tasks.")

	c.MustRun("project", "update", pid, "--name", "Site")
	cli.AssertContains(t, c.MustRun("project", "ls"), pid+" Site")

	c.MustRun("move", task, "none")
	cli.AssertContains(t, c.MustRun("ls", "-P", "none"), sub)
	cli.AssertContains(t, c.MustRun("stats", "-P", pid), "- **Total:** 0")

	c.MustRun("move", task, "Site")
	c.MustRun("project", "rm", "Site")

	all := c.MustRun("ls", "-a")
	cli.AssertContains(t, all, task)
	cli.AssertContains(t, all, sub)
	cli.AssertContains(t, c.MustRun("project", "ls"), "No projects.")

	cli.AssertContains(t, c.MustFail("project", "show", "Site"), "project not found")
	cli.AssertContains(t, c.MustFail("project", "frobnicate"), "unknown project subcommand")
	cli.AssertContains(t, c.MustFail("project", "add"), "project name is required")
	cli.AssertContains(t, c.MustFail("move", task, "nowhere"), "project not found")
}

func Test_Project_Rm_Cascade_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	pid := c.MustRun("project", "add", "Scratch")
	c.MustRun("add", "Temp", "-P", pid)

	c.MustRun("project", "rm", pid, "--cascade")

	if got := c.MustRun("ls", "-a"); got != "No tasks." {
		t.Errorf("cascade should delete the project's tasks, ls=%q", got)
	}
}

func Test_Add_Many_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	input := `[
		{"title": "Release", "priority": "high", "subtasks": [
			{"title": "Changelog", "tags": ["docs"]},
			{"title": "Tag", "dueDate": "2026-06-01"}
		]},
		{"title": "Celebrate"}
	]`

	stdout, stderr, code := c.RunWithInput(input, "add-many")
	if code != 0 {
		t.Fatalf("add-many failed: %s", stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 created lines, got:\n%s", stdout)
	}

	if !strings.HasPrefix(lines[1], "  ") || !strings.HasSuffix(lines[1], " Changelog") {
		t.Errorf("subtask line should be indented: %q", lines[1])
	}

	tree := c.MustRun("tree")
	cli.AssertContains(t, tree, "  - [ ] ")
	cli.AssertContains(t, tree, "Celebrate")
}

func Test_Add_Many_From_File_Under_Parent_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	parent := c.MustRun("add", "Epic")
	writeFile(t, filepath.Join(c.Dir, "specs.json"), `[{"title": "Story"}]`)

	c.MustRun("add-many", "specs.json", "--parent", parent)
	cli.AssertContains(t, c.MustRun("sub", parent), "Story")
}

func Test_Add_Many_Rejects_Invalid_Input_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	for _, input := range []string{
		`[{"title": "ok"}, {"description": "missing title"}]`,
		`[{"title": "ok", "priority": "whenever"}]`,
		`{"title": "not an array"}`,
		`[{"title": "ok"`,
	} {
		_, stderr, code := c.RunWithInput(input, "add-many")
		if code != 1 {
			t.Errorf("input %s should fail", input)
		}

		cli.AssertContains(t, stderr, "schema validation failed")
	}

	_, stderr, _ := c.RunWithInput("  ", "add-many")
	cli.AssertContains(t, stderr, "no input")

	if got := c.MustRun("ls", "-a"); got != "No tasks." {
		t.Errorf("nothing should have been created, ls=%q", got)
	}
}

func Test_Stats_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	a := c.MustRun("add", "A", "-p", "high")
	c.MustRun("add", "B", "--due", "2020-01-01")
	c.MustRun("done", a)

	stdout := c.MustRun("stats")
	cli.AssertContains(t, stdout, "- **Total:** 2")
	cli.AssertContains(t, stdout, "- **Overdue:** 1")
	cli.AssertContains(t, stdout, "- Done: 1")
	cli.AssertContains(t, stdout, "- High: 1")
}

func Test_Check_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "Healthy")

	if got := c.MustRun("check"); got != "No issues found." {
		t.Errorf("check=%q", got)
	}

	c.WriteUnit("", `{"tasks": [{
		"id": "aaaa0001", "parentId": "deadbeef", "title": "Orphan", "status": "Todo",
		"priority": "Medium", "tags": [], "order": 0, "dependsOn": ["cafecafe"],
		"createdAt": "2026-01-01T00:00:00Z", "updatedAt": "2026-01-01T00:00:00Z"
	}]}`)

	stdout, stderr, code := c.Run("check")
	if code != 1 {
		t.Errorf("exitCode=%d, want=1", code)
	}

	cli.AssertContains(t, stdout, "2 issue(s) found")
	cli.AssertContains(t, stdout, "dangling-parent")
	cli.AssertContains(t, stdout, "dangling-dependency")
	cli.AssertContains(t, stderr, "integrity issue")
}

func Test_Shell_Runs_Commands_From_Input_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	input := strings.Join([]string{
		`add "Shell task" -p high`,
		`# comment`,
		``,
		`ls`,
		`bogus`,
		`add 'Single quoted' -d "with \"escaped\" quotes"`,
		`add "unterminated`,
		`shell`,
		`exit`,
		`add "never runs"`,
	}, "\n")

	stdout, stderr, code := c.RunWithInput(input, "shell")
	if code != 0 {
		t.Fatalf("shell exitCode=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "Shell task (High)")
	cli.AssertContains(t, stderr, "unknown command: bogus")
	cli.AssertContains(t, stderr, "unknown command: shell")
	cli.AssertContains(t, stderr, "error: invalid command line string")

	all := c.MustRun("ls", "-a")
	cli.AssertContains(t, all, "Shell task")
	cli.AssertContains(t, all, "Single quoted")
	cli.AssertNotContains(t, all, "unterminated")
	cli.AssertNotContains(t, all, "never runs")
}

func Test_Memory_Flag_Saves_Nothing_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.RunWithInput("add Scratch\nls\n", "--memory", "shell")
	if code != 0 {
		t.Fatalf("exitCode=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "Scratch")

	_, err := os.Stat(c.DataDir())
	if !os.IsNotExist(err) {
		t.Fatalf("data dir should not exist, stat err=%v", err)
	}
}

func Test_Project_Filter_Fails_When_Project_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("project", "add", "Site")
	c.MustRun("add", "Home page", "-P", "Site")

	for _, args := range [][]string{
		{"ls", "-P", "nope"},
		{"tree", "-P", "nope"},
		{"ready", "-P", "nope"},
		{"stats", "-P", "nope"},
	} {
		cli.AssertContains(t, c.MustFail(args...), "project not found: nope")
	}

	cli.AssertContains(t, c.MustRun("ls", "-P", "Site"), "Home page")
	cli.AssertNotContains(t, c.MustRun("ls", "-P", "none"), "Home page")
}
