package store

import (
	"cmp"
	"slices"

	"github.com/calvinalkan/tasktree/internal/task"
)

// Node is a task placed in a tree.
type Node struct {
	Task     task.Task `json:"task"`
	Children []*Node   `json:"children,omitempty"`
	Depth    int       `json:"depth"`
}

// BuildTree arranges tasks into a forest. Tasks whose parent is absent from
// tasks become roots. Roots and every child list are sorted by order, then
// creation time, then id. Tasks only reachable through a parent cycle are
// promoted to roots so every task appears exactly once.
func BuildTree(tasks []task.Task) []*Node {
	byID := make(map[string]*Node, len(tasks))
	nodes := make([]*Node, 0, len(tasks))

	for _, tk := range tasks {
		if _, dup := byID[tk.ID]; dup {
			continue
		}

		n := &Node{Task: tk}
		byID[tk.ID] = n
		nodes = append(nodes, n)
	}

	var roots []*Node

	for _, n := range nodes {
		parent, ok := byID[n.Task.ParentID]
		if n.Task.ParentID == "" || !ok || parent == n {
			roots = append(roots, n)

			continue
		}

		parent.Children = append(parent.Children, n)
	}

	for _, n := range nodes {
		slices.SortFunc(n.Children, compareNodes)
	}

	slices.SortFunc(roots, compareNodes)

	reached := assignDepths(roots, nil)

	// Whatever is left hangs off a parent cycle. Climb to a node on the
	// cycle, detach it from its parent and walk from there.
	for _, n := range nodes {
		if reached[n] {
			continue
		}

		climbed := make(map[*Node]bool)

		start := n
		for !climbed[start] {
			climbed[start] = true
			start = byID[start.Task.ParentID]
		}

		parent := byID[start.Task.ParentID]
		parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == start })

		roots = append(roots, start)
		reached = assignDepths([]*Node{start}, reached)
	}

	return roots
}

// assignDepths walks from roots and sets Depth on every reachable node.
func assignDepths(roots []*Node, reached map[*Node]bool) map[*Node]bool {
	if reached == nil {
		reached = make(map[*Node]bool)
	}

	type item struct {
		n     *Node
		depth int
	}

	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], 0})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reached[it.n] {
			continue
		}

		reached[it.n] = true
		it.n.Depth = it.depth

		for i := len(it.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.n.Children[i], it.depth + 1})
		}
	}

	return reached
}

func compareNodes(a, b *Node) int {
	return compareSiblings(a.Task, b.Task)
}

func compareSiblings(a, b task.Task) int {
	return cmp.Or(
		cmp.Compare(a.Order, b.Order),
		a.CreatedAt.Compare(b.CreatedAt),
		cmp.Compare(a.ID, b.ID),
	)
}

// Flatten returns the nodes of a forest in pre-order.
func Flatten(roots []*Node) []*Node {
	var out []*Node

	seen := make(map[*Node]bool)

	stack := slices.Clone(roots)
	slices.Reverse(stack)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[n] {
			continue
		}

		seen[n] = true
		out = append(out, n)

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	return out
}

// Tree returns the task forest of one project, or of every unit when
// projectID is empty. Closed tasks are left out unless includeCompleted.
func (s *Store) Tree(projectID string, includeCompleted bool) ([]*Node, error) {
	tasks, err := s.ListTasks(Filter{ProjectID: projectID, IncludeCompleted: includeCompleted})
	if err != nil {
		return nil, err
	}

	return BuildTree(tasks), nil
}

// Subtasks returns the children of the task resolved from id, sorted by order.
// With recursive it returns every descendant in pre-order. The bool is false
// when the task does not exist.
func (s *Store) Subtasks(id string, recursive bool) ([]task.Task, bool, error) {
	tx := s.begin()

	ref, ok, err := tx.findTask(id)
	if err != nil || !ok {
		return nil, false, err
	}

	all, err := tx.allTasks()
	if err != nil {
		return nil, false, err
	}

	parentID := ref.task().ID

	if recursive {
		return collectDescendants(all, parentID), true, nil
	}

	children := make([]task.Task, 0)

	for _, tk := range all {
		if tk.ParentID == parentID && tk.ID != parentID {
			children = append(children, tk)
		}
	}

	slices.SortFunc(children, compareSiblings)

	return children, true, nil
}

// collectDescendants returns every descendant of rootID in pre-order, each
// sibling list sorted by order. Cycles are cut at the first revisit.
func collectDescendants(all []task.Task, rootID string) []task.Task {
	children := make(map[string][]task.Task)

	for _, tk := range all {
		if tk.ParentID != "" && tk.ParentID != tk.ID {
			children[tk.ParentID] = append(children[tk.ParentID], tk)
		}
	}

	for _, list := range children {
		slices.SortFunc(list, compareSiblings)
	}

	seen := map[string]bool{rootID: true}
	out := make([]task.Task, 0)

	stack := slices.Clone(children[rootID])
	slices.Reverse(stack)

	for len(stack) > 0 {
		tk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[tk.ID] {
			continue
		}

		seen[tk.ID] = true
		out = append(out, tk)

		kids := children[tk.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	return out
}
