package store

import (
	"fmt"
	"strings"
)

// IssueKind classifies an integrity problem found by [Store.Check].
type IssueKind string

// Issue kinds.
const (
	IssueSchema             IssueKind = "schema"
	IssueDuplicateID        IssueKind = "duplicate-id"
	IssueDanglingParent     IssueKind = "dangling-parent"
	IssueDanglingDependency IssueKind = "dangling-dependency"
	IssueParentCycle        IssueKind = "parent-cycle"
	IssueProjectMismatch    IssueKind = "project-mismatch"
)

// Issue is one integrity problem.
type Issue struct {
	UnitKey string    `json:"unit"`
	TaskID  string    `json:"taskId,omitempty"`
	Kind    IssueKind `json:"kind"`
	Detail  string    `json:"detail"`
}

func (i Issue) String() string {
	unit := i.UnitKey
	if unit == DefaultUnit {
		unit = "default"
	}

	if i.TaskID == "" {
		return fmt.Sprintf("%s [%s] %s", unit, i.Kind, i.Detail)
	}

	return fmt.Sprintf("%s/%s [%s] %s", unit, i.TaskID, i.Kind, i.Detail)
}

// rawUnits is implemented by repositories that can return stored bytes.
type rawUnits interface {
	Raw(key string) ([]byte, error)
}

// Check reports integrity problems in the stored units. It never writes.
func (s *Store) Check() ([]Issue, error) {
	tx := s.begin()

	keys, err := tx.scanKeys()
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)

	if raw, ok := s.units.(rawUnits); ok {
		for _, key := range keys {
			data, err := raw.Raw(key)
			if err != nil {
				return nil, err
			}

			if data == nil {
				continue
			}

			problems, err := ValidateUnit(data)
			if err != nil {
				return nil, err
			}

			for _, p := range problems {
				issues = append(issues, Issue{UnitKey: key, Kind: IssueSchema, Detail: p})
			}
		}
	}

	index, err := tx.taskIndex()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)

	for _, key := range keys {
		u, err := tx.unit(key)
		if err != nil {
			return nil, err
		}

		for i := range u.Tasks {
			tk := &u.Tasks[i]

			if seen[tk.ID] {
				issues = append(issues, Issue{key, tk.ID, IssueDuplicateID, "id is used by more than one task"})
			}

			seen[tk.ID] = true

			if tk.ProjectID != key {
				issues = append(issues, Issue{key, tk.ID, IssueProjectMismatch,
					fmt.Sprintf("projectId %q does not match its unit", tk.ProjectID)})
			}

			if tk.ParentID != "" {
				if _, ok := index[tk.ParentID]; !ok {
					issues = append(issues, Issue{key, tk.ID, IssueDanglingParent,
						fmt.Sprintf("parent %s does not exist", tk.ParentID)})
				} else if onParentCycle(index, tk.ID) {
					issues = append(issues, Issue{key, tk.ID, IssueParentCycle, "task is its own ancestor"})
				}
			}

			var dangling []string

			for _, dep := range tk.DependsOn {
				if _, ok := index[dep]; !ok {
					dangling = append(dangling, dep)
				}
			}

			if len(dangling) > 0 {
				issues = append(issues, Issue{key, tk.ID, IssueDanglingDependency,
					"missing dependencies: " + strings.Join(dangling, ", ")})
			}
		}
	}

	return issues, nil
}

// onParentCycle reports whether walking up from id returns to id.
func onParentCycle(index map[string]taskRef, id string) bool {
	ref, ok := index[id]
	if !ok {
		return false
	}

	return wouldCreateCycle(index, id, ref.task().ParentID)
}
