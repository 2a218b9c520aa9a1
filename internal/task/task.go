// Package task defines the tt domain model: tasks, projects, their enums,
// id generation, sentinel errors and configuration loading.
package task

import (
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

// Status constants.
const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
	StatusBlocked    Status = "Blocked"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusBlocked, StatusDone, StatusCancelled}

// statusAliases maps lowercase spellings to statuses.
var statusAliases = map[string]Status{
	"todo":        StatusTodo,
	"open":        StatusTodo,
	"inprogress":  StatusInProgress,
	"in_progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"doing":       StatusInProgress,
	"done":        StatusDone,
	"blocked":     StatusBlocked,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// ParseStatus parses a status case-insensitively.
func ParseStatus(s string) (Status, error) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errorf(ErrInvalidStatus, s)
	}

	return status, nil
}

// IsClosed reports whether the status no longer blocks anything (Done or Cancelled).
func (s Status) IsClosed() bool {
	return s == StatusDone || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Priority is the urgency of a task.
type Priority string

// Priority constants.
const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// DefaultPriority is used when a task is created without one.
const DefaultPriority = PriorityMedium

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority parses a priority case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium", "med", "normal":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical", "crit", "urgent":
		return PriorityCritical, nil
	}

	return "", errorf(ErrInvalidPriority, s)
}

// Rank orders priorities: Low=0 up to Critical=3. Unknown priorities rank as Medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

// Task is a single unit of work. Field names are the persisted JSON names.
type Task struct {
	ID          string     `json:"id"`
	ParentID    string     `json:"parentId,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DependsOn   []string   `json:"dependsOn"`
}

// HasTag reports whether the task carries tag, compared case-insensitively.
func (t *Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}

	return false
}

// SetStatus changes the status and keeps CompletedAt consistent with it.
func (t *Task) SetStatus(status Status, now time.Time) {
	if status == StatusDone {
		if t.Status != StatusDone || t.CompletedAt == nil {
			completed := now
			t.CompletedAt = &completed
		}
	} else {
		t.CompletedAt = nil
	}

	t.Status = status
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.Tags = slices.Clone(t.Tags)
	t.DependsOn = slices.Clone(t.DependsOn)

	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}

	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		t.CompletedAt = &completed
	}

	return t
}

// Normalize fills slices that must never be nil and defaults empty enums.
func (t *Task) Normalize() {
	if t.Tags == nil {
		t.Tags = []string{}
	}

	if t.DependsOn == nil {
		t.DependsOn = []string{}
	}

	if t.Status == "" {
		t.Status = StatusTodo
	}

	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
}

// Project groups tasks into their own unit.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsClearValue reports whether s asks to clear a reference ("", "none" or "null").
func IsClearValue(s string) bool {
	s = strings.TrimSpace(s)

	return s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null")
}
