package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

var (
	errTooManyArgs      = errors.New("too many arguments")
	errDependsOnMissing = errors.New("dependency task ID is required")
	errProjectRequired  = errors.New("project is required")
)

// oneID returns the single id argument of a command.
func oneID(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", task.ErrIDRequired
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[1:], " "))
	}
}

func taskNotFound(id string) error {
	return fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
}

func projectNotFound(id string) error {
	return fmt.Errorf("%w: %s", task.ErrProjectNotFound, id)
}

// requireProject reports an unknown --project filter. The store treats an
// unknown project as an empty selection; the CLI reports it.
func requireProject(s *store.Store, project string) error {
	if project == "" || task.IsClearValue(project) {
		return nil
	}

	_, ok, err := s.ResolveProject(project)
	if err != nil {
		return err
	}

	if !ok {
		return projectNotFound(project)
	}

	return nil
}

// parseDue parses a --due value. A clear value ("", none, null) returns nil.
func parseDue(s string) (*time.Time, error) {
	if task.IsClearValue(s) {
		return nil, nil
	}

	due, err := task.ParseDate(s)
	if err != nil {
		return nil, err
	}

	return &due, nil
}

// splitTags splits comma separated tag flags.
func splitTags(values []string) []string {
	var tags []string

	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	return tags
}
