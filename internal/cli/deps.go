package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

var errDependencyRefused = errors.New("dependency not added")

// depPair returns the two task ids of depend/undepend.
func depPair(args []string) (string, string, error) {
	switch len(args) {
	case 0:
		return "", "", task.ErrIDRequired
	case 1:
		return "", "", errDependsOnMissing
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[2:], " "))
	}
}

// dependCmd returns the depend command.
func dependCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("depend", flag.ContinueOnError),
		Usage:   "depend <id> <depends-on-id>",
		Aliases: []string{"dep"},
		Short:   "Make a task depend on another",
		Long: `Record that <id> cannot start before <depends-on-id> is done.
Self dependencies and edges that would form a cycle are refused.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, dependsOn, err := depPair(args)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			from, to, err := resolvePair(s, id, dependsOn)
			if err != nil {
				return err
			}

			added, err := s.AddDependency(from.ID, to.ID)
			if err != nil {
				return err
			}

			if !added {
				return fmt.Errorf("%w: %s -> %s would be a self dependency or a cycle", errDependencyRefused, from.ID, to.ID)
			}

			io.Println(from.ID, "depends on", to.ID)

			return nil
		},
	}
}

// undependCmd returns the undepend command.
func undependCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("undepend", flag.ContinueOnError),
		Usage:   "undepend <id> <depends-on-id>",
		Aliases: []string{"undep"},
		Short:   "Remove a dependency",
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, dependsOn, err := depPair(args)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			removed, err := s.RemoveDependency(id, dependsOn)
			if err != nil {
				return err
			}

			if !removed {
				io.WarnLLM(fmt.Sprintf("%s does not depend on %s", id, dependsOn), "check the ids with 'tt deps "+id+"'")

				return nil
			}

			io.Println(id, "no longer depends on", dependsOn)

			return nil
		},
	}
}

// depsCmd returns the deps command.
func depsCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("deps", flag.ContinueOnError),
		Usage: "deps <id>",
		Short: "Show dependencies, dependents and blockers of a task",
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := oneID(args)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			t, ok, err := s.GetTask(id)
			if err != nil {
				return err
			}

			if !ok {
				return taskNotFound(id)
			}

			deps, err := s.Dependencies(t.ID)
			if err != nil {
				return err
			}

			dependents, err := s.Dependents(t.ID)
			if err != nil {
				return err
			}

			blocking, err := s.BlockingDependencies(t.ID)
			if err != nil {
				return err
			}

			io.Println(format.Dependencies(io.Styles(), t, deps, dependents, blocking))

			return nil
		},
	}
}

func resolvePair(s *store.Store, a, b string) (task.Task, task.Task, error) {
	from, ok, err := s.GetTask(a)
	if err != nil {
		return task.Task{}, task.Task{}, err
	}

	if !ok {
		return task.Task{}, task.Task{}, taskNotFound(a)
	}

	to, ok, err := s.GetTask(b)
	if err != nil {
		return task.Task{}, task.Task{}, err
	}

	if !ok {
		return task.Task{}, task.Task{}, taskNotFound(b)
	}

	return from, to, nil
}
