package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
)

// showCmd returns the show command.
func showCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("show", flag.ContinueOnError),
		Usage:   "show <id>",
		Aliases: []string{"get"},
		Short:   "Show task details",
		Long:    "Show a task with its project, blockers, direct subtasks and dependents. IDs may be abbreviated.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execShow(io, a, args)
		},
	}
}

func execShow(io *IO, a *app, args []string) error {
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

	d, err := format.LoadDetail(s, t)
	if err != nil {
		return err
	}

	io.Println(format.TaskDetail(io.Styles(), d))

	return nil
}
