package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/task"
)

// moveCmd returns the move command.
func moveCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("move", flag.ContinueOnError),
		Usage:   "move <id> <project|none>",
		Aliases: []string{"mv"},
		Short:   "Move a task and its subtasks to a project",
		Long:    `Move a task with all its subtasks to another project, or to no project with "none". The task becomes a root task there.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			if len(args) == 0 {
				return task.ErrIDRequired
			}

			if len(args) < 2 {
				return errProjectRequired
			}

			if len(args) > 2 {
				return fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[2:], " "))
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			moved, err := s.MoveToProject(args[0], args[1])
			if err != nil {
				return err
			}

			target := moved.ProjectID
			if target == "" {
				target = "no project"
			}

			io.Println("Moved", moved.ID, "to", target)

			return nil
		},
	}
}
