package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// rmCmd returns the rm command.
func rmCmd(a *app) *Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.Bool("cascade", false, "Also delete all subtasks")

	return &Command{
		Flags:   fs,
		Usage:   "rm <id> [flags]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long:    "Delete a task. Without --cascade its subtasks move up to the task's parent.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := oneID(args)
			if err != nil {
				return err
			}

			cascade, _ := fs.GetBool("cascade")

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

			_, err = s.DeleteTask(t.ID, cascade)
			if err != nil {
				return err
			}

			io.Println("Deleted", t.ID)

			return nil
		},
	}
}
