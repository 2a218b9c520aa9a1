package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/store"
)

// statusCmd returns one of the status shortcut commands: done, start or block.
func statusCmd(a *app, verb string) *Command {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)

	cmd := &Command{Flags: fs, Usage: verb + " <id>"}

	var apply func(s *store.Store, id string) (bool, error)

	switch verb {
	case "done":
		fs.BoolP("recursive", "r", false, "Also complete all subtasks")

		cmd.Usage = "done <id> [flags]"
		cmd.Aliases = []string{"complete", "close"}
		cmd.Short = "Mark a task done"
		apply = func(s *store.Store, id string) (bool, error) {
			recursive, _ := fs.GetBool("recursive")

			return s.CompleteTask(id, recursive)
		}
	case "start":
		cmd.Short = "Mark a task in progress"
		apply = (*store.Store).StartTask
	case "block":
		cmd.Short = "Mark a task blocked"
		apply = (*store.Store).BlockTask
	default:
		panic("unknown status command: " + verb)
	}

	cmd.Exec = func(_ context.Context, io *IO, args []string) error {
		id, err := oneID(args)
		if err != nil {
			return err
		}

		s, err := a.openStore()
		if err != nil {
			return err
		}

		ok, err := apply(s, id)
		if err != nil {
			return err
		}

		if !ok {
			return taskNotFound(id)
		}

		t, _, err := s.GetTask(id)
		if err != nil {
			return err
		}

		io.Println(fmt.Sprintf("%s -> %s", t.ID, t.Status))

		return nil
	}

	return cmd
}
