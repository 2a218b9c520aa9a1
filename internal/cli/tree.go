package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
)

// treeCmd returns the tree command.
func treeCmd(a *app) *Command {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.StringP("project", "P", "", `Limit to one project ("none" for unassigned tasks)`)
	fs.BoolP("all", "a", false, "Include done and cancelled tasks")

	return &Command{
		Flags: fs,
		Usage: "tree [flags]",
		Short: "Show tasks as a tree",
		Long: `Show the task hierarchy. Tasks whose parent is hidden or missing are shown
as roots. Siblings are ordered by creation order.`,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			project, _ := fs.GetString("project")
			all, _ := fs.GetBool("all")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			err = requireProject(s, project)
			if err != nil {
				return err
			}

			roots, err := s.Tree(project, all)
			if err != nil {
				return err
			}

			io.Println(format.Tree(io.Styles(), roots))

			return nil
		},
	}
}

// subCmd returns the sub command.
func subCmd(a *app) *Command {
	fs := flag.NewFlagSet("sub", flag.ContinueOnError)
	fs.BoolP("recursive", "r", false, "Include all descendants")

	return &Command{
		Flags:   fs,
		Usage:   "sub <id> [flags]",
		Aliases: []string{"subtasks"},
		Short:   "List subtasks of a task",
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := oneID(args)
			if err != nil {
				return err
			}

			recursive, _ := fs.GetBool("recursive")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			tasks, ok, err := s.Subtasks(id, recursive)
			if err != nil {
				return err
			}

			if !ok {
				return taskNotFound(id)
			}

			io.Println(format.TaskList(io.Styles(), tasks))

			return nil
		},
	}
}
