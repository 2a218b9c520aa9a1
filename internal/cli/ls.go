package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

// lsCmd returns the ls command.
func lsCmd(a *app) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.StringP("status", "s", "", "Filter by status (todo|in_progress|blocked|done|cancelled)")
	fs.StringP("priority", "p", "", "Filter by priority (low|medium|high|critical)")
	fs.StringP("tag", "t", "", "Filter by tag")
	fs.StringP("project", "P", "", `Filter by project ID or name ("none" for unassigned tasks)`)
	fs.BoolP("all", "a", false, "Include done and cancelled tasks")

	return &Command{
		Flags:   fs,
		Usage:   "ls [flags]",
		Aliases: []string{"list"},
		Short:   "List tasks",
		Long: `List tasks, highest priority first, then by sibling order and creation time.
Done and cancelled tasks are hidden unless --all or --status selects them.`,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execLs(io, a, fs)
		},
	}
}

func execLs(io *IO, a *app, fs *flag.FlagSet) error {
	var filter store.Filter

	if fs.Changed("status") {
		raw, _ := fs.GetString("status")

		status, err := task.ParseStatus(raw)
		if err != nil {
			return err
		}

		filter.Status = &status
	}

	if fs.Changed("priority") {
		raw, _ := fs.GetString("priority")

		priority, err := task.ParsePriority(raw)
		if err != nil {
			return err
		}

		filter.Priority = &priority
	}

	filter.Tag, _ = fs.GetString("tag")
	filter.ProjectID, _ = fs.GetString("project")
	filter.IncludeCompleted, _ = fs.GetBool("all")

	s, err := a.openStore()
	if err != nil {
		return err
	}

	err = requireProject(s, filter.ProjectID)
	if err != nil {
		return err
	}

	tasks, err := s.ListTasks(filter)
	if err != nil {
		return err
	}

	io.Println(format.TaskList(io.Styles(), tasks))

	return nil
}

// readyCmd returns the ready command.
func readyCmd(a *app) *Command {
	fs := flag.NewFlagSet("ready", flag.ContinueOnError)
	fs.StringP("project", "P", "", "Limit to one project")

	return &Command{
		Flags: fs,
		Usage: "ready [flags]",
		Short: "List tasks that can be started",
		Long:  "List todo tasks whose dependencies are all done or cancelled.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			project, _ := fs.GetString("project")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			err = requireProject(s, project)
			if err != nil {
				return err
			}

			tasks, err := s.ReadyTasks(project)
			if err != nil {
				return err
			}

			io.Println(format.TaskList(io.Styles(), tasks))

			return nil
		},
	}
}
