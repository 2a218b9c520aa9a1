package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

// addCmd returns the add command.
func addCmd(a *app) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("description", "d", "", "Task description")
	fs.StringP("priority", "p", string(task.DefaultPriority), "Priority (low|medium|high|critical)")
	fs.StringSliceP("tag", "t", nil, "Tag, repeatable or comma separated")
	fs.String("due", "", "Due date (YYYY-MM-DD or YYYY-MM-DDTHH:MM)")
	fs.String("parent", "", "Parent task ID")
	fs.StringP("project", "P", "", "Project ID or name (default: parent's project)")

	return &Command{
		Flags:   fs,
		Usage:   "add <title> [flags]",
		Aliases: []string{"new", "create"},
		Short:   "Create a task",
		Long:    "Create a task and print its ID. Words after the command form the title.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execAdd(io, a, fs, args)
		},
	}
}

func execAdd(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return task.ErrTitleRequired
	}

	rawPriority, _ := fs.GetString("priority")

	priority, err := task.ParsePriority(rawPriority)
	if err != nil {
		return err
	}

	rawDue, _ := fs.GetString("due")

	due, err := parseDue(rawDue)
	if err != nil {
		return err
	}

	description, _ := fs.GetString("description")
	tags, _ := fs.GetStringSlice("tag")
	parent, _ := fs.GetString("parent")
	project, _ := fs.GetString("project")

	s, err := a.openStore()
	if err != nil {
		return err
	}

	created, err := s.AddTask(store.NewTask{
		Title:       title,
		Description: description,
		Priority:    priority,
		Tags:        splitTags(tags),
		DueDate:     due,
		ParentID:    parent,
		ProjectID:   project,
	})
	if err != nil {
		return err
	}

	io.Println(created.ID)

	return nil
}
