package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

var errNothingToUpdate = errors.New("nothing to update: pass at least one flag")

// updateCmd returns the update command.
func updateCmd(a *app) *Command {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.String("title", "", "New title")
	fs.StringP("description", "d", "", "New description")
	fs.StringP("status", "s", "", "New status")
	fs.StringP("priority", "p", "", "New priority")
	fs.StringSliceP("tags", "t", nil, `Replace tags ("" clears them)`)
	fs.String("due", "", `New due date ("none" clears it)`)
	fs.String("parent", "", `New parent task ID ("none" makes it a root task)`)

	return &Command{
		Flags:   fs,
		Usage:   "update <id> [flags]",
		Aliases: []string{"edit"},
		Short:   "Change task fields",
		Long: `Change the fields given as flags. A parent that does not exist or would make
the task its own ancestor is ignored with a warning; the other changes apply.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execUpdate(io, a, fs, args)
		},
	}
}

func execUpdate(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}

	upd, err := updateFromFlags(fs)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	updated, ok, err := s.UpdateTask(id, upd)
	if err != nil {
		return err
	}

	if !ok {
		return taskNotFound(id)
	}

	if upd.ParentID != nil && !task.IsClearValue(*upd.ParentID) &&
		!strings.HasPrefix(strings.ToLower(updated.ParentID), strings.ToLower(*upd.ParentID)) {
		io.WarnLLM("parent "+*upd.ParentID+" was not applied", "check that it exists and is not a descendant of "+updated.ID)
	}

	io.Println(format.TaskLine(io.Styles(), updated))

	return nil
}

func updateFromFlags(fs *flag.FlagSet) (store.TaskUpdate, error) {
	var upd store.TaskUpdate

	changed := false

	fs.Visit(func(*flag.Flag) { changed = true })

	if !changed {
		return upd, errNothingToUpdate
	}

	if fs.Changed("title") {
		v, _ := fs.GetString("title")
		upd.Title = &v
	}

	if fs.Changed("description") {
		v, _ := fs.GetString("description")
		upd.Description = &v
	}

	if fs.Changed("status") {
		raw, _ := fs.GetString("status")

		status, err := task.ParseStatus(raw)
		if err != nil {
			return upd, err
		}

		upd.Status = &status
	}

	if fs.Changed("priority") {
		raw, _ := fs.GetString("priority")

		priority, err := task.ParsePriority(raw)
		if err != nil {
			return upd, err
		}

		upd.Priority = &priority
	}

	if fs.Changed("tags") {
		raw, _ := fs.GetStringSlice("tags")
		tags := splitTags(raw)
		upd.Tags = &tags
	}

	if fs.Changed("due") {
		raw, _ := fs.GetString("due")

		due, err := parseDue(raw)
		if err != nil {
			return upd, err
		}

		upd.DueDate = due
		upd.ClearDueDate = due == nil
	}

	if fs.Changed("parent") {
		v, _ := fs.GetString("parent")
		v = strings.TrimSpace(v)
		upd.ParentID = &v
	}

	return upd, nil
}
