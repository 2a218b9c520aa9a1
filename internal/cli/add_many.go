package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/store"
)

var errNoInput = errors.New("no input: pass a file or pipe JSON to stdin")

// addManyCmd returns the add-many command.
func addManyCmd(a *app) *Command {
	fs := flag.NewFlagSet("add-many", flag.ContinueOnError)
	fs.StringP("project", "P", "", "Project ID or name for the top-level tasks")
	fs.String("parent", "", "Parent task ID for the top-level tasks")

	return &Command{
		Flags: fs,
		Usage: "add-many [file|-] [flags]",
		Short: "Create a task tree from JSON",
		Long: `Create many tasks at once from a JSON array read from file (or stdin when
omitted or "-"). Each element is {"title", "description", "priority", "tags",
"dueDate", "subtasks": [...]}. Input is validated before anything is created.
Prints one "<id> <title>" line per created task, indented by depth.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execAddMany(o, a, fs, args)
		},
	}
}

func execAddMany(o *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[1:], " "))
	}

	var (
		data []byte
		err  error
	)

	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(o.In())
	} else {
		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.EffectiveCwd, path)
		}

		data, err = os.ReadFile(path)
	}

	if err != nil {
		return fmt.Errorf("read task specs: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return errNoInput
	}

	specs, err := store.ParseTaskSpecs(data)
	if err != nil {
		return err
	}

	project, _ := fs.GetString("project")
	parent, _ := fs.GetString("parent")

	s, err := a.openStore()
	if err != nil {
		return err
	}

	created, err := s.AddMany(specs, project, parent)
	if err != nil {
		return err
	}

	depth := make(map[string]int, len(created))

	for _, t := range created {
		d := 0
		if pd, ok := depth[t.ParentID]; ok {
			d = pd + 1
		}

		depth[t.ID] = d

		o.Printf("%s%s %s\n", strings.Repeat("  ", d), t.ID, t.Title)
	}

	return nil
}
