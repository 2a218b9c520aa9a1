package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
	"github.com/calvinalkan/tasktree/internal/store"
)

var errUnknownSubcommand = errors.New("unknown project subcommand")

// projectCmd returns the project command with its add, ls, show, update and rm subcommands.
func projectCmd(a *app) *Command {
	fs := flag.NewFlagSet("project", flag.ContinueOnError)
	fs.SetInterspersed(false)

	subs := []*Command{
		projectAddCmd(a),
		projectLsCmd(a),
		projectShowCmd(a),
		projectUpdateCmd(a),
		projectRmCmd(a),
	}

	var long strings.Builder

	long.WriteString("Manage projects. Every project keeps its tasks in its own file.\n\nSubcommands:\n")

	for _, sub := range subs {
		long.WriteString(sub.HelpLine() + "\n")
	}

	return &Command{
		Flags:   fs,
		Usage:   "project <subcommand> [args]",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
		Long:    strings.TrimRight(long.String(), "\n"),
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) == 0 {
				return runSub(ctx, io, subs[1], nil)
			}

			for _, sub := range subs {
				if sub.Matches(args[0]) {
					return runSub(ctx, io, sub, args[1:])
				}
			}

			return fmt.Errorf("%w: %s", errUnknownSubcommand, args[0])
		},
	}
}

// runSub parses args into sub's flags and executes it. Help is printed, not returned.
func runSub(ctx context.Context, io *IO, sub *Command, args []string) error {
	sub.Flags.SetOutput(&strings.Builder{})

	err := sub.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		io.Println("Usage: tt project", sub.Usage)

		if sub.Flags.HasFlags() {
			io.Println()
			io.Println("Flags:")
			io.Printf("%s", sub.Flags.FlagUsages())
		}

		return nil
	}

	if err != nil {
		return err
	}

	return sub.Exec(ctx, io, sub.Flags.Args())
}

func projectAddCmd(a *app) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("description", "d", "", "Project description")

	return &Command{
		Flags:   fs,
		Usage:   "add <name> [flags]",
		Aliases: []string{"new", "create"},
		Short:   "Create a project",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name := strings.Join(args, " ")
			description, _ := fs.GetString("description")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			p, err := s.CreateProject(name, description)
			if err != nil {
				return err
			}

			io.Println(p.ID)

			return nil
		},
	}
}

func projectLsCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage:   "ls",
		Aliases: []string{"list"},
		Short:   "List projects by name",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			projects, err := s.ListProjects()
			if err != nil {
				return err
			}

			io.Println(format.ProjectList(io.Styles(), projects))

			return nil
		},
	}
}

func projectShowCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("show", flag.ContinueOnError),
		Usage:   "show <id|name>",
		Aliases: []string{"get"},
		Short:   "Show a project with its task statistics",
		Exec: func(_ context.Context, io *IO, args []string) error {
			ref, err := oneProject(args)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			p, ok, err := s.ResolveProject(ref)
			if err != nil {
				return err
			}

			if !ok {
				return projectNotFound(ref)
			}

			stats, err := s.Stats(p.ID)
			if err != nil {
				return err
			}

			io.Println(format.ProjectDetail(io.Styles(), p, stats))

			return nil
		},
	}
}

func projectUpdateCmd(a *app) *Command {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.String("name", "", "New name")
	fs.StringP("description", "d", "", "New description")

	return &Command{
		Flags:   fs,
		Usage:   "update <id|name> [flags]",
		Aliases: []string{"edit", "rename"},
		Short:   "Change a project's name or description",
		Exec: func(_ context.Context, io *IO, args []string) error {
			ref, err := oneProject(args)
			if err != nil {
				return err
			}

			var upd store.ProjectUpdate

			if fs.Changed("name") {
				v, _ := fs.GetString("name")
				upd.Name = &v
			}

			if fs.Changed("description") {
				v, _ := fs.GetString("description")
				upd.Description = &v
			}

			if upd.Name == nil && upd.Description == nil {
				return errNothingToUpdate
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			p, ok, err := s.ResolveProject(ref)
			if err != nil {
				return err
			}

			if !ok {
				return projectNotFound(ref)
			}

			p, _, err = s.UpdateProject(p.ID, upd)
			if err != nil {
				return err
			}

			io.Println(format.ProjectLine(io.Styles(), p))

			return nil
		},
	}
}

func projectRmCmd(a *app) *Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.Bool("cascade", false, "Also delete the project's tasks")

	return &Command{
		Flags:   fs,
		Usage:   "rm <id|name> [flags]",
		Aliases: []string{"delete"},
		Short:   "Delete a project; its tasks move to no project unless --cascade",
		Exec: func(_ context.Context, io *IO, args []string) error {
			ref, err := oneProject(args)
			if err != nil {
				return err
			}

			cascade, _ := fs.GetBool("cascade")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			p, ok, err := s.ResolveProject(ref)
			if err != nil {
				return err
			}

			if !ok {
				return projectNotFound(ref)
			}

			_, err = s.DeleteProject(p.ID, cascade)
			if err != nil {
				return err
			}

			io.Println("Deleted project", p.ID)

			return nil
		},
	}
}

// oneProject joins args so unquoted multi-word names resolve.
func oneProject(args []string) (string, error) {
	if len(args) == 0 {
		return "", errProjectRequired
	}

	return strings.Join(args, " "), nil
}
