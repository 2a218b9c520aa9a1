package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/format"
)

// statsCmd returns the stats command.
func statsCmd(a *app) *Command {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.StringP("project", "P", "", `Limit to a project ("none" for tasks without one)`)

	return &Command{
		Flags: fs,
		Usage: "stats [flags]",
		Short: "Show task counts by status and priority",
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

			stats, err := s.Stats(project)
			if err != nil {
				return err
			}

			io.Println(format.Stats(io.Styles(), stats))

			return nil
		},
	}
}

// checkCmd returns the check command.
func checkCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("check", flag.ContinueOnError),
		Usage:   "check",
		Aliases: []string{"doctor"},
		Short:   "Validate the data files and task links",
		Long: `Validate every unit file against its schema and report broken parent links,
dangling dependencies, parent cycles and duplicate ids. Nothing is modified.
Exits 1 when issues are found.`,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			issues, err := s.Check()
			if err != nil {
				return err
			}

			if len(issues) > 0 {
				io.WarnLLM(fmt.Sprintf("%d integrity issue(s)", len(issues)), "fix the listed tasks with 'tt update' or 'tt rm'")
			}

			io.Println(format.Issues(io.Styles(), issues))

			return nil
		},
	}
}
