package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/task"
)

// printConfigCmd returns the print-config command.
func printConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			execPrintConfig(io, a.cfg)

			return nil
		},
	}
}

func execPrintConfig(io *IO, cfg task.Config) {
	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println(task.FormatConfig(cfg))
	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" && !cfg.Sources.Env {
		io.Println("(defaults only)")

		return
	}

	if cfg.Sources.Global != "" {
		io.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		io.Println("project_config=" + cfg.Sources.Project)
	}

	if cfg.Sources.Env {
		io.Println("env=" + task.EnvDataDir)
	}
}
