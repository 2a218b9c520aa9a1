package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tasktree/internal/mcpserver"
)

// mcpCmd returns the mcp command.
func mcpCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("mcp", flag.ContinueOnError),
		Usage: "mcp",
		Short: "Serve the task tools over MCP on stdin/stdout",
		Long: `Run a Model Context Protocol server on stdin/stdout until input ends or the
process is interrupted. Logs go to stderr.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			return mcpserver.Serve(ctx, s, a.logger, io.In(), io.out)
		},
	}
}
