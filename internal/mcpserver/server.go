// Package mcpserver exposes the task store as Model Context Protocol tools
// served over stdio.
package mcpserver

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/calvinalkan/tasktree/internal/store"
)

// Version is reported to MCP clients. Set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every task tool registered.
func New(s *store.Store) *server.MCPServer {
	srv := server.NewMCPServer(
		"tt",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	srv.AddTools(tools(&handlers{store: s})...)

	return srv
}

// Serve runs the server on in/out until ctx is cancelled or in ends.
// Protocol errors are logged through logger, which must not write to out.
func Serve(ctx context.Context, s *store.Store, logger *log.Logger, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(New(s))
	stdio.SetErrorLogger(logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	logger.Debug("mcp server listening on stdio", "version", Version)

	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}

const instructions = `tt tracks tasks in a tree. Tasks have a title, status (Todo, InProgress,
Blocked, Done, Cancelled), priority (Low, Medium, High, Critical), tags, an optional due
date, an optional parent task, an optional project and dependencies on other tasks.

- Task and project ids are short hex strings; any unique prefix works.
- Projects may also be referenced by name.
- Use add_tasks to create a whole subtree at once.
- A task is ready when it is Todo and every task it depends on is Done or Cancelled.
- Pass "none" to clear a due date, parent or project.`
