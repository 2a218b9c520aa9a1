package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

// shellCmd returns the shell command.
func shellCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage:   "shell",
		Aliases: []string{"repl"},
		Short:   "Run commands interactively",
		Long: `Read commands line by line and run them against the same data directory.
Quote arguments with spaces. Type "help" for commands and "exit" to leave.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return runShell(ctx, io, a)
		},
	}
}

// lineReader yields one input line per call. It returns io.EOF when input ends.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

func runShell(ctx context.Context, o *IO, a *app) error {
	r := newLineReader(o.In(), a.env)
	defer func() { _ = r.Close() }()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.Prompt("tt> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r.AppendHistory(line)

		args, err := shellwords.Parse(line)
		if err != nil {
			o.ErrPrintln("error:", err)

			continue
		}

		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			printUsage(o.out, shellCommands(a))

			continue
		}

		cmd := findCommand(shellCommands(a), args[0])
		if cmd == nil {
			o.ErrPrintln("error:", fmt.Errorf("%w: %s", errUnknownCommand, args[0]))

			continue
		}

		sub := o.fork()
		cmd.Run(ctx, sub, args[1:])
		sub.Finish()
	}
}

// shellCommands returns the commands available inside the shell.
func shellCommands(a *app) []*Command {
	all := a.commands()
	cmds := make([]*Command, 0, len(all))

	for _, cmd := range all {
		switch cmd.Name() {
		case "shell", "mcp":
			continue
		}

		cmds = append(cmds, cmd)
	}

	return cmds
}

// newLineReader uses liner with history when in is a terminal and plain
// line scanning otherwise.
func newLineReader(in io.Reader, env map[string]string) lineReader {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return newLinerReader(historyFile(env))
	}

	return &scanReader{sc: bufio.NewScanner(in)}
}

func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)

	return err == nil
}

func historyFile(env map[string]string) string {
	if env["HOME"] == "" {
		return ""
	}

	return filepath.Join(env["HOME"], ".tt_history")
}

type linerReader struct {
	*liner.State

	history string
}

func newLinerReader(history string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &linerReader{State: state, history: history}
}

// Close saves history and restores the terminal.
func (l *linerReader) Close() error {
	if l.history != "" {
		if f, err := os.Create(l.history); err == nil {
			_, _ = l.WriteHistory(f)
			_ = f.Close()
		}
	}

	return l.State.Close()
}

type scanReader struct {
	sc *bufio.Scanner
}

func (s *scanReader) Prompt(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return s.sc.Text(), nil
}

func (*scanReader) AppendHistory(string) {}

func (*scanReader) Close() error { return nil }
