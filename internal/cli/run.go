// Package cli implements the tt command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/tasktree/internal/fs"
	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
	errUnknownCommand  = errors.New("unknown command")
)

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. When it delivers a signal the command context is cancelled.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if len(args) < minArgs {
		printUsage(out, (&app{}).commands())

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	cfg, err := task.LoadConfig(task.LoadConfigInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		DataDirOverride: flags.dataDir,
		Verbose:         flags.verbose,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a := &app{
		cfg:    cfg,
		env:    env,
		fs:     fs.NewReal(),
		logger: newLogger(errOut, cfg.Level()),
		memory: flags.memory,
	}

	commands := a.commands()

	if len(flags.remaining) == 0 || flags.remaining[0] == "-h" || flags.remaining[0] == helpFlag {
		printUsage(out, commands)

		return 0
	}

	name := flags.remaining[0]

	cmd := findCommand(commands, name)
	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", errUnknownCommand, name))
		printUsage(errOut, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				a.logger.Debug("received signal, shutting down", "signal", sig)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if in == nil {
		in = strings.NewReader("")
	}

	o := NewIO(in, out, errOut)

	code := cmd.Run(ctx, o, flags.remaining[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

// app carries what commands share for one invocation.
type app struct {
	cfg    task.Config
	env    map[string]string
	fs     fs.FS
	logger *log.Logger
	memory bool
	store  *store.Store
}

// openStore opens the store on first use so commands that never touch data
// (help, print-config) do not create the data directory.
func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	if a.memory {
		a.logger.Debug("using in-memory store")
		a.store = store.New(store.NewMemoryUnits(), store.WithLogger(a.logger))

		return a.store, nil
	}

	s, err := store.Open(a.fs, a.cfg.DataDirAbs, store.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	a.store = s

	return s, nil
}

// commands returns fresh command instances in help order. Flag sets keep
// parsed values, so every invocation needs its own set.
func (a *app) commands() []*Command {
	return []*Command{
		addCmd(a),
		addManyCmd(a),
		showCmd(a),
		lsCmd(a),
		treeCmd(a),
		subCmd(a),
		readyCmd(a),
		updateCmd(a),
		statusCmd(a, "done"),
		statusCmd(a, "start"),
		statusCmd(a, "block"),
		rmCmd(a),
		moveCmd(a),
		dependCmd(a),
		undependCmd(a),
		depsCmd(a),
		projectCmd(a),
		statsCmd(a),
		checkCmd(a),
		mcpCmd(a),
		shellCmd(a),
		printConfigCmd(a),
	}
}

func findCommand(commands []*Command, name string) *Command {
	for _, cmd := range commands {
		if cmd.Matches(name) {
			return cmd
		}
	}

	return nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "tt",
		ReportTimestamp: level == log.DebugLevel,
	})
}

type globalFlags struct {
	workDir    string
	configPath string
	dataDir    string
	verbose    bool
	memory     bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	value := func(short, long string, target *string) (int, bool, error) {
		if arg == short || arg == long {
			if idx+1 >= len(args) {
				return consumedNone, true, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
			}

			*target = args[idx+1]

			return consumedTwo, true, nil
		}

		if after, ok := strings.CutPrefix(arg, long+"="); ok {
			*target = after

			return consumedOne, true, nil
		}

		if short != "" && len(arg) > len(short) && !strings.HasPrefix(arg, "--") {
			if after, ok := strings.CutPrefix(arg, short); ok {
				*target = after

				return consumedOne, true, nil
			}
		}

		return consumedNone, false, nil
	}

	for _, f := range []struct {
		short, long string
		target      *string
	}{
		{"-C", "--cwd", &flags.workDir},
		{"-c", "--config", &flags.configPath},
		{"", "--data-dir", &flags.dataDir},
	} {
		consumed, matched, err := value(f.short, f.long, f.target)
		if matched {
			return consumed, err
		}
	}

	switch {
	case arg == "-v" || arg == "--verbose":
		flags.verbose = true

		return consumedOne, nil
	case arg == "--memory":
		flags.memory = true

		return consumedOne, nil
	case arg == "-h" || arg == helpFlag:
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	case strings.HasPrefix(arg, "-") && arg != "-":
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, `tt - hierarchical task tracker

Usage: tt [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
      --data-dir <dir>   Override the data directory
  -v, --verbose          Log debug output to stderr
      --memory           Keep data in memory only (nothing is saved)`)

	if len(commands) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, `Run "tt <command> --help" for command details.`)
}
