package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one tt subcommand.
type Command struct {
	// Flags holds the command flags. Its name is unused; Usage names the command.
	Flags *flag.FlagSet

	// Usage follows "tt" in help, e.g. "show <id>" or "ls [flags]".
	// Its first word is the command name.
	Usage string

	// Aliases are alternative names accepted on the command line and in the shell.
	Aliases []string

	// Short is the line shown in the command listing.
	Short string

	// Long is shown by "tt <cmd> --help". Short is used when empty.
	Long string

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// Matches reports whether name selects c.
func (c *Command) Matches(name string) bool {
	return name == c.Name() || slices.Contains(c.Aliases, name)
}

// HelpLine returns the line for the global command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-32s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "tt <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: tt", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses args, executes the command and returns its exit code.
// Errors are printed here so they always follow any partial output.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // pflag prints usage on its own otherwise

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
