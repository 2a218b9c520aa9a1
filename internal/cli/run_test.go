package cli_test

import (
	"bytes"
	"testing"

	"github.com/calvinalkan/tasktree/internal/cli"
)

func Test_Bare_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	// Call Run directly without test helper (which adds --cwd)
	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"tt"}, nil, nil)

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stderr.String(), ""; got != want {
		t.Errorf("stderr=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stdout.String(), "tt - hierarchical task tracker")
	cli.AssertContains(t, stdout.String(), "--cwd")
	cli.AssertContains(t, stdout.String(), "add <title>")
}

func Test_Main_Help_When_Invoked(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		args []string
	}{
		{name: "long flag", args: []string{"--help"}},
		{name: "short flag", args: []string{"-h"}},
		{name: "flags only", args: []string{"-v"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stdout, stderr, exitCode := c.Run(tt.args...)

			if got, want := exitCode, 0; got != want {
				t.Errorf("exitCode=%d, want=%d", got, want)
			}

			if got, want := stderr, ""; got != want {
				t.Errorf("stderr=%q, want=%q", got, want)
			}

			cli.AssertContains(t, stdout, "tt - hierarchical task tracker")
			cli.AssertContains(t, stdout, "--data-dir")
			cli.AssertContains(t, stdout, "project <subcommand> [args]")
			cli.AssertContains(t, stdout, "depend <id> <depends-on-id>")
		})
	}
}

func Test_Invalid_Global_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--invalid-flag", "ls")

	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")
}

func Test_Flags_Requires_Argument_When_Invoked(t *testing.T) {
	t.Parallel()

	for _, flag := range []string{"-c", "--config", "--data-dir", "-C"} {
		c := cli.NewCLI(t)
		stderr := c.MustFail(flag)
		cli.AssertContains(t, stderr, "flag requires an argument")
	}
}

func Test_Unknown_Command_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("badcmd")
	cli.AssertContains(t, stderr, "unknown command: badcmd")
	cli.AssertContains(t, stderr, "Usage:")
	cli.AssertContains(t, stderr, "Commands:")
}

func Test_Help_Command_Is_Unknown_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("help")
	cli.AssertContains(t, stderr, "unknown command")
}

func Test_Command_Help_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("add", "--help")
	cli.AssertContains(t, stdout, "Usage: tt add <title> [flags]")
	cli.AssertContains(t, stdout, "--priority")
}

func Test_Invalid_Command_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("add", "--invalid-flag")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	// Should show command usage on stdout
	cli.AssertContains(t, stdout, "Usage: tt add <title>")
	cli.AssertContains(t, stdout, "Flags:")

	// Should show error message on stderr
	cli.AssertContains(t, stderr, "error:")
	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")
}

func Test_Command_Aliases_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := c.MustRun("new", "Via alias")

	cli.AssertContains(t, c.MustRun("list"), id)
	cli.AssertContains(t, c.MustRun("get", id), "# Via alias")
}
