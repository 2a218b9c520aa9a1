package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/tasktree/internal/store"
	"github.com/calvinalkan/tasktree/internal/task"
)

// CLI runs tt against a private working directory in tests.
// Env is passed to every run; set keys before calling Run.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI returns a CLI rooted in a fresh temp directory with an empty environment.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{t: t, Dir: t.TempDir(), Env: map[string]string{}}
}

// Run runs "tt --cwd <Dir> args..." with empty stdin.
func (c *CLI) Run(args ...string) (stdout, stderr string, code int) {
	return c.RunWithInput("", args...)
}

// RunWithInput is like Run with stdin set to input.
func (c *CLI) RunWithInput(input string, args ...string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer

	argv := append([]string{"tt", "--cwd", c.Dir}, args...)
	code = Run(strings.NewReader(input), &out, &errOut, argv, c.Env, nil)

	return out.String(), errOut.String(), code
}

// MustRun returns trimmed stdout and fails the test on a non-zero exit.
func (c *CLI) MustRun(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code != 0 {
		c.t.Fatalf("tt %s: exit %d\nstderr: %s", strings.Join(args, " "), code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail returns trimmed stderr. It fails the test when the command
// succeeds or writes to stdout.
func (c *CLI) MustFail(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)

	switch {
	case code == 0:
		c.t.Fatalf("tt %s: expected failure\nstdout: %s", strings.Join(args, " "), stdout)
	case stdout != "":
		c.t.Fatalf("tt %s: failed with output on stdout\nstdout: %s", strings.Join(args, " "), stdout)
	}

	return strings.TrimSpace(stderr)
}

// DataDir is the default data directory under Dir.
func (c *CLI) DataDir() string {
	return filepath.Join(c.Dir, task.DefaultConfig().DataDir)
}

// ReadUnit returns the unit file for key ("" is the default unit).
func (c *CLI) ReadUnit(key string) string {
	c.t.Helper()

	data, err := os.ReadFile(c.unitPath(key))
	if err != nil {
		c.t.Fatalf("read unit %q: %v", key, err)
	}

	return string(data)
}

// WriteUnit replaces the unit file for key, bypassing the store.
func (c *CLI) WriteUnit(key, content string) {
	c.t.Helper()

	path := c.unitPath(key)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		c.t.Fatalf("write unit %q: %v", key, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		c.t.Fatalf("write unit %q: %v", key, err)
	}
}

func (c *CLI) unitPath(key string) string {
	return store.NewFileUnits(nil, c.DataDir(), nil).Path(key)
}

// AssertContains reports an error when content lacks substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("missing %q in:\n%s", substr, content)
	}
}

// AssertNotContains reports an error when content has substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("unexpected %q in:\n%s", substr, content)
	}
}
