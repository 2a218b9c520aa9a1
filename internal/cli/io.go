package cli

import (
	"fmt"
	"io"

	"github.com/calvinalkan/tasktree/internal/format"
)

// IO handles command output with LLM-friendly warning visibility.
type IO struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	styles   format.Styles
	warnings []string
	started  bool
}

// NewIO creates a new IO instance. Output styles follow the terminal
// capabilities of out.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{in: in, out: out, errOut: errOut, styles: format.NewStyles(out)}
}

// In returns the command input stream.
func (o *IO) In() io.Reader {
	return o.in
}

// Styles returns the output styles.
func (o *IO) Styles() format.Styles {
	return o.styles
}

// WarnLLM adds an actionable warning for LLM visibility.
//
// Parameters:
//   - issue: what went wrong
//   - action: what the LLM should do about it
//
// Warnings are printed to stderr at both the START and END of output,
// ensuring visibility regardless of truncation or piping (head/tail).
// Any warnings cause exit code 1 to signal attention is needed.
//
// Output to stdout (via Println) still occurs - warnings don't suppress
// normal output. This allows partial results with issues flagged.
func (o *IO) WarnLLM(issue string, action string) {
	o.warnings = append(o.warnings, fmt.Sprintf("%s: %s", issue, action))
}

// Println writes to stdout. On first call, any collected warnings
// are printed to stderr first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout. On first call, any collected
// warnings are printed to stderr first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish prints warnings to stderr and returns exit code.
// Returns 1 if any warnings, 0 otherwise.
func (o *IO) Finish() int {
	// If no output happened but we have warnings, print them at "start" position
	o.flushWarningsStart()

	// Always print at end
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}

// fork returns a fresh IO on the same streams, with no pending warnings.
func (o *IO) fork() *IO {
	return &IO{in: o.in, out: o.out, errOut: o.errOut, styles: o.styles}
}
