// Package output prints commitsum's results. The commit message alone goes to
// stdout so it can be piped into git; the analysis, warnings and errors go to
// stderr. Colour is used only when the stream is a terminal and NO_COLOR is
// unset.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"commitsum/cli/internal/erruser"
	"commitsum/cli/internal/render"
	"commitsum/cli/internal/summarize"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Printer writes results to a pair of streams.
type Printer struct {
	out      io.Writer
	err      io.Writer
	outColor bool
	errColor bool
}

// New returns a printer for stdout and stderr, deciding colour per stream.
func New(stdout, stderr io.Writer) *Printer {
	noColor := os.Getenv("NO_COLOR") != ""
	return &Printer{
		out:      stdout,
		err:      stderr,
		outColor: !noColor && IsTerminal(stdout),
		errColor: !noColor && IsTerminal(stderr),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(on bool, code, s string) string {
	if !on {
		return s
	}
	return code + s + ansiReset
}

// Analysis prints what the run found.
func (p *Printer) Analysis(res summarize.Result) {
	f := res.Facts
	exts := make([]string, 0, len(f.Extensions))
	for e := range f.Extensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	types := strings.Join(exts, ", ")
	if types == "" {
		types = "none"
	}
	fmt.Fprintln(p.err, paint(p.errColor, ansiYellow, "Analysis of changes:"))
	fmt.Fprintf(p.err, "  - Files changed: %d\n", f.Files())
	fmt.Fprintf(p.err, "  - Lines added: %d\n", f.Added)
	fmt.Fprintf(p.err, "  - Lines deleted: %d\n", f.Removed)
	fmt.Fprintf(p.err, "  - File types: %s\n", types)
	fmt.Fprintf(p.err, "  - Category: %s (%s)\n", res.Category, res.Category.Tag())
	if len(res.Excluded) > 0 {
		fmt.Fprintf(p.err, "  - Excluded: %s\n", strings.Join(res.Excluded, ", "))
	}
	fmt.Fprintln(p.err)
}

// Message prints the heading to stderr and the message to stdout.
func (p *Printer) Message(msg render.Message) {
	fmt.Fprintln(p.err, paint(p.errColor, ansiGreen, "Suggested commit message:"))
	fmt.Fprintln(p.out, paint(p.outColor, ansiBold, msg.Summary))
	if msg.Body != "" {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, msg.Body)
	}
}

// Info prints a plain status line to stderr.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.err, paint(p.errColor, ansiCyan, fmt.Sprintf(format, args...)))
}

// Warn prints a warning to stderr.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.err, paint(p.errColor, ansiYellow, "Warning: "+fmt.Sprintf(format, args...)))
}

// Error prints err's message, its cause as a "Details:" line and its
// recovery hint as a "Hint:" line.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.err, paint(p.errColor, ansiRed, err.Error()))
	if u := unwrap(err); u != nil {
		fmt.Fprintf(p.err, "Details: %v\n", u)
	}
	if h := erruser.HintOf(err); h != "" {
		fmt.Fprintf(p.err, "Hint: %s\n", h)
	}
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

// Report is the --json document.
type Report struct {
	Message  render.Message `json:"message"`
	Text     string         `json:"text"`
	Rule     string         `json:"rule"`
	Files    []string       `json:"files"`
	Excluded []string       `json:"excluded,omitempty"`
	Added    int            `json:"added"`
	Removed  int            `json:"removed"`
	// Fallback is true when AI phrasing was requested but not used.
	Fallback      bool   `json:"fallback"`
	FallbackError string `json:"fallback_error,omitempty"`
	Committed     bool   `json:"committed"`
}

// NewReport builds the JSON document for res.
func NewReport(res summarize.Result) Report {
	r := Report{
		Message:  res.Message,
		Text:     res.Message.String(),
		Rule:     res.Rule,
		Files:    res.Facts.Paths,
		Excluded: res.Excluded,
		Added:    res.Facts.Added,
		Removed:  res.Facts.Removed,
		Fallback: res.Fallback,
	}
	if r.Files == nil {
		r.Files = []string{}
	}
	if res.FallbackErr != nil {
		r.FallbackError = res.FallbackErr.Error()
	}
	return r
}

// JSON writes v to stdout as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return erruser.New("Could not write JSON output.", err)
	}
	return nil
}
