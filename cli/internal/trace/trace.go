// Package trace dumps the intermediate steps of a run (diff records, facts,
// rule, prompt, response) to stderr when --trace is set. A Tracer with a nil
// writer does nothing, so callers never need to check.
package trace

import (
	"fmt"
	"io"
	"strings"
)

const prefix = "[commitsum:trace]"

// Tracer writes sectioned trace output.
type Tracer struct {
	w io.Writer
}

// New returns a Tracer writing to w; nil disables it.
func New(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Enabled reports whether output is written. Safe on a nil *Tracer.
func (t *Tracer) Enabled() bool {
	return t != nil && t.w != nil
}

// Section writes "\n[commitsum:trace] === name ===\n".
func (t *Tracer) Section(name string) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, "\n%s === %s ===\n", prefix, name)
}

// Printf writes formatted text as-is.
func (t *Tracer) Printf(format string, args ...any) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

// Block writes a section followed by text, ending with exactly one newline.
func (t *Tracer) Block(name, text string) {
	if !t.Enabled() {
		return
	}
	t.Section(name)
	fmt.Fprintln(t.w, strings.TrimRight(text, "\n"))
}
