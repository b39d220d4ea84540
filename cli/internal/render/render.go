// Package render turns a category and change facts into a commit message in
// a chosen style and language.
//
// # Styles
// Descriptive messages are one capitalised sentence naming the dominant
// subject of the change, followed by line statistics. Conventional messages
// follow "type(scope): summary" with a lower-case summary of at most 72
// characters for the whole header.
//
// # Languages
// Phrases come from a Locale. A language without a locale falls back to
// English as a whole; phrases are never mixed across languages.
//
// # Missing facts
// Placeholders whose fact is missing are replaced by the locale's generic
// noun, so output never contains a raw {placeholder}.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/facts"
)

// Style selects the message shape.
type Style string

const (
	StyleDescriptive  Style = "descriptive"
	StyleConventional Style = "conventional"
	// StyleAI delegates phrasing to a text-generation backend.
	StyleAI Style = "ai"
)

// ParseStyle accepts a style name case-insensitively.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleDescriptive, "":
		return StyleDescriptive, nil
	case StyleConventional, "conv":
		return StyleConventional, nil
	case StyleAI:
		return StyleAI, nil
	}
	return "", fmt.Errorf("unknown style %q (want descriptive, conventional or ai)", s)
}

// Message is a rendered commit message.
type Message struct {
	Category classify.Category `json:"category"`
	Tag      string            `json:"tag"`
	// Summary is the first line of the message.
	Summary  string `json:"summary"`
	Body     string `json:"body,omitempty"`
	Language string `json:"language"`
	Style    Style  `json:"style"`
}

// String returns the message as commit text: summary, blank line, body.
func (m Message) String() string {
	if m.Body == "" {
		return m.Summary
	}
	return m.Summary + "\n\n" + m.Body
}

// MaxSummary is the longest first line a conventional message may have.
const MaxSummary = 72

// Options tune rendering.
type Options struct {
	// Scope adds "(dir)" to conventional headers when all files share a top-level directory.
	Scope bool
	// Body lists changed files under the summary when more than one file changed.
	Body bool
}

// Renderer renders messages. It is read-only after construction.
type Renderer struct {
	catalog *Catalog
	opts    Options
}

// New returns a renderer over catalog (built-ins when nil).
func New(catalog *Catalog, opts Options) *Renderer {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Renderer{catalog: catalog, opts: opts}
}

// Catalog returns the renderer's locale catalog.
func (r *Renderer) Catalog() *Catalog {
	return r.catalog
}

// Render builds the message for cat and f. StyleAI renders descriptively;
// delegation is the caller's job.
func (r *Renderer) Render(cat classify.Category, f facts.Facts, style Style, lang string) Message {
	loc, _ := r.catalog.Resolve(lang)
	tag := language.Make(loc.Code)
	if style != StyleConventional {
		style = StyleDescriptive
	}
	msg := Message{Category: cat, Tag: cat.Tag(), Language: loc.Code, Style: style}

	sub := f.Dominant()
	if style == StyleConventional {
		msg.Summary = r.conventional(loc, tag, cat, f, sub)
	} else {
		main := mainClause(loc, cat, sub, true)
		stats := fill(loc.Templates.Stats, vars{"added": strconv.Itoa(f.Added), "removed": strconv.Itoa(f.Removed)}, loc.Nouns.Generic)
		msg.Summary = capitalizeFirst(main, tag, sub) + " " + stats
	}
	if r.opts.Body && f.Files() > 1 {
		msg.Body = body(loc, f)
	}
	return msg
}

// conventional returns the header, shortening the clause until it fits.
func (r *Renderer) conventional(loc *Locale, tag language.Tag, cat classify.Category, f facts.Facts, sub facts.Subject) string {
	prefix := cat.Tag()
	if scope := f.Scope(); r.opts.Scope && scope != "" {
		prefix += "(" + scope + ")"
	}
	prefix += ": "

	candidates := []string{mainClause(loc, cat, sub, true)}
	switch sub.Kind {
	case facts.SubjectSwap:
		candidates = append(candidates, mainClause(loc, cat, sub, false))
		sub.Swap.Symbol = ""
		candidates = append(candidates, mainClause(loc, cat, sub, false))
	case facts.SubjectSymbols:
		if len(sub.Names) > 1 {
			candidates = append(candidates, mainClause(loc, cat, facts.Subject{Kind: facts.SubjectSymbols, Names: sub.Names[:1], Files: sub.Files}, false))
		}
		candidates = append(candidates, mainClause(loc, cat, facts.Subject{Kind: facts.SubjectFiles, Files: sub.Files}, false))
	case facts.SubjectFile:
		candidates = append(candidates, mainClause(loc, cat, facts.Subject{Kind: facts.SubjectFiles}, false))
	}
	for _, c := range candidates {
		header := prefix + lowerFirst(c, tag, sub)
		if runeLen(header) <= MaxSummary {
			return header
		}
	}
	return truncateWords(prefix+lowerFirst(candidates[len(candidates)-1], tag, sub), MaxSummary)
}

// mainClause renders the swap or "{verb} {subject}" clause without stats.
func mainClause(loc *Locale, cat classify.Category, sub facts.Subject, purpose bool) string {
	if sub.Kind == facts.SubjectSwap {
		sw := sub.Swap
		tpl := loc.Templates.Swap
		if sw.Symbol != "" {
			tpl = loc.Templates.SwapInSymbol
		}
		v := vars{"from": sw.From, "to": sw.To, "symbol": sw.Symbol}
		if purpose {
			v["purpose"] = fill(loc.Templates.Purpose, vars{"family": loc.family(sw.Family)}, loc.Nouns.Generic)
		} else {
			v["purpose"] = ""
		}
		return trimClause(fillKeepEmpty(tpl, v, loc.Nouns.Generic))
	}
	return fill(loc.Templates.Summary, vars{"verb": loc.verb(cat), "subject": subject(loc, sub)}, loc.Nouns.Generic)
}

func subject(loc *Locale, sub facts.Subject) string {
	switch sub.Kind {
	case facts.SubjectSymbols:
		switch n := len(sub.Names); {
		case n == 1:
			return fill(loc.Nouns.Symbol, vars{"name": sub.Names[0]}, loc.Nouns.Generic)
		case n <= 3:
			return fill(loc.Nouns.Symbols, vars{"names": loc.list(sub.Names)}, loc.Nouns.Generic)
		default:
			return fill(loc.Nouns.SymbolsMore, vars{
				"names": strings.Join(sub.Names[:3], ", "),
				"count": strconv.Itoa(n - 3),
			}, loc.Nouns.Generic)
		}
	case facts.SubjectFile:
		if len(sub.Names) > 0 {
			return fill(loc.Nouns.File, vars{"path": sub.Names[0]}, loc.Nouns.Generic)
		}
	case facts.SubjectFiles:
		if sub.Files > 0 {
			return fill(loc.Nouns.Files, vars{"count": strconv.Itoa(sub.Files)}, loc.Nouns.Generic)
		}
	}
	return loc.Nouns.Generic
}

func body(loc *Locale, f facts.Facts) string {
	lines := []string{loc.Templates.BodyHeader}
	for _, p := range f.Paths {
		c := f.Counts[p]
		lines = append(lines, fill(loc.Templates.BodyLine, vars{
			"path":    p,
			"status":  loc.status(f.Statuses[p]),
			"added":   strconv.Itoa(c.Added),
			"removed": strconv.Itoa(c.Removed),
		}, loc.Nouns.Generic))
	}
	return strings.Join(lines, "\n")
}

type vars map[string]string

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// fill substitutes {key} placeholders in one pass; substituted values are
// not re-scanned. Unknown or empty keys become generic.
func fill(tpl string, v vars, generic string) string {
	return collapseSpaces(placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		if s := v[m[1:len(m)-1]]; s != "" {
			return s
		}
		return generic
	}))
}

// fillKeepEmpty is fill, except that keys present in v with an empty value
// are removed rather than replaced by generic.
func fillKeepEmpty(tpl string, v vars, generic string) string {
	return collapseSpaces(placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		if s, ok := v[m[1:len(m)-1]]; ok {
			return s
		}
		return generic
	}))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// trimClause drops separators left dangling by an empty trailing placeholder.
func trimClause(s string) string {
	return strings.TrimRight(s, " ,;:")
}

// keepCase reports whether w is a fact (identifier, path, symbol) whose
// case must not change.
func keepCase(w string, sub facts.Subject) bool {
	for i, r := range w {
		if r == '_' || r == '.' || r == '/' || unicode.IsDigit(r) || (i > 0 && unicode.IsUpper(r)) {
			return true
		}
	}
	for _, n := range sub.Names {
		if w == n {
			return true
		}
	}
	return w == sub.Swap.From || w == sub.Swap.To || w == sub.Swap.Symbol
}

func splitFirst(s string) (string, string) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func capitalizeFirst(s string, tag language.Tag, sub facts.Subject) string {
	w, rest := splitFirst(s)
	if w == "" || keepCase(w, sub) {
		return s
	}
	return cases.Title(tag, cases.NoLower).String(w) + rest
}

func lowerFirst(s string, tag language.Tag, sub facts.Subject) string {
	w, rest := splitFirst(s)
	if w == "" || keepCase(w, sub) {
		return s
	}
	return cases.Lower(tag).String(w) + rest
}

func runeLen(s string) int {
	return len([]rune(s))
}

// truncateWords cuts s to at most limit runes at a word boundary.
func truncateWords(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	cut := string(rs[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return trimClause(cut)
}
