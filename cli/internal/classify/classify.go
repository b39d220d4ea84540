// Package classify assigns exactly one category to a change. Rules form an
// ordered decision table: the first rule whose predicate matches wins, and a
// final catch-all guarantees a result.
package classify

import (
	"fmt"
	"strings"
	"unicode"

	"commitsum/cli/internal/facts"
)

// Category is the kind of change. The set is closed.
type Category string

const (
	Feature     Category = "feature"
	Fix         Category = "fix"
	Docs        Category = "docs"
	Style       Category = "style"
	Refactor    Category = "refactor"
	Test        Category = "test"
	Chore       Category = "chore"
	Performance Category = "performance"
	Build       Category = "build"
)

// Categories lists every category in declaration order.
var Categories = []Category{Feature, Fix, Docs, Style, Refactor, Test, Chore, Performance, Build}

// Tag returns the short conventional-commit type (feat, perf, ...).
func (c Category) Tag() string {
	switch c {
	case Feature:
		return "feat"
	case Performance:
		return "perf"
	case "":
		return string(Chore)
	}
	return string(c)
}

var aliases = map[string]Category{
	"feat": Feature, "features": Feature, "enhancement": Feature,
	"bugfix": Fix, "hotfix": Fix, "bug": Fix,
	"doc": Docs, "documentation": Docs,
	"perf": Performance, "optimization": Performance,
	"tests": Test, "testing": Test,
	"ci": Build, "deps": Build,
	"format": Style, "formatting": Style,
}

// ParseCategory accepts a category name, a tag or a common alias, case-insensitively.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if key == string(c) {
			return c, nil
		}
	}
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Rule is one row of the decision table.
type Rule struct {
	Name     string
	Category Category
	Match    func(f facts.Facts) bool
}

// Options tune the default rules. Zero values take the defaults.
type Options struct {
	// RefactorRatio is how many removed lines per added line make a shrinking
	// change a refactor.
	RefactorRatio float64
	FixKeywords   []string
	PerfKeywords  []string
}

const DefaultRefactorRatio = 1.5

var (
	DefaultFixKeywords  = []string{"fix", "bug", "patch", "hotfix", "bugfix"}
	DefaultPerfKeywords = []string{"perf", "optimize", "optimise", "speed", "fast"}
)

// Classifier evaluates rules in order.
type Classifier struct {
	rules []Rule
}

// New returns a classifier with the default rule table built from opts.
func New(opts Options) *Classifier {
	return &Classifier{rules: DefaultRules(opts)}
}

// NewWithRules returns a classifier over a caller-supplied table with a
// catch-all chore rule appended.
func NewWithRules(rules []Rule) *Classifier {
	out := append([]Rule(nil), rules...)
	out = append(out, Rule{Name: "fallback", Category: Chore, Match: func(facts.Facts) bool { return true }})
	return &Classifier{rules: out}
}

// Rules returns a copy of the decision table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the category of f.
func (c *Classifier) Classify(f facts.Facts) Category {
	cat, _ := c.Explain(f)
	return cat
}

// Explain returns the category of f and the name of the rule that chose it.
func (c *Classifier) Explain(f facts.Facts) (Category, string) {
	for _, r := range c.rules {
		if r.Match != nil && r.Match(f) {
			return r.Category, r.Name
		}
	}
	return Chore, "fallback"
}

// DefaultRules returns the built-in decision table.
func DefaultRules(opts Options) []Rule {
	ratio := opts.RefactorRatio
	if ratio <= 0 {
		ratio = DefaultRefactorRatio
	}
	fixKW := opts.FixKeywords
	if len(fixKW) == 0 {
		fixKW = DefaultFixKeywords
	}
	perfKW := opts.PerfKeywords
	if len(perfKW) == 0 {
		perfKW = DefaultPerfKeywords
	}
	return []Rule{
		{Name: "all-tests", Category: Test, Match: func(f facts.Facts) bool {
			return f.Files() > 0 && len(f.TestFiles) == f.Files()
		}},
		{Name: "all-docs", Category: Docs, Match: func(f facts.Facts) bool {
			return f.Files() > 0 && (len(f.DocFiles) == f.Files() || (f.CommentsOnly && len(f.ConfigFiles) == 0))
		}},
		{Name: "style-only", Category: Style, Match: func(f facts.Facts) bool {
			return f.Files() > 0 && (len(f.StyleFiles) == f.Files() || (f.WhitespaceOnly && len(f.ConfigFiles) == 0))
		}},
		{Name: "majority-config", Category: Build, Match: func(f facts.Facts) bool {
			return f.Files() > 0 && 2*len(f.ConfigFiles) > f.Files()
		}},
		{Name: "shrinking", Category: Refactor, Match: func(f facts.Facts) bool {
			return f.Removed > 0 && float64(f.Removed) >= float64(f.Added)*ratio && len(f.NewSymbols) == 0
		}},
		{Name: "fix-keyword", Category: Fix, Match: func(f facts.Facts) bool {
			return mentions(f, fixKW)
		}},
		{Name: "performance", Category: Performance, Match: func(f facts.Facts) bool {
			return len(f.Swaps) > 0 || mentions(f, perfKW)
		}},
		{Name: "new-symbols", Category: Feature, Match: func(f facts.Facts) bool {
			return len(f.NewSymbols) > 0
		}},
		{Name: "fallback", Category: Chore, Match: func(facts.Facts) bool { return true }},
	}
}

// falseFriends start with a keyword without meaning it.
var falseFriends = []string{"fixture", "perform", "fasten"}

// mentions reports whether any word of a symbol name or path starts with one
// of keywords. "fixHeader" and "bugfixes/x.go" mention "fix"; "prefix" and
// "fixtures/" do not.
func mentions(f facts.Facts, keywords []string) bool {
	var sources []string
	sources = append(sources, f.Names()...)
	sources = append(sources, f.Paths...)
	for _, s := range sources {
		for _, w := range Words(s) {
			if isFalseFriend(w) {
				continue
			}
			for _, kw := range keywords {
				if kw != "" && strings.HasPrefix(w, strings.ToLower(kw)) {
					return true
				}
			}
		}
	}
	return false
}

func isFalseFriend(w string) bool {
	for _, ff := range falseFriends {
		if strings.HasPrefix(w, ff) && !strings.HasPrefix(w, "performance") {
			return true
		}
	}
	return false
}

// Words splits an identifier or path into lower-case words on '_', '-', '/',
// '.', spaces and camelCase boundaries. "parseHTTPResponse" yields
// parse, http, response.
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
