// Package facts derives the salient, language-agnostic facts of a change from
// parsed diff records: which files and kinds of files were touched, which
// functions or types were defined or edited, line totals, and textual
// patterns such as an identifier replaced by another (e.g. one sorting
// routine swapped for another).
//
// Detection is heuristic. Symbol names come from line patterns, not a
// parser, so false positives are expected; the results feed classification
// and summarisation only.
package facts

import (
	"path"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"commitsum/cli/internal/diff"
	"commitsum/cli/internal/hunkid"
)

// Options configures an Extractor. Zero fields take the defaults.
type Options struct {
	Conventions *Conventions
	Algorithms  []AlgorithmFamily
}

// Extractor turns change records into Facts. It holds only read-only
// configuration and is safe for concurrent use.
type Extractor struct {
	conv       Conventions
	algorithms []AlgorithmFamily
}

// NewExtractor returns an extractor for opts.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{conv: DefaultConventions(), algorithms: DefaultAlgorithms()}
	if opts.Conventions != nil {
		e.conv = *opts.Conventions
	}
	if len(opts.Algorithms) > 0 {
		e.algorithms = opts.Algorithms
	}
	return e
}

// Conventions returns the path conventions in use.
func (e *Extractor) Conventions() Conventions {
	return e.conv
}

// Facts is the aggregate of one analysis run. It is built by Extract and not
// modified afterwards.
type Facts struct {
	Paths    []string
	Statuses map[string]diff.Status
	Kinds    map[string]Kind
	// Symbols holds every detection, deduplicated on (name, file, origin).
	Symbols []Symbol
	// NewSymbols are names defined on added lines and not on removed lines.
	NewSymbols []string
	Added      int
	Removed    int
	// Counts holds per-file line counts.
	Counts map[string]LineCount
	// Extensions counts files per lower-case extension (no dot).
	Extensions map[string]int

	TestFiles   []string
	DocFiles    []string
	ConfigFiles []string
	StyleFiles  []string

	TouchesTests  bool
	TouchesDocs   bool
	TouchesConfig bool
	TouchesStyle  bool

	// WhitespaceOnly is set when every textual change only moves whitespace.
	WhitespaceOnly bool
	// CommentsOnly is set when every textual change is confined to comments.
	CommentsOnly bool

	Replacements []Replacement
	Swaps        []AlgorithmSwap
}

// LineCount is the number of added and removed lines of one file.
type LineCount struct {
	Added   int
	Removed int
}

// Extract computes the facts of records.
func (e *Extractor) Extract(records []diff.ChangeRecord) Facts {
	f := Facts{
		Statuses:   make(map[string]diff.Status, len(records)),
		Kinds:      make(map[string]Kind, len(records)),
		Counts:     make(map[string]LineCount, len(records)),
		Extensions: make(map[string]int),
	}
	dmp := diffmatchpatch.New()
	seenSym := make(map[Symbol]bool)
	addSym := func(s Symbol) {
		if s.Name == "" || seenSym[s] {
			return
		}
		seenSym[s] = true
		f.Symbols = append(f.Symbols, s)
	}
	seenRepl := make(map[Replacement]bool)
	seenSwap := make(map[AlgorithmSwap]bool)
	cosmetic := 0
	comments := 0
	textual := 0

	for _, r := range records {
		f.Paths = append(f.Paths, r.Path)
		f.Statuses[r.Path] = r.Status
		f.Added += r.Added
		f.Removed += r.Removed
		f.Counts[r.Path] = LineCount{Added: r.Added, Removed: r.Removed}
		if ext := r.Ext(); ext != "" {
			f.Extensions[ext]++
		}
		kind := e.conv.KindOf(r.Path)
		f.Kinds[r.Path] = kind
		switch kind {
		case KindTest:
			f.TestFiles = append(f.TestFiles, r.Path)
		case KindDocs:
			f.DocFiles = append(f.DocFiles, r.Path)
		case KindConfig:
			f.ConfigFiles = append(f.ConfigFiles, r.Path)
		case KindStyle:
			f.StyleFiles = append(f.StyleFiles, r.Path)
		}

		var before, after []string
		for _, h := range r.Hunks {
			enclosing := definedName(h.Section)
			addSym(Symbol{Name: enclosing, File: r.Path, Origin: OriginContext})
			for _, l := range h.Lines {
				if l == "" {
					continue
				}
				switch l[0] {
				case '+':
					addSym(Symbol{Name: definedName(l[1:]), File: r.Path, Origin: OriginAdded})
					after = append(after, l[1:])
				case '-':
					addSym(Symbol{Name: definedName(l[1:]), File: r.Path, Origin: OriginRemoved})
					before = append(before, l[1:])
				}
			}

			for _, p := range changeBlocks(h.Lines) {
				old, neu, ok := replacedIdent(dmp, p[0], p[1])
				if !ok {
					continue
				}
				rep := Replacement{Old: old, New: neu, File: r.Path}
				if !seenRepl[rep] {
					seenRepl[rep] = true
					f.Replacements = append(f.Replacements, rep)
				}
				if fam, ok := swapOf(e.algorithms, old, neu); ok {
					sw := AlgorithmSwap{From: old, To: neu, Family: fam, Symbol: enclosing, File: r.Path}
					if !seenSwap[sw] {
						seenSwap[sw] = true
						f.Swaps = append(f.Swaps, sw)
					}
				}
			}
			for _, sw := range e.callSwaps(h, enclosing, r.Path) {
				if !seenSwap[sw] {
					seenSwap[sw] = true
					f.Swaps = append(f.Swaps, sw)
				}
			}
		}

		if len(before)+len(after) > 0 {
			textual++
			switch hunkid.Compare(r.Path, strings.Join(before, "\n"), strings.Join(after, "\n")) {
			case hunkid.Whitespace:
				cosmetic++
			case hunkid.Comments:
				comments++
			}
		}
	}

	f.TouchesTests = len(f.TestFiles) > 0
	f.TouchesDocs = len(f.DocFiles) > 0
	f.TouchesConfig = len(f.ConfigFiles) > 0
	f.TouchesStyle = len(f.StyleFiles) > 0
	if textual > 0 && textual == len(records) {
		f.WhitespaceOnly = cosmetic == textual
		f.CommentsOnly = !f.WhitespaceOnly && cosmetic+comments == textual
	}
	f.NewSymbols = newSymbols(f.Symbols)
	return f
}

// callSwaps pairs calls that disappear from a hunk with calls that appear in
// it. This catches swaps spread over several lines that replacedIdent misses.
func (e *Extractor) callSwaps(h diff.Hunk, enclosing, file string) []AlgorithmSwap {
	gone := calledIn(h.RemovedLines())
	came := calledIn(h.AddedLines())
	var out []AlgorithmSwap
	for _, from := range sortedKeys(gone) {
		if came[from] {
			continue
		}
		for _, to := range sortedKeys(came) {
			if gone[to] {
				continue
			}
			if fam, ok := swapOf(e.algorithms, from, to); ok {
				out = append(out, AlgorithmSwap{From: from, To: to, Family: fam, Symbol: enclosing, File: file})
			}
		}
	}
	return out
}

func calledIn(lines []string) map[string]bool {
	out := make(map[string]bool)
	for _, l := range lines {
		for _, c := range callTargets(l) {
			out[c] = true
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newSymbols(symbols []Symbol) []string {
	removed := make(map[string]bool)
	for _, s := range symbols {
		if s.Origin == OriginRemoved {
			removed[s.Name] = true
		}
	}
	var out []string
	seen := make(map[string]bool)
	for _, s := range symbols {
		if s.Origin != OriginAdded || removed[s.Name] || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s.Name)
	}
	return out
}

// Names returns every detected symbol name once, in detection order.
func (f Facts) Names() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range f.Symbols {
		if !seen[s.Name] {
			seen[s.Name] = true
			out = append(out, s.Name)
		}
	}
	return out
}

// Files returns the number of changed files.
func (f Facts) Files() int {
	return len(f.Paths)
}

// SubjectKind says what a message should be about.
type SubjectKind string

const (
	SubjectSwap    SubjectKind = "swap"
	SubjectSymbols SubjectKind = "symbols"
	SubjectFile    SubjectKind = "file"
	SubjectFiles   SubjectKind = "files"
)

// Subject is the dominant thing a change is about.
type Subject struct {
	Kind SubjectKind
	// Names are symbol names (SubjectSymbols) or the single path (SubjectFile).
	Names []string
	Swap  AlgorithmSwap
	Files int
}

// Dominant picks the summary subject: an algorithm swap, then new symbols,
// then edited symbols, then the single file, then the file count.
func (f Facts) Dominant() Subject {
	switch {
	case len(f.Swaps) > 0:
		return Subject{Kind: SubjectSwap, Swap: f.Swaps[0], Files: f.Files()}
	case len(f.NewSymbols) > 0:
		return Subject{Kind: SubjectSymbols, Names: f.NewSymbols, Files: f.Files()}
	}
	if names := f.touched(); len(names) > 0 {
		return Subject{Kind: SubjectSymbols, Names: names, Files: f.Files()}
	}
	if len(f.Paths) == 1 {
		return Subject{Kind: SubjectFile, Names: []string{f.Paths[0]}, Files: 1}
	}
	return Subject{Kind: SubjectFiles, Files: f.Files()}
}

// touched returns enclosing and edited symbol names; removed-only names come last.
func (f Facts) touched() []string {
	var out []string
	seen := make(map[string]bool)
	for _, pass := range []Origin{OriginContext, OriginAdded, OriginRemoved} {
		for _, s := range f.Symbols {
			if s.Origin == pass && !seen[s.Name] {
				seen[s.Name] = true
				out = append(out, s.Name)
			}
		}
	}
	return out
}

// Scope returns the top-level directory shared by every path, or "" when
// paths span several directories or include a root-level file.
func (f Facts) Scope() string {
	scope := ""
	for i, p := range f.Paths {
		p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
		top, _, ok := strings.Cut(p, "/")
		if !ok {
			return ""
		}
		if i == 0 {
			scope = top
		} else if top != scope {
			return ""
		}
	}
	return scope
}
