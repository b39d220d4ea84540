package render

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/diff"
	"commitsum/cli/internal/facts"
)

// Locale is the complete phrase set for one language. A locale is used
// whole: the renderer never takes a phrase from another language.
//
// Templates use {name} placeholders. Placeholders a template may use:
// summary: {verb} {subject}; swap: {from} {to} {symbol} {purpose}; purpose:
// {family}; stats and body_line: {added} {removed} {path} {status}; nouns:
// {name} {names} {count} {path}.
type Locale struct {
	Code string `yaml:"code"`
	// Name is the English name of the language, used in prompts.
	Name string `yaml:"name"`
	// Verbs maps every category name to an imperative verb.
	Verbs map[string]string `yaml:"verbs"`
	Nouns Nouns             `yaml:"nouns"`
	// Families names every built-in algorithm family; unknown families render
	// as the generic noun.
	Families  map[string]string `yaml:"families"`
	Status    map[string]string `yaml:"status"`
	Templates Templates         `yaml:"templates"`
}

// Nouns are the subject phrases.
type Nouns struct {
	Symbol      string `yaml:"symbol"`       // one function: {name}
	Symbols     string `yaml:"symbols"`      // several: {names}
	SymbolsMore string `yaml:"symbols_more"` // {names} and {count} more
	File        string `yaml:"file"`         // {path}
	Files       string `yaml:"files"`        // {count}
	Generic     string `yaml:"generic"`      // used when a fact is missing
	And         string `yaml:"and"`          // list conjunction
}

// Templates are the sentence shapes.
type Templates struct {
	Summary      string `yaml:"summary"`
	Swap         string `yaml:"swap"`
	SwapInSymbol string `yaml:"swap_in_symbol"`
	Purpose      string `yaml:"purpose"`
	Stats        string `yaml:"stats"`
	BodyHeader   string `yaml:"body_header"`
	BodyLine     string `yaml:"body_line"`
}

var statusKeys = []diff.Status{diff.StatusAdded, diff.StatusModified, diff.StatusDeleted, diff.StatusRenamed, diff.StatusCopied}

// Validate returns an error naming every missing phrase.
func (l Locale) Validate() error {
	var missing []string
	need := func(key, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	need("code", l.Code)
	need("name", l.Name)
	for _, c := range classify.Categories {
		need("verbs."+string(c), l.Verbs[string(c)])
	}
	for _, fam := range facts.DefaultAlgorithms() {
		need("families."+fam.Name, l.Families[fam.Name])
	}
	for _, s := range statusKeys {
		need("status."+string(s), l.Status[string(s)])
	}
	need("nouns.symbol", l.Nouns.Symbol)
	need("nouns.symbols", l.Nouns.Symbols)
	need("nouns.symbols_more", l.Nouns.SymbolsMore)
	need("nouns.file", l.Nouns.File)
	need("nouns.files", l.Nouns.Files)
	need("nouns.generic", l.Nouns.Generic)
	need("nouns.and", l.Nouns.And)
	need("templates.summary", l.Templates.Summary)
	need("templates.swap", l.Templates.Swap)
	need("templates.swap_in_symbol", l.Templates.SwapInSymbol)
	need("templates.purpose", l.Templates.Purpose)
	need("templates.stats", l.Templates.Stats)
	need("templates.body_header", l.Templates.BodyHeader)
	need("templates.body_line", l.Templates.BodyLine)
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("locale %q is incomplete: missing %s", l.Code, strings.Join(missing, ", "))
	}
	return nil
}

// ParseLocale decodes and validates one YAML locale pack.
func ParseLocale(data []byte) (Locale, error) {
	var l Locale
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Locale{}, fmt.Errorf("parse locale: %w", err)
	}
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if err := l.Validate(); err != nil {
		return Locale{}, err
	}
	return l, nil
}

func (l *Locale) verb(c classify.Category) string {
	if v := l.Verbs[string(c)]; v != "" {
		return v
	}
	return l.Verbs[string(classify.Chore)]
}

func (l *Locale) status(s diff.Status) string {
	if v := l.Status[string(s)]; v != "" {
		return v
	}
	return l.Status[string(diff.StatusModified)]
}

func (l *Locale) family(name string) string {
	if v := l.Families[name]; v != "" {
		return v
	}
	return l.Nouns.Generic
}

// list joins names as "a, b and c" in the locale's words.
func (l *Locale) list(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " " + l.Nouns.And + " " + names[len(names)-1]
}
