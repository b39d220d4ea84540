package render

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when a requested language has no locale.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var builtinFS embed.FS

// Catalog holds the available locales and resolves language codes to them.
// Build it once at startup; Resolve is safe for concurrent use afterwards.
type Catalog struct {
	locales map[string]*Locale
	codes   []string
	matcher language.Matcher
}

// NewCatalog returns a catalog with the built-in locales (en, fr, es, de).
func NewCatalog() *Catalog {
	c := &Catalog{locales: make(map[string]*Locale)}
	entries, err := builtinFS.ReadDir("locales")
	if err != nil {
		panic(fmt.Sprintf("render: read built-in locales: %v", err))
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile("locales/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("render: read %s: %v", e.Name(), err))
		}
		l, err := ParseLocale(data)
		if err != nil {
			panic(fmt.Sprintf("render: built-in %s: %v", e.Name(), err))
		}
		c.put(l)
	}
	return c
}

// Add registers l, replacing a locale with the same code. An incomplete
// locale is rejected and the catalog is unchanged.
func (c *Catalog) Add(l Locale) error {
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if err := l.Validate(); err != nil {
		return err
	}
	if _, err := language.Parse(l.Code); err != nil {
		return fmt.Errorf("locale %q: invalid language code: %w", l.Code, err)
	}
	c.put(l)
	return nil
}

func (c *Catalog) put(l Locale) {
	if _, ok := c.locales[l.Code]; !ok {
		c.codes = append(c.codes, l.Code)
	}
	c.locales[l.Code] = &l
	codes := c.Codes()
	tags := make([]language.Tag, len(codes))
	for i, code := range codes {
		tags[i] = language.Make(code)
	}
	c.matcher = language.NewMatcher(tags)
}

// LoadDir adds every *.yaml / *.yml pack in dir. A missing directory is not
// an error. Packs that fail to parse or are incomplete are skipped; their
// errors are joined into the returned error while valid packs stay loaded.
func (c *Catalog) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read locales dir: %w", err)
	}
	var errs []error
	for _, e := range entries {
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		l, err := ParseLocale(data)
		if err == nil {
			err = c.Add(l)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Codes returns the available language codes, sorted, default first.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.codes))
	for _, code := range c.codes {
		if code != DefaultLanguage {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return append([]string{DefaultLanguage}, out...)
}

// Locale returns the locale registered under code exactly.
func (c *Catalog) Locale(code string) (*Locale, bool) {
	l, ok := c.locales[strings.ToLower(code)]
	return l, ok
}

// Resolve returns the best locale for code ("fr", "fr-CA", "es_419"...). When
// nothing matches, it returns the default locale and false.
func (c *Catalog) Resolve(code string) (*Locale, bool) {
	def := c.locales[DefaultLanguage]
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return def, false
	}
	if l, ok := c.locales[strings.ToLower(code)]; ok {
		return l, true
	}
	want, err := language.Parse(code)
	if err != nil {
		return def, false
	}
	codes := c.Codes()
	_, idx, conf := c.matcher.Match(want)
	if conf == language.No || idx < 0 || idx >= len(codes) {
		return def, false
	}
	return c.locales[codes[idx]], true
}
