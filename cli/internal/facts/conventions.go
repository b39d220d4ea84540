package facts

import (
	"path"
	"strings"
)

// Kind is the role a file plays in a change, derived from its path.
type Kind string

const (
	KindSource Kind = "source"
	KindTest   Kind = "test"
	KindDocs   Kind = "docs"
	KindConfig Kind = "config"
	KindStyle  Kind = "style"
)

// Convention describes how to recognise one kind of file. A path matches when
// any of the four lists matches; all comparisons are case-insensitive.
type Convention struct {
	// Segments are directory names (e.g. "tests", "docs", ".github").
	Segments []string
	// Extensions without the dot (e.g. "md", "toml").
	Extensions []string
	// Globs are path.Match patterns tried against the base name, or against
	// the full path when the pattern contains a slash.
	Globs []string
	// Contains are substrings of the base name.
	Contains []string
}

func (c Convention) empty() bool {
	return len(c.Segments) == 0 && len(c.Extensions) == 0 && len(c.Globs) == 0 && len(c.Contains) == 0
}

// Match reports whether p (slash or backslash separated) follows the convention.
func (c Convention) Match(p string) bool {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	base := path.Base(p)
	dir := path.Dir(p)
	if dir != "." {
		for _, seg := range strings.Split(dir, "/") {
			for _, want := range c.Segments {
				if seg == strings.ToLower(want) {
					return true
				}
			}
		}
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if ext != "" {
		for _, want := range c.Extensions {
			if ext == strings.TrimPrefix(strings.ToLower(want), ".") {
				return true
			}
		}
	}
	for _, g := range c.Globs {
		g = strings.ToLower(g)
		target := base
		if strings.Contains(g, "/") {
			target = p
		}
		if ok, err := path.Match(g, target); err == nil && ok {
			return true
		}
	}
	for _, sub := range c.Contains {
		if sub != "" && strings.Contains(base, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func (c Convention) extend(o Convention) Convention {
	return Convention{
		Segments:   appendUnique(c.Segments, o.Segments),
		Extensions: appendUnique(c.Extensions, o.Extensions),
		Globs:      appendUnique(c.Globs, o.Globs),
		Contains:   appendUnique(c.Contains, o.Contains),
	}
}

func appendUnique(dst, src []string) []string {
	out := append([]string(nil), dst...)
	for _, s := range src {
		dup := false
		for _, d := range out {
			if strings.EqualFold(d, s) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

// Conventions is the path-to-kind mapping used by the extractor. It is a
// plain value: callers build one at startup and pass it to NewExtractor.
type Conventions struct {
	Test   Convention
	Docs   Convention
	Config Convention
	Style  Convention
}

// DefaultConventions returns the built-in mapping. CI directories and build
// manifests count as configuration.
func DefaultConventions() Conventions {
	return Conventions{
		Test: Convention{
			Segments: []string{"test", "tests", "__tests__", "spec", "specs", "testdata"},
			Globs: []string{
				"*_test.go", "test_*.py", "*_test.py", "*_spec.rb",
				"*.test.js", "*.test.ts", "*.test.jsx", "*.test.tsx",
				"*.spec.js", "*.spec.ts", "*.spec.jsx", "*.spec.tsx",
				"*test.java", "*tests.cs", "*_test.rs", "*_test.cc", "*_test.cpp",
			},
		},
		Docs: Convention{
			Segments:   []string{"docs", "doc", "documentation", "wiki"},
			Extensions: []string{"md", "markdown", "rst", "adoc", "asciidoc", "txt"},
			Globs:      []string{"readme*", "changelog*", "license*", "contributing*", "authors*", "notice*"},
		},
		Config: Convention{
			Segments:   []string{".github", ".circleci", ".gitlab", ".jenkins", ".azure", ".buildkite"},
			Extensions: []string{"toml", "yaml", "yml", "ini", "cfg", "conf", "properties", "gradle", "mk", "cmake"},
			Globs: []string{
				"makefile", "gnumakefile", "cmakelists.txt", "dockerfile", "dockerfile.*", "docker-compose*",
				"jenkinsfile", "package.json", "tsconfig*.json", "requirements*.txt", "setup.py", "setup.cfg",
				"pyproject.toml", "go.mod", "go.sum", "cargo.toml", "pom.xml", "build.gradle*",
				".travis.yml", ".gitlab-ci.yml", ".editorconfig", ".gitignore", ".gitattributes", ".env.example",
			},
			Contains: []string{"webpack", "rollup.config", "vite.config", "babel.config", "eslint"},
		},
		Style: Convention{
			Segments:   []string{"styles", "stylesheets"},
			Extensions: []string{"css", "scss", "sass", "less", "styl"},
		},
	}
}

// Extend returns c with every list of o appended (duplicates dropped).
func (c Conventions) Extend(o Conventions) Conventions {
	return Conventions{
		Test:   c.Test.extend(o.Test),
		Docs:   c.Docs.extend(o.Docs),
		Config: c.Config.extend(o.Config),
		Style:  c.Style.extend(o.Style),
	}
}

// Override returns c with each kind that is non-empty in o replaced by o's.
func (c Conventions) Override(o Conventions) Conventions {
	out := c
	if !o.Test.empty() {
		out.Test = o.Test
	}
	if !o.Docs.empty() {
		out.Docs = o.Docs
	}
	if !o.Config.empty() {
		out.Config = o.Config
	}
	if !o.Style.empty() {
		out.Style = o.Style
	}
	return out
}

// KindOf returns the single kind of p. Precedence is test, config, style,
// docs: a fixture under tests/ is a test file and requirements.txt is build
// configuration even though .txt is a documentation extension.
func (c Conventions) KindOf(p string) Kind {
	switch {
	case c.Test.Match(p):
		return KindTest
	case c.Config.Match(p):
		return KindConfig
	case c.Style.Match(p):
		return KindStyle
	case c.Docs.Match(p):
		return KindDocs
	}
	return KindSource
}
