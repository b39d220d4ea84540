package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/diff"
	"commitsum/cli/internal/facts"
)

func swapFacts() facts.Facts {
	return facts.Facts{
		Paths:    []string{"src/sort.py"},
		Statuses: map[string]diff.Status{"src/sort.py": diff.StatusModified},
		Added:    3,
		Removed:  1,
		Swaps: []facts.AlgorithmSwap{{
			From: "insertion_sort", To: "quicksort", Family: "sorting", Symbol: "sort_items", File: "src/sort.py",
		}},
	}
}

func newSymbolFacts(paths []string, names ...string) facts.Facts {
	f := facts.Facts{Paths: paths, Added: 12, NewSymbols: names}
	for _, n := range names {
		f.Symbols = append(f.Symbols, facts.Symbol{Name: n, File: paths[0], Origin: facts.OriginAdded})
	}
	return f
}

func TestRender_descriptiveSwap(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{})
	msg := r.Render(classify.Performance, swapFacts(), StyleDescriptive, "en")
	assert.Equal(t, "Replace insertion_sort with quicksort in sort_items to speed up sorting (3+ 1-)", msg.Summary)
	assert.Equal(t, "perf", msg.Tag)
	assert.Equal(t, "en", msg.Language)
	assert.Equal(t, StyleDescriptive, msg.Style)
	assert.Empty(t, msg.Body)
}

func TestRender_conventionalSwap(t *testing.T) {
	t.Parallel()
	msg := New(nil, Options{}).Render(classify.Performance, swapFacts(), StyleConventional, "en")
	// The purpose clause is dropped to fit the header.
	assert.Equal(t, "perf: replace insertion_sort with quicksort in sort_items", msg.Summary)
}

func TestRender_conventionalTestFile(t *testing.T) {
	t.Parallel()
	f := facts.Facts{Paths: []string{"tests/test_foo.py"}, TestFiles: []string{"tests/test_foo.py"}, Added: 5}
	msg := New(nil, Options{}).Render(classify.Test, f, StyleConventional, "en")
	assert.True(t, strings.HasPrefix(msg.Summary, "test: "), msg.Summary)
	assert.Contains(t, msg.Summary, "tests/test_foo.py")
}

func TestRender_newSymbols(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{})
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"one", []string{"ListUsers"}, "Add function ListUsers (12+ 0-)"},
		{"three", []string{"a", "b", "c"}, "Add functions a, b and c (12+ 0-)"},
		{"many", []string{"a", "b", "c", "d", "e"}, "Add functions a, b, c and 2 others (12+ 0-)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := r.Render(classify.Feature, newSymbolFacts([]string{"api.go"}, tt.names...), StyleDescriptive, "en")
			assert.Equal(t, tt.want, msg.Summary)
		})
	}
}

func TestRender_languages(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{})
	f := newSymbolFacts([]string{"api.go"}, "health")
	tests := []struct {
		lang string
		want string
		conv string
	}{
		{"en", "Add function health (12+ 0-)", "feat: add function health"},
		{"fr", "Ajoute la fonction health (12+ 0-)", "feat: ajoute la fonction health"},
		{"es", "Añade la función health (12+ 0-)", "feat: añade la función health"},
		{"de", "Funktion health hinzufügen (12+ 0-)", "feat: funktion health hinzufügen"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			t.Parallel()
			msg := r.Render(classify.Feature, f, StyleDescriptive, tt.lang)
			assert.Equal(t, tt.want, msg.Summary)
			assert.Equal(t, tt.lang, msg.Language)
			assert.Equal(t, tt.conv, r.Render(classify.Feature, f, StyleConventional, tt.lang).Summary)
		})
	}
}

func TestRender_frenchSwap(t *testing.T) {
	t.Parallel()
	msg := New(nil, Options{}).Render(classify.Performance, swapFacts(), StyleDescriptive, "fr-CA")
	assert.Equal(t, "Remplace insertion_sort par quicksort dans sort_items pour accélérer le tri (3+ 1-)", msg.Summary)
	assert.Equal(t, "fr", msg.Language)
}

func TestRender_unknownLanguageFallsBackWhole(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{})
	f := newSymbolFacts([]string{"api.go"}, "health")
	got := r.Render(classify.Feature, f, StyleDescriptive, "xx")
	want := r.Render(classify.Feature, f, StyleDescriptive, "en")
	assert.Equal(t, want, got)
	assert.Equal(t, "en", got.Language)
}

func TestRender_emptyFactsHaveNoPlaceholders(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{Body: true, Scope: true})
	for _, lang := range r.Catalog().Codes() {
		for _, style := range []Style{StyleDescriptive, StyleConventional} {
			for _, cat := range classify.Categories {
				msg := r.Render(cat, facts.Facts{}, style, lang)
				assert.NotEmpty(t, msg.Summary)
				assert.NotContains(t, msg.String(), "{", "%s/%s/%s", lang, style, cat)
			}
		}
	}
	assert.Equal(t, "Update the code (0+ 0-)", r.Render(classify.Chore, facts.Facts{}, StyleDescriptive, "en").Summary)
}

func TestRender_scope(t *testing.T) {
	t.Parallel()
	f := newSymbolFacts([]string{"api/users.go", "api/routes.go"}, "ListUsers")

	msg := New(nil, Options{Scope: true}).Render(classify.Feature, f, StyleConventional, "en")
	assert.Equal(t, "feat(api): add function ListUsers", msg.Summary)

	msg = New(nil, Options{}).Render(classify.Feature, f, StyleConventional, "en")
	assert.Equal(t, "feat: add function ListUsers", msg.Summary)

	f.Paths = append(f.Paths, "main.go")
	msg = New(nil, Options{Scope: true}).Render(classify.Feature, f, StyleConventional, "en")
	assert.Equal(t, "feat: add function ListUsers", msg.Summary)
}

func TestRender_conventionalFitsHeader(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{Scope: true})
	long := []string{
		"reconcile_outstanding_invoices_for_customer",
		"recalculate_quarterly_revenue_projection",
	}
	f := newSymbolFacts([]string{"billing/ledger.py"}, long...)
	msg := r.Render(classify.Feature, f, StyleConventional, "en")
	assert.LessOrEqual(t, utf8.RuneCountInString(msg.Summary), MaxSummary, msg.Summary)
	assert.True(t, strings.HasPrefix(msg.Summary, "feat(billing): "), msg.Summary)
	assert.Equal(t, "feat(billing): add function reconcile_outstanding_invoices_for_customer", msg.Summary)

	huge := strings.Repeat("x", 90)
	f = facts.Facts{Paths: []string{huge + ".go"}, Added: 1}
	msg = r.Render(classify.Chore, f, StyleConventional, "en")
	assert.LessOrEqual(t, utf8.RuneCountInString(msg.Summary), MaxSummary, msg.Summary)
	assert.Equal(t, "chore: update the code", msg.Summary)
}

func TestRender_body(t *testing.T) {
	t.Parallel()
	f := facts.Facts{
		Paths:    []string{"a.go", "b.go"},
		Statuses: map[string]diff.Status{"a.go": diff.StatusModified, "b.go": diff.StatusAdded},
		Counts:   map[string]facts.LineCount{"a.go": {Added: 2, Removed: 1}, "b.go": {Added: 10}},
		Added:    12,
		Removed:  1,
	}
	msg := New(nil, Options{Body: true}).Render(classify.Chore, f, StyleDescriptive, "en")
	assert.Equal(t, "Update 2 files (12+ 1-)", msg.Summary)
	assert.Equal(t, "Files changed:\n- a.go: modified (2+ 1-)\n- b.go: added (10+ 0-)", msg.Body)
	assert.Equal(t, msg.Summary+"\n\n"+msg.Body, msg.String())

	msg = New(nil, Options{}).Render(classify.Chore, f, StyleDescriptive, "en")
	assert.Empty(t, msg.Body)

	one := facts.Facts{Paths: []string{"a.go"}, Added: 1}
	msg = New(nil, Options{Body: true}).Render(classify.Chore, one, StyleDescriptive, "en")
	assert.Empty(t, msg.Body)
}

func TestRender_aiStyleRendersDescriptively(t *testing.T) {
	t.Parallel()
	r := New(nil, Options{})
	got := r.Render(classify.Performance, swapFacts(), StyleAI, "en")
	assert.Equal(t, r.Render(classify.Performance, swapFacts(), StyleDescriptive, "en"), got)
}

func TestParseStyle(t *testing.T) {
	t.Parallel()
	tests := map[string]Style{
		"":             StyleDescriptive,
		"descriptive":  StyleDescriptive,
		"Conventional": StyleConventional,
		"conv":         StyleConventional,
		" ai ":         StyleAI,
	}
	for in, want := range tests {
		got, err := ParseStyle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStyle("haiku")
	assert.Error(t, err)
}

func TestFill(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Add the code", fill("{verb} {subject}", vars{"verb": "Add"}, "the code"))
	assert.Equal(t, "a {x} b", fill("a {v} b", vars{"v": "{x}"}, "g"), "values are not re-scanned")
	assert.Equal(t, "Replace a with b", trimClause(fillKeepEmpty("Replace {from} with {to} {purpose}", vars{"from": "a", "to": "b", "purpose": ""}, "g")))
}

func TestTruncateWords(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", truncateWords("short", 10))
	assert.Equal(t, "one two", truncateWords("one two three", 10))
	assert.Equal(t, "abcdefghij", truncateWords("abcdefghijklmno", 10))
}
