package facts

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitsum/cli/internal/diff"
)

const sortSwapDiff = `diff --git a/src/sort.py b/src/sort.py
index 1..2 100644
--- a/src/sort.py
+++ b/src/sort.py
@@ -1,4 +1,6 @@ def sort_items(items):
 import algorithms
-    return insertion_sort(items)
+    if not items:
+        return []
+    return quicksort(items)

 # end
`

func extract(t *testing.T, text string) Facts {
	t.Helper()
	records := diff.Parse(text)
	require.NotEmpty(t, records)
	return NewExtractor(Options{}).Extract(records)
}

func TestExtract_algorithmSwap(t *testing.T) {
	t.Parallel()
	f := extract(t, sortSwapDiff)

	require.Len(t, f.Swaps, 1)
	assert.Equal(t, AlgorithmSwap{From: "insertion_sort", To: "quicksort", Family: "sorting", Symbol: "sort_items", File: "src/sort.py"}, f.Swaps[0])
	assert.Equal(t, 3, f.Added)
	assert.Equal(t, 1, f.Removed)
	assert.Equal(t, map[string]int{"py": 1}, f.Extensions)
	assert.Contains(t, f.Names(), "sort_items")
	assert.Empty(t, f.NewSymbols)
	assert.False(t, f.WhitespaceOnly)
	assert.Equal(t, SubjectSwap, f.Dominant().Kind)
}

func TestExtract_replacementOutsideFamilies(t *testing.T) {
	t.Parallel()
	in := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1 +1 @@
-	total := computeSum(values)
+	total := computeTotal(values)
`
	f := extract(t, in)
	assert.Equal(t, []Replacement{{Old: "computeSum", New: "computeTotal", File: "a.go"}}, f.Replacements)
	assert.Empty(t, f.Swaps)
}

func TestExtract_callSwapAcrossLines(t *testing.T) {
	t.Parallel()
	in := `diff --git a/lib/digest.js b/lib/digest.js
--- a/lib/digest.js
+++ b/lib/digest.js
@@ -1,2 +1,3 @@ function fingerprint(data) {
-  const h = md5(data);
-  return h;
+  const buf = normalize(data);
+  const h = sha256(buf);
+  return h.slice(0, 16);
`
	f := extract(t, in)
	require.Len(t, f.Swaps, 1)
	assert.Equal(t, "md5", f.Swaps[0].From)
	assert.Equal(t, "sha256", f.Swaps[0].To)
	assert.Equal(t, "hashing", f.Swaps[0].Family)
	assert.Equal(t, "fingerprint", f.Swaps[0].Symbol)
}

func TestExtract_newSymbolsAndKinds(t *testing.T) {
	t.Parallel()
	in := `diff --git a/server/handler.go b/server/handler.go
--- a/server/handler.go
+++ b/server/handler.go
@@ -10,2 +10,7 @@ func (s *Server) Routes() {
 	s.mux.HandleFunc("/a", s.a)
+	s.mux.HandleFunc("/health", s.health)
 }
+
+func (s *Server) health(w http.ResponseWriter, r *http.Request) {
+	w.WriteHeader(http.StatusOK)
+}
diff --git a/server/handler_test.go b/server/handler_test.go
new file mode 100644
--- /dev/null
+++ b/server/handler_test.go
@@ -0,0 +1,2 @@
+package server
+func TestHealth(t *testing.T) {}
`
	f := extract(t, in)
	assert.Equal(t, []string{"health", "TestHealth"}, f.NewSymbols)
	assert.Equal(t, []string{"server/handler_test.go"}, f.TestFiles)
	assert.True(t, f.TouchesTests)
	assert.False(t, f.TouchesDocs)
	assert.Equal(t, KindSource, f.Kinds["server/handler.go"])
	assert.Equal(t, diff.StatusAdded, f.Statuses["server/handler_test.go"])
	assert.Equal(t, "server", f.Scope())

	sub := f.Dominant()
	assert.Equal(t, SubjectSymbols, sub.Kind)
	assert.Equal(t, []string{"health", "TestHealth"}, sub.Names)
	assert.Equal(t, 2, sub.Files)
}

func TestExtract_renamedFunctionIsNotNew(t *testing.T) {
	t.Parallel()
	in := `diff --git a/util.py b/util.py
--- a/util.py
+++ b/util.py
@@ -1,2 +1,2 @@
-def load(path):
+def load(path, strict=False):
     pass
`
	f := extract(t, in)
	assert.Empty(t, f.NewSymbols)
	assert.Equal(t, SubjectSymbols, f.Dominant().Kind)
	assert.Equal(t, []string{"load"}, f.Dominant().Names)
}

func TestExtract_whitespaceAndCommentsOnly(t *testing.T) {
	t.Parallel()
	ws := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
-if x {
-  return
+if x {
+	return
 }
`
	f := extract(t, ws)
	assert.True(t, f.WhitespaceOnly)
	assert.False(t, f.CommentsOnly)

	cm := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1 +1 @@
-x++ // bump
+x++ // increment the counter
`
	f = extract(t, cm)
	assert.False(t, f.WhitespaceOnly)
	assert.True(t, f.CommentsOnly)
}

func TestExtract_emptyFacts(t *testing.T) {
	t.Parallel()
	f := NewExtractor(Options{}).Extract(nil)
	assert.Zero(t, f.Files())
	assert.Equal(t, Subject{Kind: SubjectFiles}, f.Dominant())
	assert.Equal(t, "", f.Scope())
	assert.False(t, f.WhitespaceOnly)
}

func TestExtract_isDeterministic(t *testing.T) {
	t.Parallel()
	records := diff.Parse(sortSwapDiff)
	e := NewExtractor(Options{})
	assert.Equal(t, e.Extract(records), e.Extract(records))
}

func TestExtract_customConventionsAndAlgorithms(t *testing.T) {
	t.Parallel()
	conv := DefaultConventions().Extend(Conventions{Docs: Convention{Extensions: []string{"adoc2"}}})
	e := NewExtractor(Options{
		Conventions: &conv,
		Algorithms:  []AlgorithmFamily{{Name: "compression", Members: []string{"gzip", "zstd"}}},
	})
	in := `diff --git a/pack.go b/pack.go
--- a/pack.go
+++ b/pack.go
@@ -1 +1 @@
-	w := gzip(out)
+	w := zstd(out)
`
	f := e.Extract(diff.Parse(in))
	require.Len(t, f.Swaps, 1)
	assert.Equal(t, "compression", f.Swaps[0].Family)
	assert.Equal(t, KindDocs, e.Conventions().KindOf("manual.adoc2"))
}

func TestFacts_Scope(t *testing.T) {
	t.Parallel()
	tests := []struct {
		paths []string
		want  string
	}{
		{[]string{"cli/a.go", "cli/internal/b.go"}, "cli"},
		{[]string{"cli/a.go", "docs/b.md"}, ""},
		{[]string{"cli/a.go", "README.md"}, ""},
		{[]string{"./web/x.js"}, "web"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Facts{Paths: tt.paths}.Scope(), "%v", tt.paths)
	}
}

func TestDefinedName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want string
	}{
		{"def sort_items(items):", "sort_items"},
		{"    async def fetch(self, url):", "fetch"},
		{"class Sorter:", "Sorter"},
		{"func (s *Server) Start(ctx context.Context) error {", "Start"},
		{"func Map[T any](xs []T) []T {", "Map"},
		{"type Config struct {", "Config"},
		{"pub async fn run(cfg: Config) -> Result<()> {", "run"},
		{"export async function loadUser(id) {", "loadUser"},
		{"const handler = async (req, res) => {", "handler"},
		{"  onClick: function (e) {", "onClick"},
		{"  render() {", "render"},
		{"public static void main(String[] args) {", "main"},
		{"static int *alloc_buf(size_t n)", "alloc_buf"},
		{"    return insertion_sort(items)", ""},
		{"    if (ready) {", ""},
		{"} else if (x) {", ""},
		{"    String s = compute(a);", ""},
		{"    foo(bar);", ""},
		{"// func commented() {", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, definedName(tt.line), "definedName(%q)", tt.line)
	}
}

func TestReplacedIdent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		before, after string
		old, neu      string
		ok            bool
	}{
		{"    return insertion_sort(items)", "    return quicksort(items)", "insertion_sort", "quicksort", true},
		{"x := md5.Sum(b)", "x := sha256.Sum(b)", "md5", "sha256", true},
		{"foo(a)", "foo(a, b)", "", "", false},
		{"same", "same", "", "", false},
		{"aa", "aaa", "aa", "aaa", true},
		{"a := 1", "a := 2", "", "", false},
	}
	for _, tt := range tests {
		old, neu, ok := replacedIdent(diffmatchpatch.New(), tt.before, tt.after)
		assert.Equal(t, tt.ok, ok, "%q -> %q", tt.before, tt.after)
		assert.Equal(t, tt.old, old)
		assert.Equal(t, tt.neu, neu)
	}
}

func TestSwapOf(t *testing.T) {
	t.Parallel()
	fams := DefaultAlgorithms()
	fam, ok := swapOf(fams, "bubbleSort", "MergeSortV2")
	assert.True(t, ok)
	assert.Equal(t, "sorting", fam)

	_, ok = swapOf(fams, "quicksort", "quick_sort")
	assert.False(t, ok, "same member is not a swap")
	_, ok = swapOf(fams, "quicksort", "dijkstra")
	assert.False(t, ok, "different families")
	_, ok = swapOf(fams, "parse", "render")
	assert.False(t, ok)
}
