package facts

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Replacement is a single identifier swapped for another on a paired
// removed/added line.
type Replacement struct {
	Old  string
	New  string
	File string
}

// AlgorithmSwap is a replacement (or a call that disappeared while another
// appeared) where both names belong to the same algorithm family.
type AlgorithmSwap struct {
	From   string
	To     string
	Family string
	// Symbol is the enclosing function when git reported one.
	Symbol string
	File   string
}

// AlgorithmFamily groups interchangeable algorithms. Members are matched
// against identifiers after lower-casing and dropping '_' and '-', so
// "insertionsort" matches insertion_sort, insertionSort and InsertionSortV2.
type AlgorithmFamily struct {
	Name    string
	Members []string
}

// DefaultAlgorithms returns the built-in families.
func DefaultAlgorithms() []AlgorithmFamily {
	return []AlgorithmFamily{
		{Name: "sorting", Members: []string{
			"bubblesort", "insertionsort", "selectionsort", "quicksort", "mergesort", "heapsort",
			"radixsort", "timsort", "shellsort", "countingsort", "bucketsort", "introsort", "pdqsort",
		}},
		{Name: "searching", Members: []string{
			"linearsearch", "binarysearch", "bsearch", "interpolationsearch", "jumpsearch", "exponentialsearch",
		}},
		{Name: "hashing", Members: []string{
			"md5", "sha1", "sha256", "sha512", "crc32", "fnv", "murmur", "xxhash", "blake2b", "blake3", "siphash",
		}},
		{Name: "shortest-path", Members: []string{
			"dijkstra", "bellmanford", "floydwarshall", "astar", "spfa",
		}},
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func normalizeIdent(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// family returns the family and member matching name. Longer members win so
// that "heapsort" is not shadowed by a shorter overlapping entry.
func family(families []AlgorithmFamily, name string) (fam, member string) {
	n := normalizeIdent(name)
	for _, f := range families {
		for _, m := range f.Members {
			if strings.Contains(n, m) && len(m) > len(member) {
				fam, member = f.Name, m
			}
		}
	}
	return fam, member
}

// swapOf returns the swap implied by replacing from with to, if any.
func swapOf(families []AlgorithmFamily, from, to string) (string, bool) {
	ff, fm := family(families, from)
	tf, tm := family(families, to)
	if ff == "" || ff != tf || fm == tm {
		return "", false
	}
	return ff, true
}

// replacedIdent compares a removed line with the added line that replaced it.
// It succeeds when the lines differ in exactly one place and that place,
// widened to identifier boundaries, is one identifier on each side.
func replacedIdent(dmp *diffmatchpatch.DiffMatchPatch, before, after string) (old, neu string, ok bool) {
	if before == after {
		return "", "", false
	}
	a, b := []rune(before), []rune(after)
	prefix := dmp.DiffCommonPrefix(before, after)
	suffix := dmp.DiffCommonSuffix(before, after)
	// Overlapping prefix and suffix (e.g. "aa" -> "aaa") leave no clean region.
	if prefix+suffix > len(a) || prefix+suffix > len(b) {
		suffix = min(len(a), len(b)) - prefix
	}
	start := prefix
	for start > 0 && isIdentRune(a[start-1]) {
		start--
	}
	endA, endB := len(a)-suffix, len(b)-suffix
	for endA < len(a) && isIdentRune(a[endA]) {
		endA++
	}
	for endB < len(b) && isIdentRune(b[endB]) {
		endB++
	}
	if endA > len(a) || endB > len(b) || start > endA || start > endB {
		return "", "", false
	}
	old, neu = string(a[start:endA]), string(b[start:endB])
	if !identRe.MatchString(old) || !identRe.MatchString(neu) || old == neu {
		return "", "", false
	}
	return old, neu, true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// changeBlocks pairs each run of removed lines with the run of added lines
// that directly follows it, line by line. Lines are returned without their
// prefix; unpaired lines are dropped.
func changeBlocks(lines []string) [][2]string {
	var (
		pairs       [][2]string
		minus, plus []string
	)
	flush := func() {
		for i := 0; i < min(len(minus), len(plus)); i++ {
			pairs = append(pairs, [2]string{minus[i], plus[i]})
		}
		minus, plus = nil, nil
	}
	for _, l := range lines {
		if l == "" {
			continue
		}
		switch l[0] {
		case '-':
			if len(plus) > 0 {
				flush()
			}
			minus = append(minus, l[1:])
		case '+':
			plus = append(plus, l[1:])
		default:
			flush()
		}
	}
	flush()
	return pairs
}
