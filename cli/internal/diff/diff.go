// Package diff turns unified diff text into per-file change records.
//
// # Input
// Parse accepts the output of `git diff` (staged or unstaged, with or without
// rename detection) as well as plain `diff -u` output. Color codes are not
// supported; callers run git with --no-color.
//
// # Malformed input
// Parsing never fails. A file section whose path cannot be determined is
// dropped, a truncated hunk keeps the lines that are present, and trailing
// content that does not belong to any hunk is ignored.
//
// # Binary and mode-only sections
// Binary files produce a record with Binary set and no hunks. Sections that
// only change the file mode produce a record with ModeOnly set; they are not
// content (see HasContent).
//
// # Generated files
// Filter removes records for generated or vendored files. Default patterns
// include *.pb.go, *_generated.go, *.min.js, package-lock.json, go.sum and
// paths under vendor/. Pass explicit patterns to override.
package diff

import (
	"path"
	"strings"
)

// Status is the kind of change a record describes.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
	StatusCopied   Status = "copied"
)

// ParseStatus maps a git --name-status letter (A, M, D, R100, C75, T) to a Status.
// Unknown letters map to StatusModified.
func ParseStatus(letter string) Status {
	if letter == "" {
		return StatusModified
	}
	switch letter[0] {
	case 'A':
		return StatusAdded
	case 'D':
		return StatusDeleted
	case 'R':
		return StatusRenamed
	case 'C':
		return StatusCopied
	}
	return StatusModified
}

// Hunk is one contiguous block of changed lines. Lines hold the body with
// their one-character prefix (' ', '+', '-'); the @@ header is kept separately.
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	// Section is the text git prints after the closing @@, usually the
	// signature of the enclosing function. Empty when git found none.
	Section string
	Lines   []string
}

// Text returns the hunk as it appeared in the diff (header plus body).
func (h Hunk) Text() string {
	return strings.Join(append([]string{h.Header}, h.Lines...), "\n")
}

// AddedLines returns the body lines inserted by this hunk, without the '+' prefix.
func (h Hunk) AddedLines() []string {
	return h.linesWithPrefix('+')
}

// RemovedLines returns the body lines deleted by this hunk, without the '-' prefix.
func (h Hunk) RemovedLines() []string {
	return h.linesWithPrefix('-')
}

func (h Hunk) linesWithPrefix(p byte) []string {
	var out []string
	for _, l := range h.Lines {
		if len(l) > 0 && l[0] == p {
			out = append(out, l[1:])
		}
	}
	return out
}

// ChangeRecord is everything the diff says about one file. Records are built
// by Parse and treated as read-only afterwards.
type ChangeRecord struct {
	Path    string // path after the change (HEAD side for deletions is the old path)
	OldPath string // set for renames and copies
	Status  Status
	Binary  bool
	// ModeOnly is true when the section changes only file permissions.
	ModeOnly bool
	Added    int
	Removed  int
	Hunks    []Hunk
}

// Ext returns the lower-case file extension without the dot, or "".
func (r ChangeRecord) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(r.Path)), ".")
}

// HasContent reports whether the record describes a textual or structural
// change: hunks, binary content, or an add/delete/rename/copy.
func (r ChangeRecord) HasContent() bool {
	if len(r.Hunks) > 0 || r.Binary {
		return true
	}
	if r.ModeOnly {
		return false
	}
	return r.Status != StatusModified
}

// HasContent reports whether any record in records carries content.
func HasContent(records []ChangeRecord) bool {
	for _, r := range records {
		if r.HasContent() {
			return true
		}
	}
	return false
}

// Totals sums added and removed lines across records.
func Totals(records []ChangeRecord) (added, removed int) {
	for _, r := range records {
		added += r.Added
		removed += r.Removed
	}
	return added, removed
}

// DefaultExcludePatterns are applied by Filter when patterns is nil.
var DefaultExcludePatterns = []string{
	"*.pb.go",
	"*_generated.go",
	"*.min.js",
	"package-lock.json",
	"go.sum",
	"vendor/*",
	"vendor/**/*",
}

// Filter splits records into those kept and the paths excluded by patterns.
// Patterns are path.Match globs tried against the full path and the base
// name; patterns starting with "vendor" match any path under vendor/.
// A nil patterns slice means DefaultExcludePatterns. If every record would be
// excluded, nothing is excluded so there is always something to describe.
func Filter(records []ChangeRecord, patterns []string) (kept []ChangeRecord, excluded []string) {
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	if len(patterns) == 0 {
		return records, nil
	}
	for _, r := range records {
		if matchesAny(r.Path, patterns) {
			excluded = append(excluded, r.Path)
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return records, nil
	}
	return kept, excluded
}

func matchesAny(p string, patterns []string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	for _, pat := range patterns {
		// path.Match does not support **; treat vendor/* and vendor/**/* as prefix match
		if strings.HasPrefix(pat, "vendor") {
			if p == "vendor" || strings.HasPrefix(p, "vendor/") {
				return true
			}
			continue
		}
		if ok, err := path.Match(pat, p); err == nil && ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(p)); ok {
			return true
		}
	}
	return false
}

// PathStatus is one entry of `git diff --name-status`.
type PathStatus struct {
	Path    string
	OldPath string
	Status  Status
}

// Merge appends a metadata-only record for every entry of changes whose path
// has no record yet, so that files git lists without a textual diff still
// take part in classification.
func Merge(records []ChangeRecord, changes []PathStatus) []ChangeRecord {
	if len(changes) == 0 {
		return records
	}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.Path] = struct{}{}
	}
	out := records
	for _, c := range changes {
		if c.Path == "" {
			continue
		}
		if _, ok := seen[c.Path]; ok {
			continue
		}
		seen[c.Path] = struct{}{}
		out = append(out, ChangeRecord{Path: c.Path, OldPath: c.OldPath, Status: c.Status})
	}
	return out
}
