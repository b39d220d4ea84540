package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeader matches @@ -oldStart,oldCount +newStart,newCount @@ optional section
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

const devNull = "/dev/null"

// section is the record under construction plus parser-only state.
type section struct {
	rec     ChangeRecord
	fromGit bool // started by "diff --git"
	sawMode bool
	hunk    *Hunk
	oldLeft int
	newLeft int
}

// Parse converts unified diff text into one ChangeRecord per file section, in
// input order. Empty or whitespace-only input returns nil. Parse never fails;
// see the package documentation for how malformed input is handled.
func Parse(text string) []ChangeRecord {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		records []ChangeRecord
		cur     *section
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.closeHunk()
		if rec, ok := cur.finish(); ok {
			records = append(records, rec)
		}
		cur = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if cur != nil && cur.hunk != nil {
			if cur.consume(line) {
				continue
			}
			// Header counts not exhausted but the line is not hunk body:
			// the hunk was truncated. Fall through to header handling.
			cur.closeHunk()
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			a, b := parseDiffGitLine(line)
			cur = &section{fromGit: true, rec: ChangeRecord{Path: b, Status: StatusModified}}
			if a != "" && b != "" && a != b {
				cur.rec.OldPath = a
			}
		case strings.HasPrefix(line, "diff --cc "), strings.HasPrefix(line, "diff --combined "):
			flush()
			p := strings.TrimPrefix(strings.TrimPrefix(line, "diff --cc "), "diff --combined ")
			cur = &section{fromGit: true, rec: ChangeRecord{Path: unquote(p), Status: StatusModified}}
		case strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") &&
			(cur == nil || !cur.fromGit || len(cur.rec.Hunks) > 0):
			// Plain unified diff without a "diff --git" header.
			flush()
			cur = &section{rec: ChangeRecord{Status: StatusModified}}
			cur.minusLine(line)
		case cur == nil:
			// Content before the first file header.
		case strings.HasPrefix(line, "@@"):
			cur.startHunk(line)
		default:
			cur.header(line)
		}
	}
	flush()
	return records
}

// consume takes one hunk body line. It returns false when line is not part
// of the hunk body.
func (s *section) consume(line string) bool {
	h := s.hunk
	switch {
	case line == "":
		// Some tools strip the single space of empty context lines.
		if s.oldLeft == 0 && s.newLeft == 0 {
			return false
		}
		h.Lines = append(h.Lines, " ")
		s.oldLeft--
		s.newLeft--
	case line[0] == '\\':
		// "\ No newline at end of file"
		return true
	case line[0] == ' ':
		h.Lines = append(h.Lines, line)
		s.oldLeft--
		s.newLeft--
	case line[0] == '-':
		if s.oldLeft <= 0 {
			return false
		}
		h.Lines = append(h.Lines, line)
		s.rec.Removed++
		s.oldLeft--
	case line[0] == '+':
		if s.newLeft <= 0 {
			return false
		}
		h.Lines = append(h.Lines, line)
		s.rec.Added++
		s.newLeft--
	default:
		return false
	}
	if s.oldLeft <= 0 && s.newLeft <= 0 {
		s.closeHunk()
	}
	return true
}

func (s *section) startHunk(line string) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return
	}
	h := Hunk{
		Header:   line,
		OldStart: atoi(m[1]),
		OldCount: countOrOne(m[2]),
		NewStart: atoi(m[3]),
		NewCount: countOrOne(m[4]),
		Section:  strings.TrimSpace(m[5]),
	}
	s.rec.Hunks = append(s.rec.Hunks, h)
	s.hunk = &s.rec.Hunks[len(s.rec.Hunks)-1]
	s.oldLeft = h.OldCount
	s.newLeft = h.NewCount
	if s.oldLeft == 0 && s.newLeft == 0 {
		s.closeHunk()
	}
}

func (s *section) closeHunk() {
	s.hunk = nil
	s.oldLeft = 0
	s.newLeft = 0
}

// header handles an extended header line of the current section.
func (s *section) header(line string) {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		s.rec.Status = StatusAdded
	case strings.HasPrefix(line, "deleted file mode"):
		s.rec.Status = StatusDeleted
	case strings.HasPrefix(line, "rename from "):
		s.rec.OldPath = unquote(strings.TrimPrefix(line, "rename from "))
		s.rec.Status = StatusRenamed
	case strings.HasPrefix(line, "rename to "):
		s.rec.Path = unquote(strings.TrimPrefix(line, "rename to "))
		s.rec.Status = StatusRenamed
	case strings.HasPrefix(line, "copy from "):
		s.rec.OldPath = unquote(strings.TrimPrefix(line, "copy from "))
		s.rec.Status = StatusCopied
	case strings.HasPrefix(line, "copy to "):
		s.rec.Path = unquote(strings.TrimPrefix(line, "copy to "))
		s.rec.Status = StatusCopied
	case strings.HasPrefix(line, "old mode "), strings.HasPrefix(line, "new mode "):
		s.sawMode = true
	case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
		s.rec.Binary = true
	case strings.HasPrefix(line, "--- "):
		s.minusLine(line)
	case strings.HasPrefix(line, "+++ "):
		s.plusLine(line)
	}
}

func (s *section) minusLine(line string) {
	p := parsePathLine(line, "--- ")
	if p == devNull {
		if s.rec.Status == StatusModified {
			s.rec.Status = StatusAdded
		}
		return
	}
	if s.rec.Path == "" {
		s.rec.Path = p
	}
}

func (s *section) plusLine(line string) {
	p := parsePathLine(line, "+++ ")
	if p == devNull {
		if s.rec.Status == StatusModified {
			s.rec.Status = StatusDeleted
		}
		return
	}
	if !s.fromGit || s.rec.Path == "" {
		s.rec.Path = p
	}
}

// finish validates the section and returns the final record. Sections
// without a path are dropped.
func (s *section) finish() (ChangeRecord, bool) {
	rec := s.rec
	if rec.Path == "" {
		rec.Path = rec.OldPath
	}
	if rec.Path == "" {
		return ChangeRecord{}, false
	}
	if rec.OldPath == rec.Path {
		rec.OldPath = ""
	}
	if s.sawMode && len(rec.Hunks) == 0 && !rec.Binary && rec.Status == StatusModified {
		rec.ModeOnly = true
	}
	return rec, true
}

func parseDiffGitLine(line string) (a, b string) {
	// "diff --git a/path b/path", possibly with quoted paths or spaces in names
	rest := strings.TrimPrefix(line, "diff --git ")
	if strings.HasPrefix(rest, `"`) {
		if end := closingQuote(rest); end > 0 {
			a = unquote(rest[:end+1])
			b = unquote(strings.TrimSpace(rest[end+1:]))
			return trimDiffPath(a), trimDiffPath(b)
		}
	}
	// Identical paths: rest = X + " " + Y where len(X) == len(Y).
	if (len(rest)-1)%2 == 0 {
		n := (len(rest) - 1) / 2
		if rest[n] == ' ' && trimDiffPath(rest[:n]) == trimDiffPath(rest[n+1:]) {
			return trimDiffPath(rest[:n]), trimDiffPath(rest[n+1:])
		}
	}
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return trimDiffPath(rest[:i]), trimDiffPath(rest[i+1:])
	}
	parts := strings.Fields(rest)
	if len(parts) >= 2 {
		return trimDiffPath(parts[0]), trimDiffPath(parts[len(parts)-1])
	}
	return "", ""
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func trimDiffPath(s string) string {
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}

func parsePathLine(line, prefix string) string {
	s := strings.TrimPrefix(line, prefix)
	// "/dev/null" or "a/path" or "b/path", optionally followed by a tab and timestamp
	if idx := strings.Index(s, "\t"); idx >= 0 {
		s = s[:idx]
	}
	s = unquote(strings.TrimSpace(s))
	if s == devNull {
		return s
	}
	return trimDiffPath(s)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	return atoi(s)
}
