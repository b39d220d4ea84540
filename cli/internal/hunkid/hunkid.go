// Package hunkid fingerprints the two sides of a diff hunk so that cosmetic
// edits (re-indentation, reflowed lines, comment rewording) can be told apart
// from code changes. Fingerprints are SHA-256 hex digests of normalized text.
package hunkid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// Change is the outcome of comparing the removed and added side of an edit.
type Change int

const (
	// Code means the sides differ after normalization.
	Code Change = iota
	// Whitespace means only spacing, indentation or line breaks differ.
	Whitespace
	// Comments means the sides differ only in comments (and possibly whitespace).
	Comments
)

func (c Change) String() string {
	switch c {
	case Whitespace:
		return "whitespace"
	case Comments:
		return "comments"
	}
	return "code"
}

var markupCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// commentSyntax describes one comment family. Comment markers inside quoted
// strings are text, not comments.
type commentSyntax struct {
	line       string
	blockOpen  string
	blockClose string
	quotes     string
}

var syntaxes = map[string]commentSyntax{
	"c":    {line: "//", blockOpen: "/*", blockClose: "*/", quotes: "\"'`"},
	"hash": {line: "#", quotes: "\"'"},
	"dash": {line: "--", quotes: "'\""},
}

// Layout returns a fingerprint of content that ignores all whitespace.
func Layout(content string) string {
	return hashString(strings.Join(strings.Fields(normalizeCRLF(content)), ""))
}

// Semantic returns a fingerprint of content that ignores comments and
// whitespace. Comment syntax is chosen from the extension of path; unknown
// extensions only ignore whitespace.
func Semantic(path, content string) string {
	return Layout(stripComments(normalizeCRLF(content), langFromPath(path)))
}

// Compare classifies the edit that turned before into after.
func Compare(path, before, after string) Change {
	if Layout(before) == Layout(after) {
		return Whitespace
	}
	if langFromPath(path) != "" && Semantic(path, before) == Semantic(path, after) {
		return Comments
	}
	return Code
}

func normalizeCRLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// langFromPath returns the comment family for path, or "".
func langFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".js", ".mjs", ".cjs", ".ts", ".tsx", ".jsx", ".java", ".c", ".h", ".cc", ".cpp", ".hpp",
		".cs", ".rs", ".swift", ".kt", ".scala", ".css", ".scss", ".less":
		return "c"
	case ".py", ".pyw", ".rb", ".sh", ".bash", ".zsh", ".pl", ".r", ".toml", ".yaml", ".yml":
		return "hash"
	case ".sql", ".lua", ".hs":
		return "dash"
	case ".html", ".htm", ".xml", ".svg", ".vue":
		return "markup"
	}
	return ""
}

func stripComments(content, lang string) string {
	if lang == "markup" {
		return markupCommentRe.ReplaceAllString(content, " ")
	}
	syn, ok := syntaxes[lang]
	if !ok {
		return content
	}
	return syn.strip(content)
}

// strip replaces comments with a space. Single- and double-quoted strings end
// at a newline; backquoted strings may span lines. An unterminated block
// comment is kept as text.
func (syn commentSyntax) strip(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	var quote byte
	for i := 0; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && quote != '`' && i+1 < len(content):
				i++
				b.WriteByte(content[i])
			case c == quote, c == '\n' && quote != '`':
				quote = 0
			}
			continue
		}
		rest := content[i:]
		switch {
		case syn.blockOpen != "" && strings.HasPrefix(rest, syn.blockOpen):
			end := strings.Index(rest[len(syn.blockOpen):], syn.blockClose)
			if end < 0 {
				b.WriteString(rest)
				return b.String()
			}
			b.WriteByte(' ')
			i += len(syn.blockOpen) + end + len(syn.blockClose) - 1
		case strings.HasPrefix(rest, syn.line):
			b.WriteByte(' ')
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				return b.String()
			}
			i += end - 1
		default:
			if strings.IndexByte(syn.quotes, c) >= 0 {
				quote = c
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}
