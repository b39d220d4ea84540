package facts

import (
	"regexp"
	"strings"
)

// Origin says where a symbol was seen.
type Origin string

const (
	OriginAdded   Origin = "added"
	OriginRemoved Origin = "removed"
	// OriginContext is the enclosing definition git reports in the hunk header.
	OriginContext Origin = "context"
)

// Symbol is a function, method or type name found in a diff.
type Symbol struct {
	Name   string
	File   string
	Origin Origin
}

// Definition patterns, tried in order. Each has exactly one capture group
// for the name except typedDecl, which captures the type too.
var (
	pyDefRe     = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`)
	classRe     = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:public\s+|private\s+|internal\s+)?(?:abstract\s+|final\s+|sealed\s+)?(?:class|struct|interface|trait|enum|module)\s+([A-Za-z_$][\w$]*)`)
	goFuncRe    = regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*[\[(]`)
	goTypeRe    = regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`)
	rustFnRe    = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`)
	jsFuncRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	jsArrowRe   = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`)
	jsMethodRe  = regexp.MustCompile(`^\s*(?:static\s+)?(?:async\s+)?([A-Za-z_$][\w$]*)\s*(?::\s*(?:async\s+)?(?:function\b|\()|\([^)]*\)\s*\{\s*$)`)
	typedDeclRe = regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|virtual|override|inline|extern|unsafe|async|synchronized|const|unsigned|signed)\s+)*([A-Za-z_][\w:<>,\[\]]*)[\s\*&]+([A-Za-z_]\w*)\s*\([^;]*$`)
	callRe      = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// keywords are never symbol names nor declaration types.
var keywords = map[string]bool{
	"if": true, "else": true, "elif": true, "for": true, "foreach": true, "while": true, "do": true,
	"switch": true, "case": true, "default": true, "match": true, "loop": true, "when": true,
	"return": true, "break": true, "continue": true, "goto": true, "throw": true, "throws": true,
	"raise": true, "try": true, "catch": true, "except": true, "finally": true, "with": true,
	"new": true, "delete": true, "typeof": true, "instanceof": true, "sizeof": true, "await": true,
	"yield": true, "defer": true, "go": true, "select": true, "lambda": true, "function": true,
	"in": true, "of": true, "and": true, "or": true, "not": true, "is": true, "as": true,
	"assert": true, "print": true, "echo": true, "super": true, "this": true, "self": true,
	"import": true, "from": true, "package": true, "using": true, "namespace": true,
	"let": true, "var": true, "const": true, "static": true, "public": true, "private": true,
	"protected": true, "template": true, "typename": true, "operator": true,
}

func isKeyword(s string) bool {
	return keywords[strings.ToLower(s)]
}

// definedName returns the name defined by line, or "" when the line does not
// look like a definition.
func definedName(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
		return ""
	}
	for _, re := range []*regexp.Regexp{pyDefRe, goFuncRe, goTypeRe, rustFnRe, jsFuncRe, classRe, jsArrowRe} {
		if m := re.FindStringSubmatch(line); m != nil && !isKeyword(m[1]) {
			return m[1]
		}
	}
	if m := typedDeclRe.FindStringSubmatch(line); m != nil {
		if !isKeyword(m[1]) && !isKeyword(m[2]) && endsLikeDefinition(trimmed) {
			return m[2]
		}
	}
	if m := jsMethodRe.FindStringSubmatch(line); m != nil && !isKeyword(m[1]) {
		return m[1]
	}
	return ""
}

// endsLikeDefinition reports whether a typed declaration line ends with a
// parameter list or a block opener rather than an expression.
func endsLikeDefinition(line string) bool {
	switch {
	case strings.HasSuffix(line, "{"), strings.HasSuffix(line, ")"), strings.HasSuffix(line, ","):
		return true
	case strings.HasSuffix(line, "const"), strings.HasSuffix(line, "override"), strings.HasSuffix(line, "noexcept"):
		return true
	}
	return strings.Contains(line, ") throws ")
}

// callTargets returns the distinct names called on line, in order.
func callTargets(line string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range callRe.FindAllStringSubmatch(line, -1) {
		name := m[1]
		if isKeyword(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
