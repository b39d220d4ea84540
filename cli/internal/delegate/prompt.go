package delegate

import (
	"fmt"
	"sort"
	"strings"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/llm"
	"commitsum/cli/internal/tokens"
)

// SystemPrompt is sent with every request.
const SystemPrompt = `You are a Git commit message writer assistant. Your job is to create clear, concise, and informative commit messages based on the code changes.
Output only the commit message, no other text or explanation. Do not use markdown, code blocks, or quotes.`

// DefaultDiffTokens bounds the diff excerpt embedded in the prompt.
const DefaultDiffTokens = 500

const (
	maxPromptFiles   = 20
	maxPromptSymbols = 5
	maxPromptRecent  = 5
)

// PromptInput is everything the prompt may mention. Only Facts is required.
type PromptInput struct {
	Facts    facts.Facts
	Category classify.Category
	// LanguageName is the English name of the output language, e.g. "French".
	LanguageName string
	Diff         string
	// DiffTokens bounds the diff excerpt; <= 0 means DefaultDiffTokens.
	DiffTokens int
	Branch     string
	Recent     []string
}

// BuildPrompt returns the request for in. Model, MaxTokens and Temperature
// are left for the caller.
func BuildPrompt(in PromptInput) llm.Request {
	f := in.Facts
	var b strings.Builder
	b.WriteString("Generate a concise and informative Git commit message based on the following code changes.\n\n")
	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "- Files changed: %d\n", f.Files())
	for i, p := range f.Paths {
		if i == maxPromptFiles {
			fmt.Fprintf(&b, "  - ... and %d more\n", len(f.Paths)-maxPromptFiles)
			break
		}
		fmt.Fprintf(&b, "  - %s (%s, %d+ %d-)\n", p, f.Statuses[p], f.Counts[p].Added, f.Counts[p].Removed)
	}
	fmt.Fprintf(&b, "- Lines added: %d\n", f.Added)
	fmt.Fprintf(&b, "- Lines deleted: %d\n", f.Removed)
	fmt.Fprintf(&b, "- File types: %s\n", orNA(extensions(f.Extensions)))
	if in.Category != "" {
		fmt.Fprintf(&b, "- Category hint: %s (%s)\n", in.Category, in.Category.Tag())
	}
	if names := f.Names(); len(names) > 0 {
		fmt.Fprintf(&b, "- Modified functions: %s\n", joinLimited(names, maxPromptSymbols))
	}
	if len(f.NewSymbols) > 0 {
		fmt.Fprintf(&b, "- New functions: %s\n", joinLimited(f.NewSymbols, maxPromptSymbols))
	}
	for _, s := range f.Swaps {
		fmt.Fprintf(&b, "- Algorithm swap: %s replaced by %s", s.From, s.To)
		if s.Symbol != "" {
			fmt.Fprintf(&b, " in %s", s.Symbol)
		}
		fmt.Fprintf(&b, " (%s, %s)\n", s.Family, s.File)
	}
	if in.Branch != "" {
		fmt.Fprintf(&b, "- Branch: %s\n", in.Branch)
	}
	if len(in.Recent) > 0 {
		b.WriteString("- Recent commit subjects:\n")
		for i, s := range in.Recent {
			if i == maxPromptRecent {
				break
			}
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if strings.TrimSpace(in.Diff) != "" {
		budget := in.DiffTokens
		if budget <= 0 {
			budget = DefaultDiffTokens
		}
		excerpt, cut := tokens.Truncate(in.Diff, budget)
		b.WriteString("\nDIFF DETAILS:\n")
		b.WriteString(strings.TrimRight(excerpt, "\n"))
		b.WriteString("\n")
		if cut {
			b.WriteString("... (diff truncated)\n")
		}
	}

	lang := in.LanguageName
	if lang == "" {
		lang = "English"
	}
	b.WriteString("\nWrite the commit message:\n")
	b.WriteString("1. A first line of at most 72 characters in the imperative mood (\"Add feature\", not \"Added feature\").\n")
	b.WriteString("2. Optionally a blank line and a short body for complex changes.\n")
	fmt.Fprintf(&b, "3. In %s.\n", lang)
	return llm.Request{System: SystemPrompt, Prompt: b.String()}
}

func extensions(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for ext := range m {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func orNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d others", strings.Join(items[:limit], ", "), len(items)-limit)
}
