// Package tokens estimates prompt sizes and trims text to a token budget.
// Estimation is a byte-based chars/4 heuristic; it only needs to be close
// enough to keep prompts inside a model's context window.
package tokens

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// charsPerToken is roughly 4 bytes per token for English and code.
const charsPerToken = 4

// DefaultResponseReserve is the number of tokens kept free for the reply
// when checking a prompt against the context limit.
const DefaultResponseReserve = 256

// Estimate returns ceil(len(s)/4): 0 for "", 1 for 1–4 bytes, 2 for 5–8, and so on.
func Estimate(s string) int {
	n := len(s)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// Truncate returns the longest prefix of s whose estimate fits in maxTokens,
// cut at the last newline when there is one and never inside a UTF-8
// sequence. The bool reports whether anything was dropped. maxTokens <= 0
// means no limit.
func Truncate(s string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || Estimate(s) <= maxTokens {
		return s, false
	}
	// Estimate(s) > maxTokens implies len(s) > limit.
	limit := maxTokens * charsPerToken
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	cut := s[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut, true
}

// WarnIfOver returns a warning when promptTokens+responseReserve reaches
// warnThreshold (0..1) of contextLimit, else "". contextLimit <= 0 disables
// the check.
func WarnIfOver(promptTokens, responseReserve, contextLimit int, warnThreshold float64) string {
	if contextLimit <= 0 || promptTokens < 0 || responseReserve < 0 {
		return ""
	}
	if responseReserve > math.MaxInt-promptTokens {
		return fmt.Sprintf("token estimate overflow (prompt %d + reserve %d)", promptTokens, responseReserve)
	}
	total := promptTokens + responseReserve
	threshold := int(math.Ceil(float64(contextLimit) * warnThreshold))
	if total < threshold {
		return ""
	}
	return fmt.Sprintf("estimated tokens %d (prompt %d + reserve %d) exceeds %.0f%% of context limit %d",
		total, promptTokens, responseReserve, warnThreshold*100, contextLimit)
}
