package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/erruser"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/render"
	"commitsum/cli/internal/summarize"
)

func sampleResult() summarize.Result {
	return summarize.Result{
		Facts: facts.Facts{
			Paths:      []string{"api/health.go", "README.md"},
			Added:      14,
			Removed:    2,
			Extensions: map[string]int{"md": 1, "go": 1},
		},
		Excluded: []string{"go.sum"},
		Category: classify.Feature,
		Rule:     "new-symbols",
		Message: render.Message{
			Category: classify.Feature,
			Tag:      "feat",
			Summary:  "Add function health (14+ 2-)",
			Body:     "Files changed:\n- api/health.go: added (12+ 0-)\n- README.md: modified (2+ 2-)",
			Language: "en",
			Style:    render.StyleDescriptive,
		},
	}
}

func newBuffers() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestPrinter_noColorForBuffers(t *testing.T) {
	t.Parallel()
	p, _, _ := newBuffers()
	assert.False(t, p.outColor)
	assert.False(t, p.errColor)
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestAnalysis(t *testing.T) {
	t.Parallel()
	p, out, errOut := newBuffers()
	p.Analysis(sampleResult())
	assert.Empty(t, out.String())
	want := "Analysis of changes:\n" +
		"  - Files changed: 2\n" +
		"  - Lines added: 14\n" +
		"  - Lines deleted: 2\n" +
		"  - File types: go, md\n" +
		"  - Category: feature (feat)\n" +
		"  - Excluded: go.sum\n\n"
	assert.Equal(t, want, errOut.String())
}

func TestMessage(t *testing.T) {
	t.Parallel()
	p, out, errOut := newBuffers()
	res := sampleResult()
	p.Message(res.Message)
	assert.Equal(t, res.Message.String()+"\n", out.String())
	assert.Equal(t, "Suggested commit message:\n", errOut.String())
}

func TestWarnAndInfo(t *testing.T) {
	t.Parallel()
	p, out, errOut := newBuffers()
	p.Warn("AI generation failed (%s); using the descriptive message.", "timeout")
	p.Info("Committed.")
	assert.Empty(t, out.String())
	assert.Equal(t, "Warning: AI generation failed (timeout); using the descriptive message.\nCommitted.\n", errOut.String())
}

func TestError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom\n"},
		{"user with cause", erruser.New("Could not read the staged diff.", errors.New("exit status 128")),
			"Could not read the staged diff.\nDetails: exit status 128\n"},
		{"user with hint", erruser.WithHint("This directory is not inside a Git repository.", "Run commitsum inside a repository.", errors.New("exit status 128")),
			"This directory is not inside a Git repository.\nDetails: exit status 128\nHint: Run commitsum inside a repository.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, _, errOut := newBuffers()
			p.Error(tt.err)
			assert.Equal(t, tt.want, errOut.String())
		})
	}
}

func TestJSONReport(t *testing.T) {
	t.Parallel()
	p, out, _ := newBuffers()
	res := sampleResult()
	res.Fallback = true
	res.FallbackErr = errors.New("text generation unavailable")
	require.NoError(t, p.JSON(NewReport(res)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, res.Message.String(), got["text"])
	assert.Equal(t, "new-symbols", got["rule"])
	assert.Equal(t, true, got["fallback"])
	assert.Equal(t, "text generation unavailable", got["fallback_error"])
	assert.Equal(t, float64(14), got["added"])
	msg, ok := got["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "feat", msg["tag"])
	assert.Equal(t, "descriptive", msg["style"])
}

func TestNewReport_emptyFiles(t *testing.T) {
	t.Parallel()
	r := NewReport(summarize.Result{})
	assert.NotNil(t, r.Files)
	assert.Empty(t, r.FallbackError)
}
