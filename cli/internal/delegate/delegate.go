// Package delegate asks a text-generation backend to phrase the commit
// message and falls back to local descriptive rendering when it cannot.
// Generate always returns a usable message; the Fallback flag and Err say
// whether the backend was used.
package delegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/llm"
	"commitsum/cli/internal/logging"
	"commitsum/cli/internal/render"
	"commitsum/cli/internal/tokens"
	"commitsum/cli/internal/trace"
)

// DefaultTimeout bounds one backend call.
const DefaultTimeout = 30 * time.Second

const _warnThreshold = 0.9

var (
	// ErrTimeout means the backend did not answer within the timeout.
	ErrTimeout = errors.New("text generation timed out")
	// ErrMalformed means the response held no usable summary line.
	ErrMalformed = errors.New("malformed response from model")
)

// Adapter phrases messages through Generator. A nil Generator always falls
// back; a nil Renderer means built-in locales with default options.
type Adapter struct {
	Generator   llm.Generator
	Renderer    *render.Renderer
	Timeout     time.Duration
	Model       string
	MaxTokens   int
	Temperature float64
	// DiffTokens bounds the diff excerpt in the prompt.
	DiffTokens int
	// ContextLimit, when > 0, logs a warning for prompts close to it.
	ContextLimit int
	Logger       *zap.Logger
	Tracer       *trace.Tracer
}

// Input is one request for a message.
type Input struct {
	Category classify.Category
	Facts    facts.Facts
	Language string
	Diff     string
	Branch   string
	Recent   []string
}

// Result is the message and how it was produced.
type Result struct {
	Message render.Message
	// Fallback is true when Message came from the local renderer.
	Fallback bool
	// Err is the backend failure behind a fallback.
	Err error
}

// Generate makes one attempt with the backend and returns its phrasing, or
// the descriptive rendering when the attempt fails.
func (a *Adapter) Generate(ctx context.Context, in Input) Result {
	log := logging.OrNop(a.Logger)
	r := a.Renderer
	if r == nil {
		r = render.New(nil, render.Options{})
	}
	fallback := func(err error) Result {
		log.Warn("AI generation failed, using descriptive message", zap.Error(err))
		msg := r.Render(in.Category, in.Facts, render.StyleDescriptive, in.Language)
		return Result{Message: msg, Fallback: true, Err: err}
	}
	if a.Generator == nil {
		return fallback(llm.ErrUnavailable)
	}

	loc, _ := r.Catalog().Resolve(in.Language)
	req := BuildPrompt(PromptInput{
		Facts:        in.Facts,
		Category:     in.Category,
		LanguageName: loc.Name,
		Diff:         in.Diff,
		DiffTokens:   a.DiffTokens,
		Branch:       in.Branch,
		Recent:       in.Recent,
	})
	req.Model = a.Model
	req.MaxTokens = a.MaxTokens
	req.Temperature = a.Temperature
	a.Tracer.Block("Prompt", req.Prompt)
	if warn := tokens.WarnIfOver(tokens.Estimate(req.System+req.Prompt), a.MaxTokens, a.ContextLimit, _warnThreshold); warn != "" {
		log.Warn(warn)
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	text, err := a.call(callCtx, req)
	log.Debug("AI generation finished", zap.Duration("elapsed", time.Since(start)), zap.Int("chars", len(text)))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
		}
		return fallback(err)
	}
	a.Tracer.Block("Response", text)

	summary, body, ok := Clean(text)
	if !ok {
		return fallback(ErrMalformed)
	}
	return Result{Message: render.Message{
		Category: in.Category,
		Tag:      in.Category.Tag(),
		Summary:  summary,
		Body:     body,
		Language: loc.Code,
		Style:    render.StyleAI,
	}}
}

// call runs the backend, turning a panic into an error.
func (a *Adapter) call(ctx context.Context, req llm.Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()
	return a.Generator.Generate(ctx, req)
}

// Clean trims a raw response into a summary line and an optional body. It
// drops code fences and quotes wrapping the whole text or the summary. ok is
// false when no summary line remains.
func Clean(text string) (summary, body string, ok bool) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		lines = append(lines, l)
	}
	text = unquote(strings.TrimSpace(strings.Join(lines, "\n")))
	if text == "" {
		return "", "", false
	}
	first, rest, _ := strings.Cut(text, "\n")
	summary = unquote(strings.TrimSpace(first))
	if summary == "" {
		return "", "", false
	}
	return summary, strings.TrimSpace(rest), true
}

func unquote(s string) string {
	for len(s) >= 2 {
		f, l := s[0], s[len(s)-1]
		if f != l || (f != '"' && f != '\'' && f != '`') {
			break
		}
		inner := s[1 : len(s)-1]
		if strings.IndexByte(inner, f) >= 0 {
			break
		}
		s = strings.TrimSpace(inner)
	}
	return s
}
