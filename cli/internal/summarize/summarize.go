// Package summarize runs the analysis pipeline for one diff: parse, merge
// name-status entries, filter generated files, extract facts, classify, then
// render locally or through the AI delegate.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/delegate"
	"commitsum/cli/internal/diff"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/logging"
	"commitsum/cli/internal/render"
	"commitsum/cli/internal/trace"
)

// ErrNoChanges is returned by Run when the diff describes no change.
var ErrNoChanges = errors.New("nothing to summarize")

// Pipeline holds the read-only components of a run. Nil fields take the
// defaults; a nil Adapter makes style ai fall back to descriptive output.
type Pipeline struct {
	Extractor  *facts.Extractor
	Classifier *classify.Classifier
	Renderer   *render.Renderer
	Adapter    *delegate.Adapter
	// ExcludePatterns nil means diff.DefaultExcludePatterns.
	ExcludePatterns []string
	Logger          *zap.Logger
	Tracer          *trace.Tracer
}

// Input is one diff to summarize.
type Input struct {
	Diff string
	// Changes are name-status entries; paths without a diff section still
	// take part in classification.
	Changes  []diff.PathStatus
	Style    render.Style
	Language string
	Branch   string
	Recent   []string
}

// Result is everything a run produced.
type Result struct {
	Records  []diff.ChangeRecord
	Excluded []string
	Facts    facts.Facts
	Category classify.Category
	// Rule names the classifier rule that chose Category.
	Rule    string
	Message render.Message
	// Fallback is set when style ai was requested and the local renderer was used.
	Fallback    bool
	FallbackErr error
}

// Run summarizes in. It returns ErrNoChanges when no record carries content;
// every other problem degrades into a usable message.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	log := logging.OrNop(p.Logger)

	records := diff.Merge(diff.Parse(in.Diff), in.Changes)
	if !diff.HasContent(records) {
		log.Debug("no content in diff", zap.Int("records", len(records)))
		return Result{Records: records}, ErrNoChanges
	}
	kept, excluded := diff.Filter(records, p.ExcludePatterns)
	if len(excluded) > 0 {
		log.Debug("excluded generated files", zap.Strings("paths", excluded))
	}
	p.Tracer.Block("Records", describeRecords(kept, excluded))

	extractor := p.Extractor
	if extractor == nil {
		extractor = facts.NewExtractor(facts.Options{})
	}
	f := extractor.Extract(kept)
	p.Tracer.Block("Facts", describeFacts(f))

	classifier := p.Classifier
	if classifier == nil {
		classifier = classify.New(classify.Options{})
	}
	cat, rule := classifier.Explain(f)
	log.Debug("classified change", zap.String("category", string(cat)), zap.String("rule", rule))
	p.Tracer.Block("Classification", fmt.Sprintf("%s (rule %s)", cat, rule))

	res := Result{Records: kept, Excluded: excluded, Facts: f, Category: cat, Rule: rule}
	if in.Style == render.StyleAI {
		adapter := p.Adapter
		if adapter == nil {
			adapter = &delegate.Adapter{Renderer: p.renderer(), Logger: log, Tracer: p.Tracer}
		}
		out := adapter.Generate(ctx, delegate.Input{
			Category: cat,
			Facts:    f,
			Language: in.Language,
			Diff:     in.Diff,
			Branch:   in.Branch,
			Recent:   in.Recent,
		})
		res.Message, res.Fallback, res.FallbackErr = out.Message, out.Fallback, out.Err
	} else {
		res.Message = p.renderer().Render(cat, f, in.Style, in.Language)
	}
	p.Tracer.Block("Message", res.Message.String())
	return res, nil
}

func (p *Pipeline) renderer() *render.Renderer {
	if p.Renderer == nil {
		return render.New(nil, render.Options{})
	}
	return p.Renderer
}

func describeRecords(records []diff.ChangeRecord, excluded []string) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s %s (+%d -%d, %d hunks)", r.Status, r.Path, r.Added, r.Removed, len(r.Hunks))
		if r.OldPath != "" {
			fmt.Fprintf(&b, " from %s", r.OldPath)
		}
		b.WriteString("\n")
	}
	for _, e := range excluded {
		fmt.Fprintf(&b, "excluded %s\n", e)
	}
	return b.String()
}

func describeFacts(f facts.Facts) string {
	exts := make([]string, 0, len(f.Extensions))
	for e, n := range f.Extensions {
		exts = append(exts, fmt.Sprintf("%s=%d", e, n))
	}
	sort.Strings(exts)
	var b strings.Builder
	fmt.Fprintf(&b, "files: %d  added: %d  removed: %d\n", f.Files(), f.Added, f.Removed)
	fmt.Fprintf(&b, "extensions: %s\n", strings.Join(exts, " "))
	fmt.Fprintf(&b, "symbols: %s\n", strings.Join(f.Names(), ", "))
	fmt.Fprintf(&b, "new symbols: %s\n", strings.Join(f.NewSymbols, ", "))
	fmt.Fprintf(&b, "tests: %v  docs: %v  config: %v  style: %v  whitespace-only: %v\n",
		f.TouchesTests, f.TouchesDocs, f.TouchesConfig, f.TouchesStyle, f.WhitespaceOnly)
	for _, s := range f.Swaps {
		fmt.Fprintf(&b, "swap: %s -> %s in %s (%s)\n", s.From, s.To, s.Symbol, s.Family)
	}
	return b.String()
}
