package llm

import (
	"context"
	"fmt"

	"github.com/maruel/genai"
	"github.com/maruel/genai/providers"
)

type genAIGenerator struct {
	name     string
	provider genai.Provider
}

// newGenAI builds a github.com/maruel/genai provider. Each provider reads its
// own API key from the environment; a missing key fails here.
func newGenAI(ctx context.Context, name, model string) (Generator, error) {
	cfg, ok := providers.All[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown genai provider %q", ErrUnavailable, name)
	}
	opt := genai.ProviderOptionModel(model)
	if opt == "" {
		opt = genai.ModelGood
	}
	p, err := cfg.Factory(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("%w: genai %s: %v", ErrUnavailable, name, err)
	}
	return &genAIGenerator{name: name, provider: p}, nil
}

// Generate ignores req.Model; the model is fixed when the provider is built.
func (g *genAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}
	opts := &genai.GenOptionText{Temperature: req.Temperature}
	if req.MaxTokens > 0 {
		opts.MaxTokens = int64(req.MaxTokens)
	}
	res, err := g.provider.GenSync(ctx, genai.Messages{genai.NewTextMessage(prompt)}, opts)
	if err != nil {
		return "", fmt.Errorf("genai %s: %w", g.name, err)
	}
	return checkText("genai "+g.name, res.String())
}
