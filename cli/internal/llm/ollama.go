package llm

import (
	"context"
	"fmt"
	"net/http"

	"commitsum/cli/internal/ollama"
)

type ollamaAPI interface {
	Generate(ctx context.Context, r ollama.GenerateRequest) (*ollama.GenerateResult, error)
}

type ollamaGenerator struct {
	api   ollamaAPI
	model string
}

func newOllama(baseURL, model string, httpClient *http.Client) *ollamaGenerator {
	return &ollamaGenerator{api: ollama.NewClient(baseURL, httpClient), model: model}
}

func (g *ollamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	res, err := g.api.Generate(ctx, ollama.GenerateRequest{
		Model:       pick(req, g.model),
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return checkText("ollama", res.Response)
}
