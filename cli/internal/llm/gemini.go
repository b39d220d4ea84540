package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentAPI is the part of the Gemini client's Models service the backend uses.
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiGenerator struct {
	api   contentAPI
	model string
}

func newGemini(ctx context.Context, creds Credentials, model string) (Generator, error) {
	if strings.TrimSpace(creds.GeminiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  creds.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %v", ErrUnavailable, err)
	}
	return &geminiGenerator{api: client.Models, model: model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	res, err := g.api.GenerateContent(ctx, pick(req, g.model), genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if res == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return checkText("gemini", res.Text())
}
