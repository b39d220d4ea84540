// Package llm hides text-generation backends behind one Generator interface.
// Backends: OpenAI (default), Gemini, AWS Bedrock, a local Ollama server,
// and any provider of github.com/maruel/genai ("genai:<name>").
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrUnavailable means no backend can be used: unknown provider, missing
// credentials, or missing required settings. Callers fall back to local
// rendering.
var ErrUnavailable = errors.New("text generation unavailable")

// ErrEmptyResponse means the backend answered with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is one single-shot completion.
type Request struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
	// ProviderGenAIPrefix selects a github.com/maruel/genai provider, e.g. "genai:anthropic".
	ProviderGenAIPrefix = "genai:"
)

// DefaultProvider is used when none is configured.
const DefaultProvider = ProviderOpenAI

// DefaultModels maps a provider to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI:  "gpt-4o-mini",
	ProviderGemini:  "gemini-2.5-flash",
	ProviderBedrock: "anthropic.claude-3-5-haiku-20241022-v1:0",
	ProviderOllama:  "llama3.2",
}

// Providers lists the built-in provider names.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderGemini, ProviderBedrock, ProviderOllama}
}

// Credentials are API keys read from the environment by config.
type Credentials struct {
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
}

// Settings select and configure a backend.
type Settings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	AWSRegion     string
	Credentials   Credentials
	// HTTPClient is used by the Ollama and OpenAI backends when set.
	HTTPClient *http.Client
}

// NormalizeProvider lower-cases and trims name; empty means DefaultProvider.
func NormalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultProvider
	}
	return name
}

// ModelFor returns model, or the provider's default when model is empty.
func ModelFor(provider, model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return DefaultModels[NormalizeProvider(provider)]
}

// Validate reports whether name is a known provider without building it.
func Validate(name string) error {
	name = NormalizeProvider(name)
	if slices.Contains(Providers(), name) {
		return nil
	}
	if sub, ok := strings.CutPrefix(name, ProviderGenAIPrefix); ok && sub != "" {
		return nil
	}
	return fmt.Errorf("unknown provider %q (want %s or %s<name>)", name, strings.Join(Providers(), ", "), ProviderGenAIPrefix)
}

// New builds the generator named by s.Provider. Missing credentials or an
// unknown provider return an error wrapping ErrUnavailable.
func New(ctx context.Context, s Settings) (Generator, error) {
	provider := NormalizeProvider(s.Provider)
	if err := Validate(provider); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	model := ModelFor(provider, s.Model)
	switch provider {
	case ProviderOpenAI:
		return newOpenAI(s.Credentials, model, s.HTTPClient)
	case ProviderGemini:
		return newGemini(ctx, s.Credentials, model)
	case ProviderBedrock:
		return newBedrock(ctx, s.AWSRegion, model)
	case ProviderOllama:
		return newOllama(s.OllamaBaseURL, model, s.HTTPClient), nil
	}
	return newGenAI(ctx, strings.TrimPrefix(provider, ProviderGenAIPrefix), s.Model)
}

// pick returns the request model when set, else the backend default.
func pick(req Request, def string) string {
	if req.Model != "" {
		return req.Model
	}
	return def
}

// checkText trims text and maps an empty answer to ErrEmptyResponse.
func checkText(backend, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", backend, ErrEmptyResponse)
	}
	return text, nil
}
