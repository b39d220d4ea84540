package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNew_unavailable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    Settings
	}{
		{"unknown provider", Settings{Provider: "clippy"}},
		{"empty genai name", Settings{Provider: "genai:"}},
		{"unknown genai provider", Settings{Provider: "genai:nope-not-real"}},
		{"openai without key", Settings{Provider: "openai"}},
		{"default provider without key", Settings{}},
		{"gemini without key", Settings{Provider: "Gemini"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := New(context.Background(), tt.s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, g)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	for _, p := range []string{"openai", "OLLAMA", " bedrock ", "gemini", "genai:anthropic", ""} {
		assert.NoError(t, Validate(p), p)
	}
	assert.Error(t, Validate("genai:"))
	assert.Error(t, Validate("gpt"))
}

func TestModelFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "gpt-4o-mini", ModelFor("", ""))
	assert.Equal(t, "llama3.2", ModelFor("ollama", " "))
	assert.Equal(t, "qwen2.5-coder:7b", ModelFor("ollama", "qwen2.5-coder:7b"))
	assert.Equal(t, "", ModelFor("genai:mistral", ""))
}

func TestOpenAI_generate(t *testing.T) {
	t.Parallel()
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Add health endpoint\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), Settings{
		Provider:    "openai",
		Credentials: Credentials{OpenAIKey: "sk-test", OpenAIBaseURL: srv.URL + "/v1/"},
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)
	text, err := g.Generate(context.Background(), Request{System: "sys", Prompt: "diff", MaxTokens: 100, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Add health endpoint", text)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAI_emptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer srv.Close()
	g, err := New(context.Background(), Settings{
		Credentials: Credentials{OpenAIKey: "k", OpenAIBaseURL: srv.URL},
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOllama_generate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen2.5-coder:7b", body["model"])
		_, _ = w.Write([]byte(`{"response":"Fix parser","done":true}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), Settings{Provider: "ollama", Model: "qwen2.5-coder:7b", OllamaBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	text, err := g.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Fix parser", text)
}

func TestOllama_blankResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   ","done":true}`))
	}))
	defer srv.Close()
	g := newOllama(srv.URL, "m", srv.Client())
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

type fakeContent struct {
	model string
	cfg   *genai.GenerateContentConfig
	res   *genai.GenerateContentResponse
	err   error
}

func (f *fakeContent) GenerateContent(_ context.Context, model string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.cfg = model, cfg
	return f.res, f.err
}

func TestGemini_generate(t *testing.T) {
	t.Parallel()
	api := &fakeContent{res: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "Document parser\n"}}}}},
	}}
	g := &geminiGenerator{api: api, model: "gemini-2.5-flash"}
	text, err := g.Generate(context.Background(), Request{System: "sys", Prompt: "p", MaxTokens: 64, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "Document parser", text)
	assert.Equal(t, "gemini-2.5-flash", api.model)
	require.NotNil(t, api.cfg.SystemInstruction)
	assert.Equal(t, int32(64), api.cfg.MaxOutputTokens)

	api.err = errors.New("quota")
	_, err = g.Generate(context.Background(), Request{Model: "other", Prompt: "p"})
	assert.ErrorContains(t, err, "quota")
	assert.Equal(t, "other", api.model)
}

type fakeConverse struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestBedrock_generate(t *testing.T) {
	t.Parallel()
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: "Refactor "},
				&brtypes.ContentBlockMemberText{Value: "loader"},
			},
		}},
	}}
	g := &bedrockGenerator{api: api, model: "anthropic.claude"}
	text, err := g.Generate(context.Background(), Request{System: "sys", Prompt: "p", MaxTokens: 100, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Refactor loader", text)
	assert.Equal(t, "anthropic.claude", aws.ToString(api.in.ModelId))
	assert.Equal(t, int32(100), aws.ToInt32(api.in.InferenceConfig.MaxTokens))
	assert.Len(t, api.in.System, 1)
}

func TestBedrock_errors(t *testing.T) {
	t.Parallel()
	g := &bedrockGenerator{api: &fakeConverse{err: &brtypes.AccessDeniedException{Message: aws.String("no")}}, model: "m"}
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "credential or permission issue")

	g = &bedrockGenerator{api: &fakeConverse{out: &bedrockruntime.ConverseOutput{}}, model: "m"}
	_, err = g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
