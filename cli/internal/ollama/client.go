// Package ollama is a small HTTP client for a local Ollama server: a health
// and model check for doctor, and non-streaming text generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

// DefaultBaseURL is where Ollama listens out of the box.
const DefaultBaseURL = "http://localhost:11434"

const (
	_defaultTimeout = 60 * time.Second
	_maxErrorBody   = 512
)

// ErrUnreachable indicates the server could not be reached (connection refused,
// timeout, or a 5xx response).
var ErrUnreachable = errors.New("ollama server unreachable")

// ErrBadRequest indicates the server rejected the request (4xx), most often
// because the model is not pulled.
var ErrBadRequest = errors.New("ollama rejected request")

// Client calls the Ollama API. Use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL (DefaultBaseURL when empty). A nil
// httpClient gets a 60s timeout; callers normally bound requests with ctx.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Reachable    bool
	ModelPresent bool
	// ModelNames lists every local model, for diagnostics.
	ModelNames []string
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Check GETs /api/tags and reports whether model is available. A model given
// without a tag matches its ":latest" variant.
func (c *Client) Check(ctx context.Context, model string) (*CheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}
	var body tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ollama tags: parse response: %w", err)
	}
	res := &CheckResult{Reachable: true, ModelNames: make([]string, 0, len(body.Models))}
	for _, m := range body.Models {
		res.ModelNames = append(res.ModelNames, m.Name)
	}
	res.ModelPresent = slices.Contains(res.ModelNames, model) ||
		(!strings.Contains(model, ":") && slices.Contains(res.ModelNames, model+":latest"))
	return res, nil
}

// GenerateRequest is one non-streaming completion.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	// MaxTokens maps to num_predict; zero leaves the server default.
	MaxTokens int
}

// GenerateResult is the model output and its token accounting.
type GenerateResult struct {
	Response        string
	PromptEvalCount int
	EvalCount       int
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateBody struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Generate POSTs /api/generate with streaming disabled.
func (c *Client) Generate(ctx context.Context, r GenerateRequest) (*GenerateResult, error) {
	payload, err := json.Marshal(generateBody{
		Model:   r.Model,
		System:  r.System,
		Prompt:  r.Prompt,
		Options: generateOptions{Temperature: r.Temperature, NumPredict: r.MaxTokens},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("ollama generate: %w: HTTP %d%s", ErrUnreachable, resp.StatusCode, errorDetail(resp.Body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("ollama generate: %w: HTTP %d%s", ErrBadRequest, resp.StatusCode, errorDetail(resp.Body))
	}
	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ollama generate: parse response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("ollama generate: %w: %s", ErrBadRequest, body.Error)
	}
	return &GenerateResult{
		Response:        body.Response,
		PromptEvalCount: body.PromptEvalCount,
		EvalCount:       body.EvalCount,
	}, nil
}

// errorDetail extracts the "error" field Ollama puts in failure bodies.
func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, _maxErrorBody))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return ": " + e.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return ": " + s
	}
	return ""
}
