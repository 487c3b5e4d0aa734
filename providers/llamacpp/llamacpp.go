// Package llamacpp provides a dendrite Provider backed by a local
// llama-server instance (llama.cpp) speaking the OpenAI-compatible chat
// API. The provider supports GBNF constrained decoding and fixed sampling
// seeds, which the server accepts as request-body extensions.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/zoobzio/dendrite"
)

// Provider implements the dendrite Provider, GrammarCaller, and SeedCaller
// interfaces against a llama-server endpoint.
type Provider struct {
	model      string
	baseURL    string
	maxTokens  int
	topP       float32
	httpClient *http.Client

	mu   sync.Mutex
	seed int64
}

// Config holds configuration for the llama.cpp provider.
type Config struct {
	BaseURL   string        // e.g. "http://localhost:8080"; required
	Model     string        // Optional; llama-server serves whatever model it loaded
	MaxTokens int           // Optional, defaults to 420
	TopP      float32       // Optional, defaults to 0.9
	Timeout   time.Duration // Optional, defaults to 120s; local 7B inference is slow
}

// New creates a new llama.cpp provider.
func New(config Config) *Provider {
	if config.MaxTokens == 0 {
		config.MaxTokens = 420
	}
	if config.TopP == 0 {
		config.TopP = 0.9
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Provider{
		model:     config.Model,
		baseURL:   config.BaseURL,
		maxTokens: config.MaxTokens,
		topP:      config.TopP,
		seed:      -1,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "llamacpp"
}

// SetSeed fixes the sampling seed for subsequent calls.
// A negative seed restores server-default (random) sampling.
func (p *Provider) SetSeed(seed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seed = seed
}

// Call sends messages to llama-server and returns the response.
func (p *Provider) Call(ctx context.Context, messages []dendrite.Message, temperature float32) (*dendrite.ProviderResponse, error) {
	return p.CallGrammar(ctx, messages, temperature, "")
}

// CallGrammar is Call with a GBNF grammar constraining the output.
func (p *Provider) CallGrammar(ctx context.Context, messages []dendrite.Message, temperature float32, grammar string) (*dendrite.ProviderResponse, error) {
	p.mu.Lock()
	seed := p.seed
	p.mu.Unlock()

	body := chatCompletionRequest{
		Model:       p.model,
		Messages:    make([]message, len(messages)),
		Temperature: temperature,
		TopP:        p.topP,
		MaxTokens:   p.maxTokens,
		Grammar:     grammar,
	}
	for i, m := range messages {
		body.Messages[i] = message{Role: m.Role, Content: m.Content}
	}
	if seed >= 0 {
		body.Seed = &seed
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("llama-server error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("llama-server error (%d): %s", resp.StatusCode, string(respBody))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from llama-server")
	}

	return &dendrite.ProviderResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: dendrite.TokenUsage{
			Prompt:     completion.Usage.PromptTokens,
			Completion: completion.Usage.CompletionTokens,
			Total:      completion.Usage.TotalTokens,
		},
	}, nil
}

type chatCompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
	TopP        float32   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Seed        *int64    `json:"seed,omitempty"`
	Grammar     string    `json:"grammar,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
