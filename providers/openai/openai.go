// Package openai provides a dendrite Provider backed by the official
// openai-go SDK (chat completions). Works against api.openai.com or any
// OpenAI-compatible endpoint via BaseURL.
package openai

import (
	"context"
	"fmt"
	"sync"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zoobzio/dendrite"
)

// Provider implements the dendrite Provider and SeedCaller interfaces for
// the OpenAI API.
type Provider struct {
	client oai.Client
	model  string

	mu   sync.Mutex
	seed int64
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey  string
	Model   string // e.g. "gpt-4o", "gpt-4o-mini"
	BaseURL string // Optional, for OpenAI-compatible endpoints
}

// New creates a new OpenAI provider.
func New(config Config) *Provider {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: oai.NewClient(opts...),
		model:  config.Model,
		seed:   -1,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "openai"
}

// SetSeed fixes the sampling seed for subsequent calls.
// A negative seed restores provider-default sampling.
func (p *Provider) SetSeed(seed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seed = seed
}

// Call sends messages to OpenAI and returns the response with usage stats.
func (p *Provider) Call(ctx context.Context, messages []dendrite.Message, temperature float32) (*dendrite.ProviderResponse, error) {
	p.mu.Lock()
	seed := p.seed
	p.mu.Unlock()

	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case dendrite.RoleSystem:
			msgs = append(msgs, oai.SystemMessage(m.Content))
		case dendrite.RoleAssistant:
			msgs = append(msgs, oai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, oai.UserMessage(m.Content))
		}
	}

	params := oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(p.model),
		Messages:    msgs,
		Temperature: oai.Float(float64(temperature)),
	}
	if seed >= 0 {
		params.Seed = oai.Int(seed)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}

	return &dendrite.ProviderResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: dendrite.TokenUsage{
			Prompt:     int(resp.Usage.PromptTokens),
			Completion: int(resp.Usage.CompletionTokens),
			Total:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
