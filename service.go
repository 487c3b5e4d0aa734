package dendrite

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Service runs single interpretation attempts through a pipz pipeline.
// Parsing and schema validation stay in the interpreter, because their
// failures feed the correction loop rather than the pipeline's error path.
type Service struct {
	pipeline     pipz.Chainable[*InterpretRequest]
	providerName string
}

// NewService creates a new Service with the given pipeline and provider.
func NewService(pipeline pipz.Chainable[*InterpretRequest], provider Provider) *Service {
	return &Service{
		pipeline:     pipeline,
		providerName: provider.Name(),
	}
}

// NewTerminal creates the terminal processor that calls the provider with
// session messages plus the rendered prompt. When the request carries a
// grammar and the provider supports constrained decoding, the grammar call
// path is used.
func NewTerminal(provider Provider) pipz.Chainable[*InterpretRequest] {
	return pipz.Apply("llm-call", func(ctx context.Context, req *InterpretRequest) (*InterpretRequest, error) {
		messages := make([]Message, len(req.Messages)+1)
		copy(messages, req.Messages)
		messages[len(messages)-1] = Message{
			Role:    RoleUser,
			Content: req.Prompt.Render(),
		}

		capitan.Emit(ctx, ProviderCallStarted,
			ProviderKey.Field(provider.Name()),
			RequestIDKey.Field(req.RequestID),
			AttemptKey.Field(req.Attempt),
			TemperatureKey.Field(float64(req.Temperature)),
		)

		start := time.Now()
		var resp *ProviderResponse
		var err error
		if gc, ok := provider.(GrammarCaller); ok && req.Grammar != "" {
			resp, err = gc.CallGrammar(ctx, messages, req.Temperature, req.Grammar)
		} else {
			resp, err = provider.Call(ctx, messages, req.Temperature)
		}
		durationMs := int(time.Since(start).Milliseconds())

		if err != nil {
			capitan.Emit(ctx, ProviderCallFailed,
				ProviderKey.Field(provider.Name()),
				RequestIDKey.Field(req.RequestID),
				AttemptKey.Field(req.Attempt),
				DurationMsKey.Field(durationMs),
				ErrorKey.Field(err.Error()),
			)
			return req, err
		}

		capitan.Emit(ctx, ProviderCallCompleted,
			ProviderKey.Field(provider.Name()),
			RequestIDKey.Field(req.RequestID),
			AttemptKey.Field(req.Attempt),
			DurationMsKey.Field(durationMs),
			PromptTokensKey.Field(resp.Usage.Prompt),
			CompletionTokensKey.Field(resp.Usage.Completion),
			TotalTokensKey.Field(resp.Usage.Total),
		)

		req.Response = resp.Content
		req.Usage = &resp.Usage
		return req, nil
	})
}

// GetPipeline returns the internal pipeline for composition.
// This is used by WithFallback to combine pipelines.
func (s *Service) GetPipeline() pipz.Chainable[*InterpretRequest] {
	return s.pipeline
}

// Execute runs one attempt through the pipeline and returns the raw
// response. The session is only updated after the provider answered, so
// failed transport attempts don't pollute the retry conversation.
func (s *Service) Execute(ctx context.Context, session *Session, prompt *Prompt, req *InterpretRequest) (string, *TokenUsage, error) {
	if err := prompt.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid prompt: %w", err)
	}

	req.Prompt = prompt
	req.Messages = session.Messages()
	req.SessionID = session.ID()
	req.ProviderName = s.providerName

	processed, err := s.pipeline.Process(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if processed.Response == "" {
		return "", nil, fmt.Errorf("%w: no response from provider", ErrBackend)
	}

	session.Append(RoleUser, prompt.Render())
	session.Append(RoleAssistant, processed.Response)
	session.SetUsage(processed.Usage)

	return processed.Response, processed.Usage, nil
}
