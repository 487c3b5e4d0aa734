package dendrite

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider simulates LLM behavior for testing. It replays a scripted
// queue of responses (the last one repeats), records every call, and
// implements GrammarCaller and SeedCaller so tests can observe what the
// interpreter would have sent to a real backend.
type MockProvider struct {
	name      string
	responses []string
	errs      []error
	seed      int64

	mu           sync.Mutex
	calls        int
	lastMessages []Message
	lastGrammar  string
	lastTemp     float32
}

// NewMockProvider creates a mock that always answers with an empty JSON
// object. Useful when only call mechanics matter.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithResponse("{}")
}

// NewMockProviderWithResponse creates a mock that always returns a specific
// response.
func NewMockProviderWithResponse(response string) *MockProvider {
	return &MockProvider{name: "mock", responses: []string{response}}
}

// NewMockProviderWithResponses creates a mock that replays responses in
// order; the last response repeats once the script runs out.
func NewMockProviderWithResponses(responses ...string) *MockProvider {
	return &MockProvider{name: "mock", responses: responses}
}

// NewMockProviderWithError creates a mock whose calls always fail.
func NewMockProviderWithError(err error) *MockProvider {
	return &MockProvider{name: "mock", errs: []error{err}}
}

// Script sets a per-call script of outcomes: a nil error at position n means
// call n returns responses[n]; a non-nil error means call n fails. Both
// slices are indexed together and the final entry repeats.
func (m *MockProvider) Script(responses []string, errs []error) *MockProvider {
	m.responses = responses
	m.errs = errs
	return m
}

// WithName overrides the provider name reported to hooks.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.name = name
	return m
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.name
}

// Call replays the next scripted response.
func (m *MockProvider) Call(ctx context.Context, messages []Message, temperature float32) (*ProviderResponse, error) {
	return m.CallGrammar(ctx, messages, temperature, "")
}

// CallGrammar replays the next scripted response, recording the grammar.
func (m *MockProvider) CallGrammar(ctx context.Context, messages []Message, temperature float32, grammar string) (*ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	n := m.calls
	m.calls++
	m.lastMessages = append([]Message(nil), messages...)
	m.lastGrammar = grammar
	m.lastTemp = temperature
	m.mu.Unlock()

	if err := scriptAt(m.errs, n); err != nil {
		return nil, err
	}
	content := scriptAt(m.responses, n)
	if content == "" && len(m.responses) == 0 {
		return nil, fmt.Errorf("mock provider %s has no scripted responses", m.name)
	}
	return &ProviderResponse{
		Content: content,
		Usage:   TokenUsage{Prompt: len(m.lastMessages) * 10, Completion: 5, Total: len(m.lastMessages)*10 + 5},
	}, nil
}

// SetSeed records the sampling seed. The mock is already deterministic;
// the recorded value lets tests assert seed propagation.
func (m *MockProvider) SetSeed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seed = seed
}

// Seed returns the last seed passed via SetSeed.
func (m *MockProvider) Seed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seed
}

// Calls returns the number of calls made so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessages returns the messages from the most recent call.
func (m *MockProvider) LastMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.lastMessages...)
}

// LastPrompt returns the content of the final user message from the most
// recent call, or "" if no call happened yet.
func (m *MockProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.lastMessages) - 1; i >= 0; i-- {
		if m.lastMessages[i].Role == RoleUser {
			return m.lastMessages[i].Content
		}
	}
	return ""
}

// LastGrammar returns the grammar from the most recent call, "" when the
// call was unconstrained.
func (m *MockProvider) LastGrammar() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastGrammar
}

// LastTemperature returns the temperature from the most recent call.
func (m *MockProvider) LastTemperature() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTemp
}

func scriptAt[T any](script []T, n int) T {
	var zero T
	if len(script) == 0 {
		return zero
	}
	if n >= len(script) {
		return script[len(script)-1]
	}
	return script[n]
}
