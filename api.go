// Package dendrite turns natural-language descriptions into validated sets of
// procedural-geometry parameters by querying an LLM provider and checking the
// structured response against a declarative parameter schema.
//
// The core operation is the Interpreter: given a Schema (parameter names,
// types, ranges, defaults) and a Provider, Interpret runs a bounded
// retry-with-feedback loop. Each attempt renders a prompt carrying the schema
// description, few-shot examples, and any corrections accumulated from earlier
// attempts, then parses and validates the response per key. Values that
// survive validation are kept across attempts; once the retry budget is
// exhausted, remaining gaps are filled from schema defaults and the result is
// flagged with UsedDefaults. Interpret never fails because the model
// misbehaved; it only fails on caller misuse (empty prompt, broken schema).
//
// Basic usage:
//
//	provider := llamacpp.New(llamacpp.Config{BaseURL: "http://localhost:8080"})
//	interp, _ := dendrite.NewInterpreter("tree parameters", treegen.Schema(), provider,
//	    dendrite.WithTimeout(60*time.Second),
//	)
//	result, _ := interp.Interpret(ctx, "a tall windswept pine with sparse leaves")
//	fmt.Println(result.Params, result.UsedDefaults)
package dendrite

import "context"

// Provider defines the interface for LLM providers.
// Providers accept conversation messages and return responses with usage stats.
type Provider interface {
	// Call sends messages to the LLM and returns the response with usage stats.
	// Messages should be in chronological order (oldest first).
	Call(ctx context.Context, messages []Message, temperature float32) (*ProviderResponse, error)

	// Name returns the provider identifier (e.g., "openai", "llamacpp")
	Name() string
}

// GrammarCaller is an optional interface for providers that support
// constrained decoding. When the interpreter's schema produces a grammar and
// the provider implements GrammarCaller, calls go through CallGrammar instead
// of Call so the model cannot emit keys or types outside the schema.
// Providers without grammar support are used as-is.
type GrammarCaller interface {
	Provider

	// CallGrammar is Call with a GBNF grammar constraining the output.
	CallGrammar(ctx context.Context, messages []Message, temperature float32, grammar string) (*ProviderResponse, error)
}

// SeedCaller is an optional interface for providers that accept a sampling
// seed. A fixed seed plus a fixed prompt yields a reproducible response,
// which is what makes Interpret idempotent against local backends.
type SeedCaller interface {
	// SetSeed fixes the sampling seed for subsequent calls.
	// A negative seed restores provider-default (random) sampling.
	SetSeed(seed int64)
}

// TokenUsage contains token counts from a provider response.
type TokenUsage struct {
	Prompt     int // Tokens used by the prompt/messages
	Completion int // Tokens used by the completion/response
	Total      int // Total tokens used
}

// ProviderResponse contains the response from an LLM provider.
type ProviderResponse struct {
	Content string     // The text response content
	Usage   TokenUsage // Token usage statistics
}

// Message represents a single message in a conversation.
// Messages are exchanged between the user and the assistant (LLM).
type Message struct {
	Role    string // RoleUser, RoleAssistant, or RoleSystem
	Content string // The message content
}

// Role constants for message types.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
