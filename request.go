package dendrite

// InterpretRequest flows through the pipz pipeline.
// It contains the prompt, sampling parameters, and response data for a
// single interpretation attempt.
type InterpretRequest struct {
	// Input fields
	Prompt      *Prompt // The structured prompt to send to the LLM
	Temperature float32 // Temperature parameter for response generation
	Grammar     string  // GBNF grammar, empty when constrained decoding is off

	// Session fields
	SessionID string    // ID of the conversation carrying retry feedback
	Messages  []Message // Message history from earlier attempts

	// Metadata fields
	RequestID    string // Unique identifier for the whole Interpret call
	Attempt      int    // Zero-based attempt number within the retry loop
	ProviderName string // Name of the provider being used

	// Output fields (populated by pipeline)
	Response string      // Raw text response from provider
	Usage    *TokenUsage // Token usage from provider response
	Error    error       // Any error that occurred during processing
}
