package dendrite

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	InterpretStarted      = capitan.Signal("interpret.started")
	InterpretCompleted    = capitan.Signal("interpret.completed")
	AttemptFailed         = capitan.Signal("interpret.attempt.failed")
	FallbackApplied       = capitan.Signal("interpret.fallback.applied")
	ProviderCallStarted   = capitan.Signal("provider.call.started")
	ProviderCallCompleted = capitan.Signal("provider.call.completed")
	ProviderCallFailed    = capitan.Signal("provider.call.failed")
)

// Keys for hook event fields.
var (
	// Request identification.
	RequestIDKey   = capitan.NewStringKey("interpret.request.id")
	PromptKey      = capitan.NewStringKey("interpret.prompt")
	AttemptKey     = capitan.NewIntKey("interpret.attempt")
	AttemptsKey    = capitan.NewIntKey("interpret.attempts")
	TemperatureKey = capitan.NewFloat64Key("interpret.temperature")

	// Outcome data.
	OutputKey        = capitan.NewStringKey("interpret.output")
	ResponseKey      = capitan.NewStringKey("interpret.response")
	ConfidenceKey    = capitan.NewFloat64Key("interpret.confidence")
	DefaultedKeysKey = capitan.NewIntKey("interpret.defaulted.keys")
	ClippedKeysKey   = capitan.NewIntKey("interpret.clipped.keys")

	// Error information.
	ErrorKey     = capitan.NewStringKey("interpret.error")
	ErrorTypeKey = capitan.NewStringKey("interpret.error.type")

	// Provider information.
	ProviderKey = capitan.NewStringKey("provider.name")
	ModelKey    = capitan.NewStringKey("provider.model")

	// Provider metrics.
	PromptTokensKey     = capitan.NewIntKey("provider.tokens.prompt")
	CompletionTokensKey = capitan.NewIntKey("provider.tokens.completion")
	TotalTokensKey      = capitan.NewIntKey("provider.tokens.total")
	DurationMsKey       = capitan.NewIntKey("provider.duration.ms")

	// HTTP/API metadata.
	HTTPStatusCodeKey = capitan.NewIntKey("provider.http.status.code")
	APIErrorTypeKey   = capitan.NewStringKey("provider.api.error.type")
)
