package dendrite

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/pipz"
)

// Option modifies the attempt pipeline for reliability features.
// Options wrap the provider terminal, so they apply once per attempt:
// WithRetry(2) inside an interpreter with MaxRetries(2) can reach six
// provider calls in the worst case.
type Option func(pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest]

// WithRetry adds retry logic to the attempt pipeline.
// Failed provider calls are retried up to maxAttempts times with the same
// prompt. This is transport-level retry; schema corrections happen in the
// interpreter loop above.
func WithRetry(maxAttempts int) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewRetry("retry", pipeline, maxAttempts)
	}
}

// WithBackoff adds retry logic with exponential backoff to the pipeline.
// The delay starts at baseDelay and doubles after each failure.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewBackoff("backoff", pipeline, maxAttempts, baseDelay)
	}
}

// WithTimeout adds timeout protection to the pipeline.
// Attempts exceeding this duration are canceled.
func WithTimeout(duration time.Duration) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewTimeout("timeout", pipeline, duration)
	}
}

// WithCircuitBreaker adds circuit breaker protection to the pipeline.
// After 'failures' consecutive failures, the circuit opens for 'recovery'.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewCircuitBreaker("circuit-breaker", pipeline, failures, recovery)
	}
}

// WithRateLimit adds rate limiting to the pipeline.
// rps = requests per second, burst = burst capacity.
func WithRateLimit(rps float64, burst int) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		rateLimiter := pipz.NewRateLimiter[*InterpretRequest]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", rateLimiter, pipeline)
	}
}

// WithErrorHandler adds error handling to the pipeline.
// The handler receives error context and can process/log/alert as needed.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*InterpretRequest]]) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewHandle("error-handler", pipeline, handler)
	}
}

// PipelineProvider is implemented by types that can provide a pipeline for
// composition.
type PipelineProvider interface {
	GetPipeline() pipz.Chainable[*InterpretRequest]
}

// WithFallback adds a fallback pipeline for resilience.
// If the primary fails, the fallback will be tried. Typically the fallback
// is another Interpreter bound to a different provider.
func WithFallback(fallback PipelineProvider) Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		return pipz.NewFallback("with-fallback", pipeline, fallback.GetPipeline())
	}
}

// WithDebug adds debug logging that prints the prompt and raw response.
// Useful for troubleshooting what the model sees and returns per attempt.
func WithDebug() Option {
	return func(pipeline pipz.Chainable[*InterpretRequest]) pipz.Chainable[*InterpretRequest] {
		debugger := pipz.Apply("debug", func(ctx context.Context, req *InterpretRequest) (*InterpretRequest, error) {
			fmt.Printf("\n=== DEBUG: Prompt (attempt %d) ===\n", req.Attempt)
			fmt.Println(req.Prompt.Render())
			fmt.Println("==================================")

			processed, err := pipeline.Process(ctx, req)
			if err != nil {
				fmt.Printf("\n=== DEBUG: Error ===\n%v\n====================\n\n", err)
				return processed, err
			}

			fmt.Println("\n=== DEBUG: Raw Response ===")
			fmt.Println(processed.Response)
			fmt.Println("===========================")

			return processed, nil
		})
		return debugger
	}
}
