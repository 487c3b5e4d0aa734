package dendrite

import "errors"

// Error taxonomy for a single interpretation attempt. All three are handled
// inside the retry loop and never escape Interpret; they exist so hooks and
// corrections can name what went wrong with an attempt.
var (
	// ErrBackend wraps provider failures: transport errors, timeouts,
	// empty responses.
	ErrBackend = errors.New("inference backend error")

	// ErrParse wraps responses that could not be read as a JSON object.
	ErrParse = errors.New("response parse error")

	// ErrValidation wraps responses that parsed but carried missing,
	// mistyped, or out-of-range values.
	ErrValidation = errors.New("response validation error")
)
