package dendrite

// Temperature controls the randomness of LLM responses. Lower values produce
// more deterministic outputs.
const (
	// TemperatureUnset indicates that no temperature has been explicitly set.
	// When this value is encountered, the interpreter uses its default.
	// Note: A zero-value float32 (0.0) is also treated as unset for ergonomic
	// struct initialization.
	TemperatureUnset float32 = -1

	// TemperatureZero provides an explicitly near-zero temperature for
	// maximum determinism. Use this instead of 0.0 since zero is treated
	// as "unset".
	TemperatureZero float32 = 0.0001

	// DefaultTemperatureInterpret is the first-attempt temperature.
	// Parameter inference wants some spread so distinct prompts land on
	// distinct trees, but not enough to wander out of range.
	DefaultTemperatureInterpret float32 = 0.4
)

// attemptTemperature implements the retry ladder: the first retry drops to
// half the base temperature to pull the model toward the schema, later
// attempts return to the base so corrections have room to act.
func attemptTemperature(base float32, attempt int) float32 {
	if attempt == 1 {
		return base / 2
	}
	return base
}
