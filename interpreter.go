package dendrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// DefaultMaxRetries is the number of corrective re-queries after a failed
// first attempt. Three model calls total.
const DefaultMaxRetries = 2

// InterpretInput contains rich input structure for interpretation.
type InterpretInput struct {
	Prompt      string    // The natural-language description
	Context     string    // Additional context
	Examples    []Example // Few-shot examples
	Temperature float32   // LLM temperature setting for this request
	Seed        int64     // Sampling seed for providers that support it; 0 = unset
}

// Result is the outcome of one Interpret call. Params is always complete:
// exactly the schema's keys, each holding a valid value.
type Result struct {
	Params       ParameterSet
	UsedDefaults bool                // true when retries ran out and defaults or clamps filled gaps
	Attempts     int                 // provider queries made
	Confidence   float64             // departure from defaults, penalized by clipping
	Clipped      map[string]ClipNote // values forced into range at fallback
	Violations   map[string]string   // keys defaulted or dropped at fallback
	Raw          string              // last raw model response, empty if none arrived
	Usage        TokenUsage          // summed over all attempts
	Elapsed      time.Duration
}

// Interpreter maps free-text descriptions onto a fixed parameter schema by
// querying an LLM and validating the structured response. It retries with
// corrective feedback on failure and falls back to schema defaults once the
// retry budget is exhausted, so callers always receive a usable ParameterSet.
type Interpreter struct {
	what        string
	schema      *Schema
	specBlock   string
	jsonExample string
	grammar     string
	defaults    InterpretInput
	maxRetries  int
	useGrammar  bool
	service     *Service
	provider    Provider

	// Serializes Interpret calls: the backend is a single model instance
	// and a new request supersedes the in-flight one, which observes its
	// own context cancellation.
	mu sync.Mutex
}

// NewInterpreter creates an interpreter for the given schema bound to a
// provider. The what argument names the thing being inferred and appears in
// the prompt task line (e.g. "tree geometry parameters").
// Returns an error if the schema is nil or fails validation.
func NewInterpreter(what string, schema *Schema, provider Provider, opts ...Option) (*Interpreter, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("interpreter: %w", err)
	}

	pipeline := NewTerminal(provider)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}

	return &Interpreter{
		what:        what,
		schema:      schema,
		specBlock:   schema.SpecBlock(),
		jsonExample: schema.JSONExample(),
		grammar:     schema.Grammar(),
		maxRetries:  DefaultMaxRetries,
		useGrammar:  true,
		service:     NewService(pipeline, provider),
		provider:    provider,
	}, nil
}

// GetPipeline returns the internal pipeline for composition.
// Implements PipelineProvider.
func (i *Interpreter) GetPipeline() pipz.Chainable[*InterpretRequest] {
	return i.service.GetPipeline()
}

// Schema returns the interpreter's parameter schema.
func (i *Interpreter) Schema() *Schema {
	return i.schema
}

// WithDefaults sets default input values merged with user input at
// interpret time.
func (i *Interpreter) WithDefaults(defaults InterpretInput) *Interpreter {
	i.defaults = defaults
	return i
}

// WithMaxRetries sets the corrective re-query budget. n re-queries means
// n+1 provider calls in the worst case. Negative values are treated as 0.
func (i *Interpreter) WithMaxRetries(n int) *Interpreter {
	if n < 0 {
		n = 0
	}
	i.maxRetries = n
	return i
}

// WithoutGrammar disables constrained decoding even for providers that
// support it.
func (i *Interpreter) WithoutGrammar() *Interpreter {
	i.useGrammar = false
	return i
}

// Interpret maps a free-text description onto the schema.
// Returns an error only for caller misuse (empty prompt) or context
// cancellation; model and backend failures resolve to defaults instead.
func (i *Interpreter) Interpret(ctx context.Context, promptText string) (*Result, error) {
	return i.InterpretWithInput(ctx, InterpretInput{Prompt: promptText})
}

// InterpretWithInput is Interpret with rich input structure.
func (i *Interpreter) InterpretWithInput(ctx context.Context, input InterpretInput) (*Result, error) {
	merged := i.mergeInputs(input)
	if strings.TrimSpace(merged.Prompt) == "" {
		return nil, fmt.Errorf("interpret: empty prompt")
	}

	temperature := merged.Temperature
	if temperature == TemperatureUnset || temperature == 0 {
		temperature = DefaultTemperatureInterpret
	}

	if merged.Seed != 0 {
		if sc, ok := i.provider.(SeedCaller); ok {
			sc.SetSeed(merged.Seed)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	start := time.Now()
	requestID := uuid.New().String()
	session := NewSession()
	defaults := i.schema.Defaults()

	capitan.Info(ctx, InterpretStarted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(i.provider.Name()),
		PromptKey.Field(merged.Prompt),
		TemperatureKey.Field(float64(temperature)),
	)

	valid := make(ParameterSet, i.schema.Len())
	lastCandidate := make(ParameterSet)
	corrections := newCorrectionLog()
	var raw string
	var usage TokenUsage
	attempts := 0

	for attempt := 0; attempt <= i.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := i.buildPrompt(merged, corrections.lines())
		req := &InterpretRequest{
			Temperature: attemptTemperature(temperature, attempt),
			Grammar:     i.attemptGrammar(attempt),
			RequestID:   requestID,
			Attempt:     attempt,
		}

		attempts++
		response, attemptUsage, err := i.service.Execute(ctx, session, prompt, req)
		if attemptUsage != nil {
			usage.Prompt += attemptUsage.Prompt
			usage.Completion += attemptUsage.Completion
			usage.Total += attemptUsage.Total
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Backend failures carry no feedback for the model; the
			// next attempt re-queries with the same corrections.
			i.emitAttemptFailed(ctx, requestID, attempt, "", err, errorType(err))
			continue
		}
		raw = response

		candidate, err := extractCandidate(response)
		if err != nil {
			corrections.add("return exactly one JSON object and nothing else")
			i.emitAttemptFailed(ctx, requestID, attempt, response, err, "parse_error")
			continue
		}
		for k, v := range candidate {
			lastCandidate[k] = v
		}

		if i.validateCandidate(candidate, valid, corrections) {
			result := i.buildResult(valid.Clone(), false, attempts, nil, nil, raw, usage, start)
			i.emitCompleted(ctx, requestID, result)
			return result, nil
		}
		i.emitAttemptFailed(ctx, requestID, attempt, response,
			fmt.Errorf("%w: %s", ErrValidation, strings.Join(corrections.lines(), "; ")), "validation_error")
	}

	// Retries exhausted: fill remaining gaps by clamping what the model
	// last proposed, falling back to schema defaults where nothing usable
	// ever arrived.
	params := valid.Clone()
	clipped := make(map[string]ClipNote)
	violations := make(map[string]string)
	for _, spec := range i.schema.Specs() {
		if _, ok := params[spec.Name]; ok {
			continue
		}
		if rawVal, ok := lastCandidate[spec.Name]; ok {
			v := clipValue(rawVal, spec)
			params[spec.Name] = v
			clipped[spec.Name] = ClipNote{In: rawVal, Out: v}
			continue
		}
		params[spec.Name] = defaults[spec.Name]
		violations[spec.Name] = "missing->default"
	}

	capitan.Info(ctx, FallbackApplied,
		RequestIDKey.Field(requestID),
		AttemptsKey.Field(attempts),
		DefaultedKeysKey.Field(len(violations)),
		ClippedKeysKey.Field(len(clipped)),
	)

	result := i.buildResult(params, true, attempts, clipped, violations, raw, usage, start)
	i.emitCompleted(ctx, requestID, result)
	return result, nil
}

// validateCandidate runs strict per-key validation, merging valid values
// into the accumulating set and recording corrections for the rest.
// Returns true once every schema key has a valid value.
func (i *Interpreter) validateCandidate(candidate, valid ParameterSet, corrections *correctionLog) bool {
	for _, spec := range i.schema.Specs() {
		rawVal, present := candidate[spec.Name]
		if present {
			v, err := coerceValue(rawVal, spec)
			if err != nil {
				corrections.add(fmt.Sprintf("%s: %v", spec.Name, err))
				continue
			}
			valid[spec.Name] = v
			continue
		}
		if _, ok := valid[spec.Name]; !ok {
			corrections.add(fmt.Sprintf("%s: missing, must be present", spec.Name))
		}
	}
	for k := range candidate {
		if _, ok := i.schema.Spec(k); !ok {
			corrections.add(fmt.Sprintf("%s: unknown key, remove it", k))
		}
	}
	return len(valid) == i.schema.Len()
}

// attemptGrammar returns the grammar for an attempt. The final attempt runs
// unconstrained: a grammar that keeps steering the model into the same dead
// end is worth dropping once before giving up.
func (i *Interpreter) attemptGrammar(attempt int) string {
	if !i.useGrammar {
		return ""
	}
	if i.maxRetries > 0 && attempt == i.maxRetries {
		return ""
	}
	return i.grammar
}

func (i *Interpreter) buildResult(params ParameterSet, usedDefaults bool, attempts int, clipped map[string]ClipNote, violations map[string]string, raw string, usage TokenUsage, start time.Time) *Result {
	return &Result{
		Params:       params,
		UsedDefaults: usedDefaults,
		Attempts:     attempts,
		Confidence:   Confidence(params, i.schema.Defaults(), clipped),
		Clipped:      clipped,
		Violations:   violations,
		Raw:          raw,
		Usage:        usage,
		Elapsed:      time.Since(start),
	}
}

func (i *Interpreter) emitCompleted(ctx context.Context, requestID string, result *Result) {
	capitan.Info(ctx, InterpretCompleted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(i.provider.Name()),
		AttemptsKey.Field(result.Attempts),
		ConfidenceKey.Field(result.Confidence),
		DefaultedKeysKey.Field(len(result.Violations)),
		ClippedKeysKey.Field(len(result.Clipped)),
	)
}

func (i *Interpreter) emitAttemptFailed(ctx context.Context, requestID string, attempt int, response string, err error, errType string) {
	capitan.Error(ctx, AttemptFailed,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(i.provider.Name()),
		AttemptKey.Field(attempt),
		ResponseKey.Field(response),
		ErrorKey.Field(err.Error()),
		ErrorTypeKey.Field(errType),
	)
}

// mergeInputs combines defaults with user input.
func (i *Interpreter) mergeInputs(input InterpretInput) InterpretInput {
	merged := i.defaults

	if input.Prompt != "" {
		merged.Prompt = input.Prompt
	}
	if input.Context != "" {
		merged.Context = input.Context
	}
	if len(input.Examples) > 0 {
		merged.Examples = append(merged.Examples, input.Examples...)
	}
	if input.Temperature != 0 && input.Temperature != TemperatureUnset {
		merged.Temperature = input.Temperature
	}
	if input.Seed != 0 {
		merged.Seed = input.Seed
	}

	return merged
}

// buildPrompt constructs the per-attempt prompt.
func (i *Interpreter) buildPrompt(input InterpretInput, corrections []string) *Prompt {
	prompt := &Prompt{
		Task:      fmt.Sprintf("Infer %s from the description", i.what),
		Input:     input.Prompt,
		Context:   input.Context,
		SpecBlock: i.specBlock,
		Examples:  input.Examples,
		Schema:    i.jsonExample,
		Constraints: []string{
			"return a single JSON object, no prose, no code fences",
			"include every parameter key exactly once",
			"respect each parameter's declared type and range",
			"no keys other than the ones listed",
		},
		Corrections: corrections,
	}
	return prompt
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "backend_error"
	}
}

// correctionLog accumulates unique correction lines across attempts,
// preserving first-seen order.
type correctionLog struct {
	seen  map[string]bool
	order []string
}

func newCorrectionLog() *correctionLog {
	return &correctionLog{seen: make(map[string]bool)}
}

func (c *correctionLog) add(line string) {
	if c.seen[line] {
		return
	}
	c.seen[line] = true
	c.order = append(c.order, line)
}

func (c *correctionLog) lines() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
