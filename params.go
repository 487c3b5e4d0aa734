package dendrite

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is a single parameter value. Concrete types are float64 (float),
// int (integer), bool, and string (enum).
type Value = any

// ParameterSet maps parameter names to values. A ParameterSet returned by
// Interpret is complete: it holds exactly the schema's keys, each valid.
type ParameterSet map[string]Value

// Clone returns a shallow copy of the set.
func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// SortedNames returns the set's keys in lexical order.
func (p ParameterSet) SortedNames() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ClipNote records a value that was forced into range.
type ClipNote struct {
	In  Value // value the model proposed
	Out Value // value after clamping
}

// coerceValue strictly validates a candidate value against a spec.
// Type mismatches, out-of-range numerics, and unknown enum values are
// errors; the retry loop turns them into correction feedback.
func coerceValue(v Value, spec ParamSpec) (Value, error) {
	switch spec.Type {
	case ParamFloat:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected float, got %T", v)
		}
		if f < spec.Min || f > spec.Max {
			return nil, fmt.Errorf("%v outside range %v..%v", f, spec.Min, spec.Max)
		}
		return f, nil

	case ParamInt:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", f)
		}
		n := int(f)
		if f < spec.Min || f > spec.Max {
			return nil, fmt.Errorf("%d outside range %d..%d", n, int(spec.Min), int(spec.Max))
		}
		return n, nil

	case ParamBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case ParamEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %v, got %T", spec.Enum, v)
		}
		for _, e := range spec.Enum {
			if s == e {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q not one of %v", s, spec.Enum)
	}
	return nil, fmt.Errorf("unknown type %q", spec.Type)
}

// clipValue leniently coerces a candidate value: numeric strings parse,
// floats round to integers, bool-ish strings convert, and out-of-range
// numerics clamp to the nearest bound. Unrecoverable values fall back to
// the schema default. Used only after retries are exhausted.
func clipValue(v Value, spec ParamSpec) Value {
	switch spec.Type {
	case ParamFloat:
		f, ok := asFloatLenient(v)
		if !ok {
			f, _ = asFloat(spec.Default)
		}
		return math.Min(math.Max(f, spec.Min), spec.Max)

	case ParamInt:
		f, ok := asFloatLenient(v)
		if !ok {
			f, _ = asFloat(spec.Default)
		}
		n := int(math.Round(f))
		lo, hi := int(spec.Min), int(spec.Max)
		if n < lo {
			n = lo
		}
		if n > hi {
			n = hi
		}
		return n

	case ParamBool:
		if b, ok := v.(bool); ok {
			return b
		}
		switch strings.ToLower(fmt.Sprintf("%v", v)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
		return spec.Default

	case ParamEnum:
		if s, ok := v.(string); ok {
			for _, e := range spec.Enum {
				if strings.EqualFold(s, e) {
					return e
				}
			}
		}
		return spec.Default
	}
	return spec.Default
}

// ValidateAndClip reconciles a candidate set against a schema,
// always producing a complete ParameterSet:
//   - valid values pass through
//   - out-of-range or mistyped values clip via clipValue (recorded in clipped)
//   - missing keys take the schema default (recorded in violations)
//   - unknown keys are dropped (recorded in violations)
func ValidateAndClip(candidate ParameterSet, schema *Schema) (ParameterSet, map[string]ClipNote, map[string]string) {
	out := make(ParameterSet, schema.Len())
	clipped := make(map[string]ClipNote)
	violations := make(map[string]string)

	for _, spec := range schema.Specs() {
		raw, present := candidate[spec.Name]
		if !present {
			out[spec.Name] = schema.Defaults()[spec.Name]
			violations[spec.Name] = "missing->default"
			continue
		}
		if v, err := coerceValue(raw, spec); err == nil {
			out[spec.Name] = v
			continue
		}
		v := clipValue(raw, spec)
		out[spec.Name] = v
		clipped[spec.Name] = ClipNote{In: raw, Out: v}
	}
	for k := range candidate {
		if _, ok := schema.Spec(k); !ok {
			violations[k] = "unknown-key->dropped"
		}
	}
	return out, clipped, violations
}

// Confidence scores how much a validated set departs from schema defaults,
// penalized by the fraction of values that had to be clipped. A set equal to
// the defaults scores 0; heavy clipping halves the score at most.
func Confidence(validated, defaults ParameterSet, clipped map[string]ClipNote) float64 {
	var diffs []float64
	for k, v := range validated {
		d, ok := defaults[k]
		if !ok {
			continue
		}
		vf, vok := asFloat(v)
		df, dok := asFloat(d)
		switch {
		case vok && dok:
			rng := math.Abs(df) + 1.0
			diffs = append(diffs, math.Min(1.0, math.Abs(vf-df)/rng))
		default:
			vb, vbok := v.(bool)
			db, dbok := d.(bool)
			if vbok && dbok {
				if vb != db {
					diffs = append(diffs, 0.3)
				} else {
					diffs = append(diffs, 0.0)
				}
			}
		}
	}
	if len(diffs) == 0 {
		return 0.0
	}
	var sum float64
	for _, d := range diffs {
		sum += d
	}
	base := sum / float64(len(diffs))
	clipPenalty := math.Min(0.5, float64(len(clipped))/math.Max(1, float64(len(validated))))
	score := base * (1.0 - clipPenalty)
	return math.Max(0.0, math.Min(1.0, score))
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asFloatLenient(v Value) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
