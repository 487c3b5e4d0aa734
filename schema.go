package dendrite

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParamType identifies the value type of a schema parameter.
type ParamType string

// Supported parameter types.
const (
	ParamFloat ParamType = "float"
	ParamInt   ParamType = "integer"
	ParamBool  ParamType = "bool"
	ParamEnum  ParamType = "enum"
)

// ParamSpec declares a single parameter: its type, valid range or enum
// values, and the default used when inference cannot produce a valid value.
type ParamSpec struct {
	Name        string
	Description string // passed to the LLM as the parameter's meaning
	Type        ParamType
	Min         float64  // numeric lower bound (float/integer only)
	Max         float64  // numeric upper bound (float/integer only)
	Enum        []string // allowed values (enum only)
	Default     Value
}

// Schema is an ordered set of parameter specs. Order is preserved because it
// determines prompt rendering and grammar key ordering; lookups go through an
// index. Every spec must carry a default so a failed inference never leaves a
// gap in the resulting ParameterSet.
type Schema struct {
	specs []ParamSpec
	index map[string]int

	// Sections maps a parameter name to a section label starting at that
	// parameter. BoolChildren maps a bool parameter to the parameters it
	// gates. Both are grouping metadata carried for consumers that render
	// parameters; the interpreter itself ignores them.
	Sections     map[string]string
	BoolChildren map[string][]string
}

// ErrEmptySchema is returned when a schema declares no parameters.
var ErrEmptySchema = errors.New("schema declares no parameters")

// NewSchema builds and validates a schema from ordered parameter specs.
// Returns an error for an empty spec list, duplicate or empty names,
// unknown types, inverted ranges, missing defaults, or defaults that
// fail their own spec.
func NewSchema(specs []ParamSpec) (*Schema, error) {
	s := &Schema{
		specs: make([]ParamSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	copy(s.specs, specs)
	for i, spec := range s.specs {
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", spec.Name)
		}
		s.index[spec.Name] = i
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error.
// Intended for package-level schema literals that are covered by tests.
func MustSchema(specs []ParamSpec) *Schema {
	s, err := NewSchema(specs)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks structural soundness of the schema.
func (s *Schema) Validate() error {
	if s == nil || len(s.specs) == 0 {
		return ErrEmptySchema
	}
	for _, spec := range s.specs {
		if spec.Name == "" {
			return errors.New("parameter with empty name")
		}
		switch spec.Type {
		case ParamFloat, ParamInt:
			if spec.Min > spec.Max {
				return fmt.Errorf("parameter %q: min %v greater than max %v", spec.Name, spec.Min, spec.Max)
			}
		case ParamBool:
		case ParamEnum:
			if len(spec.Enum) == 0 {
				return fmt.Errorf("parameter %q: enum with no values", spec.Name)
			}
		default:
			return fmt.Errorf("parameter %q: unknown type %q", spec.Name, spec.Type)
		}
		if spec.Default == nil {
			return fmt.Errorf("parameter %q: missing default", spec.Name)
		}
		if _, err := coerceValue(spec.Default, spec); err != nil {
			return fmt.Errorf("parameter %q: default %v: %w", spec.Name, spec.Default, err)
		}
	}
	for parent, children := range s.BoolChildren {
		p, ok := s.Spec(parent)
		if !ok {
			return fmt.Errorf("bool group parent %q not in schema", parent)
		}
		if p.Type != ParamBool {
			return fmt.Errorf("bool group parent %q is %s, not bool", parent, p.Type)
		}
		for _, child := range children {
			if _, ok := s.Spec(child); !ok {
				return fmt.Errorf("bool group child %q not in schema", child)
			}
		}
	}
	return nil
}

// Len returns the number of parameters.
func (s *Schema) Len() int {
	return len(s.specs)
}

// Names returns parameter names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Specs returns a copy of the parameter specs in declaration order.
func (s *Schema) Specs() []ParamSpec {
	specs := make([]ParamSpec, len(s.specs))
	copy(specs, s.specs)
	return specs
}

// Spec looks up a parameter spec by name.
func (s *Schema) Spec(name string) (ParamSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return ParamSpec{}, false
	}
	return s.specs[i], true
}

// Defaults returns a complete ParameterSet built from spec defaults.
// Defaults are normalized through the same coercion path as model values,
// so an integer default declared as a float literal comes back as an int.
func (s *Schema) Defaults() ParameterSet {
	out := make(ParameterSet, len(s.specs))
	for _, spec := range s.specs {
		v, err := coerceValue(spec.Default, spec)
		if err != nil {
			// Validate rejects schemas with broken defaults.
			v = spec.Default
		}
		out[spec.Name] = v
	}
	return out
}

// SpecBlock renders the per-parameter specification lines embedded in the
// system prompt: name, type, range or enum values, description, and default.
func (s *Schema) SpecBlock() string {
	var b strings.Builder
	for _, spec := range s.specs {
		b.WriteString(spec.Name)
		b.WriteString(": ")
		b.WriteString(string(spec.Type))
		switch spec.Type {
		case ParamFloat, ParamInt:
			b.WriteString(" ")
			b.WriteString(formatBound(spec.Min, spec.Type))
			b.WriteString("..")
			b.WriteString(formatBound(spec.Max, spec.Type))
		case ParamEnum:
			b.WriteString(" (")
			b.WriteString(strings.Join(spec.Enum, " | "))
			b.WriteString(")")
		}
		if spec.Description != "" {
			b.WriteString("  # ")
			b.WriteString(spec.Description)
		}
		b.WriteString(fmt.Sprintf(" (default: %v)", spec.Default))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// JSONExample renders a complete example object using defaults as values.
// Embedded in the prompt as the exact shape the model must return.
func (s *Schema) JSONExample() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, spec := range s.specs {
		b.WriteString("  ")
		b.WriteString(strconv.Quote(spec.Name))
		b.WriteString(": ")
		switch v := spec.Default.(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
		if i < len(s.specs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// SortedNames returns parameter names in lexical order.
// Grammar generation uses this so grammars are stable across runs.
func (s *Schema) SortedNames() []string {
	names := s.Names()
	sort.Strings(names)
	return names
}

func formatBound(v float64, t ParamType) string {
	if t == ParamInt {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
