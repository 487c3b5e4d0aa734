package dendrite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoobzio/sentinel"
)

// Register the non-default struct tags FromStruct reads; sentinel only
// extracts tags outside its built-in set after registration.
func init() {
	sentinel.Tag("min")
	sentinel.Tag("max")
	sentinel.Tag("default")
	sentinel.Tag("enum")
}

// FromStruct derives a Schema from a tagged Go struct using sentinel.
// Field tags:
//
//	json:"name"      parameter name (defaults to lowercased field name)
//	desc:"..."       description passed to the LLM
//	min:"0" max:"40" numeric bounds (float and integer fields)
//	default:"4.0"    required; parsed per the field's type
//	enum:"a,b,c"     string fields become enum parameters
//
// Example:
//
//	type Knobs struct {
//	    TrunkLength float64 `json:"trunk_length" desc:"trunk total length" min:"0" max:"40" default:"4"`
//	    LeafLevel   int     `json:"leaf_level" desc:"branch level leaves start at" min:"1" max:"6" default:"4"`
//	    Leaves      bool    `json:"leaves" desc:"generate leaves" default:"true"`
//	}
//	schema, err := dendrite.FromStruct[Knobs]()
func FromStruct[T any]() (*Schema, error) {
	metadata := sentinel.Inspect[T]()

	specs := make([]ParamSpec, 0, len(metadata.Fields))
	for _, field := range metadata.Fields {
		name := jsonFieldName(field)
		if name == "-" {
			continue
		}

		spec := ParamSpec{
			Name:        name,
			Description: field.Tags["desc"],
		}

		switch {
		case strings.HasPrefix(field.Type, "float"):
			spec.Type = ParamFloat
		case strings.HasPrefix(field.Type, "int"), strings.HasPrefix(field.Type, "uint"):
			spec.Type = ParamInt
		case strings.HasPrefix(field.Type, "bool"):
			spec.Type = ParamBool
		case strings.HasPrefix(field.Type, "string"):
			if field.Tags["enum"] == "" {
				return nil, fmt.Errorf("field %s: string fields need an enum tag", field.Name)
			}
			spec.Type = ParamEnum
		default:
			return nil, fmt.Errorf("field %s: unsupported type %s", field.Name, field.Type)
		}

		if spec.Type == ParamEnum {
			for _, v := range strings.Split(field.Tags["enum"], ",") {
				spec.Enum = append(spec.Enum, strings.TrimSpace(v))
			}
		}

		if spec.Type == ParamFloat || spec.Type == ParamInt {
			var err error
			if spec.Min, err = tagFloat(field.Tags, "min"); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			if spec.Max, err = tagFloat(field.Tags, "max"); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
		}

		def, ok := field.Tags["default"]
		if !ok {
			return nil, fmt.Errorf("field %s: missing default tag", field.Name)
		}
		v, err := parseDefault(def, spec)
		if err != nil {
			return nil, fmt.Errorf("field %s: default %q: %w", field.Name, def, err)
		}
		spec.Default = v

		specs = append(specs, spec)
	}

	return NewSchema(specs)
}

// jsonFieldName extracts the parameter name from field metadata.
func jsonFieldName(field sentinel.FieldMetadata) string {
	if jsonTag, ok := field.Tags["json"]; ok {
		parts := strings.Split(jsonTag, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}
	return strings.ToLower(field.Name[:1]) + field.Name[1:]
}

func tagFloat(tags map[string]string, key string) (float64, error) {
	raw, ok := tags[key]
	if !ok {
		return 0, fmt.Errorf("missing %s tag", key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s tag: %w", key, err)
	}
	return f, nil
}

func parseDefault(raw string, spec ParamSpec) (Value, error) {
	switch spec.Type {
	case ParamFloat:
		return strconv.ParseFloat(raw, 64)
	case ParamInt:
		n, err := strconv.Atoi(raw)
		return n, err
	case ParamBool:
		return strconv.ParseBool(raw)
	case ParamEnum:
		return raw, nil
	}
	return nil, fmt.Errorf("unknown type %q", spec.Type)
}
