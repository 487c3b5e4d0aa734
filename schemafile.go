package dendrite

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// metaSchema is the JSON Schema a schema document must satisfy before it is
// turned into a Schema. Catching shape errors here keeps NewSchema's own
// validation focused on semantics (ranges, defaults) instead of typos.
const metaSchema = `{
  "type": "object",
  "required": ["parameters"],
  "additionalProperties": false,
  "properties": {
    "parameters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type", "default"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "type": {"enum": ["float", "integer", "bool", "enum"]},
          "min": {"type": "number"},
          "max": {"type": "number"},
          "enum": {"type": "array", "items": {"type": "string"}, "minItems": 1},
          "default": {}
        }
      }
    },
    "sections": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "groups": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

type schemaDoc struct {
	Parameters []paramDoc          `yaml:"parameters"`
	Sections   map[string]string   `yaml:"sections"`
	Groups     map[string][]string `yaml:"groups"`
}

type paramDoc struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Min         float64  `yaml:"min"`
	Max         float64  `yaml:"max"`
	Enum        []string `yaml:"enum"`
	Default     any      `yaml:"default"`
}

// LoadSchemaFile reads a schema document from a YAML or JSON file.
func LoadSchemaFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema file: %w", err)
	}
	defer f.Close()
	s, err := LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// LoadSchema reads a schema document from a reader. YAML and JSON are both
// accepted (JSON is a YAML subset). The document is validated against an
// embedded meta-schema, then built through NewSchema.
func LoadSchema(r io.Reader) (*Schema, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metaSchema),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		return nil, fmt.Errorf("validate schema document: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("invalid schema document: %s", strings.Join(issues, "; "))
	}

	var doc schemaDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	specs := make([]ParamSpec, 0, len(doc.Parameters))
	for _, p := range doc.Parameters {
		specs = append(specs, ParamSpec{
			Name:        p.Name,
			Description: p.Description,
			Type:        ParamType(p.Type),
			Min:         p.Min,
			Max:         p.Max,
			Enum:        p.Enum,
			Default:     p.Default,
		})
	}

	schema, err := NewSchema(specs)
	if err != nil {
		return nil, err
	}
	schema.Sections = doc.Sections
	schema.BoolChildren = doc.Groups
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}
