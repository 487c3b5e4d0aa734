package dendrite

import (
	"strings"
	"testing"
)

func TestCoerceValue(t *testing.T) {
	floatSpec := ParamSpec{Name: "f", Type: ParamFloat, Min: 0, Max: 10, Default: 5.0}
	intSpec := ParamSpec{Name: "i", Type: ParamInt, Min: 1, Max: 6, Default: 3}
	boolSpec := ParamSpec{Name: "b", Type: ParamBool, Default: true}
	enumSpec := ParamSpec{Name: "e", Type: ParamEnum, Enum: []string{"a", "b"}, Default: "a"}

	tests := []struct {
		name    string
		spec    ParamSpec
		in      Value
		want    Value
		wantErr string
	}{
		{"float_ok", floatSpec, 7.5, 7.5, ""},
		{"float_from_int", floatSpec, 7, 7.0, ""},
		{"float_low", floatSpec, -1.0, nil, "outside range"},
		{"float_high", floatSpec, 11.0, nil, "outside range"},
		{"float_string", floatSpec, "7.5", nil, "expected float"},
		{"int_ok", intSpec, 4, 4, ""},
		{"int_from_float", intSpec, 4.0, 4, ""},
		{"int_fractional", intSpec, 4.5, nil, "expected integer"},
		{"int_high", intSpec, 99, nil, "outside range"},
		{"bool_ok", boolSpec, false, false, ""},
		{"bool_string", boolSpec, "true", nil, "expected bool"},
		{"enum_ok", enumSpec, "b", "b", ""},
		{"enum_unknown", enumSpec, "z", nil, "not one of"},
		{"enum_number", enumSpec, 1.0, nil, "expected one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceValue(tt.in, tt.spec)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("coerceValue failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestClipValue(t *testing.T) {
	floatSpec := ParamSpec{Name: "f", Type: ParamFloat, Min: 0, Max: 10, Default: 5.0}
	intSpec := ParamSpec{Name: "i", Type: ParamInt, Min: 1, Max: 6, Default: 3}
	boolSpec := ParamSpec{Name: "b", Type: ParamBool, Default: true}
	enumSpec := ParamSpec{Name: "e", Type: ParamEnum, Enum: []string{"spring", "summer"}, Default: "summer"}

	tests := []struct {
		name string
		spec ParamSpec
		in   Value
		want Value
	}{
		{"float_clamp_high", floatSpec, 9000.0, 10.0},
		{"float_clamp_low", floatSpec, -3.0, 0.0},
		{"float_in_range", floatSpec, 7.5, 7.5},
		{"float_from_string", floatSpec, "7.5", 7.5},
		{"float_garbage_to_default", floatSpec, "tall", 5.0},
		{"int_round", intSpec, 4.6, 5},
		{"int_clamp", intSpec, 99, 6},
		{"bool_string_true", boolSpec, "yes", true},
		{"bool_string_false", boolSpec, "off", false},
		{"bool_garbage_to_default", boolSpec, "maybe", true},
		{"enum_case_fold", enumSpec, "Spring", "spring"},
		{"enum_garbage_to_default", enumSpec, "winter", "summer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clipValue(tt.in, tt.spec); got != tt.want {
				t.Errorf("Expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestValidateAndClip(t *testing.T) {
	schema := testSchema()

	t.Run("all_valid", func(t *testing.T) {
		out, clipped, violations := ValidateAndClip(ParameterSet{
			"trunk_length": 10.5,
			"branch_angle": 0.7,
			"leaf_level":   2.0,
			"leaves":       false,
			"season":       "autumn",
		}, schema)
		if len(clipped) != 0 || len(violations) != 0 {
			t.Errorf("Expected clean pass, got clipped=%v violations=%v", clipped, violations)
		}
		if out["leaf_level"] != 2 {
			t.Errorf("Expected leaf_level coerced to int 2, got %v", out["leaf_level"])
		}
	})

	t.Run("mixed", func(t *testing.T) {
		out, clipped, violations := ValidateAndClip(ParameterSet{
			"trunk_length": 9000.0,
			"mystery":      1.0,
		}, schema)
		if len(out) != schema.Len() {
			t.Fatalf("Expected complete set, got %d keys", len(out))
		}
		if out["trunk_length"] != 40.0 {
			t.Errorf("Expected clamp to 40, got %v", out["trunk_length"])
		}
		if note := clipped["trunk_length"]; note.In != 9000.0 || note.Out != 40.0 {
			t.Errorf("Unexpected clip note: %+v", note)
		}
		if violations["season"] != "missing->default" {
			t.Errorf("Expected missing->default for season, got %v", violations["season"])
		}
		if violations["mystery"] != "unknown-key->dropped" {
			t.Errorf("Expected unknown-key->dropped for mystery, got %v", violations["mystery"])
		}
		if _, ok := out["mystery"]; ok {
			t.Error("Unknown key must not appear in output")
		}
	})
}

func TestConfidence(t *testing.T) {
	schema := testSchema()
	defaults := schema.Defaults()

	t.Run("defaults_score_zero", func(t *testing.T) {
		if c := Confidence(defaults.Clone(), defaults, nil); c != 0 {
			t.Errorf("Expected 0, got %v", c)
		}
	})

	t.Run("departure_scores_positive", func(t *testing.T) {
		set := defaults.Clone()
		set["trunk_length"] = 30.0
		set["leaves"] = false
		c := Confidence(set, defaults, nil)
		if c <= 0 || c > 1 {
			t.Errorf("Expected score in (0,1], got %v", c)
		}
	})

	t.Run("clipping_reduces_score", func(t *testing.T) {
		set := defaults.Clone()
		set["trunk_length"] = 40.0
		clean := Confidence(set, defaults, nil)
		penalized := Confidence(set, defaults, map[string]ClipNote{
			"trunk_length": {In: 9000.0, Out: 40.0},
		})
		if penalized >= clean {
			t.Errorf("Expected clip penalty: clean=%v penalized=%v", clean, penalized)
		}
	})

	t.Run("empty_set", func(t *testing.T) {
		if c := Confidence(ParameterSet{}, defaults, nil); c != 0 {
			t.Errorf("Expected 0 for empty set, got %v", c)
		}
	})
}

func TestParameterSetClone(t *testing.T) {
	orig := ParameterSet{"a": 1.0, "b": true}
	clone := orig.Clone()
	clone["a"] = 2.0
	if orig["a"] != 1.0 {
		t.Error("Clone must not share storage with the original")
	}
}
