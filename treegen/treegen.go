// Package treegen ships the built-in parameter schema for procedural tree
// geometry: trunk and branch lengths, per-level branch angles, curve
// resolution, trunk radius, and the leaf system. Distances are scene units,
// angles are radians.
//
// The schema is host-agnostic; Sockets maps parameter names onto the
// geometry node-graph input identifiers for hosts that consume them.
package treegen

import (
	"encoding/json"

	"github.com/zoobzio/dendrite"
)

const halfPi = 1.57079

// Schema returns the tree-geometry parameter schema. Each call returns a
// fresh value; mutating one does not affect others.
func Schema() *dendrite.Schema {
	s := dendrite.MustSchema([]dendrite.ParamSpec{
		// Trunk and branch lengths.
		{Name: "trunk_length", Description: "total trunk length from root to tip", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 4.0},
		{Name: "branch_length_1", Description: "length of first-level branches", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 3.0},
		{Name: "branch_length_2", Description: "length of second-level branches", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 2.0},
		{Name: "branch_length_3", Description: "length of third-level branches", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 2.0},
		{Name: "branch_length_4", Description: "length of fourth-level branches", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 1.0},
		{Name: "branch_length_5", Description: "length of fifth-level branches", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 1.0},

		// Curve control-point counts; higher is smoother and more complex.
		{Name: "trunk_resolution", Description: "trunk curve control points", Type: dendrite.ParamInt, Min: 1, Max: 25, Default: 12},
		{Name: "branch_resolution_1", Description: "first-level branch curve control points", Type: dendrite.ParamInt, Min: 1, Max: 20, Default: 8},
		{Name: "branch_resolution_2", Description: "second-level branch curve control points", Type: dendrite.ParamInt, Min: 1, Max: 15, Default: 5},
		{Name: "branch_resolution_3", Description: "third-level branch curve control points", Type: dendrite.ParamInt, Min: 1, Max: 10, Default: 5},
		{Name: "branch_resolution_4", Description: "fourth-level branch curve control points", Type: dendrite.ParamInt, Min: 1, Max: 5, Default: 3},
		{Name: "branch_resolution_5", Description: "fifth-level branch curve control points", Type: dendrite.ParamInt, Min: 1, Max: 5, Default: 3},

		// Branch growth angles per level: 0 is horizontal, larger bends upward.
		{Name: "branch_angle_1", Description: "first-level branch growth angle, radians", Type: dendrite.ParamFloat, Min: -halfPi, Max: halfPi, Default: 1.0472},
		{Name: "branch_angle_2", Description: "second-level branch growth angle, radians", Type: dendrite.ParamFloat, Min: 0, Max: halfPi, Default: 1.0472},
		{Name: "branch_angle_3", Description: "third-level branch growth angle, radians", Type: dendrite.ParamFloat, Min: 0, Max: halfPi, Default: 1.0472},
		{Name: "branch_angle_4", Description: "fourth-level branch growth angle, radians", Type: dendrite.ParamFloat, Min: 0, Max: halfPi, Default: 1.0472},
		{Name: "branch_angle_5", Description: "fifth-level branch growth angle, radians", Type: dendrite.ParamFloat, Min: 0, Max: halfPi, Default: 1.0472},

		{Name: "trunk_radius", Description: "trunk base radius", Type: dendrite.ParamFloat, Min: 0, Max: 10, Default: 0.2},

		// Leaf system. leaves gates the rest.
		{Name: "leaves", Description: "generate leaves (off means branches only)", Type: dendrite.ParamBool, Default: true},
		{Name: "leaf_density", Description: "leaf density scale; final density is this times pow(distribution index, leaf_density_exponent)", Type: dendrite.ParamFloat, Min: 0, Max: 500, Default: 200.0},
		{Name: "leaf_density_exponent", Description: "density gamma: 1 is linear, below 1 lifts sparse regions, above 1 flattens", Type: dendrite.ParamFloat, Min: 0, Max: 1, Default: 0.5},
		{Name: "leaf_level", Description: "branch level leaves start at: 1 covers the trunk up, 6 is fifth-level branches only", Type: dendrite.ParamInt, Min: 1, Max: 6, Default: 4},
		{Name: "leaf_vertical_angle", Description: "leaf base angle, radians: 0 horizontal, positive up, negative down", Type: dendrite.ParamFloat, Min: -halfPi, Max: halfPi, Default: -0.349066},
		{Name: "leaf_curve_angle", Description: "how far leaves lean toward the branch curve, radians", Type: dendrite.ParamFloat, Min: -halfPi, Max: halfPi, Default: 0.785398},
		{Name: "leaf_scale", Description: "leaf base scale multiplier", Type: dendrite.ParamFloat, Min: 0.01, Max: 5, Default: 1.0},
	})

	s.Sections = map[string]string{
		"trunk_length":     "Length",
		"trunk_resolution": "Curve Resolution",
		"branch_angle_1":   "Branch Angle",
		"trunk_radius":     "Radius",
		"leaves":           "Leaves",
	}
	s.BoolChildren = map[string][]string{
		"leaves": {
			"leaf_density", "leaf_density_exponent", "leaf_level",
			"leaf_vertical_angle", "leaf_curve_angle", "leaf_scale",
		},
	}
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

// Sockets maps parameter names onto geometry node-graph input socket
// identifiers. Hosts apply an interpreted ParameterSet by writing each value
// to its socket.
func Sockets() map[string]string {
	return map[string]string{
		"trunk_length":          "Socket_3",
		"branch_length_1":       "Socket_4",
		"branch_length_2":       "Socket_5",
		"branch_length_3":       "Socket_6",
		"branch_length_4":       "Socket_7",
		"branch_length_5":       "Socket_8",
		"trunk_resolution":      "Socket_9",
		"branch_resolution_1":   "Socket_10",
		"branch_resolution_2":   "Socket_11",
		"branch_resolution_3":   "Socket_12",
		"branch_resolution_4":   "Socket_13",
		"branch_resolution_5":   "Socket_14",
		"branch_angle_1":        "Socket_23",
		"branch_angle_2":        "Socket_24",
		"branch_angle_3":        "Socket_25",
		"branch_angle_4":        "Socket_26",
		"branch_angle_5":        "Socket_27",
		"trunk_radius":          "Socket_36",
		"leaves":                "Socket_42",
		"leaf_density":          "Socket_44",
		"leaf_density_exponent": "Socket_45",
		"leaf_level":            "Socket_46",
		"leaf_vertical_angle":   "Socket_47",
		"leaf_curve_angle":      "Socket_48",
		"leaf_scale":            "Socket_49",
	}
}

// Examples returns few-shot pairs nudging the model toward sane parameter
// spreads. Built from the schema defaults with curated deviations so the
// JSON stays in range by construction.
func Examples() []dendrite.Example {
	schema := Schema()

	tall := schema.Defaults()
	tall["trunk_length"] = 12.0
	tall["branch_length_1"] = 2.0
	tall["branch_angle_1"] = 1.2
	tall["leaf_density"] = 80.0
	tall["leaf_level"] = 5

	squat := schema.Defaults()
	squat["trunk_length"] = 2.0
	squat["branch_length_1"] = 4.0
	squat["branch_angle_1"] = 0.3
	squat["trunk_radius"] = 0.6
	squat["leaf_density"] = 350.0
	squat["leaf_scale"] = 1.4

	bare := schema.Defaults()
	bare["leaves"] = false
	bare["branch_angle_1"] = -0.5
	bare["branch_resolution_1"] = 12

	return []dendrite.Example{
		{Prompt: "a tall slender poplar with sparse high leaves", Params: mustJSON(tall)},
		{Prompt: "a squat dense orchard tree with a thick trunk", Params: mustJSON(squat)},
		{Prompt: "a dead tree, bare drooping branches, no leaves", Params: mustJSON(bare)},
	}
}

func mustJSON(p dendrite.ParameterSet) string {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return string(b)
}
