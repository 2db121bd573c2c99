package entity

import (
	"math"

	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
)

// TransformFunc is a pure, total function over a decoded message's signals
// map, producing a scalar. Transforms must not perform I/O or mutate
// state, per the design note that a restricted, closed set of named
// transforms replaces the reference implementation's inline evaluated
// expressions.
type TransformFunc func(signals map[string]frame.Value) (float64, bool)

// transforms is the closed set of named transforms a Descriptor.Transform
// may reference.
var transforms = map[string]TransformFunc{
	// halveRound200 halves an RV-C 0..200 brightness raw value to 0..100,
	// rounding to nearest, per §4.3's light brightness projection rule.
	"halve_round_200": func(signals map[string]frame.Value) (float64, bool) {
		v, ok := signals["level"]
		if !ok || v.Kind == frame.ValueUnavailable {
			return 0, false
		}
		raw := valueAsFloat(v)
		return math.Round(raw / 2), true
	},
}

// lookupTransform resolves a named transform; empty name is not found.
func lookupTransform(name string) (TransformFunc, bool) {
	if name == "" {
		return nil, false
	}
	t, ok := transforms[name]
	return t, ok
}

// valueAsFloat extracts a numeric representation from a decoded Value,
// returning 0 for kinds with no numeric meaning.
func valueAsFloat(v frame.Value) float64 {
	switch v.Kind {
	case frame.ValueInteger:
		return float64(v.Int)
	case frame.ValueFloat:
		return v.Float
	case frame.ValueBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case frame.ValueEnum:
		return float64(v.RawInt)
	default:
		return 0
	}
}
