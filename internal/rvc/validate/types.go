// Package validate implements the Command Validator: five ordered stages
// (schema, entity, range, policy, rate) that turn a raw candidate command
// into either a NormalizedCommand or a coded ValidatorError. The first
// failing stage short-circuits the remaining stages.
package validate

import "time"

// Family identifies the device family a command targets.
type Family string

const (
	FamilyLight   Family = "light"
	FamilyClimate Family = "climate"
	FamilySwitch  Family = "switch"
)

// Action identifies which of a family's controllable actions a command
// addresses.
type Action string

const (
	ActionState       Action = "state"
	ActionBrightness  Action = "brightness"
	ActionMode        Action = "mode"
	ActionTemperature Action = "temperature"
	ActionFanMode     Action = "fan_mode"
)

// RawCommand is the Subscriber-channel record the validator consumes,
// corresponding to spec.md §6's CandidateCommand.
type RawCommand struct {
	EntityID  string
	Family    Family
	Action    Action
	HasAction bool
	Value     any
}

// NormalizedCommand is the validator's successful output: a command whose
// shape, entity, range, and policy have all been confirmed, ready for the
// Command Codec.
type NormalizedCommand struct {
	EntityID     string
	Family       Family
	Action       Action
	Value        any
	EnqueuedAt   time.Time
}
