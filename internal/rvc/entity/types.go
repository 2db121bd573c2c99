// Package entity implements the Entity Projector: translating a decoded
// RV-C message into zero or more home-automation entity state updates,
// via a configured (message-name, instance) -> entity descriptor index.
package entity

// Kind is the home-automation entity category a descriptor projects to.
type Kind string

const (
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
	KindLight        Kind = "light"
	KindClimate      Kind = "climate"
	KindSwitch       Kind = "switch"
)

// DefaultChannel is the single channel used by every kind except climate.
const DefaultChannel = "state"

// Climate channel names, per spec.md §6.
const (
	ChannelMode               = "mode"
	ChannelCurrentTemperature = "current_temperature"
	ChannelSetpointTemperature = "setpoint_temperature"
	ChannelFanMode            = "fan_mode"
)

// ClimateChannels names the signal field feeding each of a climate
// entity's four independent sub-states. A zero-value field is not
// published.
type ClimateChannels struct {
	ModeField                string `yaml:"mode_field"`
	CurrentTemperatureField  string `yaml:"current_temperature_field"`
	SetpointTemperatureField string `yaml:"setpoint_temperature_field"`
	FanModeField             string `yaml:"fan_mode_field"`
}

// Range is an inclusive numeric bound, loaded from the mapping file for
// sensors; the discovery announcement does not include it.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Descriptor configures the projection of one entity out of a decoded RV-C
// message. SourceInstance of nil matches any instance of SourceMessage.
type Descriptor struct {
	EntityID       string
	Kind           Kind
	SourceMessage  string
	SourceInstance *uint8
	SignalField    string
	// Transform names a registered pure transform (see transform.go)
	// applied to the decoded signals map in place of SignalField's raw
	// value. Empty means no transform. Only sensor descriptors apply it;
	// an unregistered name falls back to SignalField.
	Transform string

	DeviceID string

	OnLabel  string
	OffLabel string

	AllowedRange  *Range
	AllowedValues []string

	SupportsBrightness bool
	Climate            *ClimateChannels
}

// LightState is the value carried by a StateEvent for a light entity that
// supports brightness.
type LightState struct {
	State      string
	Brightness int
}

// StateEvent is the Publisher-channel record the core emits on a
// successful projection; the broker-side glue (external) converts each to
// a topic/payload pair.
type StateEvent struct {
	EntityID string
	Kind     Kind
	Channel  string
	Value    any
}
