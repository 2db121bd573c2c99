package entity

import (
	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
)

// Projector holds the loaded, read-only (message-name, instance) ->
// descriptor index. Like the Spec Registry, it is built once and never
// mutated, so the read path needs no locking.
type Projector struct {
	exact    map[string]map[uint8][]Descriptor
	wildcard map[string][]Descriptor
	byID     map[string]Descriptor
}

// NewProjector builds the index described by spec.md §4.3: every
// (source_message, source_instance) pair maps to zero or more
// descriptors; a nil SourceInstance matches any instance.
func NewProjector(descriptors []Descriptor) *Projector {
	p := &Projector{
		exact:    make(map[string]map[uint8][]Descriptor),
		wildcard: make(map[string][]Descriptor),
		byID:     make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		p.byID[d.EntityID] = d
		if d.SourceInstance == nil {
			p.wildcard[d.SourceMessage] = append(p.wildcard[d.SourceMessage], d)
			continue
		}
		byInstance, ok := p.exact[d.SourceMessage]
		if !ok {
			byInstance = make(map[uint8][]Descriptor)
			p.exact[d.SourceMessage] = byInstance
		}
		byInstance[*d.SourceInstance] = append(byInstance[*d.SourceInstance], d)
	}
	return p
}

// Lookup returns the descriptors whose (message-name, instance) pair
// matches, merging exact-instance and any-instance registrations.
func (p *Projector) Lookup(message string, instance uint8) []Descriptor {
	var out []Descriptor
	out = append(out, p.exact[message][instance]...)
	out = append(out, p.wildcard[message]...)
	return out
}

// Describe returns the descriptor registered under entityID, if any. Used
// by the Command Validator's entity-resolution stage.
func (p *Projector) Describe(entityID string) (Descriptor, bool) {
	d, ok := p.byID[entityID]
	return d, ok
}

// Descriptors returns every registered descriptor, in no particular order.
// Used to build a discovery announcement at startup.
func (p *Projector) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(p.byID))
	for _, d := range p.byID {
		out = append(out, d)
	}
	return out
}

// Project turns one decoded message into zero or more state events, per
// the kind-specific projection rules of spec.md §4.3. Duplicate
// suppression is not performed here; that is the publisher's concern.
func (p *Projector) Project(dec frame.Decoded) []StateEvent {
	var events []StateEvent
	for _, d := range p.Lookup(dec.Name, dec.Instance) {
		events = append(events, projectOne(d, dec.Signals)...)
	}
	return events
}

func projectOne(d Descriptor, signals map[string]frame.Value) []StateEvent {
	switch d.Kind {
	case KindSensor:
		return projectSensor(d, signals)
	case KindBinarySensor, KindSwitch:
		return projectBinary(d, signals)
	case KindLight:
		return projectLight(d, signals)
	case KindClimate:
		return projectClimate(d, signals)
	default:
		return nil
	}
}

func projectSensor(d Descriptor, signals map[string]frame.Value) []StateEvent {
	if t, ok := lookupTransform(d.Transform); ok {
		val, ok := t(signals)
		if !ok {
			return nil
		}
		return []StateEvent{{EntityID: d.EntityID, Kind: d.Kind, Channel: DefaultChannel, Value: val}}
	}
	v, ok := signals[d.SignalField]
	if !ok || v.Kind == frame.ValueUnavailable {
		return nil
	}
	return []StateEvent{{EntityID: d.EntityID, Kind: d.Kind, Channel: DefaultChannel, Value: sensorScalar(v)}}
}

func sensorScalar(v frame.Value) any {
	switch v.Kind {
	case frame.ValueInteger:
		return v.Int
	case frame.ValueFloat:
		return v.Float
	case frame.ValueBoolean:
		return v.Bool
	case frame.ValueEnum:
		if v.Unknown {
			return v.RawInt
		}
		return v.Label
	default:
		return nil
	}
}

// evalBinaryState implements §4.3's binary_sensor/switch rule: ON if the
// decoded value equals on_label or is a nonzero number; OFF if it equals
// off_label or is zero; otherwise emit nothing.
func evalBinaryState(v frame.Value, d Descriptor) (string, bool) {
	switch v.Kind {
	case frame.ValueEnum:
		if d.OnLabel != "" && v.Label == d.OnLabel {
			return "ON", true
		}
		if d.OffLabel != "" && v.Label == d.OffLabel {
			return "OFF", true
		}
		return "", false
	case frame.ValueBoolean:
		if v.Bool {
			return "ON", true
		}
		return "OFF", true
	case frame.ValueInteger:
		if v.Int != 0 {
			return "ON", true
		}
		return "OFF", true
	case frame.ValueFloat:
		if v.Float != 0 {
			return "ON", true
		}
		return "OFF", true
	default:
		return "", false
	}
}

func projectBinary(d Descriptor, signals map[string]frame.Value) []StateEvent {
	v, ok := signals[d.SignalField]
	if !ok || v.Kind == frame.ValueUnavailable {
		return nil
	}
	state, ok := evalBinaryState(v, d)
	if !ok {
		return nil
	}
	return []StateEvent{{EntityID: d.EntityID, Kind: d.Kind, Channel: DefaultChannel, Value: state}}
}

func projectLight(d Descriptor, signals map[string]frame.Value) []StateEvent {
	v, ok := signals[d.SignalField]
	if !ok || v.Kind == frame.ValueUnavailable {
		return nil
	}
	raw := valueAsFloat(v)
	state := "OFF"
	if raw != 0 {
		state = "ON"
	}
	if !d.SupportsBrightness {
		return []StateEvent{{EntityID: d.EntityID, Kind: d.Kind, Channel: DefaultChannel, Value: state}}
	}
	brightness := int(raw/2 + 0.5) // halve 0..200 to 0..100, round to nearest
	return []StateEvent{{
		EntityID: d.EntityID,
		Kind:     d.Kind,
		Channel:  DefaultChannel,
		Value:    LightState{State: state, Brightness: brightness},
	}}
}

func projectClimate(d Descriptor, signals map[string]frame.Value) []StateEvent {
	if d.Climate == nil {
		return nil
	}
	var events []StateEvent
	add := func(field, channel string) {
		if field == "" {
			return
		}
		v, ok := signals[field]
		if !ok || v.Kind == frame.ValueUnavailable {
			return
		}
		events = append(events, StateEvent{EntityID: d.EntityID, Kind: d.Kind, Channel: channel, Value: sensorScalar(v)})
	}
	add(d.Climate.ModeField, ChannelMode)
	add(d.Climate.CurrentTemperatureField, ChannelCurrentTemperature)
	add(d.Climate.SetpointTemperatureField, ChannelSetpointTemperature)
	add(d.Climate.FanModeField, ChannelFanMode)
	return events
}
