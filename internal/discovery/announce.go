// Package discovery formats the bridge's entity descriptors into the
// announcement payload an auto-configuring home-automation integration
// consumes.
package discovery

import (
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

// Message is the discovery announcement, grounded on the teacher's
// internal/bridges/knx.DiscoveryMessage shape.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Bridge    string    `json:"bridge"`
	Entities  []Entity  `json:"entities"`
}

// Entity describes one discovered home-automation entity, grounded on
// the teacher's internal/bridges/knx.DiscoveredDevice shape but keyed by
// RV-C entity ID rather than a KNX group address.
type Entity struct {
	EntityID      string   `json:"entity_id"`
	Kind          string   `json:"kind"`
	Capabilities  []string `json:"capabilities"`
	SuggestedName string   `json:"suggested_name,omitempty"`
}

// Build renders descriptors into a discovery Message for bridge
// identified by bridgeID.
func Build(bridgeID string, descriptors []entity.Descriptor) Message {
	entities := make([]Entity, 0, len(descriptors))
	for _, d := range descriptors {
		entities = append(entities, Entity{
			EntityID:      d.EntityID,
			Kind:          string(d.Kind),
			Capabilities:  capabilities(d),
			SuggestedName: suggestedName(d),
		})
	}
	return Message{
		Timestamp: time.Now().UTC(),
		Bridge:    bridgeID,
		Entities:  entities,
	}
}

func capabilities(d entity.Descriptor) []string {
	switch d.Kind {
	case entity.KindSensor:
		return []string{"state"}
	case entity.KindBinarySensor:
		return []string{"state"}
	case entity.KindSwitch:
		return []string{"on_off"}
	case entity.KindLight:
		if d.SupportsBrightness {
			return []string{"on_off", "dim"}
		}
		return []string{"on_off"}
	case entity.KindClimate:
		caps := []string{}
		if d.Climate != nil {
			if d.Climate.ModeField != "" {
				caps = append(caps, "mode")
			}
			if d.Climate.CurrentTemperatureField != "" {
				caps = append(caps, "current_temperature")
			}
			if d.Climate.SetpointTemperatureField != "" {
				caps = append(caps, "setpoint_temperature")
			}
			if d.Climate.FanModeField != "" {
				caps = append(caps, "fan_mode")
			}
		}
		return caps
	default:
		return nil
	}
}

func suggestedName(d entity.Descriptor) string {
	if d.DeviceID != "" {
		return d.DeviceID
	}
	return d.EntityID
}
