package discovery

import (
	"testing"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

func TestBuildLightWithBrightness(t *testing.T) {
	msg := Build("rvc-bridge-1", []entity.Descriptor{
		{EntityID: "light_ceiling", Kind: entity.KindLight, SupportsBrightness: true},
	})

	if msg.Bridge != "rvc-bridge-1" {
		t.Errorf("Bridge = %q, want rvc-bridge-1", msg.Bridge)
	}
	if len(msg.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(msg.Entities))
	}
	got := msg.Entities[0]
	if got.EntityID != "light_ceiling" || got.Kind != "light" {
		t.Errorf("entity = %+v", got)
	}
	if len(got.Capabilities) != 2 || got.Capabilities[0] != "on_off" || got.Capabilities[1] != "dim" {
		t.Errorf("Capabilities = %v, want [on_off dim]", got.Capabilities)
	}
}

func TestBuildLightWithoutBrightness(t *testing.T) {
	msg := Build("rvc-bridge-1", []entity.Descriptor{
		{EntityID: "light_porch", Kind: entity.KindLight},
	})
	caps := msg.Entities[0].Capabilities
	if len(caps) != 1 || caps[0] != "on_off" {
		t.Errorf("Capabilities = %v, want [on_off]", caps)
	}
}

func TestBuildClimateCapabilities(t *testing.T) {
	msg := Build("rvc-bridge-1", []entity.Descriptor{
		{
			EntityID: "thermostat_main",
			Kind:     entity.KindClimate,
			Climate: &entity.ClimateChannels{
				ModeField:                "mode",
				CurrentTemperatureField:  "current_temp",
				SetpointTemperatureField: "setpoint_temp",
			},
		},
	})
	caps := msg.Entities[0].Capabilities
	want := []string{"mode", "current_temperature", "setpoint_temperature"}
	if len(caps) != len(want) {
		t.Fatalf("Capabilities = %v, want %v", caps, want)
	}
	for i := range want {
		if caps[i] != want[i] {
			t.Errorf("Capabilities = %v, want %v", caps, want)
		}
	}
}

func TestSuggestedNamePrefersDeviceID(t *testing.T) {
	msg := Build("rvc-bridge-1", []entity.Descriptor{
		{EntityID: "tank_fresh_0", Kind: entity.KindSensor, DeviceID: "Fresh Water Tank"},
	})
	if got := msg.Entities[0].SuggestedName; got != "Fresh Water Tank" {
		t.Errorf("SuggestedName = %q, want %q", got, "Fresh Water Tank")
	}
}

func TestSuggestedNameFallsBackToEntityID(t *testing.T) {
	msg := Build("rvc-bridge-1", []entity.Descriptor{
		{EntityID: "tank_fresh_0", Kind: entity.KindSensor},
	})
	if got := msg.Entities[0].SuggestedName; got != "tank_fresh_0" {
		t.Errorf("SuggestedName = %q, want %q", got, "tank_fresh_0")
	}
}
