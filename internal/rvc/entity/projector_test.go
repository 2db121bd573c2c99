package entity

import (
	"testing"

	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
)

func u8(v uint8) *uint8 { return &v }

func TestProjectSensor(t *testing.T) {
	p := NewProjector([]Descriptor{
		{EntityID: "tank_fresh_0", Kind: KindSensor, SourceMessage: "TANK_STATUS", SourceInstance: u8(0), SignalField: "relative_level"},
	})

	events := p.Project(frame.Decoded{
		Name:     "TANK_STATUS",
		Instance: 0,
		Signals: map[string]frame.Value{
			"relative_level": {Kind: frame.ValueFloat, Float: 75},
		},
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].EntityID != "tank_fresh_0" || events[0].Value != 75.0 {
		t.Errorf("got %+v", events[0])
	}
}

func TestProjectLightWithBrightness(t *testing.T) {
	p := NewProjector([]Descriptor{
		{EntityID: "light_ceiling", Kind: KindLight, SourceMessage: "DC_DIMMER_STATUS", SourceInstance: u8(1), SignalField: "level", SupportsBrightness: true},
	})

	events := p.Project(frame.Decoded{
		Name:     "DC_DIMMER_STATUS",
		Instance: 1,
		Signals: map[string]frame.Value{
			"level": {Kind: frame.ValueInteger, Int: 100},
		},
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ls, ok := events[0].Value.(LightState)
	if !ok {
		t.Fatalf("value is %T, want LightState", events[0].Value)
	}
	if ls.State != "ON" || ls.Brightness != 50 {
		t.Errorf("got %+v, want ON/50", ls)
	}
}

func TestProjectBinarySensorLabels(t *testing.T) {
	p := NewProjector([]Descriptor{
		{EntityID: "door_main", Kind: KindBinarySensor, SourceMessage: "DOOR_STATUS", SourceInstance: nil, SignalField: "state", OnLabel: "open", OffLabel: "closed"},
	})

	open := p.Project(frame.Decoded{Name: "DOOR_STATUS", Instance: 5, Signals: map[string]frame.Value{
		"state": {Kind: frame.ValueEnum, Label: "open"},
	}})
	if len(open) != 1 || open[0].Value != "ON" {
		t.Fatalf("got %+v, want ON", open)
	}

	closed := p.Project(frame.Decoded{Name: "DOOR_STATUS", Instance: 5, Signals: map[string]frame.Value{
		"state": {Kind: frame.ValueEnum, Label: "closed"},
	}})
	if len(closed) != 1 || closed[0].Value != "OFF" {
		t.Fatalf("got %+v, want OFF", closed)
	}
}

func TestProjectClimateChannels(t *testing.T) {
	p := NewProjector([]Descriptor{
		{
			EntityID: "climate_zone0", Kind: KindClimate, SourceMessage: "THERMOSTAT_STATUS", SourceInstance: u8(0),
			Climate: &ClimateChannels{
				ModeField:                "mode",
				CurrentTemperatureField:  "current_temp",
				SetpointTemperatureField: "setpoint_temp",
				FanModeField:             "fan_mode",
			},
		},
	})

	events := p.Project(frame.Decoded{
		Name:     "THERMOSTAT_STATUS",
		Instance: 0,
		Signals: map[string]frame.Value{
			"mode":          {Kind: frame.ValueEnum, Label: "cool"},
			"current_temp":  {Kind: frame.ValueFloat, Float: 72.5},
			"setpoint_temp": {Kind: frame.ValueFloat, Float: 70.0},
			"fan_mode":      {Kind: frame.ValueEnum, Label: "auto"},
		},
	})

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	channels := map[string]any{}
	for _, ev := range events {
		channels[ev.Channel] = ev.Value
	}
	if channels[ChannelMode] != "cool" || channels[ChannelCurrentTemperature] != 72.5 ||
		channels[ChannelSetpointTemperature] != 70.0 || channels[ChannelFanMode] != "auto" {
		t.Errorf("got %+v", channels)
	}
}

func TestDescribeUnknownEntity(t *testing.T) {
	p := NewProjector(nil)
	if _, ok := p.Describe("missing"); ok {
		t.Error("expected Describe to report not found")
	}
}
