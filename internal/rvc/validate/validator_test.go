package validate

import (
	"testing"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

type fakeResolver map[string]entity.Descriptor

func (f fakeResolver) Describe(id string) (entity.Descriptor, bool) {
	d, ok := f[id]
	return d, ok
}

type fakeRate struct{ result RateResult }

func (f fakeRate) Admit(string, time.Time) RateResult { return f.result }

func lightEntity() fakeResolver {
	return fakeResolver{
		"light_ceiling": {EntityID: "light_ceiling", Kind: entity.KindLight},
		"climate_zone0": {EntityID: "climate_zone0", Kind: entity.KindClimate},
		"switch_pump":   {EntityID: "switch_pump", Kind: entity.KindSwitch},
	}
}

func TestValidateLightStateOK(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	cmd := RawCommand{EntityID: "light_ceiling", Family: FamilyLight, Action: ActionState, HasAction: true, Value: "on"}
	norm, err := v.Validate(cmd)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if norm.Value != "ON" {
		t.Errorf("Value = %v, want ON", norm.Value)
	}
}

func TestValidateMissingAction(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "light_ceiling", Family: FamilyLight, Value: "ON"})
	assertCode(t, err, CodeMissingAction)
}

func TestValidateUnknownEntity(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "nope", Family: FamilyLight, Action: ActionState, HasAction: true, Value: "ON"})
	assertCode(t, err, CodeUnknownEntity)
}

func TestValidateWrongFamily(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "climate_zone0", Family: FamilyLight, Action: ActionState, HasAction: true, Value: "ON"})
	assertCode(t, err, CodeWrongFamily)
}

// TestValidateBrightnessOutOfRange reproduces scenario S6: brightness 150
// is rejected with E014 and never reaches the codec.
func TestValidateBrightnessOutOfRange(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "light_ceiling", Family: FamilyLight, Action: ActionBrightness, HasAction: true, Value: 150})
	assertCode(t, err, CodeAboveMaximum)
}

func TestValidateClimateModeAuto(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	norm, err := v.Validate(RawCommand{EntityID: "climate_zone0", Family: FamilyClimate, Action: ActionMode, HasAction: true, Value: "AUTO"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if norm.Value != "auto" {
		t.Errorf("Value = %v, want auto", norm.Value)
	}
}

func TestValidateDenylist(t *testing.T) {
	policy := PolicyConfig{Denylist: map[string]bool{"switch_pump": true}}
	v := New(lightEntity(), policy, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "switch_pump", Family: FamilySwitch, Value: "ON"})
	assertCode(t, err, CodeDenylisted)
}

func TestValidateAllowlist(t *testing.T) {
	policy := PolicyConfig{Allowlist: map[string]bool{"light_ceiling": true}}
	v := New(lightEntity(), policy, fakeRate{result: RateAdmitted}, nil)
	_, err := v.Validate(RawCommand{EntityID: "switch_pump", Family: FamilySwitch, Value: "ON"})
	assertCode(t, err, CodeNotAllowlisted)
}

func TestValidateRateRejection(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateRejectedCooldown}, nil)
	_, err := v.Validate(RawCommand{EntityID: "switch_pump", Family: FamilySwitch, Value: "ON"})
	assertCode(t, err, CodeCooldownActive)
}

func TestValidateSwitchDefaultsAction(t *testing.T) {
	v := New(lightEntity(), PolicyConfig{}, fakeRate{result: RateAdmitted}, nil)
	norm, err := v.Validate(RawCommand{EntityID: "switch_pump", Family: FamilySwitch, Value: "off"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if norm.Action != ActionState {
		t.Errorf("Action = %v, want state", norm.Action)
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	ve, ok := err.(*Error)
	if !ok {
		t.Fatalf("got %v (%T), want *Error", err, err)
	}
	if ve.Code != code {
		t.Errorf("code = %s, want %s", ve.Code, code)
	}
}
