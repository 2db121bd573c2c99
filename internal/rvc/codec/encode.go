package codec

import (
	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
)

// Encode dispatches a validated, normalized command to the appropriate
// device-family encoder. currentMode supplies the thermostat's last known
// operating mode for fan-mode encoding context; it is ignored for every
// other family/action.
func Encode(cmd validate.NormalizedCommand, target Target, currentMode string) (Sequence, error) {
	switch cmd.Family {
	case validate.FamilyLight:
		return encodeLight(cmd, target)
	case validate.FamilySwitch:
		return encodeSwitch(cmd, target)
	case validate.FamilyClimate:
		return encodeClimate(cmd, target, currentMode)
	default:
		return nil, newError("unsupported family %q", cmd.Family)
	}
}

func encodeLight(cmd validate.NormalizedCommand, target Target) (Sequence, error) {
	switch cmd.Action {
	case validate.ActionState:
		on, err := onOff(cmd.Value)
		if err != nil {
			return nil, err
		}
		return EncodeLightState(target, on), nil
	case validate.ActionBrightness:
		pct, ok := cmd.Value.(int)
		if !ok {
			return nil, newError("light brightness value is %T, want int", cmd.Value)
		}
		return EncodeLightBrightness(target, pct), nil
	default:
		return nil, newError("light has no encoding for action %q", cmd.Action)
	}
}

func encodeSwitch(cmd validate.NormalizedCommand, target Target) (Sequence, error) {
	if cmd.Action != validate.ActionState {
		return nil, newError("switch has no encoding for action %q", cmd.Action)
	}
	on, err := onOff(cmd.Value)
	if err != nil {
		return nil, err
	}
	return EncodeSwitchState(target, on), nil
}

func encodeClimate(cmd validate.NormalizedCommand, target Target, currentMode string) (Sequence, error) {
	switch cmd.Action {
	case validate.ActionMode:
		mode, ok := cmd.Value.(string)
		if !ok {
			return nil, newError("climate mode value is %T, want string", cmd.Value)
		}
		return EncodeClimateMode(target.Instance, mode)
	case validate.ActionFanMode:
		fanMode, ok := cmd.Value.(string)
		if !ok {
			return nil, newError("climate fan_mode value is %T, want string", cmd.Value)
		}
		return EncodeClimateFanMode(target.Instance, fanMode, currentMode)
	case validate.ActionTemperature:
		f, ok := asFloat(cmd.Value)
		if !ok {
			return nil, newError("climate temperature value is %T, want number", cmd.Value)
		}
		return EncodeClimateTemperature(target.Instance, f), nil
	default:
		return nil, newError("climate has no encoding for action %q", cmd.Action)
	}
}

func onOff(v any) (bool, error) {
	s, ok := v.(string)
	if !ok {
		return false, newError("state value is %T, want string", v)
	}
	return s == "ON", nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
