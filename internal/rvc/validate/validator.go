package validate

import (
	"strings"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

// EntityResolver is the Stage 2 collaborator: resolving an entity_id to
// its descriptor. internal/rvc/entity.Projector satisfies this.
type EntityResolver interface {
	Describe(entityID string) (entity.Descriptor, bool)
}

// RateResult is the outcome of a Stage 5 admission test.
type RateResult int

const (
	RateAdmitted RateResult = iota
	RateRejectedLimit
	RateRejectedCooldown
)

// RateAdmitter is the Stage 5 collaborator: the rate limiter's
// test-and-update admission check. internal/rvc/ratelimit.Limiter
// satisfies this.
type RateAdmitter interface {
	Admit(entityID string, now time.Time) RateResult
}

// PolicyConfig holds the Stage 4 configuration: an optional denylist, an
// optional allowlist (empty means unrestricted), and an optional
// allowed-families set (empty means unrestricted).
type PolicyConfig struct {
	Denylist        map[string]bool
	Allowlist       map[string]bool
	AllowedFamilies map[Family]bool
}

// Validator runs the five ordered stages of spec.md §4.4.
type Validator struct {
	entities EntityResolver
	policy   PolicyConfig
	rate     RateAdmitter
	now      func() time.Time
}

// New builds a Validator. now defaults to time.Now when nil, overridable
// for deterministic tests of the rate stage.
func New(entities EntityResolver, policy PolicyConfig, rate RateAdmitter, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{entities: entities, policy: policy, rate: rate, now: now}
}

// familyRequiresAction reports whether family has more than one
// controllable action, per the invariant "action is present iff the
// family has multiple actions".
func familyRequiresAction(f Family) bool {
	return f == FamilyLight || f == FamilyClimate
}

// kindMatchesFamily maps an entity's projector Kind to the command family
// it accepts.
func kindMatchesFamily(k entity.Kind, f Family) bool {
	switch f {
	case FamilyLight:
		return k == entity.KindLight
	case FamilyClimate:
		return k == entity.KindClimate
	case FamilySwitch:
		return k == entity.KindSwitch
	default:
		return false
	}
}

// Validate runs all five stages in order, returning the first failure.
func (v *Validator) Validate(cmd RawCommand) (NormalizedCommand, error) {
	if err := v.stage1Schema(&cmd); err != nil {
		return NormalizedCommand{}, err
	}
	desc, err := v.stage2Entity(cmd)
	if err != nil {
		return NormalizedCommand{}, err
	}
	value, err := v.stage3Range(cmd, desc)
	if err != nil {
		return NormalizedCommand{}, err
	}
	if err := v.stage4Policy(cmd); err != nil {
		return NormalizedCommand{}, err
	}
	if err := v.stage5Rate(cmd); err != nil {
		return NormalizedCommand{}, err
	}
	return NormalizedCommand{
		EntityID:   cmd.EntityID,
		Family:     cmd.Family,
		Action:     cmd.Action,
		Value:      value,
		EnqueuedAt: v.now(),
	}, nil
}

func (v *Validator) stage1Schema(cmd *RawCommand) error {
	if cmd.EntityID == "" {
		return newError(CodeMissingField, "entity_id is required")
	}
	if cmd.Family == "" {
		return newError(CodeMissingField, "family is required")
	}
	if familyRequiresAction(cmd.Family) {
		if !cmd.HasAction {
			return newError(CodeMissingAction, "family %q requires an action", cmd.Family)
		}
	} else if !cmd.HasAction {
		cmd.Action = ActionState
		cmd.HasAction = true
	}
	if cmd.Value == nil {
		return newError(CodeMissingField, "value is required")
	}
	return nil
}

func (v *Validator) stage2Entity(cmd RawCommand) (entity.Descriptor, error) {
	desc, ok := v.entities.Describe(cmd.EntityID)
	if !ok {
		return entity.Descriptor{}, newError(CodeUnknownEntity, "unknown entity %q", cmd.EntityID)
	}
	if !kindMatchesFamily(desc.Kind, cmd.Family) {
		return entity.Descriptor{}, newError(CodeWrongFamily, "entity %q is kind %q, not family %q", cmd.EntityID, desc.Kind, cmd.Family)
	}
	return desc, nil
}

func (v *Validator) stage3Range(cmd RawCommand, _ entity.Descriptor) (any, error) {
	switch {
	case cmd.Family == FamilyLight && cmd.Action == ActionState:
		return onOffValue(cmd.Value)
	case cmd.Family == FamilyLight && cmd.Action == ActionBrightness:
		return intRangeValue(cmd.Value, 0, 100)
	case cmd.Family == FamilyClimate && cmd.Action == ActionMode:
		return enumValue(cmd.Value, "off", "heat", "cool", "auto")
	case cmd.Family == FamilyClimate && cmd.Action == ActionTemperature:
		return floatRangeValue(cmd.Value, 50.0, 100.0)
	case cmd.Family == FamilyClimate && cmd.Action == ActionFanMode:
		return enumValue(cmd.Value, "auto", "low", "high")
	case cmd.Family == FamilySwitch && cmd.Action == ActionState:
		return onOffValue(cmd.Value)
	default:
		return nil, newError(CodeWrongFamily, "no range rule for family %q action %q", cmd.Family, cmd.Action)
	}
}

func (v *Validator) stage4Policy(cmd RawCommand) error {
	if v.policy.Denylist[cmd.EntityID] {
		return newError(CodeDenylisted, "entity %q is denylisted", cmd.EntityID)
	}
	if len(v.policy.Allowlist) > 0 && !v.policy.Allowlist[cmd.EntityID] {
		return newError(CodeNotAllowlisted, "entity %q is not allowlisted", cmd.EntityID)
	}
	if len(v.policy.AllowedFamilies) > 0 && !v.policy.AllowedFamilies[cmd.Family] {
		return newError(CodeFamilyNotAllowed, "family %q is not allowed", cmd.Family)
	}
	return nil
}

func (v *Validator) stage5Rate(cmd RawCommand) error {
	if v.rate == nil {
		return nil
	}
	switch v.rate.Admit(cmd.EntityID, v.now()) {
	case RateAdmitted:
		return nil
	case RateRejectedCooldown:
		return newError(CodeCooldownActive, "entity %q cooldown not elapsed", cmd.EntityID)
	default:
		return newError(CodeRateExceeded, "rate limit exceeded for entity %q", cmd.EntityID)
	}
}

// --- Stage 3 helpers ---

func onOffValue(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", newError(CodeWrongType, "expected string, got %T", v)
	}
	upper := strings.ToUpper(s)
	if upper != "ON" && upper != "OFF" {
		return "", newError(CodeNotEnumerated, "value %q is not ON or OFF", s)
	}
	return upper, nil
}

func enumValue(v any, allowed ...string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", newError(CodeWrongType, "expected string, got %T", v)
	}
	lower := strings.ToLower(s)
	for _, a := range allowed {
		if lower == a {
			return lower, nil
		}
	}
	return "", newError(CodeNotEnumerated, "value %q not in %v", s, allowed)
}

func intRangeValue(v any, min, max int) (int, error) {
	f, ok := asNumber(v)
	if !ok {
		return 0, newError(CodeWrongType, "expected integer, got %T", v)
	}
	n := int(f)
	if float64(n) != f {
		return 0, newError(CodeWrongType, "expected integer, got fractional value %v", f)
	}
	if n < min {
		return 0, newError(CodeBelowMinimum, "value %d below minimum %d", n, min)
	}
	if n > max {
		return 0, newError(CodeAboveMaximum, "value %d above maximum %d", n, max)
	}
	return n, nil
}

func floatRangeValue(v any, min, max float64) (float64, error) {
	f, ok := asNumber(v)
	if !ok {
		return 0, newError(CodeWrongType, "expected number, got %T", v)
	}
	if f < min {
		return 0, newError(CodeBelowMinimum, "value %v below minimum %v", f, min)
	}
	if f > max {
		return 0, newError(CodeAboveMaximum, "value %v above maximum %v", f, max)
	}
	return f, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
