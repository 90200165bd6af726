// Package profile implements the per-target transform pipeline (spec
// §4.7): combo pre-pass, button remap, SOCD cleaning, stick pipeline,
// trigger behavior, and pressure-table synthesis. Apply is pure: it reads
// a Profile and one frame's raw input and returns an Output, and keeps no
// state between calls.
package profile

import "github.com/padlink/padlink/canonical"

// Output is the profile-transformed frame ready for an output-mode
// encoder to serialize onto the wire.
type Output struct {
	Buttons canonical.Buttons
	LX, LY, RX, RY uint8
	L2, R2 uint8

	HasPressure bool
	Pressure    [12]uint8
}

// RemapAction is what happens to a raw button bit during the remap pass.
type RemapAction uint8

const (
	// ActionPassthrough copies the raw bit to the same output bit.
	ActionPassthrough RemapAction = iota
	// ActionDisabled drops the raw bit entirely.
	ActionDisabled
	// ActionRemap copies the raw bit to a different output bit.
	ActionRemap
	// ActionRemapAnalog sets an output bit AND drives an analog axis to
	// full deflection while the raw bit is held (e.g. L1 -> digital L2
	// press driving the L2 analog axis to 255).
	ActionRemapAnalog
)

// RemapEntry describes what one raw button becomes.
type RemapEntry struct {
	Raw    canonical.Buttons
	Action RemapAction
	Target canonical.Buttons // used by ActionRemap/ActionRemapAnalog
	Axis   int               // canonical.AxisL2 or canonical.AxisR2, for ActionRemapAnalog
}

// ComboEntry is one combo pre-pass rule.
type ComboEntry struct {
	Required  canonical.Buttons
	Ignored   canonical.Buttons // extra bits tolerated when Exclusive
	Exclusive bool
	Output    canonical.Buttons
	Consumes  bool // clear Required from raw once matched
}

// SOCDMode selects how opposing D-pad directions resolve.
type SOCDMode uint8

const (
	// SOCDNeutral cancels both directions of an opposing pair.
	SOCDNeutral SOCDMode = iota
	// SOCDUpPriority favors up over down (fighting-game convention);
	// left/right still cancel to neutral.
	SOCDUpPriority
	// SOCDLastWin is not tracked here (needs history) and degrades to
	// SOCDNeutral; kept as a named value for profile config completeness.
	SOCDLastWin
)

// StickModifier conditions an axis scale on a button being held.
type StickModifier struct {
	When        canonical.Buttons
	ScaleX      float64
	ScaleY      float64
	AppliesToRX bool // false = left stick, true = right stick
}

// StickConfig is the per-stick sensitivity/deadzone pipeline.
type StickConfig struct {
	Deadzone  uint8 // |v-128| below this snaps to 128
	Sensitivity float64
	Modifiers []StickModifier
}

// TriggerMode selects a trigger side's digital/analog behavior.
type TriggerMode uint8

const (
	TriggerPassthrough TriggerMode = iota
	TriggerDigitalOnly
	TriggerAnalogOnly
	TriggerDisabled
)

// TriggerConfig is one trigger side's behavior.
type TriggerConfig struct {
	Mode      TriggerMode
	Threshold uint8 // for TriggerDigitalOnly
	Bit       canonical.Buttons
}

// Profile is the full per-target configuration Apply reads.
type Profile struct {
	Name string

	Combos []ComboEntry
	Remap  []RemapEntry
	SOCD   SOCDMode

	LeftStick  StickConfig
	RightStick StickConfig

	LeftTrigger  TriggerConfig
	RightTrigger TriggerConfig

	// PressureTable maps the 12 pressure-sensitive-button slots to the
	// canonical order: DU, DR, DD, DL, L2, R2, L1, R1, B4, B2, B1, B3.
	PressureTable [12]canonical.Buttons
}

// DefaultPressureOrder is the canonical slot order used by PressureTable.
var DefaultPressureOrder = [12]canonical.Buttons{
	canonical.DU, canonical.DR, canonical.DD, canonical.DL,
	canonical.L2, canonical.R2, canonical.L1, canonical.R1,
	canonical.B4, canonical.B2, canonical.B1, canonical.B3,
}

// Apply runs the full pipeline for one frame.
func Apply(p *Profile, raw canonical.Buttons, analog [6]uint8, hasPressure bool, pressure [12]uint8) Output {
	var out Output

	analogOverride := map[int]uint8{}

	// 1. Combo pre-pass.
	for _, c := range p.Combos {
		if raw&c.Required != c.Required {
			continue
		}
		if c.Exclusive && raw&^(c.Required|c.Ignored) != 0 {
			continue
		}
		out.Buttons |= c.Output
		if c.Consumes {
			raw &^= c.Required
		}
	}

	// 2. Button remap.
	for bit := canonical.Buttons(1); bit != 0 && bit <= canonical.A4; bit <<= 1 {
		if raw&bit == 0 {
			continue
		}
		action, entry := lookupRemap(p.Remap, bit)
		switch action {
		case ActionDisabled:
		case ActionRemap:
			out.Buttons |= entry.Target
		case ActionRemapAnalog:
			out.Buttons |= entry.Target
			analogOverride[entry.Axis] = 255
		default:
			out.Buttons |= bit
		}
	}

	// 3. SOCD cleaning on the accumulated D-pad bits.
	out.Buttons = cleanSOCD(out.Buttons, p.SOCD)

	// 4. Stick pipeline.
	out.LX, out.LY = applyStick(p.LeftStick, analog[canonical.AxisLX], analog[canonical.AxisLY], raw, false)
	out.RX, out.RY = applyStick(p.RightStick, analog[canonical.AxisRX], analog[canonical.AxisRY], raw, true)

	// 5. Trigger behavior.
	out.L2, out.Buttons = applyTrigger(p.LeftTrigger, analog[canonical.AxisL2], out.Buttons, analogOverride[canonical.AxisL2])
	out.R2, out.Buttons = applyTrigger(p.RightTrigger, analog[canonical.AxisR2], out.Buttons, analogOverride[canonical.AxisR2])

	// 6. Pressure table.
	if hasPressure {
		out.HasPressure = true
		order := p.PressureTable
		if order == ([12]canonical.Buttons{}) {
			order = DefaultPressureOrder
		}
		for i, want := range order {
			for j, have := range DefaultPressureOrder {
				if want == have {
					out.Pressure[i] = pressure[j]
				}
			}
		}
	}

	return out
}

func lookupRemap(table []RemapEntry, bit canonical.Buttons) (RemapAction, RemapEntry) {
	for _, e := range table {
		if e.Raw == bit {
			return e.Action, e
		}
	}
	return ActionPassthrough, RemapEntry{}
}

func cleanSOCD(b canonical.Buttons, mode SOCDMode) canonical.Buttons {
	if b.Has(canonical.DL | canonical.DR) {
		b &^= canonical.DL | canonical.DR
	}
	if b.Has(canonical.DU | canonical.DD) {
		switch mode {
		case SOCDUpPriority:
			b &^= canonical.DD
		default:
			b &^= canonical.DU | canonical.DD
		}
	}
	return b
}

func applyStick(cfg StickConfig, x, y uint8, raw canonical.Buttons, isRight bool) (uint8, uint8) {
	sens := cfg.Sensitivity
	if sens == 0 {
		sens = 1
	}
	for _, m := range cfg.Modifiers {
		if m.AppliesToRX != isRight {
			continue
		}
		if raw&m.When == m.When {
			if m.ScaleX != 0 {
				x = scaleAxis(x, m.ScaleX)
			}
			if m.ScaleY != 0 {
				y = scaleAxis(y, m.ScaleY)
			}
		}
	}
	x = scaleAxis(x, sens)
	y = scaleAxis(y, sens)
	return deadzone(x, cfg.Deadzone), deadzone(y, cfg.Deadzone)
}

func scaleAxis(v uint8, scale float64) uint8 {
	if scale == 1 {
		return v
	}
	d := float64(int(v) - 128)
	d *= scale
	out := 128 + int(d)
	if out < 0 {
		out = 0
	}
	if out > 255 {
		out = 255
	}
	return uint8(out)
}

func deadzone(v, dz uint8) uint8 {
	d := int(v) - 128
	if d < 0 {
		d = -d
	}
	if uint8(d) < dz {
		return 128
	}
	return v
}

func applyTrigger(cfg TriggerConfig, raw uint8, buttons canonical.Buttons, override uint8) (uint8, canonical.Buttons) {
	if override > 0 {
		raw = override
	}
	switch cfg.Mode {
	case TriggerDigitalOnly:
		if raw >= cfg.Threshold {
			buttons |= cfg.Bit
		}
		return 0, buttons
	case TriggerAnalogOnly:
		return raw, buttons &^ cfg.Bit
	case TriggerDisabled:
		return 0, buttons &^ cfg.Bit
	default: // passthrough: digital bit already carried by the remap pass
		return raw, buttons
	}
}
