// Package wiimote drives a bare Wiimote over BT Classic (spec §4.3.5):
// core buttons in reports 0x30-0x37, hot-swappable extensions detected
// from the extension-ID read response, and orientation handling when no
// extension is attached (vertical "pointing" vs horizontal "NES-style"
// hold, with hysteresis on the X accelerometer).
package wiimote

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/hotkey"
)

// Extension identifies the currently attached Wiimote extension.
type Extension uint8

const (
	ExtNone Extension = iota
	ExtNunchuk
	ExtClassic
	ExtClassicMini // NES/SNES Classic Mini, digital only
	ExtGuitar
	ExtWiiUPro
)

// OrientMode selects how a bare Wiimote (no extension) is held.
type OrientMode uint8

const (
	OrientAuto OrientMode = iota
	OrientForcedHorizontal
	OrientForcedVertical
)

const (
	horizontalEnterThreshold = 20
	horizontalExitThreshold  = 12

	// orientHoldMs is how long S2 plus a D-pad direction must be held
	// before it cycles the orientation, per spec §4.3.5's hotkey combo.
	orientHoldMs = 600
)

type state struct {
	ext           Extension
	orientMode    OrientMode
	horizontal    bool
	lastStatusExt bool

	lastCore canonical.Buttons
	hotkeys  *hotkey.Detector

	idxForceVertical   int
	idxForceHorizontal int
}

// Driver implements driver.Driver for a bare Wiimote.
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return "wiimote" }

func (d *Driver) Match(m driver.Match) bool { return m.Name == "wiimote" }

func (d *Driver) Init(c *driver.Connection) bool {
	st := &state{orientMode: OrientAuto, hotkeys: hotkey.NewDetector()}
	st.idxForceVertical = st.hotkeys.Register(hotkey.Def{
		Name: "wiimote-orient-vertical", Buttons: canonical.S2 | canonical.DU,
		Trigger: hotkey.OnHold, DurationMs: orientHoldMs,
	})
	st.idxForceHorizontal = st.hotkeys.Register(hotkey.Def{
		Name: "wiimote-orient-horizontal", Buttons: canonical.S2 | canonical.DD,
		Trigger: hotkey.OnHold, DurationMs: orientHoldMs,
	})
	c.State = st
	return true
}

// SetOrientationMode forces (or releases, via OrientAuto) how a bare
// Wiimote's D-pad is read. Called by the orientation-cycle hotkey combo in
// Task, and available directly for callers that drive orientation some
// other way (a UI toggle, a saved profile default).
func (d *Driver) SetOrientationMode(c *driver.Connection, mode OrientMode) {
	if st, ok := c.State.(*state); ok {
		st.orientMode = mode
	}
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	st, ok := c.State.(*state)
	if !ok || len(data) == 0 {
		return
	}

	switch {
	case data[0] == 0x20: // status report
		hasExt := len(data) > 3 && data[3]&0x02 != 0
		if hasExt && !st.lastStatusExt {
			// Extension attached: re-probe identifier via read-response
			// handling below (handled when report 0x21 arrives).
		}
		if !hasExt {
			st.ext = ExtNone
		}
		st.lastStatusExt = hasExt
		return
	case data[0] == 0x21: // read-memory response, used for ext ID probe
		if len(data) >= 15 {
			st.ext = identifyExtension(data[8:12])
		}
		return
	case data[0] < 0x30 || data[0] > 0x37:
		return
	}

	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	if len(data) < 3 {
		return
	}
	b1, b2 := data[1], data[2]

	var accelX uint8
	if len(data) >= 6 {
		accelX = data[3]
	}
	updateOrientation(st, accelX)

	core := decodeCoreButtons(b1, b2)
	st.lastCore = core // pre-rotation: the hotkey combo is physical, not orientation-relative
	if st.orientMode == OrientForcedHorizontal || (st.orientMode == OrientAuto && st.horizontal) {
		core = rotateHorizontal(core)
	}
	ev.Buttons |= core

	switch st.ext {
	case ExtNunchuk:
		decodeNunchuk(data, &ev)
	case ExtClassic, ExtClassicMini:
		decodeClassic(data, &ev, st.ext == ExtClassicMini)
	}

	if c.Submit != nil {
		c.Submit(ev)
	}
}

// Task drives the orientation-cycle hotkey combo: S2 held with a D-pad
// direction for orientHoldMs forces the corresponding orientation. It runs
// off the raw buttons ProcessReport last saw, since reports arrive on their
// own schedule and carry no tick clock of their own.
func (d *Driver) Task(c *driver.Connection, now time.Time) {
	st, ok := c.State.(*state)
	if !ok || st.hotkeys == nil {
		return
	}
	st.hotkeys.Check(0, st.lastCore, 0, now, func(idx, player int, def hotkey.Def) {
		switch idx {
		case st.idxForceVertical:
			d.SetOrientationMode(c, OrientForcedVertical)
		case st.idxForceHorizontal:
			d.SetOrientationMode(c, OrientForcedHorizontal)
		}
	})
}

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}

func identifyExtension(id []byte) Extension {
	switch {
	case len(id) >= 4 && id[0] == 0xA4 && id[1] == 0x20 && id[2] == 0x00 && id[3] == 0x00:
		return ExtNunchuk
	case len(id) >= 4 && id[0] == 0xA4 && id[1] == 0x20 && id[2] == 0x01 && id[3] == 0x01:
		return ExtClassic
	case len(id) >= 4 && id[0] == 0xA4 && id[1] == 0x20 && id[2] == 0x01 && id[3] == 0x03:
		return ExtGuitar
	case len(id) >= 4 && id[0] == 0xA4 && id[1] == 0x20 && id[2] == 0x01 && id[3] == 0x20:
		return ExtWiiUPro
	default:
		return ExtNone
	}
}

func decodeCoreButtons(b1, b2 uint8) canonical.Buttons {
	var out canonical.Buttons
	if b1&0x01 != 0 {
		out |= canonical.DL
	}
	if b1&0x02 != 0 {
		out |= canonical.DR
	}
	if b1&0x04 != 0 {
		out |= canonical.DD
	}
	if b1&0x08 != 0 {
		out |= canonical.DU
	}
	if b1&0x10 != 0 {
		out |= canonical.S2 // Plus
	}
	if b2&0x01 != 0 {
		out |= canonical.B4 // Two
	}
	if b2&0x02 != 0 {
		out |= canonical.B3 // One
	}
	if b2&0x04 != 0 {
		out |= canonical.S1 // Minus
	}
	if b2&0x08 != 0 {
		out |= canonical.A2 // Home (extra slot)
	}
	return out
}

func rotateHorizontal(b canonical.Buttons) canonical.Buttons {
	var out canonical.Buttons
	if b.Has(canonical.DU) {
		out |= canonical.DL
	}
	if b.Has(canonical.DL) {
		out |= canonical.DD
	}
	if b.Has(canonical.DD) {
		out |= canonical.DR
	}
	if b.Has(canonical.DR) {
		out |= canonical.DU
	}
	out |= b &^ (canonical.DU | canonical.DR | canonical.DD | canonical.DL)
	if b.Has(canonical.B3) {
		out = (out &^ canonical.B3) | canonical.B4
	}
	if b.Has(canonical.B4) {
		out = (out &^ canonical.B4) | canonical.B3
	}
	return out
}

func updateOrientation(st *state, accelX uint8) {
	if st.orientMode != OrientAuto {
		return
	}
	d := int(accelX) - 128
	if d < 0 {
		d = -d
	}
	if !st.horizontal && d >= horizontalEnterThreshold {
		st.horizontal = true
	} else if st.horizontal && d < horizontalExitThreshold {
		st.horizontal = false
	}
}

func decodeNunchuk(data []byte, ev *canonical.Event) {
	if len(data) < 11 {
		return
	}
	ev.Analog[canonical.AxisRX] = canonical.ClampStick(data[6])
	ev.Analog[canonical.AxisRY] = canonical.ClampStick(255 - data[7])
	flags := ^data[10]
	if flags&0x02 != 0 {
		ev.Buttons |= canonical.R1 // Nunchuk C
	}
	if flags&0x01 != 0 {
		ev.Buttons |= canonical.R2 // Nunchuk Z
	}
}

func decodeClassic(data []byte, ev *canonical.Event, digitalOnly bool) {
	if len(data) < 11 {
		return
	}
	if digitalOnly {
		b := ^(uint16(data[9]) | uint16(data[8])<<8)
		if b&(1<<0) != 0 {
			ev.Buttons |= canonical.R1
		}
		if b&(1<<1) != 0 {
			ev.Buttons |= canonical.B2
		}
		if b&(1<<4) != 0 {
			ev.Buttons |= canonical.L1
		}
		if b&(1<<9) != 0 {
			ev.Buttons |= canonical.B1
		}
		return
	}
	lx := data[6] & 0x3F
	ly := data[7] & 0x3F
	ev.Analog[canonical.AxisLX] = canonical.ClampStick(uint8(int(lx) * 255 / 63))
	ev.Analog[canonical.AxisLY] = canonical.ClampStick(255 - uint8(int(ly)*255/63))
}
