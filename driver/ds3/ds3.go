// Package ds3 decodes a genuine Sony DualShock 3 plugged in as a USB HID
// input source (spec §4.3.6): report 0x01, the same 48-byte buttons/dpad/
// sticks/pressure/motion/battery layout the outputmode/ps3ds3 personality
// emits, decoded in reverse.
package ds3

import (
	"encoding/binary"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/feedback"
)

const (
	VID = 0x054C
	PID = 0x0268

	ReportIDInput  = 0x01
	ReportIDOutput = 0x01

	InputReportSize = 48
)

type state struct {
	feedback                 *feedback.Service
	slot                     int
	lastRumbleL, lastRumbleR uint8
	lastLED                  uint8
	haveSentOnce             bool
}

// Driver implements driver.Driver for a real DualShock 3 used as an
// input source.
type Driver struct {
	Feedback *feedback.Service
}

func New(fb *feedback.Service) *Driver { return &Driver{Feedback: fb} }

func (d *Driver) Name() string { return "ds3-input" }

func (d *Driver) Match(m driver.Match) bool { return m.VID == VID && m.PID == PID }

func (d *Driver) Init(c *driver.Connection) bool {
	c.State = &state{feedback: d.Feedback, slot: int(c.Instance)}
	return true
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	if len(data) < InputReportSize || data[0] != ReportIDInput {
		return
	}
	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	buttons := binary.LittleEndian.Uint32(data[1:5])
	mapBit := func(bit uint32, target canonical.Buttons) {
		if buttons&bit != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(1<<0, canonical.S1)
	mapBit(1<<1, canonical.L3)
	mapBit(1<<2, canonical.R3)
	mapBit(1<<3, canonical.S2)
	mapBit(1<<4, canonical.DU)
	mapBit(1<<5, canonical.DR)
	mapBit(1<<6, canonical.DD)
	mapBit(1<<7, canonical.DL)
	mapBit(1<<8, canonical.L2)
	mapBit(1<<9, canonical.R2)
	mapBit(1<<10, canonical.L1)
	mapBit(1<<11, canonical.R1)
	mapBit(1<<12, canonical.B4)
	mapBit(1<<13, canonical.B2)
	mapBit(1<<14, canonical.B1)
	mapBit(1<<15, canonical.B3)
	mapBit(1<<16, canonical.A1)

	ev.Analog[canonical.AxisLX] = canonical.ClampStick(data[6])
	ev.Analog[canonical.AxisLY] = canonical.ClampStick(data[7])
	ev.Analog[canonical.AxisRX] = canonical.ClampStick(data[8])
	ev.Analog[canonical.AxisRY] = canonical.ClampStick(data[9])

	ev.HasPressure = true
	copy(ev.Pressure[:], data[10:22])
	ev.Analog[canonical.AxisL2] = data[14]
	ev.Analog[canonical.AxisR2] = data[15]

	ev.HasMotion = true
	ev.Accel[0] = int16(binary.LittleEndian.Uint16(data[41:43]))
	ev.Accel[1] = int16(binary.LittleEndian.Uint16(data[43:45]))
	ev.Accel[2] = int16(binary.LittleEndian.Uint16(data[45:47]))

	ev.BatteryLevel = data[30]

	if c.Submit != nil {
		c.Submit(ev)
	}
}

// Task pushes any dirty feedback state to the DS3's combined rumble+LED
// output report, same dirty-flag-gated idiom as the BLE drivers.
func (d *Driver) Task(c *driver.Connection, now time.Time) {
	st, ok := c.State.(*state)
	if !ok || st.feedback == nil || c.Link == nil {
		return
	}
	fb := st.feedback.Get(st.slot)
	if !fb.RumbleDirty && !fb.LEDPlayerDirty && st.haveSentOnce {
		return
	}
	if fb.RumbleLeft == st.lastRumbleL && fb.RumbleRight == st.lastRumbleR && fb.LEDPlayer == st.lastLED && st.haveSentOnce {
		st.feedback.ClearDirty(st.slot)
		return
	}
	report := make([]byte, OutputReportSize)
	report[0] = ReportIDOutput
	report[2] = fb.RumbleRight
	report[4] = fb.RumbleLeft
	report[9] = fb.LEDPlayer << 1
	if c.Link.Send(report) == nil {
		st.lastRumbleL, st.lastRumbleR, st.lastLED = fb.RumbleLeft, fb.RumbleRight, fb.LEDPlayer
		st.haveSentOnce = true
		st.feedback.ClearDirty(st.slot)
	}
}

const OutputReportSize = 48

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}
