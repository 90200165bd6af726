// Package xinput decodes a genuine wired Xbox 360 controller plugged in as
// a USB input source (spec §4.3.6): the 20-byte XInput input report, the
// same layout the outputmode/xinput personality emits, decoded in reverse.
package xinput

import (
	"encoding/binary"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/feedback"
)

const (
	VID = 0x045E
	PID = 0x028E

	InputReportSize  = 20
	OutputReportSize = 8
)

type state struct {
	feedback                 *feedback.Service
	slot                     int
	lastRumbleL, lastRumbleR uint8
	haveSentOnce             bool
}

// Driver implements driver.Driver for a real wired Xbox 360 controller
// used as an input source.
type Driver struct {
	Feedback *feedback.Service
}

func New(fb *feedback.Service) *Driver { return &Driver{Feedback: fb} }

func (d *Driver) Name() string { return "xinput-input" }

func (d *Driver) Match(m driver.Match) bool { return m.VID == VID && m.PID == PID }

func (d *Driver) Init(c *driver.Connection) bool {
	c.State = &state{feedback: d.Feedback, slot: int(c.Instance)}
	return true
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	if len(data) < InputReportSize || data[0] != 0x00 || data[1] != 0x14 {
		return
	}
	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	buttons := binary.LittleEndian.Uint16(data[2:4])
	mapBit := func(bit uint16, target canonical.Buttons) {
		if buttons&bit != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(0x0001, canonical.DU)
	mapBit(0x0002, canonical.DD)
	mapBit(0x0004, canonical.DL)
	mapBit(0x0008, canonical.DR)
	mapBit(0x0010, canonical.S2)
	mapBit(0x0020, canonical.S1)
	mapBit(0x0040, canonical.L3)
	mapBit(0x0080, canonical.R3)
	mapBit(0x0100, canonical.L1)
	mapBit(0x0200, canonical.R1)
	mapBit(0x0400, canonical.A1)
	mapBit(0x1000, canonical.B1)
	mapBit(0x2000, canonical.B2)
	mapBit(0x4000, canonical.B3)
	mapBit(0x8000, canonical.B4)

	ev.Analog[canonical.AxisL2] = data[4]
	ev.Analog[canonical.AxisR2] = data[5]

	ev.Analog[canonical.AxisLX] = fromSigned(binary.LittleEndian.Uint16(data[6:8]))
	ev.Analog[canonical.AxisLY] = invert(fromSigned(binary.LittleEndian.Uint16(data[8:10])))
	ev.Analog[canonical.AxisRX] = fromSigned(binary.LittleEndian.Uint16(data[10:12]))
	ev.Analog[canonical.AxisRY] = invert(fromSigned(binary.LittleEndian.Uint16(data[12:14])))

	if c.Submit != nil {
		c.Submit(ev)
	}
}

func fromSigned(v uint16) uint8 {
	d := int16(v)
	scaled := 128 + int(d)/256
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}

func invert(v uint8) uint8 { return 255 - v + 1 }

// Task pushes dirty rumble state to the device's 8-byte rumble command.
func (d *Driver) Task(c *driver.Connection, now time.Time) {
	st, ok := c.State.(*state)
	if !ok || st.feedback == nil || c.Link == nil {
		return
	}
	fb := st.feedback.Get(st.slot)
	if !fb.RumbleDirty && st.haveSentOnce {
		return
	}
	if fb.RumbleLeft == st.lastRumbleL && fb.RumbleRight == st.lastRumbleR && st.haveSentOnce {
		st.feedback.ClearDirty(st.slot)
		return
	}
	report := make([]byte, OutputReportSize)
	report[0] = 0x00
	report[1] = 0x08
	report[3] = fb.RumbleLeft
	report[4] = fb.RumbleRight
	if c.Link.Send(report) == nil {
		st.lastRumbleL, st.lastRumbleR = fb.RumbleLeft, fb.RumbleRight
		st.haveSentOnce = true
		st.feedback.ClearDirty(st.slot)
	}
}

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}
