// Package switchpro decodes a genuine Nintendo Switch Pro Controller
// plugged in as a USB input source (spec §4.3.6): standard full-report
// mode 0x30, the same packed-12-bit-stick/6-axis-IMU layout the
// outputmode/switchpro personality emits, decoded in reverse.
package switchpro

import (
	"encoding/binary"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/feedback"
)

const (
	VID = 0x057E
	PID = 0x2009

	ReportIDInputFull = 0x30
	ReportIDRumble    = 0x10

	InputReportSize = 64
)

type state struct {
	feedback                 *feedback.Service
	slot                     int
	lastRumbleL, lastRumbleR uint8
	haveSentOnce             bool
}

// Driver implements driver.Driver for a real Switch Pro Controller used
// as an input source.
type Driver struct {
	Feedback *feedback.Service
}

func New(fb *feedback.Service) *Driver { return &Driver{Feedback: fb} }

func (d *Driver) Name() string { return "switch-pro-input" }

func (d *Driver) Match(m driver.Match) bool { return m.VID == VID && m.PID == PID }

func (d *Driver) Init(c *driver.Connection) bool {
	c.State = &state{feedback: d.Feedback, slot: int(c.Instance)}
	return true
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	if len(data) < InputReportSize || data[0] != ReportIDInputFull {
		return
	}
	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	b3, b4, b5 := data[3], data[4], data[5]

	mapBit8 := func(b uint8, bit uint8, target canonical.Buttons) {
		if b&(1<<bit) != 0 {
			ev.Buttons |= target
		}
	}
	mapBit8(b3, 0, canonical.B2)
	mapBit8(b3, 1, canonical.B1)
	mapBit8(b3, 2, canonical.B4)
	mapBit8(b3, 3, canonical.B3)
	mapBit8(b3, 6, canonical.R1)
	if b3&(1<<7) != 0 {
		ev.Analog[canonical.AxisR2] = 255
		ev.Buttons |= canonical.R2
	}

	mapBit8(b4, 0, canonical.S1)
	mapBit8(b4, 1, canonical.S2)
	mapBit8(b4, 2, canonical.R3)
	mapBit8(b4, 3, canonical.L3)
	mapBit8(b4, 4, canonical.A1)

	mapBit8(b5, 0, canonical.DD)
	mapBit8(b5, 1, canonical.DU)
	mapBit8(b5, 2, canonical.DR)
	mapBit8(b5, 3, canonical.DL)
	mapBit8(b5, 6, canonical.L1)
	if b5&(1<<7) != 0 {
		ev.Analog[canonical.AxisL2] = 255
		ev.Buttons |= canonical.L2
	}

	lx, ly := unpack12(data[6:9])
	rx, ry := unpack12(data[9:12])
	ev.Analog[canonical.AxisLX] = scale8(lx)
	ev.Analog[canonical.AxisLY] = invert(scale8(ly))
	ev.Analog[canonical.AxisRX] = scale8(rx)
	ev.Analog[canonical.AxisRY] = invert(scale8(ry))

	if len(data) >= 25 {
		ev.HasMotion = true
		ev.Accel[0] = int16(binary.LittleEndian.Uint16(data[13:15]))
		ev.Accel[1] = int16(binary.LittleEndian.Uint16(data[15:17]))
		ev.Accel[2] = int16(binary.LittleEndian.Uint16(data[17:19]))
		ev.Gyro[0] = int16(binary.LittleEndian.Uint16(data[19:21]))
		ev.Gyro[1] = int16(binary.LittleEndian.Uint16(data[21:23]))
		ev.Gyro[2] = int16(binary.LittleEndian.Uint16(data[23:25]))
	}

	if c.Submit != nil {
		c.Submit(ev)
	}
}

// unpack12 decodes two 12-bit little-endian packed stick values from 3
// bytes, the inverse of outputmode/switchpro's pack12.
func unpack12(b []byte) (a, c uint16) {
	a = uint16(b[0]) | uint16(b[1]&0x0F)<<8
	c = uint16(b[1]>>4) | uint16(b[2])<<4
	return
}

func scale8(v uint16) uint8 { return canonical.ClampStick(uint8(v >> 4)) }

func invert(v uint8) uint8 { return 255 - v + 1 }

// Task pushes dirty rumble state to the device's 9-byte rumble report.
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
	report := make([]byte, 9)
	report[0] = ReportIDRumble
	report[1] = fb.RumbleLeft
	report[5] = fb.RumbleRight
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
