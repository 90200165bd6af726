// Package eightbitdo is the hand-rolled driver for the 8BitDo Ultimate
// (BLE) controller's report ID 0x03, 11-byte input layout (spec §4.3.2,
// §6), and its 4-byte 0x05 rumble output report.
//
// Trigger byte order resolves the spec's open question per §8 scenario 1:
// the trigger bytes are swapped relative to the stick bytes, byte 7 is the
// left trigger and byte 6 the right trigger.
package eightbitdo

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/feedback"
)

const (
	VID = 0x2DC8
	PID = 0x3106

	ReportIDInput  = 0x03
	ReportIDOutput = 0x05

	InputReportSize  = 11
	OutputReportSize = 4
)

// buttonBit maps 16-bit sequential button flags (bytes 8-9) to canonical
// bits, per the vendor comment's bit table.
var buttonBit = [16]canonical.Buttons{
	0: canonical.B1, 1: canonical.B2, 2: canonical.B3, 3: canonical.B4,
	4: canonical.L1, 5: canonical.R1, 6: canonical.L2, 7: canonical.R2,
	8: canonical.S1, 9: canonical.S2, 10: canonical.L3, 11: canonical.R3,
	12: canonical.A1, 13: canonical.A2, 14: canonical.A3, 15: canonical.A4,
}

var hatTable = [8]canonical.Buttons{
	0: canonical.DU,
	1: canonical.DU | canonical.DR,
	2: canonical.DR,
	3: canonical.DR | canonical.DD,
	4: canonical.DD,
	5: canonical.DD | canonical.DL,
	6: canonical.DL,
	7: canonical.DL | canonical.DU,
}

type state struct {
	lastRumbleStrong, lastRumbleWeak uint8
	haveSentOnce                     bool
	feedback                         *feedback.Service
	slot                             int
}

// Driver implements driver.Driver for the 8BitDo Ultimate BLE controller.
type Driver struct {
	// Feedback is the per-slot feedback table this driver polls in Task;
	// the engine wires it in at registration.
	Feedback *feedback.Service
}

func New(fb *feedback.Service) *Driver { return &Driver{Feedback: fb} }

func (d *Driver) Name() string { return "8bitdo-ultimate" }

func (d *Driver) Match(m driver.Match) bool {
	return m.VID == VID && m.PID == PID && m.IsBLE
}

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

	hat := data[1] & 0x0F
	if hat < 8 {
		ev.Buttons |= hatTable[hat]
	}

	ev.Analog[canonical.AxisLX] = canonical.ClampStick(data[2])
	ev.Analog[canonical.AxisLY] = canonical.ClampStick(data[3])
	ev.Analog[canonical.AxisRX] = canonical.ClampStick(data[4])
	ev.Analog[canonical.AxisRY] = canonical.ClampStick(data[5])

	ev.Analog[canonical.AxisL2] = data[7]
	ev.Analog[canonical.AxisR2] = data[6]

	buttons := uint16(data[8]) | uint16(data[9])<<8
	for i := 0; i < 16; i++ {
		if buttons&(1<<uint(i)) != 0 {
			ev.Buttons |= buttonBit[i]
		}
	}

	ev.BatteryLevel = data[10]

	if c.Submit != nil {
		c.Submit(ev)
	}
}

// Task sends the 0x05 rumble report only when the cached last-sent
// values differ from the feedback service's current state, matching the
// driver's spec'd scale-and-dedupe behavior.
func (d *Driver) Task(c *driver.Connection, now time.Time) {
	st, ok := c.State.(*state)
	if !ok || st.feedback == nil || c.Link == nil {
		return
	}
	fb := st.feedback.Get(st.slot)
	if !fb.RumbleDirty && st.haveSentOnce {
		return
	}
	strong := scaleTo100(fb.RumbleLeft)
	weak := scaleTo100(fb.RumbleRight)
	if st.haveSentOnce && strong == st.lastRumbleStrong && weak == st.lastRumbleWeak {
		st.feedback.ClearDirty(st.slot)
		return
	}
	report := []byte{ReportIDOutput, strong, weak, weak}
	if c.Link.Send(report) == nil {
		st.lastRumbleStrong = strong
		st.lastRumbleWeak = weak
		st.haveSentOnce = true
		st.feedback.ClearDirty(st.slot)
	}
}

func scaleTo100(v uint8) uint8 { return uint8(uint16(v) * 100 / 255) }

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}
