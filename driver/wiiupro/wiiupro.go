// Package wiiupro drives the Wii U Pro Controller over the Wiimote
// extension protocol (spec §4.3.4): a 14-state connect machine that
// brings the extension online before any input is trusted, then decodes
// the extension's 4 sticks and the first 2 of its 3 button bytes.
package wiiupro

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
)

// connectState steps through the Wiimote extension bring-up handshake.
type connectState uint8

const (
	stateWaitInit connectState = iota
	stateSendStatusReq
	stateWaitStatus
	stateSendExtInit1
	stateWaitExtInit1
	stateSendExtInit2
	stateWaitExtInit2
	stateReadExtType
	stateWaitExtType
	stateSendReportMode
	stateWaitReportMode
	stateSendLED
	stateWaitLED
	stateReady
)

const (
	stepTimeout  = 1 * time.Second
	maxRetries   = 5
	keepAlivePeriod = 30 * time.Second
)

const stickCenter = 2048
const stickRange = 1200

type state struct {
	connect      connectState
	stepDeadline time.Time
	retries      int
	lastKeepAlive time.Time
	playerLED    uint8
}

// Driver implements driver.Driver for the Wii U Pro Controller.
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return "wiiu-pro" }

func (d *Driver) Match(m driver.Match) bool { return m.Name == "wiiu-pro" }

func (d *Driver) Init(c *driver.Connection) bool {
	c.State = &state{connect: stateWaitInit, stepDeadline: time.Time{}, playerLED: canonical.PlayerLEDs[int(c.Instance)%7+1]}
	return true
}

// ProcessReport absorbs handshake responses while the connect machine is
// not yet ready, and decodes full input reports once it is.
func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	st, ok := c.State.(*state)
	if !ok || len(data) == 0 {
		return
	}

	if st.connect != stateReady {
		advanceOnResponse(st, data)
		return
	}

	if ((data[0] < 0x30 || data[0] > 0x37) && data[0] != 0x3D) || len(data) < 21 {
		return
	}
	// Extension bytes are the report's last 21 bytes (in report mode 0x3D,
	// everything after the report ID).
	ext := data
	if len(data) > 3 {
		ext = data[len(data)-21:]
	}
	if len(ext) < 11 {
		return
	}

	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	lx := le16(ext[0], ext[1]) & 0x0FFF
	rx := le16(ext[2], ext[3]) & 0x0FFF
	ly := le16(ext[4], ext[5]) & 0x0FFF
	ry := le16(ext[6], ext[7]) & 0x0FFF

	ev.Analog[canonical.AxisLX] = fromCenter(lx)
	ev.Analog[canonical.AxisLY] = invert(fromCenter(ly))
	ev.Analog[canonical.AxisRX] = fromCenter(rx)
	ev.Analog[canonical.AxisRY] = invert(fromCenter(ry))

	// Button bytes are inverted: 0 = pressed. Only the first two of the
	// three button bytes are decoded; the third (ext[10]) is not read.
	b1, b2 := ^ext[8], ^ext[9]

	mapBit := func(b uint8, bit uint8, target canonical.Buttons) {
		if b&(1<<bit) != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(b1, 0, canonical.B2)
	mapBit(b1, 1, canonical.B1)
	mapBit(b1, 2, canonical.A1)
	mapBit(b1, 3, canonical.S2)
	mapBit(b1, 4, canonical.DR)
	mapBit(b1, 5, canonical.DD)
	mapBit(b1, 6, canonical.L3)
	mapBit(b1, 7, canonical.R3)
	mapBit(b2, 0, canonical.B4)
	mapBit(b2, 1, canonical.B3)
	mapBit(b2, 4, canonical.DU)
	mapBit(b2, 5, canonical.DL)
	mapBit(b2, 6, canonical.L1)
	mapBit(b2, 7, canonical.R1)

	if c.Submit != nil {
		c.Submit(ev)
	}
}

// Task advances the connect state machine (with timeout/retry) and sends
// a 30-second keepalive once ready.
func (d *Driver) Task(c *driver.Connection, now time.Time) {
	st, ok := c.State.(*state)
	if !ok || c.Link == nil {
		return
	}

	if st.connect == stateReady {
		if st.lastKeepAlive.IsZero() {
			st.lastKeepAlive = now
			return
		}
		if now.Sub(st.lastKeepAlive) >= keepAlivePeriod {
			_ = c.Link.Send([]byte{0x15, 0x00})
			st.lastKeepAlive = now
		}
		return
	}

	if !st.stepDeadline.IsZero() && now.Before(st.stepDeadline) {
		return
	}
	if !st.stepDeadline.IsZero() {
		st.retries++
		if st.retries > maxRetries {
			// Give up advancing this step; move on to input ingestion
			// anyway rather than wedge the connection forever.
			st.connect = stateReady
			return
		}
		// A wait step that timed out goes back to its send step, so the
		// request is sent again.
		switch st.connect {
		case stateWaitStatus, stateWaitExtInit1, stateWaitExtInit2, stateWaitExtType, stateWaitReportMode, stateWaitLED:
			st.connect--
		}
	}

	sendStep(c, st)
	st.stepDeadline = now.Add(stepTimeout)
}

func sendStep(c *driver.Connection, st *state) {
	switch st.connect {
	case stateWaitInit:
		st.connect = stateSendStatusReq
	case stateSendStatusReq:
		_ = c.Link.Send([]byte{0x15, 0x00})
		st.connect = stateWaitStatus
	case stateSendExtInit1:
		_ = c.Link.Send(writeMemory(0xA400F0, []byte{0x55}))
		st.connect = stateWaitExtInit1
	case stateSendExtInit2:
		_ = c.Link.Send(writeMemory(0xA400FB, []byte{0x00}))
		st.connect = stateWaitExtInit2
	case stateReadExtType:
		_ = c.Link.Send(readMemory(0xA400FA, 6))
		st.connect = stateWaitExtType
	case stateSendReportMode:
		_ = c.Link.Send([]byte{0x12, 0x00, 0x3D})
		st.connect = stateWaitReportMode
	case stateSendLED:
		_ = c.Link.Send([]byte{0x11, st.playerLED << 4})
		st.connect = stateWaitLED
	}
}

// advanceOnResponse interprets a handshake reply and moves the state
// machine to the next send step, resetting the retry counter.
func advanceOnResponse(st *state, data []byte) {
	switch st.connect {
	case stateWaitStatus:
		if len(data) > 0 && data[0] == 0x20 {
			st.connect = stateSendExtInit1
		}
	case stateWaitExtInit1:
		if len(data) > 0 && data[0] == 0x22 {
			st.connect = stateSendExtInit2
		}
	case stateWaitExtInit2:
		if len(data) > 0 && data[0] == 0x22 {
			st.connect = stateReadExtType
		}
	case stateWaitExtType:
		if len(data) > 0 && data[0] == 0x21 {
			st.connect = stateSendReportMode
		}
	case stateWaitReportMode:
		if len(data) > 0 && data[0] == 0x22 {
			st.connect = stateSendLED
		}
	case stateWaitLED:
		if len(data) > 0 && data[0] == 0x22 {
			st.connect = stateReady
		}
	}
	st.retries = 0
}

func writeMemory(addr uint32, payload []byte) []byte {
	b := make([]byte, 22)
	b[0] = 0x16
	b[1] = byte(addr >> 16)
	b[2] = byte(addr >> 8)
	b[3] = byte(addr)
	b[4] = byte(len(payload))
	copy(b[5:], payload)
	return b
}

func readMemory(addr uint32, size uint16) []byte {
	return []byte{0x17, byte(addr >> 16), byte(addr >> 8), byte(addr), byte(size >> 8), byte(size)}
}

func le16(lo, hi byte) uint16 { return uint16(lo) | uint16(hi)<<8 }

func fromCenter(v uint16) uint8 {
	d := int(v) - stickCenter
	scaled := 128 + d*127/stickRange
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}

func invert(v uint8) uint8 { return 255 - v + 1 }

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}
