package wiimote_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/wiimote"
	"github.com/stretchr/testify/assert"
)

func coreReport(b1, b2, accelX uint8) []byte {
	return []byte{0x30, b1, b2, accelX, 0, 0}
}

func TestMatchByName(t *testing.T) {
	d := wiimote.New()
	assert.True(t, d.Match(driver.Match{Name: "wiimote"}))
	assert.False(t, d.Match(driver.Match{Name: "other"}))
}

func TestProcessReportDecodesCoreButtonsWhenVertical(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	d.ProcessReport(c, coreReport(0x08|0x10, 0x02, 128)) // DU + Plus, One
	assert.True(t, got.Buttons.Has(canonical.DU))
	assert.True(t, got.Buttons.Has(canonical.S2))
	assert.True(t, got.Buttons.Has(canonical.B3))
}

func TestProcessReportAutoRotatesHorizontalPastThreshold(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	// accelX deviates far enough from center (128) to flip into horizontal
	// hold, rotating the D-pad 90 degrees.
	d.ProcessReport(c, coreReport(0x08, 0x00, 200)) // DU pressed
	assert.True(t, got.Buttons.Has(canonical.DL), "DU rotates to DL when held horizontally")
	assert.False(t, got.Buttons.Has(canonical.DU))
}

func TestProcessReportIgnoresUnrelatedReportIDs(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }
	d.ProcessReport(c, []byte{0x99, 0, 0})
	assert.Zero(t, calls)
}

func TestStatusReportWithNoExtensionClearsExtensionState(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }

	d.ProcessReport(c, []byte{0x20, 0, 0, 0x00})
	assert.Zero(t, calls, "status reports never submit an event")
}

func TestExtensionIdentifyAndDecodeNunchuk(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)

	idResp := make([]byte, 15)
	idResp[0] = 0x21
	idResp[8], idResp[9], idResp[10], idResp[11] = 0xA4, 0x20, 0x00, 0x00 // nunchuk ID
	d.ProcessReport(c, idResp)

	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := make([]byte, 11)
	data[0] = 0x30
	data[1], data[2] = 0, 0
	data[3] = 128 // keep vertical
	data[6] = 200 // nunchuk stick X
	data[7] = 50  // nunchuk stick Y
	data[10] = ^uint8(0x01 | 0x02) // both C and Z pressed (active low)
	d.ProcessReport(c, data)

	assert.EqualValues(t, 200, got.Analog[canonical.AxisRX])
	assert.True(t, got.Buttons.Has(canonical.R1), "nunchuk C button")
	assert.True(t, got.Buttons.Has(canonical.R2), "nunchuk Z button")
}

func TestExtensionIdentifyAndDecodeClassicAnalog(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)

	idResp := make([]byte, 15)
	idResp[0] = 0x21
	idResp[8], idResp[9], idResp[10], idResp[11] = 0xA4, 0x20, 0x01, 0x01 // classic controller ID
	d.ProcessReport(c, idResp)

	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := make([]byte, 11)
	data[0] = 0x30
	data[3] = 128
	data[6] = 0x3F // left stick X full deflection (6 bits)
	data[7] = 0x00 // left stick Y at one extreme
	data[8], data[9] = 0xFF, 0xFF
	d.ProcessReport(c, data)

	assert.EqualValues(t, 255, got.Analog[canonical.AxisLX])
}

func TestTaskForcesVerticalAfterHoldingS2AndDUp(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	// accelX far enough from center that auto mode would otherwise rotate
	// horizontal; holding the combo should force vertical regardless.
	start := time.Now()
	d.ProcessReport(c, coreReport(0x08|0x10, 0x00, 200)) // DU + Plus (S2)
	d.Task(c, start)
	d.Task(c, start.Add(600*time.Millisecond))

	d.ProcessReport(c, coreReport(0x08, 0x00, 200)) // DU alone, still tilted horizontal
	assert.True(t, got.Buttons.Has(canonical.DU), "forced vertical keeps DU unrotated")
	assert.False(t, got.Buttons.Has(canonical.DL))
}

func TestTaskForcesHorizontalAfterHoldingS2AndDDown(t *testing.T) {
	d := wiimote.New()
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	start := time.Now()
	d.ProcessReport(c, coreReport(0x04|0x10, 0x00, 128)) // DD + Plus, held vertical
	d.Task(c, start)
	d.Task(c, start.Add(600*time.Millisecond))

	d.ProcessReport(c, coreReport(0x08, 0x00, 128)) // DU alone, accel steady
	assert.True(t, got.Buttons.Has(canonical.DL), "forced horizontal rotates DU to DL")
	assert.False(t, got.Buttons.Has(canonical.DU))
}

func TestDisconnectSubmitsNeutral(t *testing.T) {
	d := wiimote.New()
	var got canonical.Event
	c := &driver.Connection{SourceAddress: 7, Submit: func(e canonical.Event) { got = e }}
	d.Disconnect(c)
	assert.EqualValues(t, 7, got.SourceAddress)
}
