package eightbitdo_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/eightbitdo"
	"github.com/padlink/padlink/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	sent [][]byte
	err  error
}

func (f *fakeLink) Send(data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return f.err
}

func TestMatchRequiresVIDPIDAndBLE(t *testing.T) {
	d := eightbitdo.New(nil)
	assert.True(t, d.Match(driver.Match{VID: eightbitdo.VID, PID: eightbitdo.PID, IsBLE: true}))
	assert.False(t, d.Match(driver.Match{VID: eightbitdo.VID, PID: eightbitdo.PID, IsBLE: false}))
	assert.False(t, d.Match(driver.Match{VID: 0x1, PID: eightbitdo.PID, IsBLE: true}))
}

func TestProcessReportIgnoresShortOrWrongIDReports(t *testing.T) {
	d := eightbitdo.New(nil)
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }

	d.ProcessReport(c, []byte{0x99})
	assert.Zero(t, calls)
}

func TestProcessReportDecodesSticksTriggersAndButtons(t *testing.T) {
	d := eightbitdo.New(nil)
	c := &driver.Connection{SourceAddress: 1, Instance: 2}
	d.Init(c)

	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := make([]byte, eightbitdo.InputReportSize)
	data[0] = eightbitdo.ReportIDInput
	data[1] = 8 // hat released
	data[2], data[3], data[4], data[5] = 10, 20, 30, 40
	data[6], data[7] = 222, 111 // R2, L2 (trigger bytes are swapped relative to the stick bytes)
	data[8] = 0x01              // B1
	data[9] = 0x00
	data[10] = 77 // battery

	d.ProcessReport(c, data)

	assert.EqualValues(t, 10, got.Analog[canonical.AxisLX])
	assert.EqualValues(t, 20, got.Analog[canonical.AxisLY])
	assert.EqualValues(t, 111, got.Analog[canonical.AxisL2])
	assert.EqualValues(t, 222, got.Analog[canonical.AxisR2])
	assert.True(t, got.Buttons.Has(canonical.B1))
	assert.EqualValues(t, 77, got.BatteryLevel)
}

func TestProcessReportDecodesHatSwitch(t *testing.T) {
	d := eightbitdo.New(nil)
	c := &driver.Connection{}
	d.Init(c)

	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := make([]byte, eightbitdo.InputReportSize)
	data[0] = eightbitdo.ReportIDInput
	data[1] = 1 // NE
	d.ProcessReport(c, data)

	assert.True(t, got.Buttons.Has(canonical.DU))
	assert.True(t, got.Buttons.Has(canonical.DR))
}

func TestTaskSendsRumbleWhenDirtyAndDedupes(t *testing.T) {
	fb := feedback.NewService(1)
	d := eightbitdo.New(fb)
	link := &fakeLink{}
	c := &driver.Connection{Instance: 0, Link: link}
	d.Init(c)

	fb.SetRumble(0, 255, 0)
	d.Task(c, time.Now())
	require.Len(t, link.sent, 1)
	assert.EqualValues(t, eightbitdo.ReportIDOutput, link.sent[0][0])
	assert.EqualValues(t, 100, link.sent[0][1], "255 scaled to the 0-100 range")

	// unchanged feedback, not dirty: must not resend.
	d.Task(c, time.Now())
	assert.Len(t, link.sent, 1)
}

func TestTaskSkipsWhenNoLink(t *testing.T) {
	fb := feedback.NewService(1)
	d := eightbitdo.New(fb)
	c := &driver.Connection{Instance: 0}
	d.Init(c)
	fb.SetRumble(0, 255, 255)
	assert.NotPanics(t, func() { d.Task(c, time.Now()) })
}

func TestDisconnectSubmitsNeutral(t *testing.T) {
	d := eightbitdo.New(nil)
	var got canonical.Event
	c := &driver.Connection{SourceAddress: 5, Submit: func(e canonical.Event) { got = e }}
	d.Disconnect(c)
	assert.EqualValues(t, 5, got.SourceAddress)
	assert.Zero(t, got.Buttons)
}
