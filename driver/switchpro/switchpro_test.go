package switchpro_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/switchpro"
	"github.com/padlink/padlink/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct{ sent [][]byte }

func (f *fakeLink) Send(data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func pack12(dst []byte, a, b uint16) {
	dst[0] = byte(a & 0xFF)
	dst[1] = byte((a>>8)&0x0F) | byte((b&0x0F)<<4)
	dst[2] = byte(b >> 4)
}

func buildInputReport(b3, b4, b5 uint8, lx, ly, rx, ry uint16) []byte {
	data := make([]byte, switchpro.InputReportSize)
	data[0] = switchpro.ReportIDInputFull
	data[3], data[4], data[5] = b3, b4, b5
	pack12(data[6:9], lx, ly)
	pack12(data[9:12], rx, ry)
	return data
}

func TestMatchRequiresVIDAndPID(t *testing.T) {
	d := switchpro.New(nil)
	assert.True(t, d.Match(driver.Match{VID: switchpro.VID, PID: switchpro.PID}))
	assert.False(t, d.Match(driver.Match{VID: 0x1, PID: switchpro.PID}))
}

func TestProcessReportIgnoresWrongReportID(t *testing.T) {
	d := switchpro.New(nil)
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }
	data := buildInputReport(0, 0, 0, 0, 0, 0, 0)
	data[0] = 0x21
	d.ProcessReport(c, data)
	assert.Zero(t, calls)
}

func TestProcessReportDecodesButtonsAndAnalogTriggers(t *testing.T) {
	d := switchpro.New(nil)
	c := &driver.Connection{SourceAddress: 1}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := buildInputReport(1<<0|1<<7, 1<<0, 1<<1|1<<7, 0, 0, 0, 0)
	d.ProcessReport(c, data)

	assert.True(t, got.Buttons.Has(canonical.B2))
	assert.True(t, got.Buttons.Has(canonical.R2))
	assert.EqualValues(t, 255, got.Analog[canonical.AxisR2])
	assert.True(t, got.Buttons.Has(canonical.S1))
	assert.True(t, got.Buttons.Has(canonical.DU))
	assert.True(t, got.Buttons.Has(canonical.L2))
	assert.EqualValues(t, 255, got.Analog[canonical.AxisL2])
}

func TestProcessReportDecodesPackedSticks(t *testing.T) {
	d := switchpro.New(nil)
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	data := buildInputReport(0, 0, 0, 4080, 0, 0, 0) // LX raw 4080 -> scaled 255
	d.ProcessReport(c, data)

	assert.EqualValues(t, 255, got.Analog[canonical.AxisLX])
}

func TestTaskSendsRumbleReportAndDedupes(t *testing.T) {
	fb := feedback.NewService(1)
	d := switchpro.New(fb)
	link := &fakeLink{}
	c := &driver.Connection{Link: link}
	d.Init(c)

	fb.SetRumble(0, 40, 60)
	d.Task(c, time.Now())
	require.Len(t, link.sent, 1)
	assert.EqualValues(t, switchpro.ReportIDRumble, link.sent[0][0])
	assert.EqualValues(t, 40, link.sent[0][1])
	assert.EqualValues(t, 60, link.sent[0][5])

	d.Task(c, time.Now())
	assert.Len(t, link.sent, 1)
}

func TestDisconnectSubmitsNeutral(t *testing.T) {
	d := switchpro.New(nil)
	var got canonical.Event
	c := &driver.Connection{SourceAddress: 3, Submit: func(e canonical.Event) { got = e }}
	d.Disconnect(c)
	assert.EqualValues(t, 3, got.SourceAddress)
}
