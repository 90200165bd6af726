package ds3_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/ds3"
	"github.com/padlink/padlink/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct{ sent [][]byte }

func (f *fakeLink) Send(data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func buildInputReport() []byte {
	data := make([]byte, ds3.InputReportSize)
	data[0] = ds3.ReportIDInput
	binary.LittleEndian.PutUint32(data[1:5], (1<<4)|(1<<14)) // DU + B1
	data[6], data[7], data[8], data[9] = 10, 20, 30, 40
	data[14], data[15] = 111, 222
	data[30] = 99
	return data
}

func TestMatchRequiresVIDAndPID(t *testing.T) {
	d := ds3.New(nil)
	assert.True(t, d.Match(driver.Match{VID: ds3.VID, PID: ds3.PID}))
	assert.False(t, d.Match(driver.Match{VID: 0x1, PID: ds3.PID}))
}

func TestProcessReportIgnoresShortOrWrongID(t *testing.T) {
	d := ds3.New(nil)
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }
	d.ProcessReport(c, []byte{0x02, 0x00})
	assert.Zero(t, calls)
}

func TestProcessReportDecodesButtonsSticksAndPressure(t *testing.T) {
	d := ds3.New(nil)
	c := &driver.Connection{SourceAddress: 1}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	d.ProcessReport(c, buildInputReport())

	assert.True(t, got.Buttons.Has(canonical.DU))
	assert.True(t, got.Buttons.Has(canonical.B1))
	assert.EqualValues(t, 10, got.Analog[canonical.AxisLX])
	assert.True(t, got.HasPressure)
	assert.EqualValues(t, 111, got.Analog[canonical.AxisL2])
	assert.EqualValues(t, 222, got.Analog[canonical.AxisR2])
	assert.True(t, got.HasMotion)
	assert.EqualValues(t, 99, got.BatteryLevel)
}

func TestTaskSendsCombinedRumbleAndLEDReport(t *testing.T) {
	fb := feedback.NewService(1)
	d := ds3.New(fb)
	link := &fakeLink{}
	c := &driver.Connection{Link: link}
	d.Init(c)

	fb.SetRumble(0, 200, 150)
	fb.SetLEDPlayer(0, 2)
	d.Task(c, time.Now())

	require.Len(t, link.sent, 1)
	report := link.sent[0]
	assert.EqualValues(t, ds3.ReportIDOutput, report[0])
	assert.EqualValues(t, 150, report[2], "right rumble in byte2")
	assert.EqualValues(t, 200, report[4], "left rumble in byte4")
	assert.EqualValues(t, 4, report[9], "player 2 LED shifted left by 1")
}

func TestTaskDedupesUnchangedFeedback(t *testing.T) {
	fb := feedback.NewService(1)
	d := ds3.New(fb)
	link := &fakeLink{}
	c := &driver.Connection{Link: link}
	d.Init(c)

	fb.SetRumble(0, 10, 10)
	d.Task(c, time.Now())
	require.Len(t, link.sent, 1)

	d.Task(c, time.Now())
	assert.Len(t, link.sent, 1, "unchanged, non-dirty feedback must not resend")
}

func TestDisconnectSubmitsNeutral(t *testing.T) {
	d := ds3.New(nil)
	var got canonical.Event
	c := &driver.Connection{SourceAddress: 6, Submit: func(e canonical.Event) { got = e }}
	d.Disconnect(c)
	assert.EqualValues(t, 6, got.SourceAddress)
}
