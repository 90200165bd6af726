package gcadapter_test

import (
	"testing"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/outputmode/gcadapter"
	"github.com/padlink/padlink/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReportHeaderAndLength(t *testing.T) {
	m := gcadapter.New()
	b := m.SendReport(0, profile.Output{}, canonical.Event{})
	require.Len(t, b, gcadapter.InputReportSize)
	assert.EqualValues(t, gcadapter.ReportIDInput, b[0])
}

func TestSendReportOutOfRangePortReturnsNil(t *testing.T) {
	m := gcadapter.New()
	assert.Nil(t, m.SendReport(gcadapter.Ports, profile.Output{}, canonical.Event{}))
	assert.Nil(t, m.SendReport(-1, profile.Output{}, canonical.Event{}))
}

func TestSendReportWritesIntoOwnSlotOnly(t *testing.T) {
	m := gcadapter.New()
	out := profile.Output{Buttons: canonical.B1, LX: 10, LY: 20, RX: 30, RY: 40, L2: 50, R2: 60}

	m.SendReport(0, out, canonical.Event{})
	b := m.SendReport(1, profile.Output{}, canonical.Event{})

	port0Slot := b[1:10]
	port1Slot := b[10:19]

	assert.NotZero(t, port0Slot[1]&(1<<0), "port 0 retains B1 bit set by its own SendReport call")
	assert.EqualValues(t, 10, port0Slot[3])
	assert.Zero(t, port1Slot[1], "port 1's button byte must not pick up port 0's input")
}

func TestSendReportButtonBits(t *testing.T) {
	m := gcadapter.New()
	out := profile.Output{Buttons: canonical.DU | canonical.A1}
	b := m.SendReport(0, out, canonical.Event{})
	slot := b[1:10]
	assert.NotZero(t, slot[1]&(1<<7), "DU -> b1 bit7")
	assert.NotZero(t, slot[2]&(1<<1), "A1 -> b2 bit1")
}

func TestHandleOutputInitHandshake(t *testing.T) {
	m := gcadapter.New()
	fb := feedback.NewService(gcadapter.Ports)
	assert.NotPanics(t, func() { m.HandleOutput(0, gcadapter.ReportIDInit, nil, fb) })
}

func TestHandleOutputRumbleBitmaskPerPort(t *testing.T) {
	m := gcadapter.New()
	fb := feedback.NewService(gcadapter.Ports)
	m.HandleOutput(0, gcadapter.ReportIDRumble, []byte{0x01, 0x00, 0x01, 0x00}, fb)

	assert.EqualValues(t, 255, fb.Get(0).RumbleLeft)
	assert.Zero(t, fb.Get(1).RumbleLeft)
	assert.EqualValues(t, 255, fb.Get(2).RumbleLeft)
	assert.Zero(t, fb.Get(3).RumbleLeft)
}

func TestDescriptorIdentifiesGameCubeAdapter(t *testing.T) {
	m := gcadapter.New()
	d := m.Descriptor()
	assert.EqualValues(t, gcadapter.VID, d.Device.IDVendor)
	assert.EqualValues(t, gcadapter.PID, d.Device.IDProduct)
}
