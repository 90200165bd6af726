package pcenginemini_test

import (
	"testing"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/outputmode/pcenginemini"
	"github.com/padlink/padlink/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReportLengthAndSticks(t *testing.T) {
	m := pcenginemini.New()
	out := profile.Output{LX: 10, LY: 20, RX: 30, RY: 40}
	b := m.SendReport(0, out, canonical.Event{})
	require.Len(t, b, pcenginemini.InputReportSize)
	assert.EqualValues(t, 10, b[0])
	assert.EqualValues(t, 20, b[1])
	assert.EqualValues(t, 30, b[2])
	assert.EqualValues(t, 40, b[3])
}

func TestSendReportButtonBits(t *testing.T) {
	m := pcenginemini.New()
	out := profile.Output{Buttons: canonical.B1 | canonical.A1}
	b := m.SendReport(0, out, canonical.Event{})
	assert.NotZero(t, b[4]&(1<<0), "B1")
	assert.NotZero(t, b[5]&(1<<0), "A1 in high byte bit8")
}

func TestSendReportDpadHatNeutralIsEight(t *testing.T) {
	m := pcenginemini.New()
	b := m.SendReport(0, profile.Output{}, canonical.Event{})
	assert.EqualValues(t, 8, b[6])
}

func TestSendReportDpadHatCardinalDirections(t *testing.T) {
	cases := []struct {
		buttons canonical.Buttons
		want    uint8
	}{
		{canonical.DU, 0},
		{canonical.DU | canonical.DR, 1},
		{canonical.DR, 2},
		{canonical.DR | canonical.DD, 3},
		{canonical.DD, 4},
		{canonical.DD | canonical.DL, 5},
		{canonical.DL, 6},
		{canonical.DL | canonical.DU, 7},
	}
	for _, c := range cases {
		m := pcenginemini.New()
		b := m.SendReport(0, profile.Output{Buttons: c.buttons}, canonical.Event{})
		assert.EqualValues(t, c.want, b[6])
	}
}

func TestHandleOutputIsNoOp(t *testing.T) {
	m := pcenginemini.New()
	fb := feedback.NewService(1)
	assert.NotPanics(t, func() { m.HandleOutput(0, 0, nil, fb) })
	assert.Zero(t, fb.Get(0).RumbleLeft)
}

func TestDescriptorIdentifiesPCEngineMiniPad(t *testing.T) {
	m := pcenginemini.New()
	d := m.Descriptor()
	assert.EqualValues(t, pcenginemini.VID, d.Device.IDVendor)
	assert.EqualValues(t, pcenginemini.PID, d.Device.IDProduct)
}
