package switch2ble_test

import (
	"testing"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/switch2ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pack12x4(a, c, e, g int32) []byte {
	b := make([]byte, 6)
	b[0] = byte(a & 0xFF)
	b[1] = byte((a>>8)&0x0F) | byte((c&0x0F)<<4)
	b[2] = byte(c >> 4)
	b[3] = byte(e & 0xFF)
	b[4] = byte((e>>8)&0x0F) | byte((g&0x0F)<<4)
	b[5] = byte(g >> 4)
	return b
}

func reportWith(buttons uint32, lx, ly, rx, ry int32) []byte {
	data := make([]byte, 16)
	data[4] = byte(buttons)
	data[5] = byte(buttons >> 8)
	data[6] = byte(buttons >> 16)
	data[7] = byte(buttons >> 24)
	copy(data[10:16], pack12x4(lx, ly, rx, ry))
	return data
}

func TestMatchRequiresBLEAndName(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	assert.True(t, d.Match(driver.Match{IsBLE: true, Name: "switch2"}))
	assert.False(t, d.Match(driver.Match{IsBLE: false, Name: "switch2"}))
	assert.False(t, d.Match(driver.Match{IsBLE: true, Name: "other"}))
}

func TestProcessReportCalibratesBeforeSubmittingEvents(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }

	for i := 0; i < 4; i++ {
		d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	}
	assert.Zero(t, calls, "no events during the calibration window")

	d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	assert.Equal(t, 1, calls, "the first report after the 4 calibration samples is submitted")
}

func TestProcessReportCentersStickAtCalibratedOrigin(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	c := &driver.Connection{}
	d.Init(c)

	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	for i := 0; i < 4; i++ {
		d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	}
	d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	assert.EqualValues(t, 128, got.Analog[canonical.AxisLX], "sample equal to the calibrated center maps to rest")
}

func TestProcessReportSkipsShortOrBareHIDPrefixedReports(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	c := &driver.Connection{}
	d.Init(c)
	calls := 0
	c.Submit = func(e canonical.Event) { calls++ }

	d.ProcessReport(c, []byte{0xA1, 0, 0, 0})
	assert.Zero(t, calls)

	prefixed := append([]byte{0xA1}, reportWith(0, 1000, 1000, 1000, 1000)...)
	for i := 0; i < 4; i++ {
		d.ProcessReport(c, prefixed)
	}
	require.Zero(t, calls, "calibration samples are never submitted")
}

func TestProcessReportStandardButtonMappingForPro2(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	for i := 0; i < 4; i++ {
		d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	}
	d.ProcessReport(c, reportWith(1<<4, 1000, 1000, 1000, 1000))
	assert.True(t, got.Buttons.Has(canonical.L1), "Pro2 bit4 is L1")
	assert.False(t, got.Buttons.Has(canonical.L2))
}

func TestProcessReportGameCubeVariantSwapsShoulderTriggerBits(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantGameCubeMain)
	c := &driver.Connection{}
	d.Init(c)
	var got canonical.Event
	c.Submit = func(e canonical.Event) { got = e }

	for i := 0; i < 4; i++ {
		d.ProcessReport(c, reportWith(0, 1000, 1000, 1000, 1000))
	}
	d.ProcessReport(c, reportWith(1<<4, 1000, 1000, 1000, 1000))
	assert.True(t, got.Buttons.Has(canonical.L2), "GameCube variant remaps bit4 to L2")
	assert.False(t, got.Buttons.Has(canonical.L1))
}

func TestDisconnectSubmitsNeutral(t *testing.T) {
	d := switch2ble.New(switch2ble.VariantPro2)
	var got canonical.Event
	c := &driver.Connection{SourceAddress: 9, Submit: func(e canonical.Event) { got = e }}
	d.Disconnect(c)
	assert.EqualValues(t, 9, got.SourceAddress)
}
