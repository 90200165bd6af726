// Package switch2ble drives Nintendo Switch 2-family BLE controllers
// (spec §4.3.3): 64-byte input reports (optionally prefixed with an 0xA1
// HID-INPUT byte), 32-bit buttons at bytes 4-7, four 12-bit packed stick
// values at bytes 10-15, auto-calibrated over the first 4 reports.
package switch2ble

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
)

// CompanyID is the BLE manufacturer-data company identifier that
// identifies the Switch 2 family during scan (spec §6, BLE identification).
const CompanyID = 0x0553

// Variant selects a controller's axis range and L/R vs ZL/ZR button wiring.
type Variant uint8

const (
	VariantPro2 Variant = iota
	VariantGameCubeMain
)

// axisRange gives each variant's logical full-scale deflection.
var axisRange = map[Variant]int32{
	VariantPro2:         1610,
	VariantGameCubeMain: 1225,
}

const calibrationSamples = 4

type state struct {
	variant  Variant
	samples  int
	sumLX, sumLY, sumRX, sumRY int32
	centerLX, centerLY, centerRX, centerRY int32
	calibrated bool
}

// Driver implements driver.Driver for the Switch 2 BLE family.
type Driver struct {
	Variant Variant
}

func New(variant Variant) *Driver { return &Driver{Variant: variant} }

func (d *Driver) Name() string { return "switch2-ble" }

func (d *Driver) Match(m driver.Match) bool {
	return m.IsBLE && m.Name == "switch2"
}

func (d *Driver) Init(c *driver.Connection) bool {
	c.State = &state{variant: d.Variant}
	return true
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	st, ok := c.State.(*state)
	if !ok {
		return
	}
	if len(data) > 0 && data[0] == 0xA1 {
		data = data[1:]
	}
	if len(data) < 16 {
		return
	}

	buttons := uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24

	lx, ly, rx, ry := unpack12x4(data[10:16])

	if !st.calibrated {
		st.sumLX += lx
		st.sumLY += ly
		st.sumRX += rx
		st.sumRY += ry
		st.samples++
		if st.samples >= calibrationSamples {
			st.centerLX = st.sumLX / calibrationSamples
			st.centerLY = st.sumLY / calibrationSamples
			st.centerRX = st.sumRX / calibrationSamples
			st.centerRY = st.sumRY / calibrationSamples
			st.calibrated = true
		}
		return
	}

	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	rng := axisRange[st.variant]
	if rng == 0 {
		rng = 1610
	}
	ev.Analog[canonical.AxisLX] = scaleCentered(lx-st.centerLX, rng)
	ev.Analog[canonical.AxisLY] = invertY(scaleCentered(ly-st.centerLY, rng))
	ev.Analog[canonical.AxisRX] = scaleCentered(rx-st.centerRX, rng)
	ev.Analog[canonical.AxisRY] = invertY(scaleCentered(ry-st.centerRY, rng))

	l1, r1, l2, r2 := canonical.Buttons(0), canonical.Buttons(0), canonical.Buttons(0), canonical.Buttons(0)
	if st.variant == VariantGameCubeMain {
		// GC variant swaps L1<->L2 and R1<->R2 (spec §4.3.3).
		l2, l1 = canonical.L1, canonical.L2
		r2, r1 = canonical.R1, canonical.R2
	} else {
		l1, l2, r1, r2 = canonical.L1, canonical.L2, canonical.R1, canonical.R2
	}

	mapBit := func(bit uint32, target canonical.Buttons) {
		if buttons&bit != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(1<<0, canonical.B1)
	mapBit(1<<1, canonical.B2)
	mapBit(1<<2, canonical.B3)
	mapBit(1<<3, canonical.B4)
	mapBit(1<<4, l1)
	mapBit(1<<5, r1)
	mapBit(1<<6, l2)
	mapBit(1<<7, r2)
	mapBit(1<<8, canonical.S1)
	mapBit(1<<9, canonical.S2)
	mapBit(1<<10, canonical.L3)
	mapBit(1<<11, canonical.R3)
	mapBit(1<<12, canonical.A1)
	mapBit(1<<16, canonical.DU)
	mapBit(1<<17, canonical.DR)
	mapBit(1<<18, canonical.DD)
	mapBit(1<<19, canonical.DL)

	if c.Submit != nil {
		c.Submit(ev)
	}
}

func (d *Driver) Task(c *driver.Connection, now time.Time) {}

func (d *Driver) Disconnect(c *driver.Connection) {
	if c.Submit != nil {
		c.Submit(canonical.Neutral(c.SourceAddress, c.Instance))
	}
}

// unpack12x4 decodes four 12-bit little-endian packed values from 6 bytes.
func unpack12x4(b []byte) (a, c, e, g int32) {
	a = int32(b[0]) | int32(b[1]&0x0F)<<8
	c = int32(b[1]>>4) | int32(b[2])<<4
	e = int32(b[3]) | int32(b[4]&0x0F)<<8
	g = int32(b[4]>>4) | int32(b[5])<<4
	return
}

func scaleCentered(v, rng int32) uint8 {
	if rng == 0 {
		return 128
	}
	scaled := 128 + v*127/rng
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}

func invertY(v uint8) uint8 { return 255 - v + 1 }
