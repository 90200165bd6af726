// Package generichid is the fallback driver for any USB/BT HID gamepad
// with no vendor-specific match (spec §4.3.1): it parses the device's own
// report descriptor via hidrd, extracts each usage field by querying the
// resulting map, and assembles a canonical.Event.
//
// Report resubmission is gated by a per-axis difference threshold, the
// same idiom joypad-os's sinput_host.c uses to avoid flooding the router
// with USB-polling jitter that never meaningfully changes the output.
package generichid

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/hidrd"
)

const axisJitterThreshold = 4

// hatTable maps a 4-bit hat-switch value (0=N .. 7=NW, >=8 released) to
// the D-pad bits it represents.
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
	report    hidrd.ReportMap
	buttonIdx []canonical.Buttons // physical button N -> canonical bit, DirectInput convention
	last      canonical.Event
	haveLast  bool
}

// Driver implements driver.Driver for unrecognized HID gamepads.
type Driver struct {
	// DescriptorFor looks up the raw HID report descriptor bytes for a
	// connection's (vid, pid); supplied by the transport layer, which
	// owns descriptor retrieval (out of scope here per spec §1).
	DescriptorFor func(vid, pid uint16) []byte
}

func New(descriptorFor func(vid, pid uint16) []byte) *Driver {
	return &Driver{DescriptorFor: descriptorFor}
}

func (d *Driver) Name() string { return "generic-hid" }

// Match always returns true: generic HID is the last-resort fallback and
// must be registered after every vendor-specific driver.
func (d *Driver) Match(m driver.Match) bool { return true }

func (d *Driver) Init(c *driver.Connection) bool {
	st := &state{}
	var raw []byte
	if d.DescriptorFor != nil {
		raw = d.DescriptorFor(c.Match.VID, c.Match.PID)
	}
	rm, err := hidrd.Parse(raw)
	if err != nil {
		rm = hidrd.FallbackLayout
	}
	st.report = rm
	st.buttonIdx = directInputRemap(countButtons(rm))
	c.State = st
	return true
}

func (d *Driver) ProcessReport(c *driver.Connection, data []byte) {
	st, ok := c.State.(*state)
	if !ok || len(data) == 0 {
		return
	}
	ev := canonical.New()
	ev.SourceAddress = c.SourceAddress
	ev.Instance = c.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = c.Transport

	reportID := -1
	if st.report.HasReportIDs && len(data) > 0 {
		reportID = int(data[0])
	}

	buttonN := 0
	for _, f := range st.report.Fields {
		if f.IsConstant {
			continue
		}
		v := extractBits(data, f)
		switch {
		case f.UsagePage == 0x09: // Button page
			buttonN++
			if v != 0 {
				ev.Buttons |= mapButton(st.buttonIdx, buttonN)
			}
		case f.UsagePage == 0x01 && f.Usage == 0x39: // Hat switch
			hv := v
			if hv < 8 {
				ev.Buttons |= hatTable[hv]
			}
		case f.UsagePage == 0x01 && f.Usage == 0x30: // X
			ev.Analog[canonical.AxisLX] = canonical.ClampStick(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		case f.UsagePage == 0x01 && f.Usage == 0x31: // Y
			ev.Analog[canonical.AxisLY] = canonical.ClampStick(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		case f.UsagePage == 0x01 && f.Usage == 0x32: // Z (RX)
			ev.Analog[canonical.AxisRX] = canonical.ClampStick(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		case f.UsagePage == 0x01 && f.Usage == 0x35: // Rz (RY)
			ev.Analog[canonical.AxisRY] = canonical.ClampStick(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		case f.UsagePage == 0x02 && f.Usage == 0xC5: // L2 (simulation page brake/accelerator convention)
			ev.Analog[canonical.AxisL2] = uint8(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		case f.UsagePage == 0x02 && f.Usage == 0xC4:
			ev.Analog[canonical.AxisR2] = uint8(hidrd.ScaleAxis(v, logicalMaxOrDefault(f)))
		}
		_ = reportID
	}

	if st.haveLast && !differs(st.last, ev) {
		return
	}
	st.last = ev
	st.haveLast = true
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

func logicalMaxOrDefault(f hidrd.Field) int32 {
	if f.LogicalMax > 0 {
		return f.LogicalMax
	}
	return 255
}

func extractBits(data []byte, f hidrd.Field) uint32 {
	if f.ByteIndex() >= len(data) {
		return 0
	}
	if f.BitSize <= 8 {
		return uint32(data[f.ByteIndex()]&f.BitMask()) >> uint(f.BitOffset%8)
	}
	var v uint32
	nbytes := (f.BitSize + 7) / 8
	for i := 0; i < nbytes && f.ByteIndex()+i < len(data); i++ {
		v |= uint32(data[f.ByteIndex()+i]) << uint(8*i)
	}
	return v
}

func countButtons(rm hidrd.ReportMap) int {
	n := 0
	for _, f := range rm.Fields {
		if f.UsagePage == 0x09 && !f.IsConstant {
			n++
		}
	}
	return n
}

// directInputRemap builds the physical-button-number -> canonical-bit
// table per spec's DirectInput convention, only applied once the pad
// reports >= 10 buttons (otherwise physical numbering is passed through).
func directInputRemap(n int) []canonical.Buttons {
	table := make([]canonical.Buttons, n+1)
	if n < 10 {
		bits := []canonical.Buttons{canonical.B1, canonical.B2, canonical.B3, canonical.B4, canonical.L1, canonical.R1, canonical.L2, canonical.R2, canonical.S1, canonical.S2, canonical.L3, canonical.R3}
		for i := 1; i <= n && i-1 < len(bits); i++ {
			table[i] = bits[i-1]
		}
		return table
	}
	remap := map[int]canonical.Buttons{
		1: canonical.B3, 2: canonical.B1, 3: canonical.B2, 4: canonical.B4,
		5: canonical.L1, 6: canonical.R1, 7: canonical.L2, 8: canonical.R2,
		9: canonical.S1, 10: canonical.S2, 11: canonical.L3, 12: canonical.R3,
	}
	for i := 1; i <= n; i++ {
		if b, ok := remap[i]; ok {
			table[i] = b
		}
	}
	return table
}

func mapButton(table []canonical.Buttons, n int) canonical.Buttons {
	if n < len(table) {
		return table[n]
	}
	return 0
}

func differs(a, b canonical.Event) bool {
	if a.Buttons != b.Buttons {
		return true
	}
	for i := range a.Analog {
		d := int(a.Analog[i]) - int(b.Analog[i])
		if d < 0 {
			d = -d
		}
		if d > axisJitterThreshold {
			return true
		}
	}
	return false
}
