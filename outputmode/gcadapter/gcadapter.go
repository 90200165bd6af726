// Package gcadapter emulates the Wii U/Switch "GameCube Adapter for Wii
// U": a 4-port passthrough device reporting all four GameCube controller
// slots in one input report (spec §6: report 0x21, 1+4x9 bytes), with
// output report 0x11 (per-port rumble enable bit) and an init handshake
// on output report 0x13 the host sends once at startup.
//
// Descriptor wiring follows the teacher's HID-class vendor-bulk pattern
// (device/dualshock4) generalized to this adapter's four-port vendor
// report instead of one player's HID report.
package gcadapter

import (
	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/usb/hid"
)

const (
	VID = 0x057E
	PID = 0x0337

	ReportIDInput = 0x21
	ReportIDRumble = 0x11
	ReportIDInit   = 0x13

	Ports = 4

	InputReportSize = 1 + Ports*9
)

// portState is per-port connect/type state, carried across SendReport
// calls since the adapter reports "no controller" for empty ports.
type portState struct {
	connected bool
}

// Mode implements outputmode.Mode for all four GC adapter ports at once:
// SendReport is called once per port by the engine; each call writes that
// port's slot into a shared buffer and returns a copy of the whole report.
type Mode struct {
	initialized bool
	ports       [Ports]portState
	pending     [InputReportSize]byte
}

func New() *Mode {
	m := &Mode{}
	m.pending[0] = ReportIDInput
	return m
}

func (m *Mode) Name() string { return "gc-adapter" }

func (m *Mode) Descriptor() *usb.Descriptor { return &descriptor }

// SendReport writes port's 9-byte slot into the shared report and returns
// the full buffer; callers that poll one port at a time still get a
// internally-consistent snapshot since every port's SendReport call
// mutates the same buffer before any port's encoded bytes are read.
func (m *Mode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	if port < 0 || port >= Ports {
		return nil
	}
	m.ports[port].connected = true

	off := 1 + port*9
	slot := m.pending[off : off+9]

	typeByte := uint8(0x10) // standard controller, wired, no rumble-busy
	slot[0] = typeByte

	var b1, b2 uint8
	if out.Buttons.Has(canonical.B1) {
		b1 |= 1 << 0
	}
	if out.Buttons.Has(canonical.B2) {
		b1 |= 1 << 1
	}
	if out.Buttons.Has(canonical.B3) {
		b1 |= 1 << 2
	}
	if out.Buttons.Has(canonical.B4) {
		b1 |= 1 << 3
	}
	if out.Buttons.Has(canonical.DL) {
		b1 |= 1 << 4
	}
	if out.Buttons.Has(canonical.DR) {
		b1 |= 1 << 5
	}
	if out.Buttons.Has(canonical.DD) {
		b1 |= 1 << 6
	}
	if out.Buttons.Has(canonical.DU) {
		b1 |= 1 << 7
	}
	if out.Buttons.Has(canonical.S2) {
		b2 |= 1 << 0
	}
	if out.Buttons.Has(canonical.A1) {
		b2 |= 1 << 1
	}
	if out.Buttons.Has(canonical.L1) {
		b2 |= 1 << 2
	}
	if out.Buttons.Has(canonical.R1) {
		b2 |= 1 << 3
	}
	slot[1], slot[2] = b1, b2

	slot[3] = out.LX
	slot[4] = out.LY
	slot[5] = out.RX
	slot[6] = out.RY
	slot[7] = out.L2
	slot[8] = out.R2

	return append([]byte(nil), m.pending[:]...)
}

// HandleOutput decodes the per-port rumble-enable bitmask (report 0x11,
// 4 bytes, bit 0 of each byte enables that port's motor) and the 0x13
// init handshake, which carries no payload beyond the report ID itself.
func (m *Mode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {
	switch reportID {
	case ReportIDInit:
		m.initialized = true
	case ReportIDRumble:
		for p := 0; p < Ports && p < len(data); p++ {
			if data[p]&0x01 != 0 {
				fb.SetRumble(p, 255, 255)
			} else {
				fb.SetRumble(p, 0, 0)
			}
		}
	}
}

var descriptor = usb.Descriptor{
	Device: usb.DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       0x00,
		BMaxPacketSize0:    0x40,
		IDVendor:           VID,
		IDProduct:          PID,
		BcdDevice:          0x0100,
		IManufacturer:      0x01,
		IProduct:           0x02,
		BNumConfigurations: 0x01,
		Speed:              2,
	},
	Interfaces: []usb.InterfaceConfig{
		{
			Descriptor: usb.InterfaceDescriptor{
				BInterfaceNumber: 0x00,
				BNumEndpoints:    0x02,
				BInterfaceClass:  0x03,
			},
			HID: &usb.HIDFunction{
				Descriptor: usb.HIDDescriptor{
					BcdHID: 0x0111,
					Descriptors: []usb.HIDSubDescriptor{
						{Type: usb.ReportDescType},
					},
				},
				Report: hid.Report{
					Items: []hid.Item{
						hid.UsagePage{Page: 0xFF00},
						hid.Usage{Usage: 0x01},
						hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
							hid.AnyItem{Type: hid.ItemTypeGlobal, Tag: 0x08, Data: hid.Data{ReportIDInput}},
							hid.Usage{Usage: 0x01},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 255},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: InputReportSize - 1},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

							hid.AnyItem{Type: hid.ItemTypeGlobal, Tag: 0x08, Data: hid.Data{ReportIDRumble}},
							hid.Usage{Usage: 0x02},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: Ports},
							hid.Output{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
						}},
					},
				},
			},
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 37, BInterval: 8},
				{BEndpointAddress: 0x02, BMAttributes: 0x03, WMaxPacketSize: 5, BInterval: 8},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x04\x09",
		1: "Nintendo Co., Ltd.",
		2: "WUP-028",
	},
}
