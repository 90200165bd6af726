// Package pcenginemini emulates the PC Engine Mini's USB pad: a simple
// boot-protocol-compatible HID gamepad, 8 bytes, no report ID, following
// the generic HID gamepad layout (sticks then buttons) used throughout
// this era of plug-and-play USB pads.
package pcenginemini

import (
	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/usb/hid"
)

const (
	VID = 0x0810
	PID = 0x0001

	InputReportSize = 8
)

// Mode implements outputmode.Mode for the PC Engine Mini personality.
// It has no host-to-device feedback channel (no rumble, no LED).
type Mode struct{}

func New() *Mode { return &Mode{} }

func (m *Mode) Name() string { return "pcengine-mini" }

func (m *Mode) Descriptor() *usb.Descriptor { return &descriptor }

func (m *Mode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	b := make([]byte, InputReportSize)
	b[0] = out.LX
	b[1] = out.LY
	b[2] = out.RX
	b[3] = out.RY

	var buttons uint16
	if out.Buttons.Has(canonical.B1) {
		buttons |= 1 << 0
	}
	if out.Buttons.Has(canonical.B2) {
		buttons |= 1 << 1
	}
	if out.Buttons.Has(canonical.B3) {
		buttons |= 1 << 2
	}
	if out.Buttons.Has(canonical.B4) {
		buttons |= 1 << 3
	}
	if out.Buttons.Has(canonical.L1) {
		buttons |= 1 << 4
	}
	if out.Buttons.Has(canonical.R1) {
		buttons |= 1 << 5
	}
	if out.Buttons.Has(canonical.S1) {
		buttons |= 1 << 6
	}
	if out.Buttons.Has(canonical.S2) {
		buttons |= 1 << 7
	}
	if out.Buttons.Has(canonical.A1) {
		buttons |= 1 << 8
	}
	b[4] = byte(buttons & 0xFF)
	b[5] = byte(buttons >> 8)

	b[6] = dpadHat(out.Buttons)
	b[7] = 0
	return b
}

func dpadHat(b canonical.Buttons) uint8 {
	switch {
	case b.Has(canonical.DU | canonical.DR):
		return 1
	case b.Has(canonical.DR | canonical.DD):
		return 3
	case b.Has(canonical.DD | canonical.DL):
		return 5
	case b.Has(canonical.DL | canonical.DU):
		return 7
	case b.Has(canonical.DU):
		return 0
	case b.Has(canonical.DR):
		return 2
	case b.Has(canonical.DD):
		return 4
	case b.Has(canonical.DL):
		return 6
	default:
		return 8
	}
}

// HandleOutput is a no-op: this mode has no output reports.
func (m *Mode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {}

var descriptor = usb.Descriptor{
	Device: usb.DeviceDescriptor{
		BcdUSB:             0x0110,
		BDeviceClass:       0x00,
		BMaxPacketSize0:    0x08,
		IDVendor:           VID,
		IDProduct:          PID,
		BcdDevice:          0x0100,
		IManufacturer:      0x01,
		IProduct:           0x02,
		BNumConfigurations: 0x01,
		Speed:              1,
	},
	Interfaces: []usb.InterfaceConfig{
		{
			Descriptor: usb.InterfaceDescriptor{
				BInterfaceNumber:   0x00,
				BNumEndpoints:      0x01,
				BInterfaceClass:    0x03,
				BInterfaceSubClass: 0x01,
				BInterfaceProtocol: 0x00,
			},
			HID: &usb.HIDFunction{
				Descriptor: usb.HIDDescriptor{
					BcdHID: 0x0110,
					Descriptors: []usb.HIDSubDescriptor{
						{Type: usb.ReportDescType},
					},
				},
				Report: hid.Report{
					Items: []hid.Item{
						hid.UsagePage{Page: hid.UsagePageGenericDesktop},
						hid.Usage{Usage: hid.UsageGamePad},
						hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
							hid.UsagePage{Page: hid.UsagePageGenericDesktop},
							hid.Usage{Usage: hid.UsageX},
							hid.Usage{Usage: hid.UsageY},
							hid.Usage{Usage: hid.UsageZ},
							hid.Usage{Usage: hid.UsageRz},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 255},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: 4},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

							hid.UsagePage{Page: hid.UsagePageButton},
							hid.UsageMinimum{Min: 0x01},
							hid.UsageMaximum{Max: 0x09},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 1},
							hid.ReportSize{Bits: 1},
							hid.ReportCount{Count: 9},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
							hid.ReportSize{Bits: 1},
							hid.ReportCount{Count: 7},
							hid.Input{Flags: hid.MainConst},

							hid.UsagePage{Page: hid.UsagePageGenericDesktop},
							hid.Usage{Usage: hid.UsageHatSwitch},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 8},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: 1},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs | hid.MainNullState},
						}},
					},
				},
			},
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: InputReportSize, BInterval: 10},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x04\x09",
		1: "Hori Co., Ltd.",
		2: "PC Engine Mini Pad",
	},
}
