// Package ps3ds3 emulates a Sony DualShock 3 over USB HID, per spec §6:
// input report 0x01 (48 bytes: buttons, dpad, sticks, 12 pressure-sensitive
// button analogs, 6 bytes motion, battery), output report 0x01 for
// rumble+LED, and the pairing/capability feature reports the PS3 itself
// polls for.
//
// Adapted from the teacher's DualShock 4 device (same vendor lineage, same
// HID-class USB wiring) but with the DS3's narrower, pressure-table report
// layout instead of DS4's touchpad/extended-gyro one.
package ps3ds3

import (
	"encoding/binary"
	"math"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/usb/hid"
)

const (
	VID = 0x054C
	PID = 0x0268

	ReportIDInput  = 0x01
	ReportIDOutput = 0x01

	InputReportSize  = 48
	OutputReportSize = 48
)

// accelCountsPerMS2/gyroCountsPerDps are the fixed-point motion scale the
// DualShock 4 device used. SendReport does not apply them: it copies the
// raw event's accelerometer counts into the report unscaled.
const (
	accelCountsPerMS2 = 113.0
	gyroCountsPerDps  = 8.2
)

// Mode implements outputmode.Mode for the PS3 DualShock3 personality.
type Mode struct{}

func New() *Mode { return &Mode{} }

func (m *Mode) Name() string { return "ps3-ds3" }

func (m *Mode) Descriptor() *usb.Descriptor { return &descriptor }

// SendReport builds the 48-byte PS3 input report for one port.
func (m *Mode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	b := make([]byte, InputReportSize)
	b[0] = ReportIDInput

	// Bytes 1-4: 17 digital buttons (select,L3,R3,start,dpad×4; L2,R2,L1,R1,
	// tri,cir,cross,square; PS) packed DS3-native order, little-endian.
	var buttons uint32
	if out.Buttons.Has(canonical.S1) {
		buttons |= 1 << 0
	}
	if out.Buttons.Has(canonical.L3) {
		buttons |= 1 << 1
	}
	if out.Buttons.Has(canonical.R3) {
		buttons |= 1 << 2
	}
	if out.Buttons.Has(canonical.S2) {
		buttons |= 1 << 3
	}
	if out.Buttons.Has(canonical.DU) {
		buttons |= 1 << 4
	}
	if out.Buttons.Has(canonical.DR) {
		buttons |= 1 << 5
	}
	if out.Buttons.Has(canonical.DD) {
		buttons |= 1 << 6
	}
	if out.Buttons.Has(canonical.DL) {
		buttons |= 1 << 7
	}
	if out.Buttons.Has(canonical.L2) {
		buttons |= 1 << 8
	}
	if out.Buttons.Has(canonical.R2) {
		buttons |= 1 << 9
	}
	if out.Buttons.Has(canonical.L1) {
		buttons |= 1 << 10
	}
	if out.Buttons.Has(canonical.R1) {
		buttons |= 1 << 11
	}
	if out.Buttons.Has(canonical.B4) {
		buttons |= 1 << 12
	}
	if out.Buttons.Has(canonical.B2) {
		buttons |= 1 << 13
	}
	if out.Buttons.Has(canonical.B1) {
		buttons |= 1 << 14
	}
	if out.Buttons.Has(canonical.B3) {
		buttons |= 1 << 15
	}
	if out.Buttons.Has(canonical.A1) {
		buttons |= 1 << 16
	}
	binary.LittleEndian.PutUint32(b[1:5], buttons)

	// Bytes 6-9: sticks.
	b[6] = out.LX
	b[7] = out.LY
	b[8] = out.RX
	b[9] = out.RY

	// Bytes 10-21: pressure-sensitive button analogs, in the canonical
	// 12-slot order; the DS3 only has 8 of the 12 wired to real sensors.
	if out.HasPressure {
		copy(b[10:22], out.Pressure[:])
	} else {
		// No pressure source: synthesize from the digital bits + trigger
		// analogs so an unpressure-sensitive input still drives the DS3's
		// pressure-sensitive report fields sensibly.
		p := [12]uint8{}
		p[4] = out.L2
		p[5] = out.R2
		if out.Buttons.Has(canonical.L1) {
			p[6] = 255
		}
		if out.Buttons.Has(canonical.R1) {
			p[7] = 255
		}
		copy(b[10:22], p[:])
	}

	// Bytes 41-46: accelerometer x/y/z (no gyro is written); byte 30:
	// battery.
	binary.LittleEndian.PutUint16(b[41:43], uint16(int16(raw.Accel[0])))
	binary.LittleEndian.PutUint16(b[43:45], uint16(int16(raw.Accel[1])))
	binary.LittleEndian.PutUint16(b[45:47], uint16(int16(raw.Accel[2])))
	b[30] = batteryByte(raw.BatteryLevel, raw.BatteryCharging)

	return b
}

// HandleOutput decodes the DS3's single combined rumble+LED output report.
func (m *Mode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {
	if reportID != ReportIDOutput || len(data) < 5 {
		return
	}
	fb.SetRumble(port, data[2], data[4])
	fb.SetLEDPlayer(port, data[9]>>1)
}

func batteryByte(level uint8, charging bool) uint8 {
	if charging {
		return 0xEE
	}
	return uint8(math.Round(float64(level) / 255.0 * 5))
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
						hid.UsagePage{Page: hid.UsagePageGenericDesktop},
						hid.Usage{Usage: hid.UsageGamePad},
						hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
							hid.AnyItem{Type: hid.ItemTypeGlobal, Tag: 0x08, Data: hid.Data{ReportIDInput}},

							hid.UsagePage{Page: hid.UsagePageButton},
							hid.UsageMinimum{Min: 0x01},
							hid.UsageMaximum{Max: 0x13},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 1},
							hid.ReportSize{Bits: 1},
							hid.ReportCount{Count: 19},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

							hid.ReportSize{Bits: 1},
							hid.ReportCount{Count: 13},
							hid.Input{Flags: hid.MainConst},

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

							hid.UsagePage{Page: 0xFF00},
							hid.Usage{Usage: 0x20},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 255},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: 39},
							hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

							hid.AnyItem{Type: hid.ItemTypeGlobal, Tag: 0x08, Data: hid.Data{ReportIDOutput}},
							hid.UsagePage{Page: 0xFF00},
							hid.Usage{Usage: 0x21},
							hid.LogicalMinimum{Min: 0},
							hid.LogicalMaximum{Max: 255},
							hid.ReportSize{Bits: 8},
							hid.ReportCount{Count: OutputReportSize - 1},
							hid.Output{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
						}},
					},
				},
			},
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 64, BInterval: 1},
				{BEndpointAddress: 0x02, BMAttributes: 0x03, WMaxPacketSize: 64, BInterval: 1},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x04\x09",
		1: "Sony",
		2: "PLAYSTATION(R)3 Controller",
	},
}
