// Package switchpro emulates a Nintendo Switch Pro Controller over USB
// HID: input report 0x30 (standard full-report mode) with packed 12-bit
// stick pairs and 6-axis IMU data, output report 0x21 (subcommand
// replies) and 0x10 (rumble).
//
// IMU samples carry the raw event's accel/gyro values unscaled. The
// teacher Steam Deck device's Valve-proprietary feature report protocol (haptic trigger commands, attribute queries) has no
// equivalent in the Switch Pro wire format and is not carried over.
package switchpro

import (
	"encoding/binary"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
)

const (
	VID = 0x057E
	PID = 0x2009

	ReportIDInputFull = 0x30
	ReportIDSubcmd    = 0x21
	ReportIDRumble    = 0x10

	InputReportSize = 64
)

// Mode implements outputmode.Mode for the Switch Pro personality.
type Mode struct {
	counter uint8
}

func New() *Mode { return &Mode{} }

func (m *Mode) Name() string { return "switch-pro" }

func (m *Mode) Descriptor() *usb.Descriptor { return &descriptor }

func (m *Mode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	b := make([]byte, InputReportSize)
	b[0] = ReportIDInputFull
	b[1] = m.counter
	m.counter = (m.counter + 1) & 0xFF
	b[2] = 0x8E // battery full + USB powered, connection info nibble

	var b3, b4, b5 uint8
	if out.Buttons.Has(canonical.B2) {
		b3 |= 1 << 0
	}
	if out.Buttons.Has(canonical.B1) {
		b3 |= 1 << 1
	}
	if out.Buttons.Has(canonical.B4) {
		b3 |= 1 << 2
	}
	if out.Buttons.Has(canonical.B3) {
		b3 |= 1 << 3
	}
	if out.Buttons.Has(canonical.R1) {
		b3 |= 1 << 6
	}
	if out.R2 > 0 {
		b3 |= 1 << 7
	}

	if out.Buttons.Has(canonical.S1) {
		b4 |= 1 << 0
	}
	if out.Buttons.Has(canonical.S2) {
		b4 |= 1 << 1
	}
	if out.Buttons.Has(canonical.R3) {
		b4 |= 1 << 2
	}
	if out.Buttons.Has(canonical.L3) {
		b4 |= 1 << 3
	}
	if out.Buttons.Has(canonical.A1) {
		b4 |= 1 << 4
	}

	if out.Buttons.Has(canonical.DD) {
		b5 |= 1 << 0
	}
	if out.Buttons.Has(canonical.DU) {
		b5 |= 1 << 1
	}
	if out.Buttons.Has(canonical.DR) {
		b5 |= 1 << 2
	}
	if out.Buttons.Has(canonical.DL) {
		b5 |= 1 << 3
	}
	if out.Buttons.Has(canonical.L1) {
		b5 |= 1 << 6
	}
	if out.L2 > 0 {
		b5 |= 1 << 7
	}
	b[3], b[4], b[5] = b3, b4, b5

	pack12(b[6:9], scale12(out.LX), scale12(invert(out.LY)))
	pack12(b[9:12], scale12(out.RX), scale12(invert(out.RY)))

	b[12] = 0x0C // vibrator ack byte, fixed

	// IMU sample block: 3 samples of 12 bytes (accel x/y/z, gyro x/y/z),
	// each holding the raw event's values unscaled.
	for s := 0; s < 3; s++ {
		off := 13 + s*12
		if off+12 > len(b) {
			break
		}
		binary.LittleEndian.PutUint16(b[off:off+2], uint16(raw.Accel[0]))
		binary.LittleEndian.PutUint16(b[off+2:off+4], uint16(raw.Accel[1]))
		binary.LittleEndian.PutUint16(b[off+4:off+6], uint16(raw.Accel[2]))
		binary.LittleEndian.PutUint16(b[off+6:off+8], uint16(raw.Gyro[0]))
		binary.LittleEndian.PutUint16(b[off+8:off+10], uint16(raw.Gyro[1]))
		binary.LittleEndian.PutUint16(b[off+10:off+12], uint16(raw.Gyro[2]))
	}

	return b
}

func scale12(v uint8) uint16 { return uint16(v) << 4 }

func invert(v uint8) uint8 { return 255 - v }

// pack12 packs two 12-bit values into 3 bytes, Switch Pro stick encoding.
func pack12(dst []byte, a, b uint16) {
	dst[0] = byte(a & 0xFF)
	dst[1] = byte((a>>8)&0x0F) | byte((b&0x0F)<<4)
	dst[2] = byte(b >> 4)
}

// HandleOutput decodes the rumble report; subcommand replies (0x21) for
// SPI flash reads / device info are acknowledged generically by the
// caller and carry no feedback-service state.
func (m *Mode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {
	if reportID != ReportIDRumble || len(data) < 9 {
		return
	}
	// Bytes 1-4 left rumble, 5-8 right rumble (high-band amplitude at byte
	// offsets 1 and 5 is close enough for a synthesized single-value motor).
	fb.SetRumble(port, data[1], data[5])
}

var descriptor = usb.Descriptor{
	Device: usb.DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       0x00,
		BMaxPacketSize0:    0x40,
		IDVendor:           VID,
		IDProduct:          PID,
		BcdDevice:          0x0200,
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
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 64, BInterval: 8},
				{BEndpointAddress: 0x01, BMAttributes: 0x03, WMaxPacketSize: 64, BInterval: 8},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x04\x09",
		1: "Nintendo Co., Ltd.",
		2: "Pro Controller",
	},
}
