// Package xinput emulates a wired Xbox 360 controller over USB, the de
// facto "XInput" output mode. Descriptor wiring (two vendor-class
// 0xff/0x5d interfaces with interrupt endpoints) is carried unchanged from the teacher's
// Xbox360 device; only the report encode/decode is replaced to read from
// a profile.Output instead of a caller-supplied InputState.
package xinput

import (
	"encoding/binary"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
)

// Mode implements outputmode.Mode for the XInput personality.
type Mode struct{}

func New() *Mode { return &Mode{} }

func (m *Mode) Name() string { return "xinput" }

func (m *Mode) Descriptor() *usb.Descriptor { return &descriptor }

// SendReport builds the 20-byte wired-Xbox-360 input report.
func (m *Mode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	var buttons uint16
	if out.Buttons.Has(canonical.DU) {
		buttons |= 0x0001
	}
	if out.Buttons.Has(canonical.DD) {
		buttons |= 0x0002
	}
	if out.Buttons.Has(canonical.DL) {
		buttons |= 0x0004
	}
	if out.Buttons.Has(canonical.DR) {
		buttons |= 0x0008
	}
	if out.Buttons.Has(canonical.S2) {
		buttons |= 0x0010
	}
	if out.Buttons.Has(canonical.S1) {
		buttons |= 0x0020
	}
	if out.Buttons.Has(canonical.L3) {
		buttons |= 0x0040
	}
	if out.Buttons.Has(canonical.R3) {
		buttons |= 0x0080
	}
	if out.Buttons.Has(canonical.L1) {
		buttons |= 0x0100
	}
	if out.Buttons.Has(canonical.R1) {
		buttons |= 0x0200
	}
	if out.Buttons.Has(canonical.A1) {
		buttons |= 0x0400
	}
	if out.Buttons.Has(canonical.B1) {
		buttons |= 0x1000
	}
	if out.Buttons.Has(canonical.B2) {
		buttons |= 0x2000
	}
	if out.Buttons.Has(canonical.B3) {
		buttons |= 0x4000
	}
	if out.Buttons.Has(canonical.B4) {
		buttons |= 0x8000
	}

	b := make([]byte, 20)
	b[0] = 0x00
	b[1] = 0x14
	binary.LittleEndian.PutUint16(b[2:4], buttons)
	b[4] = out.L2
	b[5] = out.R2
	binary.LittleEndian.PutUint16(b[6:8], toSigned(out.LX))
	binary.LittleEndian.PutUint16(b[8:10], toSignedInverted(out.LY))
	binary.LittleEndian.PutUint16(b[10:12], toSigned(out.RX))
	binary.LittleEndian.PutUint16(b[12:14], toSignedInverted(out.RY))
	return b
}

// toSigned maps canonical [0,255] (center 128) onto XInput's signed
// [-32768,32767] axis range.
func toSigned(v uint8) uint16 {
	d := int(v) - 128
	return uint16(int16(d * 256))
}

// toSignedInverted is toSigned with the Y axis flipped: canonical sticks
// report Y increasing downward, XInput reports Y increasing upward.
func toSignedInverted(v uint8) uint16 {
	d := -(int(v) - 128) * 256
	if d > 32767 {
		d = 32767
	}
	return uint16(int16(d))
}

// HandleOutput decodes the wired Xbox 360 rumble command (8-byte: ID, len,
// status, left motor, right motor, reserved×3).
func (m *Mode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {
	if len(data) >= 8 && data[0] == 0x00 && data[1] == 0x08 {
		fb.SetRumble(port, data[3], data[4])
	}
}

var descriptor = usb.Descriptor{
	Device: usb.DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       0xff,
		BDeviceSubClass:    0xff,
		BDeviceProtocol:    0xff,
		BMaxPacketSize0:    0x08,
		IDVendor:           0x045e,
		IDProduct:          0x028e,
		BcdDevice:          0x0114,
		IManufacturer:      0x01,
		IProduct:           0x02,
		ISerialNumber:      0x03,
		BNumConfigurations: 0x01,
		Speed:              2,
	},
	Interfaces: []usb.InterfaceConfig{
		{
			Descriptor: usb.InterfaceDescriptor{
				BInterfaceNumber:   0x00,
				BNumEndpoints:      0x02,
				BInterfaceClass:    0xff,
				BInterfaceSubClass: 0x5d,
				BInterfaceProtocol: 0x01,
			},
			ClassDescriptors: []usb.ClassSpecificDescriptor{
				{DescriptorType: 0x21, Payload: usb.Data{0x00, 0x01, 0x01, 0x25, 0x81, 0x14, 0x00, 0x00, 0x00, 0x00, 0x13, 0x01, 0x08, 0x00, 0x00}},
			},
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x04},
				{BEndpointAddress: 0x01, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x08},
			},
		},
		{
			Descriptor: usb.InterfaceDescriptor{
				BInterfaceNumber:   0x01,
				BNumEndpoints:      0x04,
				BInterfaceClass:    0xff,
				BInterfaceSubClass: 0x5d,
				BInterfaceProtocol: 0x03,
			},
			ClassDescriptors: []usb.ClassSpecificDescriptor{
				{DescriptorType: 0x21, Payload: usb.Data{0x00, 0x01, 0x01, 0x01, 0x82, 0x40, 0x01, 0x02, 0x20, 0x16, 0x83, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x16, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
			},
			Endpoints: []usb.EndpointDescriptor{
				{BEndpointAddress: 0x82, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x02},
				{BEndpointAddress: 0x02, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x04},
				{BEndpointAddress: 0x83, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x40},
				{BEndpointAddress: 0x03, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x10},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x04\x09",
		1: "Microsoft Corporation",
		2: "Controller",
		3: "1",
	},
}
