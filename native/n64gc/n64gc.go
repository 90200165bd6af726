// Package n64gc drives N64 and GameCube controllers over joybus, the
// shared Nintendo 1-wire open-drain protocol (spec §4.10, §6): bit cells
// ≈4 µs, controller poll command `0x40 03 00 02 00 00 00 00`. GC is polled
// at 125 Hz, N64 at 60 Hz; the wire command and response layout differ
// between the two consoles though the transport is identical.
package n64gc

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/native"
)

// Variant selects the console-specific poll command and response decode.
type Variant uint8

const (
	VariantN64 Variant = iota
	VariantGameCube
)

const (
	PollRateN64       = time.Second / 60
	PollRateGameCube  = time.Second / 125
)

// pollCommand is the GameCube controller poll command from spec §6; N64
// uses the shorter classic joybus poll (command byte 0x01, no payload).
var pollCommand = map[Variant][]byte{
	VariantN64:      {0x01},
	VariantGameCube: {0x40, 0x03, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00},
}

// Bus is the 1-wire joybus transaction primitive a platform provides.
// Transact writes cmd and returns the controller's response; the
// microsecond-level open-drain bit timing lives in the platform layer.
type Bus interface {
	Transact(cmd []byte) (resp []byte, ok bool)
}

// Driver polls one joybus port for the configured console variant.
type Driver struct {
	native.Host
	Bus     Bus
	Variant Variant
}

func New(variant Variant, sourceAddr, instance uint8, bus Bus, submit func(canonical.Event)) *Driver {
	d := &Driver{Bus: bus, Variant: variant}
	d.SourceAddress = sourceAddr
	d.Instance = instance
	if variant == VariantGameCube {
		d.PollInterval = PollRateGameCube
	} else {
		d.PollInterval = PollRateN64
	}
	d.Submit = submit
	return d
}

func (d *Driver) Tick(now time.Time) {
	if !d.Due(now) {
		return
	}
	resp, ok := d.Bus.Transact(pollCommand[d.Variant])
	if ok {
		ok = d.validResponse(resp)
	}
	if d.RecordResult(ok) {
		if d.Submit != nil {
			d.Submit(d.NeutralEvent())
		}
		return
	}
	if !ok || !d.Connected() {
		return
	}

	var ev canonical.Event
	if d.Variant == VariantGameCube {
		ev = decodeGameCube(resp)
	} else {
		ev = decodeN64(resp)
	}
	ev.SourceAddress = d.SourceAddress
	ev.Instance = d.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = canonical.TransportNative

	if d.Submit != nil {
		d.Submit(ev)
	}
}

func (d *Driver) validResponse(resp []byte) bool {
	if d.Variant == VariantGameCube {
		return len(resp) >= 8
	}
	return len(resp) >= 4
}

// decodeGameCube decodes the 8-byte GC response: 2 button bytes, main
// stick X/Y, C-stick X/Y, left/right analog trigger.
func decodeGameCube(r []byte) canonical.Event {
	ev := canonical.New()
	b1, b2 := r[0], r[1]
	mapBit := func(b uint8, bit uint8, target canonical.Buttons) {
		if b&(1<<bit) != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(b1, 0, canonical.DL)
	mapBit(b1, 1, canonical.DR)
	mapBit(b1, 2, canonical.DD)
	mapBit(b1, 3, canonical.DU)
	mapBit(b1, 4, canonical.S2) // Start
	mapBit(b1, 5, canonical.L2)
	mapBit(b1, 6, canonical.R2)
	mapBit(b2, 0, canonical.B1) // A
	mapBit(b2, 1, canonical.B2) // B
	mapBit(b2, 2, canonical.B4) // X
	mapBit(b2, 3, canonical.B3) // Y
	mapBit(b2, 4, canonical.L1) // Z treated as left shoulder alias

	ev.Analog[canonical.AxisLX] = canonical.ClampStick(r[2])
	ev.Analog[canonical.AxisLY] = canonical.ClampStick(255 - r[3])
	ev.Analog[canonical.AxisRX] = canonical.ClampStick(r[4])
	ev.Analog[canonical.AxisRY] = canonical.ClampStick(255 - r[5])
	ev.Analog[canonical.AxisL2] = r[6]
	ev.Analog[canonical.AxisR2] = r[7]
	return ev
}

// decodeN64 decodes the classic 4-byte N64 response: 2 button bytes plus
// signed joystick X/Y.
func decodeN64(r []byte) canonical.Event {
	ev := canonical.New()
	b1, b2 := r[0], r[1]
	mapBit := func(b uint8, bit uint8, target canonical.Buttons) {
		if b&(1<<bit) != 0 {
			ev.Buttons |= target
		}
	}
	mapBit(b1, 0, canonical.DL)
	mapBit(b1, 1, canonical.DR)
	mapBit(b1, 2, canonical.DD)
	mapBit(b1, 3, canonical.DU)
	mapBit(b1, 4, canonical.S2) // Start
	mapBit(b1, 5, canonical.A1) // Reset combo surfaces as system button
	mapBit(b1, 6, canonical.L1)
	mapBit(b1, 7, canonical.R1)
	mapBit(b2, 0, canonical.B2) // B
	mapBit(b2, 1, canonical.B1) // A
	mapBit(b2, 4, canonical.R3) // C-up treated as right stick alias cluster
	mapBit(b2, 5, canonical.R2)
	mapBit(b2, 6, canonical.L2)
	mapBit(b2, 7, canonical.L2)

	ev.Analog[canonical.AxisLX] = fromSigned(r[2])
	ev.Analog[canonical.AxisLY] = invert(fromSigned(r[3]))
	return ev
}

func fromSigned(v uint8) uint8 {
	d := int(int8(v))
	scaled := 128 + d
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}

func invert(v uint8) uint8 { return 255 - v + 1 }
