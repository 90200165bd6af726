// Package snes drives an SNES controller over its shift-register wire
// protocol (spec §4.10, §6): 12 µs latch pulse, 6 µs shift clock, 16 data
// bits with the first bit shifted out being B. Polled at 60 Hz.
package snes

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/native"
)

const PollRate = time.Second / 60

// Bus is the hardware primitive a platform provides: pulse latch, hold it
// low for the data window, then clock out 16 bits. The actual
// microsecond-level timing lives in the platform layer; this interface
// only asks for the result.
type Bus interface {
	// ReadBits pulses latch and clocks out 16 bits (1 = released, per the
	// shift register's active-low convention already inverted by the
	// platform layer). ok is false on a bus/line fault.
	ReadBits() (bits uint16, ok bool)
}

// bitOrder gives each of the 16 shifted-out bits (B first) its canonical
// target, per spec §6's "16 data bits MSB=B" layout.
var bitOrder = [16]canonical.Buttons{
	0: canonical.B1, // B
	1: canonical.B3, // Y
	2: canonical.S1, // Select
	3: canonical.S2, // Start
	4: canonical.DU,
	5: canonical.DD,
	6: canonical.DL,
	7: canonical.DR,
	8:  canonical.B2, // A
	9:  canonical.B4, // X
	10: canonical.L1,
	11: canonical.R1,
}

// Driver polls one SNES port at 60 Hz.
type Driver struct {
	native.Host
	Bus Bus
}

func New(sourceAddr, instance uint8, bus Bus, submit func(canonical.Event)) *Driver {
	d := &Driver{Bus: bus}
	d.SourceAddress = sourceAddr
	d.Instance = instance
	d.PollInterval = PollRate
	d.Submit = submit
	return d
}

// Tick polls the bus if the 60 Hz interval has elapsed, decodes the
// report, and submits. Call from the main loop's native-host-task step.
func (d *Driver) Tick(now time.Time) {
	if !d.Due(now) {
		return
	}
	bits, ok := d.Bus.ReadBits()
	if d.RecordResult(ok) {
		if d.Submit != nil {
			d.Submit(d.NeutralEvent())
		}
		return
	}
	if !ok || !d.Connected() {
		return
	}

	ev := canonical.New()
	ev.SourceAddress = d.SourceAddress
	ev.Instance = d.Instance
	ev.Kind = canonical.KindGamepad
	ev.Transport = canonical.TransportNative

	for i := 0; i < 16; i++ {
		if bits&(1<<uint(i)) != 0 {
			continue // active-low: bit set means released
		}
		ev.Buttons |= bitOrder[i]
	}

	if d.Submit != nil {
		d.Submit(ev)
	}
}
