// Package nes drives an NES controller over its shift-register wire
// protocol (spec §4.10, §6): the same latch/clock idiom as SNES, but 8
// data bits with the first bit shifted out being A.
package nes

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/native"
)

const PollRate = time.Second / 60

// Bus is the hardware primitive a platform provides for one NES port.
type Bus interface {
	// ReadBits clocks out 8 bits, active-low already inverted by the
	// platform layer (1 = released). ok is false on a bus/line fault.
	ReadBits() (bits uint8, ok bool)
}

var bitOrder = [8]canonical.Buttons{
	0: canonical.B1, // A
	1: canonical.B2, // B
	2: canonical.S1, // Select
	3: canonical.S2, // Start
	4: canonical.DU,
	5: canonical.DD,
	6: canonical.DL,
	7: canonical.DR,
}

// Driver polls one NES port at 60 Hz.
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

	for i := 0; i < 8; i++ {
		if bits&(1<<uint(i)) != 0 {
			continue
		}
		ev.Buttons |= bitOrder[i]
	}

	if d.Submit != nil {
		d.Submit(ev)
	}
}
