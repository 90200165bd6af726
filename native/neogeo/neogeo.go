// Package neogeo drives a NEOGEO DB15 joystick over a digital active-low
// GPIO button matrix (spec §4.10, §6). There is no latch/clock timing to
// model: one scan returns the whole bitmask at once.
package neogeo

import (
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/native"
)

const PollRate = time.Second / 60

// Bus is the GPIO matrix scan primitive a platform provides: one bit per
// alias, active-low (0 = pressed), already debounced at the electrical
// level. ok is false on a read fault (e.g. the expander went unresponsive).
type Bus interface {
	Scan() (mask uint16, ok bool)
}

// Driver polls one NEOGEO port's GPIO matrix at 60 Hz.
type Driver struct {
	native.Host
	Bus    Bus
	Wiring [aliasCount]uint8
}

func New(sourceAddr, instance uint8, bus Bus, submit func(canonical.Event)) *Driver {
	d := &Driver{Bus: bus, Wiring: DefaultWiring}
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
	mask, ok := d.Bus.Scan()
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

	for a := Alias(0); a < aliasCount; a++ {
		bit := d.Wiring[a]
		if mask&(1<<bit) == 0 { // active-low: 0 means pressed
			ev.Buttons |= canonicalFor[a]
		}
	}

	if d.Submit != nil {
		d.Submit(ev)
	}
}
