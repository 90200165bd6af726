package nes_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/native"
	"github.com/padlink/padlink/native/nes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	bits uint8
	ok   bool
}

func (f *fakeBus) ReadBits() (uint8, bool) { return f.bits, f.ok }

func TestTickDecodesActiveLowButtons(t *testing.T) {
	bus := &fakeBus{ok: true, bits: 0xFF &^ (1 << 2)} // Select held
	var got canonical.Event
	d := nes.New(1, 0, bus, func(e canonical.Event) { got = e })
	d.Tick(time.Now())
	assert.True(t, got.Buttons.Has(canonical.S1))
}

func TestTickRespectsPollInterval(t *testing.T) {
	bus := &fakeBus{ok: true, bits: 0xFF}
	calls := 0
	d := nes.New(1, 0, bus, func(e canonical.Event) { calls++ })
	now := time.Now()
	d.Tick(now)
	require.Equal(t, 1, calls)
	d.Tick(now.Add(time.Millisecond))
	assert.Equal(t, 1, calls)
}

func TestTickSubmitsNeutralOnDisconnect(t *testing.T) {
	bus := &fakeBus{ok: true, bits: 0xFF}
	var events []canonical.Event
	d := nes.New(2, 0, bus, func(e canonical.Event) { events = append(events, e) })

	now := time.Now()
	d.Tick(now)
	bus.ok = false
	for i := 0; i < native.DisconnectThreshold; i++ {
		now = now.Add(nes.PollRate)
		d.Tick(now)
	}
	last := events[len(events)-1]
	assert.Zero(t, last.Buttons)
}
