// Package native holds the shared polling/debounce scaffolding for the
// native console wire-protocol drivers (spec §4.10): SNES/NES shift
// registers, N64/GameCube joybus, and NEOGEO's GPIO button matrix.
//
// Each concrete driver polls its own Bus abstraction (the actual
// latch/clock/open-drain timing is a platform primitive and out of scope
// here, same as driver.Link is for radio/USB transports) on a fixed clock,
// decodes raw bits into a canonical.Event, and calls Submit directly -
// these are the "exclusive tap" producers spec §4.4 describes bypassing
// the router's stored-output array for latency-critical native outputs.
package native

import (
	"time"

	"github.com/padlink/padlink/canonical"
)

// DisconnectThreshold is the number of consecutive poll failures before a
// native source is declared disconnected, per spec §4.10.
const DisconnectThreshold = 30

// Host is the polling/debounce state shared by every native source. A
// concrete driver embeds it and calls Due/RecordResult on its own poll
// schedule.
type Host struct {
	SourceAddress uint8
	Instance      uint8
	PollInterval  time.Duration

	// Submit delivers a decoded event. Never retained beyond the call.
	Submit func(canonical.Event)

	lastPoll   time.Time
	failures   int
	connected  bool
	everPolled bool
}

// Due reports whether PollInterval has elapsed since the last poll, and
// advances the internal clock if so.
func (h *Host) Due(now time.Time) bool {
	if !h.everPolled {
		h.everPolled = true
		h.lastPoll = now
		return true
	}
	if now.Sub(h.lastPoll) < h.PollInterval {
		return false
	}
	h.lastPoll = now
	return true
}

// RecordResult updates the failure-streak debounce state for one poll and
// reports whether a disconnect transition just happened (only on the
// poll that crosses DisconnectThreshold consecutive failures).
func (h *Host) RecordResult(ok bool) bool {
	if ok {
		h.failures = 0
		h.connected = true
		return false
	}
	h.failures++
	if h.connected && h.failures >= DisconnectThreshold {
		h.connected = false
		return true
	}
	return false
}

// Connected reports the current debounced connection state.
func (h *Host) Connected() bool { return h.connected }

// NeutralEvent is the zeroed frame a driver submits on a real disconnect.
func (h *Host) NeutralEvent() canonical.Event {
	return canonical.Neutral(h.SourceAddress, h.Instance)
}
