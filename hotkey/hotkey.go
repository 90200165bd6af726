// Package hotkey implements the combo/hotkey/cheat-code detector of spec
// §4.8, grounded on the rolling per-player hold-state machine used by
// joypad-os's hotkey service: idle/holding states per definition, with
// on_tap/on_hold/on_release triggers evaluated against elapsed hold time.
package hotkey

import (
	"time"

	"github.com/padlink/padlink/canonical"
)

// Trigger selects when a Def fires relative to the hold.
type Trigger uint8

const (
	// OnTap fires when the combo releases before DurationMs elapses.
	OnTap Trigger = iota
	// OnHold fires once, the instant DurationMs elapses while still held.
	OnHold
	// OnRelease fires when the combo releases at or after DurationMs.
	OnRelease
)

// Scope selects whether a Def matches one player's buttons or the OR of
// every player's buttons (system-wide hotkeys: BT scan, mode cycle).
type Scope uint8

const (
	ScopePerPlayer Scope = iota
	ScopeGlobal
)

// Def is one registered combo.
type Def struct {
	Name       string
	Buttons    canonical.Buttons
	Trigger    Trigger
	DurationMs int64
	Scope      Scope
}

type holdState struct {
	held      bool
	startTime time.Time
	triggered bool
}

// Detector tracks rolling hold state per (def, player) pair and fires
// callbacks through Check.
type Detector struct {
	defs []Def
	// state is keyed by def index, then by player index. A global def keeps
	// its single entry under player index -1 in its inner map. Per-player
	// defs get one inner entry per actual player index.
	state map[int]map[int]*holdState
}

// NewDetector returns a Detector with no registered combos.
func NewDetector() *Detector {
	return &Detector{state: map[int]map[int]*holdState{}}
}

// Register adds a combo definition and returns its index, used to
// identify it in Check callbacks.
func (d *Detector) Register(def Def) int {
	d.defs = append(d.defs, def)
	d.state[len(d.defs)-1] = map[int]*holdState{}
	return len(d.defs) - 1
}

// Unregister removes a combo by index.
func (d *Detector) Unregister(idx int) {
	if idx < 0 || idx >= len(d.defs) {
		return
	}
	d.defs[idx] = Def{}
	delete(d.state, idx)
}

// Clear removes every registered combo.
func (d *Detector) Clear() {
	d.defs = nil
	d.state = map[int]map[int]*holdState{}
}

// ResetPlayer drops hold state for one player across every def, used on
// player disconnect so a stale hold doesn't fire after reconnect.
func (d *Detector) ResetPlayer(player int) {
	for _, byPlayer := range d.state {
		delete(byPlayer, player)
	}
}

// Fire is invoked once per matched trigger: the def index, the owning
// player (or -1 for a global def), and the def itself.
type Fire func(idx int, player int, def Def)

// Check evaluates every registered combo against one player's current
// button state (buttons_match is bitwise AND-equality against the def's
// required buttons) plus, for global defs, globalButtons (the OR of every
// player's buttons). now is the monotonic time for this tick.
func (d *Detector) Check(player int, buttons canonical.Buttons, globalButtons canonical.Buttons, now time.Time, fire Fire) {
	for idx, def := range d.defs {
		if def.Buttons == 0 {
			continue // unregistered slot
		}
		key := player
		test := buttons
		if def.Scope == ScopeGlobal {
			key = -1
			test = globalButtons
		}
		byPlayer := d.state[idx]
		st, ok := byPlayer[key]
		if !ok {
			st = &holdState{}
			byPlayer[key] = st
		}

		matches := test&def.Buttons == def.Buttons
		switch {
		case matches && !st.held:
			st.held = true
			st.startTime = now
			st.triggered = false
		case matches && st.held:
			elapsed := now.Sub(st.startTime).Milliseconds()
			if def.Trigger == OnHold && !st.triggered && elapsed >= def.DurationMs {
				st.triggered = true
				fire(idx, key, def)
			}
		case !matches && st.held:
			elapsed := now.Sub(st.startTime).Milliseconds()
			st.held = false
			if st.triggered {
				break
			}
			switch def.Trigger {
			case OnTap:
				if elapsed < def.DurationMs {
					fire(idx, key, def)
				}
			case OnRelease:
				if elapsed >= def.DurationMs {
					fire(idx, key, def)
				}
			}
		}
	}
}
