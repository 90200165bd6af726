// Package router implements spec §4.4: it takes canonical events from
// every connected source, resolves each to a target/port via the routing
// table and player manager, runs the active profile, and publishes the
// result for output-mode encoders to pick up on their own schedule.
package router

import (
	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/player"
	"github.com/padlink/padlink/profile"
)

// Mode selects how inputs of one kind map onto a target's ports.
type Mode uint8

const (
	// ModeSimple puts each source on the port the target's player manager
	// assigns it, exactly as ModeExplicit does; inputs are not pinned to
	// port 0.
	ModeSimple Mode = iota
	// ModeExplicit puts each source on the port the target's player manager
	// assigns it; there is no application-provided lookup table.
	ModeExplicit
	// ModeMerged collapses every input of a kind onto one shared slot on
	// the target, combining frames with canonical.Merge.
	ModeMerged
)

// Route is one routing-table entry.
type Route struct {
	SourceKind canonical.Kind
	Target     string
	Mode       Mode
}

// ExclusiveTap receives a profile output the instant it is produced,
// bypassing outputs[]; used by latency-critical native outputs (GPIO
// NEOGEO, joybus) that push state immediately rather than waiting on a
// periodic encoder tick.
type ExclusiveTap func(port int, out profile.Output)

type target struct {
	players  *player.Manager
	profile  *profile.Profile
	outputs  []profileSlot
	exclusive ExclusiveTap

	// mergedRaw holds the running pre-profile merge for a ModeMerged
	// route's shared slot (port 0): every inbound raw event is folded into
	// it with canonical.Merge until the published output is consumed
	// (ClearDirty), which resets the accumulation window.
	mergedRaw canonical.Event
}

type profileSlot struct {
	out   profile.Output
	dirty bool
}

// Router is the composition root for routing table, player slots, and
// published profile outputs. All of its state is owned by the single
// runtime task per spec §5; it is not safe for concurrent use.
type Router struct {
	routes  map[canonical.Kind]Route
	targets map[string]*target

	autoAssign bool
	lastButtons map[uint64]canonical.Buttons // (source<<8|instance) -> prior buttons, for edge detection
}

// New returns an empty Router. autoAssign controls whether an unrouted
// source gets a slot allocated on its first button-down transition.
func New(autoAssign bool) *Router {
	return &Router{
		routes:      map[canonical.Kind]Route{},
		targets:     map[string]*target{},
		autoAssign:  autoAssign,
		lastButtons: map[uint64]canonical.Buttons{},
	}
}

// AddTarget registers an output target by name with its player manager and
// active profile. portCount sets the size of the published-output array.
func (r *Router) AddTarget(name string, players *player.Manager, p *profile.Profile, portCount int) {
	r.targets[name] = &target{players: players, profile: p, outputs: make([]profileSlot, portCount)}
}

// SetExclusiveTap installs (or clears, with nil) the exclusive-tap
// callback for a target.
func (r *Router) SetExclusiveTap(targetName string, tap ExclusiveTap) {
	if t, ok := r.targets[targetName]; ok {
		t.exclusive = tap
	}
}

// SetRoute installs a routing-table entry for a source kind.
func (r *Router) SetRoute(kind canonical.Kind, rt Route) { r.routes[kind] = rt }

func edgeKey(source, instance uint8) uint64 { return uint64(source)<<8 | uint64(instance) }

// SubmitInput is the hot path (spec §4.4): resolve target/slot, run the
// profile, and either fire the exclusive tap or publish into outputs[].
func (r *Router) SubmitInput(e canonical.Event) {
	rt, ok := r.routes[e.Kind]
	if !ok {
		return
	}
	t, ok := r.targets[rt.Target]
	if !ok {
		return
	}

	key := edgeKey(e.SourceAddress, e.Instance)
	prior := r.lastButtons[key]
	transitioned := e.Buttons&^prior != 0
	r.lastButtons[key] = e.Buttons

	var port int
	switch rt.Mode {
	case ModeMerged:
		port = 0
	default:
		idx := t.players.FindOrAssign(e.SourceAddress, e.Instance, r.autoAssign && transitioned)
		if idx < 0 {
			return
		}
		port = idx
	}
	if port < 0 || port >= len(t.outputs) {
		return
	}

	src := e
	if rt.Mode == ModeMerged {
		if t.outputs[port].dirty {
			src = canonical.Merge(t.mergedRaw, e)
		}
		t.mergedRaw = src
	}

	out := profile.Apply(t.profile, src.Buttons, src.Analog, src.HasPressure, src.Pressure)

	if t.exclusive != nil {
		t.exclusive(port, out)
		return
	}
	t.outputs[port] = profileSlot{out: out, dirty: true}
}

// DeviceDisconnected replays a neutral event for the slot formerly owned
// by (source, instance) on every target, so the output side doesn't latch
// a stuck button, then releases the slot.
func (r *Router) DeviceDisconnected(source, instance uint8) {
	delete(r.lastButtons, edgeKey(source, instance))
	for _, t := range r.targets {
		idx := t.players.Find(source, instance)
		if idx < 0 {
			continue
		}
		t.outputs[idx] = profileSlot{out: profile.Output{LX: 128, LY: 128, RX: 128, RY: 128}, dirty: true}
		t.players.RemoveBySource(source, instance)
	}
}

// PortFor returns the port index a source currently owns on a target, or
// -1 if it holds no slot there. Used by output encoders that need to
// correlate a raw event (for fields the profile pipeline drops, like
// battery or motion) with the port its profile output landed on.
func (r *Router) PortFor(targetName string, source, instance uint8) int {
	t, ok := r.targets[targetName]
	if !ok {
		return -1
	}
	return t.players.Find(source, instance)
}

// Output returns the most recently published profile output for a
// target/port, and whether it is dirty (not yet consumed).
func (r *Router) Output(targetName string, port int) (profile.Output, bool) {
	t, ok := r.targets[targetName]
	if !ok || port < 0 || port >= len(t.outputs) {
		return profile.Output{}, false
	}
	return t.outputs[port].out, t.outputs[port].dirty
}

// ClearDirty marks a target/port's output as consumed.
func (r *Router) ClearDirty(targetName string, port int) {
	if t, ok := r.targets[targetName]; ok && port >= 0 && port < len(t.outputs) {
		t.outputs[port].dirty = false
	}
}

