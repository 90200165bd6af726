// Package driver defines the per-vendor driver contract (spec §4.3) and
// the ordered, first-match-wins registry every driver is installed into.
//
// The concrete HCI/L2CAP/GATT and USB transports are out of scope (spec
// §1): a driver only ever talks to its Connection's Link, an outbound byte
// sink. Everything else - connection bring-up retries, report decoding,
// keepalives - lives in the driver itself.
package driver

import (
	"time"

	"github.com/padlink/padlink/canonical"
)

// Link is the minimal outbound transport a driver needs: send one output
// report (rumble, LED, memory read/write command, ...) to the physical
// device. Implementations live in the out-of-scope transport layer
// (spec §1); sends never block the caller.
type Link interface {
	Send(data []byte) error
}

// Match is what a driver's Match method is asked to decide on for an
// incoming connection.
type Match struct {
	Name  string
	CoD   uint32
	VID   uint16
	PID   uint16
	IsBLE bool
}

// Connection is the per-physical-link record a driver is handed at Init
// and on every subsequent call. State is the driver's own per-instance
// data (cached report, state-machine step, calibration samples, ...); the
// driver is the only thing that ever reads or writes it.
type Connection struct {
	SourceAddress uint8
	Instance      uint8
	Transport     canonical.Transport
	Match         Match

	Link Link

	// Submit delivers a decoded canonical event to the router. Drivers call
	// it from ProcessReport or Task; never retained beyond the call.
	Submit func(canonical.Event)

	State any
}

// Driver implements one vendor/product's wire protocol, per spec §4.3.
type Driver interface {
	// Name identifies the driver for logging and profile selection.
	Name() string

	// Match decides whether this driver should own an incoming connection.
	Match(m Match) bool

	// Init attaches per-instance state to the connection. Returns false if
	// no slot is free (e.g. a fixed-size instance pool is exhausted).
	Init(c *Connection) bool

	// ProcessReport decodes one raw input/status report. If the driver's
	// connect state machine is not yet ready, the report may instead be
	// absorbed as an init response rather than producing an event.
	ProcessReport(c *Connection, data []byte)

	// Task runs on every main-loop tick: advances init state machines,
	// sends keepalives, polls feedback. Must never block.
	Task(c *Connection, now time.Time)

	// Disconnect releases per-instance state and clears router/player
	// assignment for this source.
	Disconnect(c *Connection)
}

// Registry holds drivers in registration order. The first driver whose
// Match returns true for an incoming connection owns it; a generic
// fallback driver should always be registered last.
type Registry struct {
	drivers []Driver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register appends d to the end of the match order.
func (r *Registry) Register(d Driver) { r.drivers = append(r.drivers, d) }

// Resolve returns the first registered driver matching m, or nil if none
// claims it (should not happen once a generic fallback is registered).
func (r *Registry) Resolve(m Match) Driver {
	for _, d := range r.drivers {
		if d.Match(m) {
			return d
		}
	}
	return nil
}

// All returns the drivers in registration order, for iterating Task calls
// across active connections grouped by driver.
func (r *Registry) All() []Driver {
	out := make([]Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}
