// Package outputmode defines the common shape every emulated USB console
// (spec §4.9) implements, and the compiled-in mode list the mode-switch
// hotkey cycles through.
package outputmode

import (
	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/usb"
)

// Mode is one emulated console's USB personality: its descriptors, how it
// turns a profile output into a wire report, and how it decodes
// host-to-device reports back into the feedback service.
type Mode interface {
	Name() string

	// Descriptor returns the device/configuration/HID report descriptor
	// set this mode advertises over USB.
	Descriptor() *usb.Descriptor

	// SendReport populates this mode's input-report layout for one port
	// from a profile-transformed frame and the raw canonical buttons (for
	// fields the profile pipeline does not carry, like battery).
	SendReport(port int, out profile.Output, raw canonical.Event) []byte

	// HandleOutput decodes a host-to-device report (rumble, LED, ...) for
	// a port and applies it to fb.
	HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service)
}

// Registry is the compiled-in, ordered mode list the mode-switch facility
// cycles through on a user hotkey (spec §4.9 "mode-switch facility").
type Registry struct {
	modes []Mode
	index int
}

// NewRegistry returns a Registry over modes, in cycle order.
func NewRegistry(modes ...Mode) *Registry { return &Registry{modes: modes} }

// Current returns the active mode.
func (r *Registry) Current() Mode {
	if len(r.modes) == 0 {
		return nil
	}
	return r.modes[r.index]
}

// Next advances to the next compiled-in mode, wrapping around, and
// returns it. It only changes the selection: neither Next nor
// Engine.CycleOutputMode resets the USB bus or re-enumerates devices.
func (r *Registry) Next() Mode {
	if len(r.modes) == 0 {
		return nil
	}
	r.index = (r.index + 1) % len(r.modes)
	return r.Current()
}

// Set selects a mode by name; returns false if not found.
func (r *Registry) Set(name string) bool {
	for i, m := range r.modes {
		if m.Name() == name {
			r.index = i
			return true
		}
	}
	return false
}
