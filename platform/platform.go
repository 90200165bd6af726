// Package platform is the hardware abstraction layer the engine's main
// loop runs on: time source, unique board identity, and power control.
// Grounded on joypad-os's platform.h HAL, it trades the embedded
// millisecond/microsecond wraparound counters for monotonic time.Duration
// values and a host-process machine ID since this module runs as a
// regular OS process rather than on bare metal.
package platform

import (
	"crypto/rand"
	"time"

	"golang.org/x/sys/unix"
)

// Platform is the HAL surface every engine component depends on instead
// of touching the OS clock or process control directly.
type Platform interface {
	// Now returns the current monotonic time.
	Now() time.Time
	// Sleep blocks for d; never called from the run-loop task itself
	// (spec §5 forbids blocking there), only from standalone pollers.
	Sleep(d time.Duration)
	// UniqueID returns a stable per-device identifier, used to seed
	// Bluetooth identity and default profile naming.
	UniqueID() [8]byte
	// Reboot restarts the process; RebootBootloader is meaningless on a
	// hosted OS and is a no-op here (the embedded distinction collapses).
	Reboot()
	RebootBootloader()
}

// Host is the Platform implementation for this module's hosted-OS target.
type Host struct {
	id       [8]byte
	hasID    bool
	rebooter func()
}

// NewHost returns a Host HAL. rebooter is called by Reboot; a nil
// rebooter makes Reboot a no-op, useful in tests.
func NewHost(rebooter func()) *Host {
	h := &Host{rebooter: rebooter}
	h.id, h.hasID = readUniqueID()
	return h
}

func (h *Host) Now() time.Time { return time.Now() }

func (h *Host) Sleep(d time.Duration) { time.Sleep(d) }

func (h *Host) UniqueID() [8]byte {
	if h.hasID {
		return h.id
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	return b
}

func (h *Host) Reboot() {
	if h.rebooter != nil {
		h.rebooter()
	}
}

func (h *Host) RebootBootloader() { h.Reboot() }

// readUniqueID derives an 8-byte identity from the kernel's machine-id
// via uname, falling back to "no id" when unavailable (e.g. non-Linux).
func readUniqueID() ([8]byte, bool) {
	var b [8]byte
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return b, false
	}
	copy(b[:], uts.Machine[:])
	return b, true
}
