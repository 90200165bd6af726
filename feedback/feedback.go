// Package feedback holds per-slot host-to-device state (rumble, player
// LED, RGB LED) per spec §4.6. Output-mode decoders are the writers;
// source drivers poll it from their Task and clear the dirty bit once
// they've transmitted. The dirty flag is the only synchronization between
// the two sides - there is no queue, only "latest state, send it".
package feedback

// State is one slot's accumulated host-to-device state.
type State struct {
	RumbleLeft  uint8
	RumbleRight uint8
	RumbleDirty bool

	LEDPlayer      uint8
	LEDPlayerDirty bool

	LEDRed, LEDGreen, LEDBlue uint8
	LEDRGBDirty               bool
}

// Service is the fixed-size per-target feedback table.
type Service struct {
	slots []State
}

// NewService returns a Service with capacity empty slots.
func NewService(capacity int) *Service {
	return &Service{slots: make([]State, capacity)}
}

func (s *Service) ensure(idx int) bool { return idx >= 0 && idx < len(s.slots) }

// SetRumble records a new rumble motor pair for idx and marks it dirty.
func (s *Service) SetRumble(idx int, left, right uint8) {
	if !s.ensure(idx) {
		return
	}
	s.slots[idx].RumbleLeft = left
	s.slots[idx].RumbleRight = right
	s.slots[idx].RumbleDirty = true
}

// SetLEDPlayer records a player-number LED pattern for idx and marks it dirty.
func (s *Service) SetLEDPlayer(idx int, n uint8) {
	if !s.ensure(idx) {
		return
	}
	s.slots[idx].LEDPlayer = n
	s.slots[idx].LEDPlayerDirty = true
}

// SetLEDRGB records an RGB LED color for idx and marks it dirty.
func (s *Service) SetLEDRGB(idx int, r, g, b uint8) {
	if !s.ensure(idx) {
		return
	}
	s.slots[idx].LEDRed = r
	s.slots[idx].LEDGreen = g
	s.slots[idx].LEDBlue = b
	s.slots[idx].LEDRGBDirty = true
}

// Get returns a copy of the feedback state for idx.
func (s *Service) Get(idx int) State {
	if !s.ensure(idx) {
		return State{}
	}
	return s.slots[idx]
}

// ClearDirty clears every dirty flag for idx; called by a driver after it
// has transmitted the current state to the device.
func (s *Service) ClearDirty(idx int) {
	if !s.ensure(idx) {
		return
	}
	s.slots[idx].RumbleDirty = false
	s.slots[idx].LEDPlayerDirty = false
	s.slots[idx].LEDRGBDirty = false
}

// RGBForPlayer derives a per-player identity color for outputs with an RGB
// LED instead of a 4-bit player-number pattern, supplementing the
// PLAYER_LEDS convention for hardware that only has one pixel to work
// with (single-pixel RGB identity LEDs).
func RGBForPlayer(n uint8) (r, g, b uint8) {
	ramp := [8][3]uint8{
		0: {0, 0, 0},
		1: {0, 80, 255},
		2: {255, 40, 0},
		3: {0, 220, 60},
		4: {230, 200, 0},
		5: {200, 0, 220},
		6: {0, 220, 220},
		7: {255, 255, 255},
	}
	c := ramp[n%8]
	return c[0], c[1], c[2]
}
