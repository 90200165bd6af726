// Package player owns the fixed-size slot table mapping physical sources
// (source_address, instance) to output port numbers, per spec §4.5.
package player

// Mode selects what happens to higher slots when one disconnects.
type Mode uint8

const (
	// ModeFixed leaves a disconnected slot empty; reconnects fill the
	// first empty slot rather than appending.
	ModeFixed Mode = iota
	// ModeShiftOnDisconnect compacts the table on disconnect so ports stay
	// contiguous from zero; new connections always land at the tail.
	ModeShiftOnDisconnect
)

// Slot is one entry in the player table.
type Slot struct {
	SourceAddress uint8
	Instance      uint8
	Connected     bool
}

// Manager is the slot table for one output target.
type Manager struct {
	mode  Mode
	slots []Slot
}

// NewManager returns a Manager with capacity empty slots.
func NewManager(mode Mode, capacity int) *Manager {
	return &Manager{mode: mode, slots: make([]Slot, capacity)}
}

// Find returns the slot index for (source, instance), or -1.
func (m *Manager) Find(source, instance uint8) int {
	for i, s := range m.slots {
		if s.Connected && s.SourceAddress == source && s.Instance == instance {
			return i
		}
	}
	return -1
}

// FindOrAssign returns the existing slot for (source, instance); if none
// exists and triggerEvent is true, it allocates the first empty slot.
// Returns -1 if there is no existing slot and triggerEvent is false, or
// the table is full.
func (m *Manager) FindOrAssign(source, instance uint8, triggerEvent bool) int {
	if idx := m.Find(source, instance); idx >= 0 {
		return idx
	}
	if !triggerEvent {
		return -1
	}
	for i, s := range m.slots {
		if !s.Connected {
			m.slots[i] = Slot{SourceAddress: source, Instance: instance, Connected: true}
			return i
		}
	}
	return -1
}

// RemoveBySource clears the slot owned by (source, instance), if any, and
// applies the manager's disconnect policy.
func (m *Manager) RemoveBySource(source, instance uint8) {
	idx := m.Find(source, instance)
	if idx < 0 {
		return
	}
	switch m.mode {
	case ModeShiftOnDisconnect:
		copy(m.slots[idx:], m.slots[idx+1:])
		m.slots[len(m.slots)-1] = Slot{}
	default:
		m.slots[idx] = Slot{}
	}
}

// Count returns the number of currently connected slots.
func (m *Manager) Count() int {
	n := 0
	for _, s := range m.slots {
		if s.Connected {
			n++
		}
	}
	return n
}

// Slot returns a copy of the slot at idx, or the zero Slot if out of range.
func (m *Manager) Slot(idx int) Slot {
	if idx < 0 || idx >= len(m.slots) {
		return Slot{}
	}
	return m.slots[idx]
}

// Len returns the table's fixed capacity.
func (m *Manager) Len() int { return len(m.slots) }
