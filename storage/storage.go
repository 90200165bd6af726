// Package storage persists engine settings to a keyed blob store (spec
// §6): a single versioned blob, debounced 5s, with a monotonic sequence
// bumped on every accepted save. A magic mismatch or read error is
// treated as first-run defaults, never a fatal error (spec §7).
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"
)

// Magic identifies a valid blob; any other value (including "key not
// found") is treated as first-run.
const Magic uint32 = 0x47435052

const debouncePeriod = 5 * time.Second

// CustomProfile is one user-saved profile, persisted by name.
type CustomProfile struct {
	Name string
	Data []byte // opaque profile encoding, owned by the profile package
}

// State is the single persisted blob (spec §6's external-interface layout).
type State struct {
	Sequence          uint64
	ActiveProfileIndex int
	CustomProfiles    []CustomProfile
	WiimoteOrientMode int
}

// Backend is the keyed blob store collaborator (flash, file, NVRAM...);
// out of scope for this module (spec §1) beyond this narrow interface.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Store debounces writes and tracks the monotonic sequence.
type Store struct {
	backend Backend
	state   State
	dirty   bool
	dueAt   time.Time
}

// Open loads the current blob from backend, falling back to defaults on
// any read error or magic mismatch.
func Open(backend Backend) *Store {
	s := &Store{backend: backend, state: State{ActiveProfileIndex: 0}}
	raw, err := backend.Load()
	if err != nil {
		return s
	}
	st, ok := decode(raw)
	if !ok {
		return s
	}
	s.state = st
	return s
}

// State returns a copy of the current in-memory state.
func (s *Store) State() State { return s.state }

// Update mutates the in-memory state via fn and schedules a debounced
// save; it does not itself touch the backend.
func (s *Store) Update(now time.Time, fn func(*State)) {
	fn(&s.state)
	s.dirty = true
	s.dueAt = now.Add(debouncePeriod)
}

// Task is called once per main-loop tick; it flushes to the backend once
// the debounce window has elapsed since the last Update. A save failure
// is logged by the caller and left pending - the next Update (or the next
// Task call while still dirty) will retry.
func (s *Store) Task(now time.Time) error {
	if !s.dirty || now.Before(s.dueAt) {
		return nil
	}
	s.state.Sequence++
	if err := s.backend.Save(encode(s.state)); err != nil {
		s.state.Sequence-- // failed save does not advance the sequence
		return err
	}
	s.dirty = false
	return nil
}

func encode(st State) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, Magic)
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(st)
	return buf.Bytes()
}

func decode(raw []byte) (State, bool) {
	if len(raw) < 4 {
		return State{}, false
	}
	if binary.LittleEndian.Uint32(raw[:4]) != Magic {
		return State{}, false
	}
	var st State
	dec := gob.NewDecoder(bytes.NewReader(raw[4:]))
	if err := dec.Decode(&st); err != nil {
		return State{}, false
	}
	return st, true
}
