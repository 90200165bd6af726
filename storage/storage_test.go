package storage_test

import (
	"errors"
	"testing"
	"time"

	"github.com/padlink/padlink/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	data      []byte
	loadErr   error
	saveErr   error
	saveCalls int
}

func (m *memBackend) Load() ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *memBackend) Save(data []byte) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = data
	return nil
}

func TestOpenFirstRunDefaultsOnEmptyBackend(t *testing.T) {
	s := storage.Open(&memBackend{loadErr: errors.New("not found")})
	st := s.State()
	assert.Zero(t, st.Sequence)
	assert.Equal(t, 0, st.ActiveProfileIndex)
}

func TestOpenFirstRunDefaultsOnBadMagic(t *testing.T) {
	s := storage.Open(&memBackend{data: []byte{0xde, 0xad, 0xbe, 0xef}})
	assert.Zero(t, s.State().Sequence)
}

func TestUpdateDoesNotFlushImmediately(t *testing.T) {
	backend := &memBackend{loadErr: errors.New("empty")}
	s := storage.Open(backend)
	now := time.Now()

	s.Update(now, func(st *storage.State) { st.ActiveProfileIndex = 3 })
	assert.Equal(t, 0, backend.saveCalls, "Update alone must not touch the backend")
	assert.Equal(t, 3, s.State().ActiveProfileIndex)
}

func TestTaskFlushesAfterDebounceWindow(t *testing.T) {
	backend := &memBackend{loadErr: errors.New("empty")}
	s := storage.Open(backend)
	now := time.Now()

	s.Update(now, func(st *storage.State) { st.ActiveProfileIndex = 1 })
	require.NoError(t, s.Task(now.Add(1*time.Second)))
	assert.Equal(t, 0, backend.saveCalls, "debounce window has not elapsed yet")

	require.NoError(t, s.Task(now.Add(6*time.Second)))
	assert.Equal(t, 1, backend.saveCalls)
	assert.EqualValues(t, 1, s.State().Sequence)
}

func TestTaskRetriesAfterSaveFailure(t *testing.T) {
	backend := &memBackend{loadErr: errors.New("empty"), saveErr: errors.New("disk full")}
	s := storage.Open(backend)
	now := time.Now()

	s.Update(now, func(st *storage.State) { st.ActiveProfileIndex = 2 })
	err := s.Task(now.Add(6 * time.Second))
	require.Error(t, err)
	assert.Zero(t, s.State().Sequence, "a failed save must not advance the sequence")

	backend.saveErr = nil
	require.NoError(t, s.Task(now.Add(7*time.Second)))
	assert.EqualValues(t, 1, s.State().Sequence)
}

func TestRoundTripThroughRealBackendPreservesState(t *testing.T) {
	backend := &memBackend{loadErr: errors.New("empty")}
	s := storage.Open(backend)
	now := time.Now()
	s.Update(now, func(st *storage.State) {
		st.ActiveProfileIndex = 5
		st.WiimoteOrientMode = 2
		st.CustomProfiles = []storage.CustomProfile{{Name: "racing", Data: []byte{1, 2, 3}}}
	})
	require.NoError(t, s.Task(now.Add(6*time.Second)))

	reopened := storage.Open(backend)
	st := reopened.State()
	assert.Equal(t, 5, st.ActiveProfileIndex)
	assert.Equal(t, 2, st.WiimoteOrientMode)
	require.Len(t, st.CustomProfiles, 1)
	assert.Equal(t, "racing", st.CustomProfiles[0].Name)
}
