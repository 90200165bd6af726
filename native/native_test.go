package native_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/native"
	"github.com/stretchr/testify/assert"
)

func TestDueFiresImmediatelyOnFirstCall(t *testing.T) {
	h := &native.Host{PollInterval: time.Second}
	assert.True(t, h.Due(time.Now()))
}

func TestDueRespectsPollInterval(t *testing.T) {
	h := &native.Host{PollInterval: time.Second}
	now := time.Now()
	h.Due(now)
	assert.False(t, h.Due(now.Add(500*time.Millisecond)))
	assert.True(t, h.Due(now.Add(1100*time.Millisecond)))
}

func TestRecordResultResetsFailuresOnSuccess(t *testing.T) {
	h := &native.Host{}
	h.RecordResult(true)
	assert.True(t, h.Connected())
	for i := 0; i < native.DisconnectThreshold-1; i++ {
		h.RecordResult(false)
	}
	assert.True(t, h.Connected(), "not yet crossed the disconnect threshold")
	h.RecordResult(true)
	assert.True(t, h.Connected())
}

func TestRecordResultSignalsDisconnectOnlyOnThresholdCrossing(t *testing.T) {
	h := &native.Host{}
	h.RecordResult(true)
	for i := 0; i < native.DisconnectThreshold-1; i++ {
		assert.False(t, h.RecordResult(false))
	}
	assert.True(t, h.RecordResult(false), "the failure that crosses the threshold signals disconnect")
	assert.False(t, h.Connected())
	assert.False(t, h.RecordResult(false), "already disconnected, no repeated transition signal")
}

func TestNeutralEventCarriesSourceIdentity(t *testing.T) {
	h := &native.Host{SourceAddress: 5, Instance: 2}
	ev := h.NeutralEvent()
	assert.EqualValues(t, 5, ev.SourceAddress)
	assert.EqualValues(t, 2, ev.Instance)
	assert.Zero(t, ev.Buttons)
}
