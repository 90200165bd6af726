package platform_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/platform"
	"github.com/stretchr/testify/assert"
)

func TestNewHostNilRebooterIsSafeNoOp(t *testing.T) {
	h := platform.NewHost(nil)
	assert.NotPanics(t, func() { h.Reboot() })
	assert.NotPanics(t, func() { h.RebootBootloader() })
}

func TestRebootInvokesRebooter(t *testing.T) {
	calls := 0
	h := platform.NewHost(func() { calls++ })
	h.Reboot()
	assert.Equal(t, 1, calls)
}

func TestRebootBootloaderCollapsesToReboot(t *testing.T) {
	calls := 0
	h := platform.NewHost(func() { calls++ })
	h.RebootBootloader()
	assert.Equal(t, 1, calls)
}

func TestUniqueIDIsStableAcrossCalls(t *testing.T) {
	h := platform.NewHost(nil)
	a := h.UniqueID()
	b := h.UniqueID()
	assert.Equal(t, a, b)
}

func TestNowReturnsCurrentTime(t *testing.T) {
	h := platform.NewHost(nil)
	before := time.Now()
	now := h.Now()
	after := time.Now()
	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}
