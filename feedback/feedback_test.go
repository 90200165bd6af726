package feedback_test

import (
	"testing"

	"github.com/padlink/padlink/feedback"
	"github.com/stretchr/testify/assert"
)

func TestSetRumbleMarksDirty(t *testing.T) {
	s := feedback.NewService(2)
	s.SetRumble(0, 120, 200)

	st := s.Get(0)
	assert.EqualValues(t, 120, st.RumbleLeft)
	assert.EqualValues(t, 200, st.RumbleRight)
	assert.True(t, st.RumbleDirty)
}

func TestClearDirtyResetsAllFlagsButKeepsValues(t *testing.T) {
	s := feedback.NewService(1)
	s.SetRumble(0, 50, 60)
	s.SetLEDPlayer(0, 2)
	s.SetLEDRGB(0, 10, 20, 30)

	s.ClearDirty(0)
	st := s.Get(0)
	assert.False(t, st.RumbleDirty)
	assert.False(t, st.LEDPlayerDirty)
	assert.False(t, st.LEDRGBDirty)
	assert.EqualValues(t, 50, st.RumbleLeft)
	assert.EqualValues(t, 2, st.LEDPlayer)
	assert.EqualValues(t, 30, st.LEDBlue)
}

func TestOutOfRangeIndexIsSafe(t *testing.T) {
	s := feedback.NewService(1)
	s.SetRumble(5, 1, 1)
	s.SetLEDPlayer(-1, 1)
	s.ClearDirty(99)
	assert.Equal(t, feedback.State{}, s.Get(5))
}

func TestRGBForPlayerWrapsAtEight(t *testing.T) {
	r1, g1, b1 := feedback.RGBForPlayer(1)
	r9, g9, b9 := feedback.RGBForPlayer(9)
	assert.Equal(t, r1, r9)
	assert.Equal(t, g1, g9)
	assert.Equal(t, b1, b9)
}
