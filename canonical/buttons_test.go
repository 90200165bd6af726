package canonical_test

import (
	"testing"

	"github.com/padlink/padlink/canonical"
	"github.com/stretchr/testify/assert"
)

func TestButtonsHas(t *testing.T) {
	b := canonical.B1 | canonical.DU
	assert.True(t, b.Has(canonical.B1))
	assert.True(t, b.Has(canonical.B1|canonical.DU))
	assert.False(t, b.Has(canonical.B1|canonical.B2))
}

func TestButtonsAny(t *testing.T) {
	b := canonical.B1
	assert.True(t, b.Any(canonical.B1|canonical.B2))
	assert.False(t, b.Any(canonical.B2|canonical.B3))
}

func TestPlayerLEDsDistinctUpToFour(t *testing.T) {
	seen := map[uint8]bool{}
	for i := 1; i <= 4; i++ {
		pattern := canonical.PlayerLEDs[i]
		assert.False(t, seen[pattern], "player %d pattern %04b collides with an earlier player", i, pattern)
		seen[pattern] = true
	}
}
