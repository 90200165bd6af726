package hotkey_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/hotkey"
	"github.com/stretchr/testify/require"
)

func TestOnTapFiresOnQuickRelease(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "tap", Buttons: canonical.S1 | canonical.S2, Trigger: hotkey.OnTap, DurationMs: 500})

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S1|canonical.S2, 0, t0, fire)
	require.Empty(t, fired, "no fire while still held")

	d.Check(0, 0, 0, t0.Add(100*time.Millisecond), fire)
	require.Equal(t, []int{idx}, fired)
}

func TestOnTapDoesNotFireAfterDuration(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "tap", Buttons: canonical.S1, Trigger: hotkey.OnTap, DurationMs: 200})
	_ = idx

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S1, 0, t0, fire)
	d.Check(0, 0, 0, t0.Add(500*time.Millisecond), fire)
	require.Empty(t, fired, "held past duration should not count as a tap")
}

func TestOnHoldFiresOnceWhenDurationElapsesStillHeld(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "hold", Buttons: canonical.S1, Trigger: hotkey.OnHold, DurationMs: 300})

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S1, 0, t0, fire)
	require.Empty(t, fired)

	d.Check(0, canonical.S1, 0, t0.Add(400*time.Millisecond), fire)
	require.Equal(t, []int{idx}, fired)

	// still held past the threshold: must not fire again.
	d.Check(0, canonical.S1, 0, t0.Add(800*time.Millisecond), fire)
	require.Equal(t, []int{idx}, fired)
}

func TestOnReleaseRequiresMinimumHold(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "release", Buttons: canonical.S2, Trigger: hotkey.OnRelease, DurationMs: 200})

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S2, 0, t0, fire)
	d.Check(0, 0, 0, t0.Add(100*time.Millisecond), fire)
	require.Empty(t, fired, "release before duration elapsed should not fire")

	d.Check(0, canonical.S2, 0, t0.Add(200*time.Millisecond), fire)
	d.Check(0, 0, 0, t0.Add(500*time.Millisecond), fire)
	require.Equal(t, []int{idx}, fired)
}

func TestGlobalScopeUsesGlobalButtons(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "global", Buttons: canonical.A1, Trigger: hotkey.OnTap, DurationMs: 500, Scope: hotkey.ScopeGlobal})

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	// per-player buttons do not include A1: must not arm even though player
	// buttons are nonzero.
	d.Check(0, canonical.B1, 0, t0, fire)
	d.Check(0, 0, canonical.A1, t0.Add(50*time.Millisecond), fire)

	// arm via global buttons, then release.
	d.Check(0, 0, canonical.A1, t0.Add(100*time.Millisecond), fire)
	d.Check(0, 0, 0, t0.Add(150*time.Millisecond), fire)
	require.Equal(t, []int{idx}, fired)
}

func TestResetPlayerDropsHoldState(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "tap", Buttons: canonical.S1, Trigger: hotkey.OnTap, DurationMs: 500})

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S1, 0, t0, fire)
	d.ResetPlayer(0)
	// after reset, releasing looks like a fresh "never held" state, not a tap.
	d.Check(0, 0, 0, t0.Add(50*time.Millisecond), fire)
	require.Empty(t, fired)
	_ = idx
}

func TestUnregisterStopsFutureMatches(t *testing.T) {
	d := hotkey.NewDetector()
	idx := d.Register(hotkey.Def{Name: "tap", Buttons: canonical.S1, Trigger: hotkey.OnTap, DurationMs: 500})
	d.Unregister(idx)

	t0 := time.Now()
	var fired []int
	fire := func(i, player int, def hotkey.Def) { fired = append(fired, i) }

	d.Check(0, canonical.S1, 0, t0, fire)
	d.Check(0, 0, 0, t0.Add(50*time.Millisecond), fire)
	require.Empty(t, fired)
}
