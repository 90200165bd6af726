// buttons.go supplements the distilled spec with the NEOGEO button
// aliasing layer original_source's neogeo_buttons.h carries: profiles
// reference console-specific names (NEOGEO_B1..B4, NEOGEO_START,
// NEOGEO_SELECT, the joystick directions) rather than raw GPIO line
// numbers, the same indirection usb2gc/profiles.h uses for GameCube.
package neogeo

import "github.com/padlink/padlink/canonical"

// Alias names one NEOGEO DB15 signal line by its console role rather than
// its GPIO offset.
type Alias uint8

const (
	AliasUp Alias = iota
	AliasDown
	AliasLeft
	AliasRight
	AliasB1
	AliasB2
	AliasB3
	AliasB4
	AliasStart
	AliasSelect
	aliasCount
)

// canonicalFor maps each alias to the canonical button it represents.
var canonicalFor = [aliasCount]canonical.Buttons{
	AliasUp:     canonical.DU,
	AliasDown:   canonical.DD,
	AliasLeft:   canonical.DL,
	AliasRight:  canonical.DR,
	AliasB1:     canonical.B1,
	AliasB2:     canonical.B2,
	AliasB3:     canonical.B3,
	AliasB4:     canonical.B4,
	AliasStart:  canonical.S2,
	AliasSelect: canonical.S1,
}

// DefaultWiring gives each alias's bit position in the matrix mask a
// platform's GPIO scan normally produces; a board-specific wiring table
// can override this at driver construction.
var DefaultWiring = [aliasCount]uint8{
	AliasUp: 0, AliasDown: 1, AliasLeft: 2, AliasRight: 3,
	AliasB1: 4, AliasB2: 5, AliasB3: 6, AliasB4: 7,
	AliasStart: 8, AliasSelect: 9,
}
