package canonical

// Buttons is a named bitfield over the semantic button vocabulary shared by
// every driver and output mode. All drivers, regardless of source wire
// protocol, normalize into this set before the event reaches the router.
type Buttons uint32

const (
	DU Buttons = 1 << iota // D-pad up
	DR                     // D-pad right
	DD                     // D-pad down
	DL                     // D-pad left

	B1 // face south (A / Cross)
	B2 // face east (B / Circle)
	B3 // face west (X / Square)
	B4 // face north (Y / Triangle)

	L1 // left shoulder
	R1 // right shoulder
	L2 // left trigger (digital)
	R2 // right trigger (digital)

	S1 // select / back / minus
	S2 // start / options / plus

	L3 // left stick click
	R3 // right stick click

	A1 // system button (PS / guide / home)
	A2 // extra 1 (back paddle / touchpad click)
	A3 // extra 2
	A4 // extra 3
)

// Has reports whether all bits of mask are set in b.
func (b Buttons) Has(mask Buttons) bool { return b&mask == mask }

// Any reports whether any bit of mask is set in b.
func (b Buttons) Any(mask Buttons) bool { return b&mask != 0 }

// dpadMask isolates the four D-pad direction bits.
const dpadMask = DU | DR | DD | DL

// PlayerLEDs gives the canonical 4-bit LED pattern for player indices 1-7
// (index 0 is unused; slot numbering in this package is zero-based but LED
// patterns are conventionally indexed from player 1). Downstream feedback
// encoders shift or rotate these bits as their hardware requires - the
// values here are a contract, not a hardware binding.
var PlayerLEDs = [8]uint8{
	0: 0b0000,
	1: 0b0001,
	2: 0b0010,
	3: 0b0100,
	4: 0b1000,
	5: 0b1001,
	6: 0b1010,
	7: 0b1100,
}
