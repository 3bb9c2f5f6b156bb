// Package joypad emulates the multiplexed 8-button latch behind FF00.
// The CPU picks a matrix half through the select bits; reads synthesize
// the active-low status nibble for the selected half.
package joypad

// Button names one of the eight physical inputs.
type Button int

const (
	Right Button = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

const (
	selDirections = 0x10 // FF00 bit 4
	selButtons    = 0x20 // FF00 bit 5
)

// Joypad latches the select bits and the pressed state of all eight
// buttons. A released-to-pressed edge on a currently selected half
// requests the joypad interrupt (IF bit 4) via the callback.
type Joypad struct {
	sel     byte // bits 5-4 as last written
	pressed byte // bit per Button, 1 = held

	request func()
}

func New(request func()) *Joypad {
	return &Joypad{request: request}
}

// Read returns FF00: upper bits high, the latched select bits, and the
// electrical 0-is-pressed nibble for whichever halves are selected.
func (j *Joypad) Read() byte {
	return 0xC0 | j.sel | ^j.nibble()&0x0F
}

// Write latches both select bits; the status nibble is read-only.
func (j *Joypad) Write(value byte) {
	j.sel = value & (selDirections | selButtons)
}

// Press marks the button held and raises the joypad interrupt if its
// matrix half is selected and the button was previously released.
func (j *Joypad) Press(b Button) {
	bit := byte(1) << uint(b)
	wasReleased := j.pressed&bit == 0
	j.pressed |= bit
	if wasReleased && j.selected(b) && j.request != nil {
		j.request()
	}
}

// Release marks the button up. Releases never interrupt.
func (j *Joypad) Release(b Button) {
	j.pressed &^= byte(1) << uint(b)
}

func (j *Joypad) selected(b Button) bool {
	if b <= Down {
		return j.sel&selDirections != 0
	}
	return j.sel&selButtons != 0
}

// nibble composes the 4-bit pressed mask of the selected halves,
// 1 = held. Both halves OR together when both are selected.
func (j *Joypad) nibble() byte {
	var n byte
	if j.sel&selDirections != 0 {
		if j.held(Right) {
			n |= 0x01
		}
		if j.held(Left) {
			n |= 0x02
		}
		if j.held(Up) {
			n |= 0x04
		}
		if j.held(Down) {
			n |= 0x08
		}
	}
	if j.sel&selButtons != 0 {
		if j.held(A) {
			n |= 0x01
		}
		if j.held(B) {
			n |= 0x02
		}
		if j.held(Select) {
			n |= 0x04
		}
		if j.held(Start) {
			n |= 0x08
		}
	}
	return n
}

func (j *Joypad) held(b Button) bool {
	return j.pressed&(1<<uint(b)) != 0
}

// AnyPressed reports whether any button is currently held. The CPU's
// STOP state polls this to decide when to wake.
func (j *Joypad) AnyPressed() bool { return j.pressed != 0 }
