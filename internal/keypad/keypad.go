// Package keypad implements the 16-key hexadecimal input shared between a
// UI, which writes key transitions, and the interpreter, which reads them.
package keypad

import "sync"

// Keys is the number of keys on the keypad.
const Keys = 16

// State holds the pressed state of every key, indexed by key code.
type State [Keys]bool

// Keypad is safe for concurrent use.
type Keypad struct {
	mu      sync.RWMutex
	pressed State
	seq     uint64       // incremented on every released->pressed transition
	pressAt [Keys]uint64 // seq of each key's latest press
}

// New returns a keypad with all keys released.
func New() *Keypad {
	return &Keypad{}
}

// Set updates the state of key. Key codes outside 0x0-0xF are ignored and
// reported as false.
func (k *Keypad) Set(key uint8, pressed bool) bool {
	if key >= Keys {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if pressed && !k.pressed[key] {
		k.seq++
		k.pressAt[key] = k.seq
	}
	k.pressed[key] = pressed
	return true
}

// Release releases every key.
func (k *Keypad) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed = State{}
}

// Pressed reports whether key is currently held down.
func (k *Keypad) Pressed(key uint8) bool {
	if key >= Keys {
		return false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pressed[key]
}

// Snapshot returns the state of all keys.
func (k *Keypad) Snapshot() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pressed
}

// Watermark returns a mark identifying the most recent key press. Pass it to
// PressedAfter to observe only presses that happen later.
func (k *Keypad) Watermark() uint64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.seq
}

// PressedAfter returns the first key pressed after mark, if any. It never
// blocks; callers waiting for a key poll it.
func (k *Keypad) PressedAfter(mark uint64) (uint8, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var (
		key   uint8
		first uint64
	)
	for i, at := range k.pressAt {
		if at > mark && (first == 0 || at < first) {
			key, first = uint8(i), at
		}
	}
	return key, first != 0
}
