// Package display implements the 64x32 monochrome framebuffer written by the
// interpreter and read by a UI.
package display

import (
	"strings"
	"sync"
)

const (
	Width  = 64
	Height = 32
)

// Frame is a full copy of the framebuffer. Frame[y][x] is true if the pixel
// is set.
type Frame [Height][Width]bool

// String renders the frame as ASCII art with a border.
func (f Frame) String() string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", Width) + "+\n"
	b.WriteString(border)
	for _, row := range f {
		b.WriteByte('|')
		for _, px := range row {
			if px {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}

// Lit returns the number of set pixels.
func (f Frame) Lit() int {
	n := 0
	for _, row := range f {
		for _, px := range row {
			if px {
				n++
			}
		}
	}
	return n
}

// Display is a framebuffer guarded for concurrent use. Every mutation is
// atomic with respect to Snapshot.
type Display struct {
	mu      sync.RWMutex
	frame   Frame
	version uint64 // incremented on every mutation
}

// New returns a cleared display.
func New() *Display {
	return &Display{}
}

// Clear zeroes every pixel.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = Frame{}
	d.version++
}

// Blit XORs one 8-pixel sprite row onto the frame at (x, y), wrapping at the
// edges. It reports whether any set pixel was cleared.
func (d *Display) Blit(row byte, x, y int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version++
	return d.blit(row, x, y)
}

// DrawSprite blits every row of sprite starting at (x, y) under a single
// lock, so readers never see a partially drawn sprite. It reports whether any
// set pixel was cleared.
func (d *Display) DrawSprite(sprite []byte, x, y int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version++
	collision := false
	for i, row := range sprite {
		if d.blit(row, x, y+i) {
			collision = true
		}
	}
	return collision
}

func (d *Display) blit(row byte, x, y int) bool {
	collision := false
	py := wrap(y, Height)
	for bit := 0; bit < 8; bit++ {
		if row&(0x80>>bit) == 0 {
			continue
		}
		px := wrap(x+bit, Width)
		if d.frame[py][px] {
			collision = true
		}
		d.frame[py][px] = !d.frame[py][px]
	}
	return collision
}

// Snapshot returns a copy of the whole frame.
func (d *Display) Snapshot() Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frame
}

// Version returns a counter that changes whenever the frame may have
// changed. UIs use it to skip redundant redraws.
func (d *Display) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// SnapshotIfChanged returns the frame and its version when the version
// differs from since.
func (d *Display) SnapshotIfChanged(since uint64) (Frame, uint64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.version == since {
		return Frame{}, since, false
	}
	return d.frame, d.version, true
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
