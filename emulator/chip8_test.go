package emulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/keypad"
)

func program(words ...uint16) []byte {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return b
}

func stepN(t *testing.T, c *Chip8, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := c.Step()
		require.NoError(t, err)
	}
}

func TestNewLoadsImage(t *testing.T) {
	for _, size := range []int{1, 2, 100, MaxImageSize - 1, MaxImageSize} {
		image := make([]byte, size)
		for i := range image {
			image[i] = byte(i*7 + 1)
		}
		c := newTestChip8(t, image, Options{})
		assert.Equal(t, uint16(ProgramOffset), c.PC(), "size %d", size)
		assert.Equal(t, image, c.mem[ProgramOffset:ProgramOffset+size], "size %d", size)
		assert.Equal(t, characterSprites, c.mem[CharacterSpritesOffset:CharacterSpritesOffset+len(characterSprites)])
	}
}

func TestNewRejectsImage(t *testing.T) {
	tests := []struct {
		name  string
		image []byte
		err   error
	}{
		{"nil", nil, ErrEmptyImage},
		{"empty", []byte{}, ErrEmptyImage},
		{"too large", make([]byte, MaxImageSize+1), ErrImageTooLarge},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := New(test.image, display.New(), keypad.New(), Options{})
			assert.Nil(t, c)
			require.ErrorIs(t, err, test.err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, len(test.image), le.Size)
		})
	}
}

func TestAddSequence(t *testing.T) {
	c := newTestChip8(t, program(0x6005, 0x6103, 0x8014), Options{})
	stepN(t, c, 3)

	assert.Equal(t, uint8(8), c.v[0])
	assert.Equal(t, uint8(0), c.v[0xf])
	assert.Equal(t, uint16(ProgramOffset+6), c.PC())
}

func TestAddOverflow(t *testing.T) {
	c := newTestChip8(t, program(0x60F0, 0x6120, 0x8014), Options{})
	stepN(t, c, 3)

	assert.Equal(t, uint8(0x10), c.v[0])
	assert.Equal(t, uint8(1), c.v[0xf])
}

func TestDrawCollision(t *testing.T) {
	// Draw glyph 0 twice at the same place.
	c := newTestChip8(t, program(0x6000, 0xF029, 0xD005, 0xD005), Options{})
	stepN(t, c, 3)
	assert.Equal(t, uint8(0), c.v[0xf])
	assert.Equal(t, 14, frame(c).Lit())

	stepN(t, c, 1)
	assert.Equal(t, uint8(1), c.v[0xf])
	assert.Equal(t, 0, frame(c).Lit())
}

func TestCallRet(t *testing.T) {
	// 0x200 CALL 0x206; 0x202 LD V1,#01; 0x204 GOTO 204; 0x206 LD V0,#AA; 0x208 RET
	c := newTestChip8(t, program(0x2206, 0x6101, 0x1204, 0x60AA, 0x00EE), Options{})
	stepN(t, c, 4)

	assert.Equal(t, uint8(0xAA), c.v[0])
	assert.Equal(t, uint8(1), c.v[1])
	assert.Equal(t, uint16(0x204), c.PC())
	assert.Equal(t, uint8(0), c.sp)
}

func requireFault(t *testing.T, err error, code FaultCode, op, addr uint16) {
	t.Helper()
	require.ErrorIs(t, err, code)
	var f *Fault
	require.True(t, errors.As(err, &f))
	assert.Equal(t, code, f.Code)
	assert.Equal(t, op, f.Op)
	assert.Equal(t, addr, f.Addr)
}

func TestStackOverflow(t *testing.T) {
	c := newTestChip8(t, program(0x2200), Options{})
	stepN(t, c, StackDepth)
	assert.Equal(t, uint8(StackDepth), c.sp)

	_, err := c.Step()
	requireFault(t, err, StackOverflow, 0x2200, 0x200)
	assert.Equal(t, uint8(StackDepth), c.sp)
}

func TestStackUnderflow(t *testing.T) {
	c := newTestChip8(t, program(0x00EE), Options{})
	_, err := c.Step()
	requireFault(t, err, StackUnderflow, 0x00EE, 0x200)
}

func TestInvalidOpcode(t *testing.T) {
	for _, op := range []uint16{0x0123, 0x5121, 0x800F, 0x9AB1, 0xE000, 0xF0FF} {
		c := newTestChip8(t, program(op), Options{})
		_, err := c.Step()
		requireFault(t, err, InvalidOpcode, op, 0x200)
	}
}

func TestSkipInvalidOpcodes(t *testing.T) {
	c := newTestChip8(t, program(0xFFFF, 0x6042), Options{SkipInvalidOpcodes: true})
	state, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, uint16(0x202), c.PC())

	stepN(t, c, 1)
	assert.Equal(t, uint8(0x42), c.v[0])
	assert.Equal(t, []string{"200-FFFF DW   #FFFF", "202-6042 LD   V0,#42"}, c.Snapshot().History)
}

func TestMemoryOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		prog []byte
		step int
		op   uint16
		addr uint16
	}{
		{"store past end", program(0xAFFF, 0xF255), 1, 0xF255, 0x202},
		{"load past end", program(0xAFFE, 0xF265), 1, 0xF265, 0x202},
		{"bcd past end", program(0xAFFE, 0xF033), 1, 0xF033, 0x202},
		{"draw past end", program(0xAFFC, 0xD00F), 1, 0xD00F, 0x202},
		{"fetch past end", program(0x1FFF), 1, 0, 0xFFF},
		{"jump beyond memory", program(0x60FF, 0xBFFF), 2, 0, 0x10FE},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := newTestChip8(t, test.prog, Options{})
			stepN(t, c, test.step)
			_, err := c.Step()
			requireFault(t, err, MemoryOutOfBounds, test.op, test.addr)
		})
	}
}

func TestWaitForKey(t *testing.T) {
	c := newTestChip8(t, program(0xF30A, 0x6001), Options{})
	k := keys(c)

	// A key held before the wait began does not satisfy it.
	k.Set(4, true)

	state, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, WaitingForKey, state)

	for i := 0; i < 5; i++ {
		state, err = c.Step()
		require.NoError(t, err)
		assert.Equal(t, WaitingForKey, state)
		assert.Equal(t, uint16(0x202), c.PC())
	}

	k.Set(0xB, true)
	state, err = c.Step()
	require.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, uint8(0xB), c.v[3])
	assert.False(t, c.Waiting())

	stepN(t, c, 1)
	assert.Equal(t, uint8(1), c.v[0])
}

func TestWaitForKeyPressAndRelease(t *testing.T) {
	c := newTestChip8(t, program(0xF00A), Options{})
	stepN(t, c, 1)
	require.True(t, c.Waiting())

	// A press released before the next poll is still observed.
	keys(c).Set(2, true)
	keys(c).Set(2, false)
	state, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, uint8(2), c.v[0])
}

func TestDecrementTimers(t *testing.T) {
	c := newTestChip8(t, program(0x1200), Options{})
	c.dt, c.st = 10, 3

	c.DecrementTimers(1)
	assert.Equal(t, uint8(9), c.dt)
	assert.Equal(t, uint8(2), c.st)

	c.DecrementTimers(0)
	assert.Equal(t, uint8(9), c.dt)

	c.DecrementTimers(5)
	assert.Equal(t, uint8(4), c.dt)
	assert.Equal(t, uint8(0), c.st)
	assert.False(t, c.SoundActive())

	c.DecrementTimers(300)
	assert.Equal(t, uint8(0), c.dt)
}

func TestSnapshotHistory(t *testing.T) {
	words := make([]uint16, OpHistoryNum+2)
	for i := range words {
		words[i] = 0x6000 | uint16(i)
	}
	c := newTestChip8(t, program(words...), Options{})
	stepN(t, c, len(words))

	s := c.Snapshot()
	require.Len(t, s.History, OpHistoryNum)
	assert.Equal(t, "204-6002 LD   V0,#02", s.History[0])
	assert.Equal(t, "222-6011 LD   V0,#11", s.History[OpHistoryNum-1])
	assert.Equal(t, uint64(len(words)), s.Steps)
	assert.Equal(t, uint8(0x11), s.V[0])
	assert.Equal(t, uint16(0x200+2*len(words)), s.PC)
}

func TestOddJumpTargets(t *testing.T) {
	// The program counter is not forced even: execution continues from the
	// odd address and instructions straddle word boundaries.
	tests := []struct {
		name  string
		image []byte
		steps int
		pc    uint16
		reg   int
		value uint8
		last  string
	}{
		{
			name:  "jump",
			image: []byte{0x12, 0x03, 0x00, 0x60, 0x42, 0x00},
			steps: 2, pc: 0x205, reg: 0, value: 0x42,
			last: "203-6042 LD   V0,#42",
		},
		{
			name:  "jump with offset",
			image: []byte{0x60, 0x01, 0xB2, 0x04, 0x00, 0x61, 0x07},
			steps: 3, pc: 0x207, reg: 1, value: 0x07,
			last: "205-6107 LD   V1,#07",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := newTestChip8(t, test.image, Options{})
			stepN(t, c, test.steps)

			assert.Equal(t, test.pc, c.PC())
			assert.Equal(t, test.value, c.v[test.reg])
			history := c.Snapshot().History
			assert.Equal(t, test.last, history[len(history)-1])
		})
	}
}
