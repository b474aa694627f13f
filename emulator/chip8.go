// Package emulator implements the CHIP-8 interpreter: CPU state, instruction
// decoding and execution. The framebuffer and keypad are supplied by the
// caller and may be shared with a UI running concurrently.
package emulator

import (
	"math/rand/v2"
)

const (
	MemorySize             = 4096
	ProgramOffset          = 0x200
	MaxImageSize           = MemorySize - ProgramOffset
	CharacterSpritesOffset = 0x100
	CharacterSpriteBytes   = 5
	StackDepth             = 16
	OpHistoryNum           = 16
)

// Display is the framebuffer the interpreter draws into.
type Display interface {
	Clear()
	// DrawSprite XORs sprite rows onto the screen at (x, y) and reports
	// whether any set pixel was cleared.
	DrawSprite(sprite []byte, x, y int) bool
}

// Keypad is the input state the interpreter reads.
type Keypad interface {
	Pressed(key uint8) bool
	Watermark() uint64
	PressedAfter(mark uint64) (uint8, bool)
}

// State is the outcome of a successful Step.
type State uint8

const (
	Running State = iota
	// WaitingForKey means an FX0A instruction is waiting for a key press.
	// Further Steps poll the keypad without blocking.
	WaitingForKey
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting for key"
	}
	return "unknown"
}

// Quirks select between behaviours that differ across CHIP-8 interpreters.
// The zero value matches most modern interpreters.
type Quirks struct {
	ShiftUsesVY          bool // 8XY6/8XYE shift Vy into Vx
	LoadStoreIncrementsI bool // FX55/FX65 leave I at I+X+1
	LogicResetsVF        bool // 8XY1/8XY2/8XY3 clear VF
}

// Options configure an interpreter.
type Options struct {
	Quirks Quirks
	// SkipInvalidOpcodes makes Step skip unknown opcodes instead of
	// returning an InvalidOpcode fault.
	SkipInvalidOpcodes bool
	// Random returns the random byte used by CXNN. Defaults to math/rand.
	Random func() uint8
}

// Chip8 is the interpreter state. It is not safe for concurrent use; a
// single scheduler goroutine owns it.
type Chip8 struct {
	mem   [MemorySize]uint8 // memory
	pc    uint16            // program counter
	v     [16]uint8         // registers
	i     uint16            // index register
	dt    uint8             // delay timer
	st    uint8             // sound timer
	sp    uint8             // number of entries on the stack
	stack [StackDepth]uint16

	waiting  bool   // FX0A in progress
	waitReg  uint8  // register receiving the key
	waitMark uint64 // keypad watermark when the wait began

	disp  Display
	keys  Keypad
	opts  Options
	steps uint64

	ophistory      [OpHistoryNum]string
	ophistoryIndex int
}

var characterSprites = []uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// New validates image and returns an interpreter with image loaded at
// ProgramOffset and the font loaded at CharacterSpritesOffset. If the image
// is rejected no interpreter is created and the error is a *LoadError.
func New(image []byte, disp Display, keys Keypad, opts Options) (*Chip8, error) {
	if err := ValidateImage(image); err != nil {
		return nil, err
	}
	if opts.Random == nil {
		opts.Random = func() uint8 { return uint8(rand.IntN(256)) }
	}
	c := &Chip8{
		pc:   ProgramOffset,
		disp: disp,
		keys: keys,
		opts: opts,
	}
	copy(c.mem[ProgramOffset:], image)
	copy(c.mem[CharacterSpritesOffset:], characterSprites)
	return c, nil
}

// Step executes one instruction, or polls the keypad if an FX0A
// instruction is waiting for a key. A returned error is always a *Fault.
func (c *Chip8) Step() (state State, err error) {
	if c.waiting {
		return c.pollKey(), nil
	}

	var (
		pc = c.pc
		op uint16
	)
	defer func() {
		if e := recover(); e != nil {
			code, ok := e.(FaultCode)
			if !ok {
				panic(e)
			}
			err = &Fault{Code: code, Op: op, Addr: pc}
		}
	}()

	op = c.fetchOpcode()
	ins, ok := Decode(op)
	if !ok {
		if !c.opts.SkipInvalidOpcodes {
			panic(InvalidOpcode)
		}
		c.record(pc, ins)
		return Running, nil
	}
	c.exec(ins)
	c.record(pc, ins)
	c.steps++

	if c.waiting {
		return WaitingForKey, nil
	}
	return Running, nil
}

// DecrementTimers counts both timers down by n, stopping at zero.
func (c *Chip8) DecrementTimers(n int) {
	if n <= 0 {
		return
	}
	c.dt = countDown(c.dt, n)
	c.st = countDown(c.st, n)
}

func countDown(t uint8, n int) uint8 {
	if int(t) <= n {
		return 0
	}
	return t - uint8(n)
}

// SoundActive reports whether the sound timer is running.
func (c *Chip8) SoundActive() bool {
	return c.st > 0
}

// Waiting reports whether an FX0A instruction is waiting for a key.
func (c *Chip8) Waiting() bool {
	return c.waiting
}

// PC returns the program counter.
func (c *Chip8) PC() uint16 {
	return c.pc
}

func (c *Chip8) fetchOpcode() uint16 {
	if int(c.pc)+1 >= MemorySize {
		panic(MemoryOutOfBounds)
	}
	op := uint16(c.mem[c.pc])<<8 | uint16(c.mem[c.pc+1])
	c.pc += 2
	return op
}

// memory returns n bytes of memory starting at addr.
func (c *Chip8) memory(addr uint16, n int) []uint8 {
	if int(addr)+n > MemorySize {
		panic(MemoryOutOfBounds)
	}
	return c.mem[addr : int(addr)+n]
}

func (c *Chip8) updateCarryFlag(b bool) {
	if b {
		c.v[0xf] = 1
	} else {
		c.v[0xf] = 0
	}
}

func (c *Chip8) pushStack(v uint16) {
	if c.sp == StackDepth {
		panic(StackOverflow)
	}
	c.stack[c.sp] = v
	c.sp++
}

func (c *Chip8) popStack() uint16 {
	if c.sp == 0 {
		panic(StackUnderflow)
	}
	c.sp--
	return c.stack[c.sp]
}

func (c *Chip8) pollKey() State {
	key, ok := c.keys.PressedAfter(c.waitMark)
	if !ok {
		return WaitingForKey
	}
	c.v[c.waitReg] = key
	c.waiting = false
	return Running
}

func (c *Chip8) record(pc uint16, ins Instruction) {
	c.ophistory[c.ophistoryIndex] = formatHistory(pc, ins)
	c.ophistoryIndex = (c.ophistoryIndex + 1) % OpHistoryNum
}

// Snapshot is a copy of the interpreter's registers and recent history.
type Snapshot struct {
	PC, I   uint16
	V       [16]uint8
	DT, ST  uint8
	SP      uint8
	Stack   [StackDepth]uint16
	Waiting bool
	Steps   uint64
	// History holds the most recently executed instructions, oldest first.
	History []string
}

// Snapshot returns a copy of the interpreter state.
func (c *Chip8) Snapshot() Snapshot {
	s := Snapshot{
		PC:      c.pc,
		I:       c.i,
		V:       c.v,
		DT:      c.dt,
		ST:      c.st,
		SP:      c.sp,
		Stack:   c.stack,
		Waiting: c.waiting,
		Steps:   c.steps,
	}
	for n := 0; n < OpHistoryNum; n++ {
		if h := c.ophistory[(c.ophistoryIndex+n)%OpHistoryNum]; h != "" {
			s.History = append(s.History, h)
		}
	}
	return s
}
