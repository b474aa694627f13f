// Package frontend defines what a user interface gets to work with. A
// frontend renders the display, feeds the keypad and may trip the fuse to end
// the run; it never touches the interpreter directly.
package frontend

import (
	"fmt"

	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/fuse"
	"github.com/tuboc/chip8vm/internal/keypad"
	"github.com/tuboc/chip8vm/internal/scheduler"
)

// Controller is the part of the scheduler a frontend may drive.
type Controller interface {
	Pause()
	Resume()
	StepOnce()
	Reset()
	Status() *scheduler.Status
}

// Surfaces are the handles shared between a frontend and the scheduler.
type Surfaces struct {
	Fuse    *fuse.Fuse
	Display *display.Display
	Keypad  *keypad.Keypad
	Control Controller
}

// Frontend runs a user interface until the fuse trips. Run is called on the
// main goroutine.
type Frontend interface {
	Run() error
}

// Finisher is implemented by frontends that report on the run after the
// scheduler and every other loop have stopped.
type Finisher interface {
	Finish() error
}

// Title returns a one-line summary of st suitable for a window title or
// status bar.
func Title(name string, st *scheduler.Status) string {
	state := "running"
	switch {
	case st.Fault != nil:
		state = "halted: " + st.Fault.Error()
	case st.Paused:
		state = "paused"
	case st.Waiting:
		state = "waiting for key"
	}
	sound := ""
	if st.Sound {
		sound = " ♪"
	}
	return fmt.Sprintf("%s [%s] PC=%03X%s", name, state, st.PC, sound)
}

// Registers formats the register file of st, one register per line, in the
// layout of the debug panels.
func Registers(st *scheduler.Status) []string {
	lines := make([]string, 0, 16+6)
	for i, v := range st.V {
		lines = append(lines, fmt.Sprintf("V%X = %02X", i, v))
	}
	lines = append(lines,
		fmt.Sprintf("DT = %02X", st.DT),
		fmt.Sprintf("ST = %02X", st.ST),
		fmt.Sprintf("SP = %02X", st.SP),
		fmt.Sprintf(" I = %04X", st.I),
		fmt.Sprintf("PC = %04X", st.PC),
		fmt.Sprintf("TK = %d", st.Ticks),
	)
	return lines
}

// Keys formats the keypad in its physical 4x4 layout.
func Keys(k keypad.State) []string {
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	return []string{
		fmt.Sprintf("KEYS %d%d%d%d", b(k[0x1]), b(k[0x2]), b(k[0x3]), b(k[0xc])),
		fmt.Sprintf("     %d%d%d%d", b(k[0x4]), b(k[0x5]), b(k[0x6]), b(k[0xd])),
		fmt.Sprintf("     %d%d%d%d", b(k[0x7]), b(k[0x8]), b(k[0x9]), b(k[0xe])),
		fmt.Sprintf("     %d%d%d%d", b(k[0xa]), b(k[0x0]), b(k[0xb]), b(k[0xf])),
	}
}

// Debug panel layout, in character cells.
const (
	PanelHistoryCol   = 0
	PanelRegistersCol = 22
	PanelStateCol     = 31
	PanelCols         = PanelStateCol + 9
	PanelRows         = 16
)

// Text is a string placed on a character grid.
type Text struct {
	Col, Row int
	S        string
}

// Panel lays out the debug panel of a graphical frontend: the instruction
// history, the V registers, then the other registers above the keypad.
func Panel(st *scheduler.Status, k keypad.State) []Text {
	texts := make([]Text, 0, len(st.History)+16+5+4)
	for i, h := range st.History {
		texts = append(texts, Text{Col: PanelHistoryCol, Row: i, S: h})
	}
	regs := Registers(st)
	for i, line := range regs[:16] {
		texts = append(texts, Text{Col: PanelRegistersCol, Row: i, S: line})
	}
	// DT, ST, SP, I and PC
	for i, line := range regs[16:21] {
		texts = append(texts, Text{Col: PanelStateCol, Row: i, S: line})
	}
	for i, line := range Keys(k) {
		texts = append(texts, Text{Col: PanelStateCol, Row: 6 + i, S: line})
	}
	return texts
}
