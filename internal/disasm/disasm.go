// Package disasm prints a linear-sweep listing of a CHIP-8 program image.
// Every word is decoded in order; words that are not instructions are
// listed as data. Jump and call targets inside the image get a label, or a
// comment when they point into the middle of a word.
package disasm

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/set"

	"github.com/tuboc/chip8vm/emulator"
)

// Disassemble writes one line per word of image, addressed as loaded at
// emulator.ProgramOffset.
func Disassemble(w io.Writer, image []byte) error {
	targets := branchTargets(image)

	for off := 0; off < len(image); off += 2 {
		addr := uint16(emulator.ProgramOffset + off)
		if targets.Contains(addr) {
			if _, err := fmt.Fprintf(w, "%s:\n", Label(addr)); err != nil {
				return fmt.Errorf("writing label: %w", err)
			}
		}
		// odd targets fall inside this word
		if targets.Contains(addr + 1) {
			if _, err := fmt.Fprintf(w, "; %s at %03X+1\n", Label(addr+1), addr); err != nil {
				return fmt.Errorf("writing label: %w", err)
			}
		}

		var line string
		if off+1 == len(image) {
			line = fmt.Sprintf("%03X  %02X    DB   #%02X", addr, image[off], image[off])
		} else {
			op := uint16(image[off])<<8 | uint16(image[off+1])
			ins, _ := emulator.Decode(op)
			line = fmt.Sprintf("%03X  %04X  %s", addr, op, ins)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing instruction: %w", err)
		}
	}
	return nil
}

// Label returns the label name used for addr.
func Label(addr uint16) string {
	return fmt.Sprintf("L_%03X", addr)
}

func branchTargets(image []byte) set.Set[uint16] {
	targets := set.New[uint16]()
	end := emulator.ProgramOffset + len(image)
	for off := 0; off+1 < len(image); off += 2 {
		ins, ok := emulator.Decode(uint16(image[off])<<8 | uint16(image[off+1]))
		if !ok {
			continue
		}
		switch ins.Kind {
		case emulator.Jump, emulator.Call:
			if int(ins.NNN) >= emulator.ProgramOffset && int(ins.NNN) < end {
				targets.Add(ins.NNN)
			}
		}
	}
	return targets
}
