package emulator

import (
	"errors"
	"fmt"
)

// FaultCode classifies an execution fault.
type FaultCode byte

const (
	MemoryOutOfBounds FaultCode = 0x01
	StackOverflow     FaultCode = 0x02
	StackUnderflow    FaultCode = 0x03
	InvalidOpcode     FaultCode = 0x04
)

func (c FaultCode) String() string {
	if s, ok := map[FaultCode]string{
		MemoryOutOfBounds: "memory out of bounds",
		StackOverflow:     "stack overflow",
		StackUnderflow:    "stack underflow",
		InvalidOpcode:     "invalid opcode",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

// Error makes a FaultCode usable as an errors.Is target.
func (c FaultCode) Error() string { return c.String() }

// Fault is returned by Step when an instruction cannot be executed. Faults
// are fatal to a run.
type Fault struct {
	Code FaultCode
	Op   uint16 // opcode being executed, 0 if it could not be fetched
	Addr uint16 // address of the opcode
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s executing %.4X at %.4X", f.Code, f.Op, f.Addr)
}

func (f *Fault) Unwrap() error { return f.Code }

var (
	// ErrEmptyImage is returned when a program image has no bytes.
	ErrEmptyImage = errors.New("empty program image")
	// ErrImageTooLarge is returned when a program image does not fit in
	// memory above ProgramOffset.
	ErrImageTooLarge = errors.New("program image too large")
)

// LoadError is returned by New when the program image is rejected.
type LoadError struct {
	Size int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %d byte image: %v (max %d)", e.Size, e.Err, MaxImageSize)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidateImage checks that image can be loaded at ProgramOffset.
func ValidateImage(image []byte) error {
	switch {
	case len(image) == 0:
		return &LoadError{Size: 0, Err: ErrEmptyImage}
	case len(image) > MaxImageSize:
		return &LoadError{Size: len(image), Err: ErrImageTooLarge}
	}
	return nil
}
