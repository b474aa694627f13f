package emulator

import "fmt"

// Kind identifies one instruction of the closed CHIP-8 instruction set.
type Kind uint8

const (
	Invalid Kind = iota

	Cls               // 00E0 clear display
	Ret               // 00EE return from subroutine
	Jump              // 1NNN PC=NNN
	Call              // 2NNN call subroutine at NNN
	SkipEqImm         // 3XNN skip if Vx==NN
	SkipNeImm         // 4XNN skip if Vx!=NN
	SkipEqReg         // 5XY0 skip if Vx==Vy
	LoadImm           // 6XNN Vx=NN
	AddImm            // 7XNN Vx+=NN, VF untouched
	LoadReg           // 8XY0 Vx=Vy
	Or                // 8XY1 Vx|=Vy
	And               // 8XY2 Vx&=Vy
	Xor               // 8XY3 Vx^=Vy
	AddReg            // 8XY4 Vx+=Vy, VF=carry
	SubReg            // 8XY5 Vx-=Vy, VF=!borrow
	ShiftRight        // 8XY6 Vx>>=1, VF=shifted out bit
	SubNeg            // 8XY7 Vx=Vy-Vx, VF=!borrow
	ShiftLeft         // 8XYE Vx<<=1, VF=shifted out bit
	SkipNeReg         // 9XY0 skip if Vx!=Vy
	LoadIndex         // ANNN I=NNN
	JumpV0            // BNNN PC=V0+NNN
	Random            // CXNN Vx=rand()&NN
	Draw              // DXYN draw N rows at (Vx,Vy)
	SkipKeyPressed    // EX9E skip if key Vx down
	SkipKeyNotPressed // EXA1 skip if key Vx up
	LoadDelay         // FX07 Vx=DT
	WaitKey           // FX0A Vx=next key press
	SetDelay          // FX15 DT=Vx
	SetSound          // FX18 ST=Vx
	AddIndex          // FX1E I+=Vx
	LoadFont          // FX29 I=glyph address of Vx
	StoreBCD          // FX33 BCD of Vx at I..I+2
	StoreRegs         // FX55 store V0..Vx at I
	LoadRegs          // FX65 load V0..Vx from I

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:           "invalid",
	Cls:               "cls",
	Ret:               "ret",
	Jump:              "jump",
	Call:              "call",
	SkipEqImm:         "skip-eq-imm",
	SkipNeImm:         "skip-ne-imm",
	SkipEqReg:         "skip-eq-reg",
	LoadImm:           "load-imm",
	AddImm:            "add-imm",
	LoadReg:           "load-reg",
	Or:                "or",
	And:               "and",
	Xor:               "xor",
	AddReg:            "add-reg",
	SubReg:            "sub-reg",
	ShiftRight:        "shift-right",
	SubNeg:            "sub-neg",
	ShiftLeft:         "shift-left",
	SkipNeReg:         "skip-ne-reg",
	LoadIndex:         "load-index",
	JumpV0:            "jump-v0",
	Random:            "random",
	Draw:              "draw",
	SkipKeyPressed:    "skip-key",
	SkipKeyNotPressed: "skip-not-key",
	LoadDelay:         "load-delay",
	WaitKey:           "wait-key",
	SetDelay:          "set-delay",
	SetSound:          "set-sound",
	AddIndex:          "add-index",
	LoadFont:          "load-font",
	StoreBCD:          "store-bcd",
	StoreRegs:         "store-regs",
	LoadRegs:          "load-regs",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Instruction is a decoded opcode. Only the operand fields meaningful for
// Kind are used by the executor; all of them are filled for every opcode.
type Instruction struct {
	Kind Kind
	Op   uint16

	X   uint8  // second nibble, register index
	Y   uint8  // third nibble, register index
	N   uint8  // lowest nibble
	NN  uint8  // lowest byte
	NNN uint16 // lowest 12 bits, address
}

// Decode splits op into its nibbles and identifies its instruction kind. It
// reports false if op matches no known instruction.
func Decode(op uint16) (Instruction, bool) {
	ins := Instruction{
		Op:  op,
		X:   uint8(op>>8) & 0xf,
		Y:   uint8(op>>4) & 0xf,
		N:   uint8(op) & 0xf,
		NN:  uint8(op),
		NNN: op & 0x0fff,
	}

	switch op & 0xF000 {
	case 0x0000:
		switch op {
		case 0x00E0:
			ins.Kind = Cls
		case 0x00EE:
			ins.Kind = Ret
		}
	case 0x1000:
		ins.Kind = Jump
	case 0x2000:
		ins.Kind = Call
	case 0x3000:
		ins.Kind = SkipEqImm
	case 0x4000:
		ins.Kind = SkipNeImm
	case 0x5000:
		if ins.N == 0 {
			ins.Kind = SkipEqReg
		}
	case 0x6000:
		ins.Kind = LoadImm
	case 0x7000:
		ins.Kind = AddImm
	case 0x8000:
		switch ins.N {
		case 0x0:
			ins.Kind = LoadReg
		case 0x1:
			ins.Kind = Or
		case 0x2:
			ins.Kind = And
		case 0x3:
			ins.Kind = Xor
		case 0x4:
			ins.Kind = AddReg
		case 0x5:
			ins.Kind = SubReg
		case 0x6:
			ins.Kind = ShiftRight
		case 0x7:
			ins.Kind = SubNeg
		case 0xE:
			ins.Kind = ShiftLeft
		}
	case 0x9000:
		if ins.N == 0 {
			ins.Kind = SkipNeReg
		}
	case 0xA000:
		ins.Kind = LoadIndex
	case 0xB000:
		ins.Kind = JumpV0
	case 0xC000:
		ins.Kind = Random
	case 0xD000:
		ins.Kind = Draw
	case 0xE000:
		switch ins.NN {
		case 0x9E:
			ins.Kind = SkipKeyPressed
		case 0xA1:
			ins.Kind = SkipKeyNotPressed
		}
	case 0xF000:
		switch ins.NN {
		case 0x07:
			ins.Kind = LoadDelay
		case 0x0A:
			ins.Kind = WaitKey
		case 0x15:
			ins.Kind = SetDelay
		case 0x18:
			ins.Kind = SetSound
		case 0x1E:
			ins.Kind = AddIndex
		case 0x29:
			ins.Kind = LoadFont
		case 0x33:
			ins.Kind = StoreBCD
		case 0x55:
			ins.Kind = StoreRegs
		case 0x65:
			ins.Kind = LoadRegs
		}
	}
	return ins, ins.Kind != Invalid
}

// String returns the assembler mnemonic of the instruction.
func (ins Instruction) String() string {
	x, y := ins.X, ins.Y
	switch ins.Kind {
	case Cls:
		return "CLS"
	case Ret:
		return "RET"
	case Jump:
		return fmt.Sprintf("GOTO %03X", ins.NNN)
	case Call:
		return fmt.Sprintf("CALL %03X", ins.NNN)
	case SkipEqImm:
		return fmt.Sprintf("SE   V%X,#%02X", x, ins.NN)
	case SkipNeImm:
		return fmt.Sprintf("SNE  V%X,#%02X", x, ins.NN)
	case SkipEqReg:
		return fmt.Sprintf("SE   V%X,V%X", x, y)
	case LoadImm:
		return fmt.Sprintf("LD   V%X,#%02X", x, ins.NN)
	case AddImm:
		return fmt.Sprintf("ADD  V%X,#%02X", x, ins.NN)
	case LoadReg:
		return fmt.Sprintf("LD   V%X,V%X", x, y)
	case Or:
		return fmt.Sprintf("OR   V%X,V%X", x, y)
	case And:
		return fmt.Sprintf("AND  V%X,V%X", x, y)
	case Xor:
		return fmt.Sprintf("XOR  V%X,V%X", x, y)
	case AddReg:
		return fmt.Sprintf("ADD  V%X,V%X", x, y)
	case SubReg:
		return fmt.Sprintf("SUB  V%X,V%X", x, y)
	case ShiftRight:
		return fmt.Sprintf("SHR  V%X", x)
	case SubNeg:
		return fmt.Sprintf("SUBN V%X,V%X", x, y)
	case ShiftLeft:
		return fmt.Sprintf("SHL  V%X", x)
	case SkipNeReg:
		return fmt.Sprintf("SNE  V%X,V%X", x, y)
	case LoadIndex:
		return fmt.Sprintf("LD   I,#%03X", ins.NNN)
	case JumpV0:
		return fmt.Sprintf("JP   V0,#%03X", ins.NNN)
	case Random:
		return fmt.Sprintf("RND  V%X,#%02X", x, ins.NN)
	case Draw:
		return fmt.Sprintf("DRW  V%X,V%X,%d", x, y, ins.N)
	case SkipKeyPressed:
		return fmt.Sprintf("SKP  V%X", x)
	case SkipKeyNotPressed:
		return fmt.Sprintf("SKNP V%X", x)
	case LoadDelay:
		return fmt.Sprintf("LD   V%X,DT", x)
	case WaitKey:
		return fmt.Sprintf("LD   V%X,K", x)
	case SetDelay:
		return fmt.Sprintf("LD   DT,V%X", x)
	case SetSound:
		return fmt.Sprintf("LD   ST,V%X", x)
	case AddIndex:
		return fmt.Sprintf("ADD  I,V%X", x)
	case LoadFont:
		return fmt.Sprintf("LD   F,V%X", x)
	case StoreBCD:
		return fmt.Sprintf("LD   B,V%X", x)
	case StoreRegs:
		return fmt.Sprintf("LD   [I],V%X", x)
	case LoadRegs:
		return fmt.Sprintf("LD   V%X,[I]", x)
	}
	return fmt.Sprintf("DW   #%04X", ins.Op)
}
