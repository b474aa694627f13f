package emulator

import (
	"fmt"
)

// exec runs a decoded instruction. PC already points past it. Faults are
// raised by panicking with a FaultCode, which Step recovers.
func (c *Chip8) exec(ins Instruction) {
	x, y := ins.X, ins.Y
	q := c.opts.Quirks

	switch ins.Kind {
	case Cls: // clear display
		c.disp.Clear()

	case Ret: // return from subroutine
		c.pc = c.popStack()

	case Jump: // goto 0x0NNN
		c.pc = ins.NNN

	case Call: // call 0x0NNN
		c.pushStack(c.pc)
		c.pc = ins.NNN

	case SkipEqImm: // 0x3XNN if(Vx==NN)
		c.skipIf(c.v[x] == ins.NN)

	case SkipNeImm: // 0x4XNN if(Vx!=NN)
		c.skipIf(c.v[x] != ins.NN)

	case SkipEqReg: // 0x5XY0 if(Vx==Vy)
		c.skipIf(c.v[x] == c.v[y])

	case LoadImm: // 6XNN Vx = NN
		c.v[x] = ins.NN

	case AddImm: // 7XNN Vx += NN (Carry flag is not changed)
		c.v[x] += ins.NN

	case LoadReg: // 8XY0 Vx=Vy
		c.v[x] = c.v[y]

	case Or: // 8XY1 Vx=Vx|Vy
		c.v[x] |= c.v[y]
		if q.LogicResetsVF {
			c.v[0xf] = 0
		}

	case And: // 8XY2 Vx=Vx&Vy
		c.v[x] &= c.v[y]
		if q.LogicResetsVF {
			c.v[0xf] = 0
		}

	case Xor: // 8XY3 Vx=Vx^Vy
		c.v[x] ^= c.v[y]
		if q.LogicResetsVF {
			c.v[0xf] = 0
		}

	case AddReg: // 8XY4 Vx += Vy
		carried := uint16(c.v[x])+uint16(c.v[y]) > 0xff
		c.v[x] += c.v[y]
		c.updateCarryFlag(carried)

	case SubReg: // 8XY5 Vx -= Vy
		borrowed := c.v[x] < c.v[y]
		c.v[x] -= c.v[y]
		c.updateCarryFlag(!borrowed)

	case ShiftRight: // 8XY6 Vx>>=1
		src := c.v[x]
		if q.ShiftUsesVY {
			src = c.v[y]
		}
		c.v[x] = src >> 1
		c.updateCarryFlag(src&0x01 == 1)

	case SubNeg: // 8XY7 Vx=Vy-Vx
		borrowed := c.v[y] < c.v[x]
		c.v[x] = c.v[y] - c.v[x]
		c.updateCarryFlag(!borrowed)

	case ShiftLeft: // 8XYE Vx<<=1
		src := c.v[x]
		if q.ShiftUsesVY {
			src = c.v[y]
		}
		c.v[x] = src << 1
		c.updateCarryFlag(src>>7 == 1)

	case SkipNeReg: // 9XY0 if(Vx!=Vy)
		c.skipIf(c.v[x] != c.v[y])

	case LoadIndex: // ANNN I = NNN
		c.i = ins.NNN

	case JumpV0: // BNNN PC=V0+NNN
		c.pc = uint16(c.v[0]) + ins.NNN

	case Random: // CXNN Vx=rand()&NN
		c.v[x] = c.opts.Random() & ins.NN

	case Draw: // DXYN draw(Vx,Vy,N)
		sprite := c.memory(c.i, int(ins.N))
		flipped := c.disp.DrawSprite(sprite, int(c.v[x]), int(c.v[y]))
		c.updateCarryFlag(flipped)

	case SkipKeyPressed: // EX9E if(key()==Vx)
		c.skipIf(c.keys.Pressed(c.v[x]))

	case SkipKeyNotPressed: // EXA1 if(key()!=Vx)
		c.skipIf(!c.keys.Pressed(c.v[x]))

	case LoadDelay: // FX07 Vx = get_delay()
		c.v[x] = c.dt

	case WaitKey: // FX0A Vx = get_key()
		c.waiting = true
		c.waitReg = x
		c.waitMark = c.keys.Watermark()

	case SetDelay: // FX15 delay_timer(Vx)
		c.dt = c.v[x]

	case SetSound: // FX18 sound_timer(Vx)
		c.st = c.v[x]

	case AddIndex: // FX1E I +=Vx
		c.i += uint16(c.v[x])

	case LoadFont: // FX29 I=sprite_addr[Vx]
		c.i = CharacterSpritesOffset + uint16(c.v[x]&0xf)*CharacterSpriteBytes

	case StoreBCD: // FX33 set_BCD(Vx)
		m := c.memory(c.i, 3)
		m[0] = c.v[x] / 100
		m[1] = (c.v[x] % 100) / 10
		m[2] = c.v[x] % 10

	case StoreRegs: // FX55 reg_dump(Vx,&I)
		copy(c.memory(c.i, int(x)+1), c.v[:x+1])
		if q.LoadStoreIncrementsI {
			c.i += uint16(x) + 1
		}

	case LoadRegs: // FX65 reg_load(Vx,&I)
		copy(c.v[:x+1], c.memory(c.i, int(x)+1))
		if q.LoadStoreIncrementsI {
			c.i += uint16(x) + 1
		}

	default:
		panic(InvalidOpcode)
	}
}

func (c *Chip8) skipIf(cond bool) {
	if cond {
		c.pc += 2
	}
}

func formatHistory(pc uint16, ins Instruction) string {
	return fmt.Sprintf("%03X-%04X %s", pc, ins.Op, ins)
}
