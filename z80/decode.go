package z80

// Decoding follows the well-known Z80 opcode bitfield layout
// (x = opcode>>6, y = (opcode>>3)&7, z = opcode&7, p = y>>1, q = y&1)
// rather than a 256-entry literal table, since the real instruction
// set is itself organized this way - the same grouping-by-top-bits
// idiom the m68k package's decode.go uses for its own opcode families.

type idxMode uint8

const (
	idxNone idxMode = iota
	idxIX
	idxIY
)

// reg8 table order for the 3-bit r/r' fields: B C D E H L (HL) A.
const (
	r8B = iota
	r8C
	r8D
	r8E
	r8H
	r8L
	r8HL
	r8A
)

// reg16 (dd) table order for BC DE HL SP.
const (
	r16BC = iota
	r16DE
	r16HL
	r16SP
)

func x(op uint8) uint8 { return op >> 6 }
func y(op uint8) uint8 { return (op >> 3) & 7 }
func z(op uint8) uint8 { return op & 7 }
func p(op uint8) uint8 { return y(op) >> 1 }
func q(op uint8) uint8 { return y(op) & 1 }

// idxHLAddr resolves the address an (HL)/(IX+d)/(IY+d) operand refers
// to, fetching and latching the displacement byte into WZ for indexed
// forms. Costs the 5 T-states real hardware spends computing IX+d.
func (c *CPU) idxHLAddr(idx idxMode) uint16 {
	switch idx {
	case idxIX:
		d := int8(c.fetchByteInline())
		addr := uint16(int32(c.reg.IX) + int32(d))
		c.delay(5)
		c.reg.WZ = addr
		return addr
	case idxIY:
		d := int8(c.fetchByteInline())
		addr := uint16(int32(c.reg.IY) + int32(d))
		c.delay(5)
		c.reg.WZ = addr
		return addr
	default:
		return c.reg.HL
	}
}

// fetchByteInline reads the next instruction-stream byte as a plain
// memory read (3 T-states), used for displacement/immediate bytes
// that follow an opcode - distinct from fetchOpcode's M1 refresh cycle.
func (c *CPU) fetchByteInline() uint8 {
	v := c.readByte(c.reg.PC)
	c.reg.PC++
	return v
}

func (c *CPU) fetchWordInline() uint16 {
	lo := c.fetchByteInline()
	hi := c.fetchByteInline()
	return uint16(hi)<<8 | uint16(lo)
}

// getReg8/setReg8 resolve one of the eight 3-bit-encoded operands,
// honoring DD/FD substitution: H/L become IXH/IXL or IYH/IYL
// (undocumented but real), and (HL) becomes (IX+d)/(IY+d). idxAddr, if
// non-zero, is a previously resolved indexed address to reuse (DDCB/
// FDCB forms resolve the address once and reuse it for both the
// read-modify and the write-back).
func (c *CPU) getReg8(which uint8, idx idxMode, idxAddr uint16, haveAddr bool) uint8 {
	switch which {
	case r8B:
		return c.reg.B()
	case r8C:
		return c.reg.C()
	case r8D:
		return c.reg.D()
	case r8E:
		return c.reg.E()
	case r8H:
		if idx == idxIX {
			return hi(c.reg.IX)
		} else if idx == idxIY {
			return hi(c.reg.IY)
		}
		return c.reg.H()
	case r8L:
		if idx == idxIX {
			return lo(c.reg.IX)
		} else if idx == idxIY {
			return lo(c.reg.IY)
		}
		return c.reg.L()
	case r8HL:
		addr := idxAddr
		if !haveAddr {
			addr = c.idxHLAddr(idx)
		}
		return c.readByte(addr)
	default: // r8A
		return c.reg.A()
	}
}

func (c *CPU) setReg8(which uint8, idx idxMode, v uint8, idxAddr uint16, haveAddr bool) {
	switch which {
	case r8B:
		c.reg.SetB(v)
	case r8C:
		c.reg.SetC(v)
	case r8D:
		c.reg.SetD(v)
	case r8E:
		c.reg.SetE(v)
	case r8H:
		if idx == idxIX {
			c.reg.IX = setHi(c.reg.IX, v)
		} else if idx == idxIY {
			c.reg.IY = setHi(c.reg.IY, v)
		} else {
			c.reg.SetH(v)
		}
	case r8L:
		if idx == idxIX {
			c.reg.IX = setLo(c.reg.IX, v)
		} else if idx == idxIY {
			c.reg.IY = setLo(c.reg.IY, v)
		} else {
			c.reg.SetL(v)
		}
	case r8HL:
		addr := idxAddr
		if !haveAddr {
			addr = c.idxHLAddr(idx)
		}
		c.writeByte(addr, v)
	case r8A:
		c.reg.SetA(v)
	}
}

func (c *CPU) getReg16(which uint8, idx idxMode) uint16 {
	switch which {
	case r16BC:
		return c.reg.BC
	case r16DE:
		return c.reg.DE
	case r16HL:
		switch idx {
		case idxIX:
			return c.reg.IX
		case idxIY:
			return c.reg.IY
		default:
			return c.reg.HL
		}
	default:
		return c.reg.SP
	}
}

func (c *CPU) setReg16(which uint8, idx idxMode, v uint16) {
	switch which {
	case r16BC:
		c.reg.BC = v
	case r16DE:
		c.reg.DE = v
	case r16HL:
		switch idx {
		case idxIX:
			c.reg.IX = v
		case idxIY:
			c.reg.IY = v
		default:
			c.reg.HL = v
		}
	default:
		c.reg.SP = v
	}
}

func (c *CPU) testCond(cc uint8) bool {
	f := c.flags()
	switch cc {
	case 0:
		return f&flagZ == 0 // NZ
	case 1:
		return f&flagZ != 0 // Z
	case 2:
		return f&flagC == 0 // NC
	case 3:
		return f&flagC != 0 // C
	case 4:
		return f&flagP == 0 // PO
	case 5:
		return f&flagP != 0 // PE
	case 6:
		return f&flagS == 0 // P
	default:
		return f&flagS != 0 // M
	}
}
