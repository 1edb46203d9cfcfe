package z80

// runInstruction is the coroutine body for one ordinary instruction:
// decode and execute to completion, suspending at every bus op via the
// engine's rendezvous channels (see engine.go).
func (c *CPU) runInstruction() {
	idx := idxNone
	op := c.fetchOpcode(c.reg.PC)
	c.reg.PC++

	for op == 0xDD || op == 0xFD {
		if op == 0xDD {
			idx = idxIX
		} else {
			idx = idxIY
		}
		op = c.fetchOpcode(c.reg.PC)
		c.reg.PC++
	}

	switch op {
	case 0xCB:
		c.curTag = TagPrefix
		c.runCB(idx)
	case 0xED:
		c.curTag = TagPrefix
		c.runED()
	default:
		c.runMain(op, idx)
	}
}

func (c *CPU) runMain(op uint8, idx idxMode) {
	xv, yv, zv, pv, qv := x(op), y(op), z(op), p(op), q(op)

	switch xv {
	case 0:
		switch zv {
		case 0:
			switch {
			case yv == 0:
				// NOP
			case yv == 1:
				c.reg.ExchangeAF()
			case yv == 2:
				c.reg.SetB(c.reg.B() - 1)
				c.delay(1) // decrement overhead folded into the M1 cycle
				d := int8(c.fetchByteInline())
				if c.reg.B() != 0 {
					c.delay(5)
					c.reg.PC = uint16(int32(c.reg.PC) + int32(d))
					c.reg.WZ = c.reg.PC
				}
			case yv == 3:
				d := int8(c.fetchByteInline())
				c.delay(5)
				c.reg.PC = uint16(int32(c.reg.PC) + int32(d))
				c.reg.WZ = c.reg.PC
			default:
				d := int8(c.fetchByteInline())
				if c.testCond(yv - 4) {
					c.delay(5)
					c.reg.PC = uint16(int32(c.reg.PC) + int32(d))
					c.reg.WZ = c.reg.PC
				}
			}
		case 1:
			if qv == 0 {
				nn := c.fetchWordInline()
				c.setReg16(pv, idx, nn)
			} else {
				c.addHL(c.getReg16(pv, idx), idx)
			}
		case 2:
			switch {
			case qv == 0 && pv == 0:
				c.writeByte(c.reg.BC, c.reg.A())
				c.reg.WZ = (uint16(c.reg.A()) << 8) | ((c.reg.BC + 1) & 0xFF)
			case qv == 0 && pv == 1:
				c.writeByte(c.reg.DE, c.reg.A())
				c.reg.WZ = (uint16(c.reg.A()) << 8) | ((c.reg.DE + 1) & 0xFF)
			case qv == 0 && pv == 2:
				nn := c.fetchWordInline()
				c.writeWord(nn, c.getReg16(r16HL, idx))
				c.reg.WZ = nn + 1
			case qv == 0:
				nn := c.fetchWordInline()
				c.writeByte(nn, c.reg.A())
				c.reg.WZ = (uint16(c.reg.A()) << 8) | ((nn + 1) & 0xFF)
			case qv == 1 && pv == 0:
				c.reg.SetA(c.readByte(c.reg.BC))
				c.reg.WZ = c.reg.BC + 1
			case qv == 1 && pv == 1:
				c.reg.SetA(c.readByte(c.reg.DE))
				c.reg.WZ = c.reg.DE + 1
			case qv == 1 && pv == 2:
				nn := c.fetchWordInline()
				c.setReg16(r16HL, idx, c.readWord(nn))
				c.reg.WZ = nn + 1
			default:
				nn := c.fetchWordInline()
				c.reg.SetA(c.readByte(nn))
				c.reg.WZ = nn + 1
			}
		case 3:
			v := c.getReg16(pv, idx)
			c.delay(2)
			if qv == 0 {
				c.setReg16(pv, idx, v+1)
			} else {
				c.setReg16(pv, idx, v-1)
			}
		case 4:
			c.setReg8(yv, idx, c.inc8(c.getReg8(yv, idx, 0, false)), 0, false)
		case 5:
			c.setReg8(yv, idx, c.dec8(c.getReg8(yv, idx, 0, false)), 0, false)
		case 6:
			n := c.fetchByteInline()
			c.setReg8(yv, idx, n, 0, false)
		case 7:
			switch yv {
			case 0:
				c.rlcaA()
			case 1:
				c.rrcaA()
			case 2:
				c.rlaA()
			case 3:
				c.rraA()
			case 4:
				c.daa()
			case 5:
				c.cpl()
			case 6:
				c.scf()
			case 7:
				c.ccf()
			}
		}
	case 1:
		if zv == 6 && yv == 6 {
			c.opHalt()
			return
		}
		c.setReg8(yv, idx, c.getReg8(zv, idx, 0, false), 0, false)
	case 2:
		c.aluOp(yv, c.getReg8(zv, idx, 0, false))
	case 3:
		switch zv {
		case 0:
			c.delay(1)
			if c.testCond(yv) {
				c.reg.PC = c.pop16()
				c.reg.WZ = c.reg.PC
			}
		case 1:
			if qv == 0 {
				c.setReg16AF2(pv, idx, c.pop16())
			} else {
				switch pv {
				case 0:
					c.reg.PC = c.pop16()
					c.reg.WZ = c.reg.PC
				case 1:
					c.reg.Exx()
				case 2:
					c.reg.PC = c.getReg16(r16HL, idx)
				default:
					c.delay(2)
					c.setReg16(r16SP, idxNone, c.getReg16(r16HL, idx))
				}
			}
		case 2:
			nn := c.fetchWordInline()
			c.reg.WZ = nn
			if c.testCond(yv) {
				c.reg.PC = nn
			}
		case 3:
			switch yv {
			case 0:
				nn := c.fetchWordInline()
				c.reg.PC = nn
				c.reg.WZ = nn
			case 2:
				n := c.fetchByteInline()
				c.outPort(uint16(c.reg.A())<<8|uint16(n), c.reg.A())
				c.reg.WZ = (uint16(c.reg.A()) << 8) | ((uint16(n) + 1) & 0xFF)
			case 3:
				n := c.fetchByteInline()
				c.reg.WZ = (uint16(c.reg.A())<<8 | uint16(n)) + 1
				c.reg.SetA(c.inPort(uint16(c.reg.A())<<8 | uint16(n)))
			case 4:
				hl := c.getReg16(r16HL, idx)
				sp := c.reg.SP
				lo := c.readByte(sp)
				hi := c.readByte(sp + 1)
				c.writeByte(sp+1, uint8(hl>>8))
				c.writeByte(sp, uint8(hl))
				c.delay(2)
				c.setReg16(r16HL, idx, uint16(hi)<<8|uint16(lo))
				c.reg.WZ = c.getReg16(r16HL, idx)
			case 5:
				c.reg.DE, c.reg.HL = c.reg.HL, c.reg.DE
			case 6:
				c.opDI()
			default:
				c.opEI()
			}
		case 4:
			nn := c.fetchWordInline()
			c.reg.WZ = nn
			if c.testCond(yv) {
				c.push16(c.reg.PC)
				c.reg.PC = nn
			}
		case 5:
			if qv == 0 {
				c.delay(1)
				c.push16(c.getReg16AF2(pv, idx))
			} else if pv == 0 {
				nn := c.fetchWordInline()
				c.reg.WZ = nn
				c.delay(1)
				c.push16(c.reg.PC)
				c.reg.PC = nn
			}
			// pv==1/2/3 (DD/ED/FD prefixes) are consumed by runInstruction's
			// prefix loop and the 0xED case above; unreachable here.
		case 6:
			n := c.fetchByteInline()
			c.aluOp(yv, n)
		default:
			c.delay(1)
			c.push16(c.reg.PC)
			c.reg.PC = uint16(yv) * 8
			c.reg.WZ = c.reg.PC
		}
	}
}

func (c *CPU) aluOp(which uint8, v uint8) {
	switch which {
	case 0:
		c.addA(v, false)
	case 1:
		c.addA(v, c.flags()&flagC != 0)
	case 2:
		c.subA(v, false, false)
	case 3:
		c.subA(v, c.flags()&flagC != 0, false)
	case 4:
		c.andA(v)
	case 5:
		c.xorA(v)
	case 6:
		c.orA(v)
	default:
		c.subA(v, false, true)
	}
}

func (c *CPU) addHL(v uint16, idx idxMode) {
	hl := c.getReg16(r16HL, idx)
	sum := uint32(hl) + uint32(v)
	result := uint16(sum)
	f := c.flags() & (flagS | flagZ | flagP)
	if (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF {
		f |= flagH
	}
	if sum > 0xFFFF {
		f |= flagC
	}
	f |= uint8(result>>8) & (flagY | flagX)
	c.setFlags(f)
	c.latchQ()
	c.delay(7)
	c.setReg16(r16HL, idx, result)
	c.reg.WZ = hl + 1
}

func (c *CPU) rlcaA() {
	a := c.reg.A()
	carry := a&0x80 != 0
	result := a << 1
	if carry {
		result |= 1
	}
	c.reg.SetA(result)
	f := (c.flags() & (flagS | flagZ | flagP)) | (result & (flagY | flagX))
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) rrcaA() {
	a := c.reg.A()
	carry := a&0x01 != 0
	result := a >> 1
	if carry {
		result |= 0x80
	}
	c.reg.SetA(result)
	f := (c.flags() & (flagS | flagZ | flagP)) | (result & (flagY | flagX))
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) rlaA() {
	a := c.reg.A()
	oldCarry := c.flags()&flagC != 0
	carry := a&0x80 != 0
	result := a << 1
	if oldCarry {
		result |= 1
	}
	c.reg.SetA(result)
	f := (c.flags() & (flagS | flagZ | flagP)) | (result & (flagY | flagX))
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) rraA() {
	a := c.reg.A()
	oldCarry := c.flags()&flagC != 0
	carry := a&0x01 != 0
	result := a >> 1
	if oldCarry {
		result |= 0x80
	}
	c.reg.SetA(result)
	f := (c.flags() & (flagS | flagZ | flagP)) | (result & (flagY | flagX))
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
}

// getReg16AF2/setReg16AF2 implement the rp2 table (BC DE HL AF) used
// by PUSH/POP, distinct from rp (BC DE HL SP) used elsewhere.
func (c *CPU) getReg16AF2(which uint8, idx idxMode) uint16 {
	if which == 3 {
		return c.reg.AF
	}
	return c.getReg16(which, idx)
}

func (c *CPU) setReg16AF2(which uint8, idx idxMode, v uint16) {
	if which == 3 {
		c.reg.AF = v
		return
	}
	c.setReg16(which, idx, v)
}
