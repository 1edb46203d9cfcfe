package z80

// runED handles the ED-prefixed table: register-pair ADC/SBC, the
// I/O- and memory-block instructions, interrupt mode/return variants,
// and the R/I transfer and RRD/RLD instructions. Undefined ED opcodes
// behave as an 8 T-state NOP, matching real silicon.
func (c *CPU) runED() {
	op := c.fetchOpcode(c.reg.PC)
	c.reg.PC++
	xv, yv, zv, pv, qv := x(op), y(op), z(op), p(op), q(op)

	switch {
	case xv == 1:
		switch zv {
		case 0:
			v := c.inPort(c.reg.BC)
			f := sz53p(v) | (c.flags() & flagC)
			c.setFlags(f)
			c.latchQ()
			if yv != 6 {
				c.setReg8(yv, idxNone, v, 0, false)
			}
			c.reg.WZ = c.reg.BC + 1
		case 1:
			var v uint8
			if yv != 6 {
				v = c.getReg8(yv, idxNone, 0, false)
			}
			c.outPort(c.reg.BC, v)
			c.reg.WZ = c.reg.BC + 1
		case 2:
			if qv == 0 {
				c.sbcHL(c.getReg16(pv, idxNone))
			} else {
				c.adcHL(c.getReg16(pv, idxNone))
			}
		case 3:
			nn := c.fetchWordInline()
			if qv == 0 {
				c.writeWord(nn, c.getReg16(pv, idxNone))
			} else {
				c.setReg16(pv, idxNone, c.readWord(nn))
			}
			c.reg.WZ = nn + 1
		case 4:
			v := c.reg.A()
			c.reg.SetA(0)
			c.subA(v, false, false)
		case 5:
			c.reg.PC = c.pop16()
			c.reg.WZ = c.reg.PC
			c.reg.IFF1 = c.reg.IFF2
		case 6:
			imTable := [8]uint8{0, 0, 1, 2, 0, 0, 1, 2}
			c.reg.IM = imTable[yv]
		default:
			switch yv {
			case 0:
				c.reg.I = c.reg.A()
				c.delay(1)
			case 1:
				c.reg.R = c.reg.A()
				c.delay(1)
			case 2:
				c.reg.SetA(c.reg.I)
				c.setIRFlags()
				c.delay(1)
			case 3:
				c.reg.SetA(c.reg.R)
				c.setIRFlags()
				c.delay(1)
			case 4:
				c.rrd()
			default:
				c.rld()
			}
		}
	case xv == 2 && yv >= 4 && zv <= 3:
		switch {
		case yv == 4 && zv == 0:
			c.ldi()
		case yv == 4 && zv == 1:
			c.cpi()
		case yv == 4 && zv == 2:
			c.ini()
		case yv == 4 && zv == 3:
			c.outi()
		case yv == 5 && zv == 0:
			c.ldd()
		case yv == 5 && zv == 1:
			c.cpd()
		case yv == 5 && zv == 2:
			c.ind()
		case yv == 5 && zv == 3:
			c.outd()
		case yv == 6 && zv == 0:
			c.ldi()
			if c.reg.BC != 0 {
				c.delay(5)
				c.reg.PC -= 2
				c.reg.WZ = c.reg.PC + 1
				c.applyRepeatXY()
			}
		case yv == 6 && zv == 1:
			c.cpi()
			if c.reg.BC != 0 && c.flags()&flagZ == 0 {
				c.delay(5)
				c.reg.PC -= 2
				c.reg.WZ = c.reg.PC + 1
				c.applyRepeatXY()
			}
		case yv == 6 && zv == 2:
			c.ini()
			if c.reg.B() != 0 {
				c.delay(5)
				c.reg.PC -= 2
			}
		case yv == 6 && zv == 3:
			c.outi()
			if c.reg.B() != 0 {
				c.delay(5)
				c.reg.PC -= 2
			}
		case yv == 7 && zv == 0:
			c.ldd()
			if c.reg.BC != 0 {
				c.delay(5)
				c.reg.PC -= 2
				c.reg.WZ = c.reg.PC + 1
				c.applyRepeatXY()
			}
		case yv == 7 && zv == 1:
			c.cpd()
			if c.reg.BC != 0 && c.flags()&flagZ == 0 {
				c.delay(5)
				c.reg.PC -= 2
				c.reg.WZ = c.reg.PC + 1
				c.applyRepeatXY()
			}
		case yv == 7 && zv == 2:
			c.ind()
			if c.reg.B() != 0 {
				c.delay(5)
				c.reg.PC -= 2
			}
		default:
			c.outd()
			if c.reg.B() != 0 {
				c.delay(5)
				c.reg.PC -= 2
			}
		}
	default:
		// undefined ED opcode: behaves as a NOP
	}
}

func (c *CPU) setIRFlags() {
	a := c.reg.A()
	f := sz53p(a) &^ flagP
	if c.reg.IFF2 {
		f |= flagP
	}
	f |= c.flags() & flagC
	c.setFlags(f)
	c.latchQ()
}

// applyRepeatXY overrides the undocumented X/Y flags with PCH, per the
// repeat-specific rule confirmed in
// original_source/crates/zilog-z80/src/cpu/execute.rs.
func (c *CPU) applyRepeatXY() {
	pch := uint8(c.reg.PC >> 8)
	f := (c.flags() &^ (flagY | flagX)) | (pch & (flagY | flagX))
	c.setFlags(f)
}

func (c *CPU) adcHL(v uint16) {
	hl := c.reg.HL
	cin := uint32(0)
	if c.flags()&flagC != 0 {
		cin = 1
	}
	sum := uint32(hl) + uint32(v) + cin
	result := uint16(sum)
	var f uint8
	if (hl&0x0FFF)+(v&0x0FFF)+uint16(cin) > 0x0FFF {
		f |= flagH
	}
	if sum > 0xFFFF {
		f |= flagC
	}
	if (hl^v)&0x8000 == 0 && (hl^result)&0x8000 != 0 {
		f |= flagP
	}
	if result&0x8000 != 0 {
		f |= flagS
	}
	if result == 0 {
		f |= flagZ
	}
	f |= uint8(result>>8) & (flagY | flagX)
	c.setFlags(f)
	c.latchQ()
	c.delay(7)
	c.reg.HL = result
	c.reg.WZ = hl + 1
}

func (c *CPU) sbcHL(v uint16) {
	hl := c.reg.HL
	cin := uint32(0)
	if c.flags()&flagC != 0 {
		cin = 1
	}
	diff := int32(hl) - int32(v) - int32(cin)
	result := uint16(diff)
	f := flagN
	if int32(hl&0x0FFF)-int32(v&0x0FFF)-int32(cin) < 0 {
		f |= flagH
	}
	if diff < 0 {
		f |= flagC
	}
	if (hl^v)&0x8000 != 0 && (hl^result)&0x8000 != 0 {
		f |= flagP
	}
	if result&0x8000 != 0 {
		f |= flagS
	}
	if result == 0 {
		f |= flagZ
	}
	f |= uint8(result>>8) & (flagY | flagX)
	c.setFlags(f)
	c.latchQ()
	c.delay(7)
	c.reg.HL = result
	c.reg.WZ = hl + 1
}

func (c *CPU) ldi() {
	val := c.readByte(c.reg.HL)
	c.writeByte(c.reg.DE, val)
	c.delay(2)
	c.reg.HL++
	c.reg.DE++
	c.reg.BC--
	n := val + c.reg.A()
	f := c.flags() & (flagS | flagZ | flagC)
	if c.reg.BC != 0 {
		f |= flagP
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) ldd() {
	val := c.readByte(c.reg.HL)
	c.writeByte(c.reg.DE, val)
	c.delay(2)
	c.reg.HL--
	c.reg.DE--
	c.reg.BC--
	n := val + c.reg.A()
	f := c.flags() & (flagS | flagZ | flagC)
	if c.reg.BC != 0 {
		f |= flagP
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) cpi() {
	val := c.readByte(c.reg.HL)
	c.delay(5)
	a := c.reg.A()
	result := a - val
	halfBorrow := a&0x0F < val&0x0F
	c.reg.HL++
	c.reg.BC--
	c.reg.WZ++
	n := result
	if halfBorrow {
		n--
	}
	f := flagN | (c.flags() & flagC)
	if halfBorrow {
		f |= flagH
	}
	if result&0x80 != 0 {
		f |= flagS
	}
	if result == 0 {
		f |= flagZ
	}
	if c.reg.BC != 0 {
		f |= flagP
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) cpd() {
	val := c.readByte(c.reg.HL)
	c.delay(5)
	a := c.reg.A()
	result := a - val
	halfBorrow := a&0x0F < val&0x0F
	c.reg.HL--
	c.reg.BC--
	c.reg.WZ--
	n := result
	if halfBorrow {
		n--
	}
	f := flagN | (c.flags() & flagC)
	if halfBorrow {
		f |= flagH
	}
	if result&0x80 != 0 {
		f |= flagS
	}
	if result == 0 {
		f |= flagZ
	}
	if c.reg.BC != 0 {
		f |= flagP
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.setFlags(f)
	c.latchQ()
}

// ini/ind/outi/outd use an approximate flag model (S/Z/X/Y from the
// decremented B, N from bit 7 of the transferred byte; H, P/V and C are
// left clear, skipping the exact NMOS carry-out-of-port-arithmetic
// formula for HF/PF/CF) - documented as
// a simplification rather than silently dropped, per the same
// approximation policy already used for the 68k package's flat
// multiply/divide timings.
func (c *CPU) ini() {
	val := c.inPort(c.reg.BC)
	c.delay(1)
	c.writeByte(c.reg.HL, val)
	c.reg.HL++
	c.reg.SetB(c.reg.B() - 1)
	c.reg.WZ = c.reg.BC + 1
	f := sz53p(c.reg.B()) &^ flagP
	if val&0x80 != 0 {
		f |= flagN
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) ind() {
	val := c.inPort(c.reg.BC)
	c.delay(1)
	c.writeByte(c.reg.HL, val)
	c.reg.HL--
	c.reg.SetB(c.reg.B() - 1)
	c.reg.WZ = c.reg.BC - 1
	f := sz53p(c.reg.B()) &^ flagP
	if val&0x80 != 0 {
		f |= flagN
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) outi() {
	val := c.readByte(c.reg.HL)
	c.delay(1)
	c.reg.HL++
	c.reg.SetB(c.reg.B() - 1)
	c.outPort(c.reg.BC, val)
	c.reg.WZ = c.reg.BC + 1
	f := sz53p(c.reg.B()) &^ flagP
	if val&0x80 != 0 {
		f |= flagN
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) outd() {
	val := c.readByte(c.reg.HL)
	c.delay(1)
	c.reg.HL--
	c.reg.SetB(c.reg.B() - 1)
	c.outPort(c.reg.BC, val)
	c.reg.WZ = c.reg.BC - 1
	f := sz53p(c.reg.B()) &^ flagP
	if val&0x80 != 0 {
		f |= flagN
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) rrd() {
	memVal := c.readByte(c.reg.HL)
	a := c.reg.A()
	newA := (a & 0xF0) | (memVal & 0x0F)
	newMem := (a << 4) | (memVal >> 4)
	c.delay(4)
	c.writeByte(c.reg.HL, newMem)
	c.reg.SetA(newA)
	c.reg.WZ = c.reg.HL + 1
	f := sz53p(newA) | (c.flags() & flagC)
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) rld() {
	memVal := c.readByte(c.reg.HL)
	a := c.reg.A()
	newA := (a & 0xF0) | (memVal >> 4)
	newMem := (memVal << 4) | (a & 0x0F)
	c.delay(4)
	c.writeByte(c.reg.HL, newMem)
	c.reg.SetA(newA)
	c.reg.WZ = c.reg.HL + 1
	f := sz53p(newA) | (c.flags() & flagC)
	c.setFlags(f)
	c.latchQ()
}
