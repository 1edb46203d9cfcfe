package z80

// runCB handles the CB-prefixed rotate/shift/BIT/SET/RES table. For
// the DD CB d op / FD CB d op forms the displacement byte precedes the
// final opcode byte (unlike every other prefixed form), and the final
// byte is a plain memory read rather than an M1-refreshed fetch - both
// confirmed against original_source/crates/zilog-z80/src/cpu/execute.rs.
func (c *CPU) runCB(idx idxMode) {
	if idx != idxNone {
		d := int8(c.fetchByteInline())
		base := c.getReg16(r16HL, idx)
		addr := uint16(int32(base) + int32(d))
		c.reg.WZ = addr
		c.delay(2)
		op := c.fetchByteInline()
		c.runCBOp(op, idx, addr, true)
		return
	}
	op := c.fetchOpcode(c.reg.PC)
	c.reg.PC++
	c.runCBOp(op, idx, 0, false)
}

func (c *CPU) runCBOp(op uint8, idx idxMode, addr uint16, haveAddr bool) {
	xv, yv, zv := x(op), y(op), z(op)

	read := func() uint8 {
		if haveAddr {
			return c.readByte(addr)
		}
		return c.getReg8(zv, idxNone, 0, false)
	}
	write := func(v uint8) {
		if haveAddr {
			c.writeByte(addr, v)
			// Undocumented: the DDCB/FDCB forms also copy the result into
			// the named 8-bit register, an artifact of the internal bus.
			if zv != r8HL {
				c.setReg8(zv, idxNone, v, 0, false)
			}
		} else {
			c.setReg8(zv, idxNone, v, 0, false)
		}
	}

	switch xv {
	case 0:
		v := read()
		var result uint8
		switch yv {
		case 0:
			result = c.rlc(v)
		case 1:
			result = c.rrc(v)
		case 2:
			result = c.rl(v)
		case 3:
			result = c.rr(v)
		case 4:
			result = c.sla(v)
		case 5:
			result = c.sra(v)
		case 6:
			result = c.sll(v)
		default:
			result = c.srl(v)
		}
		write(result)
	case 1:
		v := read()
		flagSrc := v
		if haveAddr {
			flagSrc = uint8(c.reg.WZ >> 8)
		}
		c.bitTest(yv, v, flagSrc)
	case 2:
		write(resetBit(yv, read()))
	default:
		write(setBit(yv, read()))
	}
}
