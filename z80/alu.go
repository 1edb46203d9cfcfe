package z80

// ALU primitives. Flag formulas are grounded on
// original_source/crates/zilog-z80/src/cpu/execute.rs (see
// SPEC_FULL.md §3 for the DAA/CCF/SCF derivations specifically).

func (c *CPU) addA(v uint8, carryIn bool) {
	a := c.reg.A()
	var cin uint8
	if carryIn {
		cin = 1
	}
	sum := uint16(a) + uint16(v) + uint16(cin)
	result := uint8(sum)

	var f uint8
	if (a&0x0F)+(v&0x0F)+cin > 0x0F {
		f |= flagH
	}
	if sum > 0xFF {
		f |= flagC
	}
	if (a^v)&0x80 == 0 && (a^result)&0x80 != 0 {
		f |= flagP // signed overflow, not sz53p's plain parity
	}
	f |= sz53p(result) &^ flagP
	c.reg.SetA(result)
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) subA(v uint8, carryIn bool, discard bool) {
	a := c.reg.A()
	var cin uint8
	if carryIn {
		cin = 1
	}
	diff := int16(a) - int16(v) - int16(cin)
	result := uint8(diff)

	var f uint8 = flagN
	if int16(a&0x0F)-int16(v&0x0F)-int16(cin) < 0 {
		f |= flagH
	}
	if diff < 0 {
		f |= flagC
	}
	if (a^v)&0x80 != 0 && (a^result)&0x80 != 0 {
		f |= flagP
	}
	if result&0x80 != 0 {
		f |= flagS
	}
	if result == 0 {
		f |= flagZ
	}
	if discard {
		// CP uses the operand's own bit 3/5 for the undocumented flags,
		// not the result's - a well-known Z80 quirk.
		f |= v & (flagY | flagX)
	} else {
		f |= result & (flagY | flagX)
		c.reg.SetA(result)
	}
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) andA(v uint8) {
	result := c.reg.A() & v
	c.reg.SetA(result)
	f := sz53p(result) | flagH
	c.setFlags(f)
	c.latchQ()
}

func (c *CPU) xorA(v uint8) {
	result := c.reg.A() ^ v
	c.reg.SetA(result)
	c.setFlags(sz53p(result))
	c.latchQ()
}

func (c *CPU) orA(v uint8) {
	result := c.reg.A() | v
	c.reg.SetA(result)
	c.setFlags(sz53p(result))
	c.latchQ()
}

// inc8/dec8 leave carry untouched, per the Z80's well-known exception
// to the usual "ALU op sets carry" rule.
func (c *CPU) inc8(v uint8) uint8 {
	result := v + 1
	f := c.flags() & flagC
	if v&0x0F == 0x0F {
		f |= flagH
	}
	if v == 0x7F {
		f |= flagP
	}
	f |= sz53p(result) &^ flagP
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) dec8(v uint8) uint8 {
	result := v - 1
	f := (c.flags() & flagC) | flagN
	if v&0x0F == 0x00 {
		f |= flagH
	}
	if v == 0x80 {
		f |= flagP
	}
	f |= sz53p(result) &^ flagP
	c.setFlags(f)
	c.latchQ()
	return result
}

// daa implements the exact correction algorithm confirmed in
// original_source/crates/zilog-z80/src/cpu/execute.rs.
func (c *CPU) daa() {
	a := c.reg.A()
	f := c.flags()
	n := f&flagN != 0
	cf := f&flagC != 0
	hf := f&flagH != 0

	var correction uint8
	newCF := cf
	if hf || a&0x0F > 9 {
		correction |= 0x06
	}
	if cf || a > 0x99 {
		correction |= 0x60
		newCF = true
	}

	var result uint8
	if n {
		result = a - correction
	} else {
		result = a + correction
	}

	var newHF bool
	if n {
		newHF = hf && a&0x0F < 6
	} else {
		newHF = a&0x0F > 9
	}

	c.reg.SetA(result)
	out := sz53p(result)
	if n {
		out |= flagN
	}
	if newCF {
		out |= flagC
	}
	if newHF {
		out |= flagH
	}
	c.setFlags(out)
	c.latchQ()
}

func (c *CPU) cpl() {
	a := ^c.reg.A()
	c.reg.SetA(a)
	f := (c.flags() & (flagS | flagZ | flagP | flagC)) | flagH | flagN | (a & (flagY | flagX))
	c.setFlags(f)
	c.latchQ()
}

// ccf/scf implement the undocumented X/Y "Q register" rule: the bits
// come from (Q xor F) OR A, where Q is F as it stood immediately after
// the previous flag-affecting instruction (not merely the current F).
func (c *CPU) ccf() {
	f := c.flags()
	qXorF := c.reg.Q ^ f
	newC := (f & flagC) ^ flagC
	out := (f & (flagS | flagZ | flagP)) | newC | ((qXorF | c.reg.A()) & (flagY | flagX))
	if f&flagC != 0 {
		out |= flagH
	}
	c.setFlags(out)
	c.latchQ()
}

func (c *CPU) scf() {
	f := c.flags()
	qXorF := c.reg.Q ^ f
	out := (f & (flagS | flagZ | flagP)) | flagC | ((qXorF | c.reg.A()) & (flagY | flagX))
	c.setFlags(out)
	c.latchQ()
}

func (c *CPU) rlc(v uint8) uint8 {
	carry := v&0x80 != 0
	result := v << 1
	if carry {
		result |= 1
	}
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) rrc(v uint8) uint8 {
	carry := v&0x01 != 0
	result := v >> 1
	if carry {
		result |= 0x80
	}
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) rl(v uint8) uint8 {
	oldCarry := c.flags()&flagC != 0
	carry := v&0x80 != 0
	result := v << 1
	if oldCarry {
		result |= 1
	}
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) rr(v uint8) uint8 {
	oldCarry := c.flags()&flagC != 0
	carry := v&0x01 != 0
	result := v >> 1
	if oldCarry {
		result |= 0x80
	}
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) sla(v uint8) uint8 {
	carry := v&0x80 != 0
	result := v << 1
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) sra(v uint8) uint8 {
	carry := v&0x01 != 0
	result := (v >> 1) | (v & 0x80)
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

// sll is the undocumented "shift left logical" that shifts in a 1
// instead of a 0 at bit 0 (opcodes 0x30-0x37 of the CB table).
func (c *CPU) sll(v uint8) uint8 {
	carry := v&0x80 != 0
	result := (v << 1) | 1
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

func (c *CPU) srl(v uint8) uint8 {
	carry := v&0x01 != 0
	result := v >> 1
	f := sz53p(result)
	if carry {
		f |= flagC
	}
	c.setFlags(f)
	c.latchQ()
	return result
}

// bitTest implements BIT n,r/BIT n,(HL)/BIT n,(IX+d): the undocumented
// X/Y flags come from the tested value for register/HL forms, but from
// WZ's high byte for the indexed/(HL) displacement forms - callers
// pass flagSrc accordingly.
func (c *CPU) bitTest(n, v, flagSrc uint8) {
	bit := v & (1 << n)
	f := (c.flags() & flagC) | flagH | (flagSrc & (flagY | flagX))
	if bit == 0 {
		f |= flagZ | flagP
	}
	if n == 7 && bit != 0 {
		f |= flagS
	}
	c.setFlags(f)
	c.latchQ()
}

func setBit(n, v uint8) uint8   { return v | (1 << n) }
func resetBit(n, v uint8) uint8 { return v &^ (1 << n) }
