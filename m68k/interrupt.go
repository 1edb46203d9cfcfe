package m68k

// runInterrupt is the coroutine body for servicing a qualifying
// interrupt, chosen by beginNextUnit in preference to starting a new
// instruction. It runs the acknowledge bus cycle, stacks a 6-byte
// return frame, and redirects fetch to the handler - all while priority
// interrupts above the new mask stay blocked until the next boundary.
func (c *CPU) runInterrupt(level uint8) {
	c.clearUndo()
	c.pendingIPL = 0

	oldSR := c.reg.SR

	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}
	c.reg.SR = (c.reg.SR | flagS) &^ flagT
	c.reg.SR = (c.reg.SR & 0xF8FF) | uint16(level)<<8

	vecVal := c.busOp(uopIACK, 0, 0, FC(level))
	vector := uint8(vecVal)
	if vector == 0 {
		vector = 24 + level // autovector
	}

	c.pushLong(c.ircAddr) // address of the instruction that would have run next
	c.pushWord(oldSR)

	c.dispatchVector(int(vector))
	c.stopped = false
	c.delay(34)
}
