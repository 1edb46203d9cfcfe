package m68k

// runInstruction is the coroutine body for a single instruction: it
// promotes the prefetched word into IR, decodes it, and calls the
// matching opFunc. Every bus access the handler performs (through
// nextWord/readBus/writeBus/resolveEA) suspends the coroutine at a
// rendezvous point owned by engine.go; the handler's own Go call stack
// is its continuation, so no instruction needs hand-written phase
// tracking beyond the curTag value it sets for observability.
func (c *CPU) runInstruction() {
	c.clearUndo()
	c.promote()
	c.reg.IR = c.ir

	handler := opcodeTable[c.ir]
	if handler == nil {
		switch c.ir >> 12 {
		case 0xA:
			c.raiseException(vecLineA)
		case 0xF:
			c.raiseException(vecLineF)
		default:
			c.raiseException(vecIllegalInstruction)
		}
		return
	}

	handler(c)
}
