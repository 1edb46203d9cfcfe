package m68k

// MC68000 exception vector numbers.
const (
	vecResetSSP           = 0
	vecResetPC            = 1
	vecBusError           = 2
	vecAddressError       = 3
	vecIllegalInstruction = 4
	vecDivideByZero       = 5
	vecCHK                = 6
	vecTRAPV              = 7
	vecPrivilegeViolation = 8
	vecTrace              = 9
	vecLineA              = 10
	vecLineF              = 11
	vecUninitialized      = 15
	vecSpuriousInterrupt  = 24
	vecAutoVector1        = 25
	vecTrap0              = 32 // TRAP #0 through TRAP #15 = vectors 32-47
)

// raiseAddressError aborts the instruction currently executing: it
// applies that instruction's recorded undo (if any) and panics with an
// addrErrFault, unwinding the coroutine's Go call stack all the way out
// (deferred per-EA cleanup is unnecessary - nothing below this frame
// owns resources besides CPU registers, which armUndo already snapshot).
// The panic is caught by startCoroutine's trampoline, which starts a
// fresh coroutine to run runAddressError and build the group-0 frame.
// If this fires while a group-0 frame is already being stacked, it is a
// double bus fault: the CPU halts instead.
func (c *CPU) raiseAddressError(write bool, addr uint32, fc FC) {
	if c.stackingFault {
		panic(doubleFault{})
	}
	c.applyUndo()
	panic(addrErrFault{write: write, addr: addr, fc: fc, irForFrame: c.ir})
}

// raiseIllegal is shorthand for the illegal-instruction exception,
// used by resolveEA and decode for encodings with no valid EA mode.
func (c *CPU) raiseIllegal() {
	c.raiseException(vecIllegalInstruction)
}

// raiseException processes a group 1 or group 2 exception from within
// the running instruction coroutine: enters supervisor mode, pushes a
// 6-byte return frame (PC + SR), reads the vector, and redirects fetch
// to the handler. Used directly by TRAP/TRAPV/CHK/DIVU/DIVS
// (group 2, push the address of the next instruction) and by
// resolveEA/decode for illegal instruction, privilege violation, and
// line-A/line-F traps (group 1, push the address of the faulting
// instruction itself).
func (c *CPU) raiseException(vector int) {
	// Group 2 (TRAP/TRAPV/CHK/divide-by-zero): push the address of the
	// next instruction, already sitting in IRC. Group 1 (illegal
	// instruction, privilege violation, line-A/line-F): push the address
	// of the faulting instruction itself.
	pushPC := c.ircAddr
	switch vector {
	case vecIllegalInstruction, vecPrivilegeViolation, vecLineA, vecLineF:
		pushPC = c.instrPC
	}
	c.stackFrame(vector, pushPC, c.reg.SR)
}

// stackFrame performs the common tail of every 6-byte exception frame:
// supervisor entry, trace clear, PC+SR push, vector fetch, and fetch
// redirection to the handler.
func (c *CPU) stackFrame(vector int, pushPC uint32, oldSR uint16) {
	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}
	c.reg.SR = (c.reg.SR | flagS) &^ flagT

	c.pushLong(pushPC)
	c.pushWord(oldSR)

	c.dispatchVector(vector)
	c.delay(24) // remaining internal settling time beyond the bus ops already charged
}

// dispatchVector reads the handler address for vector out of the
// vector table and redirects the prefetch pipeline there. A table entry
// of exactly 0 is not special-cased. No vector-15 substitution is made
// anywhere; the interrupt-acknowledge path substitutes the autovector
// (24 + level) when the bus returns vector 0 from IACK (see runInterrupt).
func (c *CPU) dispatchVector(vector int) {
	addr := c.readBus(Long, uint32(vector)*4)
	c.redirectFetch(addr)
}

// runAddressError builds the 14-byte group-0 exception stack frame
// after an address error has unwound the faulting instruction. Frame
// layout, low address (top of stack) to high, per the MC68000 PRM:
//
//	SSW (special status word: R/W, I/N, function code)
//	access address (long)
//	instruction register
//	status register
//	program counter (long)
//
// Pushes happen in the opposite order so the frame lands correctly,
// since each push decrements the stack pointer further.
func (c *CPU) runAddressError(fault addrErrFault) {
	c.stackingFault = true
	defer func() { c.stackingFault = false }()

	oldSR := c.reg.SR
	pushPC := c.instrPC

	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}
	c.reg.SR = (c.reg.SR | flagS) &^ flagT

	c.pushLong(pushPC)
	c.pushWord(oldSR)
	c.pushWord(fault.irForFrame)
	c.pushLong(fault.addr)

	ssw := uint16(fault.fc) & 7
	if !fault.write {
		ssw |= 1 << 4
	}
	ssw |= 1 << 3 // instruction-stream access not modeled separately; I/N always set
	c.pushWord(ssw)

	c.dispatchVector(vecAddressError)
	c.delay(50)
}
