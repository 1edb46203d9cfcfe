package m68k

import "runtime"

// This file implements the micro-op scheduler described in the design
// overview: Tick advances the CPU by exactly one crystal clock, and all
// suspension happens at bus-cycle boundaries. Instruction bodies are
// ordinary Go functions (see ops_*.go) that read and write the bus
// through readBus/writeBus/nextWord; those calls are the only points
// where an instruction can be suspended mid-flight, so each instruction
// runs as a small native coroutine: a goroutine that blocks on a channel
// handoff every time it touches the bus, and is resumed one clock at a
// time by Tick. Exactly one of {Tick's caller, the instruction
// goroutine} is ever runnable at once, so there is no data race on CPU
// state despite the concurrency - the two sides alternate strictly
// through unbuffered channel rendezvous.

// uopKind tags the kind of primitive bus/delay step currently in
// flight. The CPU keeps it in curKind while the step runs; the package
// exports no accessor for it.
type uopKind uint8

const (
	uopNone uopKind = iota
	uopReadByte
	uopReadWord
	uopWriteByte
	uopWriteWord
	uopIACK
	uopInternalDelay
)

func (k uopKind) String() string {
	switch k {
	case uopReadByte:
		return "read.b"
	case uopReadWord:
		return "read.w"
	case uopWriteByte:
		return "write.b"
	case uopWriteWord:
		return "write.w"
	case uopIACK:
		return "iack"
	case uopInternalDelay:
		return "delay"
	default:
		return "idle"
	}
}

// Follow-up tags: the phase of a multi-cycle instruction currently in
// flight, recorded for observability (§6.4). Routing between phases is
// carried out by the coroutine's own control flow rather than a table
// lookup, since Go gives each instruction a real call stack to use as
// its continuation - the legal alternative the design notes call out
// to a tagged-variant state machine.
const (
	TagNone = iota
	TagFetchSrcEA
	TagFetchSrcData
	TagFetchDstEA
	TagFetchDstData
	TagCompute
	TagWriteback
	TagMovem
	TagMulDiv
	TagBCD
	TagJump
	TagException
	TagAddressError
)

// busRequest is what an instruction coroutine hands to the scheduler
// when it needs a bus cycle or internal delay.
type busRequest struct {
	kind uopKind
	addr uint32
	val  uint32
	fc   FC
}

// addrErrFault carries the information needed to build a group-0
// exception frame. It is panicked from whichever bus helper noticed
// the odd address, unwinds the instruction coroutine, and is caught by
// the coroutine trampoline in startCoroutine.
type addrErrFault struct {
	write      bool
	addr       uint32
	fc         FC
	irForFrame uint16
}

// doubleFault is panicked when an address error occurs while the CPU
// is already stacking an exception frame; it halts the CPU.
type doubleFault struct{}

// startCoroutine launches body as the current unit of work (an
// instruction, an interrupt acknowledge sequence, or an exception
// stacking sequence) and primes it: runs it until its first bus/delay
// request, which is left un-dispatched in c.pendingReq for Tick to
// charge clocks against starting with the next call. This priming is
// itself instant-op work (no clock cost), matching §4.2 step 2.
func (c *CPU) startCoroutine(bus Bus, body func()) {
	c.doneCh = make(chan struct{})
	c.reqCh = make(chan busRequest)
	c.resultCh = make(chan uint32)
	c.cancelCh = make(chan struct{})
	c.instrActive = true
	c.curBus = bus
	go func() {
		defer close(c.doneCh)
		defer func() {
			if r := recover(); r != nil {
				switch f := r.(type) {
				case addrErrFault:
					c.lastFault = &f
				case doubleFault:
					c.halted = true
				default:
					panic(r)
				}
			}
		}()
		body()
	}()
	c.primeFromCoroutine(bus)
}

// primeFromCoroutine blocks until the running coroutine either issues
// its next bus/delay request (stored for Tick to dispatch) or
// completes.
func (c *CPU) primeFromCoroutine(bus Bus) {
	select {
	case req := <-c.reqCh:
		c.pendingReq = &req
	case <-c.doneCh:
		c.instrActive = false
		c.handleCompletion(bus)
	}
}

// busOp is called from inside the running coroutine. It hands the
// request to the scheduler and blocks until Tick has paid out the bus
// op's minimum cycles plus any externally signalled wait states.
func (c *CPU) busOp(kind uopKind, addr uint32, val uint32, fc FC) uint32 {
	select {
	case c.reqCh <- busRequest{kind: kind, addr: addr, val: val, fc: fc}:
	case <-c.cancelCh:
		runtime.Goexit()
	}
	select {
	case result := <-c.resultCh:
		return result
	case <-c.cancelCh:
		runtime.Goexit()
	}
	return 0
}

// delay burns n internal (non-bus) clocks: EA index/predecrement
// arithmetic, MUL/DIV settling time, shift-count cost, and so on.
func (c *CPU) delay(n uint64) {
	if n <= 0 {
		return
	}
	select {
	case c.reqCh <- busRequest{kind: uopInternalDelay, val: uint32(n)}:
	case <-c.cancelCh:
		runtime.Goexit()
	}
	select {
	case <-c.resultCh:
	case <-c.cancelCh:
		runtime.Goexit()
	}
}

// Tick advances the CPU by exactly one clock. Callers drive it once
// per crystal clock (the 68000 only ever acts on multiples of four,
// but wait-state and wait-free bookkeeping both fall out naturally of
// counting every clock).
func (c *CPU) Tick(bus Bus) {
	if c.halted {
		return
	}

	// A dispatched bus op's countdown must be checked before the
	// "anything to dispatch" check below: dispatchPending clears
	// pendingReq the instant it dispatches, so pendingReq==nil is
	// ambiguous between "truly idle" and "mid-countdown on an
	// already-dispatched op" - pendingRemaining disambiguates them.
	if c.pendingRemaining > 0 {
		c.pendingRemaining--
		c.cycles++
		if c.pendingRemaining == 0 {
			c.finishPending(bus)
		}
		return
	}

	if c.pendingReq == nil && !c.instrActive {
		c.beginNextUnit(bus)
	}

	if c.pendingReq == nil {
		// Nothing dispatchable this clock (CPU stopped, no qualifying
		// interrupt pending). Still a real clock.
		c.cycles++
		return
	}

	c.dispatchPending(bus)
	c.cycles++
	if c.pendingRemaining == 0 {
		c.finishPending(bus)
	}
}

// beginNextUnit is called at an instruction boundary: the previous
// coroutine has finished and nothing is queued. It samples interrupts
// (only legal boundary per §4.2) and starts whichever coroutine should
// run next.
func (c *CPU) beginNextUnit(bus Bus) {
	c.curTag = TagNone
	c.curKind = uopNone

	if c.stopped {
		level := c.effectiveIPL(bus)
		mask := uint8((c.reg.SR >> 8) & 7)
		if level == 7 || (level > 0 && level > mask) {
			c.stopped = false
		} else {
			return
		}
	}

	if level := c.effectiveIPL(bus); level > 0 {
		mask := uint8((c.reg.SR >> 8) & 7)
		if level == 7 || level > mask {
			c.startCoroutine(bus, func() { c.runInterrupt(level) })
			return
		}
	}

	c.startCoroutine(bus, func() { c.runInstruction() })
}

func (c *CPU) dispatchPending(bus Bus) {
	req := *c.pendingReq
	c.pendingReq = nil
	c.curKind = req.kind

	if req.kind == uopInternalDelay {
		c.pendingRemaining = int(req.val) - 1
		return
	}

	var val uint32
	wait := 0
	switch req.kind {
	case uopReadByte:
		val, wait = bus.ReadByte(req.addr, req.fc)
	case uopReadWord:
		val, wait = bus.ReadWord(req.addr, req.fc)
	case uopWriteByte:
		wait = bus.WriteByte(req.addr, req.val, req.fc)
	case uopWriteWord:
		wait = bus.WriteWord(req.addr, req.val, req.fc)
	case uopIACK:
		var vec uint8
		vec, wait = bus.AckInterrupt(uint8(req.fc))
		val = uint32(vec)
	}
	if wait < 0 {
		wait = 0
	}
	c.pendingResult = val
	c.pendingRemaining = 4 + wait - 1
}

// finishPending hands the completed bus/delay result back to the
// waiting coroutine and immediately re-synchronizes with it (this is
// "free" instant-op draining, not a new clock).
func (c *CPU) finishPending(bus Bus) {
	c.curKind = uopNone
	select {
	case c.resultCh <- c.pendingResult:
	case <-c.cancelCh:
		return
	}
	select {
	case req := <-c.reqCh:
		c.pendingReq = &req
	case <-c.doneCh:
		c.instrActive = false
		c.handleCompletion(bus)
	}
}

// handleCompletion runs after a coroutine's doneCh fires: either the
// unit finished cleanly (nothing further to do until the next Tick's
// beginNextUnit call), or it unwound via an address-error fault, which
// must itself be serviced before the CPU can reach its next boundary.
func (c *CPU) handleCompletion(bus Bus) {
	if c.lastFault != nil {
		fault := *c.lastFault
		c.lastFault = nil
		c.startCoroutine(bus, func() { c.runAddressError(fault) })
	}
}

// abortCoroutine terminates any in-flight instruction goroutine. Used
// by Reset/SetState, which should only be invoked at instruction
// boundaries in normal use, but this defends against mid-flight calls.
func (c *CPU) abortCoroutine() {
	if c.instrActive {
		close(c.cancelCh)
		<-c.doneCh
		c.instrActive = false
	}
	c.pendingReq = nil
	c.pendingRemaining = 0
	c.curKind = uopNone
	c.curTag = TagNone
	c.lastFault = nil
}
