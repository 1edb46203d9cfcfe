package z80

// CPU is a cycle-accurate Zilog Z80 core. The zero value is not
// runnable; construct with New or prime a blank CPU with SetState.
type CPU struct {
	reg Registers
	cap Capability

	curBus Bus

	halted  bool // HALT instruction executed, waiting for interrupt
	eiDelay bool // true for the one instruction boundary following EI

	tStates uint64

	unitActive       bool
	curKind          uopKind
	curTag           int
	pendingReq       *busRequest
	pendingRemaining int
	pendingResult    uint8

	doneCh   chan struct{}
	reqCh    chan busRequest
	resultCh chan uint8
	cancelCh chan struct{}
}

// New creates a CPU in its post-reset state and primes it to fetch
// from 0x0000, the Z80's fixed reset vector (unlike the 68000, which
// reads SSP/PC from the vector table, the Z80 always starts at 0, so
// reset never needs to touch the bus). bus is accepted anyway to keep
// construction symmetric with m68k.New(bus) for callers wiring up both
// cores side by side; Tick is where this CPU actually talks to it.
func New(bus Bus) *CPU {
	c := &CPU{cap: CapabilityCMOS}
	c.curBus = bus
	c.reg.SP = 0xFFFF
	c.reg.IM = 0
	return c
}

// NewWithCapability creates a CPU gated to the given capability set
// (CapabilityNMOS/CapabilityCMOS), mirroring m68k.NewWithCapability.
func NewWithCapability(bus Bus, cap Capability) *CPU {
	c := New(bus)
	c.cap = cap
	return c
}

// SetState loads register values directly, for test fixtures and
// save-state restoration. Must be called at an instruction boundary.
func (c *CPU) SetState(reg Registers) {
	c.abortCoroutine()
	c.reg = reg
	c.halted = false
}

// SetCapability configures optional behavior gates.
func (c *CPU) SetCapability(cap Capability) { c.cap = cap }

// Registers returns a copy of the current programmer-visible state.
func (c *CPU) Registers() Registers { return c.reg }

// Halted reports whether the CPU executed HALT and is waiting for an
// interrupt (not to be confused with the 68000's double-bus-fault
// halt; the Z80 HALT is a normal, resumable wait state).
func (c *CPU) Halted() bool { return c.halted }

// Idle reports whether the CPU is at an instruction boundary: no
// coroutine running and no bus request pending. Safe point to call
// Serialize or inspect Registers with guaranteed-consistent state.
func (c *CPU) Idle() bool { return !c.unitActive && c.pendingReq == nil }

// TStates returns the total T-states elapsed since construction or
// the last SetState.
func (c *CPU) TStates() uint64 { return c.tStates }

// CurrentTag reports the follow-up phase of the in-flight unit of
// work, for observability (spec.md §6.4).
func (c *CPU) CurrentTag() int { return c.curTag }

func (c *CPU) flags() uint8     { return c.reg.F() }
func (c *CPU) setFlags(f uint8) { c.reg.SetF(f) }
