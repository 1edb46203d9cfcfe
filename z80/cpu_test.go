package z80

import "testing"

func TestNOP(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x00 // NOP
	cpu := newCPU(bus, 0)

	states := runToIdle(cpu, bus)
	if states != 4 {
		t.Errorf("NOP states = %d, want 4", states)
	}
	if cpu.Registers().PC != 1 {
		t.Errorf("PC = %d, want 1", cpu.Registers().PC)
	}
}

func TestLDRegImmediate(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x3E // LD A,n
	bus.mem[1] = 0x42
	cpu := newCPU(bus, 0)

	runToIdle(cpu, bus)
	if cpu.Registers().A() != 0x42 {
		t.Errorf("A = 0x%02X, want 0x42", cpu.Registers().A())
	}
}

func TestRRegisterLow7BitCounter(t *testing.T) {
	// spec.md §8.1: R increments its low 7 bits on every M1 cycle and
	// never touches bit 7.
	bus := &testBus{}
	for i := 0; i < 10; i++ {
		bus.mem[i] = 0x00 // NOP
	}
	cpu := newCPU(bus, 0)
	cpu.reg.R = 0x7F

	for i := 0; i < 3; i++ {
		runToIdle(cpu, bus)
	}
	if cpu.Registers().R != 0x02 {
		t.Errorf("R = 0x%02X, want 0x02 (wrapped low 7 bits)", cpu.Registers().R)
	}
}

func TestDAAAfterBCDAdd(t *testing.T) {
	// ADD A,n leaves the genuine half-carry DAA needs: 0x09 + 0x08 = 0x11
	// raw with H set (low nibbles overflowed), so DAA must apply the
	// 0x06 low-nibble correction and land on the correct BCD sum 0x17.
	bus := &testBus{}
	bus.mem[0] = 0xC6 // ADD A,n
	bus.mem[1] = 0x08
	bus.mem[2] = 0x27 // DAA
	cpu := newCPU(bus, 0)
	cpu.reg.SetA(0x09)
	cpu.reg.SetF(0)

	runToIdle(cpu, bus)
	runToIdle(cpu, bus)
	if cpu.Registers().A() != 0x17 {
		t.Errorf("A after DAA = 0x%02X, want 0x17", cpu.Registers().A())
	}
}

func TestEIDelaysOneInstruction(t *testing.T) {
	// EI; NOP; NOP - interrupt pending throughout must not be serviced
	// until the boundary after the NOP immediately following EI.
	bus := &testBus{}
	bus.mem[0] = 0xFB // EI
	bus.mem[1] = 0x00 // NOP (must run before interrupt is serviced)
	bus.mem[2] = 0x00 // NOP
	bus.int = true
	bus.intVec = 0xFF
	cpu := newCPU(bus, 0)
	cpu.reg.IM = 1

	runToIdle(cpu, bus) // EI
	if !cpu.reg.IFF1 {
		t.Fatal("IFF1 should be set immediately by EI")
	}
	runToIdle(cpu, bus) // the instruction following EI: must NOT be the interrupt response
	if cpu.Registers().PC != 2 {
		t.Errorf("PC after post-EI instruction = %d, want 2 (interrupt must not have fired yet)", cpu.Registers().PC)
	}

	runToIdle(cpu, bus) // now the interrupt may fire
	if cpu.Registers().PC != 0x0038 {
		t.Errorf("PC = 0x%04X, want 0x0038 (IM1 interrupt should have fired)", cpu.Registers().PC)
	}
}

func TestHaltWakesOnInterrupt(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x76 // HALT
	cpu := newCPU(bus, 0)
	cpu.reg.IM = 1
	cpu.reg.IFF1 = true
	cpu.reg.IFF2 = true

	runToIdle(cpu, bus) // executes HALT
	if !cpu.Halted() {
		t.Fatal("expected CPU halted after HALT")
	}

	for i := 0; i < 5; i++ {
		runToIdle(cpu, bus)
		if !cpu.Halted() {
			t.Fatal("CPU should still be halted with no interrupt pending")
		}
	}

	bus.int = true
	runToIdle(cpu, bus)
	if cpu.Halted() {
		t.Errorf("CPU should wake from HALT on interrupt")
	}
	if cpu.Registers().PC != 0x0038 {
		t.Errorf("PC after HALT wake = 0x%04X, want 0x0038", cpu.Registers().PC)
	}
}

func TestLDIRBlockMove(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0xED
	bus.mem[1] = 0xB0 // LDIR
	bus.mem[0x1000] = 0xAA
	bus.mem[0x1001] = 0xBB
	bus.mem[0x1002] = 0xCC
	cpu := newCPU(bus, 0)
	cpu.reg.HL = 0x1000
	cpu.reg.DE = 0x2000
	cpu.reg.BC = 3

	// LDIR re-dispatches its own ED B0 opcode on each repeat (PC is
	// rewound onto the prefix byte rather than looping internally), so
	// it stays interruptible between elements - drive it to completion
	// the same way DJNZ's per-iteration boundary is driven below.
	for i := 0; i < 10 && cpu.Registers().BC != 0; i++ {
		runToIdle(cpu, bus)
	}

	if bus.mem[0x2000] != 0xAA || bus.mem[0x2001] != 0xBB || bus.mem[0x2002] != 0xCC {
		t.Errorf("LDIR did not copy all three bytes: %02X %02X %02X", bus.mem[0x2000], bus.mem[0x2001], bus.mem[0x2002])
	}
	if cpu.Registers().BC != 0 {
		t.Errorf("BC after LDIR = %d, want 0", cpu.Registers().BC)
	}
	if cpu.Registers().HL != 0x1003 || cpu.Registers().DE != 0x2003 {
		t.Errorf("HL/DE after LDIR = 0x%04X/0x%04X, want 0x1003/0x2003", cpu.Registers().HL, cpu.Registers().DE)
	}
}

func TestDJNZCountdown(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x10 // DJNZ -2 (loop on itself)
	bus.mem[1] = 0xFE
	cpu := newCPU(bus, 0)
	cpu.reg.SetB(3)

	for cpu.Registers().B() != 0 {
		runToIdle(cpu, bus)
	}
	if cpu.Registers().PC != 2 {
		t.Errorf("PC after DJNZ exits loop = %d, want 2", cpu.Registers().PC)
	}
}

func TestExchangeDEHL(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0xEB // EX DE,HL
	cpu := newCPU(bus, 0)
	cpu.reg.DE = 0x1234
	cpu.reg.HL = 0x5678

	runToIdle(cpu, bus)
	if cpu.Registers().DE != 0x5678 || cpu.Registers().HL != 0x1234 {
		t.Errorf("EX DE,HL did not swap: DE=0x%04X HL=0x%04X", cpu.Registers().DE, cpu.Registers().HL)
	}
}

func TestExStackPointerHLOddSP(t *testing.T) {
	// spec.md §8.3: EX (SP),HL at an odd SP is legal on the Z80 (no
	// alignment faulting, unlike the 68000's address-error model).
	bus := &testBus{}
	bus.mem[0] = 0xE3 // EX (SP),HL
	writeWord(bus, 0x1001, 0xBEEF)
	cpu := newCPU(bus, 0)
	cpu.reg.SP = 0x1001
	cpu.reg.HL = 0x1234

	runToIdle(cpu, bus)
	if cpu.Registers().HL != 0xBEEF {
		t.Errorf("HL after EX (SP),HL = 0x%04X, want 0xBEEF", cpu.Registers().HL)
	}
	if bus.mem[0x1001] != 0x34 || bus.mem[0x1002] != 0x12 {
		t.Errorf("stack not updated correctly: %02X %02X", bus.mem[0x1001], bus.mem[0x1002])
	}
}

func TestCCFQRegisterRule(t *testing.T) {
	// CCF's undocumented X/Y flags derive from (Q xor F) | A, not
	// simply from A, per DESIGN.md's Q-register rule.
	bus := &testBus{}
	bus.mem[0] = 0x3F // CCF
	cpu := newCPU(bus, 0)
	cpu.reg.SetA(0x00)
	cpu.reg.SetF(0)
	cpu.reg.Q = 0x28 // pretend the previous flag-affecting op left X/Y set

	runToIdle(cpu, bus)
	f := cpu.Registers().F()
	if f&(flagY|flagX) != 0x28 {
		t.Errorf("CCF X/Y flags = 0x%02X, want 0x28 from the Q latch", f&(flagY|flagX))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cpu := &CPU{}
	reg := Registers{
		AF: 0x1234, BC: 0x5678, DE: 0x9ABC, HL: 0xDEF0,
		AF2: 0x1111, BC2: 0x2222, DE2: 0x3333, HL2: 0x4444,
		IX: 0x5555, IY: 0x6666, SP: 0x7777, PC: 0x8888, WZ: 0x9999,
		I: 0x01, R: 0x02, Q: 0x03, IM: 2, IFF1: true, IFF2: false,
	}
	cpu.SetState(reg)
	cpu.halted = true
	cpu.eiDelay = true
	cpu.tStates = 424242

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cpu2 := &CPU{}
	if err := cpu2.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if cpu2.reg != cpu.reg {
		t.Errorf("registers diverged:\n  got=%+v\n  want=%+v", cpu2.reg, cpu.reg)
	}
	if cpu2.halted != cpu.halted || cpu2.eiDelay != cpu.eiDelay || cpu2.tStates != cpu.tStates {
		t.Errorf("engine state diverged: halted=%v/%v eiDelay=%v/%v tStates=%d/%d",
			cpu2.halted, cpu.halted, cpu2.eiDelay, cpu.eiDelay, cpu2.tStates, cpu.tStates)
	}
}

func TestSerializeRejectsMidInstruction(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x00
	cpu := newCPU(bus, 0)

	cpu.Tick(bus) // one T-state into the NOP's M1 cycle

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err == nil {
		t.Fatal("Serialize should reject a mid-instruction CPU")
	}
	runToIdle(cpu, bus)
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize at an instruction boundary should succeed: %v", err)
	}
}
