package m68k

import "testing"

func TestAddressError(t *testing.T) {
	t.Run("word read from odd address takes address error", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.W (A0), D0 — opcode 0x3010
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x3010)

		cpu := &CPU{}
		cpu.SetState(Registers{A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU halted after word read from odd address; want a group-0 exception")
		}
		if sp := cpu.Registers().A[7]; sp != 0x10000-14 {
			t.Errorf("A7 = 0x%X, want 0x%X (14-byte group-0 frame pushed)", sp, 0x10000-14)
		}
	})

	t.Run("long read from odd address takes address error", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.L (A0), D0 — opcode 0x2010
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x2010)

		cpu := &CPU{}
		cpu.SetState(Registers{A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU halted after long read from odd address; want a group-0 exception")
		}
		if sp := cpu.Registers().A[7]; sp != 0x10000-14 {
			t.Errorf("A7 = 0x%X, want 0x%X (14-byte group-0 frame pushed)", sp, 0x10000-14)
		}
	})

	t.Run("word write to odd address takes address error", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.W D0, (A0) — opcode 0x3080
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x3080)

		cpu := &CPU{}
		cpu.SetState(Registers{D: [8]uint32{0x1234}, A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU halted after word write to odd address; want a group-0 exception")
		}
		if sp := cpu.Registers().A[7]; sp != 0x10000-14 {
			t.Errorf("A7 = 0x%X, want 0x%X (14-byte group-0 frame pushed)", sp, 0x10000-14)
		}
	})

	t.Run("long write to odd address takes address error", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.L D0, (A0) — opcode 0x2080
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x2080)

		cpu := &CPU{}
		cpu.SetState(Registers{D: [8]uint32{0x12345678}, A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU halted after long write to odd address; want a group-0 exception")
		}
		if sp := cpu.Registers().A[7]; sp != 0x10000-14 {
			t.Errorf("A7 = 0x%X, want 0x%X (14-byte group-0 frame pushed)", sp, 0x10000-14)
		}
	})

	t.Run("byte read from odd address works", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.B (A0), D0 — opcode 0x1010
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x1010)
		bus.mem[0x2001] = 0xAB

		cpu := &CPU{}
		cpu.SetState(Registers{A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU should not halt on byte read from odd address")
		}
		reg := cpu.Registers()
		if reg.D[0]&0xFF != 0xAB {
			t.Errorf("D0 low byte = 0x%02X, want 0xAB", reg.D[0]&0xFF)
		}
	})

	t.Run("byte write to odd address works", func(t *testing.T) {
		bus := &testBus{}
		// MOVE.B D0, (A0) — opcode 0x1080
		pc := uint32(0x1000)
		writeWord(bus, pc, 0x1080)

		cpu := &CPU{}
		cpu.SetState(Registers{D: [8]uint32{0xCD}, A: [8]uint32{0x2001}, PC: pc, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU should not halt on byte write to odd address")
		}
		if bus.mem[0x2001] != 0xCD {
			t.Errorf("RAM[0x2001] = 0x%02X, want 0xCD", bus.mem[0x2001])
		}
	})

	t.Run("odd PC takes address error", func(t *testing.T) {
		bus := &testBus{}
		writeWord(bus, 0x1000, 0x4E71) // NOP, in case fetch reaches there

		cpu := &CPU{}
		cpu.SetState(Registers{PC: 0x1001, SR: 0x2700, SSP: 0x10000})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if cpu.Halted() {
			t.Errorf("CPU halted with odd PC; want a group-0 exception")
		}
		if sp := cpu.Registers().A[7]; sp != 0x10000-14 {
			t.Errorf("A7 = 0x%X, want 0x%X (14-byte group-0 frame pushed)", sp, 0x10000-14)
		}
	})

	t.Run("odd SSP during exception halts", func(t *testing.T) {
		bus := &testBus{}

		// Use the explicit ILLEGAL instruction (0x4AFC) to trigger a
		// group-1 exception. Handler address at vector 4 (address 0x10)
		// is irrelevant: the push to an odd SSP faults first.
		bus.mem[0x10] = 0x00
		bus.mem[0x11] = 0x00
		bus.mem[0x12] = 0x20
		bus.mem[0x13] = 0x00 // handler at 0x2000

		pc := uint32(0x1000)
		writeWord(bus, pc, 0x4AFC)

		cpu := &CPU{}
		cpu.SetState(Registers{PC: pc, SR: 0x2700, SSP: 0x10001})
		cpu.PrimeFetch(bus)
		runToIdle(cpu, bus)

		if !cpu.Halted() {
			t.Errorf("expected CPU to be halted when exception pushes to odd SSP")
		}
	})
}

func TestNOPTiming(t *testing.T) {
	cpu, bus := newNOPCPU(3)

	for i := 0; i < 3; i++ {
		cycles := runToIdle(cpu, bus)
		if cycles != 4 {
			t.Errorf("NOP %d: cycles = %d, want 4", i, cycles)
		}
	}
}

func TestResetClearsState(t *testing.T) {
	bus := &testBus{}
	bus.mem[0] = 0x00
	bus.mem[1] = 0x00
	bus.mem[2] = 0x01
	bus.mem[3] = 0x00 // SSP = 0x0100
	bus.mem[4] = 0x00
	bus.mem[5] = 0x00
	bus.mem[6] = 0x10
	bus.mem[7] = 0x00 // PC = 0x1000
	fillNOPs(bus, 0x1000, 1)

	cpu := New(bus)

	reg := cpu.Registers()
	if reg.A[7] != 0x0100 {
		t.Errorf("SSP after reset = 0x%08X, want 0x0100", reg.A[7])
	}
	if reg.SR&flagS == 0 {
		t.Errorf("SR supervisor bit not set after reset")
	}
	if (reg.SR>>8)&7 != 7 {
		t.Errorf("interrupt mask after reset = %d, want 7", (reg.SR>>8)&7)
	}
	if cpu.Halted() {
		t.Errorf("CPU should not be halted immediately after reset")
	}
}

func TestRequestInterruptLatchesHighestLevel(t *testing.T) {
	cpu := &CPU{}
	cpu.RequestInterrupt(3)
	cpu.RequestInterrupt(2)
	if cpu.pendingIPL != 3 {
		t.Errorf("pendingIPL = %d, want 3 (higher level should win)", cpu.pendingIPL)
	}
	cpu.RequestInterrupt(5)
	if cpu.pendingIPL != 5 {
		t.Errorf("pendingIPL = %d, want 5", cpu.pendingIPL)
	}
}
