package m68k

import "testing"

func TestSerializeSize(t *testing.T) {
	cpu := &CPU{}
	if got := cpu.SerializeSize(); got != cpuSerializeSize {
		t.Fatalf("SerializeSize() = %d, want %d", got, cpuSerializeSize)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cpu := &CPU{}

	for i := range cpu.reg.D {
		cpu.reg.D[i] = uint32(0x10 + i)
	}
	for i := range cpu.reg.A {
		cpu.reg.A[i] = uint32(0x20 + i)
	}
	cpu.reg.SR = 0x2700
	cpu.reg.USP = 0x5000
	cpu.reg.SSP = 0x6000
	cpu.reg.VBR = 0x7000
	cpu.reg.SFC = 1
	cpu.reg.DFC = 5
	cpu.nextFetch = 0x4000
	cpu.ir = 0x1234
	cpu.irc = 0x4E71
	cpu.ircAddr = 0x3FFE
	cpu.instrPC = 0x3FFC
	cpu.cycles = 9999
	cpu.stopped = true
	cpu.halted = true
	cpu.prevPC = 0x3FFA
	cpu.pendingIPL = 5

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cpu2 := &CPU{}
	if err := cpu2.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if cpu2.reg.D != cpu.reg.D {
		t.Errorf("D = %v, want %v", cpu2.reg.D, cpu.reg.D)
	}
	if cpu2.reg.A != cpu.reg.A {
		t.Errorf("A = %v, want %v", cpu2.reg.A, cpu.reg.A)
	}
	if cpu2.reg.SR != cpu.reg.SR {
		t.Errorf("SR = 0x%X, want 0x%X", cpu2.reg.SR, cpu.reg.SR)
	}
	if cpu2.reg.USP != cpu.reg.USP {
		t.Errorf("USP = 0x%X, want 0x%X", cpu2.reg.USP, cpu.reg.USP)
	}
	if cpu2.reg.SSP != cpu.reg.SSP {
		t.Errorf("SSP = 0x%X, want 0x%X", cpu2.reg.SSP, cpu.reg.SSP)
	}
	if cpu2.reg.VBR != cpu.reg.VBR {
		t.Errorf("VBR = 0x%X, want 0x%X", cpu2.reg.VBR, cpu.reg.VBR)
	}
	if cpu2.reg.SFC != cpu.reg.SFC || cpu2.reg.DFC != cpu.reg.DFC {
		t.Errorf("SFC/DFC = %d/%d, want %d/%d", cpu2.reg.SFC, cpu2.reg.DFC, cpu.reg.SFC, cpu.reg.DFC)
	}
	if cpu2.nextFetch != cpu.nextFetch {
		t.Errorf("nextFetch = 0x%X, want 0x%X", cpu2.nextFetch, cpu.nextFetch)
	}
	if cpu2.ir != cpu.ir || cpu2.irc != cpu.irc {
		t.Errorf("ir/irc = 0x%X/0x%X, want 0x%X/0x%X", cpu2.ir, cpu2.irc, cpu.ir, cpu.irc)
	}
	if cpu2.ircAddr != cpu.ircAddr {
		t.Errorf("ircAddr = 0x%X, want 0x%X", cpu2.ircAddr, cpu.ircAddr)
	}
	if cpu2.instrPC != cpu.instrPC {
		t.Errorf("instrPC = 0x%X, want 0x%X", cpu2.instrPC, cpu.instrPC)
	}
	if cpu2.cycles != cpu.cycles {
		t.Errorf("cycles = %d, want %d", cpu2.cycles, cpu.cycles)
	}
	if cpu2.stopped != cpu.stopped {
		t.Errorf("stopped = %v, want %v", cpu2.stopped, cpu.stopped)
	}
	if cpu2.halted != cpu.halted {
		t.Errorf("halted = %v, want %v", cpu2.halted, cpu.halted)
	}
	if cpu2.prevPC != cpu.prevPC {
		t.Errorf("prevPC = 0x%X, want 0x%X", cpu2.prevPC, cpu.prevPC)
	}
	if cpu2.pendingIPL != cpu.pendingIPL {
		t.Errorf("pendingIPL = %d, want %d", cpu2.pendingIPL, cpu.pendingIPL)
	}
}

func TestSerializeRejectsTooSmall(t *testing.T) {
	cpu := &CPU{}
	if err := cpu.Serialize(make([]byte, 10)); err == nil {
		t.Fatal("Serialize accepted a short buffer")
	}
}

func TestSerializeDeserializeRejectsTooSmall(t *testing.T) {
	cpu := &CPU{}
	if err := cpu.Deserialize(make([]byte, 10)); err == nil {
		t.Fatal("Deserialize accepted a short buffer")
	}
}

func TestSerializeDeserializeRejectsBadVersion(t *testing.T) {
	cpu := &CPU{}

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	buf[0] = 99
	cpu2 := &CPU{}
	if err := cpu2.Deserialize(buf); err == nil {
		t.Fatal("Deserialize accepted wrong version")
	}
}

func TestSerializeRejectsMidInstruction(t *testing.T) {
	bus := &testBus{}
	pc := uint32(0x1000)
	fillNOPs(bus, pc, 1)

	cpu := &CPU{}
	cpu.SetState(Registers{SR: 0x2700, PC: pc, SSP: 0x10000})
	cpu.PrimeFetch(bus)

	cpu.Tick(bus) // start the NOP coroutine, one clock in

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err == nil {
		t.Fatal("Serialize should reject a mid-instruction CPU")
	}

	runToIdle(cpu, bus)
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize at an instruction boundary should succeed: %v", err)
	}
}

func TestSerializeResumeExecution(t *testing.T) {
	bus := &testBus{}
	pc := uint32(0x1000)
	fillNOPs(bus, pc, 10)

	cpu1 := &CPU{}
	cpu1.SetState(Registers{SR: 0x2700, PC: pc, SSP: 0x10000})
	cpu1.PrimeFetch(bus)

	runToIdle(cpu1, bus)
	runToIdle(cpu1, bus)

	buf := make([]byte, cpu1.SerializeSize())
	if err := cpu1.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cpu2 := &CPU{}
	if err := cpu2.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	c1 := runToIdle(cpu1, bus)
	c2 := runToIdle(cpu2, bus)

	if c1 != c2 {
		t.Errorf("step cycles: cpu1=%d, cpu2=%d", c1, c2)
	}

	r1 := cpu1.Registers()
	r2 := cpu2.Registers()
	if r1 != r2 {
		t.Errorf("registers diverged:\n  cpu1=%+v\n  cpu2=%+v", r1, r2)
	}
	if cpu1.Cycles() != cpu2.Cycles() {
		t.Errorf("total cycles: cpu1=%d, cpu2=%d", cpu1.Cycles(), cpu2.Cycles())
	}
}
