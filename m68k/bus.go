package m68k

// Function code values identify the class of a bus cycle: user or
// supervisor space, program or data, plus the reserved interrupt
// acknowledge code. The CPU selects FC for every access; prefetch and
// instruction-stream reads use the program codes, operand reads/writes
// use the data codes.
type FC uint8

const (
	FCUserData        FC = 1
	FCUserProgram     FC = 2
	FCSupervisorData  FC = 5
	FCSupervisorProgram FC = 6
	FCInterruptAck    FC = 7
)

// Bus is the external collaborator the CPU drives one bus cycle at a
// time. Every access reports the number of wait states the device
// inserted; the CPU adds that to the bus op's fixed minimum clock
// count. Addresses are already masked to 24 bits and alignment has
// already been checked by the caller.
type Bus interface {
	ReadByte(addr uint32, fc FC) (value uint32, wait int)
	ReadWord(addr uint32, fc FC) (value uint32, wait int)
	WriteByte(addr uint32, value uint32, fc FC) (wait int)
	WriteWord(addr uint32, value uint32, fc FC) (wait int)

	// PollIPL returns the current interrupt priority level asserted on
	// the bus (0-7). Sampled once per instruction boundary.
	PollIPL() uint8

	// AckInterrupt runs an interrupt-acknowledge bus cycle for the given
	// level and returns the vector number supplied by the interrupting
	// device, plus any wait states. A bus implementation that wants
	// autovectoring should return (0, wait) and let the CPU fall back to
	// vecAutoVector1+level-1; returning a non-zero vector selects vectored
	// interrupt handling.
	AckInterrupt(level uint8) (vector uint8, wait int)

	Reset()
}
