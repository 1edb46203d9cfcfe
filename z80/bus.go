package z80

// Bus is the external interface a Z80 core drives. Every method costs
// exactly zero simulated time on its own; the engine charges each bus
// operation's fixed T-state cost itself (4 for M1 and I/O, 3 for memory)
// and adds internal T-states via delay(), the same separation of concerns
// used by the m68k package's Bus interface.
type Bus interface {
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, val uint8)

	InByte(port uint16) uint8
	OutByte(port uint16, val uint8)

	// NMIPending reports whether a non-maskable interrupt edge is
	// latched. The engine clears it by calling AckNMI after servicing.
	NMIPending() bool
	AckNMI()

	// INTPending reports whether the maskable interrupt line is
	// asserted (level-triggered). INTVector supplies the byte placed
	// on the data bus during the interrupt-acknowledge cycle: in IM2 it
	// is the low byte of the vector-table address (high byte from
	// register I); in IM0 its bits 3-5 select the RST target.
	INTPending() bool
	INTVector() uint8
}
