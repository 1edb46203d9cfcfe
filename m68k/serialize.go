package m68k

import (
	"encoding/binary"
	"errors"
)

// cpuSerializeVersion is incremented whenever the binary layout changes.
const cpuSerializeVersion = 2

// cpuSerializeSize is the number of bytes produced by CPU.Serialize.
// Update this constant whenever the binary layout changes.
const cpuSerializeSize = 112

// SerializeSize returns the number of bytes needed for Serialize.
func (c *CPU) SerializeSize() int { return cpuSerializeSize }

// Serialize writes the full CPU state into buf, which must be at least
// SerializeSize() bytes. Returns an error if the buffer is too small or
// the CPU is not at an instruction boundary: save states can only be
// taken between instructions (c.Idle()), since an in-flight coroutine's
// Go call stack is not itself serializable. Bus references are not
// included.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("m68k: serialize buffer too small")
	}
	if !c.Idle() {
		return errors.New("m68k: cannot serialize mid-instruction")
	}

	buf[0] = cpuSerializeVersion
	be := binary.BigEndian
	off := 1

	for i := 0; i < 8; i++ {
		be.PutUint32(buf[off:], c.reg.D[i])
		off += 4
	}
	for i := 0; i < 8; i++ {
		be.PutUint32(buf[off:], c.reg.A[i])
		off += 4
	}

	be.PutUint32(buf[off:], c.nextFetch)
	off += 4
	be.PutUint16(buf[off:], c.reg.SR)
	off += 2
	be.PutUint32(buf[off:], c.reg.USP)
	off += 4
	be.PutUint32(buf[off:], c.reg.SSP)
	off += 4
	be.PutUint32(buf[off:], c.reg.VBR)
	off += 4
	buf[off] = c.reg.SFC
	off++
	buf[off] = c.reg.DFC
	off++

	be.PutUint16(buf[off:], c.ir)
	off += 2
	be.PutUint16(buf[off:], c.irc)
	off += 2
	be.PutUint32(buf[off:], c.ircAddr)
	off += 4
	be.PutUint32(buf[off:], c.instrPC)
	off += 4
	be.PutUint32(buf[off:], c.prevPC)
	off += 4

	be.PutUint64(buf[off:], c.cycles)
	off += 8

	buf[off] = boolByte(c.stopped)
	off++
	buf[off] = boolByte(c.halted)
	off++

	buf[off] = c.pendingIPL
	off++

	_ = off
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Deserialize restores CPU state from buf, which must be at least
// SerializeSize() bytes. Returns an error if the buffer is too small or
// the version does not match. Only legal at an instruction boundary;
// any in-flight coroutine is aborted first. Call PrimeFetch is not
// needed afterward since IR/IRC are restored directly.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("m68k: deserialize buffer too small")
	}
	if buf[0] != cpuSerializeVersion {
		return errors.New("m68k: unsupported serialize version")
	}

	c.abortCoroutine()

	be := binary.BigEndian
	off := 1

	for i := 0; i < 8; i++ {
		c.reg.D[i] = be.Uint32(buf[off:])
		off += 4
	}
	for i := 0; i < 8; i++ {
		c.reg.A[i] = be.Uint32(buf[off:])
		off += 4
	}

	c.nextFetch = be.Uint32(buf[off:])
	off += 4
	c.reg.SR = be.Uint16(buf[off:])
	off += 2
	c.reg.USP = be.Uint32(buf[off:])
	off += 4
	c.reg.SSP = be.Uint32(buf[off:])
	off += 4
	c.reg.VBR = be.Uint32(buf[off:])
	off += 4
	c.reg.SFC = buf[off]
	off++
	c.reg.DFC = buf[off]
	off++

	c.ir = be.Uint16(buf[off:])
	off += 2
	c.irc = be.Uint16(buf[off:])
	off += 2
	c.ircAddr = be.Uint32(buf[off:])
	off += 4
	c.instrPC = be.Uint32(buf[off:])
	off += 4
	c.prevPC = be.Uint32(buf[off:])
	off += 4

	c.cycles = be.Uint64(buf[off:])
	off += 8

	c.stopped = buf[off] != 0
	off++
	c.halted = buf[off] != 0
	off++

	c.pendingIPL = buf[off]
	off++

	_ = off
	return nil
}
