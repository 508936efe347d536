package session

import "github.com/lookbusy1344/x86-symex/arch"

// ConcreteState is a minimal reference implementation of arch.ConcreteState
// (§6's "concrete mirror"): a register-file-plus-byte-map shape. It is not
// the production concrete execution engine — this module has none, by
// design (§1: decoder, CPU-state store, and emulation driver are external
// collaborators) — but it is enough to drive the demo CLI and the package
// tests without a real one.
type ConcreteState struct {
	cpuBitSize uint32
	registers  map[arch.RegisterID]uint64 // keyed by parent register
	flags      map[arch.FlagID]bool
	memory     map[uint64]byte
}

// NewConcreteState creates a zeroed concrete mirror for the given CPU mode
// (16, 32, or 64).
func NewConcreteState(cpuBitSize uint32) *ConcreteState {
	return &ConcreteState{
		cpuBitSize: cpuBitSize,
		registers:  make(map[arch.RegisterID]uint64),
		flags:      make(map[arch.FlagID]bool),
		memory:     make(map[uint64]byte),
	}
}

func (c *ConcreteState) CPUBitSize() uint32 { return c.cpuBitSize }

// RegisterValue returns the full-width value of reg's parent register,
// masked to reg's own slice when reg is a sub-register.
func (c *ConcreteState) RegisterValue(reg arch.RegisterID) uint64 {
	parent := reg.Parent()
	full := c.registers[parent]
	high, low := reg.Slice()
	if high == parent.BitSize()-1 && low == 0 {
		return full
	}
	width := uint(high - low + 1)
	mask := uint64(1)<<width - 1
	return (full >> uint(low)) & mask
}

// SetRegisterValue writes value into reg's own slice of its parent
// register, preserving the parent's other bits.
func (c *ConcreteState) SetRegisterValue(reg arch.RegisterID, value uint64) {
	parent := reg.Parent()
	high, low := reg.Slice()
	if high == parent.BitSize()-1 && low == 0 {
		c.registers[parent] = value
		return
	}
	width := uint(high - low + 1)
	mask := uint64(1)<<width - 1
	cleared := c.registers[parent] &^ (mask << uint(low))
	c.registers[parent] = cleared | ((value & mask) << uint(low))
}

func (c *ConcreteState) RegisterBitSize(reg arch.RegisterID) uint32 { return uint32(reg.BitSize()) }

func (c *ConcreteState) Flag(f arch.FlagID) bool        { return c.flags[f] }
func (c *ConcreteState) SetFlag(f arch.FlagID, v bool)  { c.flags[f] = v }

func (c *ConcreteState) MemoryByte(addr uint64) byte        { return c.memory[addr] }
func (c *ConcreteState) SetMemoryByte(addr uint64, b byte)  { c.memory[addr] = b }
