// Package operand implements the uniform operand wrapper (§4.2 of the
// symbolic execution core): registers, memory locations, and immediates
// exposed through one shape so handlers never branch on operand kind more
// than once.
package operand

import "github.com/lookbusy1344/x86-symex/arch"

// Wrapper is the sum type described in §3: Register(reg_id), Memory(address,
// size_bytes), or Immediate(value, size_bytes). It mirrors the OperandKind
// the decoder already assigned in arch.OperandDescriptor, plus the derived
// fields (bit_size, abstract_low/high) handlers actually consume.
type Wrapper struct {
	descriptor arch.OperandDescriptor
}

// FromDescriptor wraps a decoder-supplied operand descriptor.
func FromDescriptor(d arch.OperandDescriptor) Wrapper {
	return Wrapper{descriptor: d}
}

// Kind reports whether this operand is a register, memory location, or
// immediate.
func (w Wrapper) Kind() arch.OperandKind {
	return w.descriptor.Kind
}

// IsRegister / IsMemory / IsImmediate are convenience predicates used
// throughout the opcode handlers instead of comparing Kind() directly.
func (w Wrapper) IsRegister() bool   { return w.descriptor.Kind == arch.OperandRegister }
func (w Wrapper) IsMemory() bool     { return w.descriptor.Kind == arch.OperandMemory }
func (w Wrapper) IsImmediate() bool  { return w.descriptor.Kind == arch.OperandImmediate }
func (w Wrapper) IsWritable() bool   { return w.descriptor.Kind != arch.OperandImmediate }

// BitSize returns the operand's own width in bits: a register's slice
// width, a memory operand's declared size in bits, or an immediate's
// declared size in bits.
func (w Wrapper) BitSize() uint32 {
	switch w.descriptor.Kind {
	case arch.OperandRegister:
		return uint32(w.descriptor.Register.BitSize())
	case arch.OperandMemory, arch.OperandImmediate:
		return w.descriptor.SizeBits
	}
	return 0
}

// ByteSize is BitSize()/8, used when iterating memory byte-by-byte.
func (w Wrapper) ByteSize() uint32 {
	return w.BitSize() / 8
}

// Register returns the wrapped register id. Only meaningful when
// IsRegister() is true.
func (w Wrapper) Register() arch.RegisterID {
	return w.descriptor.Register
}

// Parent returns the full-width parent register of a register operand.
func (w Wrapper) Parent() arch.RegisterID {
	return w.descriptor.Register.Parent()
}

// AbstractHigh / AbstractLow return the bit slice a register operand
// occupies within its parent register — e.g. AH has AbstractHigh=15,
// AbstractLow=8 within RAX. For non-register operands these return the
// operand's own [BitSize()-1, 0] range, which is the natural "slice" of a
// standalone value.
func (w Wrapper) AbstractHigh() int {
	if w.descriptor.Kind == arch.OperandRegister {
		h, _ := w.descriptor.Register.Slice()
		return h
	}
	return int(w.BitSize()) - 1
}

func (w Wrapper) AbstractLow() int {
	if w.descriptor.Kind == arch.OperandRegister {
		_, l := w.descriptor.Register.Slice()
		return l
	}
	return 0
}

// Address returns the memory operand's effective-address descriptor. Only
// meaningful when IsMemory() is true.
func (w Wrapper) Address() arch.AddressingMode {
	return w.descriptor.Addr
}

// ImmediateValue returns the raw bit pattern of an immediate operand. Only
// meaningful when IsImmediate() is true.
func (w Wrapper) ImmediateValue() uint64 {
	return w.descriptor.Immediate
}

// Descriptor exposes the underlying decoder-supplied descriptor, for code
// (principally package symstate) that needs the raw addressing mode to
// compute an effective address.
func (w Wrapper) Descriptor() arch.OperandDescriptor {
	return w.descriptor
}
