// Package arch defines the identifiers and external-collaborator contracts
// shared across the symbolic execution core: register and flag taxonomy,
// the opcode enumeration, the Instruction value the decoder hands in, and
// the ConcreteState interface the core reads concrete mirrors through.
//
// Nothing in this package decodes bytes or executes anything; it is the
// vocabulary the rest of the module is built from.
package arch

// RegisterID names an architectural register, parent or sub-slice.
type RegisterID int

// Parent general-purpose registers. RIP doubles as the program counter.
const (
	RegNone RegisterID = iota

	RegRAX
	RegRBX
	RegRCX
	RegRDX
	RegRSP
	RegRBP
	RegRSI
	RegRDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
	RegRIP

	// 32-bit sub-slices (bits 31..0 of the parent).
	RegEAX
	RegEBX
	RegECX
	RegEDX
	RegESP
	RegEBP
	RegESI
	RegEDI
	RegR8D
	RegR9D
	RegR10D
	RegR11D
	RegR12D
	RegR13D
	RegR14D
	RegR15D

	// 16-bit sub-slices (bits 15..0 of the parent).
	RegAX
	RegBX
	RegCX
	RegDX
	RegSP
	RegBP
	RegSI
	RegDI

	// 8-bit low sub-slices (bits 7..0 of the parent).
	RegAL
	RegBL
	RegCL
	RegDL
	RegSPL
	RegBPL
	RegSIL
	RegDIL

	// 8-bit high sub-slices (bits 15..8 of the parent) — legacy AH/BH/CH/DH,
	// only addressable without a REX prefix, but the core models them
	// uniformly regardless of encodability.
	RegAH
	RegBH
	RegCH
	RegDH

	// 128-bit XMM registers, treated as opaque bitvectors (no FP semantics).
	RegXMM0
	RegXMM1
	RegXMM2
	RegXMM3
	RegXMM4
	RegXMM5
	RegXMM6
	RegXMM7
)

// regInfo records a register's parent and its bit slice [high, low] within
// that parent. A register that is its own parent has Parent == itself.
type regInfo struct {
	parent   RegisterID
	high, low int
}

var regTable = map[RegisterID]regInfo{
	RegRAX: {RegRAX, 63, 0}, RegRBX: {RegRBX, 63, 0}, RegRCX: {RegRCX, 63, 0}, RegRDX: {RegRDX, 63, 0},
	RegRSP: {RegRSP, 63, 0}, RegRBP: {RegRBP, 63, 0}, RegRSI: {RegRSI, 63, 0}, RegRDI: {RegRDI, 63, 0},
	RegR8: {RegR8, 63, 0}, RegR9: {RegR9, 63, 0}, RegR10: {RegR10, 63, 0}, RegR11: {RegR11, 63, 0},
	RegR12: {RegR12, 63, 0}, RegR13: {RegR13, 63, 0}, RegR14: {RegR14, 63, 0}, RegR15: {RegR15, 63, 0},
	RegRIP: {RegRIP, 63, 0},

	RegEAX: {RegRAX, 31, 0}, RegEBX: {RegRBX, 31, 0}, RegECX: {RegRCX, 31, 0}, RegEDX: {RegRDX, 31, 0},
	RegESP: {RegRSP, 31, 0}, RegEBP: {RegRBP, 31, 0}, RegESI: {RegRSI, 31, 0}, RegEDI: {RegRDI, 31, 0},
	RegR8D: {RegR8, 31, 0}, RegR9D: {RegR9, 31, 0}, RegR10D: {RegR10, 31, 0}, RegR11D: {RegR11, 31, 0},
	RegR12D: {RegR12, 31, 0}, RegR13D: {RegR13, 31, 0}, RegR14D: {RegR14, 31, 0}, RegR15D: {RegR15, 31, 0},

	RegAX: {RegRAX, 15, 0}, RegBX: {RegRBX, 15, 0}, RegCX: {RegRCX, 15, 0}, RegDX: {RegRDX, 15, 0},
	RegSP: {RegRSP, 15, 0}, RegBP: {RegRBP, 15, 0}, RegSI: {RegRSI, 15, 0}, RegDI: {RegRDI, 15, 0},

	RegAL: {RegRAX, 7, 0}, RegBL: {RegRBX, 7, 0}, RegCL: {RegRCX, 7, 0}, RegDL: {RegRDX, 7, 0},
	RegSPL: {RegRSP, 7, 0}, RegBPL: {RegRBP, 7, 0}, RegSIL: {RegRSI, 7, 0}, RegDIL: {RegRDI, 7, 0},

	RegAH: {RegRAX, 15, 8}, RegBH: {RegRBX, 15, 8}, RegCH: {RegRCX, 15, 8}, RegDH: {RegRDX, 15, 8},

	RegXMM0: {RegXMM0, 127, 0}, RegXMM1: {RegXMM1, 127, 0}, RegXMM2: {RegXMM2, 127, 0}, RegXMM3: {RegXMM3, 127, 0},
	RegXMM4: {RegXMM4, 127, 0}, RegXMM5: {RegXMM5, 127, 0}, RegXMM6: {RegXMM6, 127, 0}, RegXMM7: {RegXMM7, 127, 0},
}

// Parent returns the full-width register that r is a slice of. Registers
// that are already full width are their own parent.
func (r RegisterID) Parent() RegisterID {
	if info, ok := regTable[r]; ok {
		return info.parent
	}
	return r
}

// Slice returns the [high, low] bit range r occupies within Parent().
func (r RegisterID) Slice() (high, low int) {
	if info, ok := regTable[r]; ok {
		return info.high, info.low
	}
	return 0, 0
}

// BitSize returns the width in bits of r's own slice (not its parent).
func (r RegisterID) BitSize() int {
	h, l := r.Slice()
	return h - l + 1
}

// ParentBitSize returns the bit width of r's parent register.
func (r RegisterID) ParentBitSize() int {
	return r.Parent().BitSize()
}

// FlagID names one of the architectural status flags the core models.
type FlagID int

const (
	FlagCF FlagID = iota
	FlagPF
	FlagAF
	FlagZF
	FlagSF
	FlagOF
	FlagDF
)

func (f FlagID) String() string {
	switch f {
	case FlagCF:
		return "CF"
	case FlagPF:
		return "PF"
	case FlagAF:
		return "AF"
	case FlagZF:
		return "ZF"
	case FlagSF:
		return "SF"
	case FlagOF:
		return "OF"
	case FlagDF:
		return "DF"
	}
	return "??"
}
