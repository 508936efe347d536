package arch

// OpcodeID identifies a decoded mnemonic. The decoder (external collaborator,
// out of scope of this module) is responsible for mapping raw bytes to one
// of these; the dispatcher in package opcodes maps OpcodeID to a handler.
type OpcodeID int

// Supported mnemonics. Grouped by family to match the handler families in
// package opcodes and the flag families in package flags.
const (
	OpInvalid OpcodeID = iota

	OpADD
	OpADC
	OpSUB
	OpSBB
	OpAND
	OpOR
	OpXOR
	OpINC
	OpDEC
	OpNEG
	OpNOT
	OpCMP
	OpTEST

	OpMUL
	OpIMUL
	OpDIV
	OpIDIV

	OpMOV
	OpMOVABS
	OpMOVZX
	OpMOVSX
	OpMOVSXD
	OpLEA

	OpPUSH
	OpPOP
	OpCALL
	OpRET
	OpLEAVE
	OpJMP

	OpJcc    // condition carried on Instruction.Condition
	OpCMOVcc // condition carried on Instruction.Condition
	OpSETcc  // condition carried on Instruction.Condition

	OpROL
	OpROR
	OpRCL
	OpRCR
	OpSHL
	OpSAL // alias of SHL, see DESIGN.md
	OpSHR
	OpSAR

	OpBSF
	OpBSR
	OpBSWAP

	OpCBW
	OpCWDE
	OpCDQE
	OpCWD
	OpCDQ
	OpCQO

	OpXCHG
	OpXADD
	OpCMPXCHG

	OpLAHF
	OpSAHF

	OpCLC
	OpSTC
	OpCLD
	OpSTD
	OpCMC

	OpNOP

	OpMOVAPS
	OpMOVAPD
	OpMOVDQA
	OpMOVDQU
	OpMOVD
	OpMOVQ
	OpMOVHPS
	OpMOVLPS
	OpMOVHLPS
	OpMOVLHPS
	OpMOVMSKPS
	OpMOVMSKPD
	OpMOVDDUP
	OpMOVSHDUP
	OpMOVSLDUP

	OpPAND
	OpPANDN
	OpPOR
	OpPXOR
	OpANDPS
	OpANDPD
	OpANDNPS
	OpANDNPD
	OpORPS
	OpORPD
	OpXORPS
	OpXORPD
	OpPCMPEQB
	OpPCMPEQW
	OpPCMPEQD
	OpPMOVMSKB
)

// OperandKind names the dynamic kind of an operand descriptor supplied by
// the decoder.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandMemory
	OperandImmediate
)

// AddressingMode describes a memory operand's effective-address computation:
// base + index*scale + disp. A zero RegisterID in Base/Index means "absent".
type AddressingMode struct {
	Base        RegisterID
	Index       RegisterID
	Scale       uint8 // 1, 2, 4, or 8; meaningless if Index is absent
	Disp        int64
	RIPRelative bool // true if Base is RIP and needs +InstructionLength
}

// OperandDescriptor is what the decoder hands the core for one operand slot.
type OperandDescriptor struct {
	Kind OperandKind

	Register RegisterID // valid when Kind == OperandRegister

	Addr     AddressingMode // valid when Kind == OperandMemory
	SizeBits uint32         // byte/word/dword/qword/xmm width of this operand

	Immediate uint64 // valid when Kind == OperandImmediate, raw bit pattern
}

// Instruction is the decoded instruction this module's entry point consumes.
// The decoder that produces it is an external collaborator (§1); this type
// is the contract the core reads against.
type Instruction struct {
	Address uint64
	Length  uint32
	Opcode  OpcodeID

	// Condition carries the condition code for OpJcc/OpCMOVcc/OpSETcc.
	Condition ConditionCode

	// SegmentOverride etc. are deliberately absent: privileged/segment state
	// is out of scope (§1 Non-goals).

	Operands []OperandDescriptor

	// Mnemonic is purely diagnostic text used in error messages; it carries
	// no semantic weight of its own.
	Mnemonic string
}

// Dest returns the conventional destination operand (operands[0]) per the
// "operands[0] is the destination" convention §4.6 states. Panics if the
// instruction has no operands — callers only call this from handlers that
// have already validated operand count.
func (i *Instruction) Dest() OperandDescriptor {
	return i.Operands[0]
}

// PopMemoryAccess builds the OperandDescriptor for a stack slot at address
// sp, sized size bytes — the decoder helper named in §6 ("pop_memory_access")
// that PUSH/POP/CALL/RET/LEAVE build memory operands through.
func PopMemoryAccess(sp uint64, sizeBytes uint32) OperandDescriptor {
	return OperandDescriptor{
		Kind:     OperandMemory,
		Addr:     AddressingMode{Disp: int64(sp)},
		SizeBits: sizeBytes * 8,
	}
}

// ConcreteState is the external collaborator (§3 "Architectural state") that
// holds concrete byte values mirroring the symbolic state: the register
// file, memory bytes, and condition flags. Handlers read it to resolve
// things the symbolic layer cannot — whether a conditional branch/move
// concretely took effect, a pre-concretized rotate count, the next
// instruction's concrete target.
type ConcreteState interface {
	RegisterValue(reg RegisterID) uint64
	SetRegisterValue(reg RegisterID, value uint64)
	RegisterBitSize(reg RegisterID) uint32
	CPUBitSize() uint32

	Flag(f FlagID) bool
	SetFlag(f FlagID, v bool)

	MemoryByte(addr uint64) byte
	SetMemoryByte(addr uint64, b byte)
}
