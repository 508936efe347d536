package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// simple adapts a (txn, inst) handler — the common case, since most opcode
// families never need the concrete mirror — to the full Handler shape.
func simple(f func(txn *symstate.Txn, inst *arch.Instruction) error) Handler {
	return func(txn *symstate.Txn, _ arch.ConcreteState, inst *arch.Instruction) error {
		return f(txn, inst)
	}
}

var dispatchTable = map[arch.OpcodeID]Handler{
	arch.OpADD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return addSub(txn, inst, false, false) }),
	arch.OpADC: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return addSub(txn, inst, false, true) }),
	arch.OpSUB: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return addSub(txn, inst, true, false) }),
	arch.OpSBB: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return addSub(txn, inst, true, true) }),
	arch.OpAND: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return logic(txn, inst, ast.And) }),
	arch.OpOR:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return logic(txn, inst, ast.Or) }),
	arch.OpXOR: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return logic(txn, inst, ast.Xor) }),
	arch.OpINC: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return incDec(txn, inst, false) }),
	arch.OpDEC: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return incDec(txn, inst, true) }),
	arch.OpNEG: simple(neg),
	arch.OpNOT: simple(not),
	arch.OpCMP: simple(cmp),
	arch.OpTEST: simple(test),

	arch.OpMUL:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return mulOneOperand(txn, inst, false) }),
	arch.OpIMUL: simple(imulOrOneOperand),
	arch.OpDIV:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return divide(txn, inst, false) }),
	arch.OpIDIV: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return divide(txn, inst, true) }),

	arch.OpMOV:    simple(mov),
	arch.OpMOVABS: simple(mov),
	arch.OpMOVZX:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movExtend(txn, inst, false) }),
	arch.OpMOVSX:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movExtend(txn, inst, true) }),
	arch.OpMOVSXD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movExtend(txn, inst, true) }),
	arch.OpLEA:    simple(lea),

	arch.OpPUSH:  push,
	arch.OpPOP:   pop,
	arch.OpCALL:  callInst,
	arch.OpRET:   ret,
	arch.OpLEAVE: leave,
	arch.OpJMP:   jmp,

	arch.OpJcc:    jcc,
	arch.OpCMOVcc: cmovcc,
	arch.OpSETcc:  setcc,

	arch.OpROL: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return rotate(txn, inst, rotateROL) }),
	arch.OpROR: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return rotate(txn, inst, rotateROR) }),
	arch.OpRCL: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return rotate(txn, inst, rotateRCL) }),
	arch.OpRCR: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return rotate(txn, inst, rotateRCR) }),
	arch.OpSHL: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return shift(txn, inst, shiftSHL) }),
	// SAL is a pure assembler-level alias of SHL; same opcode semantics.
	arch.OpSAL: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return shift(txn, inst, shiftSHL) }),
	arch.OpSHR: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return shift(txn, inst, shiftSHR) }),
	arch.OpSAR: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return shift(txn, inst, shiftSAR) }),

	arch.OpBSF:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return bitScan(txn, inst, true) }),
	arch.OpBSR:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return bitScan(txn, inst, false) }),
	arch.OpBSWAP: simple(bswap),

	arch.OpCBW:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendAcc(txn, inst, arch.RegAL, arch.RegAX) }),
	arch.OpCWDE: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendAcc(txn, inst, arch.RegAX, arch.RegEAX) }),
	arch.OpCDQE: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendAcc(txn, inst, arch.RegEAX, arch.RegRAX) }),
	arch.OpCWD:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendSplit(txn, inst, arch.RegAX, arch.RegDX) }),
	arch.OpCDQ:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendSplit(txn, inst, arch.RegEAX, arch.RegEDX) }),
	arch.OpCQO:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return signExtendSplit(txn, inst, arch.RegRAX, arch.RegRDX) }),

	arch.OpXCHG:    simple(xchg),
	arch.OpXADD:    simple(xadd),
	arch.OpCMPXCHG: simple(cmpxchgDispatch),

	arch.OpLAHF: simple(lahf),
	arch.OpSAHF: simple(sahf),

	arch.OpCLC: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return flagBit(txn, inst, arch.FlagCF, false) }),
	arch.OpSTC: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return flagBit(txn, inst, arch.FlagCF, true) }),
	arch.OpCLD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return flagBit(txn, inst, arch.FlagDF, false) }),
	arch.OpSTD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return flagBit(txn, inst, arch.FlagDF, true) }),
	arch.OpCMC: simple(cmc),

	arch.OpNOP: simple(nop),

	arch.OpMOVAPS:  simple(mov),
	arch.OpMOVAPD:  simple(mov),
	arch.OpMOVDQA:  simple(mov),
	arch.OpMOVDQU:  simple(mov),
	arch.OpMOVD:    simple(mov),
	arch.OpMOVQ:    simple(mov),
	arch.OpMOVHPS:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movSpliceHalf(txn, inst, true) }),
	arch.OpMOVLPS:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movSpliceHalf(txn, inst, false) }),
	arch.OpMOVHLPS: simple(movhlps),
	arch.OpMOVLHPS: simple(movlhps),
	arch.OpMOVMSKPS: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movmsk(txn, inst, 32) }),
	arch.OpMOVMSKPD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movmsk(txn, inst, 64) }),
	arch.OpMOVDDUP:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movdup(txn, inst, false) }),
	arch.OpMOVSHDUP:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movdup(txn, inst, true) }),
	arch.OpMOVSLDUP:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movdup(txn, inst, false) }),

	arch.OpPAND:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, false) }),
	arch.OpPANDN:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, true) }),
	arch.OpPOR:    simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Or, false) }),
	arch.OpPXOR:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Xor, false) }),
	arch.OpANDPS:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, false) }),
	arch.OpANDPD:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, false) }),
	arch.OpANDNPS: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, true) }),
	arch.OpANDNPD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.And, true) }),
	arch.OpORPS:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Or, false) }),
	arch.OpORPD:   simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Or, false) }),
	arch.OpXORPS:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Xor, false) }),
	arch.OpXORPD:  simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedBitwise(txn, inst, ast.Xor, false) }),
	arch.OpPCMPEQB: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedCompare(txn, inst, 8) }),
	arch.OpPCMPEQW: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedCompare(txn, inst, 16) }),
	arch.OpPCMPEQD: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return packedCompare(txn, inst, 32) }),
	arch.OpPMOVMSKB: simple(func(txn *symstate.Txn, inst *arch.Instruction) error { return movmsk(txn, inst, 8) }),
}

// imulOrOneOperand dispatches IMUL's two shapes: one-operand (signed
// mulOneOperand) versus two/three-operand (imulTwoOrThree), distinguished
// by operand count (§4.6).
func imulOrOneOperand(txn *symstate.Txn, inst *arch.Instruction) error {
	if len(inst.Operands) == 1 {
		return mulOneOperand(txn, inst, true)
	}
	return imulTwoOrThree(txn, inst)
}

// cmpxchgDispatch picks the implicit accumulator CMPXCHG compares against,
// sized to the destination operand's width.
func cmpxchgDispatch(txn *symstate.Txn, inst *arch.Instruction) error {
	w := wrap(inst, 0).BitSize()
	var acc arch.RegisterID
	switch w {
	case 8:
		acc = arch.RegAL
	case 16:
		acc = arch.RegAX
	case 32:
		acc = arch.RegEAX
	case 64:
		acc = arch.RegRAX
	}
	return cmpxchg(txn, inst, acc)
}

// Dispatch resolves an OpcodeID to its Handler (§4.7). The second return is
// false for any opcode with no registered handler; what happens then is up
// to the caller (session.Build either skips the instruction or returns a
// KindUnknownOpcode error, depending on its configuration).
func Dispatch(opcode arch.OpcodeID) (Handler, bool) {
	h, ok := dispatchTable[opcode]
	return h, ok
}
