package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// signExtendAcc builds CBW/CWDE/CDQE: sign-extend the lower half of
// AX/EAX/RAX into the full register (§4.6).
func signExtendAcc(txn *symstate.Txn, inst *arch.Instruction, low, full arch.RegisterID) error {
	lowOp := operandForRegister(low)
	value, err := txn.BuildSymbolicOperand(lowOp)
	if err != nil {
		return err
	}
	result := ast.SignExtendTo(uint32(full.BitSize()), value)
	expr, err := txn.CreateSymbolicRegisterExpression(result, full, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, lowOp)
	return sequentialPC(txn, inst)
}

// signExtendSplit builds CWD/CDQ/CQO: sign-extend the accumulator into a
// double-width value, split into the low (unchanged accumulator) and high
// (sign-extension) halves (§4.6).
func signExtendSplit(txn *symstate.Txn, inst *arch.Instruction, acc, high arch.RegisterID) error {
	accOp := operandForRegister(acc)
	value, err := txn.BuildSymbolicOperand(accOp)
	if err != nil {
		return err
	}
	w := uint32(acc.BitSize())
	wide := ast.SignExtendTo(2*w, value)
	highHalf := ast.Extract(int(2*w)-1, int(w), wide)

	expr, err := txn.CreateSymbolicRegisterExpression(highHalf, high, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, accOp)
	return sequentialPC(txn, inst)
}

// lahf builds LAHF: AH := SF:ZF:0:AF:0:PF:1:CF (the classic EFLAGS-low
// packing), SAHF is its exact inverse.
func lahf(txn *symstate.Txn, inst *arch.Instruction) error {
	sf := refOf(txn.CurrentFlagExpression(arch.FlagSF))
	zf := refOf(txn.CurrentFlagExpression(arch.FlagZF))
	af := refOf(txn.CurrentFlagExpression(arch.FlagAF))
	pf := refOf(txn.CurrentFlagExpression(arch.FlagPF))
	cf := refOf(txn.CurrentFlagExpression(arch.FlagCF))

	ah := ast.Concat(sf, zf, ast.Const(0, 1), af, ast.Const(0, 1), pf, ast.Const(1, 1), cf)
	ahDest := operandForRegister(arch.RegAH)
	expr, err := txn.CreateSymbolicExpression(ah, ahDest, inst.Mnemonic)
	if err != nil {
		return err
	}
	expr.SetTainted(sfTainted(txn))
	return sequentialPC(txn, inst)
}

func sfTainted(txn *symstate.Txn) bool {
	for _, f := range []arch.FlagID{arch.FlagSF, arch.FlagZF, arch.FlagAF, arch.FlagPF, arch.FlagCF} {
		if txn.CurrentFlagExpression(f).Tainted() {
			return true
		}
	}
	return false
}

// sahf builds SAHF: unpack AH's bits 7/6/4/2/0 back into SF/ZF/AF/PF/CF.
func sahf(txn *symstate.Txn, inst *arch.Instruction) error {
	ahOp := operandForRegister(arch.RegAH)
	ah, err := txn.BuildSymbolicOperand(ahOp)
	if err != nil {
		return err
	}
	tainted := txn.OperandTaint(ahOp)
	bits := map[arch.FlagID]int{
		arch.FlagSF: 7, arch.FlagZF: 6, arch.FlagAF: 4, arch.FlagPF: 2, arch.FlagCF: 0,
	}
	for _, f := range []arch.FlagID{arch.FlagSF, arch.FlagZF, arch.FlagAF, arch.FlagPF, arch.FlagCF} {
		bit := bits[f]
		if err := setFlag(txn, f, ast.Extract(bit, bit, ah), tainted, inst.Mnemonic+" "+f.String()); err != nil {
			return err
		}
	}
	return sequentialPC(txn, inst)
}

// flagBit builds CLC/STC/CLD/STD: unconditionally set/clear a single flag.
func flagBit(txn *symstate.Txn, inst *arch.Instruction, f arch.FlagID, value bool) error {
	if err := setFlag(txn, f, ast.BoolToBV(value), false, inst.Mnemonic); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// cmc builds CMC: complement CF.
func cmc(txn *symstate.Txn, inst *arch.Instruction) error {
	cf := refOf(txn.CurrentFlagExpression(arch.FlagCF))
	tainted := txn.CurrentFlagExpression(arch.FlagCF).Tainted()
	if err := setFlag(txn, arch.FlagCF, ast.Not(cf), tainted, inst.Mnemonic); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// nop builds NOP: no operation; still updates PC (§4.6).
func nop(txn *symstate.Txn, inst *arch.Instruction) error {
	return sequentialPC(txn, inst)
}
