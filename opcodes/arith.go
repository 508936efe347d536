package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// addSub builds ADD/ADC/SUB/SBB: two operands, an optional carry-in, and the
// full AF/CF/OF/PF/SF/ZF set (§4.6's "straightforward family"). ADC adds
// zero-extended CF; SBB subtracts (src + zx(CF)).
func addSub(txn *symstate.Txn, inst *arch.Instruction, subtract, withCarry bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	w := dest.BitSize()
	if src.BitSize() != w {
		return mismatchErr(inst, "source/destination width mismatch")
	}

	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}

	rhs := op2
	if withCarry {
		cf := refOf(txn.CurrentFlagExpression(arch.FlagCF))
		rhs = ast.Add(op2, ast.ZeroExtendTo(w, cf))
	}

	var result *ast.Node
	if subtract {
		result = ast.Sub(op1, rhs)
	} else {
		result = ast.Add(op1, rhs)
	}

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)

	var cf, of *ast.Node
	if subtract {
		cf = flags.CFSub(result, op1, rhs)
		of = flags.OFSub(result, op1, rhs)
	} else {
		cf = flags.CFAdd(result, op1, rhs)
		of = flags.OFAdd(result, op1, rhs)
	}
	return writeAllFlagsThenPC(txn, inst, result, op1, rhs, cf, of, expr.Tainted(), inst.Mnemonic)
}

// logic builds AND/OR/XOR: no AF, CF=OF=0, PF/SF/ZF from the result.
func logic(txn *symstate.Txn, inst *arch.Instruction, op func(a, b *ast.Node) *ast.Node) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	result := op(op1, op2)

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)

	if err := setFlag(txn, arch.FlagCF, ast.BVFalse(), expr.Tainted(), inst.Mnemonic+" cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, ast.BVFalse(), expr.Tainted(), inst.Mnemonic+" of"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagPF, flags.PF(result), expr.Tainted(), inst.Mnemonic+" pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, flags.SF(result), expr.Tainted(), inst.Mnemonic+" sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, flags.ZF(result), expr.Tainted(), inst.Mnemonic+" zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// incDec builds INC/DEC: single operand, add/subtract 1. AF/OF/PF/SF/ZF
// update; CF is explicitly left untouched (x86 INC/DEC never touch CF).
func incDec(txn *symstate.Txn, inst *arch.Instruction, subtract bool) error {
	dest := wrap(inst, 0)
	w := dest.BitSize()
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	one := ast.Const(1, w)
	var result *ast.Node
	var of *ast.Node
	if subtract {
		result = ast.Sub(op1, one)
		of = flags.OFSub(result, op1, one)
	} else {
		result = ast.Add(op1, one)
		of = flags.OFAdd(result, op1, one)
	}

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, dest)

	af := flags.AFAddSub(result, op1, one)
	if err := setFlag(txn, arch.FlagAF, af, expr.Tainted(), inst.Mnemonic+" af"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, of, expr.Tainted(), inst.Mnemonic+" of"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagPF, flags.PF(result), expr.Tainted(), inst.Mnemonic+" pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, flags.SF(result), expr.Tainted(), inst.Mnemonic+" sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, flags.ZF(result), expr.Tainted(), inst.Mnemonic+" zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// neg builds NEG: 0 - src, full flag set.
func neg(txn *symstate.Txn, inst *arch.Instruction) error {
	dest := wrap(inst, 0)
	w := dest.BitSize()
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	result := ast.Sub(ast.Const(0, w), op1)

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, dest)

	if err := setFlag(txn, arch.FlagAF, flags.AFNeg(result, op1), expr.Tainted(), "neg af"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagCF, flags.CFFromZero(op1), expr.Tainted(), "neg cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, flags.OFNeg(result, op1), expr.Tainted(), "neg of"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagPF, flags.PF(result), expr.Tainted(), "neg pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, flags.SF(result), expr.Tainted(), "neg sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, flags.ZF(result), expr.Tainted(), "neg zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// not builds NOT: bitwise complement, no flag change (§4.6).
func not(txn *symstate.Txn, inst *arch.Instruction) error {
	dest := wrap(inst, 0)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	result := ast.Not(op1)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, dest)
	return sequentialPC(txn, inst)
}

// cmp builds CMP: a volatile subtraction used only for flags, no write.
func cmp(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	result := ast.Sub(op1, op2)
	vol := txn.CreateSymbolicVolatileExpression(result, "cmp")
	unionTaint(txn, vol, dest, src)

	cf := flags.CFSub(result, op1, op2)
	of := flags.OFSub(result, op1, op2)
	return writeAllFlagsThenPC(txn, inst, result, op1, op2, cf, of, vol.Tainted(), "cmp")
}

// test builds TEST: a volatile AND used only for flags, CF=OF=0.
func test(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	result := ast.And(op1, op2)
	vol := txn.CreateSymbolicVolatileExpression(result, "test")
	unionTaint(txn, vol, dest, src)

	if err := setFlag(txn, arch.FlagCF, ast.BVFalse(), vol.Tainted(), "test cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, ast.BVFalse(), vol.Tainted(), "test of"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagPF, flags.PF(result), vol.Tainted(), "test pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, flags.SF(result), vol.Tainted(), "test sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, flags.ZF(result), vol.Tainted(), "test zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// writeAllFlagsThenPC is the shared AF/CF/OF/PF/SF/ZF write for add/sub-
// shaped results (ADD/ADC/SUB/SBB/CMP), followed by the sequential PC step.
func writeAllFlagsThenPC(txn *symstate.Txn, inst *arch.Instruction, result, op1, op2, cf, of *ast.Node, tainted bool, mnemonic string) error {
	if err := setFlag(txn, arch.FlagAF, flags.AFAddSub(result, op1, op2), tainted, mnemonic+" af"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagCF, cf, tainted, mnemonic+" cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, of, tainted, mnemonic+" of"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagPF, flags.PF(result), tainted, mnemonic+" pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, flags.SF(result), tainted, mnemonic+" sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, flags.ZF(result), tainted, mnemonic+" zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}
