package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// xchg builds XCHG: swap two operands' values and taint, in one atomic
// transaction (the staged writes below don't observe each other until
// commit, so reading both values up front before either write is safe).
func xchg(txn *symstate.Txn, inst *arch.Instruction) error {
	a, b := wrap(inst, 0), wrap(inst, 1)
	aVal, err := txn.BuildSymbolicOperand(a)
	if err != nil {
		return err
	}
	bVal, err := txn.BuildSymbolicOperand(b)
	if err != nil {
		return err
	}
	aTainted, bTainted := txn.OperandTaint(a), txn.OperandTaint(b)

	aExpr, err := txn.CreateSymbolicExpression(bVal, a, inst.Mnemonic)
	if err != nil {
		return err
	}
	aExpr.SetTainted(bTainted)

	bExpr, err := txn.CreateSymbolicExpression(aVal, b, inst.Mnemonic)
	if err != nil {
		return err
	}
	bExpr.SetTainted(aTainted)

	return sequentialPC(txn, inst)
}

// xadd builds XADD: dest, src := dest+src, dest_old (the add's flags are
// written exactly like ADD's).
func xadd(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	sum := ast.Add(destVal, srcVal)

	sumExpr, err := txn.CreateSymbolicExpression(sum, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, sumExpr, dest, src)

	srcExpr, err := txn.CreateSymbolicExpression(destVal, src, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, srcExpr, dest)

	cf := flags.CFAdd(sum, destVal, srcVal)
	of := flags.OFAdd(sum, destVal, srcVal)
	return writeAllFlagsThenPC(txn, inst, sum, destVal, srcVal, cf, of, sumExpr.Tainted(), inst.Mnemonic)
}

// cmpxchg builds CMPXCHG: compare the accumulator against dest; if equal,
// dest := src (flags as if CMP acc,dest was executed either way) else
// acc := dest.
func cmpxchg(txn *symstate.Txn, inst *arch.Instruction, acc arch.RegisterID) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	accOp := operandForRegister(acc)

	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	accVal, err := txn.BuildSymbolicOperand(accOp)
	if err != nil {
		return err
	}

	diff := ast.Sub(accVal, destVal)
	equal := ast.EqualNode(accVal, destVal)

	newDest := ast.Ite(equal, srcVal, destVal)
	destExpr, err := txn.CreateSymbolicExpression(newDest, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, destExpr, dest, src, accOp)

	newAcc := ast.Ite(equal, accVal, destVal)
	accExpr, err := txn.CreateSymbolicExpression(newAcc, accOp, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, accExpr, dest, accOp)

	tainted := destExpr.Tainted() || accExpr.Tainted()
	cf := flags.CFSub(diff, accVal, destVal)
	of := flags.OFSub(diff, accVal, destVal)
	return writeAllFlagsThenPC(txn, inst, diff, accVal, destVal, cf, of, tainted, inst.Mnemonic)
}
