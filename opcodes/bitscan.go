package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// bitScan builds BSF/BSR: an ite cascade over each source bit, scanning
// from the LSB (BSF) or MSB (BSR); when the source is 0, the destination
// keeps its prior value and ZF is set (§4.6).
func bitScan(txn *symstate.Txn, inst *arch.Instruction, fromLSB bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	w := int(src.BitSize())

	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}

	acc := ast.Const(0, uint32(w))
	if fromLSB {
		for i := w - 1; i >= 0; i-- {
			bitSet := ast.EqualNode(ast.Extract(i, i, srcVal), ast.Const(1, 1))
			acc = ast.Ite(bitSet, ast.Const(uint64(i), uint32(w)), acc)
		}
	} else {
		for i := 0; i < w; i++ {
			bitSet := ast.EqualNode(ast.Extract(i, i, srcVal), ast.Const(1, 1))
			acc = ast.Ite(bitSet, ast.Const(uint64(i), uint32(w)), acc)
		}
	}

	srcIsZero := ast.EqualNode(srcVal, ast.Const(0, uint32(w)))
	result := ast.Ite(srcIsZero, ast.ZeroExtendTo(dest.BitSize(), destVal), ast.ZeroExtendTo(dest.BitSize(), acc))

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)

	if err := setFlag(txn, arch.FlagZF, flags.ZFFromSourceZero(srcVal), expr.Tainted(), inst.Mnemonic+" zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// bswap builds BSWAP: byte-reverse the destination by concatenating its
// byte slices in reverse order.
func bswap(txn *symstate.Txn, inst *arch.Instruction) error {
	dest := wrap(inst, 0)
	w := dest.BitSize()
	value, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	bytes := int(w / 8)
	children := make([]*ast.Node, bytes)
	for i := 0; i < bytes; i++ {
		// children[0] (the new high bits) comes from the original lowest byte.
		children[i] = ast.Extract(8*i+7, 8*i, value)
	}
	result := ast.Concat(children...)

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, dest)
	return sequentialPC(txn, inst)
}
