package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// packedBitwise builds PAND/PANDN/POR/PXOR/ANDPS/ANDPD/ANDNPS/ANDNPD/
// ORPS/ORPD/XORPS/XORPD: a full-width bitwise op over the whole register,
// uniform across widths since AND/OR/XOR don't care about lane boundaries.
func packedBitwise(txn *symstate.Txn, inst *arch.Instruction, op func(a, b *ast.Node) *ast.Node, notFirst bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	if notFirst {
		op1 = ast.Not(op1)
	}
	result := op(op1, op2)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)
	return sequentialPC(txn, inst)
}

// packedCompare builds PCMPEQB/PCMPEQW/PCMPEQD: per-lane equality test,
// each lane's result either all-ones or all-zero.
func packedCompare(txn *symstate.Txn, inst *arch.Instruction, laneWidth uint32) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	w := dest.BitSize()
	lanes := w / laneWidth
	allOnes := ast.Const(^uint64(0), laneWidth)
	allZero := ast.Const(0, laneWidth)

	children := make([]*ast.Node, lanes)
	for i := uint32(0); i < lanes; i++ {
		lo, hi := int(i*laneWidth), int((i+1)*laneWidth)-1
		l1 := ast.Extract(hi, lo, op1)
		l2 := ast.Extract(hi, lo, op2)
		eq := ast.EqualNode(l1, l2)
		// children[0] is the highest lane: lane (lanes-1) is result's MSBs.
		children[lanes-1-i] = ast.Ite(eq, allOnes, allZero)
	}
	result := ast.Concat(children...)

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)
	return sequentialPC(txn, inst)
}
