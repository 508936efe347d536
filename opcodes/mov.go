package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// mov builds MOV/MOVABS and the SSE move subset that's a plain bit-for-bit
// copy at the destination's width (MOVAPS/MOVAPD/MOVDQA/MOVDQU/MOVD/MOVQ):
// build source, fit to destination width, write, assign taint.
func mov(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	value, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	fitted := ast.ZeroExtendTo(dest.BitSize(), value)
	expr, err := txn.CreateSymbolicExpression(fitted, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}

// movExtend builds MOVZX/MOVSX/MOVSXD: build source, extend to destination
// width, write, assign taint.
func movExtend(txn *symstate.Txn, inst *arch.Instruction, signed bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	value, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	var fitted *ast.Node
	if signed {
		fitted = ast.SignExtendTo(dest.BitSize(), value)
	} else {
		fitted = ast.ZeroExtendTo(dest.BitSize(), value)
	}
	expr, err := txn.CreateSymbolicExpression(fitted, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}

// lea builds LEA: write destination with the effective-address AST from
// C4; narrower destination extracts, wider zero-extends (§4.6).
func lea(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	if !src.IsMemory() {
		return mismatchErr(inst, "lea source must be a memory operand")
	}
	addrNode := txn.EffectiveAddressNode(src.Address(), inst.Length, dest.BitSize())
	expr, err := txn.CreateSymbolicExpression(addrNode, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}

// movhlps builds MOVHLPS: destination's low half := source's high half,
// destination's high half unchanged (§4.6).
func movhlps(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	half := dest.BitSize() / 2
	srcHigh := ast.Extract(int(dest.BitSize())-1, int(half), srcVal)
	destHigh := ast.Extract(int(dest.BitSize())-1, int(half), destVal)
	result := ast.Concat(destHigh, srcHigh)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)
	return sequentialPC(txn, inst)
}

// movlhps builds MOVLHPS: destination's high half := source's low half,
// destination's low half unchanged.
func movlhps(txn *symstate.Txn, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	half := dest.BitSize() / 2
	srcLow := ast.Extract(int(half)-1, 0, srcVal)
	destLow := ast.Extract(int(half)-1, 0, destVal)
	result := ast.Concat(srcLow, destLow)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)
	return sequentialPC(txn, inst)
}

// movhps / movlps splice only one half of the destination, leaving the
// other half of the destination unchanged (§4.6).
func movSpliceHalf(txn *symstate.Txn, inst *arch.Instruction, high bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	half := dest.BitSize() / 2
	fitted := ast.ZeroExtendTo(half, srcVal)
	var result *ast.Node
	if high {
		result = ast.Concat(fitted, ast.Extract(int(half)-1, 0, destVal))
	} else {
		result = ast.Concat(ast.Extract(int(dest.BitSize())-1, int(half), destVal), fitted)
	}
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, src)
	return sequentialPC(txn, inst)
}

// movmsk builds MOVMSKPS/MOVMSKPD/PMOVMSKB: concatenate the sign bit of
// each lane into an integer mask written to a GPR destination.
func movmsk(txn *symstate.Txn, inst *arch.Instruction, laneWidth uint32) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	lanes := src.BitSize() / laneWidth
	bits := make([]*ast.Node, lanes)
	for i := uint32(0); i < lanes; i++ {
		top := int((i+1)*laneWidth) - 1
		// bits[0] ends up as the mask's MSB when concatenated, so fill from
		// the highest lane down to keep lane 0 -> mask bit 0.
		bits[lanes-1-i] = ast.Extract(top, top, srcVal)
	}
	mask := ast.Concat(bits...)
	fitted := ast.ZeroExtendTo(dest.BitSize(), mask)
	expr, err := txn.CreateSymbolicExpression(fitted, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}

// movddup / movshdup / movsldup duplicate one lane of the source across the
// destination's two halves.
func movdup(txn *symstate.Txn, inst *arch.Instruction, takeHigh bool) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	half := dest.BitSize() / 2
	var lane *ast.Node
	if takeHigh {
		lane = ast.Extract(int(dest.BitSize())-1, int(half), srcVal)
	} else {
		lane = ast.Extract(int(half)-1, 0, srcVal)
	}
	result := ast.Concat(lane, lane)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}
