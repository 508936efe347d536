// Package flags implements the canonical AST constructors for the six
// status flags (§4.5, C5), shared across every arithmetic/logic/shift/
// rotate handler in package opcodes. Every function here is a pure
// constructor over already-built operand ASTs — it never looks anything up
// in the symbolic state itself.
package flags

import (
	"github.com/lookbusy1344/x86-symex/ast"
)

// PF computes the parity flag: 1 iff the low 8 bits of result have an even
// number of set bits (§4.5, §8.7). It is the same XOR-reduction regardless
// of operator family.
func PF(result *ast.Node) *ast.Node {
	low := ast.ZeroExtendTo(8, ast.Extract(minInt(7, int(result.Width)-1), 0, result))
	acc := ast.Extract(0, 0, low)
	for bit := 1; bit < 8; bit++ {
		acc = ast.Xor(acc, ast.Extract(bit, bit, low))
	}
	return ast.Not(acc)
}

// SF computes the sign flag: the top bit of result.
func SF(result *ast.Node) *ast.Node {
	w := int(result.Width)
	return ast.Extract(w-1, w-1, result)
}

// ZF computes the zero flag: 1 iff result is all zero.
func ZF(result *ast.Node) *ast.Node {
	return ast.EqualNode(result, ast.Const(0, result.Width))
}

// ZFFromSourceZero is BSF/BSR's ZF special case: ZF reflects whether the
// *source* operand was zero, not the destination (§4.5).
func ZFFromSourceZero(src *ast.Node) *ast.Node {
	return ast.EqualNode(src, ast.Const(0, src.Width))
}

// AFAddSub computes AF for ADD/SUB/INC/DEC/SBB/ADC: the half-carry out of
// bit 3, visible as bit 4 of (result ^ op1 ^ op2).
func AFAddSub(result, op1, op2 *ast.Node) *ast.Node {
	w := result.Width
	mixed := ast.Xor(ast.Xor(result, op1), op2)
	nibbleBit := ast.And(ast.Const(0x10, w), mixed)
	return ast.EqualNode(ast.Const(0x10, w), nibbleBit)
}

// AFNeg computes AF for NEG: bit 4 of (op1 ^ result).
func AFNeg(result, op1 *ast.Node) *ast.Node {
	w := result.Width
	nibbleBit := ast.And(ast.Const(0x10, w), ast.Xor(op1, result))
	return ast.EqualNode(ast.Const(0x10, w), nibbleBit)
}

// CFAdd computes CF for ADD: unsigned overflow out of the top bit.
func CFAdd(result, op1, op2 *ast.Node) *ast.Node {
	w := int(result.Width)
	term1 := ast.And(op1, op2)
	term2 := ast.And(ast.Xor(ast.Xor(op1, op2), result), ast.Xor(op1, op2))
	return ast.Extract(w-1, w-1, ast.Xor(term1, term2))
}

// CFSub computes CF for SUB: borrow out of the top bit.
func CFSub(result, op1, op2 *ast.Node) *ast.Node {
	w := int(result.Width)
	term1 := ast.Xor(ast.Xor(op1, op2), result)
	term2 := ast.And(ast.Xor(op1, result), ast.Xor(op1, op2))
	return ast.Extract(w-1, w-1, ast.Xor(term1, term2))
}

// CFFromZero is the MUL/NEG shared shape: CF = 0 when x is zero, else 1.
// For MUL, x is the product's upper half; for NEG, x is the original
// operand (NEG sets CF unless the source was zero).
func CFFromZero(x *ast.Node) *ast.Node {
	return ast.Ite(ast.EqualNode(x, ast.Const(0, x.Width)), ast.BVFalse(), ast.BVTrue())
}

// CFIMul computes CF (and, per §4.5, OF) for IMUL: set unless the
// full-width signed product is exactly representable by sign-extending the
// truncated low half back up. low is the destination-width truncated
// result; full is the double-width product.
func CFIMul(low, full *ast.Node) *ast.Node {
	extended := ast.SignExtendTo(full.Width, low)
	return ast.Ite(ast.EqualNode(extended, full), ast.BVFalse(), ast.BVTrue())
}

// OFAdd computes OF for ADD: both operands share a sign that the result
// doesn't.
func OFAdd(result, op1, op2 *ast.Node) *ast.Node {
	w := int(result.Width)
	term := ast.And(ast.Xor(op1, ast.Not(op2)), ast.Xor(op1, result))
	return ast.Extract(w-1, w-1, term)
}

// OFSub computes OF for SUB: operands have different signs and the result
// takes the subtrahend's sign.
func OFSub(result, op1, op2 *ast.Node) *ast.Node {
	w := int(result.Width)
	term := ast.And(ast.Xor(op1, op2), ast.Xor(op1, result))
	return ast.Extract(w-1, w-1, term)
}

// OFNeg computes OF for NEG: set only when negating the minimum negative
// value, i.e. the result keeps op1's sign bit.
func OFNeg(result, op1 *ast.Node) *ast.Node {
	w := int(result.Width)
	return ast.Extract(w-1, w-1, ast.And(result, op1))
}

// --- shift family: CF/OF depend on the (possibly symbolic) masked count --

// maskedCount returns count & (w-1), the mod-w mask every x86 shift/rotate
// applies to its count operand before use.
func maskedCount(count *ast.Node, w uint32) *ast.Node {
	return ast.And(count, ast.Const(uint64(w-1), w))
}

// ShlCF / ShlOF implement §4.5's SHL row. oldCF/oldOF are the flag's value
// before this instruction (from Txn.CurrentFlagExpression), used for the
// "count == 0 leaves flags unchanged" / "count != 1 leaves OF unchanged"
// gating, built symbolically so a not-yet-concrete count still produces a
// sound AST.
func ShlCF(op1, count *ast.Node, w uint32, oldCF *ast.Node) *ast.Node {
	mc := maskedCount(count, w)
	shiftAmt := ast.Sub(ast.Const(uint64(w), w), mc)
	newCF := ast.Extract(0, 0, ast.LShr(op1, shiftAmt))
	return ast.Ite(ast.EqualNode(mc, ast.Const(0, w)), oldCF, newCF)
}

func ShlOF(op1, count *ast.Node, w uint32, oldOF *ast.Node) *ast.Node {
	mc := maskedCount(count, w)
	newOF := ast.Xor(ast.Extract(int(w)-1, int(w)-1, op1), ast.Extract(int(w)-2, int(w)-2, op1))
	return ast.Ite(ast.EqualNode(mc, ast.Const(1, w)), newOF, oldOF)
}

// ShrCF / ShrOF implement §4.5's SHR row.
func ShrCF(op1, count *ast.Node, w uint32, oldCF *ast.Node) *ast.Node {
	mc := maskedCount(count, w)
	shiftAmt := ast.Sub(mc, ast.Const(1, w))
	newCF := ast.Extract(0, 0, ast.LShr(op1, shiftAmt))
	return ast.Ite(ast.EqualNode(mc, ast.Const(0, w)), oldCF, newCF)
}

func ShrOF(op1, count *ast.Node, w uint32, oldOF *ast.Node) *ast.Node {
	mc := maskedCount(count, w)
	newOF := ast.Extract(int(w)-1, int(w)-1, op1)
	return ast.Ite(ast.EqualNode(mc, ast.Const(1, w)), newOF, oldOF)
}

// SarCF is the arithmetic variant of ShrCF (the bit extracted is the same;
// SAR's difference from SHR is entirely in the result's computation, not
// the carry-out bit position).
func SarCF(op1, count *ast.Node, w uint32, oldCF *ast.Node) *ast.Node {
	return ShrCF(op1, count, w, oldCF)
}

// SarOF implements §4.5's SAR row: OF is always cleared on a 1-bit shift
// (arithmetic shift right by one bit can never overflow) and unchanged
// otherwise.
func SarOF(count *ast.Node, w uint32, oldOF *ast.Node) *ast.Node {
	mc := maskedCount(count, w)
	return ast.Ite(ast.EqualNode(mc, ast.Const(1, w)), ast.BVFalse(), oldOF)
}

// --- rotate family: count is concretized by the decoder, so these take a --
// --- plain Go int and return nil to mean "leave the flag unchanged".    --

// RolCF returns ROL's new CF (the result's LSB, which is the bit that
// wrapped around from the top), or nil if count == 0 (flags untouched).
func RolCF(resultFull *ast.Node, count int) *ast.Node {
	if count == 0 {
		return nil
	}
	return ast.Extract(0, 0, resultFull)
}

// RolOF returns ROL's new OF (set iff the new CF differs from the result's
// new top bit), defined only when count == 1, or nil otherwise.
func RolOF(resultFull, newCF *ast.Node, count int) *ast.Node {
	if count != 1 {
		return nil
	}
	w := int(resultFull.Width)
	return ast.Xor(newCF, ast.Extract(w-1, w-1, resultFull))
}

// RorCF returns ROR's new CF (the result's new top bit), or nil if count == 0.
func RorCF(resultFull *ast.Node, count int) *ast.Node {
	if count == 0 {
		return nil
	}
	w := int(resultFull.Width)
	return ast.Extract(w-1, w-1, resultFull)
}

// RorOF returns ROR's new OF (XOR of the result's top two bits), defined
// only when count == 1.
func RorOF(resultFull *ast.Node, count int) *ast.Node {
	if count != 1 {
		return nil
	}
	w := int(resultFull.Width)
	return ast.Xor(ast.Extract(w-1, w-1, resultFull), ast.Extract(w-2, w-2, resultFull))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
