package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// mulPair names the accumulator/high-half register pair MUL/IMUL/DIV/IDIV
// use, indexed by operand width (§4.6).
type mulPair struct {
	low, high arch.RegisterID // AL/AH-style pair: low holds the low half (or full AX for byte)
}

func pairFor(w uint32) mulPair {
	switch w {
	case 8:
		return mulPair{low: arch.RegAX} // AX = AL * src, no separate high register
	case 16:
		return mulPair{low: arch.RegAX, high: arch.RegDX}
	case 32:
		return mulPair{low: arch.RegEAX, high: arch.RegEDX}
	case 64:
		return mulPair{low: arch.RegRAX, high: arch.RegRDX}
	}
	return mulPair{}
}

// mulOneOperand builds one-operand MUL/IMUL: AX = AL*src, DX:AX = AX*src,
// EDX:EAX = EAX*src, RDX:RAX = RAX*src, dispatched by src's width. CF/OF
// set to 0 if the upper half equals 0 (MUL) or is exactly the
// sign-extension of the low half (IMUL), else 1.
func mulOneOperand(txn *symstate.Txn, inst *arch.Instruction, signed bool) error {
	src := wrap(inst, 0)
	w := src.BitSize()
	pair := pairFor(w)

	op2, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	accReg := arch.RegAL
	if w != 8 {
		accReg = pair.low
	}
	accDest := operandForRegister(accReg)
	op1, err := txn.BuildSymbolicOperand(accDest)
	if err != nil {
		return err
	}

	full := 2 * w
	var wideOp1, wideOp2 *ast.Node
	if signed {
		wideOp1 = ast.SignExtendTo(full, op1)
		wideOp2 = ast.SignExtendTo(full, op2)
	} else {
		wideOp1 = ast.ZeroExtendTo(full, op1)
		wideOp2 = ast.ZeroExtendTo(full, op2)
	}
	product := ast.Mul(wideOp1, wideOp2)

	if w == 8 {
		expr, err := txn.CreateSymbolicRegisterExpression(product, arch.RegAX, inst.Mnemonic)
		if err != nil {
			return err
		}
		unionTaint(txn, expr, accDest, src)
		return finishMul(txn, inst, product, signed, w, expr.Tainted())
	}

	lowExpr, err := txn.CreateSymbolicRegisterExpression(ast.Extract(int(w)-1, 0, product), pair.low, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, lowExpr, accDest, src)
	highExpr, err := txn.CreateSymbolicRegisterExpression(ast.Extract(int(full)-1, int(w), product), pair.high, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, highExpr, accDest, src)
	return finishMul(txn, inst, product, signed, w, lowExpr.Tainted() || highExpr.Tainted())
}

func finishMul(txn *symstate.Txn, inst *arch.Instruction, product *ast.Node, signed bool, w uint32, tainted bool) error {
	var cf *ast.Node
	if signed {
		low := ast.Extract(int(w)-1, 0, product)
		cf = flags.CFIMul(low, product)
	} else {
		upper := ast.Extract(int(product.Width)-1, int(w), product)
		cf = flags.CFFromZero(upper)
	}
	if err := setFlag(txn, arch.FlagCF, cf, tainted, inst.Mnemonic+" cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, cf, tainted, inst.Mnemonic+" of"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// imulTwoOrThree builds two/three-operand IMUL: dest := src1 * src2 (or
// dest := dest * src for the two-operand form), truncated to dest's width.
// CF=OF set unless the full double-width product is representable.
func imulTwoOrThree(txn *symstate.Txn, inst *arch.Instruction) error {
	w := wrap(inst, 0).BitSize()
	var left, right *ast.Node
	var err error
	destOp := wrap(inst, 0)
	if len(inst.Operands) == 3 {
		left, err = txn.BuildSymbolicOperand(wrap(inst, 1))
		if err != nil {
			return err
		}
		r, err2 := txn.BuildSymbolicOperand(wrap(inst, 2))
		if err2 != nil {
			return err2
		}
		right = r
	} else {
		left, err = txn.BuildSymbolicOperand(destOp)
		if err != nil {
			return err
		}
		r, err2 := txn.BuildSymbolicOperand(wrap(inst, 1))
		if err2 != nil {
			return err2
		}
		right = r
	}

	full := 2 * w
	product := ast.Mul(ast.SignExtendTo(full, left), ast.SignExtendTo(full, right))
	result := ast.Extract(int(w)-1, 0, product)

	expr, err := txn.CreateSymbolicExpression(result, destOp, inst.Mnemonic)
	if err != nil {
		return err
	}
	if len(inst.Operands) == 3 {
		unionTaint(txn, expr, wrap(inst, 1), wrap(inst, 2))
	} else {
		unionTaint(txn, expr, destOp, wrap(inst, 1))
	}

	cf := flags.CFIMul(result, product)
	if err := setFlag(txn, arch.FlagCF, cf, expr.Tainted(), "imul cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, cf, expr.Tainted(), "imul of"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// divide builds DIV/IDIV: concatenate the register pair (or AX for byte),
// divide by the zero- or sign-extended divisor, route quotient/remainder to
// the two result registers.
func divide(txn *symstate.Txn, inst *arch.Instruction, signed bool) error {
	src := wrap(inst, 0)
	w := src.BitSize()
	pair := pairFor(w)

	divisor, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}

	var dividend *ast.Node
	if w == 8 {
		axOp := operandForRegister(arch.RegAX)
		dividend, err = txn.BuildSymbolicOperand(axOp)
	} else {
		lowOp := operandForRegister(pair.low)
		highOp := operandForRegister(pair.high)
		var lowNode, highNode *ast.Node
		lowNode, err = txn.BuildSymbolicOperand(lowOp)
		if err != nil {
			return err
		}
		highNode, err = txn.BuildSymbolicOperand(highOp)
		dividend = ast.Concat(highNode, lowNode)
	}
	if err != nil {
		return err
	}

	full := dividend.Width
	var wideDivisor *ast.Node
	var quotient, remainder *ast.Node
	if signed {
		wideDivisor = ast.SignExtendTo(full, divisor)
		quotient = ast.SDiv(dividend, wideDivisor)
		remainder = ast.SRem(dividend, wideDivisor)
	} else {
		wideDivisor = ast.ZeroExtendTo(full, divisor)
		quotient = ast.UDiv(dividend, wideDivisor)
		remainder = ast.URem(dividend, wideDivisor)
	}

	if w == 8 {
		ax := ast.Concat(ast.Extract(int(w)-1, 0, remainder), ast.Extract(int(w)-1, 0, quotient))
		expr, err := txn.CreateSymbolicRegisterExpression(ax, arch.RegAX, inst.Mnemonic)
		if err != nil {
			return err
		}
		unionTaint(txn, expr, operandForRegister(arch.RegAX), src)
		return sequentialPC(txn, inst)
	}

	lowExpr, err := txn.CreateSymbolicRegisterExpression(ast.Extract(int(w)-1, 0, quotient), pair.low, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, lowExpr, operandForRegister(pair.low), src)
	highExpr, err := txn.CreateSymbolicRegisterExpression(ast.Extract(int(w)-1, 0, remainder), pair.high, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, highExpr, operandForRegister(pair.high), src)
	return sequentialPC(txn, inst)
}
