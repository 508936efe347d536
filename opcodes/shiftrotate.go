package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/lookbusy1344/x86-symex/symerr"
	"github.com/lookbusy1344/x86-symex/symstate"
)

type shiftKind int

const (
	shiftSHL shiftKind = iota
	shiftSHR
	shiftSAR
)

// shift builds SHL/SAL/SHR/SAR: shift by zx(count), masked implicitly mod-w
// inside the CF/OF helpers (§4.5, §4.6). PF/SF/ZF are computed from the
// result but gated unchanged when the masked count is zero; AF is left
// undefined (untouched) per the hardware's own documented behavior.
func shift(txn *symstate.Txn, inst *arch.Instruction, kind shiftKind) error {
	dest, srcCount := wrap(inst, 0), wrap(inst, 1)
	w := dest.BitSize()

	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	countRaw, err := txn.BuildSymbolicOperand(srcCount)
	if err != nil {
		return err
	}
	count := ast.ZeroExtendTo(w, countRaw)

	var result *ast.Node
	switch kind {
	case shiftSHL:
		result = ast.Shl(op1, count)
	case shiftSHR:
		result = ast.LShr(op1, count)
	case shiftSAR:
		result = ast.AShr(op1, count)
	}

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	unionTaint(txn, expr, dest, srcCount)

	oldCF := refOf(txn.CurrentFlagExpression(arch.FlagCF))
	oldOF := refOf(txn.CurrentFlagExpression(arch.FlagOF))
	var newCF, newOF *ast.Node
	switch kind {
	case shiftSHL:
		newCF = flags.ShlCF(op1, count, w, oldCF)
		newOF = flags.ShlOF(op1, count, w, oldOF)
	case shiftSHR:
		newCF = flags.ShrCF(op1, count, w, oldCF)
		newOF = flags.ShrOF(op1, count, w, oldOF)
	case shiftSAR:
		newCF = flags.SarCF(op1, count, w, oldCF)
		newOF = flags.SarOF(count, w, oldOF)
	}
	if err := setFlag(txn, arch.FlagCF, newCF, expr.Tainted(), inst.Mnemonic+" cf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagOF, newOF, expr.Tainted(), inst.Mnemonic+" of"); err != nil {
		return err
	}

	mc := ast.And(count, ast.Const(uint64(w-1), w))
	unchanged := ast.EqualNode(mc, ast.Const(0, w))
	oldPF := refOf(txn.CurrentFlagExpression(arch.FlagPF))
	oldSF := refOf(txn.CurrentFlagExpression(arch.FlagSF))
	oldZF := refOf(txn.CurrentFlagExpression(arch.FlagZF))
	if err := setFlag(txn, arch.FlagPF, ast.Ite(unchanged, oldPF, flags.PF(result)), expr.Tainted(), inst.Mnemonic+" pf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagSF, ast.Ite(unchanged, oldSF, flags.SF(result)), expr.Tainted(), inst.Mnemonic+" sf"); err != nil {
		return err
	}
	if err := setFlag(txn, arch.FlagZF, ast.Ite(unchanged, oldZF, flags.ZF(result)), expr.Tainted(), inst.Mnemonic+" zf"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

type rotateKind int

const (
	rotateROL rotateKind = iota
	rotateROR
	rotateRCL
	rotateRCR
)

// rotate builds ROL/ROR/RCL/RCR: rotate the destination (or, for RCL/RCR,
// concat(CF, dst)) by an immediate count that must already be concrete
// (§4.5: "the instruction decoder has already concretized CL into the
// immediate"; a symbolic count here is a handler-level contract violation).
func rotate(txn *symstate.Txn, inst *arch.Instruction, kind rotateKind) error {
	dest, countOp := wrap(inst, 0), wrap(inst, 1)
	if !countOp.IsImmediate() {
		return symerr.New(symerr.KindSymbolicCount, inst.Address, inst.Mnemonic, "rotate count must be concretized before reaching the flag helpers")
	}
	w := dest.BitSize()
	rawCount := countOp.ImmediateValue()

	op1, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}

	switch kind {
	case rotateROL, rotateROR:
		count := rawCount % uint64(w)
		decimal := ast.Decimal(count)
		var result *ast.Node
		if kind == rotateROL {
			result = ast.Rol(op1, decimal)
		} else {
			result = ast.Ror(op1, decimal)
		}
		expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
		if err != nil {
			return err
		}
		unionTaint(txn, expr, dest)

		var cf, of *ast.Node
		if kind == rotateROL {
			cf = flags.RolCF(result, int(count))
			if cf != nil {
				of = flags.RolOF(result, cf, int(count))
			}
		} else {
			cf = flags.RorCF(result, int(count))
			of = flags.RorOF(result, int(count))
		}
		if err := setFlag(txn, arch.FlagCF, cf, expr.Tainted(), inst.Mnemonic+" cf"); err != nil {
			return err
		}
		if err := setFlag(txn, arch.FlagOF, of, expr.Tainted(), inst.Mnemonic+" of"); err != nil {
			return err
		}
		return sequentialPC(txn, inst)

	case rotateRCL, rotateRCR:
		ext := w + 1
		count := rawCount % uint64(ext)
		cfNode := refOf(txn.CurrentFlagExpression(arch.FlagCF))
		wide := ast.Concat(cfNode, op1)
		decimal := ast.Decimal(count)
		var wideResult *ast.Node
		if kind == rotateRCL {
			wideResult = ast.Rol(wide, decimal)
		} else {
			wideResult = ast.Ror(wide, decimal)
		}
		result := ast.Extract(int(w)-1, 0, wideResult)
		newCFNode := ast.Extract(int(ext)-1, int(ext)-1, wideResult)

		expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
		if err != nil {
			return err
		}
		unionTaint(txn, expr, dest)

		var cf, of *ast.Node
		if count != 0 {
			cf = newCFNode
		}
		if kind == rotateRCL {
			if cf != nil {
				of = flags.RolOF(result, cf, int(count))
			}
		} else {
			of = flags.RorOF(result, int(count))
		}
		if err := setFlag(txn, arch.FlagCF, cf, expr.Tainted(), inst.Mnemonic+" cf"); err != nil {
			return err
		}
		if err := setFlag(txn, arch.FlagOF, of, expr.Tainted(), inst.Mnemonic+" of"); err != nil {
			return err
		}
		return sequentialPC(txn, inst)
	}
	return nil
}
