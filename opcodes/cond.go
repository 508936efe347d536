package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// conditionNode builds the symbolic condition AST for c from the current
// flag expressions, evaluated against the same six-flag formula as
// arch.ConditionCode.Evaluate.
func conditionNode(txn *symstate.Txn, c arch.ConditionCode) *ast.Node {
	cf := refOf(txn.CurrentFlagExpression(arch.FlagCF))
	pf := refOf(txn.CurrentFlagExpression(arch.FlagPF))
	zf := refOf(txn.CurrentFlagExpression(arch.FlagZF))
	sf := refOf(txn.CurrentFlagExpression(arch.FlagSF))
	of := refOf(txn.CurrentFlagExpression(arch.FlagOF))
	notCF := ast.Not(cf)
	notZF := ast.Not(zf)
	sfEqOf := ast.EqualNode(sf, of)

	switch c {
	case arch.CondA:
		return ast.And(notCF, notZF)
	case arch.CondAE:
		return notCF
	case arch.CondB:
		return cf
	case arch.CondBE:
		return ast.Or(cf, zf)
	case arch.CondE:
		return zf
	case arch.CondG:
		return ast.And(notZF, sfEqOf)
	case arch.CondGE:
		return sfEqOf
	case arch.CondL:
		return ast.Not(sfEqOf)
	case arch.CondLE:
		return ast.Or(zf, ast.Not(sfEqOf))
	case arch.CondNE:
		return notZF
	case arch.CondNO:
		return ast.Not(of)
	case arch.CondNP:
		return ast.Not(pf)
	case arch.CondNS:
		return ast.Not(sf)
	case arch.CondO:
		return of
	case arch.CondP:
		return pf
	case arch.CondS:
		return sf
	}
	return ast.BVFalse()
}

// concreteCondition mirrors conditionNode's result using the concrete flag
// mirror, for recording condition_taken (§4.6).
func concreteCondition(concrete arch.ConcreteState, c arch.ConditionCode) bool {
	return c.Evaluate(
		concrete.Flag(arch.FlagCF), concrete.Flag(arch.FlagPF), concrete.Flag(arch.FlagAF),
		concrete.Flag(arch.FlagZF), concrete.Flag(arch.FlagSF), concrete.Flag(arch.FlagOF),
	)
}

// jcc builds Jcc: ite(cond, target, next_ip); emit as PC expression and a
// path constraint. The concrete condition_taken bit steers the concrete PC.
func jcc(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	target := wrap(inst, 0)
	targetNode, err := txn.BuildSymbolicOperand(target)
	if err != nil {
		return err
	}
	pcWidth := uint32(arch.RegRIP.BitSize())
	nextIP := ast.Const(inst.Address+uint64(inst.Length), pcWidth)
	cond := conditionNode(txn, inst.Condition)
	pcNode := ast.Ite(cond, ast.ZeroExtendTo(pcWidth, targetNode), nextIP)

	if _, err := txn.CreateSymbolicRegisterExpression(pcNode, arch.RegRIP, "jcc target"); err != nil {
		return err
	}
	txn.AddPathConstraint(pcNode, "jcc "+inst.Condition.String())

	taken := concreteCondition(concrete, inst.Condition)
	if taken {
		next := target.ImmediateValue()
		if target.IsRegister() {
			next = concrete.RegisterValue(target.Register())
		}
		concrete.SetRegisterValue(arch.RegRIP, next)
	} else {
		concrete.SetRegisterValue(arch.RegRIP, inst.Address+uint64(inst.Length))
	}
	return nil
}

// cmovcc builds CMOVcc: ite(cond, src, dest); on concrete-taken the result
// is assignment-tainted from source, on concrete-not-taken it is union-
// tainted with itself (no change), per §4.6.
func cmovcc(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	dest, src := wrap(inst, 0), wrap(inst, 1)
	destVal, err := txn.BuildSymbolicOperand(dest)
	if err != nil {
		return err
	}
	srcVal, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	cond := conditionNode(txn, inst.Condition)
	result := ast.Ite(cond, srcVal, destVal)

	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	if concreteCondition(concrete, inst.Condition) {
		assignTaint(txn, expr, src)
	} else {
		unionTaint(txn, expr, dest)
	}
	return sequentialPC(txn, inst)
}

// setcc builds SETcc: destination byte = 1 if condition else 0.
func setcc(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	dest := wrap(inst, 0)
	cond := conditionNode(txn, inst.Condition)
	result := ast.ZeroExtendTo(dest.BitSize(), cond)
	expr, err := txn.CreateSymbolicExpression(result, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	expr.SetTainted(false)
	for _, f := range []arch.FlagID{arch.FlagCF, arch.FlagPF, arch.FlagAF, arch.FlagZF, arch.FlagSF, arch.FlagOF} {
		if txn.CurrentFlagExpression(f).Tainted() {
			expr.SetTainted(true)
			break
		}
	}
	return sequentialPC(txn, inst)
}
