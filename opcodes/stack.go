package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/lookbusy1344/x86-symex/symstate"
)

// push builds PUSH: pre-decrement SP by the operand's size, write memory at
// the new SP, zero-extending if the source is narrower than the stack slot
// (§4.6). The concrete SP is read from the mirror since the effective
// address of the write must be concrete to index memory bytes (§4.4).
func push(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	src := wrap(inst, 0)
	slotBytes := src.ByteSize()
	if slotBytes == 0 {
		slotBytes = uint32(concrete.CPUBitSize()) / 8
	}

	value, err := txn.BuildSymbolicOperand(src)
	if err != nil {
		return err
	}
	fitted := ast.ZeroExtendTo(slotBytes*8, value)

	newSP := concrete.RegisterValue(arch.RegRSP) - uint64(slotBytes)
	concrete.SetRegisterValue(arch.RegRSP, newSP)
	spExpr, err := txn.CreateSymbolicRegisterExpression(ast.Const(newSP, uint32(arch.RegRSP.BitSize())), arch.RegRSP, "push sp")
	if err != nil {
		return err
	}
	_ = spExpr

	memDest := operand.FromDescriptor(arch.PopMemoryAccess(newSP, slotBytes))
	expr, err := txn.CreateSymbolicExpression(fitted, memDest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, src)
	return sequentialPC(txn, inst)
}

// pop builds POP: read memory at SP, write destination, post-increment SP.
func pop(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	dest := wrap(inst, 0)
	slotBytes := dest.ByteSize()
	if slotBytes == 0 {
		slotBytes = uint32(concrete.CPUBitSize()) / 8
	}
	sp := concrete.RegisterValue(arch.RegRSP)

	memSrc := operand.FromDescriptor(arch.PopMemoryAccess(sp, slotBytes))
	value, err := txn.BuildSymbolicOperand(memSrc)
	if err != nil {
		return err
	}
	expr, err := txn.CreateSymbolicExpression(value, dest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, memSrc)

	newSP := sp + uint64(slotBytes)
	concrete.SetRegisterValue(arch.RegRSP, newSP)
	if _, err := txn.CreateSymbolicRegisterExpression(ast.Const(newSP, uint32(arch.RegRSP.BitSize())), arch.RegRSP, "pop sp"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// callInst builds CALL: pre-decrement SP, write the return address at SP,
// set PC to the target, emit a path constraint.
func callInst(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	target := wrap(inst, 0)
	targetNode, err := txn.BuildSymbolicOperand(target)
	if err != nil {
		return err
	}

	slotBytes := uint32(concrete.CPUBitSize()) / 8
	sp := concrete.RegisterValue(arch.RegRSP)
	newSP := sp - uint64(slotBytes)
	concrete.SetRegisterValue(arch.RegRSP, newSP)
	if _, err := txn.CreateSymbolicRegisterExpression(ast.Const(newSP, uint32(arch.RegRSP.BitSize())), arch.RegRSP, "call sp"); err != nil {
		return err
	}

	retAddr := ast.Const(inst.Address+uint64(inst.Length), uint32(arch.RegRIP.BitSize()))
	memDest := operand.FromDescriptor(arch.PopMemoryAccess(newSP, slotBytes))
	if _, err := txn.CreateSymbolicExpression(retAddr, memDest, "call return address"); err != nil {
		return err
	}

	pcNode := ast.ZeroExtendTo(uint32(arch.RegRIP.BitSize()), targetNode)
	if _, err := txn.CreateSymbolicRegisterExpression(pcNode, arch.RegRIP, "call target"); err != nil {
		return err
	}
	txn.AddPathConstraint(pcNode, "call target")
	return nil
}

// ret builds RET: read the return address at SP, set PC, post-increment
// SP, plus an optional immediate stack-cleanup adjustment.
func ret(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	slotBytes := uint32(concrete.CPUBitSize()) / 8
	sp := concrete.RegisterValue(arch.RegRSP)

	memSrc := operand.FromDescriptor(arch.PopMemoryAccess(sp, slotBytes))
	retNode, err := txn.BuildSymbolicOperand(memSrc)
	if err != nil {
		return err
	}

	newSP := sp + uint64(slotBytes)
	if len(inst.Operands) == 1 {
		newSP += wrap(inst, 0).ImmediateValue()
	}
	concrete.SetRegisterValue(arch.RegRSP, newSP)
	if _, err := txn.CreateSymbolicRegisterExpression(ast.Const(newSP, uint32(arch.RegRSP.BitSize())), arch.RegRSP, "ret sp"); err != nil {
		return err
	}

	pcNode := ast.ZeroExtendTo(uint32(arch.RegRIP.BitSize()), retNode)
	if _, err := txn.CreateSymbolicRegisterExpression(pcNode, arch.RegRIP, "ret target"); err != nil {
		return err
	}
	txn.AddPathConstraint(pcNode, "ret target")
	return nil
}

// leave builds LEAVE: SP := BP; then POP into BP.
func leave(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	bp := concrete.RegisterValue(arch.RegRBP)
	concrete.SetRegisterValue(arch.RegRSP, bp)
	bpExpr := txn.CurrentRegisterExpression(arch.RegRBP)
	if _, err := txn.CreateSymbolicRegisterExpression(refOf(bpExpr), arch.RegRSP, "leave sp"); err != nil {
		return err
	}

	slotBytes := uint32(concrete.CPUBitSize()) / 8
	memSrc := operand.FromDescriptor(arch.PopMemoryAccess(bp, slotBytes))
	value, err := txn.BuildSymbolicOperand(memSrc)
	if err != nil {
		return err
	}
	bpDest := operandForRegister(arch.RegRBP)
	expr, err := txn.CreateSymbolicExpression(value, bpDest, inst.Mnemonic)
	if err != nil {
		return err
	}
	assignTaint(txn, expr, memSrc)

	newSP := bp + uint64(slotBytes)
	concrete.SetRegisterValue(arch.RegRSP, newSP)
	if _, err := txn.CreateSymbolicRegisterExpression(ast.Const(newSP, uint32(arch.RegRSP.BitSize())), arch.RegRSP, "leave pop sp"); err != nil {
		return err
	}
	return sequentialPC(txn, inst)
}

// jmp builds JMP: set PC = target, emit a path constraint.
func jmp(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error {
	target := wrap(inst, 0)
	targetNode, err := txn.BuildSymbolicOperand(target)
	if err != nil {
		return err
	}
	pcNode := ast.ZeroExtendTo(uint32(arch.RegRIP.BitSize()), targetNode)
	if _, err := txn.CreateSymbolicRegisterExpression(pcNode, arch.RegRIP, "jmp target"); err != nil {
		return err
	}
	txn.AddPathConstraint(pcNode, "jmp target")
	return nil
}
