// Package opcodes implements the per-opcode semantics (§4.6, C6), the
// dispatcher (§4.7, C7), and control-flow/path-constraint handling (§4.8,
// C8). One handler per mnemonic family, all sharing the canonical shape:
// build source ASTs, construct the result, write the destination, propagate
// taint, update flags, update PC.
package opcodes

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/lookbusy1344/x86-symex/symerr"
	"github.com/lookbusy1344/x86-symex/symstate"
	"github.com/lookbusy1344/x86-symex/taint"
)

// Handler is the shape every opcode handler implements: given the
// transaction for this instruction, the concrete mirror (for resolving
// effective addresses and pre-concretized counts/targets), and the decoded
// instruction, build and stage every write.
type Handler func(txn *symstate.Txn, concrete arch.ConcreteState, inst *arch.Instruction) error

func wrap(inst *arch.Instruction, idx int) operand.Wrapper {
	return operand.FromDescriptor(inst.Operands[idx])
}

// operandForRegister builds a register operand out of thin air, for the
// implicit accumulator/pair registers MUL/IMUL/DIV/IDIV/CBW/CQO address
// without the decoder naming them as explicit operands.
func operandForRegister(reg arch.RegisterID) operand.Wrapper {
	return operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: reg})
}

func refOf(e *symstate.Expression) *ast.Node {
	return ast.Ref(e.ID, e.Width())
}

// setFlag writes flag f to node, propagating tainted onto the new flag
// expression (§4.9: "flag helpers always propagate the parent expression's
// tainted bit"). node == nil means the flag is unaffected this instruction
// (the rotate-family "count == 0" case) — left untouched rather than
// rewritten to its own old value, since nothing changed.
func setFlag(txn *symstate.Txn, f arch.FlagID, node *ast.Node, tainted bool, comment string) error {
	if node == nil {
		return nil
	}
	expr, err := txn.CreateSymbolicFlagExpression(node, f, comment)
	if err != nil {
		return err
	}
	expr.SetTainted(tainted)
	return nil
}

// sequentialPC implements the non-branch half of §4.8: PC := Const(address +
// length, 64). Every RegisterID here that could be RIP is always the full
// 64-bit parent (no EIP/IP sub-slice is modeled), so the write is always
// full-width regardless of CPU.BitSize.
func sequentialPC(txn *symstate.Txn, inst *arch.Instruction) error {
	next := ast.Const(inst.Address+uint64(inst.Length), uint32(arch.RegRIP.BitSize()))
	_, err := txn.CreateSymbolicRegisterExpression(next, arch.RegRIP, "sequential pc")
	return err
}

// mismatchErr reports a decoder contract violation: the handler assumed two
// operands share a width and they didn't.
func mismatchErr(inst *arch.Instruction, rule string) error {
	return symerr.New(symerr.KindInvalidOperandSize, inst.Address, inst.Mnemonic, rule)
}

// boolTaint adapts a plain bool to taint.Taintable so an operand's current
// taint (read via Txn.OperandTaint, not backed by its own Expression) can
// feed taint.Union/taint.Assign alongside real *symstate.Expression values.
type boolTaint bool

func (b boolTaint) Tainted() bool   { return bool(b) }
func (b boolTaint) SetTainted(bool) {}

// unionTaint sets dst tainted iff dst or any listed operand currently is —
// the read-modify-write policy (§4.9) every arithmetic/logic handler uses.
func unionTaint(txn *symstate.Txn, dst *symstate.Expression, ops ...operand.Wrapper) {
	srcs := make([]taint.Taintable, len(ops))
	for i, op := range ops {
		srcs[i] = boolTaint(txn.OperandTaint(op))
	}
	taint.Union(dst, srcs...)
}

// assignTaint sets dst's taint to exactly src's current taint — the pure-
// load policy (§4.9) MOV-shaped handlers use.
func assignTaint(txn *symstate.Txn, dst *symstate.Expression, src operand.Wrapper) {
	taint.Assign(dst, boolTaint(txn.OperandTaint(src)))
}
