package symstate

import (
	"fmt"
	"sort"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/lookbusy1344/x86-symex/symerr"
)

// Txn stages one instruction's writes so they commit atomically or roll
// back as a unit (§4.6's per-instruction state machine: "Implementation
// must stage writes and commit atomically per instruction, or roll back by
// discarding the freshly-allocated Expression IDs"). Operand reads
// (BuildSymbolicOperand, OperandTaint) always see the state as of the start
// of the instruction — handlers build every source AST (C4) before writing
// any destination (C3), per the canonical handler shape in §4.6. Only the
// register-slice preserve logic below and the CurrentRegisterExpression /
// CurrentFlagExpression accessors see writes already staged earlier in the
// same instruction.
type Txn struct {
	st      *State
	address uint64

	regWrites  map[arch.RegisterID]*Expression
	flagWrites map[arch.FlagID]*Expression
	memWrites  map[uint64]*Expression
	pending    map[uint64]*Expression

	newConstraints []*Expression

	done bool
}

// Begin opens a transaction for the instruction at address.
func (s *State) Begin(address uint64) *Txn {
	return &Txn{
		st:         s,
		address:    address,
		regWrites:  make(map[arch.RegisterID]*Expression),
		flagWrites: make(map[arch.FlagID]*Expression),
		memWrites:  make(map[uint64]*Expression),
		pending:    make(map[uint64]*Expression),
	}
}

func (t *Txn) stage(node *ast.Node, comment string) *Expression {
	expr := t.st.allocExpressionDetached(node, comment, t.address)
	t.pending[expr.ID] = expr
	return expr
}

// currentParentNode mirrors State.registerNode but sees this txn's own
// staged writes first, so a handler that builds a register's new value
// incrementally across several CreateSymbolicExpression calls preserves the
// bits it already wrote this instruction.
func (t *Txn) currentParentNode(parent arch.RegisterID) *ast.Node {
	if expr, ok := t.regWrites[parent]; ok {
		return ast.Ref(expr.ID, expr.Width())
	}
	return t.st.registerNode(parent)
}

// BuildSymbolicOperand delegates to State (§4.4); exposed on Txn so handler
// code only ever holds one value (the Txn) while building an instruction.
func (t *Txn) BuildSymbolicOperand(op operand.Wrapper) (*ast.Node, error) {
	return t.st.BuildSymbolicOperand(op)
}

// EffectiveAddress / EffectiveAddressNode delegate to State.
func (t *Txn) EffectiveAddress(op operand.Wrapper) (uint64, error) {
	return t.st.EffectiveAddress(op)
}

func (t *Txn) EffectiveAddressNode(addrMode arch.AddressingMode, instLen, destWidth uint32) *ast.Node {
	return t.st.EffectiveAddressNode(addrMode, instLen, destWidth)
}

// CurrentFlagExpression returns the flag's expression as of this point in
// the instruction: a write already staged in this transaction if there is
// one, else the committed expression, minting a baseline from the concrete
// mirror if none exists yet. Flag helpers use this for the ite(count==0,
// current, new) "unchanged" pattern.
func (t *Txn) CurrentFlagExpression(f arch.FlagID) *Expression {
	if expr, ok := t.flagWrites[f]; ok {
		return expr
	}
	return t.st.FlagExpression(f)
}

// CurrentRegisterExpression returns the pre-instruction (or already-staged-
// this-instruction) expression for reg's parent, minting a concrete-backed
// baseline if none exists.
func (t *Txn) CurrentRegisterExpression(reg arch.RegisterID) *Expression {
	parent := reg.Parent()
	if expr, ok := t.regWrites[parent]; ok {
		return expr
	}
	if expr, ok := t.st.registers[parent]; ok {
		return expr
	}
	node := t.st.registerNode(parent)
	return t.stage(node, fmt.Sprintf("initial %v", parent))
}

// CreateSymbolicExpression allocates a fresh expression for node and writes
// dest's mapping to reference it (§4.3). For a register destination whose
// slice does not cover its parent, the stored parent expression is the
// concat of the unaffected parent bits with the new slice. For a memory
// destination wider than one byte, node is split into byte extracts and
// each byte mapped individually, low address = low bits (little-endian).
func (t *Txn) CreateSymbolicExpression(node *ast.Node, dest operand.Wrapper, comment string) (*Expression, error) {
	switch dest.Kind() {
	case arch.OperandRegister:
		return t.writeRegister(node, dest.Register(), comment)
	case arch.OperandMemory:
		return t.writeMemory(node, dest, comment)
	case arch.OperandImmediate:
		return nil, symerr.New(symerr.KindOperandKindMismatch, t.address, "", "destination operand is an immediate, not writable")
	}
	return nil, symerr.New(symerr.KindOperandKindMismatch, t.address, "", "unrecognized destination kind")
}

func (t *Txn) writeRegister(node *ast.Node, reg arch.RegisterID, comment string) (*Expression, error) {
	parent := reg.Parent()
	parentWidth := uint32(parent.BitSize())
	h, l := reg.Slice()

	if node.Width != uint32(h-l+1) {
		return nil, symerr.New(symerr.KindInvalidOperandSize, t.address, "",
			fmt.Sprintf("destination %v expects width %d, got %d", reg, h-l+1, node.Width))
	}

	parentNode := node
	if !(h == int(parentWidth)-1 && l == 0) {
		old := t.currentParentNode(parent)
		var parts []*ast.Node
		if h+1 <= int(parentWidth)-1 {
			parts = append(parts, ast.Extract(int(parentWidth)-1, h+1, old))
		}
		parts = append(parts, node)
		if l-1 >= 0 {
			parts = append(parts, ast.Extract(l-1, 0, old))
		}
		parentNode = ast.Concat(parts...)
	}

	expr := t.stage(parentNode, comment)
	t.regWrites[parent] = expr
	return expr, nil
}

func (t *Txn) writeMemory(node *ast.Node, dest operand.Wrapper, comment string) (*Expression, error) {
	size := dest.ByteSize()
	if size == 0 || node.Width != size*8 {
		return nil, symerr.New(symerr.KindInvalidOperandSize, t.address, "",
			fmt.Sprintf("memory destination declares %d bytes, node has width %d", size, node.Width))
	}
	addr, err := t.EffectiveAddress(dest)
	if err != nil {
		return nil, err
	}

	var last *Expression
	for i := uint32(0); i < size; i++ {
		byteNode := ast.Extract(int(8*i+7), int(8*i), node)
		expr := t.stage(byteNode, fmt.Sprintf("%s (byte %d)", comment, i))
		t.memWrites[addr+uint64(i)] = expr
		last = expr
	}
	return last, nil
}

// CreateSymbolicFlagExpression writes a 1-bit flag register (§4.3).
func (t *Txn) CreateSymbolicFlagExpression(node *ast.Node, flag arch.FlagID, comment string) (*Expression, error) {
	if node.Width != 1 {
		return nil, symerr.New(symerr.KindInvalidOperandSize, t.address, "", fmt.Sprintf("flag %v expects width 1, got %d", flag, node.Width))
	}
	expr := t.stage(node, comment)
	t.flagWrites[flag] = expr
	return expr, nil
}

// CreateSymbolicVolatileExpression names a throwaway expression that is not
// written back to any architectural location (§4.3) — CMP/TEST's
// subtraction/AND result, which only flag helpers reference afterward.
func (t *Txn) CreateSymbolicVolatileExpression(node *ast.Node, comment string) *Expression {
	return t.stage(node, comment)
}

// CreateSymbolicRegisterExpression writes a register named directly rather
// than through an operand, used for the program counter and for the
// implicit destinations of MUL/DIV/CBW/CQO-style opcodes. A parent register
// is written whole; a sub-register (AX, EAX, DX, ...) goes through the same
// slice-preserving path as CreateSymbolicExpression.
func (t *Txn) CreateSymbolicRegisterExpression(node *ast.Node, reg arch.RegisterID, comment string) (*Expression, error) {
	if reg != reg.Parent() {
		return t.writeRegister(node, reg, comment)
	}
	if node.Width != uint32(reg.BitSize()) {
		return nil, symerr.New(symerr.KindInvalidOperandSize, t.address, "", fmt.Sprintf("register %v expects width %d, got %d", reg, reg.BitSize(), node.Width))
	}
	expr := t.stage(node, comment)
	t.regWrites[reg] = expr
	return expr, nil
}

// currentMemoryByteExpr returns the expression backing the byte at addr,
// checking this txn's own staged writes first, or nil if never written.
func (t *Txn) currentMemoryByteExpr(addr uint64) *Expression {
	if expr, ok := t.memWrites[addr]; ok {
		return expr
	}
	if expr, ok := t.st.memory[addr]; ok {
		return expr
	}
	return nil
}

// OperandTaint reports whether op's value as of the start of the
// instruction is tainted: a register operand inherits its parent
// expression's bit, a memory operand is tainted if any byte it spans is,
// and an immediate or never-written location is never tainted. Writes
// staged earlier in this transaction are not consulted, so a handler that
// unions a destination's taint after staging the destination's new value
// still sees the old value's taint. This is the taint-reading half of C9
// that handlers use to union/assign onto a freshly created expression.
func (t *Txn) OperandTaint(op operand.Wrapper) bool {
	switch op.Kind() {
	case arch.OperandRegister:
		if expr, ok := t.st.registers[op.Parent()]; ok {
			return expr.Tainted()
		}
		return false
	case arch.OperandMemory:
		addr, err := t.EffectiveAddress(op)
		if err != nil {
			return false
		}
		for i := uint32(0); i < op.ByteSize(); i++ {
			if expr, ok := t.st.memory[addr+uint64(i)]; ok && expr.Tainted() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AddPathConstraint appends a branch's computed next-PC AST to the path-
// constraint log (§3, §4.8) as a named volatile expression.
func (t *Txn) AddPathConstraint(node *ast.Node, comment string) *Expression {
	expr := t.stage(node, comment)
	t.newConstraints = append(t.newConstraints, expr)
	return expr
}

// Commit merges every staged write into the permanent symbolic state and
// returns the expressions committed, in ascending Expression.ID order, for
// callers (package session) that want to log them. After Commit, every
// architectural location this transaction wrote has a fresh mapping and no
// other location has changed (§8 destination-coverage invariant).
func (t *Txn) Commit() []*Expression {
	if t.done {
		return nil
	}
	t.done = true

	ids := make([]uint64, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	committed := make([]*Expression, 0, len(t.pending))
	for _, id := range ids {
		expr := t.pending[id]
		t.st.expressions[id] = expr
		committed = append(committed, expr)
	}
	for reg, expr := range t.regWrites {
		t.st.registers[reg] = expr
	}
	for f, expr := range t.flagWrites {
		t.st.flags[f] = expr
	}
	for addr, expr := range t.memWrites {
		t.st.memory[addr] = expr
	}
	t.st.pathConstraints = append(t.st.pathConstraints, t.newConstraints...)
	return committed
}

// Rollback discards every staged write. The allocated expression IDs are
// not reused (§4.6: "roll back by discarding the freshly-allocated
// Expression IDs") but nothing in the permanent state changes.
func (t *Txn) Rollback() {
	t.done = true
}
