// Package symstate implements the symbolic state store (§4.3, C3) and the
// operand builder (§4.4, C4): the register/memory maps from architectural
// locations to their defining expressions, and the logic that turns an
// operand wrapper into the AST of its current value.
package symstate

import (
	"fmt"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/lookbusy1344/x86-symex/symerr"
)

// State is the symbolic state for one analysis session (§5: owned by a
// single session, never shared across concurrent instructions).
type State struct {
	cpuBitSize uint32
	concrete   arch.ConcreteState
	hashcons   *ast.Table // nil disables hash-consing

	registers map[arch.RegisterID]*Expression // keyed by parent register
	flags     map[arch.FlagID]*Expression
	memory    map[uint64]*Expression // keyed by byte address

	expressions map[uint64]*Expression
	nextExprID  uint64

	pathConstraints []*Expression
}

// New creates an empty symbolic state for a session with the given CPU bit
// size (16/32/64, §6) and concrete mirror. enableHashConsing mirrors
// config.Config.SymbolicState.EnableHashConsing.
func New(cpuBitSize uint32, concrete arch.ConcreteState, enableHashConsing bool) *State {
	st := &State{
		cpuBitSize:  cpuBitSize,
		concrete:    concrete,
		registers:   make(map[arch.RegisterID]*Expression),
		flags:       make(map[arch.FlagID]*Expression),
		memory:      make(map[uint64]*Expression),
		expressions: make(map[uint64]*Expression),
	}
	if enableHashConsing {
		st.hashcons = ast.NewTable()
	}
	return st
}

// CPUBitSize returns the session-wide mode (§6).
func (s *State) CPUBitSize() uint32 { return s.cpuBitSize }

func (s *State) intern(n *ast.Node) *ast.Node {
	if s.hashcons == nil {
		return n
	}
	return s.hashcons.Intern(n)
}

// allocExpression mints a fresh, monotonic expression ID, interns its node,
// and records it directly in the permanent store. Callers that need
// transactional staging go through Txn instead.
func (s *State) allocExpression(node *ast.Node, comment string, origin uint64) *Expression {
	s.nextExprID++
	expr := &Expression{ID: s.nextExprID, Node: s.intern(node), Comment: comment, OriginAddress: origin}
	s.expressions[expr.ID] = expr
	return expr
}

// allocExpressionDetached mints a fresh, monotonic expression ID and
// interns its node, but does not record it in the permanent store — used
// by Txn.stage so an uncommitted transaction never becomes visible.
func (s *State) allocExpressionDetached(node *ast.Node, comment string, origin uint64) *Expression {
	s.nextExprID++
	return &Expression{ID: s.nextExprID, Node: s.intern(node), Comment: comment, OriginAddress: origin}
}

// ExpressionByID fetches a previously created expression for external
// inspection (§6 "Symbolic-state accessors").
func (s *State) ExpressionByID(id uint64) (*Expression, bool) {
	e, ok := s.expressions[id]
	return e, ok
}

// Expressions returns every committed expression, ordered by ID; IDs minted
// by rolled-back transactions are skipped.
func (s *State) Expressions() []*Expression {
	out := make([]*Expression, 0, len(s.expressions))
	for id := uint64(1); id <= s.nextExprID; id++ {
		if e, ok := s.expressions[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// CurrentRegister returns the Expression currently mapped to the full-width
// parent of reg, or nil if the register has never been written symbolically
// in this session.
func (s *State) CurrentRegister(reg arch.RegisterID) *Expression {
	return s.registers[reg.Parent()]
}

// CurrentFlag returns the Expression currently mapped to flag f, or nil if
// it has never been written symbolically.
func (s *State) CurrentFlag(f arch.FlagID) *Expression {
	return s.flags[f]
}

// CurrentMemoryByte returns the Expression currently mapped to the byte at
// addr, or nil if it has never been written symbolically.
func (s *State) CurrentMemoryByte(addr uint64) *Expression {
	return s.memory[addr]
}

// registerNode returns the AST node for the current full-width value of
// reg's parent: a Ref to its mapped expression, or — per §7's "Taint
// lookups and concrete register reads against undefined locations return
// defined defaults" — a Const built from the concrete mirror when the
// register has no symbolic mapping yet.
func (s *State) registerNode(reg arch.RegisterID) *ast.Node {
	parent := reg.Parent()
	if expr, ok := s.registers[parent]; ok {
		return ast.Ref(expr.ID, expr.Width())
	}
	width := parent.BitSize()
	return ast.Const(s.concrete.RegisterValue(parent), uint32(width))
}

// flagNode returns the AST node for the current value of flag f.
func (s *State) flagNode(f arch.FlagID) *ast.Node {
	if expr, ok := s.flags[f]; ok {
		return ast.Ref(expr.ID, 1)
	}
	return ast.BoolToBV(s.concrete.Flag(f))
}

// memoryByteNode returns the AST node for the current value of the byte at
// addr.
func (s *State) memoryByteNode(addr uint64) *ast.Node {
	if expr, ok := s.memory[addr]; ok {
		return ast.Ref(expr.ID, 8)
	}
	return ast.Const(uint64(s.concrete.MemoryByte(addr)), 8)
}

// FlagExpression returns the current flag Expression for f, building and
// recording a baseline one from the concrete mirror if none exists yet.
// Flag helpers use this for the "current_flag_value" half of the
// ite(count==0, current, new) pattern (§9), which needs a *stored*
// expression to reference, not just a raw node.
func (s *State) FlagExpression(f arch.FlagID) *Expression {
	if expr, ok := s.flags[f]; ok {
		return expr
	}
	expr := s.allocExpression(ast.BoolToBV(s.concrete.Flag(f)), fmt.Sprintf("initial %s", f), 0)
	s.flags[f] = expr
	return expr
}

// --- C4: operand builder -----------------------------------------------

// BuildSymbolicOperand returns the AST of the current value of op (§4.4).
func (s *State) BuildSymbolicOperand(op operand.Wrapper) (*ast.Node, error) {
	switch op.Kind() {
	case arch.OperandRegister:
		reg := op.Register()
		full := s.registerNode(reg)
		h, l := reg.Slice()
		return ast.Extract(h, l, full), nil

	case arch.OperandMemory:
		size := op.ByteSize()
		if size == 0 {
			return nil, symerr.New(symerr.KindInvalidOperandSize, 0, "", "memory operand has zero size")
		}
		addr, err := s.EffectiveAddress(op)
		if err != nil {
			return nil, err
		}
		return s.buildMemoryRead(addr, size), nil

	case arch.OperandImmediate:
		return ast.Const(op.ImmediateValue(), op.BitSize()), nil
	}
	return nil, symerr.New(symerr.KindOperandKindMismatch, 0, "", "unrecognized operand kind")
}

// buildMemoryRead concatenates byte expressions for addr+size-1 down to
// addr: little-endian, so the highest address contributes the high bits
// (§4.4).
func (s *State) buildMemoryRead(addr uint64, sizeBytes uint32) *ast.Node {
	children := make([]*ast.Node, sizeBytes)
	for i := uint32(0); i < sizeBytes; i++ {
		// children[0] holds the highest address's byte (high bits first).
		children[i] = s.memoryByteNode(addr + uint64(sizeBytes-1-i))
	}
	return ast.Concat(children...)
}

// EffectiveAddress computes the LEA-style address AST and its concrete
// counterpart is left to the caller's concrete mirror; this returns the
// concrete effective address (uint64) used to index memory, while
// EffectiveAddressNode (below) returns the symbolic AST per §4.4's LEA
// formula. Most handlers only need the concrete address to read/write
// memory bytes — the symbolic address itself only matters for LEA.
func (s *State) EffectiveAddress(op operand.Wrapper) (uint64, error) {
	addrMode := op.Address()
	addr := uint64(addrMode.Disp)
	if addrMode.Base != arch.RegNone {
		addr += s.concrete.RegisterValue(addrMode.Base.Parent())
	}
	if addrMode.Index != arch.RegNone {
		addr += s.concrete.RegisterValue(addrMode.Index.Parent()) * uint64(addrMode.Scale)
	}
	return addr, nil
}

// EffectiveAddressNode builds the symbolic effective-address AST per §4.4:
// zx(disp) + base + (index * zx(scale)), with the RIP-relative adjustment
// (current instruction's byte length) folded in when Base is RIP.
func (s *State) EffectiveAddressNode(addrMode arch.AddressingMode, instLen uint32, destWidth uint32) *ast.Node {
	width := s.cpuBitSize

	disp := ast.SignExtendTo(width, ast.Const(uint64(addrMode.Disp), 64))
	sum := disp

	if addrMode.Base != arch.RegNone {
		baseNode := ast.ZeroExtendTo(width, s.registerNode(addrMode.Base.Parent()))
		if addrMode.RIPRelative {
			baseNode = ast.Add(baseNode, ast.Const(uint64(instLen), width))
		}
		sum = ast.Add(sum, baseNode)
	}

	if addrMode.Index != arch.RegNone && addrMode.Scale > 0 {
		idxNode := ast.ZeroExtendTo(width, s.registerNode(addrMode.Index.Parent()))
		scaled := ast.Mul(idxNode, ast.Const(uint64(addrMode.Scale), width))
		sum = ast.Add(sum, scaled)
	}

	return ast.ZeroExtendTo(destWidth, sum)
}

// PathConstraints returns the accumulated branch constraint log (§8's
// "Path-constraint iterator").
func (s *State) PathConstraints() []*Expression {
	out := make([]*Expression, len(s.pathConstraints))
	copy(out, s.pathConstraints)
	return out
}
