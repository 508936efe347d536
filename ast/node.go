// Package ast implements the bitvector term algebra (§4.1 of the symbolic
// execution core): a directed acyclic expression graph of fixed-width
// bitvector operations. Every constructor here is pure — no side effects,
// no lookups into the symbolic state.
package ast

import "fmt"

// BinOp names a two-operand bitvector operator.
type BinOp int

const (
	BvAdd BinOp = iota
	BvSub
	BvMul
	BvUDiv
	BvURem
	BvSDiv
	BvSRem
	BvAnd
	BvOr
	BvXor
	BvShl
	BvLShr
	BvAShr
	BvRol
	BvRor
	OpEqual
)

func (op BinOp) String() string {
	names := [...]string{
		"bvadd", "bvsub", "bvmul", "bvudiv", "bvurem", "bvsdiv", "bvsrem",
		"bvand", "bvor", "bvxor", "bvshl", "bvlshr", "bvashr", "bvrol", "bvror",
		"equal",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "??"
}

// UnOp names a one-operand bitvector operator.
type UnOp int

const (
	BvNot UnOp = iota
	BvNeg
)

func (op UnOp) String() string {
	if op == BvNot {
		return "bvnot"
	}
	return "bvneg"
}

// Kind discriminates the Node variants listed in §3.
type Kind int

const (
	KindConst Kind = iota
	KindVar
	KindRef
	KindUnary
	KindBinary
	KindExtract
	KindConcat
	KindSignExtend
	KindZeroExtend
	KindIte
	KindDecimal
)

// Node is a term in the bitvector expression DAG. Every node carries its own
// result width in bits except Decimal, which is an untyped natural used
// only as a rotate/shift-count argument.
//
// Node is immutable after construction: all exported fields are set once by
// a constructor in this file and never mutated; only the unexported hash is
// filled in lazily by structHash. Structural sharing is safe.
type Node struct {
	Kind  Kind
	Width uint32

	// KindConst
	ConstValue uint64

	// KindVar
	SymID uint64

	// KindRef
	ExprID uint64

	// KindUnary
	UnOp  UnOp
	Child *Node

	// KindBinary
	BinOp BinOp
	LHS   *Node
	RHS   *Node

	// KindExtract
	High, Low int

	// KindConcat
	Children []*Node

	// KindSignExtend / KindZeroExtend
	Extra uint32
	// Child reused for the extended operand

	// KindIte
	Cond     *Node
	ThenArm  *Node
	ElseArm  *Node

	// KindDecimal
	DecimalValue uint64

	hash uint64 // memoized structural hash, computed lazily
}

// Const builds a constant bitvector of the given width.
func Const(value uint64, width uint32) *Node {
	if width < 64 {
		value &= (uint64(1) << width) - 1
	}
	return &Node{Kind: KindConst, Width: width, ConstValue: value}
}

// Var builds a placeholder for an unresolved input symbol.
func Var(symID uint64, width uint32) *Node {
	return &Node{Kind: KindVar, Width: width, SymID: symID}
}

// Ref builds a named handle into the symbolic-state expression store.
func Ref(exprID uint64, width uint32) *Node {
	return &Node{Kind: KindRef, Width: width, ExprID: exprID}
}

// Decimal builds an untyped natural literal, valid only as a rotate/shift
// count argument to Rol/Ror.
func Decimal(value uint64) *Node {
	return &Node{Kind: KindDecimal, DecimalValue: value}
}

// Unary builds a one-operand bitwise node. Width is preserved from child.
func Unary(op UnOp, child *Node) *Node {
	return &Node{Kind: KindUnary, Width: child.Width, UnOp: op, Child: child}
}

func Not(x *Node) *Node { return Unary(BvNot, x) }
func Neg(x *Node) *Node { return Unary(BvNeg, x) }

// Binary builds a two-operand node. OpEqual always has width 1; every other
// operator preserves the (equal) width of its operands.
func Binary(op BinOp, lhs, rhs *Node) *Node {
	width := lhs.Width
	if op == OpEqual {
		width = 1
	}
	return &Node{Kind: KindBinary, Width: width, BinOp: op, LHS: lhs, RHS: rhs}
}

func Add(a, b *Node) *Node  { return Binary(BvAdd, a, b) }
func Sub(a, b *Node) *Node  { return Binary(BvSub, a, b) }
func Mul(a, b *Node) *Node  { return Binary(BvMul, a, b) }
func UDiv(a, b *Node) *Node { return Binary(BvUDiv, a, b) }
func URem(a, b *Node) *Node { return Binary(BvURem, a, b) }
func SDiv(a, b *Node) *Node { return Binary(BvSDiv, a, b) }
func SRem(a, b *Node) *Node { return Binary(BvSRem, a, b) }
func And(a, b *Node) *Node  { return Binary(BvAnd, a, b) }
func Or(a, b *Node) *Node   { return Binary(BvOr, a, b) }
func Xor(a, b *Node) *Node  { return Binary(BvXor, a, b) }
func Shl(a, b *Node) *Node  { return Binary(BvShl, a, b) }
func LShr(a, b *Node) *Node { return Binary(BvLShr, a, b) }
func AShr(a, b *Node) *Node { return Binary(BvAShr, a, b) }

// Rol/Ror take a rotate-count operand that must be Decimal or a width-
// matching bitvector (§3 invariant c); the flag helpers in package flags
// additionally require the count be Decimal specifically, so reject
// symbolic counts before they get this far.
func Rol(a, count *Node) *Node { return Binary(BvRol, a, count) }
func Ror(a, count *Node) *Node { return Binary(BvRor, a, count) }

func EqualNode(a, b *Node) *Node { return Binary(OpEqual, a, b) }

// Extract builds the [high, low] bit slice of child. It short-circuits to
// child itself when the slice spans the whole width, per §4.1.
func Extract(high, low int, child *Node) *Node {
	if high == int(child.Width)-1 && low == 0 {
		return child
	}
	return &Node{Kind: KindExtract, Width: uint32(high - low + 1), High: high, Low: low, Child: child}
}

// Concat builds the high-bits-first concatenation of children. A single
// child returns itself unchanged.
func Concat(children ...*Node) *Node {
	if len(children) == 1 {
		return children[0]
	}
	var width uint32
	for _, c := range children {
		width += c.Width
	}
	cp := make([]*Node, len(children))
	copy(cp, children)
	return &Node{Kind: KindConcat, Width: width, Children: cp}
}

// SignExtend/ZeroExtend grow child by extra bits.
func SignExtend(extra uint32, child *Node) *Node {
	if extra == 0 {
		return child
	}
	return &Node{Kind: KindSignExtend, Width: child.Width + extra, Extra: extra, Child: child}
}

func ZeroExtend(extra uint32, child *Node) *Node {
	if extra == 0 {
		return child
	}
	return &Node{Kind: KindZeroExtend, Width: child.Width + extra, Extra: extra, Child: child}
}

// ZeroExtendTo / SignExtendTo extend child up to the given total width,
// a convenience the handlers use constantly when matching operand widths.
func ZeroExtendTo(width uint32, child *Node) *Node {
	if width <= child.Width {
		return Extract(int(width)-1, 0, child)
	}
	return ZeroExtend(width-child.Width, child)
}

func SignExtendTo(width uint32, child *Node) *Node {
	if width <= child.Width {
		return Extract(int(width)-1, 0, child)
	}
	return SignExtend(width-child.Width, child)
}

// Ite builds a ternary if-then-else. cond must be BV1; the result width is
// the (equal) width of the two arms.
func Ite(cond, thenArm, elseArm *Node) *Node {
	return &Node{Kind: KindIte, Width: thenArm.Width, Cond: cond, ThenArm: thenArm, ElseArm: elseArm}
}

// BVTrue / BVFalse are the canonical BV1 constants used pervasively by flag
// and condition helpers.
func BVTrue() *Node  { return Const(1, 1) }
func BVFalse() *Node { return Const(0, 1) }

// BoolToBV turns a Go bool into a BV1 constant, used when a handler already
// knows a bit's concrete truth at AST-construction time (e.g. building a
// flag node from a fixed literal rather than a computed expression).
func BoolToBV(b bool) *Node {
	if b {
		return BVTrue()
	}
	return BVFalse()
}

// String renders a node for debugging / SMT-text round-tripping. The format
// is a minimal s-expression dialect; Parse is its exact inverse, so the
// round-trip invariant (§8.6) holds for any Node built by this package.
func (n *Node) String() string {
	switch n.Kind {
	case KindConst:
		return fmt.Sprintf("(_ bv%d %d)", n.ConstValue, n.Width)
	case KindVar:
		return fmt.Sprintf("(var sym%d %d)", n.SymID, n.Width)
	case KindRef:
		return fmt.Sprintf("(ref %d %d)", n.ExprID, n.Width)
	case KindDecimal:
		return fmt.Sprintf("(dec %d)", n.DecimalValue)
	case KindUnary:
		return fmt.Sprintf("(%s %s)", n.UnOp, n.Child)
	case KindBinary:
		return fmt.Sprintf("(%s %s %s)", n.BinOp, n.LHS, n.RHS)
	case KindExtract:
		return fmt.Sprintf("(extract %d %d %s)", n.High, n.Low, n.Child)
	case KindConcat:
		s := "(concat"
		for _, c := range n.Children {
			s += " " + c.String()
		}
		return s + ")"
	case KindSignExtend:
		return fmt.Sprintf("(sign_extend %d %s)", n.Extra, n.Child)
	case KindZeroExtend:
		return fmt.Sprintf("(zero_extend %d %s)", n.Extra, n.Child)
	case KindIte:
		return fmt.Sprintf("(ite %s %s %s)", n.Cond, n.ThenArm, n.ElseArm)
	}
	return "(?)"
}
