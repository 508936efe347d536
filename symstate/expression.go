package symstate

import "github.com/lookbusy1344/x86-symex/ast"

// Expression is a named AST root persisted in the symbolic state (§3).
// IDs are monotonic and never reused; expressions are never deleted for
// the lifetime of a session.
type Expression struct {
	ID      uint64
	Node    *ast.Node
	Comment string

	tainted bool

	// OriginAddress is the address of the instruction that produced this
	// expression, for diagnostics and for the trace package.
	OriginAddress uint64
}

// Tainted reports whether this expression is derived from a marked input.
func (e *Expression) Tainted() bool { return e.tainted }

// SetTainted sets this expression's taint bit. Satisfies taint.Taintable.
func (e *Expression) SetTainted(v bool) { e.tainted = v }

// Width returns the bit width of the expression's AST root.
func (e *Expression) Width() uint32 {
	return e.Node.Width
}
