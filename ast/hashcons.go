package ast

import "fmt"

// Equal reports whether two nodes are structurally identical. It is the
// basis for both hash-consing and the determinism property (§8.4): two ASTs
// built from equivalent starting states must compare Equal.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.Width != b.Width {
		return false
	}
	switch a.Kind {
	case KindConst:
		return a.ConstValue == b.ConstValue
	case KindVar:
		return a.SymID == b.SymID
	case KindRef:
		return a.ExprID == b.ExprID
	case KindDecimal:
		return a.DecimalValue == b.DecimalValue
	case KindUnary:
		return a.UnOp == b.UnOp && Equal(a.Child, b.Child)
	case KindBinary:
		return a.BinOp == b.BinOp && Equal(a.LHS, b.LHS) && Equal(a.RHS, b.RHS)
	case KindExtract:
		return a.High == b.High && a.Low == b.Low && Equal(a.Child, b.Child)
	case KindConcat:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if !Equal(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	case KindSignExtend, KindZeroExtend:
		return a.Extra == b.Extra && Equal(a.Child, b.Child)
	case KindIte:
		return Equal(a.Cond, b.Cond) && Equal(a.ThenArm, b.ThenArm) && Equal(a.ElseArm, b.ElseArm)
	}
	return false
}

// structHash computes (and memoizes) a structural hash suitable for a
// hash-cons table bucket key. It need not be collision-free; Table verifies
// candidates with Equal before treating them as the same node.
func (n *Node) structHash() uint64 {
	if n.hash != 0 {
		return n.hash
	}
	const prime = 1099511628211
	h := uint64(14695981039346656037) ^ uint64(n.Kind) ^ uint64(n.Width)<<8
	h *= prime
	switch n.Kind {
	case KindConst:
		h ^= n.ConstValue
	case KindVar:
		h ^= n.SymID
	case KindRef:
		h ^= n.ExprID
	case KindDecimal:
		h ^= n.DecimalValue
	case KindUnary:
		h ^= uint64(n.UnOp) ^ n.Child.structHash()<<1
	case KindBinary:
		h ^= uint64(n.BinOp) ^ n.LHS.structHash()<<1 ^ n.RHS.structHash()<<2
	case KindExtract:
		h ^= uint64(n.High)<<32 ^ uint64(n.Low) ^ n.Child.structHash()<<1
	case KindConcat:
		for i, c := range n.Children {
			h ^= c.structHash() << uint(i%63)
		}
	case KindSignExtend, KindZeroExtend:
		h ^= uint64(n.Extra) ^ n.Child.structHash()<<1
	case KindIte:
		h ^= n.Cond.structHash() ^ n.ThenArm.structHash()<<1 ^ n.ElseArm.structHash()<<2
	}
	h *= prime
	if h == 0 {
		h = 1 // reserve 0 to mean "not yet computed"
	}
	n.hash = h
	return h
}

// Table is an optional hash-consing table (§4.1: "hash-consing is optional
// but recommended"). Intern returns a canonical, shared *Node for any node
// structurally equal to one already seen, so downstream code can use
// pointer equality as a fast path before falling back to Equal.
type Table struct {
	buckets map[uint64][]*Node
}

// NewTable creates an empty hash-cons table.
func NewTable() *Table {
	return &Table{buckets: make(map[uint64][]*Node)}
}

// Intern returns the canonical node for n, inserting n as canonical if this
// is the first structurally-equal node seen.
func (t *Table) Intern(n *Node) *Node {
	h := n.structHash()
	for _, existing := range t.buckets[h] {
		if Equal(existing, n) {
			return existing
		}
	}
	t.buckets[h] = append(t.buckets[h], n)
	return n
}

// Len returns the number of distinct canonical nodes interned so far.
func (t *Table) Len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}

// ValidateWidths walks n and reports the first width-invariant violation
// found against the constructor rules in §4.1 (invariant a: "widths match
// operator arity"). A nil error means the node is well-formed.
func ValidateWidths(n *Node) error {
	switch n.Kind {
	case KindUnary:
		if n.Width != n.Child.Width {
			return fmt.Errorf("ast: unary %s width %d does not match child width %d", n.UnOp, n.Width, n.Child.Width)
		}
		return ValidateWidths(n.Child)
	case KindBinary:
		decimalRotate := (n.BinOp == BvRol || n.BinOp == BvRor) && n.RHS.Kind == KindDecimal
		if n.BinOp == OpEqual {
			if n.Width != 1 {
				return fmt.Errorf("ast: equal node must have width 1, got %d", n.Width)
			}
		} else if n.LHS.Width != n.RHS.Width && !decimalRotate {
			return fmt.Errorf("ast: binary %s operand width mismatch: %d vs %d", n.BinOp, n.LHS.Width, n.RHS.Width)
		}
		if n.BinOp == BvRol || n.BinOp == BvRor {
			if n.RHS.Kind != KindDecimal && n.RHS.Width != n.LHS.Width {
				return fmt.Errorf("ast: rotate count must be Decimal or width-matching, got kind %v width %d", n.RHS.Kind, n.RHS.Width)
			}
		}
		if err := ValidateWidths(n.LHS); err != nil {
			return err
		}
		return ValidateWidths(n.RHS)
	case KindExtract:
		if int(n.Width) != n.High-n.Low+1 {
			return fmt.Errorf("ast: extract [%d:%d] declares width %d, computed %d", n.High, n.Low, n.Width, n.High-n.Low+1)
		}
		if n.High >= int(n.Child.Width) || n.Low < 0 || n.Low > n.High {
			return fmt.Errorf("ast: extract [%d:%d] out of range for child width %d", n.High, n.Low, n.Child.Width)
		}
		return ValidateWidths(n.Child)
	case KindConcat:
		var sum uint32
		for _, c := range n.Children {
			sum += c.Width
			if err := ValidateWidths(c); err != nil {
				return err
			}
		}
		if sum != n.Width {
			return fmt.Errorf("ast: concat declares width %d, children sum to %d", n.Width, sum)
		}
	case KindSignExtend, KindZeroExtend:
		if n.Width != n.Child.Width+n.Extra {
			return fmt.Errorf("ast: extend declares width %d, expected %d+%d", n.Width, n.Child.Width, n.Extra)
		}
		return ValidateWidths(n.Child)
	case KindIte:
		if n.Cond.Width != 1 {
			return fmt.Errorf("ast: ite condition must be BV1, got width %d", n.Cond.Width)
		}
		if n.ThenArm.Width != n.ElseArm.Width || n.Width != n.ThenArm.Width {
			return fmt.Errorf("ast: ite arm width mismatch: then=%d else=%d declared=%d", n.ThenArm.Width, n.ElseArm.Width, n.Width)
		}
		if err := ValidateWidths(n.Cond); err != nil {
			return err
		}
		if err := ValidateWidths(n.ThenArm); err != nil {
			return err
		}
		return ValidateWidths(n.ElseArm)
	}
	return nil
}
