package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the s-expression text produced by Node.String and rebuilds a
// structurally equal Node (§8.6 round-trip property). This is the only
// piece of the external SMT text form the core itself owns; the SMT solver
// feed proper is an external collaborator (§6).
func Parse(text string) (*Node, error) {
	p := &parser{tokens: tokenize(text)}
	n, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("ast: trailing input after expression: %v", p.tokens[p.pos:])
	}
	return n, nil
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) next() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", fmt.Errorf("ast: unexpected end of input")
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expect(tok string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t != tok {
		return fmt.Errorf("ast: expected %q, got %q", tok, t)
	}
	return nil
}

func (p *parser) parseNode() (*Node, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	head, err := p.next()
	if err != nil {
		return nil, err
	}

	var n *Node
	switch head {
	case "_":
		// (_ bvNNN WIDTH)
		bvtok, err := p.next()
		if err != nil {
			return nil, err
		}
		val, err := strconv.ParseUint(strings.TrimPrefix(bvtok, "bv"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ast: bad const literal %q: %w", bvtok, err)
		}
		width, err := p.parseUint32()
		if err != nil {
			return nil, err
		}
		n = Const(val, width)
	case "var":
		symtok, err := p.next()
		if err != nil {
			return nil, err
		}
		sym, err := strconv.ParseUint(strings.TrimPrefix(symtok, "sym"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ast: bad sym literal %q: %w", symtok, err)
		}
		width, err := p.parseUint32()
		if err != nil {
			return nil, err
		}
		n = Var(sym, width)
	case "ref":
		id, err := p.parseUint64()
		if err != nil {
			return nil, err
		}
		width, err := p.parseUint32()
		if err != nil {
			return nil, err
		}
		n = Ref(id, width)
	case "dec":
		v, err := p.parseUint64()
		if err != nil {
			return nil, err
		}
		n = Decimal(v)
	case "bvnot", "bvneg":
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		op := BvNot
		if head == "bvneg" {
			op = BvNeg
		}
		n = Unary(op, child)
	case "equal", "bvadd", "bvsub", "bvmul", "bvudiv", "bvurem", "bvsdiv", "bvsrem",
		"bvand", "bvor", "bvxor", "bvshl", "bvlshr", "bvashr", "bvrol", "bvror":
		lhs, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n = Binary(binOpFromString(head), lhs, rhs)
	case "extract":
		high, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		low, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n = Extract(high, low, child)
	case "concat":
		var children []*Node
		for p.peekIsOpen() {
			c, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		n = Concat(children...)
	case "sign_extend", "zero_extend":
		extra, err := p.parseUint32()
		if err != nil {
			return nil, err
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if head == "sign_extend" {
			n = SignExtend(extra, child)
		} else {
			n = ZeroExtend(extra, child)
		}
	case "ite":
		cond, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		thenArm, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		elseArm, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n = Ite(cond, thenArm, elseArm)
	default:
		return nil, fmt.Errorf("ast: unknown node head %q", head)
	}

	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) peekIsOpen() bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos] == "("
}

func (p *parser) parseUint32() (uint32, error) {
	v, err := p.parseUint64()
	return uint32(v), err
}

func (p *parser) parseUint64() (uint64, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ast: bad integer %q: %w", t, err)
	}
	return v, nil
}

func (p *parser) parseInt() (int, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("ast: bad integer %q: %w", t, err)
	}
	return v, nil
}

func binOpFromString(s string) BinOp {
	switch s {
	case "bvadd":
		return BvAdd
	case "bvsub":
		return BvSub
	case "bvmul":
		return BvMul
	case "bvudiv":
		return BvUDiv
	case "bvurem":
		return BvURem
	case "bvsdiv":
		return BvSDiv
	case "bvsrem":
		return BvSRem
	case "bvand":
		return BvAnd
	case "bvor":
		return BvOr
	case "bvxor":
		return BvXor
	case "bvshl":
		return BvShl
	case "bvlshr":
		return BvLShr
	case "bvashr":
		return BvAShr
	case "bvrol":
		return BvRol
	case "bvror":
		return BvRor
	case "equal":
		return OpEqual
	}
	return -1
}
