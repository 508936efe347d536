package ast_test

import (
	"testing"

	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractShortCircuit(t *testing.T) {
	x := ast.Const(0x1234, 32)
	got := ast.Extract(31, 0, x)
	assert.Same(t, x, got, "extract spanning the whole width must return the child unchanged")
}

func TestConcatSingleChild(t *testing.T) {
	x := ast.Const(7, 8)
	assert.Same(t, x, ast.Concat(x))
}

func TestConcatWidthSum(t *testing.T) {
	a := ast.Const(1, 8)
	b := ast.Const(2, 16)
	c := ast.Concat(a, b)
	assert.Equal(t, uint32(24), c.Width)
}

func TestBinaryEqualIsWidthOne(t *testing.T) {
	a := ast.Const(1, 32)
	b := ast.Const(2, 32)
	eq := ast.EqualNode(a, b)
	assert.Equal(t, uint32(1), eq.Width)
}

func TestIteWidthMatchesArms(t *testing.T) {
	cond := ast.BVTrue()
	then := ast.Const(1, 64)
	els := ast.Const(0, 64)
	n := ast.Ite(cond, then, els)
	assert.Equal(t, uint32(64), n.Width)
}

func TestEqualStructural(t *testing.T) {
	a := ast.Add(ast.Const(1, 32), ast.Const(2, 32))
	b := ast.Add(ast.Const(1, 32), ast.Const(2, 32))
	assert.True(t, ast.Equal(a, b))

	c := ast.Add(ast.Const(1, 32), ast.Const(3, 32))
	assert.False(t, ast.Equal(a, c))
}

func TestHashConsTableInterns(t *testing.T) {
	table := ast.NewTable()
	a := table.Intern(ast.Add(ast.Const(1, 32), ast.Const(2, 32)))
	b := table.Intern(ast.Add(ast.Const(1, 32), ast.Const(2, 32)))
	assert.Same(t, a, b, "structurally identical nodes must intern to the same pointer")
	assert.Equal(t, 1, table.Len())
}

func TestValidateWidthsCatchesRotateWithBadCount(t *testing.T) {
	bad := &ast.Node{
		Kind:  ast.KindBinary,
		Width: 32,
		BinOp: ast.BvRol,
		LHS:   ast.Const(1, 32),
		RHS:   ast.Const(3, 16), // not Decimal, not width-matching
	}
	err := ast.ValidateWidths(bad)
	require.Error(t, err)
}

func TestValidateWidthsAcceptsDecimalRotateCount(t *testing.T) {
	good := ast.Rol(ast.Const(1, 32), ast.Decimal(3))
	assert.NoError(t, ast.ValidateWidths(good))
}

func TestRoundTrip(t *testing.T) {
	cases := []*ast.Node{
		ast.Const(0x1234, 32),
		ast.Var(7, 64),
		ast.Ref(42, 8),
		ast.Add(ast.Const(1, 32), ast.Const(2, 32)),
		ast.Extract(15, 8, ast.Const(0xBEEF, 32)),
		ast.Concat(ast.Const(1, 8), ast.Const(2, 8), ast.Const(3, 8)),
		ast.ZeroExtend(32, ast.Const(5, 32)),
		ast.SignExtend(32, ast.Const(5, 32)),
		ast.Ite(ast.BVTrue(), ast.Const(1, 32), ast.Const(0, 32)),
		ast.Rol(ast.Const(1, 32), ast.Decimal(4)),
	}
	for _, n := range cases {
		text := n.String()
		got, err := ast.Parse(text)
		require.NoError(t, err, "parsing %q", text)
		assert.True(t, ast.Equal(n, got), "round trip mismatch for %q: got %q", text, got.String())
	}
}
