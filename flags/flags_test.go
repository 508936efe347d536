package flags_test

import (
	"testing"

	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/flags"
	"github.com/stretchr/testify/assert"
)

func TestZFDetectsZero(t *testing.T) {
	assert.True(t, ast.Equal(flags.ZF(ast.Const(0, 32)), ast.EqualNode(ast.Const(0, 32), ast.Const(0, 32))))
}

func TestSFExtractsTopBit(t *testing.T) {
	n := flags.SF(ast.Const(0x80000000, 32))
	assert.Equal(t, uint32(1), n.Width)
	assert.Equal(t, ast.KindExtract, n.Kind)
}

func TestPFIsEightBitReduction(t *testing.T) {
	n := flags.PF(ast.Const(0x03, 8))
	assert.Equal(t, uint32(1), n.Width)
}

func TestAFAddSubWidthOne(t *testing.T) {
	n := flags.AFAddSub(ast.Const(0x10, 8), ast.Const(0x08, 8), ast.Const(0x08, 8))
	assert.Equal(t, uint32(1), n.Width)
}

func TestCFFromZeroWidthOne(t *testing.T) {
	n := flags.CFFromZero(ast.Const(0, 32))
	assert.Equal(t, uint32(1), n.Width)
	assert.Equal(t, ast.KindIte, n.Kind)
}

func TestCFIMulComparesSignExtendedLow(t *testing.T) {
	low := ast.Const(0x7F, 8)
	full := ast.SignExtendTo(16, low)
	n := flags.CFIMul(low, full)
	assert.Equal(t, uint32(1), n.Width)
	assert.Equal(t, ast.KindIte, n.Kind)
	assert.True(t, ast.Equal(ast.EqualNode(ast.SignExtendTo(16, low), full), n.Cond))
}

func TestOFAddWidthOne(t *testing.T) {
	n := flags.OFAdd(ast.Const(0, 8), ast.Const(0x7F, 8), ast.Const(1, 8))
	assert.Equal(t, uint32(1), n.Width)
}

func TestShlCFGatesOnZeroCount(t *testing.T) {
	oldCF := ast.Const(0, 1)
	n := flags.ShlCF(ast.Const(0x80, 8), ast.Const(0, 8), 8, oldCF)
	assert.Equal(t, ast.KindIte, n.Kind)
	assert.Equal(t, uint32(1), n.Width)
}

func TestShlOFGatesOnCountOne(t *testing.T) {
	oldOF := ast.Const(0, 1)
	n := flags.ShlOF(ast.Const(0xC0, 8), ast.Const(1, 8), 8, oldOF)
	assert.Equal(t, uint32(1), n.Width)
}

func TestRolCFNilWhenCountZero(t *testing.T) {
	n := flags.RolCF(ast.Const(0x81, 8), 0)
	assert.Nil(t, n)
}

func TestRolCFExtractsLSBWhenCountNonzero(t *testing.T) {
	n := flags.RolCF(ast.Const(0x81, 8), 3)
	assert.NotNil(t, n)
	assert.Equal(t, uint32(1), n.Width)
}

func TestRolOFOnlyDefinedAtCountOne(t *testing.T) {
	cf := ast.Const(1, 1)
	assert.Nil(t, flags.RolOF(ast.Const(0x81, 8), cf, 2))
	assert.NotNil(t, flags.RolOF(ast.Const(0x81, 8), cf, 1))
}

func TestRorCFAndOF(t *testing.T) {
	assert.Nil(t, flags.RorCF(ast.Const(0x81, 8), 0))
	n := flags.RorCF(ast.Const(0x81, 8), 1)
	assert.NotNil(t, n)
	assert.Nil(t, flags.RorOF(ast.Const(0x81, 8), 2))
	assert.NotNil(t, flags.RorOF(ast.Const(0x81, 8), 1))
}

func TestZFFromSourceZero(t *testing.T) {
	n := flags.ZFFromSourceZero(ast.Const(0, 32))
	assert.Equal(t, uint32(1), n.Width)
}

func TestSarOFClearsOnlyAtCountOne(t *testing.T) {
	oldOF := ast.Const(1, 1)
	n := flags.SarOF(ast.Const(1, 8), 8, oldOF)
	assert.Equal(t, uint32(1), n.Width)
	assert.Equal(t, ast.KindIte, n.Kind)
	assert.True(t, ast.Equal(ast.BVFalse(), n.ThenArm))
	assert.Same(t, oldOF, n.ElseArm)
}
