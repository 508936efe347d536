package symstate_test

import (
	"testing"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/ast"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/lookbusy1344/x86-symex/symstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConcrete is a minimal arch.ConcreteState for tests.
type fakeConcrete struct {
	regs  map[arch.RegisterID]uint64
	flags map[arch.FlagID]bool
	mem   map[uint64]byte
	bits  uint32
}

func newFakeConcrete() *fakeConcrete {
	return &fakeConcrete{
		regs:  make(map[arch.RegisterID]uint64),
		flags: make(map[arch.FlagID]bool),
		mem:   make(map[uint64]byte),
		bits:  64,
	}
}

func (f *fakeConcrete) RegisterValue(reg arch.RegisterID) uint64        { return f.regs[reg] }
func (f *fakeConcrete) SetRegisterValue(reg arch.RegisterID, v uint64)  { f.regs[reg] = v }
func (f *fakeConcrete) RegisterBitSize(reg arch.RegisterID) uint32      { return uint32(reg.BitSize()) }
func (f *fakeConcrete) CPUBitSize() uint32                              { return f.bits }
func (f *fakeConcrete) Flag(fl arch.FlagID) bool                        { return f.flags[fl] }
func (f *fakeConcrete) SetFlag(fl arch.FlagID, v bool)                  { f.flags[fl] = v }
func (f *fakeConcrete) MemoryByte(addr uint64) byte                     { return f.mem[addr] }
func (f *fakeConcrete) SetMemoryByte(addr uint64, b byte)               { f.mem[addr] = b }

func TestBuildSymbolicOperandImmediate(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	op := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandImmediate, SizeBits: 32, Immediate: 0x42})
	node, err := st.BuildSymbolicOperand(op)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), node.Width)
	assert.True(t, ast.Equal(node, ast.Const(0x42, 32)))
}

func TestBuildSymbolicOperandUninitializedRegisterUsesConcreteDefault(t *testing.T) {
	concrete := newFakeConcrete()
	concrete.SetRegisterValue(arch.RegRAX, 0xDEAD)
	st := symstate.New(64, concrete, true)

	op := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegEAX})
	node, err := st.BuildSymbolicOperand(op)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), node.Width)
	assert.True(t, ast.Equal(node, ast.Extract(31, 0, ast.Const(0xDEAD, 64))))
}

func TestCreateSymbolicExpressionFullRegister(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x1000)

	node := ast.Const(0x12345678, 32)
	dest := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegEAX})
	expr, err := txn.CreateSymbolicExpression(node, dest, "mov eax, imm")
	require.NoError(t, err)
	txn.Commit()

	current := st.CurrentRegister(arch.RegEAX)
	require.NotNil(t, current)
	assert.Equal(t, expr.ID, current.ID)
}

func TestCreateSymbolicExpressionPreservesHighBitsOnSubSlice(t *testing.T) {
	concrete := newFakeConcrete()
	st := symstate.New(64, concrete, true)
	txn := st.Begin(0x1000)

	// Write RAX fully first.
	full, err := txn.CreateSymbolicExpression(ast.Const(0x1122334455667788, 64), operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegRAX}), "seed")
	require.NoError(t, err)
	txn.Commit()
	_ = full

	// Now write only AL (bits 7..0); bits above must be preserved symbolically.
	txn2 := st.Begin(0x1001)
	alDest := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegAL})
	_, err = txn2.CreateSymbolicExpression(ast.Const(0xFF, 8), alDest, "mov al, 0xff")
	require.NoError(t, err)
	txn2.Commit()

	raxExpr := st.CurrentRegister(arch.RegRAX)
	require.NotNil(t, raxExpr)
	assert.Equal(t, uint32(64), raxExpr.Width())
	// The node must be a concat, not a flat constant, preserving symbolic structure.
	assert.Equal(t, ast.KindConcat, raxExpr.Node.Kind)
}

func TestCreateSymbolicExpressionMemorySplitsLittleEndian(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x2000)

	dest := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandMemory, SizeBits: 32, Addr: arch.AddressingMode{Disp: 0x1000}})
	node := ast.Const(0xAABBCCDD, 32)
	_, err := txn.CreateSymbolicExpression(node, dest, "store dword")
	require.NoError(t, err)
	txn.Commit()

	low := st.CurrentMemoryByte(0x1000)
	high := st.CurrentMemoryByte(0x1003)
	require.NotNil(t, low)
	require.NotNil(t, high)
	assert.True(t, ast.Equal(low.Node, ast.Extract(7, 0, node)))
	assert.True(t, ast.Equal(high.Node, ast.Extract(31, 24, node)))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x3000)
	dest := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegEAX})
	_, err := txn.CreateSymbolicExpression(ast.Const(1, 32), dest, "should not land")
	require.NoError(t, err)
	txn.Rollback()

	assert.Nil(t, st.CurrentRegister(arch.RegEAX))
}

func TestVolatileExpressionDoesNotWriteDestination(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x4000)
	expr := txn.CreateSymbolicVolatileExpression(ast.Sub(ast.Const(1, 32), ast.Const(1, 32)), "cmp")
	txn.Commit()
	assert.NotNil(t, expr)
	assert.Nil(t, st.CurrentRegister(arch.RegEAX))
}

func TestPathConstraintsAccumulate(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x5000)
	txn.AddPathConstraint(ast.Const(0x401000, 64), "jmp target")
	txn.Commit()

	assert.Len(t, st.PathConstraints(), 1)
}

func TestDestinationWidthMismatchErrors(t *testing.T) {
	st := symstate.New(64, newFakeConcrete(), true)
	txn := st.Begin(0x6000)
	dest := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegAL})
	_, err := txn.CreateSymbolicExpression(ast.Const(1, 32), dest, "bad width")
	require.Error(t, err)
}
