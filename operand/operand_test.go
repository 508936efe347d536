package operand_test

import (
	"testing"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/operand"
	"github.com/stretchr/testify/assert"
)

func TestAHSliceWithinParent(t *testing.T) {
	w := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegAH})
	assert.Equal(t, arch.RegRAX, w.Parent())
	assert.Equal(t, 15, w.AbstractHigh())
	assert.Equal(t, 8, w.AbstractLow())
	assert.Equal(t, uint32(8), w.BitSize())
}

func TestEAXIsLowerHalfOfRAX(t *testing.T) {
	w := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandRegister, Register: arch.RegEAX})
	assert.Equal(t, arch.RegRAX, w.Parent())
	assert.Equal(t, 31, w.AbstractHigh())
	assert.Equal(t, 0, w.AbstractLow())
}

func TestMemoryOperandBitSize(t *testing.T) {
	w := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandMemory, SizeBits: 32})
	assert.True(t, w.IsMemory())
	assert.Equal(t, uint32(32), w.BitSize())
	assert.Equal(t, uint32(4), w.ByteSize())
	assert.True(t, w.IsWritable())
}

func TestImmediateIsNotWritable(t *testing.T) {
	w := operand.FromDescriptor(arch.OperandDescriptor{Kind: arch.OperandImmediate, SizeBits: 8, Immediate: 5})
	assert.False(t, w.IsWritable())
	assert.Equal(t, uint64(5), w.ImmediateValue())
}
