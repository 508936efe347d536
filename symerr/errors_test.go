package symerr_test

import (
	"errors"
	"testing"

	"github.com/lookbusy1344/x86-symex/symerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesContext(t *testing.T) {
	err := symerr.New(symerr.KindInvalidOperandSize, 0x401000, "ADD", "width must be 8/16/32/64/128")
	assert.Contains(t, err.Error(), "0x401000")
	assert.Contains(t, err.Error(), "ADD")
	assert.Contains(t, err.Error(), "invalid operand size")
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := symerr.Wrap(symerr.KindSymbolicCount, 0x10, "ROL", "count must be Decimal", cause)
	require.ErrorIs(t, err, cause)
}

func TestPoisonSetsFlag(t *testing.T) {
	err := symerr.Poison(0x20, "SHL", "extract out of range")
	assert.True(t, err.PoisonsSession)
	assert.Equal(t, symerr.KindOutOfRange, err.Kind)
}
