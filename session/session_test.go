package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/config"
)

func regOp(reg arch.RegisterID) arch.OperandDescriptor {
	return arch.OperandDescriptor{Kind: arch.OperandRegister, Register: reg}
}

func immOp(value uint64, sizeBits uint32) arch.OperandDescriptor {
	return arch.OperandDescriptor{Kind: arch.OperandImmediate, Immediate: value, SizeBits: sizeBits}
}

// TestMovThenAddBuildsFullFlagSet is the worked example from §4.5/§4.6:
// MOV EAX, 0x12345678; ADD EAX, 0x80000000. This module has no AST
// evaluator (the SMT backend is an external collaborator, §1), so the
// check is structural: every flag and the destination got a fresh,
// correctly-widthed expression, and PC advanced past both instructions.
func TestMovThenAddBuildsFullFlagSet(t *testing.T) {
	concrete := NewConcreteState(32)
	s := New(nil, concrete)

	mov := &arch.Instruction{
		Address: 0x1000, Length: 5, Opcode: arch.OpMOV, Mnemonic: "mov eax, 0x12345678",
		Operands: []arch.OperandDescriptor{regOp(arch.RegEAX), immOp(0x12345678, 32)},
	}
	require.NoError(t, s.Build(mov))

	add := &arch.Instruction{
		Address: 0x1005, Length: 5, Opcode: arch.OpADD, Mnemonic: "add eax, 0x80000000",
		Operands: []arch.OperandDescriptor{regOp(arch.RegEAX), immOp(0x80000000, 32)},
	}
	require.NoError(t, s.Build(add))

	eaxExpr := s.State().CurrentRegister(arch.RegEAX)
	require.NotNil(t, eaxExpr)
	assert.Equal(t, uint32(64), eaxExpr.Width(), "CurrentRegister maps EAX to its 64-bit parent RAX")
	assert.False(t, eaxExpr.Tainted(), "neither operand was tainted")

	for _, f := range []arch.FlagID{arch.FlagCF, arch.FlagOF, arch.FlagSF, arch.FlagZF, arch.FlagPF, arch.FlagAF} {
		expr := s.State().CurrentFlag(f)
		require.NotNil(t, expr, "flag %v must have a fresh expression", f)
		assert.Equal(t, uint32(1), expr.Width())
	}

	pc := s.State().CurrentRegister(arch.RegRIP)
	require.NotNil(t, pc)
	assert.Equal(t, uint64(0x100a), pc.Node.ConstValue, "PC must land past both instructions")
}

func TestBuildIsIdempotentOnReplayedInstruction(t *testing.T) {
	concrete := NewConcreteState(32)
	s := New(nil, concrete)

	inc := &arch.Instruction{
		Address: 0x2000, Length: 2, Opcode: arch.OpINC, Mnemonic: "inc eax",
		Operands: []arch.OperandDescriptor{regOp(arch.RegEAX)},
	}
	require.NoError(t, s.Build(inc))
	first := s.State().CurrentRegister(arch.RegEAX).ID

	require.NoError(t, s.Build(inc))
	second := s.State().CurrentRegister(arch.RegEAX).ID

	assert.Equal(t, first, second, "replaying the same instruction address must not mint a new expression")
}

func TestUnknownOpcodeIsRecoverableByDefault(t *testing.T) {
	concrete := NewConcreteState(32)
	s := New(nil, concrete)

	inst := &arch.Instruction{Address: 0x3000, Length: 4, Opcode: arch.OpcodeID(9999), Mnemonic: "unknown"}
	assert.NoError(t, s.Build(inst))
}

func TestUnknownOpcodeAbortsWhenConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dispatch.AbortOnUnknownOpcode = true
	concrete := NewConcreteState(32)
	s := New(cfg, concrete)

	inst := &arch.Instruction{Address: 0x3000, Length: 4, Opcode: arch.OpcodeID(9999), Mnemonic: "unknown"}
	assert.Error(t, s.Build(inst))
}

func TestTraceRecordsCommittedExpressionsWhenEnabled(t *testing.T) {
	concrete := NewConcreteState(32)
	s := New(nil, concrete)
	s.Trace().Enable()

	mov := &arch.Instruction{
		Address: 0x4000, Length: 5, Opcode: arch.OpMOV, Mnemonic: "mov eax, 1",
		Operands: []arch.OperandDescriptor{regOp(arch.RegEAX), immOp(1, 32)},
	}
	require.NoError(t, s.Build(mov))

	assert.NotEmpty(t, s.Trace().Entries())
}
