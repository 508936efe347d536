package main

import (
	"sort"
	"strings"

	"github.com/lookbusy1344/x86-symex/arch"
)

func reg(r arch.RegisterID) arch.OperandDescriptor {
	return arch.OperandDescriptor{Kind: arch.OperandRegister, Register: r}
}

func imm(value uint64, sizeBits uint32) arch.OperandDescriptor {
	return arch.OperandDescriptor{Kind: arch.OperandImmediate, Immediate: value, SizeBits: sizeBits}
}

// scenarios are hand-built instruction sequences exercising a representative
// handler from a few handler families, the way session_test.go's worked examples do.
var scenarios = map[string][]*arch.Instruction{
	"add-overflow": {
		{Address: 0x1000, Length: 5, Opcode: arch.OpMOV, Mnemonic: "mov eax, 0x12345678",
			Operands: []arch.OperandDescriptor{reg(arch.RegEAX), imm(0x12345678, 32)}},
		{Address: 0x1005, Length: 5, Opcode: arch.OpADD, Mnemonic: "add eax, 0x80000000",
			Operands: []arch.OperandDescriptor{reg(arch.RegEAX), imm(0x80000000, 32)}},
	},
	"push-pop": {
		{Address: 0x2000, Length: 5, Opcode: arch.OpMOV, Mnemonic: "mov rax, 0x42",
			Operands: []arch.OperandDescriptor{reg(arch.RegRAX), imm(0x42, 64)}},
		{Address: 0x2005, Length: 1, Opcode: arch.OpPUSH, Mnemonic: "push rax",
			Operands: []arch.OperandDescriptor{reg(arch.RegRAX)}},
		{Address: 0x2006, Length: 1, Opcode: arch.OpPOP, Mnemonic: "pop rbx",
			Operands: []arch.OperandDescriptor{reg(arch.RegRBX)}},
	},
	"jcc": {
		{Address: 0x3000, Length: 2, Opcode: arch.OpCMP, Mnemonic: "cmp eax, eax",
			Operands: []arch.OperandDescriptor{reg(arch.RegEAX), reg(arch.RegEAX)}},
		{Address: 0x3002, Length: 2, Opcode: arch.OpJcc, Mnemonic: "je 0x3010", Condition: arch.CondE,
			Operands: []arch.OperandDescriptor{imm(0x3010, 64)}},
	},
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
