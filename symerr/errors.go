// Package symerr defines the typed errors the symbolic execution core
// raises (§7): one error type carrying instruction context plus an optional
// wrapped cause, rather than a family of unrelated error types per failure
// kind.
package symerr

import "fmt"

// Kind classifies why a SemanticError was raised, matching the error kinds
// enumerated in §7.
type Kind int

const (
	// KindInvalidOperandSize: a handler saw a width outside {8,16,32,64,128}.
	KindInvalidOperandSize Kind = iota
	// KindSymbolicCount: a flag helper was handed a non-Decimal rotate/shift count.
	KindSymbolicCount
	// KindUnknownOpcode: the dispatcher has no handler for the opcode. Recoverable.
	KindUnknownOpcode
	// KindOperandKindMismatch: the destination operand is not writable.
	KindOperandKindMismatch
	// KindOutOfRange: an extract/concat bound was violated — should be
	// impossible; indicates a bug in a handler and poisons the session.
	KindOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindInvalidOperandSize:
		return "invalid operand size"
	case KindSymbolicCount:
		return "symbolic rotate/shift count requires concretization"
	case KindUnknownOpcode:
		return "unknown opcode"
	case KindOperandKindMismatch:
		return "operand kind mismatch"
	case KindOutOfRange:
		return "out-of-range extract/concat"
	}
	return "unknown error kind"
}

// SemanticError is the one error type the failure paths of the
// instruction-handling core (symstate, opcodes, session) raise; config and
// ast return plain fmt errors. Instruction context (address, mnemonic) lets a caller log a
// precise diagnostic without the handler needing to format a message
// itself; Wrapped carries any underlying cause.
type SemanticError struct {
	Kind    Kind
	Address uint64
	Opcode  string
	Rule    string // which invariant/contract was violated, for diagnostics
	Wrapped error

	// PoisonsSession is true for bugs that should be impossible (§7's
	// out-of-range kind): the analysis session as a whole is no longer
	// trustworthy and callers should stop using it. Every other kind is
	// fatal only to the instruction that raised it; the session remains
	// usable for the next instruction.
	PoisonsSession bool
}

func (e *SemanticError) Error() string {
	loc := fmt.Sprintf("0x%x", e.Address)
	if e.Opcode != "" {
		loc = fmt.Sprintf("%s (%s)", loc, e.Opcode)
	}
	msg := fmt.Sprintf("%s: %s", loc, e.Kind)
	if e.Rule != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Rule)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

func (e *SemanticError) Unwrap() error {
	return e.Wrapped
}

// New builds a fatal-to-instruction SemanticError.
func New(kind Kind, address uint64, opcode, rule string) *SemanticError {
	return &SemanticError{Kind: kind, Address: address, Opcode: opcode, Rule: rule}
}

// Wrap builds a fatal-to-instruction SemanticError around an existing cause.
func Wrap(kind Kind, address uint64, opcode, rule string, cause error) *SemanticError {
	return &SemanticError{Kind: kind, Address: address, Opcode: opcode, Rule: rule, Wrapped: cause}
}

// Poison builds a session-poisoning SemanticError (§7's "bug in a handler;
// should be impossible" case).
func Poison(address uint64, opcode, rule string) *SemanticError {
	return &SemanticError{Kind: KindOutOfRange, Address: address, Opcode: opcode, Rule: rule, PoisonsSession: true}
}
